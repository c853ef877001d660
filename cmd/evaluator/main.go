package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/config"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/container"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/corruption"
)

func main() {
	cameraFlag := flag.String("camera", "", "camera UUID to evaluate frames for (default: random)")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Close()

	cameraID := uuid.New()
	if *cameraFlag != "" {
		cameraID, err = uuid.Parse(*cameraFlag)
		if err != nil {
			log.Fatalf("Invalid camera id %q: %v", *cameraFlag, err)
		}
	}

	// Metrics and dashboard event endpoints
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", c.WebsocketHub().ServeWS)

	server := &http.Server{
		Addr:    cfg.ListenAddress(),
		Handler: mux,
	}
	go func() {
		logrus.WithField("address", cfg.ListenAddress()).Info("Starting observability endpoints")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start observability endpoints")
		}
	}()

	// Evaluate frames passed on the command line, then keep serving events
	// until interrupted
	ctx := context.Background()
	for _, arg := range flag.Args() {
		path, err := filepath.Abs(arg)
		if err != nil {
			logrus.WithError(err).WithField("path", arg).Error("Skipping frame")
			continue
		}
		imageID := uuid.New()
		result, err := c.Service().Evaluate(ctx, corruption.CaptureRequest{
			CameraID:  cameraID,
			ImageID:   &imageID,
			ImagePath: path,
		})
		if err != nil {
			logrus.WithError(err).WithField("path", path).Error("Evaluation cancelled")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"path":         path,
			"action":       result.Action,
			"final_score":  result.Score.FinalScore,
			"quality":      result.Score.QualityLevel,
			"should_retry": result.Retry.ShouldRetry,
		}).Info("Frame evaluated")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Forced shutdown of observability endpoints")
	}

	logrus.Info("Evaluator exited")
}

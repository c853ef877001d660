package container

import (
	"fmt"

	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/config"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/corruption"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/detector"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/health"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/logger"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/notify"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/repository"
)

// Container holds all application dependencies
type Container struct {
	config     *config.Config
	repo       repository.CorruptionRepository
	service    corruption.EvaluationService
	settings   *corruption.StaticSettingsProvider
	publisher  notify.Publisher
	websockets *notify.WebsocketHub
}

// NewContainer builds the dependency graph: config → store → detectors →
// controller → service → notifiers
func NewContainer(cfg *config.Config) (*Container, error) {
	settings := config.DetectionSettings()
	provider, err := corruption.NewStaticSettingsProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("build settings provider: %w", err)
	}

	var repo repository.CorruptionRepository
	if cfg.DatabasePath != "" {
		repo, err = repository.NewSQLiteStore(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open corruption store: %w", err)
		}
	} else {
		logger.Warn("No CORRUPTION_DB_PATH configured, state is in-memory only")
		repo = repository.NewMemoryStore()
	}

	publisher := notify.NewPublisher()
	publisher.Subscribe(notify.NewLoggingNotifier(logger.Logger))
	publisher.Subscribe(notify.NewPrometheusNotifier())
	hub := notify.NewWebsocketHub()
	publisher.Subscribe(hub)

	fast := detector.NewFastDetector()
	heavy := detector.NewHeavyDetectorWithThresholds(detector.DefaultHeavyThresholds(), settings.HeavyDetectionTimeout)

	controller := health.NewDegradedModeController(settings, repo, repo, publisher)
	scorer := health.NewHealthScorer()

	service := corruption.NewEvaluationService(provider, fast, heavy, repo, controller, scorer, publisher)

	return &Container{
		config:     cfg,
		repo:       repo,
		service:    service,
		settings:   provider,
		publisher:  publisher,
		websockets: hub,
	}, nil
}

// Service returns the evaluation service
func (c *Container) Service() corruption.EvaluationService {
	return c.service
}

// SettingsProvider returns the mutable settings provider
func (c *Container) SettingsProvider() *corruption.StaticSettingsProvider {
	return c.settings
}

// WebsocketHub returns the dashboard event hub
func (c *Container) WebsocketHub() *notify.WebsocketHub {
	return c.websockets
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the service and store
func (c *Container) Close() error {
	if err := c.service.Close(); err != nil {
		return err
	}
	return c.repo.Close()
}

package detector

import (
	"context"
	"image"
	"os"
	"time"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// DefaultHeavyTimeout bounds one heavy analysis so a single slow frame
// cannot stall the pool
const DefaultHeavyTimeout = 200 * time.Millisecond

// heavyDetector implements HeavyDetector
type heavyDetector struct {
	thresholds HeavyThresholds
	timeout    time.Duration
	pool       *WorkerPool
}

// NewHeavyDetector creates a heavy detector with default thresholds and its
// own worker pool sized to the CPU count
func NewHeavyDetector() HeavyDetector {
	return NewHeavyDetectorWithThresholds(DefaultHeavyThresholds(), DefaultHeavyTimeout)
}

// NewHeavyDetectorWithThresholds creates a heavy detector with custom
// thresholds and per-frame timeout
func NewHeavyDetectorWithThresholds(thresholds HeavyThresholds, timeout time.Duration) HeavyDetector {
	if timeout <= 0 {
		timeout = DefaultHeavyTimeout
	}
	pool := NewWorkerPool(0) // default CPU count
	pool.Start()

	return &heavyDetector{
		thresholds: thresholds,
		timeout:    timeout,
		pool:       pool,
	}
}

// Detect runs the blur, edge-density, color-variance, histogram-peak,
// saturation and texture checks. Exceeding the timeout or the context
// deadline is treated as a detector fault and resolves to a fail-safe
// corrupted outcome.
func (d *heavyDetector) Detect(ctx context.Context, imagePath string) models.DetectionOutcome {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan models.DetectionOutcome, 1)
	err := d.pool.Submit(ctx, func() {
		done <- d.analyze(imagePath, start)
	})
	if err != nil {
		return fatalOutcome(models.CheckAnalysisTimeout, start, err)
	}

	select {
	case outcome := <-done:
		return outcome
	case <-ctx.Done():
		return fatalOutcome(models.CheckAnalysisTimeout, start, ctx.Err())
	}
}

// Close shuts down the detector's worker pool
func (d *heavyDetector) Close() error {
	d.pool.Close()
	return nil
}

func (d *heavyDetector) analyze(imagePath string, start time.Time) models.DetectionOutcome {
	f, err := os.Open(imagePath)
	if err != nil {
		return fatalOutcome(models.CheckImageLoad, start, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fatalOutcome(models.CheckImageLoad, start, err)
	}

	gray := toGray(img)
	b := newOutcomeBuilder()

	laplacianVar := calc.CalculateLaplacianVariance(gray)
	b.record(models.CheckBlur, laplacianVar >= d.thresholds.MinLaplacianVariance,
		PenaltyBlur, laplacianVar, map[string]float64{
			"min_variance": d.thresholds.MinLaplacianVariance,
		})

	edgeDensity, meanGradient := calc.CalculateEdgeStats(gray)
	b.record(models.CheckEdgeDensity, edgeDensity >= d.thresholds.MinEdgeDensity,
		PenaltyLowEdgeDensity, edgeDensity, map[string]float64{
			"min_density": d.thresholds.MinEdgeDensity,
		})

	color := calc.CalculateColorStats(img)
	b.record(models.CheckColorVariance, color.colorVariance >= d.thresholds.MinColorVariance,
		PenaltyLowColorVar, color.colorVariance, map[string]float64{
			"min_variance": d.thresholds.MinColorVariance,
		})

	bounds := gray.Bounds()
	minCount := int(float64(bounds.Dx()*bounds.Dy()) * d.thresholds.PeakMinCountFraction)
	peaks := calc.CountHistogramPeaks(gray, minCount)
	b.record(models.CheckHistogramPeaks, peaks >= d.thresholds.MinHistogramPeaks,
		PenaltyFewHistPeaks, float64(peaks), map[string]float64{
			"min_peaks":      float64(d.thresholds.MinHistogramPeaks),
			"peak_min_count": float64(minCount),
		})

	b.record(models.CheckSaturation, color.avgSaturation >= d.thresholds.MinSaturation,
		PenaltyLowSaturation, color.avgSaturation, map[string]float64{
			"min_saturation": d.thresholds.MinSaturation,
		})

	b.record(models.CheckTexture, meanGradient >= d.thresholds.MinGradientMagnitude,
		PenaltyLowTexture, meanGradient, map[string]float64{
			"min_gradient": d.thresholds.MinGradientMagnitude,
		})

	return b.build(start)
}

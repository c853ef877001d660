package detector

import (
	"image"
	"image/draw"
	"math"
	"os"
	"time"

	// Frame formats produced by the capture pipeline
	_ "image/jpeg"
	_ "image/png"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// fastSampleTarget caps the number of pixels the fast path inspects so the
// sub-5ms budget holds on large frames
const fastSampleTarget = 40000

// fastDetector implements FastDetector
type fastDetector struct {
	thresholds FastThresholds
}

// NewFastDetector creates a fast detector with default thresholds
func NewFastDetector() FastDetector {
	return NewFastDetectorWithThresholds(DefaultFastThresholds())
}

// NewFastDetectorWithThresholds creates a fast detector with custom thresholds
func NewFastDetectorWithThresholds(thresholds FastThresholds) FastDetector {
	return &fastDetector{thresholds: thresholds}
}

// Detect runs the file-size, dimension, brightness and uniformity checks.
// An image that cannot be read or decoded is a distinct fatal condition and
// resolves to score 100 with a single image_load failed check.
func (d *fastDetector) Detect(imagePath string) models.DetectionOutcome {
	start := time.Now()
	b := newOutcomeBuilder()

	info, err := os.Stat(imagePath)
	if err != nil {
		return fatalOutcome(models.CheckImageLoad, start, err)
	}

	size := info.Size()
	sizeValid := size >= d.thresholds.MinFileSize && size <= d.thresholds.MaxFileSize
	sizePenalty := PenaltyFileTooSmall
	if size > d.thresholds.MaxFileSize {
		sizePenalty = PenaltyFileTooLarge
	}
	b.record(models.CheckFileSize, sizeValid, sizePenalty, float64(size), map[string]float64{
		"min_bytes": float64(d.thresholds.MinFileSize),
		"max_bytes": float64(d.thresholds.MaxFileSize),
	})

	f, err := os.Open(imagePath)
	if err != nil {
		return fatalOutcome(models.CheckImageLoad, start, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fatalOutcome(models.CheckImageLoad, start, err)
	}

	dimsValid := cfg.Width >= d.thresholds.MinWidth && cfg.Height >= d.thresholds.MinHeight &&
		cfg.Width <= d.thresholds.MaxWidth && cfg.Height <= d.thresholds.MaxHeight
	dimsPenalty := PenaltyDimsTooSmall
	if cfg.Width > d.thresholds.MaxWidth || cfg.Height > d.thresholds.MaxHeight {
		dimsPenalty = PenaltyDimsTooLarge
	}
	b.record(models.CheckDimensions, dimsValid, dimsPenalty, float64(cfg.Width*cfg.Height), map[string]float64{
		"width":  float64(cfg.Width),
		"height": float64(cfg.Height),
	})

	if _, err := f.Seek(0, 0); err != nil {
		return fatalOutcome(models.CheckImageLoad, start, err)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return fatalOutcome(models.CheckImageLoad, start, err)
	}

	gray := toGray(img)
	stats := calc.CalculateGrayStats(gray, sampleStep(cfg.Width, cfg.Height))

	brightnessValid := stats.mean >= d.thresholds.MinBrightness && stats.mean <= d.thresholds.MaxBrightness
	b.record(models.CheckBrightness, brightnessValid, PenaltyBrightness, stats.mean, map[string]float64{
		"min": d.thresholds.MinBrightness,
		"max": d.thresholds.MaxBrightness,
	})

	varianceValid := stats.variance >= d.thresholds.LowVarianceFloor
	b.record(models.CheckUniformity, varianceValid, PenaltyLowVariance, stats.variance, map[string]float64{
		"floor": d.thresholds.LowVarianceFloor,
	})

	distinctRatio := float64(stats.distinctCount) / 256.0
	distinctValid := distinctRatio >= d.thresholds.MinDistinctRatio
	b.record(models.CheckDistinctValues, distinctValid, PenaltyFewDistinct, distinctRatio, map[string]float64{
		"distinct_values": float64(stats.distinctCount),
	})

	return b.build(start)
}

// calc is shared across detectors; the calculator itself is stateless apart
// from its slice pool
var calc = newMetricsCalculator()

// sampleStep returns the stride that keeps sampled pixel count near
// fastSampleTarget
func sampleStep(width, height int) int {
	total := width * height
	if total <= fastSampleTarget {
		return 1
	}
	step := int(math.Sqrt(float64(total) / float64(fastSampleTarget)))
	if step < 1 {
		step = 1
	}
	return step
}

// toGray converts any decoded image to grayscale
func toGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

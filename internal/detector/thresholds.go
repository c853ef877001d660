package detector

// Penalty points per failed check. Penalties are additive and the resulting
// corruption score is capped at 100.
const (
	PenaltyFileTooSmall   = 50.0
	PenaltyFileTooLarge   = 30.0
	PenaltyDimsTooSmall   = 40.0
	PenaltyDimsTooLarge   = 20.0
	PenaltyBrightness     = 25.0
	PenaltyLowVariance    = 35.0
	PenaltyFewDistinct    = 40.0
	PenaltyBlur           = 25.0
	PenaltyLowEdgeDensity = 20.0
	PenaltyLowColorVar    = 15.0
	PenaltyFewHistPeaks   = 18.0
	PenaltyLowSaturation  = 12.0
	PenaltyLowTexture     = 10.0
)

// FastThresholds defines the limits for the sub-5ms heuristic checks
type FastThresholds struct {
	// File size limits in bytes
	MinFileSize int64
	MaxFileSize int64

	// Dimension limits in pixels
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int

	// Mean grayscale intensity limits (0-255 scale)
	MinBrightness float64
	MaxBrightness float64

	// Grayscale variance below this marks a near-blank frame
	LowVarianceFloor float64

	// Fraction of the 256 possible gray values that must appear
	MinDistinctRatio float64
}

// DefaultFastThresholds returns the default fast-check thresholds
func DefaultFastThresholds() FastThresholds {
	return FastThresholds{
		MinFileSize:      1024,             // 1KB
		MaxFileSize:      50 * 1024 * 1024, // 50MB
		MinWidth:         320,
		MinHeight:        240,
		MaxWidth:         7680,
		MaxHeight:        4320,
		MinBrightness:    10.0,
		MaxBrightness:    245.0,
		LowVarianceFloor: 10.0,
		MinDistinctRatio: 0.01,
	}
}

// HeavyThresholds defines the limits for the computer-vision checks
type HeavyThresholds struct {
	// Minimum Laplacian variance before a frame counts as blurred
	MinLaplacianVariance float64

	// Minimum fraction of pixels marked as edges
	MinEdgeDensity float64

	// Minimum sum of per-channel variance (0-255 scale)
	MinColorVariance float64

	// Minimum number of luminance histogram peaks, and the minimum bin
	// count for a local maximum to qualify as a peak (as a fraction of
	// total pixels)
	MinHistogramPeaks    int
	PeakMinCountFraction float64

	// Minimum mean HSV saturation
	MinSaturation float64

	// Minimum mean Sobel gradient magnitude
	MinGradientMagnitude float64
}

// DefaultHeavyThresholds returns the default heavy-check thresholds
func DefaultHeavyThresholds() HeavyThresholds {
	return HeavyThresholds{
		MinLaplacianVariance: 100.0,
		MinEdgeDensity:       0.01,
		MinColorVariance:     50.0,
		MinHistogramPeaks:    3,
		PeakMinCountFraction: 0.001,
		MinSaturation:        0.05,
		MinGradientMagnitude: 5.0,
	}
}

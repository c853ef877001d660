package detector

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createTestImage creates a uniform test image
func createTestImage(width, height int, fillColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// createBlockImage tiles 8x8 blocks cycling through four colors: three
// saturated primaries and one near-white. A frame like this exercises every
// heavy check on the passing side.
func createBlockImage(width, height int) *image.RGBA {
	palette := []color.RGBA{
		{200, 50, 50, 255},
		{50, 200, 50, 255},
		{50, 50, 200, 255},
		{230, 230, 230, 255},
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, palette[((x/8)+(y/8))%4])
		}
	}
	return img
}

func toGrayImage(img image.Image) *image.Gray {
	return toGray(img)
}

func TestCalculateGrayStats_UniformImage(t *testing.T) {
	gray := toGrayImage(createTestImage(100, 100, color.RGBA{128, 128, 128, 255}))

	stats := calc.CalculateGrayStats(gray, 1)

	if math.Abs(stats.mean-float64(gray.GrayAt(0, 0).Y)) > 0.01 {
		t.Errorf("Expected mean near the fill value, got %f", stats.mean)
	}
	if stats.variance > 0.01 {
		t.Errorf("Expected zero variance for a uniform image, got %f", stats.variance)
	}
	if stats.distinctCount != 1 {
		t.Errorf("Expected 1 distinct value, got %d", stats.distinctCount)
	}
	if stats.pixelCount != 100*100 {
		t.Errorf("Expected 10000 pixels, got %d", stats.pixelCount)
	}
}

func TestCalculateGrayStats_Sampling(t *testing.T) {
	gray := toGrayImage(createBlockImage(100, 100))

	full := calc.CalculateGrayStats(gray, 1)
	sampled := calc.CalculateGrayStats(gray, 2)

	if sampled.pixelCount != 50*50 {
		t.Errorf("Expected 2500 sampled pixels, got %d", sampled.pixelCount)
	}
	// Sampling a regular pattern should not move the mean much
	if math.Abs(full.mean-sampled.mean) > 10 {
		t.Errorf("Expected similar means, got %f vs %f", full.mean, sampled.mean)
	}
}

func TestCalculateGrayStats_EmptyImage(t *testing.T) {
	stats := calc.CalculateGrayStats(image.NewGray(image.Rect(0, 0, 0, 0)), 1)
	if stats.pixelCount != 0 || stats.mean != 0 {
		t.Errorf("Expected zero stats for an empty image, got %+v", stats)
	}
}

func TestCalculateLaplacianVariance(t *testing.T) {
	uniform := toGrayImage(createTestImage(100, 100, color.RGBA{90, 90, 90, 255}))
	if v := calc.CalculateLaplacianVariance(uniform); v != 0 {
		t.Errorf("Expected zero Laplacian variance for a uniform image, got %f", v)
	}

	blocks := toGrayImage(createBlockImage(100, 100))
	if v := calc.CalculateLaplacianVariance(blocks); v < 100 {
		t.Errorf("Expected high Laplacian variance for sharp block edges, got %f", v)
	}

	tiny := image.NewGray(image.Rect(0, 0, 2, 2))
	if v := calc.CalculateLaplacianVariance(tiny); v != 0 {
		t.Errorf("Expected zero variance for a sub-3x3 image, got %f", v)
	}
}

func TestCalculateEdgeStats(t *testing.T) {
	uniform := toGrayImage(createTestImage(100, 100, color.RGBA{90, 90, 90, 255}))
	density, gradient := calc.CalculateEdgeStats(uniform)
	if density != 0 || gradient != 0 {
		t.Errorf("Expected no edges in a uniform image, got density=%f gradient=%f", density, gradient)
	}

	// Vertical black/white split: one strong edge column
	split := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x >= 50 {
				split.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	density, gradient = calc.CalculateEdgeStats(split)
	if density <= 0 {
		t.Error("Expected edge pixels along the split")
	}
	if gradient <= 0 {
		t.Error("Expected positive mean gradient")
	}
	// Two columns of edge pixels out of 98 interior columns
	if density > 0.1 {
		t.Errorf("Expected sparse edges for a single split, got density %f", density)
	}
}

func TestCountHistogramPeaks(t *testing.T) {
	uniform := toGrayImage(createTestImage(50, 50, color.RGBA{128, 128, 128, 255}))
	if peaks := calc.CountHistogramPeaks(uniform, 1); peaks != 1 {
		t.Errorf("Expected 1 peak for a single-tone image, got %d", peaks)
	}

	blocks := toGrayImage(createBlockImage(64, 64))
	if peaks := calc.CountHistogramPeaks(blocks, 1); peaks != 4 {
		t.Errorf("Expected 4 peaks for the four-color block image, got %d", peaks)
	}

	// A minCount above the minority-tone count filters that peak out
	twoTone := image.NewGray(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if x < 2 {
				twoTone.SetGray(x, y, color.Gray{Y: 200})
			} else {
				twoTone.SetGray(x, y, color.Gray{Y: 50})
			}
		}
	}
	if peaks := calc.CountHistogramPeaks(twoTone, 1); peaks != 2 {
		t.Errorf("Expected 2 peaks, got %d", peaks)
	}
	if peaks := calc.CountHistogramPeaks(twoTone, 200); peaks != 1 {
		t.Errorf("Expected minority peak filtered by minCount, got %d", peaks)
	}
}

func TestCalculateColorStats(t *testing.T) {
	red := createTestImage(50, 50, color.RGBA{255, 0, 0, 255})
	stats := calc.CalculateColorStats(red)
	if math.Abs(stats.avgSaturation-1.0) > 0.01 {
		t.Errorf("Expected full saturation for pure red, got %f", stats.avgSaturation)
	}
	if stats.colorVariance > 0.01 {
		t.Errorf("Expected zero color variance for a uniform image, got %f", stats.colorVariance)
	}

	gray := createTestImage(50, 50, color.RGBA{128, 128, 128, 255})
	stats = calc.CalculateColorStats(gray)
	if stats.avgSaturation > 0.01 {
		t.Errorf("Expected zero saturation for gray, got %f", stats.avgSaturation)
	}

	blocks := createBlockImage(64, 64)
	stats = calc.CalculateColorStats(blocks)
	if stats.colorVariance < 50 {
		t.Errorf("Expected high color variance for the block image, got %f", stats.colorVariance)
	}
	if stats.avgSaturation < 0.05 {
		t.Errorf("Expected visible saturation for the block image, got %f", stats.avgSaturation)
	}
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b float64
		wantH   float64
		wantS   float64
		wantV   float64
	}{
		{"red", 1, 0, 0, 0, 1, 1},
		{"green", 0, 1, 0, 120, 1, 1},
		{"blue", 0, 0, 1, 240, 1, 1},
		{"white", 1, 1, 1, 0, 0, 1},
		{"black", 0, 0, 0, 0, 0, 0},
		{"gray", 0.5, 0.5, 0.5, 0, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := rgbToHSV(tt.r, tt.g, tt.b)
			if math.Abs(h-tt.wantH) > 0.01 {
				t.Errorf("Expected h=%f, got %f", tt.wantH, h)
			}
			if math.Abs(s-tt.wantS) > 0.01 {
				t.Errorf("Expected s=%f, got %f", tt.wantS, s)
			}
			if math.Abs(v-tt.wantV) > 0.01 {
				t.Errorf("Expected v=%f, got %f", tt.wantV, v)
			}
		})
	}
}

package detector

import (
	"image"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// grayStats holds grayscale statistics gathered in a single pass
type grayStats struct {
	mean          float64
	variance      float64
	distinctCount int
	pixelCount    int
}

// colorStats holds color statistics gathered in a single pass
type colorStats struct {
	avgSaturation float64
	// Sum of per-channel variance (0-255 scale)
	colorVariance float64
}

// metricsCalculator computes the pixel statistics both detectors are built
// on. Heavy loops process the image in horizontal strips sized to the CPU
// count for cache locality; the Laplacian buffer is pooled across calls.
type metricsCalculator struct {
	slicePool sync.Pool
}

func newMetricsCalculator() *metricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// CalculateGrayStats computes mean, variance and the distinct-value count of
// a grayscale image. A step > 1 samples every step-th pixel on both axes,
// which keeps the fast path inside its latency budget on large frames.
func (mc *metricsCalculator) CalculateGrayStats(gray *image.Gray, step int) grayStats {
	bounds := gray.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return grayStats{}
	}
	if step < 1 {
		step = 1
	}

	var seen [256]bool
	var sum, sumSq float64
	count := 0

	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			v := float64(gray.GrayAt(x, y).Y)
			seen[gray.GrayAt(x, y).Y] = true
			sum += v
			sumSq += v * v
			count++
		}
	}

	if count == 0 {
		return grayStats{}
	}

	mean := sum / float64(count)
	distinct := 0
	for _, s := range seen {
		if s {
			distinct++
		}
	}
	return grayStats{
		mean:          mean,
		variance:      sumSq/float64(count) - mean*mean,
		distinctCount: distinct,
		pixelCount:    count,
	}
}

// CalculateColorStats computes mean saturation and summed per-channel
// variance with parallel row-strip processing
func (mc *metricsCalculator) CalculateColorStats(img image.Image) colorStats {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return colorStats{}
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	type stripResult struct {
		sat        float64
		r, g, b    float64
		r2, g2, b2 float64
		pixelCount int
	}

	results := make(chan stripResult, numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		startY := bounds.Min.Y + i*rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > bounds.Max.Y {
			endY = bounds.Max.Y
		}
		go func(startY, endY int) {
			defer wg.Done()

			var res stripResult
			for y := startY; y < endY; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					rVal, gVal, bVal, _ := img.At(x, y).RGBA()
					// 16-bit channels scaled to 0-255
					rf := float64(rVal) / 257.0
					gf := float64(gVal) / 257.0
					bf := float64(bVal) / 257.0

					_, s, _ := rgbToHSV(rf/255.0, gf/255.0, bf/255.0)
					res.sat += s
					res.r += rf
					res.g += gf
					res.b += bf
					res.r2 += rf * rf
					res.g2 += gf * gf
					res.b2 += bf * bf
					res.pixelCount++
				}
			}
			results <- res
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total stripResult
	for res := range results {
		total.sat += res.sat
		total.r += res.r
		total.g += res.g
		total.b += res.b
		total.r2 += res.r2
		total.g2 += res.g2
		total.b2 += res.b2
		total.pixelCount += res.pixelCount
	}

	if total.pixelCount == 0 {
		return colorStats{}
	}

	n := float64(total.pixelCount)
	varR := total.r2/n - (total.r/n)*(total.r/n)
	varG := total.g2/n - (total.g/n)*(total.g/n)
	varB := total.b2/n - (total.b/n)*(total.b/n)

	return colorStats{
		avgSaturation: total.sat / n,
		colorVariance: varR + varG + varB,
	}
}

// CalculateLaplacianVariance computes the variance of a Laplacian
// second-derivative filter, the standard blur signal
func (mc *metricsCalculator) CalculateLaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)
	defer mc.slicePool.Put(data[:0])

	if cap(data) < (width-2)*(height-2) {
		data = make([]float64, 0, (width-2)*(height-2))
	}

	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

// edgeMagnitudeThreshold marks a Sobel magnitude as an edge pixel
const edgeMagnitudeThreshold = 50.0

// CalculateEdgeStats computes the fraction of pixels marked as edges and the
// mean gradient magnitude using a Sobel operator
func (mc *metricsCalculator) CalculateEdgeStats(gray *image.Gray) (density, meanGradient float64) {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0, 0
	}

	edgeCount := 0
	var totalMagnitude float64
	samples := 0

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := sobelX(gray, x, y)
			gy := sobelY(gray, x, y)

			magnitude := math.Sqrt(float64(gx*gx + gy*gy))
			totalMagnitude += magnitude
			samples++
			if magnitude > edgeMagnitudeThreshold {
				edgeCount++
			}
		}
	}

	if samples == 0 {
		return 0, 0
	}
	return float64(edgeCount) / float64(samples), totalMagnitude / float64(samples)
}

// CountHistogramPeaks counts local maxima in the 256-bin luminance histogram
// whose bin count is at least minCount
func (mc *metricsCalculator) CountHistogramPeaks(gray *image.Gray, minCount int) int {
	bounds := gray.Bounds()

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}

	if minCount < 1 {
		minCount = 1
	}

	peaks := 0
	for i := 0; i < 256; i++ {
		if hist[i] < minCount {
			continue
		}
		left := 0
		if i > 0 {
			left = hist[i-1]
		}
		right := 0
		if i < 255 {
			right = hist[i+1]
		}
		if hist[i] > left && hist[i] >= right {
			peaks++
		}
	}
	return peaks
}

func sobelX(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) + 1*int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-1*int(gray.GrayAt(x-1, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

func sobelY(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - 1*int(gray.GrayAt(x+1, y-1).Y) +
		1*int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

// rgbToHSV converts normalized RGB to HSV
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max

	if max == 0 {
		s = 0
	} else {
		s = delta / max
	}

	if delta == 0 {
		h = 0
	} else if max == r {
		h = 60 * ((g - b) / delta)
	} else if max == g {
		h = 60 * (((b - r) / delta) + 2)
	} else {
		h = 60 * (((r - g) / delta) + 4)
	}

	if h < 0 {
		h += 360
	}
	return h, s, v
}

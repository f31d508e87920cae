package renderer

import (
	"image"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels     int           // Total number of pixels rendered
	TotalSamples    int           // Total number of samples taken
	AverageSamples  float64       // Average samples per pixel
	MeanLuminance   float64       // Mean luminance of the encoded pixels
	LuminanceStdDev float64       // Spread of per-pixel luminance
	Duration        time.Duration // Wall-clock render time
}

// Merge adds the sample counts of a finished tile
func (rs *RenderStats) Merge(other RenderStats) {
	rs.TotalPixels += other.TotalPixels
	rs.TotalSamples += other.TotalSamples
	if rs.TotalPixels > 0 {
		rs.AverageSamples = float64(rs.TotalSamples) / float64(rs.TotalPixels)
	}
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator for final result
	LuminanceAccum   float64   // Luminance accumulator
	LuminanceSqAccum float64   // Luminance squared for variance
	SampleCount      int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Divide(float64(ps.SampleCount))
}

// Variance returns the luminance variance across this pixel's samples
func (ps *PixelStats) Variance() float64 {
	if ps.SampleCount == 0 {
		return 0
	}
	mean := ps.LuminanceAccum / float64(ps.SampleCount)
	meanSq := ps.LuminanceSqAccum / float64(ps.SampleCount)
	return max(0, meanSq-mean*mean)
}

// Rec. 709 luminance weights for encoded 8-bit pixels
const (
	lumR = 0.2126
	lumG = 0.7152
	lumB = 0.0722
)

func pixelLuminances(img *image.RGBA) []float64 {
	bounds := img.Bounds()
	lums := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			lums = append(lums, (lumR*float64(c.R)+lumG*float64(c.G)+lumB*float64(c.B))/255.0)
		}
	}
	return lums
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of an encoded image in [0, 1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	lums := pixelLuminances(img)
	if len(lums) == 0 {
		return 0
	}
	return stat.Mean(lums, nil)
}

// LuminanceSpread returns the mean and standard deviation of per-pixel luminance
func LuminanceSpread(img *image.RGBA) (mean, stdDev float64) {
	lums := pixelLuminances(img)
	switch len(lums) {
	case 0:
		return 0, 0
	case 1:
		return lums[0], 0
	}
	return stat.MeanStdDev(lums, nil)
}

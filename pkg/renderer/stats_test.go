package renderer

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

func TestCalculateAverageLuminance(t *testing.T) {
	// Create a 2x2 image
	// Top-left: Red (1, 0, 0) -> Lum = 0.2126
	// Top-right: Green (0, 1, 0) -> Lum = 0.7152
	// Bottom-left: Blue (0, 0, 1) -> Lum = 0.0722
	// Bottom-right: Black (0, 0, 0) -> Lum = 0.0

	// Expected average: (0.2126 + 0.7152 + 0.0722 + 0.0) / 4 = 1.0 / 4 = 0.25

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{0, 0, 0, 255})

	avgLum := CalculateAverageLuminance(img)
	expected := 0.25
	tolerance := 0.0001

	if avgLum < expected-tolerance || avgLum > expected+tolerance {
		t.Errorf("Expected average luminosity %f, got %f", expected, avgLum)
	}
}

func TestCalculateAverageLuminance_White(t *testing.T) {
	// 1x1 White pixel -> Lum = 1.0
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})

	avgLum := CalculateAverageLuminance(img)
	expected := 1.0
	tolerance := 0.0001

	if avgLum < expected-tolerance || avgLum > expected+tolerance {
		t.Errorf("Expected average luminosity %f, got %f", expected, avgLum)
	}
}

func TestLuminanceSpread(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})
	img.Set(1, 0, color.RGBA{0, 0, 0, 255})

	mean, stdDev := LuminanceSpread(img)
	if math.Abs(mean-0.5) > 1e-9 {
		t.Errorf("Expected mean 0.5, got %f", mean)
	}
	// Sample standard deviation of {0, 1}
	if math.Abs(stdDev-math.Sqrt(0.5)) > 1e-9 {
		t.Errorf("Expected std dev %f, got %f", math.Sqrt(0.5), stdDev)
	}

	single := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if _, sd := LuminanceSpread(single); sd != 0 {
		t.Errorf("Single pixel should have zero spread, got %f", sd)
	}
}

func TestPixelStats(t *testing.T) {
	var ps PixelStats
	if ps.GetColor() != (core.Vec3{}) {
		t.Errorf("Empty pixel should be black, got %v", ps.GetColor())
	}

	ps.AddSample(core.NewVec3(1, 1, 1))
	ps.AddSample(core.NewVec3(0, 0, 0))

	if ps.SampleCount != 2 {
		t.Errorf("Expected 2 samples, got %d", ps.SampleCount)
	}
	if ps.GetColor() != core.NewVec3(0.5, 0.5, 0.5) {
		t.Errorf("Expected average (0.5, 0.5, 0.5), got %v", ps.GetColor())
	}
	// Luminance samples 1 and 0 have population variance 0.25
	if math.Abs(ps.Variance()-0.25) > 1e-9 {
		t.Errorf("Expected variance 0.25, got %f", ps.Variance())
	}
}

func TestRenderStats_Merge(t *testing.T) {
	var stats RenderStats
	stats.Merge(RenderStats{TotalPixels: 4, TotalSamples: 8})
	stats.Merge(RenderStats{TotalPixels: 2, TotalSamples: 10})

	if stats.TotalPixels != 6 || stats.TotalSamples != 18 {
		t.Errorf("Unexpected totals %+v", stats)
	}
	if stats.AverageSamples != 3 {
		t.Errorf("Expected average 3, got %f", stats.AverageSamples)
	}
}

package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/df07/go-sphere-raytracer/pkg/core"
	"github.com/df07/go-sphere-raytracer/pkg/geometry"
	"github.com/df07/go-sphere-raytracer/pkg/integrator"
)

// ErrInvalidSampling is returned when image or sampling parameters are out of range
var ErrInvalidSampling = errors.New("invalid sampling config")

// SamplingConfig contains image size and rendering configuration
type SamplingConfig struct {
	Width           int   // Image width in pixels
	Height          int   // Image height in pixels
	SamplesPerPixel int   // Number of rays per pixel
	MaxDepth        int   // Maximum ray bounce depth
	NumWorkers      int   // Number of parallel workers (0 = use CPU count)
	TileSize        int   // Side length of each square tile
	Seed            int64 // Base seed for the per-tile random streams
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 100,
		MaxDepth:        50,
		NumWorkers:      0,
		TileSize:        32,
		Seed:            1,
	}
}

// Validate reports every problem with the configuration in one error
func (c SamplingConfig) Validate() error {
	var problems []string
	if c.Width <= 0 || c.Height <= 0 {
		problems = append(problems, fmt.Sprintf("image size %dx%d must be positive", c.Width, c.Height))
	}
	if c.SamplesPerPixel <= 0 {
		problems = append(problems, fmt.Sprintf("samples per pixel %d must be positive", c.SamplesPerPixel))
	}
	if c.MaxDepth <= 0 {
		problems = append(problems, fmt.Sprintf("max depth %d must be positive", c.MaxDepth))
	}
	if c.NumWorkers < 0 {
		problems = append(problems, fmt.Sprintf("workers %d must not be negative", c.NumWorkers))
	}
	if c.TileSize <= 0 {
		problems = append(problems, fmt.Sprintf("tile size %d must be positive", c.TileSize))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSampling, strings.Join(problems, "; "))
	}
	return nil
}

// SamplerFactory creates the random stream a tile draws from
type SamplerFactory func(tile *Tile) core.Sampler

// Raytracer renders a world through a camera into an image
type Raytracer struct {
	world      geometry.Hittable
	camera     *Camera
	integrator integrator.Integrator
	config     SamplingConfig
	logger     core.Logger
	newSampler SamplerFactory
}

// NewRaytracer creates a new raytracer
func NewRaytracer(world geometry.Hittable, camera *Camera, integ integrator.Integrator, config SamplingConfig) *Raytracer {
	return &Raytracer{
		world:      world,
		camera:     camera,
		integrator: integ,
		config:     config,
		logger:     core.NopLogger{},
		newSampler: func(tile *Tile) core.Sampler {
			return core.NewSeededSampler(tile.Seed)
		},
	}
}

// SetLogger replaces the logger used for progress output
func (rt *Raytracer) SetLogger(logger core.Logger) {
	rt.logger = logger
}

// SetSamplerFactory replaces how per-tile random streams are created
func (rt *Raytracer) SetSamplerFactory(factory SamplerFactory) {
	rt.newSampler = factory
}

// Config returns the sampling configuration
func (rt *Raytracer) Config() SamplingConfig {
	return rt.config
}

// EncodeColor converts an averaged linear color to 8-bit sRGB-ish output:
// clamp to [0, 0.999], gamma 2 via sqrt, then scale by 256 and truncate
func EncodeColor(colorVec core.Vec3) color.RGBA {
	colorVec = colorVec.Clamp(0.0, 0.999).GammaCorrect(2.0)

	return color.RGBA{
		R: toByte(colorVec.X),
		G: toByte(colorVec.Y),
		B: toByte(colorVec.Z),
		A: 255,
	}
}

func toByte(c float64) uint8 {
	if math.IsNaN(c) {
		return 0
	}
	return uint8(256 * c)
}

// SamplePixel takes SamplesPerPixel jittered samples for pixel (x, y), where y
// counts rows from the top of the image
func (rt *Raytracer) SamplePixel(x, y int, sampler core.Sampler) PixelStats {
	var ps PixelStats
	row := rt.config.Height - 1 - y

	for sample := 0; sample < rt.config.SamplesPerPixel; sample++ {
		s := (float64(x) + sampler.Get1D()) / float64(rt.config.Width)
		t := (float64(row) + sampler.Get1D()) / float64(rt.config.Height)

		ray := rt.camera.GetRay(s, t, sampler)
		ps.AddSample(rt.integrator.RayColor(ray, rt.world, sampler))
	}

	return ps
}

// RenderTile renders the pixels inside tile.Bounds into img
func (rt *Raytracer) RenderTile(ctx context.Context, tile *Tile, img *image.RGBA) (RenderStats, error) {
	sampler := rt.newSampler(tile)
	var stats RenderStats

	for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
			ps := rt.SamplePixel(x, y, sampler)
			img.SetRGBA(x, y, EncodeColor(ps.GetColor()))

			stats.TotalPixels++
			stats.TotalSamples += ps.SampleCount
		}
	}

	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats, nil
}

// Render renders the full image in parallel tiles. tileCallback, if non-nil,
// is called from the calling goroutine as each tile finishes.
func (rt *Raytracer) Render(ctx context.Context, tileCallback func(TileCompletionResult)) (*image.RGBA, RenderStats, error) {
	if err := rt.config.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	startTime := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, rt.config.Width, rt.config.Height))
	tiles := NewTileGrid(rt.config.Width, rt.config.Height, rt.config.TileSize, rt.config.Seed)

	workerPool := NewWorkerPool(rt, rt.config.NumWorkers, len(tiles))
	rt.logger.Printf("Rendering %dx%d at %d samples per pixel (%d tiles, %d workers)...\n",
		rt.config.Width, rt.config.Height, rt.config.SamplesPerPixel, len(tiles), workerPool.GetNumWorkers())

	workerPool.Start(ctx)
	defer workerPool.Stop()

	for i, tile := range tiles {
		workerPool.SubmitTask(TileTask{Tile: tile, TaskID: i, Image: img})
	}

	var stats RenderStats
	var renderErr error
	for i := 0; i < len(tiles); i++ {
		result, ok := workerPool.GetResult()
		if !ok {
			return nil, RenderStats{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			if renderErr == nil {
				renderErr = result.Error
			}
			continue
		}
		stats.Merge(result.Stats)

		if tileCallback != nil {
			tile := tiles[result.TaskID]
			tileCallback(TileCompletionResult{
				TileX:      tile.Bounds.Min.X / rt.config.TileSize,
				TileY:      tile.Bounds.Min.Y / rt.config.TileSize,
				Bounds:     tile.Bounds,
				TileImage:  img.SubImage(tile.Bounds).(*image.RGBA),
				TileNumber: i + 1,
				TotalTiles: len(tiles),
				Elapsed:    time.Since(startTime),
			})
		}
	}

	stats.Duration = time.Since(startTime)
	if renderErr != nil {
		rt.logger.Printf("Rendering stopped after %v: %v\n", stats.Duration, renderErr)
		return nil, stats, renderErr
	}

	stats.MeanLuminance, stats.LuminanceStdDev = LuminanceSpread(img)
	rt.logger.Printf("Render completed in %v (%d samples)\n", stats.Duration, stats.TotalSamples)

	return img, stats, nil
}

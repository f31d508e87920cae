package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/df07/go-sphere-raytracer/internal/config"
	"github.com/df07/go-sphere-raytracer/internal/logging"
	"github.com/df07/go-sphere-raytracer/internal/progress"
	"github.com/df07/go-sphere-raytracer/internal/storage"
	"github.com/df07/go-sphere-raytracer/pkg/imageio"
	"github.com/df07/go-sphere-raytracer/pkg/renderer"
	"github.com/df07/go-sphere-raytracer/pkg/scene"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one render and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 2
	}

	list, help, err := parseFlags(cfg, args, stderr)
	if err != nil {
		return 2
	}
	if help {
		printHelp(stdout)
		return 0
	}
	if list {
		for _, info := range scene.ListScenes() {
			fmt.Fprintf(stdout, "  %-8s %s\n", info.ID, info.Description)
		}
		return 0
	}

	logger, err := logging.New(stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid log level: %v\n", err)
		return 2
	}

	if err := render(context.Background(), cfg, stdout, logger); err != nil {
		logger.Error("render failed", logging.Error(err))
		return 1
	}
	return 0
}

// parseFlags applies command line overrides on top of the environment config
func parseFlags(cfg *config.Config, args []string, stderr io.Writer) (list, help bool, err error) {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.Scene, "scene", cfg.Scene, "Built-in scene: "+fmt.Sprint(scene.Names()))
	fs.StringVar(&cfg.SceneFile, "scene-file", cfg.SceneFile, "JSON scene file (overrides -scene)")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Image width in pixels (0 keeps the scene's)")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Image height in pixels (0 derives it from the aspect ratio)")
	fs.IntVar(&cfg.Samples, "samples", cfg.Samples, "Samples per pixel (0 keeps the scene's)")
	fs.IntVar(&cfg.MaxDepth, "depth", cfg.MaxDepth, "Maximum bounce depth (0 keeps the scene's)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Worker goroutines (0 uses all CPUs)")
	fs.IntVar(&cfg.TileSize, "tile-size", cfg.TileSize, "Tile edge length in pixels (0 keeps the scene's)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Output path; the format extension is appended")
	format := fs.String("format", string(cfg.Format), "Output format: ppm, png or jpeg")
	compression := fs.String("compression", string(cfg.Compression), "Output compression: none, zstd or snappy")
	fs.IntVar(&cfg.ThumbnailWidth, "thumbnail", cfg.ThumbnailWidth, "Also write a PNG thumbnail this wide (0 disables)")
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Decode the saved image and check it against the render")
	fs.StringVar(&cfg.ProgressAddr, "progress-addr", cfg.ProgressAddr, "Serve websocket progress events on this address")
	fs.DurationVar(&cfg.RenderTimeout, "timeout", cfg.RenderTimeout, "Abort the render after this long (0 disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.BoolVar(&list, "list", false, "List built-in scenes and exit")
	fs.BoolVar(&help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return false, false, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.SeedSet = true
		}
	})

	if cfg.Format, err = imageio.ParseFormat(*format); err != nil {
		fmt.Fprintln(stderr, err)
		return false, false, err
	}
	if cfg.Compression, err = imageio.ParseCompression(*compression); err != nil {
		fmt.Fprintln(stderr, err)
		return false, false, err
	}
	return list, help, nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Sphere Raytracer")
	fmt.Fprintln(w, "Usage: raytracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Every option can also be set with a RAYTRACER_* environment variable or a .env file.")
	fmt.Fprintln(w, "Run with -list to see the built-in scenes.")
}

// createScene loads the scene file when one is configured, else the named built-in
func createScene(cfg *config.Config) (*scene.Scene, error) {
	if cfg.SceneFile != "" {
		return scene.LoadFile(cfg.SceneFile)
	}
	seed := renderer.DefaultSamplingConfig().Seed
	if cfg.SeedSet {
		seed = cfg.Seed
	}
	return scene.Lookup(cfg.Scene, seed)
}

// applyOverrides copies non-zero config values onto the scene
func applyOverrides(s *scene.Scene, cfg *config.Config) {
	switch {
	case cfg.Width > 0 && cfg.Height > 0:
		s.SetImageSize(cfg.Width, cfg.Height)
	case cfg.Width > 0:
		s.SetImageWidth(cfg.Width)
	case cfg.Height > 0:
		s.SetImageSize(s.SamplingConfig.Width, cfg.Height)
	}
	if cfg.Samples > 0 {
		s.SamplingConfig.SamplesPerPixel = cfg.Samples
	}
	if cfg.MaxDepth > 0 {
		s.SamplingConfig.MaxDepth = cfg.MaxDepth
	}
	if cfg.TileSize > 0 {
		s.SamplingConfig.TileSize = cfg.TileSize
	}
	if cfg.Workers > 0 {
		s.SamplingConfig.NumWorkers = cfg.Workers
	}
	if cfg.SeedSet {
		s.SamplingConfig.Seed = cfg.Seed
	}
}

func render(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *logging.Logger) error {
	selected, err := createScene(cfg)
	if err != nil {
		return err
	}
	applyOverrides(selected, cfg)
	log := logger.With(logging.String("scene", selected.Name))

	raytracer, err := selected.NewRaytracer()
	if err != nil {
		return err
	}
	raytracer.SetLogger(log)

	var hub *progress.Hub
	if cfg.ProgressAddr != "" {
		hub = progress.NewHub(log)
		server := progress.NewServer(cfg.ProgressAddr, hub, log)
		if _, err := server.Start(); err != nil {
			return fmt.Errorf("failed to start progress server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	renderCtx := ctx
	if cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, cfg.RenderTimeout)
		defer cancel()
	}

	sampling := raytracer.Config()
	log.Info("starting render",
		logging.Int("width", sampling.Width),
		logging.Int("height", sampling.Height),
		logging.Int("samples", sampling.SamplesPerPixel),
		logging.Int("maxDepth", sampling.MaxDepth),
		logging.Int("spheres", selected.GetPrimitiveCount()))

	start := time.Now()
	totalTiles := 0
	img, stats, err := raytracer.Render(renderCtx, func(result renderer.TileCompletionResult) {
		totalTiles = result.TotalTiles
		log.Debug("tile complete",
			logging.Int("tile", result.TileNumber),
			logging.Int("totalTiles", result.TotalTiles))
		if hub != nil {
			_ = hub.Broadcast(progress.TileEvent(selected.Name, result))
		}
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("render exceeded timeout %v: %w", cfg.RenderTimeout, err)
		}
		return err
	}
	elapsed := time.Since(start)
	if hub != nil {
		_ = hub.Broadcast(progress.CompleteEvent(selected.Name, totalTiles, elapsed))
	}

	if dir := filepath.Dir(cfg.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	written, err := imageio.Save(img, imageio.SaveOptions{
		Path:           cfg.Output,
		Format:         cfg.Format,
		Compression:    cfg.Compression,
		ThumbnailWidth: cfg.ThumbnailWidth,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Render completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(stdout, "Samples: %d over %d pixels (%.1f per pixel)\n",
		stats.TotalSamples, stats.TotalPixels, stats.AverageSamples)
	fmt.Fprintf(stdout, "Luminance: mean %.4f, std dev %.4f\n", stats.MeanLuminance, stats.LuminanceStdDev)
	for _, p := range written {
		fmt.Fprintf(stdout, "Saved %s\n", p)
	}

	if cfg.Verify {
		mean, err := verifyOutput(written[0], cfg, img.Bounds(), stats)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Verified %s (mean luminance %.4f)\n", written[0], mean)
	}

	if cfg.S3.Enabled() {
		uploader, err := storage.NewS3Uploader(cfg.S3, log)
		if err != nil {
			return err
		}
		keys, err := uploader.UploadAll(ctx, written)
		if err != nil {
			return err
		}
		for _, key := range keys {
			fmt.Fprintf(stdout, "Uploaded s3://%s/%s\n", cfg.S3.Bucket, key)
		}
	}

	return nil
}

// verifyLuminanceTolerance bounds the drift allowed between the rendered and
// decoded mean luminance for lossless formats
const verifyLuminanceTolerance = 1e-9

// verifyOutput decodes the saved image and checks its size, and for lossless
// formats its mean luminance, against the render
func verifyOutput(path string, cfg *config.Config, bounds image.Rectangle, stats renderer.RenderStats) (float64, error) {
	back, err := imageio.ReadBack(path, cfg.Format, cfg.Compression)
	if err != nil {
		return 0, fmt.Errorf("verify %s: %w", path, err)
	}
	if back.Bounds().Size() != bounds.Size() {
		return 0, fmt.Errorf("verify %s: rendered %v but read back %v", path, bounds.Size(), back.Bounds().Size())
	}
	mean := renderer.CalculateAverageLuminance(back)
	if cfg.Format != imageio.FormatJPEG && math.Abs(mean-stats.MeanLuminance) > verifyLuminanceTolerance {
		return 0, fmt.Errorf("verify %s: mean luminance %.6f differs from rendered %.6f", path, mean, stats.MeanLuminance)
	}
	return mean, nil
}

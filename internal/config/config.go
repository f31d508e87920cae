package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/df07/go-sphere-raytracer/pkg/imageio"
)

const (
	// DefaultEnvFile is loaded before reading the environment when present.
	DefaultEnvFile = ".env"
	// DefaultScene is the built-in scene rendered when no scene file is given.
	DefaultScene = "default"
	// DefaultOutput is the output path without extension.
	DefaultOutput = "output/render"
	// DefaultFormat is the encoding used for the main image.
	DefaultFormat = imageio.FormatPNG
	// DefaultCompression applies no stream compression.
	DefaultCompression = imageio.CompressionNone
	// DefaultLogLevel controls verbosity for render logs.
	DefaultLogLevel = "info"
	// DefaultUploadTimeout bounds a single S3 upload.
	DefaultUploadTimeout = 60 * time.Second
)

// Config captures the runtime tunables for a render run. Zero-valued
// sampling overrides leave the scene's own settings in place.
type Config struct {
	Width          int
	Height         int
	Samples        int
	MaxDepth       int
	Workers        int
	TileSize       int
	Seed           int64
	SeedSet        bool
	Scene          string
	SceneFile      string
	Output         string
	Format         imageio.Format
	Compression    imageio.Compression
	ThumbnailWidth int
	Verify         bool
	LogLevel       string
	ProgressAddr   string
	RenderTimeout  time.Duration
	S3             S3Config
}

// S3Config describes where finished renders are uploaded. Upload is disabled
// when Bucket is empty.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Prefix        string
	UploadTimeout time.Duration
}

// Enabled reports whether uploads are configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads the render configuration from environment variables, applying
// defaults and returning one error describing every invalid override. A .env
// file (RAYTRACER_ENV_FILE, default ".env") is loaded first if it exists;
// variables already present in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load(getString("RAYTRACER_ENV_FILE", DefaultEnvFile))

	cfg := &Config{
		Scene:        getString("RAYTRACER_SCENE", DefaultScene),
		SceneFile:    strings.TrimSpace(os.Getenv("RAYTRACER_SCENE_FILE")),
		Output:       getString("RAYTRACER_OUTPUT", DefaultOutput),
		Format:       DefaultFormat,
		Compression:  DefaultCompression,
		LogLevel:     getString("RAYTRACER_LOG_LEVEL", DefaultLogLevel),
		ProgressAddr: strings.TrimSpace(os.Getenv("RAYTRACER_PROGRESS_ADDR")),
		S3: S3Config{
			Bucket:        strings.TrimSpace(os.Getenv("RAYTRACER_S3_BUCKET")),
			Region:        strings.TrimSpace(os.Getenv("RAYTRACER_S3_REGION")),
			Endpoint:      strings.TrimSpace(os.Getenv("RAYTRACER_S3_ENDPOINT")),
			AccessKey:     strings.TrimSpace(os.Getenv("RAYTRACER_S3_ACCESS_KEY")),
			SecretKey:     strings.TrimSpace(os.Getenv("RAYTRACER_S3_SECRET_KEY")),
			Prefix:        strings.Trim(strings.TrimSpace(os.Getenv("RAYTRACER_S3_PREFIX")), "/"),
			UploadTimeout: DefaultUploadTimeout,
		},
	}

	var problems []string

	positive := []struct {
		key    string
		target *int
	}{
		{"RAYTRACER_WIDTH", &cfg.Width},
		{"RAYTRACER_HEIGHT", &cfg.Height},
		{"RAYTRACER_SAMPLES", &cfg.Samples},
		{"RAYTRACER_MAX_DEPTH", &cfg.MaxDepth},
		{"RAYTRACER_TILE_SIZE", &cfg.TileSize},
	}
	for _, p := range positive {
		if raw := strings.TrimSpace(os.Getenv(p.key)); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil || value <= 0 {
				problems = append(problems, fmt.Sprintf("%s must be a positive integer, got %q", p.key, raw))
			} else {
				*p.target = value
			}
		}
	}

	nonNegative := []struct {
		key    string
		target *int
	}{
		{"RAYTRACER_WORKERS", &cfg.Workers},
		{"RAYTRACER_THUMBNAIL_WIDTH", &cfg.ThumbnailWidth},
	}
	for _, p := range nonNegative {
		if raw := strings.TrimSpace(os.Getenv(p.key)); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil || value < 0 {
				problems = append(problems, fmt.Sprintf("%s must be a non-negative integer, got %q", p.key, raw))
			} else {
				*p.target = value
			}
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_SEED")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("RAYTRACER_SEED must be an integer, got %q", raw))
		} else {
			cfg.Seed = value
			cfg.SeedSet = true
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_FORMAT")); raw != "" {
		format, err := imageio.ParseFormat(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("RAYTRACER_FORMAT must be ppm, png or jpeg, got %q", raw))
		} else {
			cfg.Format = format
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_COMPRESSION")); raw != "" {
		compression, err := imageio.ParseCompression(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("RAYTRACER_COMPRESSION must be none, zstd or snappy, got %q", raw))
		} else {
			cfg.Compression = compression
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_VERIFY")); raw != "" {
		verify, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("RAYTRACER_VERIFY must be a boolean, got %q", raw))
		} else {
			cfg.Verify = verify
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_RENDER_TIMEOUT")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("RAYTRACER_RENDER_TIMEOUT must be a positive duration, got %q", raw))
		} else {
			cfg.RenderTimeout = duration
		}
	}

	if raw := strings.TrimSpace(os.Getenv("RAYTRACER_S3_UPLOAD_TIMEOUT")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("RAYTRACER_S3_UPLOAD_TIMEOUT must be a positive duration, got %q", raw))
		} else {
			cfg.S3.UploadTimeout = duration
		}
	}

	if cfg.S3.Enabled() && cfg.S3.Region == "" {
		problems = append(problems, "RAYTRACER_S3_REGION is required when RAYTRACER_S3_BUCKET is set")
	}
	if (cfg.S3.AccessKey == "") != (cfg.S3.SecretKey == "") {
		problems = append(problems, "RAYTRACER_S3_ACCESS_KEY and RAYTRACER_S3_SECRET_KEY must be provided together")
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

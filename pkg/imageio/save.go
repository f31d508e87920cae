package imageio

import (
	"fmt"
	"image"
	"os"
	"strings"
)

// SaveOptions controls how a rendered image is written to disk
type SaveOptions struct {
	Path           string      // Output path; the format and compression extensions are added if missing
	Format         Format      // Image encoding
	Compression    Compression // Optional stream compression
	ThumbnailWidth int         // Also write <name>_thumb.png when > 0
}

// OutputPath returns the final file name for the main image
func (o SaveOptions) OutputPath() string {
	path := o.Path
	if !strings.HasSuffix(strings.ToLower(path), o.Format.Extension()) {
		path += o.Format.Extension()
	}
	return path + o.Compression.Extension()
}

// ThumbnailPath returns the file name used for the thumbnail
func (o SaveOptions) ThumbnailPath() string {
	base := strings.TrimSuffix(o.Path, o.Format.Extension())
	return base + "_thumb.png"
}

// Save writes img (and its thumbnail, if requested) and returns the paths written
func Save(img image.Image, opts SaveOptions) ([]string, error) {
	path := opts.OutputPath()
	if err := writeFile(path, img, opts.Format, opts.Compression); err != nil {
		return nil, err
	}
	written := []string{path}

	if opts.ThumbnailWidth > 0 {
		thumbPath := opts.ThumbnailPath()
		if err := writeFile(thumbPath, Thumbnail(img, opts.ThumbnailWidth), FormatPNG, CompressionNone); err != nil {
			return written, err
		}
		written = append(written, thumbPath)
	}

	return written, nil
}

func writeFile(path string, img image.Image, format Format, compression Compression) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	cw, err := NewCompressedWriter(f, compression)
	if err != nil {
		return err
	}
	if err := Encode(cw, img, format); err != nil {
		cw.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return cw.Close()
}

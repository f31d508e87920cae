package imageio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"github.com/disintegration/imaging"
)

// ReadBack decodes a file written by Save with the same format and compression
func ReadBack(path string, format Format, compression Compression) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := NewDecompressedReader(f, compression)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	switch format {
	case FormatPPM:
		img, err := readPPM(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return img, nil
	case FormatPNG, FormatJPEG:
		decoded, err := imaging.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		img := image.NewRGBA(decoded.Bounds())
		draw.Draw(img, img.Bounds(), decoded, decoded.Bounds().Min, draw.Src)
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
}

// readPPM parses the ASCII P3 layout produced by WritePPM
func readPPM(r io.Reader) (*image.RGBA, error) {
	br := bufio.NewReader(r)

	var magic string
	var width, height, maxVal int
	if _, err := fmt.Fscan(br, &magic, &width, &height, &maxVal); err != nil {
		return nil, fmt.Errorf("bad PPM header: %w", err)
	}
	if magic != "P3" {
		return nil, fmt.Errorf("unsupported PPM magic %q", magic)
	}
	if width <= 0 || height <= 0 || maxVal != 255 {
		return nil, fmt.Errorf("unsupported PPM header %dx%d maxval %d", width, height, maxVal)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var cr, cg, cb int
			if _, err := fmt.Fscan(br, &cr, &cg, &cb); err != nil {
				return nil, fmt.Errorf("pixel (%d, %d): %w", x, y, err)
			}
			if cr < 0 || cr > 255 || cg < 0 || cg > 255 || cb < 0 || cb > 255 {
				return nil, fmt.Errorf("pixel (%d, %d) out of range", x, y)
			}
			img.SetRGBA(x, y, color.RGBA{R: uint8(cr), G: uint8(cg), B: uint8(cb), A: 255})
		}
	}
	return img, nil
}

package imageio

import (
	"image"

	"github.com/nfnt/resize"
)

// Thumbnail scales img down to width pixels wide, keeping its aspect ratio.
// Images already narrower than width are returned unchanged.
func Thumbnail(img image.Image, width int) image.Image {
	if width <= 0 || img.Bounds().Dx() <= width {
		return img
	}
	return resize.Resize(uint(width), 0, img, resize.Bilinear)
}

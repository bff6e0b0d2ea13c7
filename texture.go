package vkframe

import (
	"image"
	"image/color"
	"io"
	"os"

	// Decoders registered with image.Decode
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/image/draw"
)

// TextureFormat is the format textures are uploaded in.
const TextureFormat = vk.FormatR8g8b8a8Srgb

// LoadTexture decodes a png, jpeg, bmp, tiff or webp file into RGBA, scaled
// down so neither side exceeds maxSize.
func LoadTexture(filename string, maxSize int) (*image.RGBA, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "texture")
	}
	defer f.Close()

	img, err := DecodeTexture(f, maxSize)
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}
	return img, nil
}

// DecodeTexture is LoadTexture for an open stream.
func DecodeTexture(r io.Reader, maxSize int) (*image.RGBA, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode texture")
	}
	Logger().Debug("decoded texture", "format", format, "bounds", src.Bounds())
	return ToRGBA(src, maxSize), nil
}

// ToRGBA converts src to tightly packed RGBA with its origin at 0,0. Images
// larger than maxSize on either side are scaled down, keeping the aspect
// ratio. A maxSize below 1 disables scaling.
func ToRGBA(src image.Image, maxSize int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(1, h*maxSize/w)
			w = maxSize
		} else {
			w = max(1, w*maxSize/h)
			h = maxSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		return dst
	}

	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*w {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// CheckerTexture returns a size x size checkerboard with cells squares per
// side, used when no texture file is configured.
func CheckerTexture(size, cells int, a, b color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cell := max(1, size/max(1, cells))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// UploadTexture uploads img as a sampled TextureFormat image.
func (t *TransferEngine) UploadTexture(img *image.RGBA) (*BoundImage, func(*BoundImage), error) {
	b := img.Bounds()
	extent := vk.Extent2D{Width: uint32(b.Dx()), Height: uint32(b.Dy())}
	return t.UploadImage(img.Pix, extent, TextureFormat)
}

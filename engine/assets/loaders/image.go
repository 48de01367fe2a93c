package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima-gl/engine/resources"
)

type ImageLoader struct{}

func (il *ImageLoader) Load(path string, params interface{}) (*resources.Resource, error) {
	var maxSize int
	if p, ok := params.(*resources.ImageParams); ok && p != nil {
		maxSize = p.MaxSize
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("image loader: %s: %w", path, err)
	}
	b := img.Bounds()
	if maxSize > 0 && (b.Dx() > maxSize || b.Dy() > maxSize) {
		return nil, fmt.Errorf("image loader: %s is %dx%d, larger than %d", path, b.Dx(), b.Dy(), maxSize)
	}

	return &resources.Resource{
		Name:     info.Name(),
		FullPath: path,
		Type:     resources.ResourceTypeImage,
		DataSize: uint64(info.Size()),
		Data:     &resources.ImageData{Image: ToRGBA(img), Format: format},
	}, nil
}

func (il *ImageLoader) Unload(r *resources.Resource) error {
	r.Data = nil
	return nil
}

// ToRGBA returns img as an *image.RGBA with origin (0, 0), converting when
// it is stored in another model.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

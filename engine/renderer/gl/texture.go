package gl

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Pixels is tightly packed RGBA8 image data, rows bottom to top as the
// driver reads them.
type Pixels struct {
	Width  int32
	Height int32
	Data   []byte
}

// White is the 1x1 opaque pixel unconfigured textures show.
var White = Pixels{Width: 1, Height: 1, Data: []byte{0xFF, 0xFF, 0xFF, 0xFF}}

// Texture is a 2D texture bound through texture units.
type Texture struct {
	name   Name[textureKind]
	width  int32
	height int32
}

func NewTexture(ctx *Context) (*Texture, error) {
	t := &Texture{}
	if err := t.name.allocate(ctx, 0); err != nil {
		return nil, err
	}
	return t, nil
}

// InitDefaultTexture fills the default texture object (name 0) with White,
// so sampling before any image is loaded reads opaque white instead of
// black.
func InitDefaultTexture(ctx *Context) error {
	if ctx == nil {
		return ErrNoContext
	}
	ctx.bindTexture(0, 0)
	if err := upload(ctx, White, NEAREST); err != nil {
		return err
	}
	return ctx.Check("init default texture")
}

// Activate binds t to unit and returns unit for chaining into a sampler
// uniform.
func (t *Texture) Activate(unit uint32) (uint32, error) {
	if err := t.name.require(); err != nil {
		return unit, err
	}
	t.name.ctx.bindTexture(unit, t.name.id)
	return unit, t.name.ctx.Check("bind texture")
}

// Deactivate binds no texture to unit.
func (t *Texture) Deactivate(unit uint32) {
	if t.name.ctx != nil {
		DeactivateTexture(t.name.ctx, unit)
	}
}

func DeactivateTexture(ctx *Context, unit uint32) {
	ctx.bindTexture(unit, 0)
}

// Load uploads img, converting it to RGBA8 first.
func (t *Texture) Load(img image.Image) error {
	return t.LoadPixels(PixelsOf(img))
}

// LoadPixels uploads p through the active texture unit.
func (t *Texture) LoadPixels(p Pixels) error {
	if err := t.name.require(); err != nil {
		return err
	}
	if want := int(p.Width) * int(p.Height) * 4; len(p.Data) != want || want == 0 {
		return fmt.Errorf("gl: %dx%d texture needs %d bytes of RGBA, got %d", p.Width, p.Height, want, len(p.Data))
	}
	if _, err := t.Activate(t.name.ctx.ActiveUnit()); err != nil {
		return err
	}
	if err := upload(t.name.ctx, p, LINEAR); err != nil {
		return err
	}
	t.width, t.height = p.Width, p.Height
	return nil
}

func (t *Texture) Size() (int32, int32) { return t.width, t.height }
func (t *Texture) ID() uint32           { return t.name.ID() }
func (t *Texture) Valid() bool          { return t.name.Valid() }
func (t *Texture) Release() uint32      { return t.name.Release() }
func (t *Texture) Destroy()             { t.name.Destroy() }

func (t *Texture) MoveFrom(src *Texture) {
	if t == src {
		return
	}
	t.name.MoveFrom(&src.name)
	t.width, t.height = src.width, src.height
}

func (t *Texture) Move() *Texture {
	dst := &Texture{}
	dst.MoveFrom(t)
	return dst
}

func upload(ctx *Context, p Pixels, filter Enum) error {
	d := ctx.driver
	d.TexImage2D(TEXTURE_2D, 0, RGBA8, p.Width, p.Height, RGBA, UNSIGNED_BYTE, p.Data)
	d.TexParameteri(TEXTURE_2D, TEXTURE_MIN_FILTER, int32(filter))
	d.TexParameteri(TEXTURE_2D, TEXTURE_MAG_FILTER, int32(filter))
	d.TexParameteri(TEXTURE_2D, TEXTURE_WRAP_S, int32(REPEAT))
	d.TexParameteri(TEXTURE_2D, TEXTURE_WRAP_T, int32(REPEAT))
	return ctx.Check("tex image 2d")
}

// PixelsOf converts img to RGBA8, flipped so the first row is the bottom
// of the image.
func PixelsOf(img image.Image) Pixels {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	stride := b.Dx() * 4
	data := make([]byte, len(rgba.Pix))
	for y := 0; y < b.Dy(); y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+stride]
		copy(data[(b.Dy()-1-y)*stride:], src)
	}
	return Pixels{Width: int32(b.Dx()), Height: int32(b.Dy()), Data: data}
}

package renderer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
	"github.com/spaghettifunk/anima-gl/engine/renderer/headless"
	"github.com/spaghettifunk/anima-gl/engine/renderer/opengl"
)

type RendererType string

const (
	OpenGL   RendererType = "opengl"
	Headless RendererType = "headless"
)

// ParseRendererType accepts the backend names used in configuration files.
func ParseRendererType(name string) (RendererType, error) {
	switch t := RendererType(strings.ToLower(strings.TrimSpace(name))); t {
	case OpenGL, Headless:
		return t, nil
	case "":
		return OpenGL, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownBackend, name)
}

// Config selects and sets up the driver behind a Renderer.
type Config struct {
	Type RendererType
	// ProcAddress resolves GL entry points of the current context. When nil
	// the system GL library is opened instead.
	ProcAddress opengl.ProcLoader
	// SwapBuffers presents the frame. Optional.
	SwapBuffers func()
	Width       uint32
	Height      uint32
	ClearColor  math.Vec4
}

// Renderer owns the GL context of the engine and frames every draw between
// BeginFrame and EndFrame.
type Renderer struct {
	id          uuid.UUID
	kind        RendererType
	ctx         *gl.Context
	swap        func()
	width       uint32
	height      uint32
	clear       math.Vec4
	frameNumber uint64
}

func New(cfg Config) (*Renderer, error) {
	driver, err := newDriver(cfg)
	if err != nil {
		return nil, err
	}
	ctx, err := gl.NewContext(driver)
	if err != nil {
		return nil, err
	}
	kind := cfg.Type
	if kind == "" {
		kind = OpenGL
	}
	r := &Renderer{
		id:     uuid.New(),
		kind:   kind,
		ctx:    ctx,
		swap:   cfg.SwapBuffers,
		width:  cfg.Width,
		height: cfg.Height,
		clear:  cfg.ClearColor,
	}

	if err := gl.InitDefaultTexture(ctx); err != nil {
		return nil, err
	}
	driver.Enable(gl.DEPTH_TEST)
	driver.Enable(gl.CULL_FACE)
	if err := ctx.Check("renderer setup"); err != nil {
		return nil, err
	}

	core.LogInfo("renderer %s using %s backend from %s", r.id, r.kind, driver.GetString(gl.VENDOR))
	return r, nil
}

func newDriver(cfg Config) (gl.Driver, error) {
	switch cfg.Type {
	case Headless:
		return headless.New(), nil
	case OpenGL, "":
		if cfg.ProcAddress != nil {
			return opengl.Load(cfg.ProcAddress)
		}
		return opengl.Open()
	}
	return nil, fmt.Errorf("%w: %q", core.ErrUnknownBackend, cfg.Type)
}

func (r *Renderer) ID() uuid.UUID { return r.id }

func (r *Renderer) Type() RendererType { return r.kind }

func (r *Renderer) Context() *gl.Context { return r.ctx }

func (r *Renderer) Size() (uint32, uint32) { return r.width, r.height }

func (r *Renderer) FrameNumber() uint64 { return r.frameNumber }

func (r *Renderer) SetClearColor(c math.Vec4) { r.clear = c }

// BeginFrame sets the viewport to the current size and clears colour and
// depth.
func (r *Renderer) BeginFrame(deltaTime float64) error {
	d := r.ctx.Driver()
	d.Viewport(0, 0, int32(r.width), int32(r.height))
	d.ClearColor(r.clear.X, r.clear.Y, r.clear.Z, r.clear.W)
	d.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	return r.ctx.Check("begin frame")
}

// EndFrame reports errors raised while drawing and presents the frame.
func (r *Renderer) EndFrame(deltaTime float64) error {
	if err := r.ctx.Check("end frame"); err != nil {
		return err
	}
	if r.swap != nil {
		r.swap()
	}
	r.frameNumber++
	return nil
}

// DrawFrame runs draw between BeginFrame and EndFrame.
func (r *Renderer) DrawFrame(deltaTime float64, draw func() error) error {
	if err := r.BeginFrame(deltaTime); err != nil {
		core.LogError(err.Error())
		return err
	}
	if draw != nil {
		if err := draw(); err != nil {
			return err
		}
	}
	if err := r.EndFrame(deltaTime); err != nil {
		core.LogError("renderer end frame failed: %s", err)
		return err
	}
	return nil
}

func (r *Renderer) OnResize(width, height uint32) {
	r.width = width
	r.height = height
}

// Shutdown unbinds everything so the objects still owned elsewhere can be
// released on a clean context.
func (r *Renderer) Shutdown() error {
	gl.DeactivateProgram(r.ctx)
	gl.DeactivateVertexArray(r.ctx)
	return r.ctx.Check("renderer shutdown")
}

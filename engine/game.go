package engine

import (
	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/renderer"
	"github.com/spaghettifunk/anima-gl/engine/systems"
)

// Game is the application driven by the Engine. The engine fills in the
// systems before FnInitialize runs; every callback except FnUpdate and
// FnRender may be nil.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	Renderer          *renderer.Renderer
	Events            *core.EventBus
	Input             *core.Input
	State             interface{}
	FnBoot            Boot
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Boot func() error
type Initialize func() error
type Update func(deltaTime float64) error

// Render draws the frame. It runs between the renderer's BeginFrame and
// EndFrame.
type Render func(deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error

package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-gl/engine/assets"
	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/platform"
	"github.com/spaghettifunk/anima-gl/engine/renderer"
	"github.com/spaghettifunk/anima-gl/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything it owned
	EngineStageShutdown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     atomic.Bool
	isSuspended   bool
	platform      *platform.Platform
	renderer      *renderer.Renderer
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	events        *core.EventBus
	input         *core.Input
	width         uint32
	height        uint32
	clock         *core.Clock
	metrics       *core.Metrics
	lastTime      float64
	// frameLimit stops Run after that many frames, 0 runs until quit.
	frameLimit uint64
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = DefaultApplicationConfig()
	}
	if g.FnUpdate == nil || g.FnRender == nil {
		return nil, fmt.Errorf("game must provide update and render functions")
	}
	if err := g.ApplicationConfig.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.SetLogLevel(g.ApplicationConfig.LogLevel)

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	events := core.NewEventBus()
	e := &Engine{
		currentStage: EngineStageBooting,
		gameInstance: g,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		assetManager: am,
		events:       events,
		input:        core.NewInput(events),
		width:        g.ApplicationConfig.Window.StartWidth,
		height:       g.ApplicationConfig.Window.StartHeight,
	}

	g.Events = e.events
	g.Input = e.input
	if g.FnBoot != nil {
		if err := g.FnBoot(); err != nil {
			core.LogError("game boot failed: %s", err)
			_ = am.Shutdown()
			return nil, err
		}
	}
	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) Stage() Stage { return e.currentStage }

// SetFrameLimit makes Run return after n frames. 0 removes the limit.
func (e *Engine) SetFrameLimit(n uint64) { e.frameLimit = n }

// Quit asks Run to return after the current frame. Safe to call from any
// goroutine.
func (e *Engine) Quit() { e.isRunning.Store(false) }

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageBootComplete {
		return fmt.Errorf("%w: engine is not booted", core.ErrNotInitialized)
	}
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig

	// register some events
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	backend, err := renderer.ParseRendererType(config.Renderer.Backend)
	if err != nil {
		return err
	}
	c := config.Renderer.ClearColor
	rendererConfig := renderer.Config{
		Type:       backend,
		Width:      e.width,
		Height:     e.height,
		ClearColor: math.NewVec4(c[0], c[1], c[2], c[3]),
	}
	if backend == renderer.OpenGL {
		e.platform = platform.New(e.events, e.input)
		if err := e.platform.Startup(platform.WindowConfig{
			Title:     config.Name,
			X:         config.Window.StartPosX,
			Y:         config.Window.StartPosY,
			Width:     config.Window.StartWidth,
			Height:    config.Window.StartHeight,
			GLMajor:   config.Renderer.GLMajor,
			GLMinor:   config.Renderer.GLMinor,
			VSync:     config.Window.VSync,
			Resizable: config.Window.Resizable,
		}); err != nil {
			return err
		}
		// the framebuffer can be larger than the window on high density displays
		e.width, e.height = e.platform.FramebufferSize()
		rendererConfig.Width, rendererConfig.Height = e.width, e.height
		rendererConfig.ProcAddress = e.platform.ProcAddress
		rendererConfig.SwapBuffers = e.platform.SwapBuffers
	}

	r, err := renderer.New(rendererConfig)
	if err != nil {
		return err
	}
	e.renderer = r

	// initialize subsystems
	if err := e.assetManager.Initialize(config.AssetsDir); err != nil {
		return err
	}
	sm, err := systems.NewSystemManager(systems.SystemManagerConfig{
		Workers:      config.Workers,
		MaxImageSize: config.MaxImageSize,
		Camera:       config.Camera,
	}, r, e.assetManager)
	if err != nil {
		return err
	}
	if err := sm.Initialize(); err != nil {
		return err
	}
	e.systemManager = sm
	for _, pc := range config.Programs {
		if _, err := sm.ShaderSystem.Create(pc); err != nil {
			return fmt.Errorf("program %s: %w", pc.Name, err)
		}
	}

	g := e.gameInstance
	g.SystemManager = sm
	g.Renderer = r
	if g.FnInitialize != nil {
		if err := g.FnInitialize(); err != nil {
			return err
		}
	}
	if g.FnOnResize != nil {
		if err := g.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized with %d programs, %dx%d", config.Name, len(config.Programs), e.width, e.height)
	return nil
}

// Run drives frames until the game quits, the window closes or the frame
// limit is reached. It must be called on the goroutine that called
// Initialize.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("%w: call Initialize before Run", core.ErrNotInitialized)
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		if e.platform != nil && !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}

		if e.isSuspended {
			// minimized: nothing to draw into
			time.Sleep(10 * time.Millisecond)
			continue
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := time.Now()

		if err := e.systemManager.Update(delta); err != nil {
			core.LogError("systems update failed, shutting down: %s", err)
			e.isRunning.Store(false)
			return err
		}
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("game update failed, shutting down: %s", err)
			e.isRunning.Store(false)
			return err
		}
		if err := e.renderer.DrawFrame(delta, func() error {
			return e.gameInstance.FnRender(delta)
		}); err != nil {
			core.LogError("game render failed, shutting down: %s", err)
			e.isRunning.Store(false)
			return err
		}

		e.metrics.Update(time.Since(frameStart).Seconds())

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		// As a safety, input is the last thing to be updated before
		// this frame ends.
		e.input.Update(delta)

		// Update last time
		e.lastTime = currentTime

		if e.frameLimit > 0 && e.renderer.FrameNumber() >= e.frameLimit {
			e.isRunning.Store(false)
		}
	}

	fps, frameTime := e.metrics.Frame()
	core.LogInfo("stopped after %d frames (%.1f fps, %.2f ms/frame)", e.renderer.FrameNumber(), fps, frameTime)
	return nil
}

// Shutdown releases everything in reverse order of creation. Calling it
// more than once is harmless.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown || e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if g := e.gameInstance; g.FnShutdown != nil && e.systemManager != nil {
		keep(g.FnShutdown())
	}
	if e.renderer != nil {
		keep(e.renderer.Shutdown())
	}
	if e.systemManager != nil {
		keep(e.systemManager.Shutdown())
	}
	keep(e.assetManager.Shutdown())
	e.events.Shutdown()
	if e.platform != nil {
		keep(e.platform.Shutdown())
	}

	e.currentStage = EngineStageShutdown
	return firstErr
}

// GetFramebufferSize returns the width and height (in this order) of the
// application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onEvent(context core.EventContext) bool {
	if context.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	key, ok := context.Data.(*core.KeyEvent)
	if !ok || key.KeyCode != core.KEY_ESCAPE {
		return false
	}
	// NOTE: Technically firing an event to itself, but there may be other listeners.
	e.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
	// Block anything else from processing this.
	return true
}

func (e *Engine) onResized(context core.EventContext) bool {
	size, ok := context.Data.(*core.ResizeEvent)
	if !ok {
		return false
	}
	// Check if different. If so, trigger a resize event.
	if size.Width == e.width && size.Height == e.height {
		return false
	}
	e.width, e.height = size.Width, size.Height
	core.LogDebug("Window resize: %d, %d", size.Width, size.Height)

	// Handle minimization
	if size.Width == 0 || size.Height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.systemManager != nil {
		if err := e.systemManager.OnResize(size.Width, size.Height); err != nil {
			core.LogError("resize failed: %s", err)
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(size.Width, size.Height); err != nil {
			core.LogError("game resize failed: %s", err)
		}
	}
	// Event purposely not handled to allow other listeners to get this.
	return false
}

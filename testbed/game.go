package testbed

import (
	"fmt"

	"github.com/spaghettifunk/anima-gl/engine"
	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/components"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
	"github.com/spaghettifunk/anima-gl/engine/systems"
)

// FLAT_PROGRAM is the program the testbed draws with. It has to be listed
// in the configuration.
const FLAT_PROGRAM string = "flat"

const cubeName string = "testbed_cube"

type TestGame struct {
	*engine.Game
}

type gameState struct {
	eye     *components.Eye
	camera  *gl.Camera
	objects []*gl.Object
	width   uint32
	height  uint32
}

var tempMoveSpeed float32 = 5.0

const turnSpeed float32 = 1.0

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}

	tg.FnBoot = tg.Boot
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Boot() error {
	core.LogInfo("booting testbed...")
	for _, p := range g.ApplicationConfig.Programs {
		if p.Name == FLAT_PROGRAM {
			return nil
		}
	}
	return fmt.Errorf("testbed needs a program named %q in the configuration", FLAT_PROGRAM)
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers ")
	}
	state := g.State.(*gameState)

	program, err := g.SystemManager.ShaderSystem.Get(FLAT_PROGRAM)
	if err != nil {
		return err
	}
	world := g.SystemManager.CameraSystem.GetDefault()
	state.eye = world.Eye
	state.camera = world.Camera

	// A spinning octahedron in the middle.
	octahedron := gl.NewObject(g.SystemManager.GeometrySystem.GetDefault(), program)
	octahedron.Color = math.NewVec4(0.9, 0.5, 0.2, 1)

	// A cube off to the side.
	cubeConfig, err := systems.GenerateCubeConfig(1, 1, 1, math.NewVec4One(), cubeName)
	if err != nil {
		return err
	}
	mesh, err := g.SystemManager.GeometrySystem.AcquireFromConfig(cubeConfig)
	if err != nil {
		return err
	}
	cube := gl.NewObject(mesh, program)
	cube.Color = math.NewVec4(0.3, 0.6, 0.9, 1)
	cube.Translate(math.NewVec3(2.5, 0, 0))

	state.objects = []*gl.Object{octahedron, cube}

	g.Events.Register(core.EVENT_CODE_KEY_PRESSED, g, g.gameOnKey)
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	in := g.Input
	step := tempMoveSpeed * float32(deltaTime)
	turn := turnSpeed * float32(deltaTime)

	if in.IsKeyDown(core.KEY_W) {
		state.eye.MoveForward(step)
	}
	if in.IsKeyDown(core.KEY_S) {
		state.eye.MoveBackward(step)
	}
	if in.IsKeyDown(core.KEY_A) {
		state.eye.MoveLeft(step)
	}
	if in.IsKeyDown(core.KEY_D) {
		state.eye.MoveRight(step)
	}
	if in.IsKeyDown(core.KEY_Q) {
		state.eye.MoveUp(step)
	}
	if in.IsKeyDown(core.KEY_E) {
		state.eye.MoveDown(step)
	}
	if in.IsKeyDown(core.KEY_LEFT) {
		state.eye.Yaw(turn)
	}
	if in.IsKeyDown(core.KEY_RIGHT) {
		state.eye.Yaw(-turn)
	}
	if in.IsKeyDown(core.KEY_UP) {
		state.eye.Pitch(turn)
	}
	if in.IsKeyDown(core.KEY_DOWN) {
		state.eye.Pitch(-turn)
	}

	// Perform a small rotation on the octahedron, in its own space.
	state.objects[0].PreRotate(float32(0.5*deltaTime), math.NewVec3(0, 1, 0))
	return nil
}

func (g *TestGame) Render(deltaTime float64) error {
	state := g.State.(*gameState)
	for _, o := range state.objects {
		if err := o.Render(state.camera); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	g.SystemManager.GeometrySystem.Release(cubeName)
	return nil
}

func (g *TestGame) gameOnKey(context core.EventContext) bool {
	key, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	state := g.State.(*gameState)

	switch key.KeyCode {
	case core.KEY_SPACE:
		for _, o := range state.objects {
			o.Highlighted = !o.Highlighted
		}
	case core.KEY_R:
		// Rebuild every program from disk. Failures keep the old program.
		for _, name := range g.SystemManager.ShaderSystem.Names() {
			if err := g.SystemManager.ShaderSystem.Reload(name); err != nil {
				core.LogWarn("reload %s: %s", name, err)
			}
		}
	case core.KEY_ESCAPE:
		return false
	default:
		pos := state.eye.Position()
		rot := state.eye.Rotation()
		core.LogDebug("'%c' key pressed. Camera Pos: [%.3f, %.3f, %.3f] Rot: [%.3f, %.3f, %.3f]",
			rune(key.KeyCode), pos.X, pos.Y, pos.Z,
			math.RadToDeg(rot.X), math.RadToDeg(rot.Y), math.RadToDeg(rot.Z))
	}
	return false
}

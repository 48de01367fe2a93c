package systems

import (
	"fmt"

	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/components"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

/** @brief Where a camera starts and how it projects. */
type CameraConfig struct {
	Position [3]float32 `toml:"position"`
	// Vertical field of view in degrees.
	FOV  float32 `toml:"fov"`
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`
	// Uniform buffer binding point the camera is served on.
	BindingPoint uint32 `toml:"binding_point"`
}

func (c CameraConfig) withDefaults() CameraConfig {
	if c.FOV <= 0 {
		c.FOV = 45
	}
	if c.Near <= 0 {
		c.Near = 0.1
	}
	if c.Far <= c.Near {
		c.Far = 1000
	}
	return c
}

/** @brief The camera system configuration. */
type CameraSystemConfig struct {
	/**
	 * @brief NOTE: The maximum number of cameras that can be managed by
	 * the system.
	 */
	MaxCameraCount uint16
	Default        CameraConfig
}

type CameraLookup struct {
	ReferenceCount uint16
	Config         CameraConfig
	Camera         *gl.Camera
	Eye            *components.Eye
}

type CameraSystem struct {
	Config *CameraSystemConfig
	Lookup map[string]*CameraLookup
	ctx    *gl.Context
	width  uint32
	height uint32
}

/**
 * @brief Creates the camera system and its default camera, projecting for
 * a width x height target.
 */
func NewCameraSystem(config *CameraSystemConfig, ctx *gl.Context, width, height uint32) (*CameraSystem, error) {
	if config.MaxCameraCount == 0 {
		err := fmt.Errorf("func NewCameraSystem - config.MaxCameraCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	cs := &CameraSystem{
		Config: config,
		Lookup: make(map[string]*CameraLookup, config.MaxCameraCount),
		ctx:    ctx,
		width:  width,
		height: height,
	}
	// Setup default camera.
	if _, err := cs.create(components.DEFAULT_CAMERA_NAME, config.Default); err != nil {
		return nil, err
	}
	return cs, nil
}

func (cs *CameraSystem) Shutdown() error {
	for name, l := range cs.Lookup {
		l.Camera.Destroy()
		delete(cs.Lookup, name)
	}
	return nil
}

/**
 * @brief Acquires a camera by name. If one is not found, a new one is
 * created from the default configuration. Internal reference counter is
 * incremented.
 */
func (cs *CameraSystem) Acquire(name string) (*CameraLookup, error) {
	if l, ok := cs.Lookup[name]; ok {
		l.ReferenceCount++
		return l, nil
	}
	if len(cs.Lookup) >= int(cs.Config.MaxCameraCount) {
		err := fmt.Errorf("func CameraSystemAcquire failed to acquire new slot. Adjust camera system config to allow more")
		core.LogError(err.Error())
		return nil, err
	}
	core.LogDebug("Creating new camera named '%s'...", name)
	return cs.create(name, cs.Config.Default)
}

/**
 * @brief Releases a camera with the given name. Intenral reference
 * counter is decremented. If this reaches 0, the camera is destroyed.
 */
func (cs *CameraSystem) Release(name string) {
	if name == components.DEFAULT_CAMERA_NAME {
		core.LogDebug("Cannot release default camera. Nothing was done.")
		return
	}
	l, ok := cs.Lookup[name]
	if !ok {
		core.LogWarn("CameraSystemRelease failed lookup. Nothing was done.")
		return
	}
	l.ReferenceCount--
	if l.ReferenceCount == 0 {
		l.Camera.Destroy()
		delete(cs.Lookup, name)
	}
}

/**
 * @brief Gets the default camera.
 */
func (cs *CameraSystem) GetDefault() *CameraLookup {
	return cs.Lookup[components.DEFAULT_CAMERA_NAME]
}

// Update pushes the view of every eye that moved.
func (cs *CameraSystem) Update() error {
	for name, l := range cs.Lookup {
		if err := l.Eye.Sync(l.Camera); err != nil {
			return fmt.Errorf("camera %s: %w", name, err)
		}
	}
	return nil
}

// OnResize reprojects every camera for the new target size. A zero size
// (minimized window) keeps the current projections.
func (cs *CameraSystem) OnResize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	cs.width, cs.height = width, height
	for name, l := range cs.Lookup {
		if err := l.Camera.SetProjection(cs.projection(l.Config)); err != nil {
			return fmt.Errorf("camera %s: %w", name, err)
		}
	}
	return nil
}

func (cs *CameraSystem) create(name string, config CameraConfig) (*CameraLookup, error) {
	config = config.withDefaults()
	eye := components.NewEye(math.NewVec3(config.Position[0], config.Position[1], config.Position[2]))
	cam, err := gl.NewCamera(cs.ctx, config.BindingPoint, gl.CameraView{
		Facing:     eye.View(),
		Projection: cs.projection(config),
	})
	if err != nil {
		return nil, err
	}
	l := &CameraLookup{ReferenceCount: 1, Config: config, Camera: cam, Eye: eye}
	cs.Lookup[name] = l
	return l, nil
}

func (cs *CameraSystem) projection(config CameraConfig) math.Mat4 {
	aspect := float32(1)
	if cs.height > 0 {
		aspect = float32(cs.width) / float32(cs.height)
	}
	return math.NewMat4Perspective(math.DegToRad(config.FOV), aspect, config.Near, config.Far)
}

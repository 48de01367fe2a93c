package systems

import (
	"github.com/spaghettifunk/anima-gl/engine/assets"
	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/renderer"
	"github.com/spaghettifunk/anima-gl/engine/resources"
)

// SystemManagerConfig sizes the systems and describes the default camera.
type SystemManagerConfig struct {
	Workers      int
	MaxImageSize int
	Camera       CameraConfig
}

type SystemManager struct {
	CameraSystem   *CameraSystem
	GeometrySystem *GeometrySystem
	JobSystem      *JobSystem
	ShaderSystem   *ShaderSystem
	TextureSystem  *TextureSystem

	renderer     *renderer.Renderer
	assetManager *assets.AssetManager
}

func NewSystemManager(config SystemManagerConfig, r *renderer.Renderer, am *assets.AssetManager) (*SystemManager, error) {
	if config.Workers < 1 {
		config.Workers = 1
	}
	js, err := NewJobSystem(config.Workers, 64)
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	width, height := r.Size()

	cs, err := NewCameraSystem(&CameraSystemConfig{
		MaxCameraCount: 16,
		Default:        config.Camera,
	}, ctx, width, height)
	if err != nil {
		return nil, err
	}
	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: 1024,
		MaxImageSize:    config.MaxImageSize,
	}, ctx, js, am)
	if err != nil {
		return nil, err
	}
	ssys, err := NewShaderSystem(&ShaderSystemConfig{
		MaxProgramCount: 256,
	}, ctx, am)
	if err != nil {
		return nil, err
	}
	gs, err := NewGeometrySystem(&GeometrySystemConfig{
		MaxGeometryCount: 1024,
	}, ctx)
	if err != nil {
		return nil, err
	}
	return &SystemManager{
		CameraSystem:   cs,
		GeometrySystem: gs,
		JobSystem:      js,
		ShaderSystem:   ssys,
		TextureSystem:  ts,
		renderer:       r,
		assetManager:   am,
	}, nil
}

func (sm *SystemManager) Initialize() error {
	return sm.TextureSystem.Initialize()
}

// Update runs finished job callbacks, applies asset changes and pushes
// camera views. Call once per frame on the thread owning the GL context.
func (sm *SystemManager) Update(deltaTime float64) error {
	sm.JobSystem.Update()
	sm.drainAssetChanges()
	return sm.CameraSystem.Update()
}

func (sm *SystemManager) drainAssetChanges() {
	if sm.assetManager == nil {
		return
	}
	for {
		select {
		case change, ok := <-sm.assetManager.Changes():
			if !ok {
				return
			}
			sm.OnAssetChanged(change)
		default:
			return
		}
	}
}

// OnAssetChanged forwards a change to the systems built from assets.
func (sm *SystemManager) OnAssetChanged(change resources.AssetChange) {
	switch change.Asset.Type {
	case resources.ResourceTypeShader:
		sm.ShaderSystem.OnAssetChanged(change)
	case resources.ResourceTypeImage:
		sm.TextureSystem.OnAssetChanged(change)
	}
}

func (sm *SystemManager) OnResize(width, height uint32) error {
	sm.renderer.OnResize(width, height)
	return sm.CameraSystem.OnResize(width, height)
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.JobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.GeometrySystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.ShaderSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.TextureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.CameraSystem.Shutdown(); err != nil {
		return err
	}
	core.LogDebug("systems shut down")
	return nil
}

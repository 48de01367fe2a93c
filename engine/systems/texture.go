package systems

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-gl/engine/assets"
	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
	"github.com/spaghettifunk/anima-gl/engine/resources"
)

/** @brief The name of the white texture every system can fall back to. */
const DEFAULT_TEXTURE_NAME string = "default"

var ErrTextureNotFound = errors.New("texture not registered")

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
	/** @brief Largest accepted image width or height, 0 for no limit. */
	MaxImageSize int
}

// TextureReference is a registered texture. Texture keeps its identity for
// the whole registration: reloads upload into the same object.
type TextureReference struct {
	Texture        *gl.Texture
	ReferenceCount uint32
	// Asset the pixels come from, empty for textures created from memory.
	Asset string
	// Loaded is false while the image is still decoding; the texture shows
	// white meanwhile.
	Loaded     bool
	Generation uint32
}

type TextureSystem struct {
	Config *TextureSystemConfig
	// Hashtable for texture lookups.
	RegisteredTextureTable map[string]*TextureReference
	// sub systems
	ctx          *gl.Context
	jobSystem    *JobSystem
	assetManager *assets.AssetManager
}

func NewTextureSystem(config *TextureSystemConfig, ctx *gl.Context, js *JobSystem, am *assets.AssetManager) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &TextureSystem{
		Config:                 config,
		RegisteredTextureTable: make(map[string]*TextureReference),
		ctx:                    ctx,
		jobSystem:              js,
		assetManager:           am,
	}, nil
}

// Initialize registers the default texture, which is never released.
func (ts *TextureSystem) Initialize() error {
	t, err := ts.newWhite()
	if err != nil {
		return err
	}
	ts.RegisteredTextureTable[DEFAULT_TEXTURE_NAME] = &TextureReference{Texture: t, ReferenceCount: 1, Loaded: true}
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	for name, ref := range ts.RegisteredTextureTable {
		ref.Texture.Destroy()
		delete(ts.RegisteredTextureTable, name)
	}
	return nil
}

// Default returns the white texture.
func (ts *TextureSystem) Default() *gl.Texture {
	return ts.RegisteredTextureTable[DEFAULT_TEXTURE_NAME].Texture
}

// Get returns a registered texture without taking a reference.
func (ts *TextureSystem) Get(name string) (*TextureReference, bool) {
	ref, ok := ts.RegisteredTextureTable[name]
	return ref, ok
}

/**
 * @brief Acquires the texture of an image asset, loading it on first use.
 * The image decodes on the job system; until then the texture is white.
 * Internal reference counter is incremented.
 */
func (ts *TextureSystem) Acquire(asset string) (*gl.Texture, error) {
	if ref, ok := ts.RegisteredTextureTable[asset]; ok {
		ref.ReferenceCount++
		return ref.Texture, nil
	}
	if err := ts.checkCapacity(); err != nil {
		return nil, err
	}
	if ts.assetManager == nil {
		return nil, fmt.Errorf("texture system: no asset manager to load %s", asset)
	}
	t, err := ts.newWhite()
	if err != nil {
		return nil, err
	}
	ref := &TextureReference{Texture: t, ReferenceCount: 1, Asset: asset}
	ts.RegisteredTextureTable[asset] = ref
	ts.load(asset, ref)
	return t, nil
}

// Create registers a texture holding pixels under a generated name.
func (ts *TextureSystem) Create(pixels gl.Pixels) (string, *gl.Texture, error) {
	if err := ts.checkCapacity(); err != nil {
		return "", nil, err
	}
	t, err := gl.NewTexture(ts.ctx)
	if err != nil {
		return "", nil, err
	}
	if err := t.LoadPixels(pixels); err != nil {
		t.Destroy()
		return "", nil, err
	}
	name := uuid.NewString()
	ts.RegisteredTextureTable[name] = &TextureReference{Texture: t, ReferenceCount: 1, Loaded: true}
	return name, t, nil
}

/**
 * @brief Releases a texture with the given name. Intenral reference
 * counter is decremented. If this reaches 0, the texture is destroyed.
 */
func (ts *TextureSystem) Release(name string) {
	if name == DEFAULT_TEXTURE_NAME {
		core.LogDebug("Cannot release default texture. Nothing was done.")
		return
	}
	ref, ok := ts.RegisteredTextureTable[name]
	if !ok {
		core.LogWarn("texture %s released but not registered", name)
		return
	}
	ref.ReferenceCount--
	if ref.ReferenceCount == 0 {
		ref.Texture.Destroy()
		delete(ts.RegisteredTextureTable, name)
	}
}

// Reload decodes the asset of name again and uploads it into the same
// texture. The old pixels stay if decoding fails.
func (ts *TextureSystem) Reload(name string) error {
	ref, ok := ts.RegisteredTextureTable[name]
	if !ok || ref.Asset == "" {
		return fmt.Errorf("%w: %s", ErrTextureNotFound, name)
	}
	ts.load(ref.Asset, ref)
	return nil
}

// OnAssetChanged reloads the textures built from a modified image.
func (ts *TextureSystem) OnAssetChanged(change resources.AssetChange) {
	if change.Asset.Type != resources.ResourceTypeImage || change.Op == resources.AssetRemoved {
		return
	}
	for name, ref := range ts.RegisteredTextureTable {
		if ref.Asset != "" && (ref.Asset == change.Asset.Name || "textures/"+ref.Asset == change.Asset.Name) {
			core.LogInfo("reloading texture %s", name)
			ts.load(ref.Asset, ref)
		}
	}
}

func (ts *TextureSystem) load(asset string, ref *TextureReference) {
	params := &resources.ImageParams{MaxSize: ts.Config.MaxImageSize}
	ts.jobSystem.Submit(Job{
		Name: "load texture " + asset,
		Run: func() (interface{}, error) {
			r, err := ts.assetManager.LoadAsset(asset, resources.ResourceTypeImage, params)
			if err != nil {
				return nil, err
			}
			return r.Data.(*resources.ImageData), nil
		},
		OnComplete: func(result interface{}) {
			if !ref.Texture.Valid() {
				return
			}
			data := result.(*resources.ImageData)
			if err := ref.Texture.Load(data.Image); err != nil {
				core.LogError("texture %s: %s", asset, err)
				return
			}
			ref.Loaded = true
			ref.Generation++
		},
		OnFailure: func(err error) {
			core.LogWarn("texture %s keeps its previous pixels: %s", asset, err)
		},
	})
}

func (ts *TextureSystem) newWhite() (*gl.Texture, error) {
	t, err := gl.NewTexture(ts.ctx)
	if err != nil {
		return nil, err
	}
	if err := t.LoadPixels(gl.White); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

func (ts *TextureSystem) checkCapacity() error {
	if uint32(len(ts.RegisteredTextureTable)) >= ts.Config.MaxTextureCount {
		return fmt.Errorf("texture system: all %d slots in use, adjust the configuration to allow more", ts.Config.MaxTextureCount)
	}
	return nil
}

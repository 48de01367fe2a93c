package systems

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spaghettifunk/anima-gl/engine/assets"
	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
	"github.com/spaghettifunk/anima-gl/engine/resources"
)

var ErrShaderNotFound = errors.New("program not registered")

/** @brief Configuration for the shader system. */
type ShaderSystemConfig struct {
	/** @brief The maximum number of programs held in the system. */
	MaxProgramCount uint16
}

/** @brief How a program is built: its stage sources and interface requests. */
type ProgramConfig struct {
	Name     string `toml:"name"`
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
	Geometry string `toml:"geometry"`
	// Attribute locations requested before linking.
	Attributes map[string]uint32 `toml:"attributes"`
	// Uniform block binding points set after linking.
	Blocks map[string]uint32 `toml:"blocks"`
}

func (c ProgramConfig) sources() []string {
	var out []string
	for _, s := range []string{c.Vertex, c.Fragment, c.Geometry} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ProgramEntry is a registered program. Program keeps its identity across
// reloads, so objects holding it draw with the new code.
type ProgramEntry struct {
	Config  ProgramConfig
	Program *gl.Program
	// Generation counts successful builds.
	Generation uint32
	// LastError is the failure of the latest reload, nil after a good one.
	LastError error
}

type ShaderSystem struct {
	// This system's configuration.
	Config *ShaderSystemConfig
	// A lookup table for program name->entry
	Lookup map[string]*ProgramEntry
	// sub systems
	ctx          *gl.Context
	assetManager *assets.AssetManager
}

func NewShaderSystem(config *ShaderSystemConfig, ctx *gl.Context, am *assets.AssetManager) (*ShaderSystem, error) {
	if config.MaxProgramCount == 0 {
		err := fmt.Errorf("NewShaderSystem - config.MaxProgramCount must be greater than 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &ShaderSystem{
		Config:       config,
		Lookup:       make(map[string]*ProgramEntry),
		ctx:          ctx,
		assetManager: am,
	}, nil
}

/**
 * @brief Shuts down the shader system, destroying every program.
 */
func (ss *ShaderSystem) Shutdown() error {
	for name, e := range ss.Lookup {
		e.Program.Destroy()
		delete(ss.Lookup, name)
	}
	return nil
}

/**
 * @brief Builds and registers a program from config. A program that fails
 * to build is not registered.
 */
func (ss *ShaderSystem) Create(config ProgramConfig) (*gl.Program, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("shader system: program config without a name")
	}
	if _, exists := ss.Lookup[config.Name]; exists {
		return nil, fmt.Errorf("shader system: program %s already registered", config.Name)
	}
	if len(ss.Lookup) >= int(ss.Config.MaxProgramCount) {
		return nil, fmt.Errorf("shader system: all %d slots in use", ss.Config.MaxProgramCount)
	}
	p, err := ss.build(config)
	if err != nil {
		core.LogError("program %s: %s", config.Name, err)
		return nil, err
	}
	ss.Lookup[config.Name] = &ProgramEntry{Config: config, Program: p, Generation: 1}
	core.LogInfo("program %s ready (id %d)", config.Name, p.ID())
	return p, nil
}

// Get returns the program registered under name.
func (ss *ShaderSystem) Get(name string) (*gl.Program, error) {
	e, ok := ss.Lookup[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrShaderNotFound, name)
	}
	return e.Program, nil
}

// Entry returns the registration of name.
func (ss *ShaderSystem) Entry(name string) (*ProgramEntry, bool) {
	e, ok := ss.Lookup[name]
	return e, ok
}

// Names returns the registered program names, sorted.
func (ss *ShaderSystem) Names() []string {
	names := make([]string, 0, len(ss.Lookup))
	for n := range ss.Lookup {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Destroy unregisters and destroys the program name.
func (ss *ShaderSystem) Destroy(name string) {
	if e, ok := ss.Lookup[name]; ok {
		e.Program.Destroy()
		delete(ss.Lookup, name)
	}
}

/**
 * @brief Rebuilds a program from its sources. On success the new program
 * replaces the old one in place; on failure the old one keeps running and
 * the error is returned and remembered on the entry.
 */
func (ss *ShaderSystem) Reload(name string) error {
	e, ok := ss.Lookup[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrShaderNotFound, name)
	}
	p, err := ss.build(e.Config)
	if err != nil {
		e.LastError = err
		core.LogWarn("program %s keeps generation %d: %s", name, e.Generation, err)
		return err
	}
	e.Program.MoveFrom(p)
	e.Generation++
	e.LastError = nil
	core.LogInfo("program %s reloaded, generation %d", name, e.Generation)
	return nil
}

// OnAssetChanged reloads every program built from the changed shader
// source. Returns the names of the programs it tried.
func (ss *ShaderSystem) OnAssetChanged(change resources.AssetChange) []string {
	if change.Asset.Type != resources.ResourceTypeShader || change.Op == resources.AssetRemoved {
		return nil
	}
	var reloaded []string
	for _, name := range ss.Names() {
		e := ss.Lookup[name]
		for _, src := range e.Config.sources() {
			if src == change.Asset.Name || "shaders/"+src == change.Asset.Name {
				_ = ss.Reload(name)
				reloaded = append(reloaded, name)
				break
			}
		}
	}
	return reloaded
}

func (ss *ShaderSystem) build(config ProgramConfig) (*gl.Program, error) {
	sources := config.sources()
	if len(sources) == 0 {
		return nil, fmt.Errorf("program %s has no shader sources", config.Name)
	}

	var shaders []*gl.Shader
	defer func() {
		// attached shaders only live as long as the program needs them
		for _, s := range shaders {
			s.Destroy()
		}
	}()
	for _, src := range sources {
		s, err := ss.compile(src)
		if err != nil {
			return nil, err
		}
		shaders = append(shaders, s)
	}

	p, err := gl.CreateProgram(ss.ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Attach(shaders...); err != nil {
		p.Destroy()
		return nil, err
	}
	for _, attr := range sortedKeys(config.Attributes) {
		if err := p.Attribute(attr).Set(config.Attributes[attr]); err != nil {
			p.Destroy()
			return nil, fmt.Errorf("attribute %s: %w", attr, err)
		}
	}
	if err := p.Link(); err != nil {
		return nil, err
	}
	for _, block := range sortedKeys(config.Blocks) {
		if err := p.Block(block).Set(config.Blocks[block]); err != nil {
			p.Destroy()
			return nil, fmt.Errorf("uniform block %s: %w", block, err)
		}
	}
	return p, nil
}

func (ss *ShaderSystem) compile(src string) (*gl.Shader, error) {
	if ss.assetManager == nil {
		return nil, fmt.Errorf("shader system: no asset manager to load %s", src)
	}
	r, err := ss.assetManager.LoadAsset(src, resources.ResourceTypeShader, nil)
	if err != nil {
		return nil, err
	}
	defer ss.assetManager.UnloadAsset(r)
	source := r.Data.(*resources.ShaderSource)
	stage, err := gl.ParseShaderStage(source.Stage)
	if err != nil {
		return nil, err
	}
	s, err := gl.NewShader(ss.ctx, stage, source.Source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return s, nil
}

// CompileSource compiles src as a shader of the named stage and returns the
// driver log on failure. Used to validate sources without registering a
// program.
func CompileSource(ctx *gl.Context, stageName, src string) error {
	stage, err := gl.ParseShaderStage(stageName)
	if err != nil {
		return err
	}
	s, err := gl.NewShader(ctx, stage, src)
	if err != nil {
		return err
	}
	s.Destroy()
	return nil
}

func sortedKeys(m map[string]uint32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

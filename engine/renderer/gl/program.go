package gl

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima-gl/engine/core"
)

// Program is a shader program. It starts empty, shaders are attached, and
// Link turns it into a linked program or fails and deletes it. Attached
// shaders are detached by Link whatever the outcome, so the program never
// keeps shaders alive.
//
// Name lookups are cached here, not in the lookup values handed out by
// Attribute, Block and Uniform, which only name what they read.
type Program struct {
	name     Name[programKind]
	attached []uint32
	linked   bool

	requested  map[string]uint32
	attributes map[string]int32
	uniforms   map[string]int32
	blocks     map[string]uint32
}

// CreateProgram allocates an empty program.
func CreateProgram(ctx *Context) (*Program, error) {
	p := &Program{}
	if err := p.name.allocate(ctx, 0); err != nil {
		return nil, err
	}
	p.requested = make(map[string]uint32)
	p.resetCaches()
	return p, nil
}

// NewProgram creates a program, attaches shaders and links it.
func NewProgram(ctx *Context, shaders ...*Shader) (*Program, error) {
	p, err := CreateProgram(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Attach(shaders...); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.Link(); err != nil {
		return nil, err
	}
	return p, nil
}

// Attach adds shaders to the next link.
func (p *Program) Attach(shaders ...*Shader) error {
	if err := p.name.require(); err != nil {
		return err
	}
	if p.linked {
		return ErrAlreadyLinked
	}
	for _, s := range shaders {
		if s == nil || !s.Valid() {
			return ErrInvalidResource
		}
		p.name.ctx.driver.AttachShader(p.name.id, s.ID())
		if err := p.name.ctx.Check("attach shader"); err != nil {
			return err
		}
		p.attached = append(p.attached, s.ID())
	}
	return nil
}

// Link links the attached shaders and detaches them. A failed link deletes
// the program and returns a *LinkError with the driver's info log.
func (p *Program) Link() error {
	if err := p.name.require(); err != nil {
		return err
	}
	if p.linked {
		return ErrAlreadyLinked
	}
	ctx := p.name.ctx
	d := ctx.driver
	d.LinkProgram(p.name.id)
	for _, s := range p.attached {
		d.DetachShader(p.name.id, s)
	}
	p.attached = nil
	if err := ctx.Check("link program"); err != nil {
		p.Destroy()
		return err
	}
	if d.GetProgrami(p.name.id, LINK_STATUS) == 0 {
		log := strings.TrimSpace(d.GetProgramInfoLog(p.name.id))
		if log == "" {
			log = "no info log"
		}
		p.Destroy()
		return &LinkError{Log: log}
	}
	p.linked = true
	p.resetCaches()
	core.LogDebug("linked program %d", p.name.id)
	return nil
}

func (p *Program) Linked() bool { return p.linked }

// Activate makes p the current program. Calling it again is harmless.
func (p *Program) Activate() error {
	if err := p.name.require(); err != nil {
		return err
	}
	if !p.linked {
		return ErrNotLinked
	}
	p.name.ctx.useProgram(p.name.id)
	return p.name.ctx.Check("use program")
}

// DeactivateProgram makes no program current.
func DeactivateProgram(ctx *Context) {
	ctx.useProgram(0)
}

// Active reports whether p is the current program of its context.
func (p *Program) Active() bool {
	return p.name.Valid() && p.name.ctx.CurrentProgram() == p.name.id
}

func (p *Program) ID() uint32      { return p.name.ID() }
func (p *Program) Valid() bool     { return p.name.Valid() }
func (p *Program) Release() uint32 { return p.name.Release() }

func (p *Program) Context() *Context { return p.name.ctx }

func (p *Program) Destroy() {
	p.name.Destroy()
	p.linked = false
	p.attached = nil
}

func (p *Program) MoveFrom(src *Program) {
	if p == src {
		return
	}
	p.name.MoveFrom(&src.name)
	p.attached, p.linked = src.attached, src.linked
	p.requested, p.attributes = src.requested, src.attributes
	p.uniforms, p.blocks = src.uniforms, src.blocks
	src.attached, src.linked = nil, false
}

func (p *Program) Move() *Program {
	dst := &Program{}
	dst.MoveFrom(p)
	return dst
}

func (p *Program) resetCaches() {
	p.attributes = make(map[string]int32)
	p.uniforms = make(map[string]int32)
	p.blocks = make(map[string]uint32)
}

// Attribute names the vertex input name of p.
func (p *Program) Attribute(name string) AttributeBinding {
	return AttributeBinding{program: p, name: name}
}

// Block names the uniform block name of p.
func (p *Program) Block(name string) UniformBinding {
	return UniformBinding{program: p, name: name}
}

func (p *Program) attributeLocation(name string) (int32, error) {
	if err := p.name.require(); err != nil {
		return -1, err
	}
	if loc, ok := p.attributes[name]; ok {
		return loc, nil
	}
	if !p.linked {
		if k, ok := p.requested[name]; ok {
			return int32(k), nil
		}
		return -1, nil
	}
	loc := p.name.ctx.driver.GetAttribLocation(p.name.id, name)
	if err := p.name.ctx.Check("get attrib location"); err != nil {
		return -1, err
	}
	// -1 stays unresolved and is asked again next time
	if loc >= 0 {
		p.attributes[name] = loc
	}
	return loc, nil
}

func (p *Program) uniformLocation(name string) (int32, error) {
	if err := p.name.require(); err != nil {
		return -1, err
	}
	if !p.linked {
		return -1, ErrNotLinked
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc, nil
	}
	loc := p.name.ctx.driver.GetUniformLocation(p.name.id, name)
	if err := p.name.ctx.Check("get uniform location"); err != nil {
		return -1, err
	}
	p.uniforms[name] = loc
	return loc, nil
}

func (p *Program) blockIndex(name string) (uint32, error) {
	if err := p.name.require(); err != nil {
		return INVALID_INDEX, err
	}
	if !p.linked {
		return INVALID_INDEX, ErrNotLinked
	}
	if idx, ok := p.blocks[name]; ok {
		return idx, nil
	}
	idx := p.name.ctx.driver.GetUniformBlockIndex(p.name.id, name)
	if err := p.name.ctx.Check("get uniform block index"); err != nil {
		return INVALID_INDEX, err
	}
	if idx == INVALID_INDEX {
		return INVALID_INDEX, fmt.Errorf("%w: block %q", ErrUnknownUniform, name)
	}
	p.blocks[name] = idx
	return idx, nil
}

// AttributeBinding names one vertex input of a program.
type AttributeBinding struct {
	program *Program
	name    string
}

func (a AttributeBinding) Name() string { return a.name }

// Set requests location index for the attribute. The request takes effect
// at the next link.
func (a AttributeBinding) Set(index uint32) error {
	p := a.program
	if err := p.name.require(); err != nil {
		return err
	}
	p.name.ctx.driver.BindAttribLocation(p.name.id, index, a.name)
	if err := p.name.ctx.Check("bind attrib location"); err != nil {
		return err
	}
	p.requested[a.name] = index
	return nil
}

// Location returns the attribute's location: the requested one before
// linking, the driver's afterwards. -1 means not located.
func (a AttributeBinding) Location() (int32, error) {
	return a.program.attributeLocation(a.name)
}

// UniformBinding names one uniform block of a program.
type UniformBinding struct {
	program *Program
	name    string
}

func (b UniformBinding) Name() string { return b.name }

// Index returns the block index.
func (b UniformBinding) Index() (uint32, error) {
	return b.program.blockIndex(b.name)
}

// Set makes the block read from binding point.
func (b UniformBinding) Set(point uint32) error {
	idx, err := b.program.blockIndex(b.name)
	if err != nil {
		return err
	}
	ctx := b.program.name.ctx
	ctx.driver.UniformBlockBinding(b.program.name.id, idx, point)
	return ctx.Check("uniform block binding")
}

// Get returns the binding point the block reads from.
func (b UniformBinding) Get() (uint32, error) {
	idx, err := b.program.blockIndex(b.name)
	if err != nil {
		return 0, err
	}
	ctx := b.program.name.ctx
	point := ctx.driver.GetActiveUniformBlocki(b.program.name.id, idx, UNIFORM_BLOCK_BINDING)
	if err := ctx.Check("get active uniform block"); err != nil {
		return 0, err
	}
	return uint32(point), nil
}

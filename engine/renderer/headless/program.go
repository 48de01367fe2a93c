package headless

import (
	"strings"

	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

type shaderObject struct {
	stage    gl.Enum
	source   string
	compiled bool
	log      string
	unit     *translationUnit
	// programs the shader is attached to
	attachments   map[uint32]bool
	deleteFlagged bool
}

type uniformSlot struct {
	name     string
	typ      glslType
	location int32
	values   []float64
}

type blockSlot struct {
	name    string
	binding uint32
}

type programObject struct {
	shaders  []uint32
	bindings map[string]uint32

	linked     bool
	log        string
	attributes map[string]int32
	uniforms   []*uniformSlot
	byName     map[string]*uniformSlot
	byLoc      map[int32]*uniformSlot
	blocks     []blockSlot

	deleteFlagged bool
}

func (d *Driver) shaderFor(id uint32) *shaderObject {
	if s, ok := d.shaders[id]; ok {
		return s
	}
	if _, ok := d.programs[id]; ok {
		d.fail(gl.INVALID_OPERATION)
	} else {
		d.fail(gl.INVALID_VALUE)
	}
	return nil
}

func (d *Driver) programFor(id uint32) *programObject {
	if p, ok := d.programs[id]; ok {
		return p
	}
	if _, ok := d.shaders[id]; ok {
		d.fail(gl.INVALID_OPERATION)
	} else {
		d.fail(gl.INVALID_VALUE)
	}
	return nil
}

// Shaders

func (d *Driver) CreateShader(ty gl.Enum) uint32 {
	switch ty {
	case gl.VERTEX_SHADER, gl.FRAGMENT_SHADER, gl.GEOMETRY_SHADER:
	default:
		d.record("CreateShader", ty, uint32(0))
		d.fail(gl.INVALID_ENUM)
		return 0
	}
	obj := &shaderObject{stage: ty, attachments: make(map[uint32]bool)}
	id := d.objectNames.Acquire(obj)
	d.shaders[id] = obj
	d.record("CreateShader", ty, id)
	return id
}

func (d *Driver) DeleteShader(shader uint32) {
	d.record("DeleteShader", shader)
	if shader == 0 {
		return
	}
	s := d.shaderFor(shader)
	if s == nil {
		return
	}
	if len(s.attachments) > 0 {
		s.deleteFlagged = true
		return
	}
	d.dropShader(shader)
}

func (d *Driver) dropShader(shader uint32) {
	delete(d.shaders, shader)
	_ = d.objectNames.Release(shader)
}

func (d *Driver) ShaderSource(shader uint32, source string) {
	d.record("ShaderSource", shader)
	if s := d.shaderFor(shader); s != nil {
		s.source = source
	}
}

func (d *Driver) CompileShader(shader uint32) {
	d.record("CompileShader", shader)
	s := d.shaderFor(shader)
	if s == nil {
		return
	}
	s.unit, s.log = compileSource(s.stage, s.source)
	s.compiled = s.unit != nil
}

func (d *Driver) GetShaderi(shader uint32, pname gl.Enum) int32 {
	s := d.shaderFor(shader)
	if s == nil {
		return 0
	}
	switch pname {
	case gl.COMPILE_STATUS:
		if s.compiled {
			return 1
		}
		return 0
	case gl.INFO_LOG_LENGTH:
		return logLength(s.log)
	}
	d.fail(gl.INVALID_ENUM)
	return 0
}

func (d *Driver) GetShaderInfoLog(shader uint32) string {
	if s := d.shaderFor(shader); s != nil {
		return s.log
	}
	return ""
}

// logLength counts the terminating NUL, like the driver does.
func logLength(log string) int32 {
	if log == "" {
		return 0
	}
	return int32(len(log) + 1)
}

// Programs

func (d *Driver) CreateProgram() uint32 {
	obj := &programObject{bindings: make(map[string]uint32)}
	id := d.objectNames.Acquire(obj)
	d.programs[id] = obj
	d.record("CreateProgram", id)
	return id
}

// DeleteProgram deletes program at once unless it is current, in which case
// deletion waits until another program is made current.
func (d *Driver) DeleteProgram(program uint32) {
	d.record("DeleteProgram", program)
	if program == 0 {
		return
	}
	p := d.programFor(program)
	if p == nil {
		return
	}
	if d.program == program {
		p.deleteFlagged = true
		return
	}
	d.dropProgram(program, p)
}

func (d *Driver) dropProgram(id uint32, p *programObject) {
	for _, s := range p.shaders {
		d.detach(id, s)
	}
	delete(d.programs, id)
	_ = d.objectNames.Release(id)
}

func (d *Driver) AttachShader(program, shader uint32) {
	d.record("AttachShader", program, shader)
	p := d.programFor(program)
	if p == nil {
		return
	}
	s := d.shaderFor(shader)
	if s == nil {
		return
	}
	if s.attachments[program] {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	for _, other := range p.shaders {
		if d.shaders[other].stage == s.stage {
			// one shader per stage in this profile
			d.fail(gl.INVALID_OPERATION)
			return
		}
	}
	s.attachments[program] = true
	p.shaders = append(p.shaders, shader)
}

func (d *Driver) DetachShader(program, shader uint32) {
	d.record("DetachShader", program, shader)
	p := d.programFor(program)
	if p == nil {
		return
	}
	if d.shaderFor(shader) == nil {
		return
	}
	for _, s := range p.shaders {
		if s == shader {
			d.detach(program, shader)
			return
		}
	}
	d.fail(gl.INVALID_OPERATION)
}

func (d *Driver) detach(program, shader uint32) {
	if p, ok := d.programs[program]; ok {
		for i, s := range p.shaders {
			if s == shader {
				p.shaders = append(p.shaders[:i], p.shaders[i+1:]...)
				break
			}
		}
	}
	s, ok := d.shaders[shader]
	if !ok {
		return
	}
	delete(s.attachments, program)
	if s.deleteFlagged && len(s.attachments) == 0 {
		d.dropShader(shader)
	}
}

func (d *Driver) LinkProgram(program uint32) {
	d.record("LinkProgram", program)
	p := d.programFor(program)
	if p == nil {
		return
	}
	units := make([]*shaderObject, 0, len(p.shaders))
	for _, id := range p.shaders {
		units = append(units, d.shaders[id])
	}
	d.link(p, units)
}

func (d *Driver) GetProgrami(program uint32, pname gl.Enum) int32 {
	p := d.programFor(program)
	if p == nil {
		return 0
	}
	switch pname {
	case gl.LINK_STATUS:
		if p.linked {
			return 1
		}
		return 0
	case gl.INFO_LOG_LENGTH:
		return logLength(p.log)
	}
	d.fail(gl.INVALID_ENUM)
	return 0
}

func (d *Driver) GetProgramInfoLog(program uint32) string {
	if p := d.programFor(program); p != nil {
		return p.log
	}
	return ""
}

func (d *Driver) UseProgram(program uint32) {
	d.record("UseProgram", program)
	if program != 0 {
		p := d.programFor(program)
		if p == nil {
			return
		}
		if !p.linked {
			d.fail(gl.INVALID_OPERATION)
			return
		}
	}
	previous := d.program
	d.program = program
	if previous != program {
		if p, ok := d.programs[previous]; ok && p.deleteFlagged {
			d.dropProgram(previous, p)
		}
	}
}

// Interface queries

func (d *Driver) BindAttribLocation(program, index uint32, name string) {
	d.record("BindAttribLocation", program, index, name)
	if index >= MaxVertexAttributes {
		d.fail(gl.INVALID_VALUE)
		return
	}
	p := d.programFor(program)
	if p == nil {
		return
	}
	if strings.HasPrefix(name, "gl_") {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	p.bindings[name] = index
}

func (d *Driver) linkedProgram(program uint32) *programObject {
	p := d.programFor(program)
	if p == nil {
		return nil
	}
	if !p.linked {
		d.fail(gl.INVALID_OPERATION)
		return nil
	}
	return p
}

func (d *Driver) GetAttribLocation(program uint32, name string) int32 {
	p := d.linkedProgram(program)
	if p == nil {
		return -1
	}
	if loc, ok := p.attributes[name]; ok {
		return loc
	}
	return -1
}

func (d *Driver) GetUniformLocation(program uint32, name string) int32 {
	p := d.linkedProgram(program)
	if p == nil {
		return -1
	}
	if u, ok := p.byName[name]; ok {
		return u.location
	}
	return -1
}

func (d *Driver) GetUniformBlockIndex(program uint32, name string) uint32 {
	p := d.linkedProgram(program)
	if p == nil {
		return gl.INVALID_INDEX
	}
	for i, b := range p.blocks {
		if b.name == name {
			return uint32(i)
		}
	}
	return gl.INVALID_INDEX
}

func (d *Driver) UniformBlockBinding(program, block, point uint32) {
	d.record("UniformBlockBinding", program, block, point)
	p := d.programFor(program)
	if p == nil {
		return
	}
	if block >= uint32(len(p.blocks)) || point >= MaxUniformBufferPoints {
		d.fail(gl.INVALID_VALUE)
		return
	}
	p.blocks[block].binding = point
}

func (d *Driver) GetActiveUniformBlocki(program, block uint32, pname gl.Enum) int32 {
	p := d.programFor(program)
	if p == nil {
		return 0
	}
	if block >= uint32(len(p.blocks)) {
		d.fail(gl.INVALID_VALUE)
		return 0
	}
	if pname != gl.UNIFORM_BLOCK_BINDING {
		d.fail(gl.INVALID_ENUM)
		return 0
	}
	return int32(p.blocks[block].binding)
}

// Uniform values

// uniformTarget returns the uniform of the current program at location.
// Location -1 is silently ignored.
func (d *Driver) uniformTarget(location int32) (*uniformSlot, bool) {
	if location == -1 {
		return nil, false
	}
	p, ok := d.programs[d.program]
	if d.program == 0 || !ok {
		d.fail(gl.INVALID_OPERATION)
		return nil, false
	}
	u, ok := p.byLoc[location]
	if !ok {
		d.fail(gl.INVALID_OPERATION)
		return nil, false
	}
	return u, true
}

func (d *Driver) setUniform(location int32, accept func(glslType) bool, components int, v []float64) {
	u, ok := d.uniformTarget(location)
	if !ok {
		return
	}
	if !accept(u.typ) || len(v) != components || u.typ.components != components {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	copy(u.values, v)
}

func scalarOf(kinds ...baseKind) func(glslType) bool {
	return func(t glslType) bool {
		if t.components != 1 {
			return false
		}
		for _, k := range kinds {
			if t.base == k {
				return true
			}
		}
		return false
	}
}

func typeNamed(name string) func(glslType) bool {
	return func(t glslType) bool { return t.name == name }
}

func widen[T int32 | uint32 | float32](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func (d *Driver) Uniform1i(location int32, v int32) {
	d.record("Uniform1i", location, v)
	d.setUniform(location, scalarOf(kindInt, kindBool, kindSampler), 1, []float64{float64(v)})
}

func (d *Driver) Uniform1ui(location int32, v uint32) {
	d.record("Uniform1ui", location, v)
	d.setUniform(location, scalarOf(kindUint, kindBool), 1, []float64{float64(v)})
}

func (d *Driver) Uniform1f(location int32, v float32) {
	d.record("Uniform1f", location, v)
	d.setUniform(location, scalarOf(kindFloat, kindBool), 1, []float64{float64(v)})
}

func (d *Driver) Uniform3fv(location int32, v []float32) {
	d.record("Uniform3fv", location, v)
	d.setUniform(location, typeNamed("vec3"), 3, widen(v))
}

func (d *Driver) Uniform4fv(location int32, v []float32) {
	d.record("Uniform4fv", location, v)
	d.setUniform(location, typeNamed("vec4"), 4, widen(v))
}

func (d *Driver) UniformMatrix4fv(location int32, transpose bool, v []float32) {
	d.record("UniformMatrix4fv", location, transpose, v)
	values := widen(v)
	if transpose && len(values) == 16 {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				values[c*4+r] = float64(v[r*4+c])
			}
		}
	}
	d.setUniform(location, typeNamed("mat4"), 16, values)
}

func (d *Driver) readUniform(program uint32, location int32) []float64 {
	p := d.linkedProgram(program)
	if p == nil {
		return nil
	}
	u, ok := p.byLoc[location]
	if !ok {
		d.fail(gl.INVALID_OPERATION)
		return nil
	}
	return u.values
}

func (d *Driver) GetUniformiv(program uint32, location int32, out []int32) {
	for i, v := range d.readUniform(program, location) {
		if i < len(out) {
			out[i] = int32(v)
		}
	}
}

func (d *Driver) GetUniformuiv(program uint32, location int32, out []uint32) {
	for i, v := range d.readUniform(program, location) {
		if i < len(out) {
			out[i] = uint32(v)
		}
	}
}

func (d *Driver) GetUniformfv(program uint32, location int32, out []float32) {
	for i, v := range d.readUniform(program, location) {
		if i < len(out) {
			out[i] = float32(v)
		}
	}
}

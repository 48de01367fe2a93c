package headless

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima-gl/engine/containers"
	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

const (
	MaxVertexAttributes   = 16
	MaxTextureUnits       = 16
	MaxUniformBufferPoints = 36
)

// Call is one driver entry point invocation, kept for binding-order
// assertions.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// DrawCall is a recorded DrawElements with the state it read.
type DrawCall struct {
	Mode          gl.Enum
	Count         int32
	Type          gl.Enum
	Offset        int
	Start         int
	VertexArray   uint32
	ElementBuffer uint32
	Program       uint32
	Indices       []uint32
}

type bufferObject struct {
	data   []byte
	usage  gl.Enum
	mapped bool
}

type textureObject struct {
	width, height int32
	format        gl.Enum
	pixels        []byte
	params        map[gl.Enum]int32
}

type AttributeState struct {
	Enabled    bool
	Buffer     uint32
	Size       int32
	Type       gl.Enum
	Normalized bool
	Stride     int32
	Offset     int
}

type vertexArrayObject struct {
	element    uint32
	attributes [MaxVertexAttributes]AttributeState
}

// Driver is a software gl.Driver. It keeps every object in memory, checks
// arguments the way a core profile driver does, and records calls and
// draws. It never touches a GPU.
type Driver struct {
	bufferNames  *core.NamePool
	textureNames *core.NamePool
	arrayNames   *core.NamePool
	// shaders and programs share one namespace
	objectNames *core.NamePool

	buffers  map[uint32]*bufferObject
	textures map[uint32]*textureObject
	arrays   map[uint32]*vertexArrayObject
	shaders  map[uint32]*shaderObject
	programs map[uint32]*programObject

	bound      map[gl.Enum]uint32
	points     [MaxUniformBufferPoints]uint32
	activeUnit uint32
	units      [MaxTextureUnits]uint32
	program    uint32
	array      uint32

	errors *containers.RingQueue[gl.Enum]
	calls  []Call
	draws  []DrawCall

	viewport     [4]int32
	clearColor   [4]float32
	clears       int
	capabilities map[gl.Enum]bool
}

var _ gl.Driver = (*Driver)(nil)

func New() *Driver {
	d := &Driver{
		bufferNames:  core.NewNamePool(64),
		textureNames: core.NewNamePool(16),
		arrayNames:   core.NewNamePool(16),
		objectNames:  core.NewNamePool(32),
		buffers:      make(map[uint32]*bufferObject),
		textures:     make(map[uint32]*textureObject),
		arrays:       make(map[uint32]*vertexArrayObject),
		shaders:      make(map[uint32]*shaderObject),
		programs:     make(map[uint32]*programObject),
		bound:        make(map[gl.Enum]uint32),
		errors:       containers.NewRingQueue[gl.Enum](8),
		capabilities: make(map[gl.Enum]bool),
	}
	// name 0 is the default object of these kinds
	d.textures[0] = newTextureObject()
	d.arrays[0] = &vertexArrayObject{}
	return d
}

func newTextureObject() *textureObject {
	return &textureObject{params: make(map[gl.Enum]int32)}
}

func (d *Driver) record(name string, args ...any) {
	d.calls = append(d.calls, Call{Name: name, Args: args})
}

// fail raises an error flag. Like a real driver, a flag that is already
// raised is not queued twice.
func (d *Driver) fail(code gl.Enum) {
	if d.errors.Contains(func(c gl.Enum) bool { return c == code }) {
		return
	}
	if err := d.errors.Enqueue(code); err != nil {
		core.LogWarn("headless: dropped %s: %s", gl.ErrorString(code), err)
	}
}

func (d *Driver) GetError() gl.Enum {
	code, err := d.errors.Dequeue()
	if err != nil {
		return gl.NO_ERROR
	}
	return code
}

func (d *Driver) GetString(name gl.Enum) string {
	switch name {
	case gl.VENDOR:
		return "anima"
	case gl.RENDERER:
		return "headless"
	case gl.VERSION:
		return "3.3 (Core Profile) headless"
	}
	d.fail(gl.INVALID_ENUM)
	return ""
}

// Buffers

func (d *Driver) GenBuffer() uint32 {
	obj := &bufferObject{}
	id := d.bufferNames.Acquire(obj)
	d.buffers[id] = obj
	d.record("GenBuffer", id)
	return id
}

func (d *Driver) DeleteBuffer(buffer uint32) {
	d.record("DeleteBuffer", buffer)
	if _, ok := d.buffers[buffer]; !ok || buffer == 0 {
		return
	}
	for target, id := range d.bound {
		if id == buffer {
			d.bound[target] = 0
		}
	}
	for i, id := range d.points {
		if id == buffer {
			d.points[i] = 0
		}
	}
	if vao := d.arrays[d.array]; vao.element == buffer {
		vao.element = 0
	}
	delete(d.buffers, buffer)
	_ = d.bufferNames.Release(buffer)
}

func validBufferTarget(target gl.Enum) bool {
	switch target {
	case gl.ARRAY_BUFFER, gl.ELEMENT_ARRAY_BUFFER, gl.UNIFORM_BUFFER:
		return true
	}
	return false
}

func (d *Driver) BindBuffer(target gl.Enum, buffer uint32) {
	d.record("BindBuffer", target, buffer)
	if !validBufferTarget(target) {
		d.fail(gl.INVALID_ENUM)
		return
	}
	if _, ok := d.buffers[buffer]; buffer != 0 && !ok {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	if target == gl.ELEMENT_ARRAY_BUFFER {
		d.arrays[d.array].element = buffer
		return
	}
	d.bound[target] = buffer
}

func (d *Driver) BindBufferBase(target gl.Enum, index uint32, buffer uint32) {
	d.record("BindBufferBase", target, index, buffer)
	if target != gl.UNIFORM_BUFFER {
		d.fail(gl.INVALID_ENUM)
		return
	}
	if index >= MaxUniformBufferPoints {
		d.fail(gl.INVALID_VALUE)
		return
	}
	if _, ok := d.buffers[buffer]; buffer != 0 && !ok {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	d.points[index] = buffer
	d.bound[target] = buffer
}

func (d *Driver) boundBuffer(target gl.Enum) *bufferObject {
	if !validBufferTarget(target) {
		d.fail(gl.INVALID_ENUM)
		return nil
	}
	id := d.bound[target]
	if target == gl.ELEMENT_ARRAY_BUFFER {
		id = d.arrays[d.array].element
	}
	if id == 0 {
		d.fail(gl.INVALID_OPERATION)
		return nil
	}
	return d.buffers[id]
}

func validUsage(usage gl.Enum) bool {
	switch usage {
	case gl.STREAM_DRAW, gl.STREAM_READ, gl.STREAM_COPY,
		gl.STATIC_DRAW, gl.STATIC_READ, gl.STATIC_COPY,
		gl.DYNAMIC_DRAW, gl.DYNAMIC_READ, gl.DYNAMIC_COPY:
		return true
	}
	return false
}

func (d *Driver) BufferData(target gl.Enum, size int, usage gl.Enum, data []byte) {
	d.record("BufferData", target, size, usage)
	if !validUsage(usage) {
		d.fail(gl.INVALID_ENUM)
		return
	}
	if size < 0 || (data != nil && len(data) < size) {
		d.fail(gl.INVALID_VALUE)
		return
	}
	obj := d.boundBuffer(target)
	if obj == nil {
		return
	}
	obj.data = make([]byte, size)
	copy(obj.data, data)
	obj.usage = usage
	obj.mapped = false
}

func (d *Driver) BufferSubData(target gl.Enum, offset int, data []byte) {
	d.record("BufferSubData", target, offset, len(data))
	obj := d.boundBuffer(target)
	if obj == nil {
		return
	}
	if offset < 0 || offset+len(data) > len(obj.data) {
		d.fail(gl.INVALID_VALUE)
		return
	}
	if obj.mapped {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	copy(obj.data[offset:], data)
}

func (d *Driver) GetBufferParameteri(target, pname gl.Enum) int32 {
	obj := d.boundBuffer(target)
	if obj == nil {
		return 0
	}
	switch pname {
	case gl.BUFFER_SIZE:
		return int32(len(obj.data))
	case gl.BUFFER_USAGE:
		return int32(obj.usage)
	case gl.BUFFER_MAPPED:
		if obj.mapped {
			return 1
		}
		return 0
	}
	d.fail(gl.INVALID_ENUM)
	return 0
}

// MapBufferRange returns the storage itself for read-write maps and a copy
// for read-only ones, so writes through a read-only map never land.
func (d *Driver) MapBufferRange(target gl.Enum, offset, length int, access gl.Enum) []byte {
	d.record("MapBufferRange", target, offset, length, access)
	obj := d.boundBuffer(target)
	if obj == nil {
		return nil
	}
	if offset < 0 || length <= 0 || offset+length > len(obj.data) {
		d.fail(gl.INVALID_VALUE)
		return nil
	}
	if obj.mapped || access&(gl.MAP_READ_BIT|gl.MAP_WRITE_BIT) == 0 {
		d.fail(gl.INVALID_OPERATION)
		return nil
	}
	obj.mapped = true
	region := obj.data[offset : offset+length : offset+length]
	if access&gl.MAP_WRITE_BIT == 0 {
		return append([]byte(nil), region...)
	}
	return region
}

func (d *Driver) UnmapBuffer(target gl.Enum) bool {
	d.record("UnmapBuffer", target)
	obj := d.boundBuffer(target)
	if obj == nil {
		return false
	}
	if !obj.mapped {
		d.fail(gl.INVALID_OPERATION)
		return false
	}
	obj.mapped = false
	return true
}

// Textures

func (d *Driver) GenTexture() uint32 {
	obj := newTextureObject()
	id := d.textureNames.Acquire(obj)
	d.textures[id] = obj
	d.record("GenTexture", id)
	return id
}

func (d *Driver) DeleteTexture(texture uint32) {
	d.record("DeleteTexture", texture)
	if _, ok := d.textures[texture]; !ok || texture == 0 {
		return
	}
	for i, id := range d.units {
		if id == texture {
			d.units[i] = 0
		}
	}
	delete(d.textures, texture)
	_ = d.textureNames.Release(texture)
}

func (d *Driver) ActiveTexture(unit gl.Enum) {
	d.record("ActiveTexture", unit)
	if unit < gl.TEXTURE0 || unit >= gl.TEXTURE0+MaxTextureUnits {
		d.fail(gl.INVALID_ENUM)
		return
	}
	d.activeUnit = uint32(unit - gl.TEXTURE0)
}

func (d *Driver) BindTexture(target gl.Enum, texture uint32) {
	d.record("BindTexture", target, texture)
	if target != gl.TEXTURE_2D {
		d.fail(gl.INVALID_ENUM)
		return
	}
	if _, ok := d.textures[texture]; !ok {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	d.units[d.activeUnit] = texture
}

func bytesPerPixel(format, ty gl.Enum) int {
	if format != gl.RGBA {
		return 0
	}
	switch ty {
	case gl.UNSIGNED_BYTE:
		return 4
	case gl.FLOAT:
		return 16
	}
	return 0
}

func (d *Driver) TexImage2D(target gl.Enum, level int32, internalFormat gl.Enum, width, height int32, format, ty gl.Enum, pixels []byte) {
	d.record("TexImage2D", target, level, internalFormat, width, height, format, ty)
	if target != gl.TEXTURE_2D {
		d.fail(gl.INVALID_ENUM)
		return
	}
	bpp := bytesPerPixel(format, ty)
	if bpp == 0 {
		d.fail(gl.INVALID_ENUM)
		return
	}
	if width < 0 || height < 0 || level < 0 {
		d.fail(gl.INVALID_VALUE)
		return
	}
	size := int(width) * int(height) * bpp
	if pixels != nil && len(pixels) < size {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	obj := d.textures[d.units[d.activeUnit]]
	if level > 0 {
		// mip levels are accepted and not kept
		return
	}
	obj.width, obj.height = width, height
	obj.format = internalFormat
	obj.pixels = make([]byte, size)
	copy(obj.pixels, pixels)
}

func (d *Driver) TexParameteri(target, pname gl.Enum, param int32) {
	d.record("TexParameteri", target, pname, param)
	if target != gl.TEXTURE_2D {
		d.fail(gl.INVALID_ENUM)
		return
	}
	switch pname {
	case gl.TEXTURE_MIN_FILTER, gl.TEXTURE_MAG_FILTER, gl.TEXTURE_WRAP_S, gl.TEXTURE_WRAP_T:
	default:
		d.fail(gl.INVALID_ENUM)
		return
	}
	d.textures[d.units[d.activeUnit]].params[pname] = param
}

// Vertex arrays

func (d *Driver) GenVertexArray() uint32 {
	obj := &vertexArrayObject{}
	id := d.arrayNames.Acquire(obj)
	d.arrays[id] = obj
	d.record("GenVertexArray", id)
	return id
}

func (d *Driver) DeleteVertexArray(array uint32) {
	d.record("DeleteVertexArray", array)
	if _, ok := d.arrays[array]; !ok || array == 0 {
		return
	}
	if d.array == array {
		d.array = 0
	}
	delete(d.arrays, array)
	_ = d.arrayNames.Release(array)
}

func (d *Driver) BindVertexArray(array uint32) {
	d.record("BindVertexArray", array)
	if _, ok := d.arrays[array]; !ok {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	d.array = array
}

// currentArray returns the bound vertex array. Core profile has no usable
// default vertex array.
func (d *Driver) currentArray() *vertexArrayObject {
	if d.array == 0 {
		d.fail(gl.INVALID_OPERATION)
		return nil
	}
	return d.arrays[d.array]
}

func (d *Driver) EnableVertexAttribArray(index uint32) {
	d.record("EnableVertexAttribArray", index)
	d.setAttribEnabled(index, true)
}

func (d *Driver) DisableVertexAttribArray(index uint32) {
	d.record("DisableVertexAttribArray", index)
	d.setAttribEnabled(index, false)
}

func (d *Driver) setAttribEnabled(index uint32, enabled bool) {
	if index >= MaxVertexAttributes {
		d.fail(gl.INVALID_VALUE)
		return
	}
	vao := d.currentArray()
	if vao == nil {
		return
	}
	vao.attributes[index].Enabled = enabled
}

func (d *Driver) VertexAttribPointer(index uint32, size int32, ty gl.Enum, normalized bool, stride int32, offset int) {
	d.record("VertexAttribPointer", index, size, ty, normalized, stride, offset)
	if index >= MaxVertexAttributes || size < 1 || size > 4 || stride < 0 || offset < 0 {
		d.fail(gl.INVALID_VALUE)
		return
	}
	if _, ok := gl.TypeAlloc[gl.TypeCode(ty)]; !ok {
		d.fail(gl.INVALID_ENUM)
		return
	}
	vao := d.currentArray()
	if vao == nil {
		return
	}
	buffer := d.bound[gl.ARRAY_BUFFER]
	if buffer == 0 && offset != 0 {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	a := &vao.attributes[index]
	a.Buffer = buffer
	a.Size = size
	a.Type = ty
	a.Normalized = normalized
	a.Stride = stride
	a.Offset = offset
}

// Drawing

func validMode(mode gl.Enum) bool {
	switch mode {
	case gl.POINTS, gl.LINES, gl.LINE_LOOP, gl.LINE_STRIP,
		gl.TRIANGLES, gl.TRIANGLE_STRIP, gl.TRIANGLE_FAN, gl.PATCHES:
		return true
	}
	return false
}

func (d *Driver) DrawElements(mode gl.Enum, count int32, ty gl.Enum, offset int) {
	d.record("DrawElements", mode, count, ty, offset)
	if !validMode(mode) {
		d.fail(gl.INVALID_ENUM)
		return
	}
	size := 0
	switch ty {
	case gl.UNSIGNED_BYTE:
		size = 1
	case gl.UNSIGNED_SHORT:
		size = 2
	case gl.UNSIGNED_INT:
		size = 4
	default:
		d.fail(gl.INVALID_ENUM)
		return
	}
	if count < 0 || offset < 0 {
		d.fail(gl.INVALID_VALUE)
		return
	}
	vao := d.currentArray()
	if vao == nil {
		return
	}
	elements, ok := d.buffers[vao.element]
	if vao.element == 0 || !ok || elements.mapped {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	end := offset + int(count)*size
	if end > len(elements.data) {
		d.fail(gl.INVALID_OPERATION)
		return
	}
	for _, a := range vao.attributes {
		if buf, ok := d.buffers[a.Buffer]; a.Enabled && ok && buf.mapped {
			d.fail(gl.INVALID_OPERATION)
			return
		}
	}
	indices := make([]uint32, count)
	raw := elements.data[offset:end]
	for i := range indices {
		switch size {
		case 1:
			indices[i] = uint32(raw[i])
		case 2:
			indices[i] = uint32(raw[2*i]) | uint32(raw[2*i+1])<<8
		case 4:
			indices[i] = uint32(raw[4*i]) | uint32(raw[4*i+1])<<8 | uint32(raw[4*i+2])<<16 | uint32(raw[4*i+3])<<24
		}
	}
	d.draws = append(d.draws, DrawCall{
		Mode:          mode,
		Count:         count,
		Type:          ty,
		Offset:        offset,
		Start:         offset / size,
		VertexArray:   d.array,
		ElementBuffer: vao.element,
		Program:       d.program,
		Indices:       indices,
	})
}

// Frame state

func (d *Driver) Viewport(x, y, width, height int32) {
	d.record("Viewport", x, y, width, height)
	if width < 0 || height < 0 {
		d.fail(gl.INVALID_VALUE)
		return
	}
	d.viewport = [4]int32{x, y, width, height}
}

func (d *Driver) ClearColor(r, g, b, a float32) {
	d.record("ClearColor", r, g, b, a)
	d.clearColor = [4]float32{r, g, b, a}
}

func (d *Driver) Clear(mask gl.Enum) {
	d.record("Clear", mask)
	if mask&^(gl.COLOR_BUFFER_BIT|gl.DEPTH_BUFFER_BIT) != 0 {
		d.fail(gl.INVALID_VALUE)
		return
	}
	d.clears++
}

func (d *Driver) Enable(capability gl.Enum) {
	d.record("Enable", capability)
	d.capabilities[capability] = true
}

func (d *Driver) Disable(capability gl.Enum) {
	d.record("Disable", capability)
	d.capabilities[capability] = false
}

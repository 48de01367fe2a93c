package opengl

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

// ProcLoader resolves a GL entry point of the current context, 0 when the
// context does not provide it.
type ProcLoader func(name string) uintptr

// Driver calls the system OpenGL implementation without cgo. Entry points
// are resolved once by Load; every method must be called on the thread the
// context is current on.
type Driver struct {
	glGetError  func() uint32
	glGetString func(name uint32) unsafe.Pointer

	glGenBuffers           func(n int32, buffers *uint32)
	glDeleteBuffers        func(n int32, buffers *uint32)
	glBindBuffer           func(target, buffer uint32)
	glBindBufferBase       func(target, index, buffer uint32)
	glBufferData           func(target uint32, size int, data unsafe.Pointer, usage uint32)
	glBufferSubData        func(target uint32, offset, size int, data unsafe.Pointer)
	glGetBufferParameteriv func(target, pname uint32, params *int32)
	glMapBufferRange       func(target uint32, offset, length int, access uint32) unsafe.Pointer
	glUnmapBuffer          func(target uint32) uint8

	glGenTextures    func(n int32, textures *uint32)
	glDeleteTextures func(n int32, textures *uint32)
	glActiveTexture  func(unit uint32)
	glBindTexture    func(target, texture uint32)
	glTexImage2D     func(target uint32, level, internalFormat, width, height, border int32, format, ty uint32, pixels unsafe.Pointer)
	glTexParameteri  func(target, pname uint32, param int32)

	glCreateShader     func(ty uint32) uint32
	glDeleteShader     func(shader uint32)
	glShaderSource     func(shader uint32, count int32, sources **byte, lengths *int32)
	glCompileShader    func(shader uint32)
	glGetShaderiv      func(shader, pname uint32, params *int32)
	glGetShaderInfoLog func(shader uint32, size int32, length *int32, log *byte)

	glCreateProgram     func() uint32
	glDeleteProgram     func(program uint32)
	glAttachShader      func(program, shader uint32)
	glDetachShader      func(program, shader uint32)
	glLinkProgram       func(program uint32)
	glGetProgramiv      func(program, pname uint32, params *int32)
	glGetProgramInfoLog func(program uint32, size int32, length *int32, log *byte)
	glUseProgram        func(program uint32)

	glBindAttribLocation      func(program, index uint32, name string)
	glGetAttribLocation       func(program uint32, name string) int32
	glGetUniformLocation      func(program uint32, name string) int32
	glGetUniformBlockIndex    func(program uint32, name string) uint32
	glUniformBlockBinding     func(program, block, point uint32)
	glGetActiveUniformBlockiv func(program, block, pname uint32, params *int32)

	glUniform1i        func(location, v int32)
	glUniform1ui       func(location int32, v uint32)
	glUniform1f        func(location int32, v float32)
	glUniform3fv       func(location, count int32, v *float32)
	glUniform4fv       func(location, count int32, v *float32)
	glUniformMatrix4fv func(location, count int32, transpose uint8, v *float32)
	glGetUniformiv     func(program uint32, location int32, params *int32)
	glGetUniformuiv    func(program uint32, location int32, params *uint32)
	glGetUniformfv     func(program uint32, location int32, params *float32)

	glGenVertexArrays          func(n int32, arrays *uint32)
	glDeleteVertexArrays       func(n int32, arrays *uint32)
	glBindVertexArray          func(array uint32)
	glEnableVertexAttribArray  func(index uint32)
	glDisableVertexAttribArray func(index uint32)
	glVertexAttribPointer      func(index uint32, size int32, ty uint32, normalized uint8, stride int32, offset uintptr)

	glDrawElements func(mode uint32, count int32, ty uint32, offset uintptr)

	glViewport   func(x, y, width, height int32)
	glClearColor func(r, g, b, a float32)
	glClear      func(mask uint32)
	glEnable     func(capability uint32)
	glDisable    func(capability uint32)
}

var _ gl.Driver = (*Driver)(nil)

// Load resolves every entry point through proc. It fails listing the
// entry points the context lacks.
func Load(proc ProcLoader) (*Driver, error) {
	d := &Driver{}
	var missing []string
	for _, e := range d.entryPoints() {
		addr := proc(e.name)
		if addr == 0 {
			missing = append(missing, e.name)
			continue
		}
		purego.RegisterFunc(e.fn, addr)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("opengl: context lacks %d entry points, first %s", len(missing), missing[0])
	}
	core.LogDebug("opengl: resolved %d entry points", len(d.entryPoints()))
	return d, nil
}

type entryPoint struct {
	name string
	fn   any
}

func (d *Driver) entryPoints() []entryPoint {
	return []entryPoint{
		{"glGetError", &d.glGetError},
		{"glGetString", &d.glGetString},
		{"glGenBuffers", &d.glGenBuffers},
		{"glDeleteBuffers", &d.glDeleteBuffers},
		{"glBindBuffer", &d.glBindBuffer},
		{"glBindBufferBase", &d.glBindBufferBase},
		{"glBufferData", &d.glBufferData},
		{"glBufferSubData", &d.glBufferSubData},
		{"glGetBufferParameteriv", &d.glGetBufferParameteriv},
		{"glMapBufferRange", &d.glMapBufferRange},
		{"glUnmapBuffer", &d.glUnmapBuffer},
		{"glGenTextures", &d.glGenTextures},
		{"glDeleteTextures", &d.glDeleteTextures},
		{"glActiveTexture", &d.glActiveTexture},
		{"glBindTexture", &d.glBindTexture},
		{"glTexImage2D", &d.glTexImage2D},
		{"glTexParameteri", &d.glTexParameteri},
		{"glCreateShader", &d.glCreateShader},
		{"glDeleteShader", &d.glDeleteShader},
		{"glShaderSource", &d.glShaderSource},
		{"glCompileShader", &d.glCompileShader},
		{"glGetShaderiv", &d.glGetShaderiv},
		{"glGetShaderInfoLog", &d.glGetShaderInfoLog},
		{"glCreateProgram", &d.glCreateProgram},
		{"glDeleteProgram", &d.glDeleteProgram},
		{"glAttachShader", &d.glAttachShader},
		{"glDetachShader", &d.glDetachShader},
		{"glLinkProgram", &d.glLinkProgram},
		{"glGetProgramiv", &d.glGetProgramiv},
		{"glGetProgramInfoLog", &d.glGetProgramInfoLog},
		{"glUseProgram", &d.glUseProgram},
		{"glBindAttribLocation", &d.glBindAttribLocation},
		{"glGetAttribLocation", &d.glGetAttribLocation},
		{"glGetUniformLocation", &d.glGetUniformLocation},
		{"glGetUniformBlockIndex", &d.glGetUniformBlockIndex},
		{"glUniformBlockBinding", &d.glUniformBlockBinding},
		{"glGetActiveUniformBlockiv", &d.glGetActiveUniformBlockiv},
		{"glUniform1i", &d.glUniform1i},
		{"glUniform1ui", &d.glUniform1ui},
		{"glUniform1f", &d.glUniform1f},
		{"glUniform3fv", &d.glUniform3fv},
		{"glUniform4fv", &d.glUniform4fv},
		{"glUniformMatrix4fv", &d.glUniformMatrix4fv},
		{"glGetUniformiv", &d.glGetUniformiv},
		{"glGetUniformuiv", &d.glGetUniformuiv},
		{"glGetUniformfv", &d.glGetUniformfv},
		{"glGenVertexArrays", &d.glGenVertexArrays},
		{"glDeleteVertexArrays", &d.glDeleteVertexArrays},
		{"glBindVertexArray", &d.glBindVertexArray},
		{"glEnableVertexAttribArray", &d.glEnableVertexAttribArray},
		{"glDisableVertexAttribArray", &d.glDisableVertexAttribArray},
		{"glVertexAttribPointer", &d.glVertexAttribPointer},
		{"glDrawElements", &d.glDrawElements},
		{"glViewport", &d.glViewport},
		{"glClearColor", &d.glClearColor},
		{"glClear", &d.glClear},
		{"glEnable", &d.glEnable},
		{"glDisable", &d.glDisable},
	}
}

func boolean(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func dataPtr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(s))
}

func first[T any](s []T) *T {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}

// goString copies a NUL terminated string owned by the driver.
func goString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

func (d *Driver) GetError() gl.Enum { return gl.Enum(d.glGetError()) }

func (d *Driver) GetString(name gl.Enum) string {
	return goString(d.glGetString(uint32(name)))
}

// Buffers

func (d *Driver) GenBuffer() uint32 {
	var id uint32
	d.glGenBuffers(1, &id)
	return id
}

func (d *Driver) DeleteBuffer(buffer uint32) { d.glDeleteBuffers(1, &buffer) }

func (d *Driver) BindBuffer(target gl.Enum, buffer uint32) {
	d.glBindBuffer(uint32(target), buffer)
}

func (d *Driver) BindBufferBase(target gl.Enum, index uint32, buffer uint32) {
	d.glBindBufferBase(uint32(target), index, buffer)
}

func (d *Driver) BufferData(target gl.Enum, size int, usage gl.Enum, data []byte) {
	d.glBufferData(uint32(target), size, dataPtr(data), uint32(usage))
}

func (d *Driver) BufferSubData(target gl.Enum, offset int, data []byte) {
	d.glBufferSubData(uint32(target), offset, len(data), dataPtr(data))
}

func (d *Driver) GetBufferParameteri(target, pname gl.Enum) int32 {
	var v int32
	d.glGetBufferParameteriv(uint32(target), uint32(pname), &v)
	return v
}

func (d *Driver) MapBufferRange(target gl.Enum, offset, length int, access gl.Enum) []byte {
	p := d.glMapBufferRange(uint32(target), offset, length, uint32(access))
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(p), length)
}

func (d *Driver) UnmapBuffer(target gl.Enum) bool {
	return d.glUnmapBuffer(uint32(target)) != 0
}

// Textures

func (d *Driver) GenTexture() uint32 {
	var id uint32
	d.glGenTextures(1, &id)
	return id
}

func (d *Driver) DeleteTexture(texture uint32) { d.glDeleteTextures(1, &texture) }
func (d *Driver) ActiveTexture(unit gl.Enum) { d.glActiveTexture(uint32(unit)) }

func (d *Driver) BindTexture(target gl.Enum, texture uint32) {
	d.glBindTexture(uint32(target), texture)
}

func (d *Driver) TexImage2D(target gl.Enum, level int32, internalFormat gl.Enum, width, height int32, format, ty gl.Enum, pixels []byte) {
	d.glTexImage2D(uint32(target), level, int32(internalFormat), width, height, 0, uint32(format), uint32(ty), dataPtr(pixels))
}

func (d *Driver) TexParameteri(target, pname gl.Enum, param int32) {
	d.glTexParameteri(uint32(target), uint32(pname), param)
}

// Shaders and programs

func (d *Driver) CreateShader(ty gl.Enum) uint32 { return d.glCreateShader(uint32(ty)) }
func (d *Driver) DeleteShader(shader uint32) { d.glDeleteShader(shader) }

func (d *Driver) ShaderSource(shader uint32, source string) {
	src := append([]byte(source), 0)
	ptr := &src[0]
	length := int32(len(source))
	d.glShaderSource(shader, 1, &ptr, &length)
}

func (d *Driver) CompileShader(shader uint32) { d.glCompileShader(shader) }

func (d *Driver) GetShaderi(shader uint32, pname gl.Enum) int32 {
	var v int32
	d.glGetShaderiv(shader, uint32(pname), &v)
	return v
}

func (d *Driver) GetShaderInfoLog(shader uint32) string {
	n := d.GetShaderi(shader, gl.INFO_LOG_LENGTH)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	var length int32
	d.glGetShaderInfoLog(shader, n, &length, &buf[0])
	return string(buf[:length])
}

func (d *Driver) CreateProgram() uint32 { return d.glCreateProgram() }
func (d *Driver) DeleteProgram(program uint32) { d.glDeleteProgram(program) }
func (d *Driver) AttachShader(program, shader uint32) { d.glAttachShader(program, shader) }
func (d *Driver) DetachShader(program, shader uint32) { d.glDetachShader(program, shader) }
func (d *Driver) LinkProgram(program uint32) { d.glLinkProgram(program) }
func (d *Driver) UseProgram(program uint32) { d.glUseProgram(program) }

func (d *Driver) GetProgrami(program uint32, pname gl.Enum) int32 {
	var v int32
	d.glGetProgramiv(program, uint32(pname), &v)
	return v
}

func (d *Driver) GetProgramInfoLog(program uint32) string {
	n := d.GetProgrami(program, gl.INFO_LOG_LENGTH)
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	var length int32
	d.glGetProgramInfoLog(program, n, &length, &buf[0])
	return string(buf[:length])
}

func (d *Driver) BindAttribLocation(program, index uint32, name string) {
	d.glBindAttribLocation(program, index, name)
}

func (d *Driver) GetAttribLocation(program uint32, name string) int32 {
	return d.glGetAttribLocation(program, name)
}

func (d *Driver) GetUniformLocation(program uint32, name string) int32 {
	return d.glGetUniformLocation(program, name)
}

func (d *Driver) GetUniformBlockIndex(program uint32, name string) uint32 {
	return d.glGetUniformBlockIndex(program, name)
}

func (d *Driver) UniformBlockBinding(program, block, point uint32) {
	d.glUniformBlockBinding(program, block, point)
}

func (d *Driver) GetActiveUniformBlocki(program, block uint32, pname gl.Enum) int32 {
	var v int32
	d.glGetActiveUniformBlockiv(program, block, uint32(pname), &v)
	return v
}

// Uniforms

func (d *Driver) Uniform1i(location int32, v int32) { d.glUniform1i(location, v) }
func (d *Driver) Uniform1ui(location int32, v uint32) { d.glUniform1ui(location, v) }
func (d *Driver) Uniform1f(location int32, v float32) { d.glUniform1f(location, v) }

func (d *Driver) Uniform3fv(location int32, v []float32) {
	d.glUniform3fv(location, int32(len(v)/3), first(v))
}

func (d *Driver) Uniform4fv(location int32, v []float32) {
	d.glUniform4fv(location, int32(len(v)/4), first(v))
}

func (d *Driver) UniformMatrix4fv(location int32, transpose bool, v []float32) {
	d.glUniformMatrix4fv(location, int32(len(v)/16), boolean(transpose), first(v))
}

func (d *Driver) GetUniformiv(program uint32, location int32, out []int32) {
	d.glGetUniformiv(program, location, first(out))
}

func (d *Driver) GetUniformuiv(program uint32, location int32, out []uint32) {
	d.glGetUniformuiv(program, location, first(out))
}

func (d *Driver) GetUniformfv(program uint32, location int32, out []float32) {
	d.glGetUniformfv(program, location, first(out))
}

// Vertex arrays and drawing

func (d *Driver) GenVertexArray() uint32 {
	var id uint32
	d.glGenVertexArrays(1, &id)
	return id
}

func (d *Driver) DeleteVertexArray(array uint32) { d.glDeleteVertexArrays(1, &array) }
func (d *Driver) BindVertexArray(array uint32) { d.glBindVertexArray(array) }
func (d *Driver) EnableVertexAttribArray(index uint32) { d.glEnableVertexAttribArray(index) }
func (d *Driver) DisableVertexAttribArray(index uint32) { d.glDisableVertexAttribArray(index) }

// VertexAttribPointer takes offset as a byte offset into the bound
// ARRAY_BUFFER, which is what the pointer argument means while one is bound.
func (d *Driver) VertexAttribPointer(index uint32, size int32, ty gl.Enum, normalized bool, stride int32, offset int) {
	d.glVertexAttribPointer(index, size, uint32(ty), boolean(normalized), stride, uintptr(offset))
}

func (d *Driver) DrawElements(mode gl.Enum, count int32, ty gl.Enum, offset int) {
	d.glDrawElements(uint32(mode), count, uint32(ty), uintptr(offset))
}

func (d *Driver) Viewport(x, y, width, height int32) { d.glViewport(x, y, width, height) }
func (d *Driver) ClearColor(r, g, b, a float32) { d.glClearColor(r, g, b, a) }
func (d *Driver) Clear(mask gl.Enum) { d.glClear(uint32(mask)) }
func (d *Driver) Enable(capability gl.Enum) { d.glEnable(uint32(capability)) }
func (d *Driver) Disable(capability gl.Enum) { d.glDisable(uint32(capability)) }

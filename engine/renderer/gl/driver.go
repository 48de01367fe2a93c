package gl

// Enum is a driver enumerant (GLenum).
type Enum uint32

const (
	NO_ERROR                      Enum = 0
	INVALID_ENUM                  Enum = 0x0500
	INVALID_VALUE                 Enum = 0x0501
	INVALID_OPERATION             Enum = 0x0502
	OUT_OF_MEMORY                 Enum = 0x0505
	INVALID_FRAMEBUFFER_OPERATION Enum = 0x0506

	POINTS         Enum = 0x0000
	LINES          Enum = 0x0001
	LINE_LOOP      Enum = 0x0002
	LINE_STRIP     Enum = 0x0003
	TRIANGLES      Enum = 0x0004
	TRIANGLE_STRIP Enum = 0x0005
	TRIANGLE_FAN   Enum = 0x0006
	PATCHES        Enum = 0x000E

	BYTE           Enum = 0x1400
	UNSIGNED_BYTE  Enum = 0x1401
	SHORT          Enum = 0x1402
	UNSIGNED_SHORT Enum = 0x1403
	INT            Enum = 0x1404
	UNSIGNED_INT   Enum = 0x1405
	FLOAT          Enum = 0x1406
	DOUBLE         Enum = 0x140A
	INT64          Enum = 0x140E
	UNSIGNED_INT64 Enum = 0x140F

	ARRAY_BUFFER         Enum = 0x8892
	ELEMENT_ARRAY_BUFFER Enum = 0x8893
	UNIFORM_BUFFER       Enum = 0x8A11

	STREAM_DRAW  Enum = 0x88E0
	STREAM_READ  Enum = 0x88E1
	STREAM_COPY  Enum = 0x88E2
	STATIC_DRAW  Enum = 0x88E4
	STATIC_READ  Enum = 0x88E5
	STATIC_COPY  Enum = 0x88E6
	DYNAMIC_DRAW Enum = 0x88E8
	DYNAMIC_READ Enum = 0x88E9
	DYNAMIC_COPY Enum = 0x88EA

	BUFFER_SIZE   Enum = 0x8764
	BUFFER_USAGE  Enum = 0x8765
	BUFFER_MAPPED Enum = 0x88BC

	MAP_READ_BIT  Enum = 0x0001
	MAP_WRITE_BIT Enum = 0x0002

	TEXTURE_2D         Enum = 0x0DE1
	TEXTURE0           Enum = 0x84C0
	TEXTURE_MIN_FILTER Enum = 0x2801
	TEXTURE_MAG_FILTER Enum = 0x2800
	TEXTURE_WRAP_S     Enum = 0x2802
	TEXTURE_WRAP_T     Enum = 0x2803
	NEAREST            Enum = 0x2600
	LINEAR             Enum = 0x2601
	REPEAT             Enum = 0x2901
	CLAMP_TO_EDGE      Enum = 0x812F
	RGBA               Enum = 0x1908
	RGBA8              Enum = 0x8058

	FRAGMENT_SHADER Enum = 0x8B30
	VERTEX_SHADER   Enum = 0x8B31
	GEOMETRY_SHADER Enum = 0x8DD9
	COMPILE_STATUS  Enum = 0x8B81
	LINK_STATUS     Enum = 0x8B82
	INFO_LOG_LENGTH Enum = 0x8B84

	UNIFORM_BLOCK_BINDING Enum = 0x8A3F
	INVALID_INDEX         uint32 = 0xFFFFFFFF

	DEPTH_TEST       Enum = 0x0B71
	CULL_FACE        Enum = 0x0B44
	COLOR_BUFFER_BIT Enum = 0x00004000
	DEPTH_BUFFER_BIT Enum = 0x00000100

	VENDOR   Enum = 0x1F00
	RENDERER Enum = 0x1F01
	VERSION  Enum = 0x1F02
)

// Driver is the set of OpenGL entry points the resource layer relies on.
// Every call operates on the context current on the calling thread. Object
// names are non-zero; 0 always means "none". Slice arguments replace the
// pointer/count pairs of the C API.
type Driver interface {
	GetError() Enum
	GetString(name Enum) string

	GenBuffer() uint32
	DeleteBuffer(buffer uint32)
	BindBuffer(target Enum, buffer uint32)
	BindBufferBase(target Enum, index uint32, buffer uint32)
	BufferData(target Enum, size int, usage Enum, data []byte)
	BufferSubData(target Enum, offset int, data []byte)
	GetBufferParameteri(target, pname Enum) int32
	MapBufferRange(target Enum, offset, length int, access Enum) []byte
	UnmapBuffer(target Enum) bool

	GenTexture() uint32
	DeleteTexture(texture uint32)
	ActiveTexture(unit Enum)
	BindTexture(target Enum, texture uint32)
	TexImage2D(target Enum, level int32, internalFormat Enum, width, height int32, format, ty Enum, pixels []byte)
	TexParameteri(target, pname Enum, param int32)

	CreateShader(ty Enum) uint32
	DeleteShader(shader uint32)
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	GetShaderi(shader uint32, pname Enum) int32
	GetShaderInfoLog(shader uint32) string

	CreateProgram() uint32
	DeleteProgram(program uint32)
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32)
	GetProgrami(program uint32, pname Enum) int32
	GetProgramInfoLog(program uint32) string
	UseProgram(program uint32)

	BindAttribLocation(program, index uint32, name string)
	GetAttribLocation(program uint32, name string) int32
	GetUniformLocation(program uint32, name string) int32
	GetUniformBlockIndex(program uint32, name string) uint32
	UniformBlockBinding(program, block, point uint32)
	GetActiveUniformBlocki(program, block uint32, pname Enum) int32

	Uniform1i(location int32, v int32)
	Uniform1ui(location int32, v uint32)
	Uniform1f(location int32, v float32)
	Uniform3fv(location int32, v []float32)
	Uniform4fv(location int32, v []float32)
	UniformMatrix4fv(location int32, transpose bool, v []float32)
	GetUniformiv(program uint32, location int32, out []int32)
	GetUniformuiv(program uint32, location int32, out []uint32)
	GetUniformfv(program uint32, location int32, out []float32)

	GenVertexArray() uint32
	DeleteVertexArray(array uint32)
	BindVertexArray(array uint32)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, ty Enum, normalized bool, stride int32, offset int)

	DrawElements(mode Enum, count int32, ty Enum, offset int)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask Enum)
	Enable(capability Enum)
	Disable(capability Enum)
}

// ErrorString returns the symbolic name of a driver error code.
func ErrorString(code Enum) string {
	switch code {
	case NO_ERROR:
		return "GL_NO_ERROR"
	case INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	case INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	}
	return "GL_UNKNOWN_ERROR"
}

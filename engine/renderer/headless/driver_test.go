package headless

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

func TestErrorFlagsQueueOnce(t *testing.T) {
	d := New()
	d.BindBuffer(gl.ARRAY_BUFFER, 42)
	d.BindBuffer(gl.ARRAY_BUFFER, 43)
	d.BindBuffer(0x1234, 0)

	assert.Equal(t, 2, d.PendingErrors())
	assert.Equal(t, gl.INVALID_OPERATION, d.GetError())
	assert.Equal(t, gl.INVALID_ENUM, d.GetError())
	assert.Equal(t, gl.NO_ERROR, d.GetError())
}

func TestNamesStartAtOneAndAreReused(t *testing.T) {
	d := New()
	a := d.GenBuffer()
	b := d.GenBuffer()
	assert.Equal(t, uint32(1), a)
	assert.Equal(t, uint32(2), b)

	d.DeleteBuffer(a)
	assert.Equal(t, a, d.GenBuffer())
	assert.Equal(t, 2, d.Live().Buffers)
}

func TestBufferDataAndSubData(t *testing.T) {
	d := New()
	id := d.GenBuffer()
	d.BindBuffer(gl.ARRAY_BUFFER, id)
	d.BufferData(gl.ARRAY_BUFFER, 4, gl.STATIC_DRAW, []byte{1, 2, 3, 4})
	d.BufferSubData(gl.ARRAY_BUFFER, 2, []byte{9, 9})

	data, ok := d.BufferContents(id)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 9, 9}, data)
	assert.Equal(t, int32(4), d.GetBufferParameteri(gl.ARRAY_BUFFER, gl.BUFFER_SIZE))

	d.BufferSubData(gl.ARRAY_BUFFER, 3, []byte{0, 0})
	assert.Equal(t, gl.INVALID_VALUE, d.GetError())
}

func TestMapBufferRange(t *testing.T) {
	d := New()
	id := d.GenBuffer()
	d.BindBuffer(gl.ARRAY_BUFFER, id)
	d.BufferData(gl.ARRAY_BUFFER, 4, gl.DYNAMIC_DRAW, []byte{1, 2, 3, 4})

	ro := d.MapBufferRange(gl.ARRAY_BUFFER, 0, 4, gl.MAP_READ_BIT)
	require.Len(t, ro, 4)
	ro[0] = 100
	assert.True(t, d.BufferMapped(id))

	d.MapBufferRange(gl.ARRAY_BUFFER, 0, 4, gl.MAP_READ_BIT)
	assert.Equal(t, gl.INVALID_OPERATION, d.GetError())
	assert.True(t, d.UnmapBuffer(gl.ARRAY_BUFFER))

	rw := d.MapBufferRange(gl.ARRAY_BUFFER, 1, 2, gl.MAP_READ_BIT|gl.MAP_WRITE_BIT)
	rw[0] = 7
	assert.True(t, d.UnmapBuffer(gl.ARRAY_BUFFER))

	data, _ := d.BufferContents(id)
	assert.Equal(t, []byte{1, 7, 3, 4}, data)

	assert.False(t, d.UnmapBuffer(gl.ARRAY_BUFFER))
	assert.Equal(t, gl.INVALID_OPERATION, d.GetError())
}

func TestElementBindingBelongsToVertexArray(t *testing.T) {
	d := New()
	vao := d.GenVertexArray()
	ebo := d.GenBuffer()

	d.BindVertexArray(vao)
	d.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	d.BindVertexArray(0)
	assert.Equal(t, uint32(0), d.BoundBuffer(gl.ELEMENT_ARRAY_BUFFER))

	d.BindVertexArray(vao)
	assert.Equal(t, ebo, d.BoundBuffer(gl.ELEMENT_ARRAY_BUFFER))
}

func TestAttributesNeedVertexArray(t *testing.T) {
	d := New()
	d.EnableVertexAttribArray(0)
	assert.Equal(t, gl.INVALID_OPERATION, d.GetError())

	vao := d.GenVertexArray()
	vbo := d.GenBuffer()
	d.BindVertexArray(vao)
	d.BindBuffer(gl.ARRAY_BUFFER, vbo)
	d.VertexAttribPointer(2, 3, gl.FLOAT, false, 12, 0)
	d.EnableVertexAttribArray(2)
	assert.Equal(t, gl.NO_ERROR, d.GetError())

	a, ok := d.Attribute(vao, 2)
	require.True(t, ok)
	assert.Equal(t, AttributeState{Enabled: true, Buffer: vbo, Size: 3, Type: gl.FLOAT, Stride: 12}, a)

	d.VertexAttribPointer(0, 5, gl.FLOAT, false, 0, 0)
	assert.Equal(t, gl.INVALID_VALUE, d.GetError())
}

func TestDrawElementsDecodesIndices(t *testing.T) {
	d := New()
	vao := d.GenVertexArray()
	ebo := d.GenBuffer()
	d.BindVertexArray(vao)
	d.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)

	raw := make([]byte, 8)
	for i, v := range []uint16{0, 1, 2, 300} {
		binary.LittleEndian.PutUint16(raw[2*i:], v)
	}
	d.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(raw), gl.STATIC_DRAW, raw)

	d.DrawElements(gl.TRIANGLES, 3, gl.UNSIGNED_SHORT, 2)
	require.Len(t, d.Draws(), 1)
	draw := d.Draws()[0]
	assert.Equal(t, 1, draw.Start)
	assert.Equal(t, ebo, draw.ElementBuffer)
	assert.Equal(t, []uint32{1, 2, 300}, draw.Indices)

	d.DrawElements(gl.TRIANGLES, 4, gl.UNSIGNED_SHORT, 2)
	assert.Equal(t, gl.INVALID_OPERATION, d.GetError())
	d.DrawElements(gl.TRIANGLES, 3, gl.FLOAT, 0)
	assert.Equal(t, gl.INVALID_ENUM, d.GetError())
	assert.Len(t, d.Draws(), 1)
}

func TestTextureImage(t *testing.T) {
	d := New()
	tex := d.GenTexture()
	d.ActiveTexture(gl.TEXTURE0 + 3)
	d.BindTexture(gl.TEXTURE_2D, tex)
	d.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 2, gl.RGBA, gl.UNSIGNED_BYTE, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	d.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, int32(gl.NEAREST))

	w, h, pixels, ok := d.TextureImage(tex)
	require.True(t, ok)
	assert.Equal(t, int32(1), w)
	assert.Equal(t, int32(2), h)
	assert.Len(t, pixels, 8)
	v, ok := d.TextureParameter(tex, gl.TEXTURE_MIN_FILTER)
	assert.True(t, ok)
	assert.Equal(t, int32(gl.NEAREST), v)
	assert.Equal(t, tex, d.BoundTexture(3))

	d.DeleteTexture(tex)
	assert.Equal(t, uint32(0), d.BoundTexture(3))
}

func compile(t *testing.T, d *Driver, stage gl.Enum, src string) uint32 {
	t.Helper()
	id := d.CreateShader(stage)
	d.ShaderSource(id, src)
	d.CompileShader(id)
	require.Equal(t, int32(1), d.GetShaderi(id, gl.COMPILE_STATUS), d.GetShaderInfoLog(id))
	return id
}

func linkProgram(t *testing.T, d *Driver, shaders ...uint32) uint32 {
	t.Helper()
	p := d.CreateProgram()
	for _, s := range shaders {
		d.AttachShader(p, s)
	}
	d.LinkProgram(p)
	require.Equal(t, int32(1), d.GetProgrami(p, gl.LINK_STATUS), d.GetProgramInfoLog(p))
	return p
}

func TestCompileStatusAndLog(t *testing.T) {
	d := New()
	s := d.CreateShader(gl.FRAGMENT_SHADER)
	d.ShaderSource(s, "void main() { invalid_token; }")
	d.CompileShader(s)

	assert.Equal(t, int32(0), d.GetShaderi(s, gl.COMPILE_STATUS))
	log := d.GetShaderInfoLog(s)
	assert.NotEmpty(t, log)
	assert.Equal(t, int32(len(log)+1), d.GetShaderi(s, gl.INFO_LOG_LENGTH))
}

func TestLinkAssignsAttributeLocations(t *testing.T) {
	d := New()
	vs := compile(t, d, gl.VERTEX_SHADER, `
layout(location = 1) in vec3 position;
in mat4 instance;
in vec4 colour;
in vec3 normal;
out vec4 v_colour;
void main() { v_colour = colour; gl_Position = instance * vec4(position + normal, 1.0); }`)
	fs := compile(t, d, gl.FRAGMENT_SHADER, passFragment)

	p := d.CreateProgram()
	d.AttachShader(p, vs)
	d.AttachShader(p, fs)
	d.BindAttribLocation(p, 7, "colour")
	d.BindAttribLocation(p, 2, "position")
	d.LinkProgram(p)
	require.Equal(t, int32(1), d.GetProgrami(p, gl.LINK_STATUS), d.GetProgramInfoLog(p))

	// layout wins over BindAttribLocation
	assert.Equal(t, int32(1), d.GetAttribLocation(p, "position"))
	assert.Equal(t, int32(7), d.GetAttribLocation(p, "colour"))
	// the matrix needs four free slots in a row
	assert.Equal(t, int32(2), d.GetAttribLocation(p, "instance"))
	assert.Equal(t, int32(0), d.GetAttribLocation(p, "normal"))
	assert.Equal(t, int32(-1), d.GetAttribLocation(p, "missing"))
}

func TestLinkFailures(t *testing.T) {
	d := New()
	fs := compile(t, d, gl.FRAGMENT_SHADER, passFragment)
	noMain := compile(t, d, gl.VERTEX_SHADER, "in vec3 position;")
	mismatch := compile(t, d, gl.VERTEX_SHADER, "out vec3 v_colour;\nvoid main() { v_colour = vec3(1.0); }")
	silent := compile(t, d, gl.VERTEX_SHADER, "void main() { gl_Position = vec4(0.0); }")

	cases := []struct {
		name    string
		shaders []uint32
		log     string
	}{
		{"missing stage", []uint32{fs}, "program lacks a vertex shader"},
		{"missing main", []uint32{noMain, fs}, "vertex shader lacks `main'"},
		{"type mismatch", []uint32{mismatch, fs}, "`v_colour' declared as type `vec4' but outputted from previous stage as type `vec3'"},
		{"unwritten input", []uint32{silent, fs}, "fragment shader input `v_colour' has no matching output"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := d.CreateProgram()
			for _, s := range tc.shaders {
				d.AttachShader(p, s)
			}
			d.LinkProgram(p)
			assert.Equal(t, int32(0), d.GetProgrami(p, gl.LINK_STATUS))
			assert.Contains(t, d.GetProgramInfoLog(p), tc.log)
			for _, s := range tc.shaders {
				d.DetachShader(p, s)
			}
			d.DeleteProgram(p)
		})
	}
	assert.Equal(t, gl.NO_ERROR, d.GetError())
}

func TestUniforms(t *testing.T) {
	d := New()
	vs := compile(t, d, gl.VERTEX_SHADER, passVertex)
	fs := compile(t, d, gl.FRAGMENT_SHADER, `
in vec4 v_colour;
out vec4 frag;
uniform float alpha;
uniform int mode;
uniform mat4 transform;
uniform vec3 weights[3];
void main() { frag = v_colour * alpha * transform[0] + vec4(weights[1], float(mode)); }`)
	p := linkProgram(t, d, vs, fs)

	alpha := d.GetUniformLocation(p, "alpha")
	require.NotEqual(t, int32(-1), alpha)
	assert.Equal(t, int32(-1), d.GetUniformLocation(p, "missing"))
	assert.Equal(t, d.GetUniformLocation(p, "weights[0]"), d.GetUniformLocation(p, "weights"))
	assert.NotEqual(t, int32(-1), d.GetUniformLocation(p, "weights[2]"))

	// no current program
	d.Uniform1f(alpha, 0.5)
	assert.Equal(t, gl.INVALID_OPERATION, d.GetError())

	d.UseProgram(p)
	d.Uniform1f(alpha, 0.5)
	d.Uniform1f(-1, 3)
	assert.Equal(t, gl.NO_ERROR, d.GetError())

	out := make([]float32, 1)
	d.GetUniformfv(p, alpha, out)
	assert.Equal(t, float32(0.5), out[0])

	// wrong shape for the uniform
	d.Uniform1i(alpha, 1)
	assert.Equal(t, gl.INVALID_OPERATION, d.GetError())

	mode := d.GetUniformLocation(p, "mode")
	d.Uniform1i(mode, -4)
	ints := make([]int32, 1)
	d.GetUniformiv(p, mode, ints)
	assert.Equal(t, int32(-4), ints[0])

	m := make([]float32, 16)
	for i := range m {
		m[i] = float32(i)
	}
	transform := d.GetUniformLocation(p, "transform")
	d.UniformMatrix4fv(transform, true, m)
	got := make([]float32, 16)
	d.GetUniformfv(p, transform, got)
	assert.Equal(t, float32(4), got[1])
	assert.Equal(t, float32(1), got[4])
}

func TestUniformBlocks(t *testing.T) {
	d := New()
	vs := compile(t, d, gl.VERTEX_SHADER, `
layout(std140) uniform view { mat4 facing; mat4 projection; };
in vec3 position;
void main() { gl_Position = projection * facing * vec4(position, 1.0); }`)
	fs := compile(t, d, gl.FRAGMENT_SHADER, "out vec4 frag;\nvoid main() { frag = vec4(1.0); }")
	p := linkProgram(t, d, vs, fs)

	idx := d.GetUniformBlockIndex(p, "view")
	require.Equal(t, uint32(0), idx)
	assert.Equal(t, gl.INVALID_INDEX, d.GetUniformBlockIndex(p, "missing"))

	d.UniformBlockBinding(p, idx, 5)
	assert.Equal(t, int32(5), d.GetActiveUniformBlocki(p, idx, gl.UNIFORM_BLOCK_BINDING))

	d.UniformBlockBinding(p, idx, MaxUniformBufferPoints)
	assert.Equal(t, gl.INVALID_VALUE, d.GetError())
}

func TestDeletionIsDeferredWhileInUse(t *testing.T) {
	d := New()
	vs := compile(t, d, gl.VERTEX_SHADER, passVertex)
	fs := compile(t, d, gl.FRAGMENT_SHADER, passFragment)
	p := d.CreateProgram()
	d.AttachShader(p, vs)
	d.AttachShader(p, fs)
	d.LinkProgram(p)

	// attached shaders survive deletion until detached
	d.DeleteShader(vs)
	assert.True(t, d.ShaderExists(vs))
	d.DetachShader(p, vs)
	assert.False(t, d.ShaderExists(vs))

	d.UseProgram(p)
	d.DeleteProgram(p)
	assert.True(t, d.ProgramExists(p))
	assert.Equal(t, p, d.CurrentProgram())

	d.UseProgram(0)
	assert.False(t, d.ProgramExists(p))
	// fs was still attached; deleting the program detached it
	assert.True(t, d.ShaderExists(fs))
	assert.Equal(t, gl.NO_ERROR, d.GetError())
}

func TestUseProgramRequiresLink(t *testing.T) {
	d := New()
	p := d.CreateProgram()
	d.UseProgram(p)
	assert.Equal(t, gl.INVALID_OPERATION, d.GetError())
	assert.Equal(t, uint32(0), d.CurrentProgram())

	s := d.CreateShader(gl.VERTEX_SHADER)
	d.UseProgram(s)
	assert.Equal(t, gl.INVALID_OPERATION, d.GetError())
	d.UseProgram(999)
	assert.Equal(t, gl.INVALID_VALUE, d.GetError())
}

func TestFrameState(t *testing.T) {
	d := New()
	d.Viewport(0, 0, 640, 480)
	d.ClearColor(0.1, 0.2, 0.3, 1)
	d.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	d.Enable(gl.DEPTH_TEST)

	assert.Equal(t, [4]int32{0, 0, 640, 480}, d.ViewportRect())
	assert.Equal(t, 1, d.Clears())
	assert.True(t, d.Capability(gl.DEPTH_TEST))
	assert.Len(t, d.CallsNamed("Clear", "Enable"), 2)
	assert.Equal(t, "Viewport(0, 0, 640, 480)", d.Calls()[0].String())
}

package headless

import (
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

// The methods below expose driver state for tests and diagnostics. None of
// them records a call or raises an error.

// Calls returns every recorded call since the last ResetTrace.
func (d *Driver) Calls() []Call {
	return append([]Call(nil), d.calls...)
}

// CallsNamed returns the recorded calls to the named entry points, in order.
func (d *Driver) CallsNamed(names ...string) []Call {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Call
	for _, c := range d.calls {
		if want[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many times the named entry point was called.
func (d *Driver) Count(name string) int {
	return len(d.CallsNamed(name))
}

func (d *Driver) ResetTrace() {
	d.calls = nil
}

func (d *Driver) Draws() []DrawCall {
	return append([]DrawCall(nil), d.draws...)
}

func (d *Driver) ResetDraws() {
	d.draws = nil
}

// BufferContents returns a copy of the data store of buffer.
func (d *Driver) BufferContents(buffer uint32) ([]byte, bool) {
	b, ok := d.buffers[buffer]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b.data...), true
}

// BufferUsage returns the usage hint of the last BufferData on buffer.
func (d *Driver) BufferUsage(buffer uint32) gl.Enum {
	if b, ok := d.buffers[buffer]; ok {
		return b.usage
	}
	return 0
}

// BufferMapped reports whether buffer is currently mapped.
func (d *Driver) BufferMapped(buffer uint32) bool {
	b, ok := d.buffers[buffer]
	return ok && b.mapped
}

// TextureImage returns the level 0 image of texture.
func (d *Driver) TextureImage(texture uint32) (width, height int32, pixels []byte, ok bool) {
	t, ok := d.textures[texture]
	if !ok {
		return 0, 0, nil, false
	}
	return t.width, t.height, append([]byte(nil), t.pixels...), true
}

// TextureParameter returns a parameter set with TexParameteri.
func (d *Driver) TextureParameter(texture uint32, pname gl.Enum) (int32, bool) {
	t, ok := d.textures[texture]
	if !ok {
		return 0, false
	}
	v, ok := t.params[pname]
	return v, ok
}

// VertexArrayState returns the element buffer and attribute channels of
// array.
func (d *Driver) VertexArrayState(array uint32) (element uint32, attributes [MaxVertexAttributes]AttributeState, ok bool) {
	vao, ok := d.arrays[array]
	if !ok {
		return 0, attributes, false
	}
	return vao.element, vao.attributes, true
}

// Attribute returns one attribute channel of array.
func (d *Driver) Attribute(array uint32, channel uint32) (AttributeState, bool) {
	vao, ok := d.arrays[array]
	if !ok || channel >= MaxVertexAttributes {
		return AttributeState{}, false
	}
	return vao.attributes[channel], true
}

func (d *Driver) BoundBuffer(target gl.Enum) uint32 {
	if target == gl.ELEMENT_ARRAY_BUFFER {
		if vao, ok := d.arrays[d.array]; ok {
			return vao.element
		}
		return 0
	}
	return d.bound[target]
}

func (d *Driver) BoundPoint(point uint32) uint32 {
	if point >= MaxUniformBufferPoints {
		return 0
	}
	return d.points[point]
}

func (d *Driver) ActiveUnit() uint32 { return d.activeUnit }

func (d *Driver) BoundTexture(unit uint32) uint32 {
	if unit >= MaxTextureUnits {
		return 0
	}
	return d.units[unit]
}

func (d *Driver) CurrentProgram() uint32     { return d.program }
func (d *Driver) CurrentVertexArray() uint32 { return d.array }

// LiveObjects counts the objects of every kind that exist, default objects
// excluded.
type LiveObjects struct {
	Buffers, Textures, Shaders, Programs, VertexArrays int
}

func (d *Driver) Live() LiveObjects {
	return LiveObjects{
		Buffers:      len(d.buffers),
		Textures:     len(d.textures) - 1,
		Shaders:      len(d.shaders),
		Programs:     len(d.programs),
		VertexArrays: len(d.arrays) - 1,
	}
}

// ProgramExists reports whether program names a program object, including
// one flagged for deletion.
func (d *Driver) ProgramExists(program uint32) bool {
	_, ok := d.programs[program]
	return ok
}

func (d *Driver) ShaderExists(shader uint32) bool {
	_, ok := d.shaders[shader]
	return ok
}

func (d *Driver) ViewportRect() [4]int32 { return d.viewport }
func (d *Driver) ClearColorValue() [4]float32 { return d.clearColor }
func (d *Driver) Clears() int               { return d.clears }
func (d *Driver) Capability(c gl.Enum) bool { return d.capabilities[c] }

// PendingErrors reports how many error flags are raised.
func (d *Driver) PendingErrors() int { return d.errors.Len() }

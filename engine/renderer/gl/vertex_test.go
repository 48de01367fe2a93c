package gl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

func TestTypeTags(t *testing.T) {
	assert.Equal(t, gl.Float, gl.TypeOf[float32]())
	assert.Equal(t, gl.UShort, gl.TypeOf[uint16]())
	assert.Equal(t, gl.Int64, gl.TypeOf[int64]())
	assert.Equal(t, 2, gl.SizeOf[int16]())
	assert.Equal(t, 8, gl.SizeOf[float64]())
	assert.Equal(t, 4, gl.UInt.Size())
	assert.Equal(t, 0, gl.TypeCode(0).Size())
}

func TestAttributeOf(t *testing.T) {
	a := gl.AttributeOf[float32, math.Vec4](2, nil).Interleaved(40, 24).Normalize()
	assert.Equal(t, uint32(2), a.Channel)
	assert.Equal(t, int32(4), a.Count)
	assert.Equal(t, gl.Float, a.Type)
	assert.Equal(t, int32(40), a.Stride)
	assert.Equal(t, 24, a.Offset)
	assert.True(t, a.Normalized)

	b := gl.AttributeOf[uint8, [3]uint8](0, nil)
	assert.Equal(t, int32(3), b.Count)
	assert.Equal(t, gl.UByte, b.Type)
}

func TestBindOrder(t *testing.T) {
	ctx, d := newContext(t)
	vb, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)
	require.NoError(t, gl.Load(vb, gl.StaticDraw, []math.Vec3{{}, {}, {}}))
	v, err := gl.NewVertexArray(ctx)
	require.NoError(t, err)

	d.ResetTrace()
	require.NoError(t, v.Bind(gl.AttributeOf[float32, math.Vec3](0, vb)))
	assert.Equal(t, []string{
		"BindVertexArray",
		"BindBuffer",
		"VertexAttribPointer",
		"EnableVertexAttribArray",
		"BindBuffer",
		"BindVertexArray",
	}, callNames(d))

	calls := d.Calls()
	assert.Equal(t, v.ID(), calls[0].Args[0])
	assert.Equal(t, vb.ID(), calls[1].Args[1])
	assert.Equal(t, uint32(0), calls[5].Args[0])
	assert.Zero(t, ctx.CurrentVertexArray())
	assert.Zero(t, ctx.Bound(gl.ARRAY_BUFFER))

	state, ok := d.Attribute(v.ID(), 0)
	require.True(t, ok)
	assert.True(t, state.Enabled)
	assert.Equal(t, vb.ID(), state.Buffer)
	assert.Equal(t, int32(3), state.Size)
	require.Len(t, v.Attributes(), 1)
}

func TestBindRejectsBadAttributes(t *testing.T) {
	ctx, _ := newContext(t)
	vb, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)
	v, err := gl.NewVertexArray(ctx)
	require.NoError(t, err)

	assert.Error(t, v.Bind(gl.AttributeOf[float32, [5]float32](0, vb)))
	assert.ErrorIs(t, v.Bind(gl.AttributeOf[float32, float32](0, nil)), gl.ErrInvalidResource)
	assert.Zero(t, ctx.CurrentVertexArray())
	assert.Empty(t, v.Attributes())
}

func TestIndices(t *testing.T) {
	ctx, d := newContext(t)
	v, err := gl.NewVertexArray(ctx)
	require.NoError(t, err)
	ib, err := gl.NewIndexBuffer(ctx)
	require.NoError(t, err)

	require.NoError(t, gl.Load(ib, gl.StaticDraw, []float32{0, 1, 2}))
	assert.ErrorIs(t, v.Indices(ib), gl.ErrIndexType)

	require.NoError(t, gl.Load(ib, gl.StaticDraw, []uint8{0, 1, 2}))
	require.NoError(t, v.Indices(ib))
	assert.Equal(t, gl.UByte, v.IndexType())
	assert.Same(t, ib, v.IndexBuffer())

	element, _, ok := d.VertexArrayState(v.ID())
	require.True(t, ok)
	assert.Equal(t, ib.ID(), element)

	ib.Destroy()
	assert.ErrorIs(t, v.Indices(ib), gl.ErrInvalidResource)
}

func TestDisableAttributeAndDestroy(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	mesh, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes())
	require.NoError(t, err)
	require.Len(t, mesh.Layout.Attributes(), 3)

	require.NoError(t, mesh.Layout.DisableAttribute(1))
	state, _ := d.Attribute(mesh.Layout.ID(), 1)
	assert.False(t, state.Enabled)
	require.Len(t, mesh.Layout.Attributes(), 2)

	d.ResetTrace()
	mesh.Layout.Destroy()
	assert.Equal(t, 2, d.Count("DisableVertexAttribArray"))
	assert.Equal(t, 1, d.Count("DeleteVertexArray"))
	assert.False(t, mesh.Layout.Valid())
	assert.ErrorIs(t, mesh.Layout.Activate(), gl.ErrInvalidResource)
}

func TestVertexArrayMove(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	mesh, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes())
	require.NoError(t, err)
	id := mesh.Layout.ID()

	moved := mesh.Layout.Move()
	assert.False(t, mesh.Layout.Valid())
	assert.Empty(t, mesh.Layout.Attributes())
	assert.Nil(t, mesh.Layout.IndexBuffer())
	assert.Equal(t, id, moved.ID())
	assert.Len(t, moved.Attributes(), 3)
	assert.Same(t, mesh.Indices, moved.IndexBuffer())

	moved.Destroy()
	assert.Zero(t, d.Live().VertexArrays)
}

package gl_test

import (
	"encoding/binary"
	"errors"
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

func TestNewContextNeedsDriver(t *testing.T) {
	_, err := gl.NewContext(nil)
	assert.ErrorIs(t, err, gl.ErrNoContext)
}

func TestCheckReturnsDriverError(t *testing.T) {
	ctx, _ := newContext(t)
	ctx.Driver().BindBuffer(gl.ARRAY_BUFFER, 99)

	err := ctx.Check("bind")
	var de *gl.DriverError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, gl.INVALID_OPERATION, de.Code)
	assert.Contains(t, err.Error(), "GL_INVALID_OPERATION")
	assert.NoError(t, ctx.Check("bind"))
}

func TestMoveLeavesSourceInvalid(t *testing.T) {
	ctx, d := newContext(t)
	b, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)
	id := b.ID()
	require.NotZero(t, id)

	moved := b.Move()
	assert.False(t, b.Valid())
	assert.Zero(t, b.ID())
	assert.Equal(t, id, moved.ID())
	assert.ErrorIs(t, b.Activate(), gl.ErrInvalidResource)
	assert.ErrorIs(t, gl.Load(b, gl.StaticDraw, []float32{1}), gl.ErrInvalidResource)

	b.Destroy()
	moved.Destroy()
	moved.Destroy()

	deletes := d.CallsNamed("DeleteBuffer")
	require.Len(t, deletes, 1)
	assert.Equal(t, id, deletes[0].Args[0])
	assert.Zero(t, d.Live().Buffers)
}

func TestMoveFromDestroysPrevious(t *testing.T) {
	ctx, d := newContext(t)
	a, err := gl.NewIndexBuffer(ctx)
	require.NoError(t, err)
	b, err := gl.NewIndexBuffer(ctx)
	require.NoError(t, err)
	old, taken := a.ID(), b.ID()

	a.MoveFrom(b)
	assert.Equal(t, taken, a.ID())
	assert.False(t, b.Valid())
	require.Len(t, d.CallsNamed("DeleteBuffer"), 1)
	assert.Equal(t, old, d.CallsNamed("DeleteBuffer")[0].Args[0])

	a.MoveFrom(a)
	assert.Equal(t, taken, a.ID())
}

func TestReleaseKeepsDriverObject(t *testing.T) {
	ctx, d := newContext(t)
	b, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)

	id := b.Release()
	b.Destroy()
	assert.Zero(t, d.Count("DeleteBuffer"))
	assert.Equal(t, 1, d.Live().Buffers)
	ctx.Driver().DeleteBuffer(id)
}

func TestLoadThenAccess(t *testing.T) {
	ctx, d := newContext(t)
	vb, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)

	points := []math.Vec3{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}
	require.NoError(t, gl.Load(vb, gl.StaticDraw, points))
	assert.Equal(t, 24, vb.Size())
	assert.Equal(t, 2, vb.Count())
	assert.Equal(t, gl.TypeCode(0), vb.ElementType())
	assert.Equal(t, gl.STATIC_DRAW, d.BufferUsage(vb.ID()))

	m, err := gl.Access[math.Vec3](vb)
	require.NoError(t, err)
	assert.Equal(t, points, m.Slice())
	assert.Equal(t, points[0], *m.Ptr())
	m.Slice()[1].Z = 60
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, d.Count("UnmapBuffer"))

	raw, _ := d.BufferContents(vb.ID())
	assert.Equal(t, float32(60), stdmath.Float32frombits(binary.LittleEndian.Uint32(raw[20:])))
}

func TestLoadScalars(t *testing.T) {
	ctx, _ := newContext(t)
	ib, err := gl.NewIndexBuffer(ctx)
	require.NoError(t, err)

	require.NoError(t, gl.Load(ib, gl.StaticDraw, []uint32{0, 1, 2}))
	assert.Equal(t, gl.UInt, ib.ElementType())
	assert.Equal(t, 12, ib.Size())

	require.NoError(t, gl.ReserveFor[uint16](ib, gl.DynamicDraw, 6))
	assert.Equal(t, gl.UShort, ib.ElementType())
	assert.Equal(t, 12, ib.Size())
	assert.Equal(t, 6, ib.Count())
}

func TestAccessErrors(t *testing.T) {
	ctx, _ := newContext(t)
	vb, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)

	_, err = gl.Access[float32](vb)
	assert.ErrorIs(t, err, gl.ErrShortBuffer)

	require.NoError(t, gl.Load(vb, gl.DynamicDraw, []uint8{1, 2}))
	_, err = gl.Access[math.Mat4](vb)
	assert.ErrorIs(t, err, gl.ErrShortBuffer)
	_, err = gl.Access[struct{}](vb)
	assert.ErrorIs(t, err, gl.ErrShortBuffer)
	_, err = gl.AccessReadOnly[struct{}](vb)
	assert.ErrorIs(t, err, gl.ErrShortBuffer)

	m, err := gl.Access[uint16](vb)
	require.NoError(t, err)
	_, err = gl.Access[uint16](vb)
	assert.ErrorIs(t, err, gl.ErrAlreadyMapped)
	require.NoError(t, m.Close())
}

func TestWithAccessUnmapsOnPanic(t *testing.T) {
	ctx, d := newContext(t)
	vb, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)
	require.NoError(t, gl.Load(vb, gl.DynamicDraw, []float32{1, 2}))

	assert.Panics(t, func() {
		_ = gl.WithAccess(vb, func(v *float32) error {
			*v = 10
			panic("boom")
		})
	})
	assert.False(t, d.BufferMapped(vb.ID()))

	err = gl.WithAccess(vb, func(v *float32) error {
		assert.Equal(t, float32(10), *v)
		return errors.New("stop")
	})
	assert.EqualError(t, err, "stop")
	assert.False(t, d.BufferMapped(vb.ID()))
}

func TestReadOnlyReturnsCopies(t *testing.T) {
	ctx, _ := newContext(t)
	vb, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)
	require.NoError(t, gl.Load(vb, gl.StaticDraw, []int32{7, 8, 9}))

	ro, err := gl.AccessReadOnly[int32](vb)
	require.NoError(t, err)
	values := ro.Values()
	values[0] = 100
	assert.Equal(t, int32(7), ro.Value())
	require.NoError(t, ro.Close())

	ro, err = gl.AccessReadOnly[int32](vb)
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 8, 9}, ro.Values())
	require.NoError(t, ro.Close())
}

func TestLoadWhileMappedDropsMapping(t *testing.T) {
	ctx, d := newContext(t)
	vb, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)
	require.NoError(t, gl.Load(vb, gl.DynamicDraw, []float32{1}))

	m, err := gl.Access[float32](vb)
	require.NoError(t, err)
	require.NoError(t, gl.Load(vb, gl.DynamicDraw, []float32{2, 3}))
	assert.NoError(t, m.Close())
	assert.Zero(t, d.Count("UnmapBuffer"))

	m, err = gl.Access[float32](vb)
	require.NoError(t, err)
	vb.Destroy()
	assert.NoError(t, m.Close())
}

func TestUpdate(t *testing.T) {
	ctx, d := newContext(t)
	vb, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)
	require.NoError(t, vb.Reserve(gl.DynamicDraw, 8))

	require.NoError(t, gl.Update(vb, 4, []uint8{1, 2, 3, 4}))
	raw, _ := d.BufferContents(vb.ID())
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2, 3, 4}, raw)

	assert.Error(t, gl.Update(vb, 4, []float32{1, 2}))
	assert.Error(t, gl.Update(vb, -1, []uint8{1}))
}

func TestBindingMirror(t *testing.T) {
	ctx, d := newContext(t)
	vb, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)
	ub, err := gl.NewUniformBuffer(ctx)
	require.NoError(t, err)

	require.NoError(t, vb.Activate())
	assert.Equal(t, vb.ID(), ctx.Bound(gl.ARRAY_BUFFER))
	assert.Equal(t, d.BoundBuffer(gl.ARRAY_BUFFER), ctx.Bound(gl.ARRAY_BUFFER))

	point, err := ub.Activate(4)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), point)
	assert.Equal(t, ub.ID(), ctx.BoundPoint(4))
	assert.Equal(t, ub.ID(), d.BoundPoint(4))

	ub.Deactivate(4)
	assert.Zero(t, d.BoundPoint(4))

	vb.Destroy()
	assert.Zero(t, ctx.Bound(gl.ARRAY_BUFFER))
	assert.Zero(t, d.BoundBuffer(gl.ARRAY_BUFFER))
}

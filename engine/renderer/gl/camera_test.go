package gl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

func newCamera(t *testing.T, ctx *gl.Context, point uint32) *gl.Camera {
	t.Helper()
	cam, err := gl.NewCamera(ctx, point, gl.CameraView{
		Facing:     math.NewMat4Identity(),
		Projection: math.NewMat4Perspective(math.DegToRad(45), 4.0/3.0, 0.1, 100),
	})
	require.NoError(t, err)
	return cam
}

func TestDrawOctahedron(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	require.Len(t, vertices, 6)
	require.Len(t, indices, 24)

	mesh, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes())
	require.NoError(t, err)
	assert.Equal(t, 24, mesh.IndexCount())
	p := newFlatProgram(t, ctx)
	cam := newCamera(t, ctx, 1)

	d.ResetDraws()
	err = cam.Sequence().Program(p).Layout(mesh.Layout).Draw(0, 24).Err()
	require.NoError(t, err)

	draws := d.Draws()
	require.Len(t, draws, 1)
	draw := draws[0]
	assert.Equal(t, gl.TRIANGLES, draw.Mode)
	assert.Equal(t, 0, draw.Start)
	assert.Equal(t, int32(24), draw.Count)
	assert.Equal(t, gl.UNSIGNED_SHORT, draw.Type)
	assert.Equal(t, mesh.Indices.ID(), draw.ElementBuffer)
	assert.Equal(t, mesh.Layout.ID(), draw.VertexArray)
	assert.Equal(t, p.ID(), draw.Program)
	for i, idx := range indices {
		assert.Equal(t, uint32(idx), draw.Indices[i])
	}

	point, err := p.Block(gl.CameraBlock).Get()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), point)
	assert.Equal(t, cam.Buffer().ID(), d.BoundPoint(1))
	assert.Same(t, mesh.Layout, cam.Layout())
}

func TestDrawRange(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	mesh, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes())
	require.NoError(t, err)
	cam := newCamera(t, ctx, 0)

	require.NoError(t, cam.UseLayout(mesh.Layout))
	require.NoError(t, cam.DrawMode(gl.Lines, 12, 6))
	draw := d.Draws()[0]
	assert.Equal(t, gl.LINES, draw.Mode)
	assert.Equal(t, 12, draw.Start)
	assert.Equal(t, 24, draw.Offset)
	assert.Equal(t, []uint32{4, 3, 0, 1, 3, 4}, draw.Indices)
}

func TestDrawNeedsLayout(t *testing.T) {
	ctx, _ := newContext(t)
	cam := newCamera(t, ctx, 0)
	assert.ErrorIs(t, cam.Draw(0, 3), gl.ErrNoLayout)

	v, err := gl.NewVertexArray(ctx)
	require.NoError(t, err)
	require.NoError(t, cam.UseLayout(v))
	assert.ErrorIs(t, cam.Draw(0, 3), gl.ErrNoIndexBuffer)
}

func TestSequenceStopsAtFirstError(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	mesh, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes())
	require.NoError(t, err)
	unlinked, err := gl.CreateProgram(ctx)
	require.NoError(t, err)
	cam := newCamera(t, ctx, 0)

	err = cam.Sequence().Program(unlinked).Layout(mesh.Layout).Draw(0, 24).Err()
	assert.ErrorIs(t, err, gl.ErrNotLinked)
	assert.Empty(t, d.Draws())
	assert.Nil(t, cam.Layout())
}

func TestCameraTranslateUpdatesBuffer(t *testing.T) {
	ctx, _ := newContext(t)
	cam := newCamera(t, ctx, 0)
	assert.Equal(t, uint32(0), cam.BindingPoint())
	assert.Equal(t, 128, cam.Buffer().Size())

	require.NoError(t, cam.Sequence().Translate(math.NewVec3(0, 0, -5)).Err())
	require.NoError(t, cam.Translate(math.NewVec3(1, 0, 0)))
	facing := cam.View().Facing
	assert.Equal(t, float32(1), facing.Data[12])
	assert.Equal(t, float32(-5), facing.Data[14])

	ro, err := gl.AccessReadOnly[gl.CameraView](cam.Buffer())
	require.NoError(t, err)
	assert.Equal(t, cam.View(), ro.Value())
	require.NoError(t, ro.Close())

	proj := math.NewMat4Orthographic(-1, 1, -1, 1, 0.1, 10)
	require.NoError(t, cam.SetProjection(proj))
	require.NoError(t, cam.SetFacing(math.NewMat4Identity()))
	ro, err = gl.AccessReadOnly[gl.CameraView](cam.Buffer())
	require.NoError(t, err)
	assert.Equal(t, gl.CameraView{Facing: math.NewMat4Identity(), Projection: proj}, ro.Value())
	require.NoError(t, ro.Close())

	cam.Destroy()
	assert.False(t, cam.Buffer().Valid())
}

func TestCameraTranslateAppliesAfterFacing(t *testing.T) {
	ctx, _ := newContext(t)
	cam := newCamera(t, ctx, 0)
	rotation := math.NewMat4Rotation(math.NewVec3Up(), math.DegToRad(30))
	require.NoError(t, cam.SetFacing(rotation))

	d := math.NewVec3(1, 0, -5)
	require.NoError(t, cam.Translate(d))
	facing := cam.View().Facing

	translation := math.NewMat4Translation(d)
	assert.True(t, facing.Compare(rotation.Mul(translation), 1e-5))
	assert.False(t, facing.Compare(translation.Mul(rotation), 1e-3))
	assert.True(t, facing.Position().Compare(d, 1e-5))
}

func TestIndexTransfersKeepDrawnLayout(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	a, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes())
	require.NoError(t, err)
	p := newFlatProgram(t, ctx)
	cam := newCamera(t, ctx, 1)

	require.NoError(t, cam.Sequence().Program(p).Layout(a.Layout).Draw(0, 24).Err())
	assert.Equal(t, a.Layout.ID(), ctx.CurrentVertexArray())

	b, err := gl.NewMesh(ctx, vertices, indices[:12], vertexAttributes())
	require.NoError(t, err)
	element, _, ok := d.VertexArrayState(a.Layout.ID())
	require.True(t, ok)
	assert.Equal(t, a.Indices.ID(), element)

	require.NoError(t, gl.Load(b.Indices, gl.StaticDraw, indices[:6]))
	require.NoError(t, gl.Update(b.Indices, 0, indices[:3]))
	m, err := gl.Access[uint16](b.Indices)
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.Zero(t, ctx.CurrentVertexArray())
	element, _, _ = d.VertexArrayState(a.Layout.ID())
	assert.Equal(t, a.Indices.ID(), element)
	element, _, _ = d.VertexArrayState(b.Layout.ID())
	assert.Equal(t, b.Indices.ID(), element)

	d.ResetDraws()
	require.NoError(t, cam.Draw(0, 24))
	require.NoError(t, cam.Sequence().Program(p).Layout(a.Layout).Draw(0, 24).Err())
	draws := d.Draws()
	require.Len(t, draws, 2)
	for _, draw := range draws {
		assert.Equal(t, a.Layout.ID(), draw.VertexArray)
		assert.Equal(t, a.Indices.ID(), draw.ElementBuffer)
		assert.Len(t, draw.Indices, 24)
	}
}

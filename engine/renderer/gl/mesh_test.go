package gl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

func TestMeshSurfaces(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	mesh, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes(),
		gl.Surface{Mode: gl.Triangles, Start: 0, Count: 12},
		gl.Surface{Mode: gl.Points, Start: 12, Count: 12},
	)
	require.NoError(t, err)

	require.NoError(t, mesh.Draw())
	draws := d.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, gl.TRIANGLES, draws[0].Mode)
	assert.Equal(t, gl.POINTS, draws[1].Mode)
	assert.Equal(t, 12, draws[1].Start)
}

func TestMeshDefaultSurface(t *testing.T) {
	ctx, _ := newContext(t)
	vertices, indices := octahedron()
	mesh, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes())
	require.NoError(t, err)
	assert.Equal(t, []gl.Surface{{Mode: gl.Triangles, Start: 0, Count: 24}}, mesh.Surfaces)
	assert.Equal(t, "triangles", gl.Triangles.String())
}

func TestMeshRejectsBadSurface(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	_, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes(), gl.Surface{Mode: gl.Triangles, Start: 20, Count: 6})
	assert.Error(t, err)
	assert.Zero(t, d.Live().Buffers)
	assert.Zero(t, d.Live().VertexArrays)
}

func TestMeshSeparateAttributeBuffer(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	colours, err := gl.NewVertexBuffer(ctx)
	require.NoError(t, err)
	require.NoError(t, gl.Load(colours, gl.StaticDraw, make([]math.Vec4, len(vertices))))

	attrs := append(vertexAttributes()[:2], gl.AttributeOf[float32, math.Vec4](2, colours))
	mesh, err := gl.NewMesh(ctx, vertices, indices, attrs)
	require.NoError(t, err)

	state, _ := d.Attribute(mesh.Layout.ID(), 2)
	assert.Equal(t, colours.ID(), state.Buffer)
	state, _ = d.Attribute(mesh.Layout.ID(), 0)
	assert.Equal(t, mesh.Vertices.ID(), state.Buffer)
}

func TestObjectRender(t *testing.T) {
	ctx, d := newContext(t)
	vertices, indices := octahedron()
	mesh, err := gl.NewMesh(ctx, vertices, indices, vertexAttributes())
	require.NoError(t, err)
	p := newFlatProgram(t, ctx)
	cam := newCamera(t, ctx, 0)

	obj := gl.NewObject(mesh, p)
	obj.Color = math.NewVec4(0, 0.5, 1, 1)
	obj.Translate(math.NewVec3(0, 0, -3))
	require.NoError(t, obj.Render(cam))

	require.Len(t, d.Draws(), 1)
	color, err := gl.Uniform[math.Vec4](p, "color").Get()
	require.NoError(t, err)
	assert.Equal(t, obj.Color, color)
	transform, err := gl.Uniform[math.Mat4](p, "transform").Get()
	require.NoError(t, err)
	assert.Equal(t, obj.Transform(), transform)
	shininess, err := gl.Uniform[float32](p, "shininess").Get()
	require.NoError(t, err)
	assert.Equal(t, float32(32), shininess)

	obj.Highlighted = true
	require.NoError(t, obj.Render(cam))
	color, err = gl.Uniform[math.Vec4](p, "color").Get()
	require.NoError(t, err)
	assert.Equal(t, obj.Highlight, color)
}

func TestObjectTransformOrder(t *testing.T) {
	const tolerance = 1e-5
	p := math.NewVec3(1, 1, 1)

	world := gl.NewObject(nil, nil)
	world.Scale(math.NewVec3(2, 2, 2))
	world.Translate(math.NewVec3(1, 0, 0))
	assert.True(t, p.Transform(world.Transform()).Compare(math.NewVec3(3, 2, 2), tolerance))

	local := gl.NewObject(nil, nil)
	local.Scale(math.NewVec3(2, 2, 2))
	local.PreTranslate(math.NewVec3(1, 0, 0))
	assert.True(t, p.Transform(local.Transform()).Compare(math.NewVec3(4, 2, 2), tolerance))

	spun := gl.NewObject(nil, nil)
	spun.Rotate(math.K_HALF_PI, math.NewVec3(0, 0, 1))
	spun.PreScale(math.NewVec3(1, 1, 1))
	spun.PreRotate(0, math.NewVec3(0, 1, 0))
	assert.True(t, math.NewVec3(1, 0, 0).Transform(spun.Transform()).Compare(math.NewVec3(0, 1, 0), tolerance))

	spun.SetTransform(math.NewMat4Identity())
	assert.Equal(t, math.NewMat4Identity(), spun.Transform())
}

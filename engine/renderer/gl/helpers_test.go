package gl_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
	"github.com/spaghettifunk/anima-gl/engine/renderer/headless"
)

const flatVertex = `#version 330 core
layout(std140) uniform view {
	mat4 facing;
	mat4 projection;
};
uniform mat4 transform;

layout(location = 0) in vec3 position;
layout(location = 1) in vec3 normal;
layout(location = 2) in vec4 colour;

out vec3 v_normal;
out vec4 v_colour;

void main() {
	v_normal = mat3(transform) * normal;
	v_colour = colour;
	gl_Position = projection * facing * transform * vec4(position, 1.0);
}
`

const flatFragment = `#version 330 core
in vec3 v_normal;
in vec4 v_colour;

uniform vec4 color;
uniform float shininess;
uniform vec3 specular_color;

out vec4 frag;

void main() {
	float light = max(dot(normalize(v_normal), vec3(0.0, 0.0, 1.0)), 0.0);
	vec3 spec = specular_color * pow(light, shininess);
	frag = vec4(v_colour.rgb * color.rgb * light + spec, color.a);
}
`

func newContext(t *testing.T) (*gl.Context, *headless.Driver) {
	t.Helper()
	d := headless.New()
	ctx, err := gl.NewContext(d)
	require.NoError(t, err)
	return ctx, d
}

func newShader(t *testing.T, ctx *gl.Context, stage gl.ShaderStage, src string) *gl.Shader {
	t.Helper()
	s, err := gl.NewShader(ctx, stage, src)
	require.NoError(t, err)
	return s
}

func newFlatProgram(t *testing.T, ctx *gl.Context) *gl.Program {
	t.Helper()
	vs := newShader(t, ctx, gl.VertexStage, flatVertex)
	fs := newShader(t, ctx, gl.FragmentStage, flatFragment)
	defer vs.Destroy()
	defer fs.Destroy()
	p, err := gl.NewProgram(ctx, vs, fs)
	require.NoError(t, err)
	return p
}

// octahedron returns the six vertices on the axes and its eight faces.
func octahedron() ([]math.Vertex3D, []uint16) {
	white := math.NewVec4One()
	axes := []math.Vec3{
		{X: 1}, {X: -1},
		{Y: 1}, {Y: -1},
		{Z: 1}, {Z: -1},
	}
	vertices := make([]math.Vertex3D, len(axes))
	for i, p := range axes {
		vertices[i] = math.Vertex3D{Position: p, Normal: p, Colour: white}
	}
	indices := []uint16{
		0, 2, 4, 4, 2, 1, 1, 2, 5, 5, 2, 0,
		4, 3, 0, 1, 3, 4, 5, 3, 1, 0, 3, 5,
	}
	return vertices, indices
}

func vertexAttributes() []gl.Attribute {
	const stride = 40
	return []gl.Attribute{
		gl.AttributeOf[float32, math.Vec3](0, nil).Interleaved(stride, 0),
		gl.AttributeOf[float32, math.Vec3](1, nil).Interleaved(stride, 12),
		gl.AttributeOf[float32, math.Vec4](2, nil).Interleaved(stride, 24),
	}
}

func callNames(d *headless.Driver) []string {
	var names []string
	for _, c := range d.Calls() {
		names = append(names, c.Name)
	}
	return names
}

package systems

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gl/engine/assets"
	"github.com/spaghettifunk/anima-gl/engine/renderer"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
	"github.com/spaghettifunk/anima-gl/engine/renderer/headless"
)

const colourVertex = `#version 330 core
layout(std140) uniform view {
	mat4 facing;
	mat4 projection;
};
in vec3 position;
in vec4 colour;
out vec4 v_colour;

void main() {
	v_colour = colour;
	gl_Position = projection * facing * vec4(position, 1.0);
}
`

const colourFragment = `#version 330 core
in vec4 v_colour;
out vec4 frag;

void main() {
	frag = v_colour;
}
`

// brokenFragment reads a name nothing declares.
const brokenFragment = `#version 330 core
out vec4 frag;

void main() {
	frag = v_missing;
}
`

var colourProgram = ProgramConfig{
	Name:       "colour",
	Vertex:     "colour.vert",
	Fragment:   "colour.frag",
	Attributes: map[string]uint32{"position": 4, "colour": 7},
	Blocks:     map[string]uint32{"view": 3},
}

type fixture struct {
	root     string
	renderer *renderer.Renderer
	driver   *headless.Driver
	ctx      *gl.Context
	assets   *assets.AssetManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	writeAsset(t, root, "shaders/colour.vert", colourVertex)
	writeAsset(t, root, "shaders/colour.frag", colourFragment)
	writeAsset(t, root, "shaders/broken.frag", brokenFragment)
	writeImage(t, root, "textures/checker.png", 4, 2)

	r, err := renderer.New(renderer.Config{Type: renderer.Headless, Width: 800, Height: 600})
	require.NoError(t, err)
	d := r.Context().Driver().(*headless.Driver)

	am, err := assets.NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(root))
	t.Cleanup(func() { am.Shutdown() })

	return &fixture{root: root, renderer: r, driver: d, ctx: r.Context(), assets: am}
}

func writeAsset(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeImage(t *testing.T, root, name string, w, h int) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

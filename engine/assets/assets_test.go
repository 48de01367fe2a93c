package assets

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gl/engine/resources"
)

const vertexSource = `#version 330 core
layout(location = 0) in vec3 position;
void main() { gl_Position = vec4(position, 1.0); }
`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func newManager(t *testing.T, root string) *AssetManager {
	t.Helper()
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(root))
	t.Cleanup(func() { am.Shutdown() })
	return am
}

func waitChange(t *testing.T, am *AssetManager, name string) resources.AssetChange {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c, ok := <-am.Changes():
			require.True(t, ok, "change channel closed")
			if c.Asset.Name == name {
				return c
			}
		case <-timeout:
			t.Fatalf("no change reported for %s", name)
		}
	}
}

func TestIndexesAssetRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shaders", "flat.vert"), []byte(vertexSource))
	writeFile(t, filepath.Join(root, "shaders", "README.md"), []byte("notes"))
	writePNG(t, filepath.Join(root, "textures", "red.png"), 2, 2)

	am := newManager(t, root)

	assert.Equal(t, 2, am.Len())
	info, ok := am.Lookup("shaders/flat.vert")
	require.True(t, ok)
	assert.Equal(t, resources.ResourceTypeShader, info.Type)
	_, ok = am.Lookup("shaders/README.md")
	assert.False(t, ok)

	images := am.List(resources.ResourceTypeImage)
	require.Len(t, images, 1)
	assert.Equal(t, "textures/red.png", images[0].Name)
}

func TestLoadShader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shaders", "flat.vert"), []byte(vertexSource))
	am := newManager(t, root)

	for _, name := range []string{"flat.vert", "shaders/flat.vert"} {
		r, err := am.LoadAsset(name, resources.ResourceTypeShader, nil)
		require.NoError(t, err, name)
		src, ok := r.Data.(*resources.ShaderSource)
		require.True(t, ok)
		assert.Equal(t, "vertex", src.Stage)
		assert.Equal(t, vertexSource, src.Source)
		assert.Equal(t, "shaders/flat.vert", r.Name)
		assert.EqualValues(t, len(vertexSource), r.DataSize)
		require.NoError(t, am.UnloadAsset(r))
		assert.Nil(t, r.Data)
	}
}

func TestLoadImage(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "textures", "red.png"), 3, 2)
	am := newManager(t, root)

	r, err := am.LoadAsset("red.png", resources.ResourceTypeImage, nil)
	require.NoError(t, err)
	data, ok := r.Data.(*resources.ImageData)
	require.True(t, ok)
	assert.Equal(t, "png", data.Format)
	assert.Equal(t, image.Rect(0, 0, 3, 2), data.Image.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, data.Image.RGBAAt(0, 0))

	_, err = am.LoadAsset("red.png", resources.ResourceTypeImage, &resources.ImageParams{MaxSize: 2})
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shaders", "flat.vert"), []byte(vertexSource))
	am := newManager(t, root)

	_, err := am.LoadAsset("missing.vert", resources.ResourceTypeShader, nil)
	assert.ErrorIs(t, err, ErrAssetNotFound)

	_, err = am.LoadAsset("flat.vert", resources.ResourceTypeImage, nil)
	assert.ErrorIs(t, err, ErrAssetNotFound)

	_, err = am.LoadAsset("app.toml", resources.ResourceTypeConfig, nil)
	assert.ErrorIs(t, err, ErrNoLoader)
}

func TestReportsChanges(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "shaders", "flat.vert")
	writeFile(t, path, []byte(vertexSource))
	am := newManager(t, root)

	writeFile(t, path, []byte(vertexSource+"\n"))
	c := waitChange(t, am, "shaders/flat.vert")
	assert.Equal(t, resources.AssetModified, c.Op)

	added := filepath.Join(root, "shaders", "flat.frag")
	writeFile(t, added, []byte("void main() {}\n"))
	c = waitChange(t, am, "shaders/flat.frag")
	assert.Equal(t, resources.AssetCreated, c.Op)
	_, ok := am.Lookup("shaders/flat.frag")
	assert.True(t, ok)

	require.NoError(t, os.Remove(added))
	for c.Op != resources.AssetRemoved {
		c = waitChange(t, am, "shaders/flat.frag")
	}
	_, ok = am.Lookup("shaders/flat.frag")
	assert.False(t, ok)
}

func TestShutdownClosesChanges(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(t.TempDir()))
	require.NoError(t, am.Shutdown())
	require.NoError(t, am.Shutdown())

	_, ok := <-am.Changes()
	assert.False(t, ok)
	assert.ErrorIs(t, am.addRecursive(am.Root()), ErrClosed)
}

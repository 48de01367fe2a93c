package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
	"github.com/spaghettifunk/anima-gl/engine/resources"
)

func newShaderSystem(t *testing.T, f *fixture) *ShaderSystem {
	t.Helper()
	ss, err := NewShaderSystem(&ShaderSystemConfig{MaxProgramCount: 4}, f.ctx, f.assets)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Shutdown() })
	return ss
}

func TestNewShaderSystemNeedsSlots(t *testing.T) {
	_, err := NewShaderSystem(&ShaderSystemConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestShaderSystemCreate(t *testing.T) {
	f := newFixture(t)
	ss := newShaderSystem(t, f)

	p, err := ss.Create(colourProgram)
	require.NoError(t, err)
	assert.True(t, p.Linked())

	loc, err := p.Attribute("colour").Location()
	require.NoError(t, err)
	assert.EqualValues(t, 7, loc)
	loc, err = p.Attribute("position").Location()
	require.NoError(t, err)
	assert.EqualValues(t, 4, loc)

	point, err := p.Block("view").Get()
	require.NoError(t, err)
	assert.EqualValues(t, 3, point)

	// the stage shaders are gone once the program is linked
	assert.Zero(t, f.driver.Live().Shaders)

	got, err := ss.Get("colour")
	require.NoError(t, err)
	assert.Same(t, p, got)
	assert.Equal(t, []string{"colour"}, ss.Names())

	e, ok := ss.Entry("colour")
	require.True(t, ok)
	assert.EqualValues(t, 1, e.Generation)
}

func TestShaderSystemCreateErrors(t *testing.T) {
	f := newFixture(t)
	ss := newShaderSystem(t, f)

	_, err := ss.Create(ProgramConfig{})
	assert.Error(t, err)

	_, err = ss.Create(ProgramConfig{Name: "empty"})
	assert.Error(t, err)

	_, err = ss.Create(ProgramConfig{Name: "missing", Vertex: "nope.vert"})
	assert.Error(t, err)
	_, ok := ss.Entry("missing")
	assert.False(t, ok)

	_, err = ss.Create(colourProgram)
	require.NoError(t, err)
	_, err = ss.Create(colourProgram)
	assert.Error(t, err)

	_, err = ss.Get("nope")
	assert.ErrorIs(t, err, ErrShaderNotFound)
	assert.ErrorIs(t, ss.Reload("nope"), ErrShaderNotFound)
}

func TestShaderSystemCompileFailureLeavesNothing(t *testing.T) {
	f := newFixture(t)
	ss := newShaderSystem(t, f)

	_, err := ss.Create(ProgramConfig{Name: "broken", Vertex: "colour.vert", Fragment: "broken.frag"})
	var ce *gl.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Log, "v_missing")

	live := f.driver.Live()
	assert.Zero(t, live.Shaders)
	assert.Zero(t, live.Programs)
}

func TestShaderSystemReload(t *testing.T) {
	f := newFixture(t)
	ss := newShaderSystem(t, f)

	p, err := ss.Create(colourProgram)
	require.NoError(t, err)
	id := p.ID()

	require.NoError(t, ss.Reload("colour"))
	e, _ := ss.Entry("colour")
	assert.EqualValues(t, 2, e.Generation)
	assert.NoError(t, e.LastError)
	got, _ := ss.Get("colour")
	assert.Same(t, p, got)
	assert.NotEqual(t, id, p.ID())
	assert.False(t, f.driver.ProgramExists(id))
	assert.Equal(t, 1, f.driver.Live().Programs)

	loc, err := p.Attribute("colour").Location()
	require.NoError(t, err)
	assert.EqualValues(t, 7, loc)
}

func TestShaderSystemReloadFailureKeepsProgram(t *testing.T) {
	f := newFixture(t)
	ss := newShaderSystem(t, f)

	p, err := ss.Create(colourProgram)
	require.NoError(t, err)
	id := p.ID()

	writeAsset(t, f.root, "shaders/colour.frag", brokenFragment)
	err = ss.Reload("colour")
	require.Error(t, err)

	e, _ := ss.Entry("colour")
	assert.EqualValues(t, 1, e.Generation)
	assert.Equal(t, err, e.LastError)
	assert.Equal(t, id, p.ID())
	assert.True(t, p.Linked())
	assert.Equal(t, 1, f.driver.Live().Programs)

	writeAsset(t, f.root, "shaders/colour.frag", colourFragment)
	require.NoError(t, ss.Reload("colour"))
	assert.NoError(t, e.LastError)
	assert.EqualValues(t, 2, e.Generation)
}

func TestShaderSystemOnAssetChanged(t *testing.T) {
	f := newFixture(t)
	ss := newShaderSystem(t, f)
	_, err := ss.Create(colourProgram)
	require.NoError(t, err)

	change := func(name string, op resources.ChangeOp) resources.AssetChange {
		return resources.AssetChange{
			Asset: resources.AssetInfo{Name: name, Type: resources.ResourceTypeShader},
			Op:    op,
		}
	}
	assert.Equal(t, []string{"colour"}, ss.OnAssetChanged(change("shaders/colour.frag", resources.AssetModified)))
	assert.Empty(t, ss.OnAssetChanged(change("shaders/other.frag", resources.AssetModified)))
	assert.Empty(t, ss.OnAssetChanged(change("shaders/colour.frag", resources.AssetRemoved)))

	e, _ := ss.Entry("colour")
	assert.EqualValues(t, 2, e.Generation)
}

func TestShaderSystemDestroy(t *testing.T) {
	f := newFixture(t)
	ss := newShaderSystem(t, f)
	p, err := ss.Create(colourProgram)
	require.NoError(t, err)

	ss.Destroy("colour")
	assert.False(t, p.Valid())
	assert.Empty(t, ss.Names())
	assert.Zero(t, f.driver.Live().Programs)
}

func TestCompileSource(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, CompileSource(f.ctx, "vertex", colourVertex))
	assert.Error(t, CompileSource(f.ctx, "fragment", brokenFragment))
	assert.Error(t, CompileSource(f.ctx, "tessellation", colourVertex))
	assert.Zero(t, f.driver.Live().Shaders)
}

package systems

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/anima-gl/engine/core"
	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

/** @brief The name of the default geometry. */
const DEFAULT_GEOMETRY_NAME string = "default"

/** @brief Attribute channels of the interleaved Vertex3D layout. */
const (
	PositionChannel uint32 = 0
	NormalChannel   uint32 = 1
	ColourChannel   uint32 = 2
)

type GeometrySystemConfig struct {
	/**
	 * @brief NOTE: The maximum number of geometries that can be loaded at
	 * once.
	 */
	MaxGeometryCount uint32
}

/** @brief Vertex and index data to upload as one mesh. */
type GeometryConfig struct {
	Name     string
	Vertices []math.Vertex3D
	Indices  []uint32
	Extents  math.Extents3D
}

type GeometryReference struct {
	ReferenceCount uint32
	Mesh           *gl.Mesh
	Extents        math.Extents3D
}

type GeometrySystem struct {
	Config     *GeometrySystemConfig
	Geometries map[string]*GeometryReference
	ctx        *gl.Context
}

func NewGeometrySystem(config *GeometrySystemConfig, ctx *gl.Context) (*GeometrySystem, error) {
	if config.MaxGeometryCount == 0 {
		err := fmt.Errorf("func NewGeometrySystem - config.MaxGeometryCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	gs := &GeometrySystem{
		Config:     config,
		Geometries: make(map[string]*GeometryReference),
		ctx:        ctx,
	}
	def := GenerateOctahedronConfig(1, math.NewVec4One(), DEFAULT_GEOMETRY_NAME)
	if _, err := gs.AcquireFromConfig(def); err != nil {
		return nil, err
	}
	return gs, nil
}

func (gs *GeometrySystem) Shutdown() error {
	for name, g := range gs.Geometries {
		g.Mesh.Destroy()
		delete(gs.Geometries, name)
	}
	return nil
}

// VertexLayout is how Vertex3D is laid out in a vertex buffer. A nil buffer
// is filled in with the mesh's own by gl.NewMesh.
func VertexLayout() []gl.Attribute {
	var v math.Vertex3D
	stride := int32(unsafe.Sizeof(v))
	return []gl.Attribute{
		gl.AttributeOf[float32, math.Vec3](PositionChannel, nil).Interleaved(stride, int(unsafe.Offsetof(v.Position))),
		gl.AttributeOf[float32, math.Vec3](NormalChannel, nil).Interleaved(stride, int(unsafe.Offsetof(v.Normal))),
		gl.AttributeOf[float32, math.Vec4](ColourChannel, nil).Interleaved(stride, int(unsafe.Offsetof(v.Colour))),
	}
}

/**
 * @brief Acquires the geometry described by config, uploading it on first
 * use. Internal reference counter is incremented.
 */
func (gs *GeometrySystem) AcquireFromConfig(config *GeometryConfig) (*gl.Mesh, error) {
	if g, ok := gs.Geometries[config.Name]; ok {
		g.ReferenceCount++
		return g.Mesh, nil
	}
	if uint32(len(gs.Geometries)) >= gs.Config.MaxGeometryCount {
		err := fmt.Errorf("unable to find free slot for geometry %s. Adjust configuration to allow more space", config.Name)
		core.LogError(err.Error())
		return nil, err
	}
	mesh, err := gl.NewMesh(gs.ctx, config.Vertices, config.Indices, VertexLayout())
	if err != nil {
		return nil, fmt.Errorf("geometry %s: %w", config.Name, err)
	}
	gs.Geometries[config.Name] = &GeometryReference{ReferenceCount: 1, Mesh: mesh, Extents: config.Extents}
	core.LogDebug("geometry %s: %d vertices, %d indices", config.Name, len(config.Vertices), len(config.Indices))
	return mesh, nil
}

// Get returns a loaded geometry without taking a reference.
func (gs *GeometrySystem) Get(name string) (*GeometryReference, bool) {
	g, ok := gs.Geometries[name]
	return g, ok
}

func (gs *GeometrySystem) GetDefault() *gl.Mesh {
	return gs.Geometries[DEFAULT_GEOMETRY_NAME].Mesh
}

/**
 * @brief Releases a reference to the named geometry, destroying its mesh
 * when no reference is left.
 */
func (gs *GeometrySystem) Release(name string) {
	if name == DEFAULT_GEOMETRY_NAME {
		return
	}
	g, ok := gs.Geometries[name]
	if !ok {
		core.LogWarn("geometry %s released but not loaded", name)
		return
	}
	g.ReferenceCount--
	if g.ReferenceCount == 0 {
		g.Mesh.Destroy()
		delete(gs.Geometries, name)
	}
}

/**
 * @brief Generates an octahedron with its six vertices on the axes at
 * distance size from the origin. Each vertex normal points away from the
 * centre.
 */
func GenerateOctahedronConfig(size float32, colour math.Vec4, name string) *GeometryConfig {
	axes := []math.Vec3{
		{X: 1}, {X: -1},
		{Y: 1}, {Y: -1},
		{Z: 1}, {Z: -1},
	}
	vertices := make([]math.Vertex3D, len(axes))
	for i, a := range axes {
		vertices[i] = math.Vertex3D{Position: a.MulScalar(size), Normal: a, Colour: colour}
	}
	// Counter clockwise seen from outside.
	indices := []uint32{
		0, 2, 4, 4, 2, 1, 1, 2, 5, 5, 2, 0,
		4, 3, 0, 1, 3, 4, 5, 3, 1, 0, 3, 5,
	}
	return &GeometryConfig{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
		Extents:  math.GeometryExtents(vertices),
	}
}

/**
 * @brief Generates a cube of the given dimensions centred on the origin.
 * Each face has its own four vertices so normals stay flat.
 */
func GenerateCubeConfig(width, height, depth float32, colour math.Vec4, name string) (*GeometryConfig, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("cube %s: dimensions must be positive, got %gx%gx%g", name, width, height, depth)
	}
	hw, hh, hd := width*0.5, height*0.5, depth*0.5
	faces := [6][4]math.Vec3{
		// front (+z)
		{{X: -hw, Y: -hh, Z: hd}, {X: hw, Y: -hh, Z: hd}, {X: hw, Y: hh, Z: hd}, {X: -hw, Y: hh, Z: hd}},
		// back (-z)
		{{X: hw, Y: -hh, Z: -hd}, {X: -hw, Y: -hh, Z: -hd}, {X: -hw, Y: hh, Z: -hd}, {X: hw, Y: hh, Z: -hd}},
		// left (-x)
		{{X: -hw, Y: -hh, Z: -hd}, {X: -hw, Y: -hh, Z: hd}, {X: -hw, Y: hh, Z: hd}, {X: -hw, Y: hh, Z: -hd}},
		// right (+x)
		{{X: hw, Y: -hh, Z: hd}, {X: hw, Y: -hh, Z: -hd}, {X: hw, Y: hh, Z: -hd}, {X: hw, Y: hh, Z: hd}},
		// bottom (-y)
		{{X: -hw, Y: -hh, Z: -hd}, {X: hw, Y: -hh, Z: -hd}, {X: hw, Y: -hh, Z: hd}, {X: -hw, Y: -hh, Z: hd}},
		// top (+y)
		{{X: -hw, Y: hh, Z: hd}, {X: hw, Y: hh, Z: hd}, {X: hw, Y: hh, Z: -hd}, {X: -hw, Y: hh, Z: -hd}},
	}
	vertices := make([]math.Vertex3D, 0, 24)
	indices := make([]uint32, 0, 36)
	for f, quad := range faces {
		base := uint32(f * 4)
		for _, p := range quad {
			vertices = append(vertices, math.Vertex3D{Position: p, Colour: colour})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	math.GeometryGenerateNormals(vertices, indices)
	return &GeometryConfig{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
		Extents:  math.GeometryExtents(vertices),
	}, nil
}

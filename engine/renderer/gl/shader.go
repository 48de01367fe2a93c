package gl

import (
	"fmt"
	"strings"
)

// ShaderStage is the pipeline stage a shader compiles for.
type ShaderStage Enum

const (
	VertexStage   = ShaderStage(VERTEX_SHADER)
	FragmentStage = ShaderStage(FRAGMENT_SHADER)
	GeometryStage = ShaderStage(GEOMETRY_SHADER)
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	case GeometryStage:
		return "geometry"
	}
	return fmt.Sprintf("ShaderStage(0x%04X)", uint32(s))
}

// ParseShaderStage maps "vertex"/"vert", "fragment"/"frag" and
// "geometry"/"geom" to a stage.
func ParseShaderStage(name string) (ShaderStage, error) {
	switch strings.ToLower(name) {
	case "vertex", "vert", "vs":
		return VertexStage, nil
	case "fragment", "frag", "fs":
		return FragmentStage, nil
	case "geometry", "geom", "gs":
		return GeometryStage, nil
	}
	return 0, fmt.Errorf("gl: unknown shader stage %q", name)
}

// Shader is a compiled shader object. There is no uncompiled Shader value:
// NewShader either returns a compiled shader or a *CompileError.
type Shader struct {
	name  Name[shaderKind]
	stage ShaderStage
}

// NewShader compiles source for stage. On failure the driver object is
// deleted and the error carries the driver's info log.
func NewShader(ctx *Context, stage ShaderStage, source string) (*Shader, error) {
	s := &Shader{stage: stage}
	if err := s.name.allocate(ctx, Enum(stage)); err != nil {
		return nil, err
	}
	d := ctx.driver
	d.ShaderSource(s.name.id, source)
	d.CompileShader(s.name.id)
	if err := ctx.Check("compile shader"); err != nil {
		s.Destroy()
		return nil, err
	}
	if d.GetShaderi(s.name.id, COMPILE_STATUS) == 0 {
		log := strings.TrimSpace(d.GetShaderInfoLog(s.name.id))
		if log == "" {
			log = "no info log"
		}
		s.Destroy()
		return nil, &CompileError{Stage: stage, Log: log}
	}
	return s, nil
}

func (s *Shader) Stage() ShaderStage { return s.stage }
func (s *Shader) ID() uint32         { return s.name.ID() }
func (s *Shader) Valid() bool        { return s.name.Valid() }
func (s *Shader) Release() uint32    { return s.name.Release() }
func (s *Shader) Destroy()           { s.name.Destroy() }

func (s *Shader) MoveFrom(src *Shader) {
	if s == src {
		return
	}
	s.name.MoveFrom(&src.name)
	s.stage = src.stage
}

func (s *Shader) Move() *Shader {
	dst := &Shader{}
	dst.MoveFrom(s)
	return dst
}

package gl

import (
	"fmt"

	"github.com/spaghettifunk/anima-gl/engine/math"
)

// UniformValue is the set of value shapes a uniform can be read and written
// as. Each shape has its own encoding; matrices travel as 16 column-major
// floats.
type UniformValue interface {
	int32 | uint32 | float32 | math.Vec3 | math.Vec4 | math.Mat4
}

// UniformAccessor reads and writes one named uniform of a program as V.
type UniformAccessor[V UniformValue] struct {
	program *Program
	name    string
}

// Uniform names the uniform name of p, typed as V.
func Uniform[V UniformValue](p *Program, name string) UniformAccessor[V] {
	return UniformAccessor[V]{program: p, name: name}
}

func (u UniformAccessor[V]) Name() string { return u.name }

// Location returns the uniform location, -1 when the program has no active
// uniform of that name.
func (u UniformAccessor[V]) Location() (int32, error) {
	return u.program.uniformLocation(u.name)
}

// Set writes v. The program must be the current program. Writing a uniform
// the program does not have is ignored, as the driver does for location -1.
func (u UniformAccessor[V]) Set(v V) error {
	loc, err := u.program.uniformLocation(u.name)
	if err != nil {
		return err
	}
	if loc == -1 {
		return nil
	}
	if !u.program.Active() {
		return ErrProgramNotActive
	}
	ctx := u.program.name.ctx
	d := ctx.driver
	switch val := any(v).(type) {
	case int32:
		d.Uniform1i(loc, val)
	case uint32:
		d.Uniform1ui(loc, val)
	case float32:
		d.Uniform1f(loc, val)
	case math.Vec3:
		e := val.Elements()
		d.Uniform3fv(loc, e[:])
	case math.Vec4:
		e := val.Elements()
		d.Uniform4fv(loc, e[:])
	case math.Mat4:
		d.UniformMatrix4fv(loc, false, val.Data[:])
	}
	return ctx.Check("uniform " + u.name)
}

// Get reads the uniform's current value from the program.
func (u UniformAccessor[V]) Get() (V, error) {
	var out V
	loc, err := u.program.uniformLocation(u.name)
	if err != nil {
		return out, err
	}
	if loc == -1 {
		return out, fmt.Errorf("%w: %q", ErrUnknownUniform, u.name)
	}
	ctx := u.program.name.ctx
	d := ctx.driver
	id := u.program.name.id
	switch ptr := any(&out).(type) {
	case *int32:
		v := make([]int32, 1)
		d.GetUniformiv(id, loc, v)
		*ptr = v[0]
	case *uint32:
		v := make([]uint32, 1)
		d.GetUniformuiv(id, loc, v)
		*ptr = v[0]
	case *float32:
		v := make([]float32, 1)
		d.GetUniformfv(id, loc, v)
		*ptr = v[0]
	case *math.Vec3:
		v := make([]float32, 3)
		d.GetUniformfv(id, loc, v)
		*ptr = math.NewVec3(v[0], v[1], v[2])
	case *math.Vec4:
		v := make([]float32, 4)
		d.GetUniformfv(id, loc, v)
		*ptr = math.NewVec4(v[0], v[1], v[2], v[3])
	case *math.Mat4:
		d.GetUniformfv(id, loc, ptr.Data[:])
	}
	return out, ctx.Check("get uniform " + u.name)
}

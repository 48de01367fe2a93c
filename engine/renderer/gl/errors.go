package gl

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResource reports a bind or activate on a handle that owns no
	// driver object: never allocated, destroyed, released or moved from.
	ErrInvalidResource  = errors.New("gl: invalid resource")
	ErrNoContext        = errors.New("gl: no current context")
	ErrNoLayout         = errors.New("gl: no vertex array in use")
	ErrNoIndexBuffer    = errors.New("gl: vertex array has no index buffer")
	ErrUnknownUniform   = errors.New("gl: unknown uniform")
	ErrAlreadyLinked    = errors.New("gl: program already linked")
	ErrNotLinked        = errors.New("gl: program not linked")
	ErrProgramNotActive = errors.New("gl: program is not the current program")
	ErrShortBuffer      = errors.New("gl: mapped range smaller than the requested type")
	ErrAlreadyMapped    = errors.New("gl: buffer already mapped")
	ErrIndexType        = errors.New("gl: unsupported index type")
	ErrMapLost          = errors.New("gl: mapped buffer contents were lost")
)

// CompileError carries the info log of a shader that failed to compile.
type CompileError struct {
	Stage ShaderStage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gl: %s shader failed to compile: %s", e.Stage, e.Log)
}

// LinkError carries the info log of a program that failed to link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("gl: program failed to link: %s", e.Log)
}

// DriverError is a code reported by GetError after a call that should not
// fail under correct usage.
type DriverError struct {
	Op   string
	Code Enum
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("gl: %s: %s (0x%04X)", e.Op, ErrorString(e.Code), uint32(e.Code))
}

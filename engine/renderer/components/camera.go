package components

import (
	"github.com/spaghettifunk/anima-gl/engine/math"
	"github.com/spaghettifunk/anima-gl/engine/renderer/gl"
)

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

// pitchLimit keeps the eye just short of straight up or down (89 degrees).
const pitchLimit float32 = 1.55334306

/**
 * @brief A first person eye: a position and Euler rotation (pitch, yaw,
 * roll) turned into the facing matrix of a gl.Camera. Setters mark the
 * eye dirty; Sync pushes the rebuilt matrix only when something changed.
 */
type Eye struct {
	position math.Vec3
	rotation math.Vec3
	dirty    bool
	// pending is set by every change and cleared once Sync pushed it.
	pending bool
	view    math.Mat4
}

func NewEye(position math.Vec3) *Eye {
	e := &Eye{}
	e.Reset()
	e.SetPosition(position)
	return e
}

func (e *Eye) Reset() {
	e.position = math.NewVec3Zero()
	e.rotation = math.NewVec3Zero()
	e.view = math.NewMat4Identity()
	e.dirty = true
	e.pending = true
}

func (e *Eye) Position() math.Vec3 { return e.position }

func (e *Eye) SetPosition(p math.Vec3) {
	e.position = p
	e.dirty = true
	e.pending = true
}

func (e *Eye) Rotation() math.Vec3 { return e.rotation }

func (e *Eye) SetRotation(r math.Vec3) {
	e.rotation = r
	e.rotation.X = math.Clamp(e.rotation.X, -pitchLimit, pitchLimit)
	e.dirty = true
	e.pending = true
}

// Dirty reports whether the eye changed since it was last synced.
func (e *Eye) Dirty() bool { return e.pending }

// View returns the world to eye matrix, the inverse of the eye's own
// rotation followed by its translation.
func (e *Eye) View() math.Mat4 {
	if e.dirty {
		world := math.NewMat4EulerXYZ(e.rotation.X, e.rotation.Y, e.rotation.Z).
			Mul(math.NewMat4Translation(e.position))
		e.view = world.Inverse()
		e.dirty = false
	}
	return e.view
}

// Move displaces the eye along one of its own axes.
func (e *Eye) Move(direction math.Vec3, amount float32) {
	e.SetPosition(e.position.Add(direction.MulScalar(amount)))
}

func (e *Eye) MoveForward(amount float32)  { e.Move(e.View().Forward(), amount) }
func (e *Eye) MoveBackward(amount float32) { e.Move(e.View().Backward(), amount) }
func (e *Eye) MoveLeft(amount float32)     { e.Move(e.View().Left(), amount) }
func (e *Eye) MoveRight(amount float32)    { e.Move(e.View().Right(), amount) }

// MoveUp and MoveDown follow world up, not the eye's.
func (e *Eye) MoveUp(amount float32)   { e.Move(math.NewVec3Up(), amount) }
func (e *Eye) MoveDown(amount float32) { e.Move(math.NewVec3Down(), amount) }

func (e *Eye) Yaw(amount float32) {
	r := e.rotation
	r.Y += amount
	e.SetRotation(r)
}

func (e *Eye) Pitch(amount float32) {
	r := e.rotation
	r.X += amount
	e.SetRotation(r)
}

// Sync writes the view into cam's facing when the eye moved since the last
// call.
func (e *Eye) Sync(cam *gl.Camera) error {
	if !e.pending {
		return nil
	}
	if err := cam.SetFacing(e.View()); err != nil {
		return err
	}
	e.pending = false
	return nil
}

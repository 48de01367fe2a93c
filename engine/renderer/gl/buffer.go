package gl

import (
	"fmt"
	"unsafe"
)

// Usage is the advisory hint passed with buffer storage.
type Usage Enum

const (
	StreamDraw  = Usage(STREAM_DRAW)
	StreamRead  = Usage(STREAM_READ)
	StreamCopy  = Usage(STREAM_COPY)
	StaticDraw  = Usage(STATIC_DRAW)
	StaticRead  = Usage(STATIC_READ)
	StaticCopy  = Usage(STATIC_COPY)
	DynamicDraw = Usage(DYNAMIC_DRAW)
	DynamicRead = Usage(DYNAMIC_READ)
	DynamicCopy = Usage(DYNAMIC_COPY)
)

// Contents selects the binding slot of a Buffer. The slot is part of the
// buffer's type so a vertex buffer cannot be bound as an index buffer.
type Contents interface {
	target() Enum
}

// VertexData buffers bind to ARRAY_BUFFER.
type VertexData struct{}

func (VertexData) target() Enum { return ARRAY_BUFFER }

// IndexData buffers bind to ELEMENT_ARRAY_BUFFER of the current vertex array.
type IndexData struct{}

func (IndexData) target() Enum { return ELEMENT_ARRAY_BUFFER }

// buffer is the storage shared by every buffer kind.
type buffer struct {
	name     Name[bufferKind]
	target   Enum
	size     int
	count    int
	elemType TypeCode
	elemSize int
	mapped   bool
	mapSeq   uint64
}

// AnyBuffer is implemented by every buffer kind. It lets the generic
// transfer functions work on all of them.
type AnyBuffer interface {
	raw() *buffer
}

func (b *buffer) raw() *buffer { return b }

func (b *buffer) allocate(ctx *Context, target Enum) error {
	b.target = target
	return b.name.allocate(ctx, 0)
}

// activate binds b to its slot. The element slot belongs to the current
// vertex array, so an index buffer bound outside VertexArray.Indices first
// leaves no vertex array current.
func (b *buffer) activate() error {
	if err := b.name.require(); err != nil {
		return err
	}
	ctx := b.name.ctx
	if b.target == ELEMENT_ARRAY_BUFFER && ctx.state.vertexArray != 0 {
		ctx.bindVertexArray(0)
	}
	ctx.bindBuffer(b.target, b.name.id)
	return ctx.Check("bind buffer")
}

// Reserve allocates bytes of uninitialized storage for later partial
// writes.
func (b *buffer) Reserve(usage Usage, bytes int) error {
	if err := b.activate(); err != nil {
		return err
	}
	b.name.ctx.driver.BufferData(b.target, bytes, Enum(usage), nil)
	if err := b.name.ctx.Check("reserve buffer"); err != nil {
		return err
	}
	b.size = bytes
	b.count = 0
	b.mapped = false
	return nil
}

// Deactivate binds no buffer to this buffer's slot.
func (b *buffer) Deactivate() {
	ctx := b.name.ctx
	if ctx == nil {
		return
	}
	if b.target == ELEMENT_ARRAY_BUFFER && ctx.state.vertexArray != 0 {
		ctx.bindVertexArray(0)
	}
	ctx.bindBuffer(b.target, 0)
}

func (b *buffer) ID() uint32  { return b.name.ID() }
func (b *buffer) Valid() bool { return b.name.Valid() }

// Size returns the storage size in bytes.
func (b *buffer) Size() int { return b.size }

// Count returns the number of elements of the last Load.
func (b *buffer) Count() int { return b.count }

// ElementType returns the scalar type of the last Load, 0 when the
// elements were not scalars.
func (b *buffer) ElementType() TypeCode { return b.elemType }

// Release gives up the driver object without deleting it.
func (b *buffer) Release() uint32 { return b.name.Release() }

func (b *buffer) Destroy() {
	b.name.Destroy()
	b.mapped = false
	b.size, b.count = 0, 0
}

func (b *buffer) moveFrom(src *buffer) {
	b.name.MoveFrom(&src.name)
	b.target = src.target
	b.size, b.count = src.size, src.count
	b.elemType, b.elemSize = src.elemType, src.elemSize
	b.mapped, b.mapSeq = src.mapped, src.mapSeq
	src.size, src.count, src.mapped = 0, 0, false
}

// Buffer is a vertex or index buffer, depending on C.
type Buffer[C Contents] struct {
	buffer
}

type (
	VertexBuffer = Buffer[VertexData]
	IndexBuffer  = Buffer[IndexData]
)

func NewBuffer[C Contents](ctx *Context) (*Buffer[C], error) {
	var contents C
	b := &Buffer[C]{}
	if err := b.allocate(ctx, contents.target()); err != nil {
		return nil, err
	}
	return b, nil
}

func NewVertexBuffer(ctx *Context) (*VertexBuffer, error) {
	return NewBuffer[VertexData](ctx)
}

func NewIndexBuffer(ctx *Context) (*IndexBuffer, error) {
	return NewBuffer[IndexData](ctx)
}

// Activate binds b to its slot.
func (b *Buffer[C]) Activate() error {
	return b.activate()
}

// MoveFrom takes ownership of src's driver object, destroying the one b
// held. src is left invalid.
func (b *Buffer[C]) MoveFrom(src *Buffer[C]) {
	if b == src {
		return
	}
	b.moveFrom(&src.buffer)
}

// Move returns a new Buffer owning b's driver object and leaves b invalid.
func (b *Buffer[C]) Move() *Buffer[C] {
	dst := &Buffer[C]{}
	dst.MoveFrom(b)
	return dst
}

// UniformBuffer backs uniform blocks. Unlike the other kinds it is used
// through indexed binding points.
type UniformBuffer struct {
	buffer
}

func NewUniformBuffer(ctx *Context) (*UniformBuffer, error) {
	b := &UniformBuffer{}
	if err := b.allocate(ctx, UNIFORM_BUFFER); err != nil {
		return nil, err
	}
	return b, nil
}

// Activate attaches b to binding point and returns the point, so it can be
// handed straight to a block binding.
func (b *UniformBuffer) Activate(point uint32) (uint32, error) {
	if err := b.name.require(); err != nil {
		return point, err
	}
	b.name.ctx.bindBufferBase(UNIFORM_BUFFER, point, b.name.id)
	return point, b.name.ctx.Check("bind buffer base")
}

// Deactivate detaches whatever buffer is attached to point.
func (b *UniformBuffer) Deactivate(point uint32) {
	if b.name.ctx != nil {
		b.name.ctx.bindBufferBase(UNIFORM_BUFFER, point, 0)
	}
}

func (b *UniformBuffer) MoveFrom(src *UniformBuffer) {
	if b == src {
		return
	}
	b.moveFrom(&src.buffer)
}

func (b *UniformBuffer) Move() *UniformBuffer {
	dst := &UniformBuffer{}
	dst.MoveFrom(b)
	return dst
}

// Load activates b and replaces its storage with data. T must be plain
// data: scalars, math vectors and matrices, or structs of them.
func Load[T any](b AnyBuffer, usage Usage, data []T) error {
	r := b.raw()
	if err := r.activate(); err != nil {
		return err
	}
	raw := bytesOf(data)
	r.name.ctx.driver.BufferData(r.target, len(raw), Enum(usage), raw)
	if err := r.name.ctx.Check("buffer data"); err != nil {
		return err
	}
	var zero T
	r.size = len(raw)
	r.count = len(data)
	r.elemType, _ = typeCodeOf(zero)
	r.elemSize = int(unsafe.Sizeof(zero))
	// storage replacement unmaps
	r.mapped = false
	return nil
}

// ReserveFor allocates storage for count elements of T and records T as the
// element type.
func ReserveFor[T Scalar](b AnyBuffer, usage Usage, count int) error {
	r := b.raw()
	if err := r.Reserve(usage, count*SizeOf[T]()); err != nil {
		return err
	}
	r.elemType = TypeOf[T]()
	r.elemSize = SizeOf[T]()
	r.count = count
	return nil
}

// Update overwrites part of b's storage starting at byte offset.
func Update[T any](b AnyBuffer, offset int, data []T) error {
	r := b.raw()
	raw := bytesOf(data)
	if offset < 0 || offset+len(raw) > r.size {
		return fmt.Errorf("gl: update of %d bytes at %d exceeds buffer size %d", len(raw), offset, r.size)
	}
	if err := r.activate(); err != nil {
		return err
	}
	r.name.ctx.driver.BufferSubData(r.target, offset, raw)
	return r.name.ctx.Check("buffer sub data")
}

func bytesOf[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), len(data)*int(unsafe.Sizeof(zero)))
}

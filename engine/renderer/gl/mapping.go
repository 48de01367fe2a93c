package gl

import (
	"slices"
	"unsafe"

	"github.com/spaghettifunk/anima-gl/engine/core"
)

// Mapped is a scoped view of mapped buffer memory. The memory belongs to the
// driver and is valid until Close, which unmaps exactly once no matter how
// many times it is called.
type Mapped[T any] struct {
	buf    *buffer
	bytes  []byte
	seq    uint64
	closed bool
}

// Ptr returns the mapped memory as a *T.
func (m *Mapped[T]) Ptr() *T {
	return (*T)(unsafe.Pointer(unsafe.SliceData(m.bytes)))
}

// Slice returns the mapped memory as consecutive values of T.
func (m *Mapped[T]) Slice() []T {
	var zero T
	elem := int(unsafe.Sizeof(zero))
	if elem == 0 || len(m.bytes) == 0 {
		return nil
	}
	return unsafe.Slice(m.Ptr(), len(m.bytes)/elem)
}

func (m *Mapped[T]) Bytes() []byte {
	return m.bytes
}

// Close unmaps the buffer. Calls after the first are no-ops.
func (m *Mapped[T]) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.bytes = nil
	b := m.buf
	// storage was replaced or the buffer destroyed since the map
	if !b.mapped || b.mapSeq != m.seq || !b.name.Valid() {
		return nil
	}
	b.mapped = false
	if err := b.activate(); err != nil {
		return err
	}
	ok := b.name.ctx.driver.UnmapBuffer(b.target)
	if err := b.name.ctx.Check("unmap buffer"); err != nil {
		return err
	}
	if !ok {
		return ErrMapLost
	}
	return nil
}

// ReadOnly is a mapped view that only hands out copies.
type ReadOnly[T any] struct {
	m *Mapped[T]
}

// Value returns a copy of the first T in the mapping.
func (r *ReadOnly[T]) Value() T {
	return *r.m.Ptr()
}

// Values returns a copy of the mapping as values of T.
func (r *ReadOnly[T]) Values() []T {
	return slices.Clone(r.m.Slice())
}

func (r *ReadOnly[T]) Close() error {
	return r.m.Close()
}

// Access maps b for reading and writing.
func Access[T any](b AnyBuffer) (*Mapped[T], error) {
	return mapBuffer[T](b.raw(), MAP_READ_BIT|MAP_WRITE_BIT)
}

// AccessReadOnly maps b for reading.
func AccessReadOnly[T any](b AnyBuffer) (*ReadOnly[T], error) {
	m, err := mapBuffer[T](b.raw(), MAP_READ_BIT)
	if err != nil {
		return nil, err
	}
	return &ReadOnly[T]{m: m}, nil
}

// WithAccess maps b, runs fn on the mapped value and unmaps, also when fn
// panics.
func WithAccess[T any](b AnyBuffer, fn func(*T) error) (err error) {
	m, err := Access[T](b)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			if err == nil {
				err = cerr
			} else {
				core.LogError("%s", cerr)
			}
		}
	}()
	return fn(m.Ptr())
}

func mapBuffer[T any](b *buffer, access Enum) (*Mapped[T], error) {
	if err := b.name.require(); err != nil {
		return nil, err
	}
	if b.mapped {
		return nil, ErrAlreadyMapped
	}
	if err := b.activate(); err != nil {
		return nil, err
	}
	d := b.name.ctx.driver
	size := int(d.GetBufferParameteri(b.target, BUFFER_SIZE))
	var zero T
	elem := int(unsafe.Sizeof(zero))
	// a zero sized T has no element count to view the memory as
	if elem == 0 || size == 0 || size < elem {
		return nil, ErrShortBuffer
	}
	bytes := d.MapBufferRange(b.target, 0, size, access)
	if err := b.name.ctx.Check("map buffer"); err != nil {
		return nil, err
	}
	if len(bytes) < size {
		return nil, &DriverError{Op: "map buffer", Code: OUT_OF_MEMORY}
	}
	b.mapped = true
	b.mapSeq++
	return &Mapped[T]{buf: b, bytes: bytes[:size], seq: b.mapSeq}, nil
}

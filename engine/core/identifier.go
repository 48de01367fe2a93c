package core

import "fmt"

// NamePool hands out non-zero identifiers and recycles released ones.
// Identifier 0 is never issued: it is the "none" name for every object kind.
type NamePool struct {
	owners []interface{}
}

func NewNamePool(capacity int) *NamePool {
	if capacity < 1 {
		capacity = 1
	}
	// slot 0 is permanently taken by the sentinel
	owners := make([]interface{}, 1, capacity+1)
	owners[0] = struct{}{}
	return &NamePool{owners: owners}
}

// Acquire returns the lowest free identifier and records owner against it.
func (p *NamePool) Acquire(owner interface{}) uint32 {
	if owner == nil {
		owner = struct{}{}
	}
	length := uint32(len(p.owners))
	for i := uint32(1); i < length; i++ {
		// Existing free spot. Take it.
		if p.owners[i] == nil {
			p.owners[i] = owner
			return i
		}
	}

	// No free slots, push a new one. The id will be length.
	p.owners = append(p.owners, owner)
	return length
}

// Release frees id for reuse.
func (p *NamePool) Release(id uint32) error {
	if id == 0 {
		return fmt.Errorf("name pool: cannot release the zero name")
	}
	length := uint32(len(p.owners))
	if id >= length {
		return fmt.Errorf("name pool: id '%d' out of range (max=%d). Nothing was done", id, length-1)
	}
	if p.owners[id] == nil {
		return fmt.Errorf("name pool: id '%d' is not in use", id)
	}
	p.owners[id] = nil
	return nil
}

// Owner returns what was registered for id, or nil when id is free.
func (p *NamePool) Owner(id uint32) interface{} {
	if id == 0 || id >= uint32(len(p.owners)) {
		return nil
	}
	return p.owners[id]
}

// InUse reports whether id is currently issued.
func (p *NamePool) InUse(id uint32) bool {
	return p.Owner(id) != nil
}

// Len returns the number of issued identifiers.
func (p *NamePool) Len() int {
	n := 0
	for i := 1; i < len(p.owners); i++ {
		if p.owners[i] != nil {
			n++
		}
	}
	return n
}

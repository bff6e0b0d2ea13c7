package vkframe

import (
	"fmt"
)

// Allocation is a byte range handed out by an allocator.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// End is the first byte after the allocation.
func (a *Allocation) End() uint64 {
	return a.Offset + a.Size
}

// LinearAllocator carves ranges out of a region of Size bytes. Allocations
// are kept sorted by offset; a new one goes into the first gap large enough
// to hold it once its start is aligned.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	if align <= 1 {
		return a
	}
	m := a % align
	if m == 0 {
		return a
	}
	return (a - m) + align
}

// Free returns fa to the allocator. Freeing an allocation twice is a no-op.
func (p *LinearAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Allocate returns size bytes whose offset is a multiple of align, or nil
// when no gap can hold them.
func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	start := uint64(0)
	for i, c := range p.allocs {
		if start+size <= c.Offset {
			na := &Allocation{Offset: start, Size: size}
			p.allocs = append(p.allocs[:i], append([]*Allocation{na}, p.allocs[i:]...)...)
			return na
		}
		start = makeAlignUp(c.End(), align)
	}

	if start+size > p.Size {
		Logger().Debug("allocator full", "size", size, "align", align, "capacity", p.Size, "allocs", p.String())
		return nil
	}
	na := &Allocation{Offset: start, Size: size}
	p.allocs = append(p.allocs, na)
	return na
}

// Used is the end of the highest allocation.
func (p *LinearAllocator) Used() uint64 {
	if len(p.allocs) == 0 {
		return 0
	}
	return p.allocs[len(p.allocs)-1].End()
}

func (p *LinearAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}

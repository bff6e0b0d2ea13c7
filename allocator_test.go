package vkframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	assert.Equal(t, uint64(12), makeAlignUp(12, 3))
	assert.Equal(t, uint64(12), makeAlignUp(10, 3))
	assert.Equal(t, uint64(7), makeAlignUp(7, 1))
	assert.Equal(t, uint64(7), makeAlignUp(7, 0))
	assert.Equal(t, uint64(256), makeAlignUp(1, 256))
}

func TestAllocator(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	assert.Nil(t, a.Allocate(2048, 1), "larger than the region")

	first := a.Allocate(512, 1)
	require.NotNil(t, first)
	assert.Equal(t, uint64(0), first.Offset)

	assert.Nil(t, a.Allocate(768, 1), "only 512 bytes left")

	second := a.Allocate(500, 1)
	require.NotNil(t, second)
	assert.Equal(t, uint64(512), second.Offset)

	assert.Nil(t, a.Allocate(50, 1))

	tail := a.Allocate(12, 1)
	require.NotNil(t, tail)
	assert.Equal(t, uint64(1012), tail.Offset)
	assert.Equal(t, uint64(1024), a.Used())

	assert.Nil(t, a.Allocate(1, 1), "region exactly full")

	a.Free(second)
	again := a.Allocate(500, 1)
	require.NotNil(t, again)
	assert.Equal(t, uint64(512), again.Offset, "reuses the freed gap")

	a.Free(first)
	head := a.Allocate(20, 1)
	require.NotNil(t, head)
	assert.Equal(t, uint64(0), head.Offset, "fills from the head")

	a.Free(head)
	a.Free(head)
	assert.Len(t, a.allocs, 2)
}

func TestAllocatorAlignment(t *testing.T) {
	a := LinearAllocator{Size: 1024}

	for i := 0; i < 4; i++ {
		r := a.Allocate(100, 256)
		require.NotNil(t, r, "region %d", i)
		assert.Equal(t, uint64(i*256), r.Offset)
	}
	assert.Nil(t, a.Allocate(100, 256))
}

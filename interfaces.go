package vkframe

import (
	vk "github.com/vulkan-go/vulkan"
)

// Window is the windowing system as the renderer sees it. The glfw adapter
// in examples/viewer is one implementation.
type Window interface {
	FramebufferSizer

	ShouldClose() bool
	PollEvents()
	// Resized reports whether the framebuffer changed size since the last
	// call, and clears the flag.
	Resized() bool

	// RequiredInstanceExtensions lists the instance extensions the window
	// system needs to create a surface.
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type BufferObject interface {
	Bytes() []byte
}

// VertexSource is interleaved vertex data plus the layout the pipeline reads
// it with.
type VertexSource interface {
	BufferObject
	VertexLayout() VertexLayout
}

type IndexSource interface {
	BufferObject
	IndexType() vk.IndexType
	IndexCount() uint32
}

// MeshSource supplies the geometry drawn by the renderer. Vertices and
// indices are uploaded into one device local buffer, vertices first.
type MeshSource interface {
	Vertices() VertexSource
	Indices() IndexSource
}

// IndexSize is the size in bytes of one index of type t.
func IndexSize(t vk.IndexType) uint64 {
	if t == vk.IndexTypeUint16 {
		return 2
	}
	return 4
}

// UploadMesh uploads m and returns the buffer with the Geometry that draws
// it. The indices start on a multiple of their size.
func UploadMesh(t *TransferEngine, m MeshSource) (*DeviceBuffer, Geometry, error) {
	usage := vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit | vk.BufferUsageIndexBufferBit)
	payloads := [][]byte{m.Vertices().Bytes(), m.Indices().Bytes()}
	buf, err := t.UploadAligned(payloads, IndexSize(m.Indices().IndexType()), usage)
	if err != nil {
		return nil, Geometry{}, err
	}
	return buf, Geometry{
		Buffer:      buf.Buffer,
		IndexOffset: buf.Offsets[1],
		IndexCount:  m.Indices().IndexCount(),
	}, nil
}

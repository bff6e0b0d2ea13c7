package vkframe

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Transform is the per frame uniform record consumed by the vertex shader.
type Transform struct {
	Model mgl32.Mat4
	View  mgl32.Mat4
	Proj  mgl32.Mat4
}

// TransformSize is the size of Transform in bytes.
const TransformSize = uint64(unsafe.Sizeof(Transform{}))

// Bytes returns the raw, column major bytes of t.
func (t *Transform) Bytes() []byte {
	return SliceBytes([]Transform{*t})
}

// NewViewProjection returns a Transform with an identity model matrix and
// view and projection matrices for a camera at eye looking at center. The
// projection Y axis is flipped for Vulkan clip space.
func NewViewProjection(eye, center, up mgl32.Vec3, fovy, aspect float32) Transform {
	proj := mgl32.Perspective(mgl32.DegToRad(fovy), aspect, 0.1, 100.0)
	proj[5] *= -1
	return Transform{
		Model: mgl32.Ident4(),
		View:  mgl32.LookAtV(eye, center, up),
		Proj:  proj,
	}
}

// Mesh places an object in the world. Rotation is in degrees around X, Y
// and Z, applied in that order.
type Mesh struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// NewMesh returns a mesh at the origin with unit scale.
func NewMesh() *Mesh {
	return &Mesh{Scale: mgl32.Vec3{1, 1, 1}}
}

// Transform composes translate * rotate * scale.
func (m *Mesh) Transform() mgl32.Mat4 {
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(m.Rotation.Z())).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(m.Rotation.Y()))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(m.Rotation.X())))
	return mgl32.Translate3D(m.Position.X(), m.Position.Y(), m.Position.Z()).
		Mul4(rot).
		Mul4(mgl32.Scale3D(m.Scale.X(), m.Scale.Y(), m.Scale.Z()))
}

// UniformStream is one host visible buffer split into a region per frame in
// flight. The memory stays mapped for the life of the stream, so writes are
// plain copies.
type UniformStream struct {
	driver  MemoryDriver
	buffer  *BoundBuffer
	destroy func(*BoundBuffer)
	mapped  []byte
	regions []*Allocation
}

// NewUniformStream creates frames regions of size bytes each, every region
// starting on a multiple of align.
func NewUniformStream(d MemoryDriver, frames int, size, align uint64) (*UniformStream, error) {
	if frames <= 0 || size == 0 {
		return nil, errors.Errorf("uniform stream needs frames and size, got %d x %d", frames, size)
	}

	stride := makeAlignUp(size, align)
	alloc := LinearAllocator{Size: stride * uint64(frames)}
	regions := make([]*Allocation, frames)
	for i := range regions {
		regions[i] = alloc.Allocate(size, align)
		if regions[i] == nil {
			return nil, errors.Errorf("uniform region %d does not fit", i)
		}
	}

	buffer, destroy, err := CreateBoundBuffer(d, alloc.Size, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), HostVisibleCoherent)
	if err != nil {
		return nil, err
	}
	mapped, err := d.MapMemory(buffer.Memory, 0, alloc.Size)
	if err != nil {
		destroy(buffer)
		return nil, err
	}

	return &UniformStream{
		driver:  d,
		buffer:  buffer,
		destroy: destroy,
		mapped:  mapped,
		regions: regions,
	}, nil
}

// Buffer is the uniform buffer descriptors point at.
func (u *UniformStream) Buffer() *Buffer {
	return u.buffer.Buffer
}

// Frames is the number of regions.
func (u *UniformStream) Frames() int {
	return len(u.regions)
}

// Region returns the offset and size of frame's region.
func (u *UniformStream) Region(frame int) (offset, size uint64) {
	r := u.regions[frame]
	return r.Offset, r.Size
}

// Write copies data into frame's region. The fence of that frame must have
// been waited on.
func (u *UniformStream) Write(frame int, data []byte) error {
	if frame < 0 || frame >= len(u.regions) {
		return errors.Errorf("uniform frame %d out of range [0, %d)", frame, len(u.regions))
	}
	r := u.regions[frame]
	if uint64(len(data)) > r.Size {
		return errors.Errorf("uniform write of %d bytes exceeds region of %d", len(data), r.Size)
	}
	copy(u.mapped[r.Offset:r.End()], data)
	return nil
}

func (u *UniformStream) Destroy() {
	if u.buffer == nil {
		return
	}
	u.driver.UnmapMemory(u.buffer.Memory)
	u.destroy(u.buffer)
	u.buffer = nil
	u.mapped = nil
}

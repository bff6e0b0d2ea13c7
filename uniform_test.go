package vkframe

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestUniformStreamRegions(t *testing.T) {
	d := newFakeDriver()
	u, err := NewUniformStream(d, 2, TransformSize, 256)
	require.NoError(t, err)

	assert.Equal(t, 2, u.Frames())
	off, size := u.Region(0)
	assert.Equal(t, uint64(0), off)
	assert.Equal(t, TransformSize, size)
	off, size = u.Region(1)
	assert.Equal(t, uint64(256), off)
	assert.Equal(t, TransformSize, size)

	assert.Equal(t, uint64(512), u.Buffer().Size)
	assert.NotZero(t, d.usage[u.Buffer()]&vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit))
	assert.True(t, d.mapped[d.bound[u.Buffer()]], "mapped for the life of the stream")

	u.Destroy()
	u.Destroy()
	assert.Equal(t, 0, d.liveCount(""))
	d.assertClean(t)
}

func TestUniformStreamWrite(t *testing.T) {
	d := newFakeDriver()
	u, err := NewUniformStream(d, 3, 16, 64)
	require.NoError(t, err)
	mem := d.memory[d.bound[u.Buffer()]]

	require.NoError(t, u.Write(1, []byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 3, 4}, mem[64:68])
	assert.Equal(t, make([]byte, 64), mem[:64], "frame 0 untouched")

	assert.Error(t, u.Write(3, []byte{1}))
	assert.Error(t, u.Write(-1, []byte{1}))
	assert.Error(t, u.Write(0, make([]byte, 17)))

	u.Destroy()
	d.assertClean(t)
}

func TestUniformStreamInvalid(t *testing.T) {
	d := newFakeDriver()
	_, err := NewUniformStream(d, 0, 16, 1)
	assert.Error(t, err)
	_, err = NewUniformStream(d, 2, 0, 1)
	assert.Error(t, err)
	assert.Empty(t, d.created)
}

func TestTransformBytes(t *testing.T) {
	assert.Equal(t, uint64(192), TransformSize)

	tr := Transform{Model: mgl32.Ident4(), View: mgl32.Ident4(), Proj: mgl32.Ident4()}
	tr.View[12] = 5
	b := tr.Bytes()
	require.Len(t, b, 192)
	assert.Equal(t, SliceBytes([]float32{5}), b[64+12*4:64+13*4], "column major")
}

func TestNewViewProjection(t *testing.T) {
	eye := mgl32.Vec3{2, 2, 2}
	tr := NewViewProjection(eye, mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 45, 4.0/3.0)

	assert.Equal(t, mgl32.Ident4(), tr.Model)
	gl := mgl32.Perspective(mgl32.DegToRad(45), 4.0/3.0, 0.1, 100)
	assert.Equal(t, -gl[5], tr.Proj[5], "Y flipped for Vulkan")
	assert.Equal(t, gl[0], tr.Proj[0])

	p := tr.View.Mul4x1(eye.Vec4(1))
	assert.InDelta(t, 0, p.Len()-1, 1e-5, "eye sits at the view origin")
}

func TestMeshTransform(t *testing.T) {
	m := NewMesh()
	assert.Equal(t, mgl32.Ident4(), m.Transform())

	m.Position = mgl32.Vec3{1, 2, 3}
	m.Scale = mgl32.Vec3{2, 2, 2}
	p := m.Transform().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.True(t, p.ApproxEqual(mgl32.Vec4{3, 2, 3, 1}), "%v", p)

	m = NewMesh()
	m.Rotation = mgl32.Vec3{0, 0, 90}
	p = m.Transform().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	want := mgl32.Vec4{0, 1, 0, 1}
	for i := range want {
		assert.InDelta(t, want[i], p[i], 1e-6, "component %d of %v", i, p)
	}
}

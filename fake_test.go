package vkframe

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

var errInjected = errors.New("injected failure")

// fakeDriver implements Driver in memory. Objects are identified by pointer.
// Memory is backed by byte slices and copies run when their command buffer
// is submitted. A submitted fence stays pending until it is waited on or the
// device or queue goes idle. Misuse that Vulkan would reject is collected in
// violations instead of failing the call.
type fakeDriver struct {
	live      map[any]string
	created   map[string]int
	destroyed []string

	memory    map[*DeviceMemory][]byte
	bound     map[*Buffer]*DeviceMemory
	usage     map[*Buffer]vk.BufferUsageFlags
	mapped    map[*DeviceMemory]bool
	signaled  map[*Fence]bool
	pending   map[*Fence]bool
	lastFence map[*CommandBuffer]*Fence
	recording map[*CommandBuffer]bool
	commands  map[*CommandBuffer][]string
	copies    map[*CommandBuffer][]func()

	submits   []Submission
	presents  []uint32
	waitIdle  int
	queueIdle int
	resets    map[*Fence]int

	acquireResults []vk.Result
	presentResults []vk.Result
	nextImage      uint32

	caps        vk.SurfaceCapabilities
	formats     []vk.SurfaceFormat
	modes       []vk.PresentMode
	imageCount  int
	swapchains  []SwapchainInfo
	depthFormat map[vk.Format]bool

	fail       map[string]error
	violations []string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		live:      make(map[any]string),
		created:   make(map[string]int),
		memory:    make(map[*DeviceMemory][]byte),
		bound:     make(map[*Buffer]*DeviceMemory),
		usage:     make(map[*Buffer]vk.BufferUsageFlags),
		mapped:    make(map[*DeviceMemory]bool),
		signaled:  make(map[*Fence]bool),
		pending:   make(map[*Fence]bool),
		lastFence: make(map[*CommandBuffer]*Fence),
		recording: make(map[*CommandBuffer]bool),
		commands:  make(map[*CommandBuffer][]string),
		copies:    make(map[*CommandBuffer][]func()),
		resets:    make(map[*Fence]int),
		caps: vk.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32},
			MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		},
		formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		modes:       []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		imageCount:  3,
		depthFormat: map[vk.Format]bool{vk.FormatD32Sfloat: true},
		fail:        make(map[string]error),
	}
}

func (f *fakeDriver) violate(format string, args ...any) {
	f.violations = append(f.violations, fmt.Sprintf(format, args...))
}

func (f *fakeDriver) create(kind string, obj any) error {
	if err := f.fail[kind]; err != nil {
		return err
	}
	f.live[obj] = kind
	f.created[kind]++
	return nil
}

func (f *fakeDriver) destroy(kind string, obj any) {
	if k, ok := f.live[obj]; !ok || k != kind {
		f.violate("destroy of unknown %s", kind)
		return
	}
	delete(f.live, obj)
	f.destroyed = append(f.destroyed, kind)
}

// liveCount counts live objects of kind, or all of them for "".
func (f *fakeDriver) liveCount(kind string) int {
	n := 0
	for _, k := range f.live {
		if kind == "" || k == kind {
			n++
		}
	}
	return n
}

func (f *fakeDriver) complete() {
	for fence := range f.pending {
		f.signaled[fence] = true
	}
	clear(f.pending)
}

func (f *fakeDriver) assertClean(t *testing.T) {
	t.Helper()
	assert.Empty(t, f.violations)
}

func (f *fakeDriver) CreateSemaphore() (*Semaphore, error) {
	s := &Semaphore{}
	return s, f.create("semaphore", s)
}

func (f *fakeDriver) DestroySemaphore(s *Semaphore) { f.destroy("semaphore", s) }

func (f *fakeDriver) CreateFence(signaled bool) (*Fence, error) {
	fence := &Fence{}
	if err := f.create("fence", fence); err != nil {
		return nil, err
	}
	f.signaled[fence] = signaled
	return fence, nil
}

func (f *fakeDriver) DestroyFence(fence *Fence) {
	if f.pending[fence] {
		f.violate("destroy of pending fence")
	}
	f.destroy("fence", fence)
}

func (f *fakeDriver) WaitForFence(fence *Fence, timeout uint64) error {
	if f.pending[fence] {
		delete(f.pending, fence)
		f.signaled[fence] = true
	}
	if !f.signaled[fence] {
		f.violate("wait on a fence that will never signal")
	}
	return nil
}

func (f *fakeDriver) ResetFence(fence *Fence) error {
	if f.pending[fence] {
		f.violate("reset of pending fence")
	}
	f.signaled[fence] = false
	f.resets[fence]++
	return nil
}

func (f *fakeDriver) AllocateCommandBuffers(pool *CommandPool, count int) ([]*CommandBuffer, error) {
	if err := f.fail["commandbuffer"]; err != nil {
		return nil, err
	}
	cbs := make([]*CommandBuffer, count)
	for i := range cbs {
		cbs[i] = &CommandBuffer{Pool: pool}
		_ = f.create("commandbuffer", cbs[i])
	}
	return cbs, nil
}

func (f *fakeDriver) FreeCommandBuffers(pool *CommandPool, buffers ...*CommandBuffer) {
	for _, cb := range buffers {
		if fence := f.lastFence[cb]; fence != nil && f.pending[fence] {
			f.violate("free of command buffer in flight")
		}
		f.destroy("commandbuffer", cb)
	}
}

func (f *fakeDriver) checkIdle(cb *CommandBuffer, op string) {
	if fence := f.lastFence[cb]; fence != nil && f.pending[fence] {
		f.violate("%s of command buffer in flight", op)
	}
}

func (f *fakeDriver) BeginCommandBuffer(cb *CommandBuffer, oneTime bool) error {
	f.checkIdle(cb, "begin")
	if f.recording[cb] {
		f.violate("begin while recording")
	}
	f.recording[cb] = true
	f.commands[cb] = nil
	f.copies[cb] = nil
	return nil
}

func (f *fakeDriver) EndCommandBuffer(cb *CommandBuffer) error {
	if !f.recording[cb] {
		f.violate("end without begin")
	}
	f.recording[cb] = false
	f.record(cb, "end")
	return nil
}

func (f *fakeDriver) ResetCommandBuffer(cb *CommandBuffer) error {
	f.checkIdle(cb, "reset")
	f.recording[cb] = false
	f.commands[cb] = nil
	f.copies[cb] = nil
	return nil
}

func (f *fakeDriver) record(cb *CommandBuffer, format string, args ...any) {
	f.commands[cb] = append(f.commands[cb], fmt.Sprintf(format, args...))
}

func (f *fakeDriver) CmdBeginRenderPass(cb *CommandBuffer, rp *RenderPass, fb *Framebuffer, extent vk.Extent2D, clears []vk.ClearValue) {
	f.record(cb, "beginRenderPass %dx%d clears=%d", extent.Width, extent.Height, len(clears))
}

func (f *fakeDriver) CmdEndRenderPass(cb *CommandBuffer) { f.record(cb, "endRenderPass") }

func (f *fakeDriver) CmdBindPipeline(cb *CommandBuffer, p *Pipeline) { f.record(cb, "bindPipeline") }

func (f *fakeDriver) CmdSetViewport(cb *CommandBuffer, viewport vk.Viewport) {
	f.record(cb, "setViewport %vx%v", viewport.Width, viewport.Height)
}

func (f *fakeDriver) CmdSetScissor(cb *CommandBuffer, scissor vk.Rect2D) {
	f.record(cb, "setScissor %dx%d", scissor.Extent.Width, scissor.Extent.Height)
}

func (f *fakeDriver) CmdBindDescriptorSet(cb *CommandBuffer, layout *PipelineLayout, set *DescriptorSet) {
	f.record(cb, "bindDescriptorSet")
}

func (f *fakeDriver) CmdBindVertexBuffer(cb *CommandBuffer, b *Buffer, offset uint64) {
	f.record(cb, "bindVertexBuffer %d", offset)
}

func (f *fakeDriver) CmdBindIndexBuffer(cb *CommandBuffer, b *Buffer, offset uint64, indexType vk.IndexType) {
	f.record(cb, "bindIndexBuffer %d", offset)
}

func (f *fakeDriver) CmdDrawIndexed(cb *CommandBuffer, indexCount uint32) {
	f.record(cb, "drawIndexed %d", indexCount)
}

func (f *fakeDriver) CmdCopyBuffer(cb *CommandBuffer, src, dst *Buffer, size uint64) {
	f.record(cb, "copyBuffer %d", size)
	f.copies[cb] = append(f.copies[cb], func() {
		copy(f.memory[f.bound[dst]][:size], f.memory[f.bound[src]][:size])
	})
}

func (f *fakeDriver) CmdCopyBufferToImage(cb *CommandBuffer, src *Buffer, dst *Image, extent vk.Extent2D) {
	f.record(cb, "copyBufferToImage %dx%d", extent.Width, extent.Height)
}

func (f *fakeDriver) CmdPipelineBarrier(cb *CommandBuffer, barrier ImageBarrier) {
	f.record(cb, "barrier %d->%d", barrier.OldLayout, barrier.NewLayout)
}

func (f *fakeDriver) QueueSubmit(q *Queue, s Submission) error {
	if err := f.fail["submit"]; err != nil {
		return err
	}
	if s.Fence != nil {
		if f.signaled[s.Fence] || f.pending[s.Fence] {
			f.violate("submit with a fence that is not reset")
		}
		f.pending[s.Fence] = true
	}
	for _, cb := range s.CommandBuffers {
		if f.recording[cb] {
			f.violate("submit while recording")
		}
		for _, c := range f.copies[cb] {
			c()
		}
		f.lastFence[cb] = s.Fence
	}
	f.submits = append(f.submits, s)
	return nil
}

func (f *fakeDriver) QueueWaitIdle(q *Queue) error {
	f.queueIdle++
	f.complete()
	return nil
}

func (f *fakeDriver) AcquireNextImage(sc *Swapchain, signal *Semaphore, timeout uint64) (uint32, vk.Result) {
	res := vk.Success
	if len(f.acquireResults) > 0 {
		res = f.acquireResults[0]
		f.acquireResults = f.acquireResults[1:]
	}
	if res != vk.Success && res != vk.Suboptimal {
		return 0, res
	}
	i := f.nextImage % uint32(f.imageCount)
	f.nextImage++
	return i, res
}

func (f *fakeDriver) QueuePresent(q *Queue, sc *Swapchain, imageIndex uint32, wait *Semaphore) vk.Result {
	f.presents = append(f.presents, imageIndex)
	if len(f.presentResults) > 0 {
		res := f.presentResults[0]
		f.presentResults = f.presentResults[1:]
		return res
	}
	return vk.Success
}

func (f *fakeDriver) CreateBuffer(size uint64, usage vk.BufferUsageFlags) (*Buffer, error) {
	b := &Buffer{Size: size}
	if err := f.create("buffer", b); err != nil {
		return nil, err
	}
	f.usage[b] = usage
	return b, nil
}

func (f *fakeDriver) DestroyBuffer(b *Buffer) { f.destroy("buffer", b) }

func (f *fakeDriver) AllocateBufferMemory(b *Buffer, props vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	m := &DeviceMemory{Size: b.Size}
	if err := f.create("memory", m); err != nil {
		return nil, err
	}
	f.memory[m] = make([]byte, b.Size)
	f.bound[b] = m
	return m, nil
}

func (f *fakeDriver) AllocateImageMemory(i *Image, props vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	size := uint64(i.Extent.Width) * uint64(i.Extent.Height) * 4
	m := &DeviceMemory{Size: size}
	if err := f.create("memory", m); err != nil {
		return nil, err
	}
	f.memory[m] = make([]byte, size)
	return m, nil
}

func (f *fakeDriver) FreeMemory(m *DeviceMemory) {
	if f.mapped[m] {
		f.violate("free of mapped memory")
	}
	f.destroy("memory", m)
}

func (f *fakeDriver) MapMemory(m *DeviceMemory, offset, size uint64) ([]byte, error) {
	if f.mapped[m] {
		f.violate("memory mapped twice")
	}
	if offset+size > m.Size {
		return nil, errors.Errorf("map [%d, %d) of %d bytes", offset, offset+size, m.Size)
	}
	f.mapped[m] = true
	return f.memory[m][offset : offset+size], nil
}

func (f *fakeDriver) UnmapMemory(m *DeviceMemory) {
	if !f.mapped[m] {
		f.violate("unmap of unmapped memory")
	}
	f.mapped[m] = false
}

func (f *fakeDriver) CreateImage(info ImageInfo) (*Image, error) {
	i := &Image{VKFormat: info.Format, Extent: info.Extent}
	return i, f.create("image", i)
}

func (f *fakeDriver) DestroyImage(i *Image) { f.destroy("image", i) }

func (f *fakeDriver) CreateImageView(i *Image, aspect vk.ImageAspectFlags) (*ImageView, error) {
	v := &ImageView{Image: i}
	return v, f.create("imageview", v)
}

func (f *fakeDriver) DestroyImageView(v *ImageView) { f.destroy("imageview", v) }

func (f *fakeDriver) CreateFramebuffer(rp *RenderPass, extent vk.Extent2D, attachments ...*ImageView) (*Framebuffer, error) {
	if rp != nil && len(attachments) != rp.Attachments {
		f.violate("framebuffer with %d attachments for a render pass with %d", len(attachments), rp.Attachments)
	}
	fb := &Framebuffer{}
	return fb, f.create("framebuffer", fb)
}

func (f *fakeDriver) DestroyFramebuffer(fb *Framebuffer) { f.destroy("framebuffer", fb) }

func (f *fakeDriver) FormatSupported(format vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) bool {
	return f.depthFormat[format]
}

func (f *fakeDriver) SurfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error) {
	return f.caps, nil
}

func (f *fakeDriver) SurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	return f.formats, nil
}

func (f *fakeDriver) SurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	return f.modes, nil
}

func (f *fakeDriver) CreateSwapchain(info SwapchainInfo) (*Swapchain, error) {
	sc := &Swapchain{Extent: info.Extent, Format: info.Format.Format}
	if err := f.create("swapchain", sc); err != nil {
		return nil, err
	}
	f.swapchains = append(f.swapchains, info)
	return sc, nil
}

func (f *fakeDriver) SwapchainImages(sc *Swapchain) ([]*Image, error) {
	images := make([]*Image, f.imageCount)
	for i := range images {
		images[i] = &Image{VKFormat: sc.Format, Extent: sc.Extent}
	}
	return images, nil
}

func (f *fakeDriver) DestroySwapchain(sc *Swapchain) { f.destroy("swapchain", sc) }

func (f *fakeDriver) WaitIdle() error {
	f.waitIdle++
	f.complete()
	return nil
}

var _ Driver = (*fakeDriver)(nil)

// fakeWindow reports the sizes in sizes one per call, repeating the last.
type fakeWindow struct {
	sizes      [][2]int
	waitEvents int
}

func (w *fakeWindow) FramebufferSize() (int, int) {
	s := w.sizes[0]
	if len(w.sizes) > 1 {
		w.sizes = w.sizes[1:]
	}
	return s[0], s[1]
}

func (w *fakeWindow) WaitEvents() {
	w.waitEvents++
}

func newFakeWindow(width, height int) *fakeWindow {
	return &fakeWindow{sizes: [][2]int{{width, height}}}
}

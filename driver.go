package vkframe

import (
	vk "github.com/vulkan-go/vulkan"
)

// SyncDriver creates and waits on fences and semaphores.
type SyncDriver interface {
	CreateSemaphore() (*Semaphore, error)
	DestroySemaphore(s *Semaphore)
	CreateFence(signaled bool) (*Fence, error)
	DestroyFence(f *Fence)
	WaitForFence(f *Fence, timeout uint64) error
	ResetFence(f *Fence) error
}

// CommandDriver allocates command buffers and records commands into them.
type CommandDriver interface {
	AllocateCommandBuffers(pool *CommandPool, count int) ([]*CommandBuffer, error)
	FreeCommandBuffers(pool *CommandPool, buffers ...*CommandBuffer)
	BeginCommandBuffer(cb *CommandBuffer, oneTime bool) error
	EndCommandBuffer(cb *CommandBuffer) error
	ResetCommandBuffer(cb *CommandBuffer) error

	CmdBeginRenderPass(cb *CommandBuffer, rp *RenderPass, fb *Framebuffer, extent vk.Extent2D, clears []vk.ClearValue)
	CmdEndRenderPass(cb *CommandBuffer)
	CmdBindPipeline(cb *CommandBuffer, p *Pipeline)
	CmdSetViewport(cb *CommandBuffer, viewport vk.Viewport)
	CmdSetScissor(cb *CommandBuffer, scissor vk.Rect2D)
	CmdBindDescriptorSet(cb *CommandBuffer, layout *PipelineLayout, set *DescriptorSet)
	CmdBindVertexBuffer(cb *CommandBuffer, b *Buffer, offset uint64)
	CmdBindIndexBuffer(cb *CommandBuffer, b *Buffer, offset uint64, indexType vk.IndexType)
	CmdDrawIndexed(cb *CommandBuffer, indexCount uint32)
	CmdCopyBuffer(cb *CommandBuffer, src, dst *Buffer, size uint64)
	CmdCopyBufferToImage(cb *CommandBuffer, src *Buffer, dst *Image, extent vk.Extent2D)
	CmdPipelineBarrier(cb *CommandBuffer, barrier ImageBarrier)
}

// QueueDriver submits work and talks to the presentation engine. Acquire and
// present return the raw result so callers can tell the transient swapchain
// results apart from failures.
type QueueDriver interface {
	QueueSubmit(q *Queue, s Submission) error
	QueueWaitIdle(q *Queue) error
	AcquireNextImage(sc *Swapchain, signal *Semaphore, timeout uint64) (uint32, vk.Result)
	QueuePresent(q *Queue, sc *Swapchain, imageIndex uint32, wait *Semaphore) vk.Result
}

// MemoryDriver manages buffers and the memory bound to them.
type MemoryDriver interface {
	CreateBuffer(size uint64, usage vk.BufferUsageFlags) (*Buffer, error)
	DestroyBuffer(b *Buffer)
	AllocateBufferMemory(b *Buffer, props vk.MemoryPropertyFlags) (*DeviceMemory, error)
	AllocateImageMemory(i *Image, props vk.MemoryPropertyFlags) (*DeviceMemory, error)
	FreeMemory(m *DeviceMemory)
	MapMemory(m *DeviceMemory, offset, size uint64) ([]byte, error)
	UnmapMemory(m *DeviceMemory)
}

// ImageDriver manages images, views and framebuffers.
type ImageDriver interface {
	CreateImage(info ImageInfo) (*Image, error)
	DestroyImage(i *Image)
	CreateImageView(i *Image, aspect vk.ImageAspectFlags) (*ImageView, error)
	DestroyImageView(v *ImageView)
	CreateFramebuffer(rp *RenderPass, extent vk.Extent2D, attachments ...*ImageView) (*Framebuffer, error)
	DestroyFramebuffer(fb *Framebuffer)
	FormatSupported(format vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) bool
}

// SwapchainDriver queries a surface and manages the swapchain built on it.
type SwapchainDriver interface {
	SurfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error)
	SurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error)
	SurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error)
	CreateSwapchain(info SwapchainInfo) (*Swapchain, error)
	SwapchainImages(sc *Swapchain) ([]*Image, error)
	DestroySwapchain(sc *Swapchain)
}

// Driver is every device operation the frame loop, the swapchain manager and
// the transfer engine need. *Device implements it on top of Vulkan.
type Driver interface {
	SyncDriver
	CommandDriver
	QueueDriver
	MemoryDriver
	ImageDriver
	SwapchainDriver

	WaitIdle() error
}

// Submission describes one vkQueueSubmit batch. Nil semaphores and fence are
// left out of the submit.
type Submission struct {
	CommandBuffers []*CommandBuffer
	Wait           *Semaphore
	WaitStage      vk.PipelineStageFlags
	Signal         *Semaphore
	Fence          *Fence
}

// ImageBarrier is a layout transition with its masks already resolved.
type ImageBarrier struct {
	Image     *Image
	Aspect    vk.ImageAspectFlags
	OldLayout vk.ImageLayout
	NewLayout vk.ImageLayout
	Transition
}

// ImageInfo describes a 2D single mip image.
type ImageInfo struct {
	Extent vk.Extent2D
	Format vk.Format
	Tiling vk.ImageTiling
	Usage  vk.ImageUsageFlags
}

var _ Driver = (*Device)(nil)

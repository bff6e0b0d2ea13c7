/*
Package vkframe is the frame orchestration core of a small Vulkan renderer: it owns the
swapchain and everything derived from it, keeps a bounded number of frames in flight on
the GPU and moves vertex, index, texture and uniform data from host memory into device
memory.

The package builds on the thin wrappers around Vulkan objects (Device, Buffer, Image,
Fence and so on), each of which exposes the native handle in a field prefixed with VK, so
callers are never limited by what the package wraps.

Ownership

Every device object is owned by exactly one Handle, and handles are collected in Scopes.
A Scope releases its children in the reverse of the order they were adopted, so an object
created after its dependencies is always destroyed before them. Shutdown and swapchain
recreation share this path:

	root scope
		command pool, render pass, descriptor pool, pipeline, geometry, texture, uniforms
		frame scope: semaphores, fences, command buffers
		swapchain scope: swapchain, image views, depth image, framebuffers

Frames

A FrameSynchronizer owns MaxFramesInFlight slots of {image available semaphore, render
finished semaphore, in flight fence, command buffer}. Each call to DrawFrame:

	1. waits on the slot's fence
	2. acquires the next swapchain image
	3. resets the fence
	4. writes the slot's uniform region
	5. records the slot's command buffer through the CommandRecorder
	6. submits, waiting at the color attachment output stage
	7. presents
	8. advances to the next slot

An out of date swapchain at acquire rebuilds the swapchain and skips the frame. After
presenting, an out of date or suboptimal result or a window resize reported through
FlagResize rebuilds it as well. The SwapchainManager waits for the device to go idle and
for the window to have a non-zero size before rebuilding.

Transfers

The TransferEngine packs payloads into a host visible staging buffer, copies them into a
device local buffer or image with a single time command buffer and waits for the queue to
go idle before returning. Image uploads are bracketed by layout transitions looked up in a
fixed table; any other layout pair is an error.

Device access

Components talk to the device through the Driver interface, which *Device implements on top
of github.com/vulkan-go/vulkan. Tests implement it in memory.

Logging is off by default; see SetLogger.
*/
package vkframe

package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultMaxFramesInFlight is the number of frame slots used when none is
// configured.
const DefaultMaxFramesInFlight = 2

// Recorder fills a frame slot's command buffer for the acquired swapchain
// image.
type Recorder interface {
	Record(cb *CommandBuffer, imageIndex uint32, frame int) error
}

// FrameStats counts what the synchronizer has done so far.
type FrameStats struct {
	// Drawn frames were submitted and presented.
	Drawn int
	// Aborted frames found the swapchain out of date at acquire.
	Aborted int
	// Recreations of the swapchain triggered by DrawFrame.
	Recreations int
}

// FrameSyncConfig wires a FrameSynchronizer to its queues and command pool.
type FrameSyncConfig struct {
	MaxFramesInFlight int
	GraphicsQueue     *Queue
	PresentQueue      *Queue
	CommandPool       *CommandPool
	// UpdateUniforms, if set, runs once per frame after the slot's fence was
	// waited on and before its command buffer is recorded.
	UpdateUniforms func(frame int, extent vk.Extent2D) error
}

type frameSlot struct {
	imageAvailable *Semaphore
	renderFinished *Semaphore
	inFlight       *Fence
	cmd            *CommandBuffer
}

// FrameSynchronizer keeps up to MaxFramesInFlight frames queued on the GPU.
// Each slot has its own semaphores, fence and command buffer, and the CPU
// only touches a slot after its fence has signaled. A FrameSynchronizer is
// driven from a single goroutine.
type FrameSynchronizer struct {
	driver    Driver
	swapchain *SwapchainManager
	recorder  Recorder
	config    FrameSyncConfig

	scope        *Scope
	slots        []frameSlot
	currentFrame int
	resized      bool
	stats        FrameStats
}

// NewFrameSynchronizer creates the frame slots. The fences start signaled so
// the first wait on every slot returns at once. Command buffers are
// re-recorded whenever the swapchain manager rebuilds the swapchain.
func NewFrameSynchronizer(d Driver, swapchain *SwapchainManager, recorder Recorder, config FrameSyncConfig) (*FrameSynchronizer, error) {
	if config.MaxFramesInFlight <= 0 {
		config.MaxFramesInFlight = DefaultMaxFramesInFlight
	}
	if config.PresentQueue == nil {
		config.PresentQueue = config.GraphicsQueue
	}

	f := &FrameSynchronizer{
		driver:    d,
		swapchain: swapchain,
		recorder:  recorder,
		config:    config,
		scope:     NewScope("frames"),
	}

	if err := f.createSlots(); err != nil {
		f.scope.Release()
		return nil, err
	}

	swapchain.OnRecreate(f.rerecord)

	return f, nil
}

func (f *FrameSynchronizer) createSlots() error {
	d := f.driver
	n := f.config.MaxFramesInFlight

	cmds, err := d.AllocateCommandBuffers(f.config.CommandPool, n)
	if err != nil {
		return err
	}
	f.scope.Adopt(DestroyFunc(func() {
		d.FreeCommandBuffers(f.config.CommandPool, cmds...)
	}))

	f.slots = make([]frameSlot, n)
	for i := range f.slots {
		s := &f.slots[i]
		s.cmd = cmds[i]

		if s.imageAvailable, err = d.CreateSemaphore(); err != nil {
			return err
		}
		adopt(f.scope, s.imageAvailable, d.DestroySemaphore)

		if s.renderFinished, err = d.CreateSemaphore(); err != nil {
			return err
		}
		adopt(f.scope, s.renderFinished, d.DestroySemaphore)

		if s.inFlight, err = d.CreateFence(true); err != nil {
			return err
		}
		adopt(f.scope, s.inFlight, d.DestroyFence)
	}
	return nil
}

// CurrentFrame is the index of the slot the next DrawFrame will use.
func (f *FrameSynchronizer) CurrentFrame() int {
	return f.currentFrame
}

// MaxFramesInFlight is the number of frame slots.
func (f *FrameSynchronizer) MaxFramesInFlight() int {
	return len(f.slots)
}

func (f *FrameSynchronizer) Stats() FrameStats {
	return f.stats
}

// FlagResize records that the window was resized since the last frame. The
// swapchain is rebuilt after the next present.
func (f *FrameSynchronizer) FlagResize() {
	f.resized = true
}

// DrawFrame renders and presents one frame using the current slot.
//
// An out of date swapchain at acquire rebuilds the swapchain and returns
// without submitting anything; the next call retries with the same slot. A
// suboptimal acquire still renders. After presenting, an out of date or
// suboptimal result or a flagged resize rebuilds the swapchain. Every other
// failure is returned.
func (f *FrameSynchronizer) DrawFrame() error {
	d := f.driver
	slot := &f.slots[f.currentFrame]

	if err := d.WaitForFence(slot.inFlight, vk.MaxUint64); err != nil {
		return err
	}

	state := f.swapchain.Current()
	imageIndex, res := d.AcquireNextImage(state.Swapchain, slot.imageAvailable, vk.MaxUint64)
	switch res {
	case vk.Success:
	case vk.Suboptimal:
		Logger().Warn("swapchain suboptimal at acquire", "frame", f.currentFrame)
	case vk.ErrorOutOfDate:
		f.stats.Aborted++
		Logger().Debug("swapchain out of date at acquire", "frame", f.currentFrame)
		return f.recreate()
	default:
		return errors.Wrap(vk.Error(res), "vkAcquireNextImageKHR")
	}

	Logger().Debug("acquired image", "frame", f.currentFrame, "image", imageIndex)

	if err := d.ResetFence(slot.inFlight); err != nil {
		return err
	}

	if f.config.UpdateUniforms != nil {
		if err := f.config.UpdateUniforms(f.currentFrame, state.Extent); err != nil {
			return err
		}
	}

	if err := d.ResetCommandBuffer(slot.cmd); err != nil {
		return err
	}
	if err := f.recorder.Record(slot.cmd, imageIndex, f.currentFrame); err != nil {
		return err
	}

	err := d.QueueSubmit(f.config.GraphicsQueue, Submission{
		CommandBuffers: []*CommandBuffer{slot.cmd},
		Wait:           slot.imageAvailable,
		WaitStage:      vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		Signal:         slot.renderFinished,
		Fence:          slot.inFlight,
	})
	if err != nil {
		return err
	}

	res = d.QueuePresent(f.config.PresentQueue, state.Swapchain, imageIndex, slot.renderFinished)
	if res != vk.Success && res != vk.Suboptimal && res != vk.ErrorOutOfDate {
		return errors.Wrap(vk.Error(res), "vkQueuePresentKHR")
	}
	f.stats.Drawn++
	f.currentFrame = (f.currentFrame + 1) % len(f.slots)

	if res != vk.Success || f.resized {
		f.resized = false
		return f.recreate()
	}
	return nil
}

func (f *FrameSynchronizer) recreate() error {
	f.stats.Recreations++
	return f.swapchain.Recreate()
}

// rerecord records every slot against the rebuilt framebuffers. The swapchain
// manager waits for the device to go idle before rebuilding, so every slot's
// previous submission has finished.
func (f *FrameSynchronizer) rerecord(state *SwapchainState) error {
	n := state.ImageCount()
	for i := range f.slots {
		cmd := f.slots[i].cmd
		if err := f.driver.ResetCommandBuffer(cmd); err != nil {
			return err
		}
		if err := f.recorder.Record(cmd, uint32(i%n), i); err != nil {
			return err
		}
	}
	return nil
}

// Destroy waits for every slot's last submission and releases the slots.
func (f *FrameSynchronizer) Destroy() {
	for i := range f.slots {
		if err := f.driver.WaitForFence(f.slots[i].inFlight, vk.MaxUint64); err != nil {
			Logger().Warn("waiting for frame slot", "frame", i, "error", err)
		}
	}
	f.scope.Release()
	f.slots = nil
}

package vkframe

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

// QueueSubmit submits one batch. The wait semaphore, signal semaphore and
// fence are optional.
func (d *Device) QueueSubmit(q *Queue, s Submission) error {
	var submitInfo = vk.SubmitInfo{}
	submitInfo.SType = vk.StructureTypeSubmitInfo

	b := make([]vk.CommandBuffer, len(s.CommandBuffers))
	for i := range s.CommandBuffers {
		b[i] = s.CommandBuffers[i].VKCommandBuffer
	}
	submitInfo.CommandBufferCount = uint32(len(b))
	submitInfo.PCommandBuffers = b

	if s.Wait != nil {
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{s.Wait.VKSemaphore}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{s.WaitStage}
	}
	if s.Signal != nil {
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{s.Signal.VKSemaphore}
	}

	fence := vk.NullFence
	if s.Fence != nil {
		fence = s.Fence.VKFence
	}

	err := vk.Error(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence))
	return errors.Wrap(err, "vkQueueSubmit")
}

func (d *Device) QueueWaitIdle(q *Queue) error {
	return errors.Wrap(vk.Error(vk.QueueWaitIdle(q.VKQueue)), "vkQueueWaitIdle")
}

// AcquireNextImage asks the presentation engine for the next image and
// returns the raw result so ErrorOutOfDate and Suboptimal can be handled.
func (d *Device) AcquireNextImage(sc *Swapchain, signal *Semaphore, timeout uint64) (uint32, vk.Result) {
	var imageIndex uint32
	res := vk.AcquireNextImage(d.VKDevice, sc.VKSwapchain, timeout, signal.VKSemaphore, vk.NullFence, &imageIndex)
	return imageIndex, res
}

// QueuePresent queues imageIndex for presentation once wait is signaled.
func (d *Device) QueuePresent(q *Queue, sc *Swapchain, imageIndex uint32, wait *Semaphore) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.VKSwapchain},
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.VKSemaphore},
		PImageIndices:      []uint32{imageIndex},
	}
	return vk.QueuePresent(q.VKQueue, &presentInfo)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}

package vkframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

type frameHarness struct {
	driver    *fakeDriver
	window    *fakeWindow
	swapchain *SwapchainManager
	frames    *FrameSynchronizer
	uniforms  []int
}

func newFrameHarness(t *testing.T, maxFrames int) *frameHarness {
	t.Helper()
	h := &frameHarness{driver: newFakeDriver(), window: newFakeWindow(800, 600)}
	d := h.driver

	rp := &RenderPass{Attachments: 1}
	h.swapchain = NewSwapchainManager(d, h.window, SwapchainConfig{RenderPass: rp})
	require.NoError(t, h.swapchain.Create())

	sets := make([]*DescriptorSet, maxFrames)
	for i := range sets {
		sets[i] = &DescriptorSet{}
	}
	recorder := NewCommandRecorder(d, h.swapchain, rp, &Pipeline{}, &PipelineLayout{}, sets,
		Geometry{Buffer: &Buffer{}, IndexOffset: 64, IndexCount: 6},
		RecorderConfig{DynamicViewport: true, IndexType: vk.IndexTypeUint32})

	var err error
	h.frames, err = NewFrameSynchronizer(d, h.swapchain, recorder, FrameSyncConfig{
		MaxFramesInFlight: maxFrames,
		GraphicsQueue:     &Queue{},
		CommandPool:       &CommandPool{},
		UpdateUniforms: func(frame int, extent vk.Extent2D) error {
			h.uniforms = append(h.uniforms, frame)
			return nil
		},
	})
	require.NoError(t, err)
	return h
}

func (h *frameHarness) submittedFences() []*Fence {
	fences := make([]*Fence, len(h.driver.submits))
	for i, s := range h.driver.submits {
		fences[i] = s.Fence
	}
	return fences
}

func TestDrawFrameOutOfDateAtAcquire(t *testing.T) {
	h := newFrameHarness(t, 2)
	d := h.driver
	d.acquireResults = []vk.Result{vk.Success, vk.ErrorOutOfDate, vk.Success, vk.Success}

	for i := 0; i < 4; i++ {
		require.NoError(t, h.frames.DrawFrame(), "frame %d", i)
	}

	stats := h.frames.Stats()
	assert.Equal(t, 3, stats.Drawn)
	assert.Equal(t, 1, stats.Aborted)
	assert.Equal(t, 1, stats.Recreations)
	assert.Equal(t, 2, h.swapchain.Generation())

	fences := h.submittedFences()
	require.Len(t, fences, 3)
	assert.Same(t, fences[0], fences[2], "slot 0, slot 1, slot 0")
	assert.NotSame(t, fences[0], fences[1])
	assert.Equal(t, 1, h.frames.CurrentFrame())

	assert.Equal(t, 1, d.resets[fences[1]], "aborted frame did not reset its fence")
	assert.Equal(t, []int{0, 1, 0}, h.uniforms)
	d.assertClean(t)
}

func TestDrawFrameSteadyState(t *testing.T) {
	h := newFrameHarness(t, 2)
	d := h.driver

	for i := 0; i < 10; i++ {
		require.NoError(t, h.frames.DrawFrame())
		assert.Equal(t, (i+1)%2, h.frames.CurrentFrame())
	}

	assert.Len(t, d.submits, 10)
	assert.Equal(t, []uint32{0, 1, 2, 0, 1, 2, 0, 1, 2, 0}, d.presents)
	assert.Equal(t, 1, h.swapchain.Generation())
	for _, s := range d.submits {
		assert.NotNil(t, s.Wait)
		assert.NotNil(t, s.Signal)
		assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), s.WaitStage)
	}
	d.assertClean(t)
}

func TestDrawFrameRecreatesAfterPresent(t *testing.T) {
	h := newFrameHarness(t, 2)
	d := h.driver
	d.presentResults = []vk.Result{vk.Suboptimal, vk.Success, vk.ErrorOutOfDate}

	for i := 0; i < 3; i++ {
		require.NoError(t, h.frames.DrawFrame())
	}

	stats := h.frames.Stats()
	assert.Equal(t, 3, stats.Drawn, "frames were presented before rebuilding")
	assert.Equal(t, 0, stats.Aborted)
	assert.Equal(t, 2, stats.Recreations)
	assert.Equal(t, 1, h.frames.CurrentFrame())
	d.assertClean(t)
}

func TestDrawFrameResizeFlag(t *testing.T) {
	h := newFrameHarness(t, 2)

	h.frames.FlagResize()
	require.NoError(t, h.frames.DrawFrame())
	assert.Equal(t, 1, h.frames.Stats().Recreations)

	require.NoError(t, h.frames.DrawFrame())
	assert.Equal(t, 1, h.frames.Stats().Recreations, "flag cleared by the rebuild")
	h.driver.assertClean(t)
}

func TestDrawFrameSuboptimalAcquireRenders(t *testing.T) {
	h := newFrameHarness(t, 2)
	h.driver.acquireResults = []vk.Result{vk.Suboptimal}

	require.NoError(t, h.frames.DrawFrame())
	assert.Len(t, h.driver.submits, 1)
	assert.Equal(t, 0, h.frames.Stats().Recreations)
}

func TestDrawFrameErrors(t *testing.T) {
	h := newFrameHarness(t, 2)
	h.driver.acquireResults = []vk.Result{vk.ErrorDeviceLost}

	err := h.frames.DrawFrame()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vkAcquireNextImageKHR")
	assert.Empty(t, h.driver.submits)
	assert.Equal(t, 0, h.frames.CurrentFrame())

	h = newFrameHarness(t, 2)
	h.driver.presentResults = []vk.Result{vk.ErrorDeviceLost}
	err = h.frames.DrawFrame()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vkQueuePresentKHR")

	assert.Equal(t, 0, h.frames.Stats().Drawn, "failed present is not counted")
	assert.Equal(t, 0, h.frames.CurrentFrame())

	h = newFrameHarness(t, 2)
	h.driver.fail["submit"] = errInjected
	assert.Equal(t, errInjected, h.frames.DrawFrame())
}

func TestDrawFrameResizeDoesNotHidePresentError(t *testing.T) {
	h := newFrameHarness(t, 2)
	h.frames.FlagResize()
	h.driver.presentResults = []vk.Result{vk.ErrorDeviceLost}

	err := h.frames.DrawFrame()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vkQueuePresentKHR")
	assert.Equal(t, 0, h.frames.Stats().Recreations)
	assert.Equal(t, 1, h.swapchain.Generation())
}

func TestFrameSynchronizerDestroy(t *testing.T) {
	h := newFrameHarness(t, 3)
	d := h.driver
	assert.Equal(t, 3, h.frames.MaxFramesInFlight())
	assert.Equal(t, 6, d.liveCount("semaphore"))
	assert.Equal(t, 3, d.liveCount("fence"))
	assert.Equal(t, 3, d.liveCount("commandbuffer"))

	for i := 0; i < 4; i++ {
		require.NoError(t, h.frames.DrawFrame())
	}

	h.frames.Destroy()
	assert.Equal(t, 0, d.liveCount("semaphore"))
	assert.Equal(t, 0, d.liveCount("fence"))
	assert.Equal(t, 0, d.liveCount("commandbuffer"))

	h.swapchain.Destroy()
	assert.Equal(t, 0, d.liveCount(""))
	d.assertClean(t)
}

func TestFrameSynchronizerDefaults(t *testing.T) {
	h := newFrameHarness(t, 0)
	assert.Equal(t, DefaultMaxFramesInFlight, h.frames.MaxFramesInFlight())
}

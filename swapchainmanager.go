package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrNoDepthFormat is returned when none of the depth format candidates can
// be used as a depth attachment.
var ErrNoDepthFormat = errors.New("no supported depth format")

var depthFormatCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// FindDepthFormat returns the first candidate usable as an optimally tiled
// depth stencil attachment.
func FindDepthFormat(d ImageDriver) (vk.Format, error) {
	for _, f := range depthFormatCandidates {
		if d.FormatSupported(f, vk.ImageTilingOptimal, vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)) {
			return f, nil
		}
	}
	return vk.FormatUndefined, ErrNoDepthFormat
}

// FramebufferSizer is the part of the window the swapchain needs: the current
// framebuffer size in pixels, and a way to block until something happens
// while the window is minimized.
type FramebufferSizer interface {
	FramebufferSize() (width, height int)
	WaitEvents()
}

// ImageTransitioner moves an image between layouts outside of a frame.
type ImageTransitioner interface {
	TransitionImage(img *Image, old, new vk.ImageLayout) error
}

// SwapchainConfig is fixed for the lifetime of a SwapchainManager.
type SwapchainConfig struct {
	Surface        vk.Surface
	GraphicsFamily uint32
	PresentFamily  uint32
	RenderPass     *RenderPass
	// DepthFormat of the depth attachment, FormatUndefined for none.
	DepthFormat vk.Format
	Vsync       bool
	// Transitioner, when set, moves the depth image into its attachment
	// layout right after creation.
	Transitioner ImageTransitioner
}

// SwapchainState is everything derived from one swapchain. The image, view
// and framebuffer slices always have the same length.
type SwapchainState struct {
	Swapchain    *Swapchain
	Format       vk.Format
	Extent       vk.Extent2D
	Images       []*Image
	Views        []*ImageView
	Depth        *BoundImage
	DepthView    *ImageView
	Framebuffers []*Framebuffer
}

// ImageCount is the number of swapchain images.
func (s *SwapchainState) ImageCount() int {
	return len(s.Images)
}

// SwapchainManager creates the swapchain and everything that depends on it,
// and rebuilds that set when the surface changes. Nothing that outlives a
// swapchain is touched by Recreate.
type SwapchainManager struct {
	driver Driver
	window FramebufferSizer
	config SwapchainConfig

	scope      *Scope
	state      *SwapchainState
	generation int
	onRecreate []func(*SwapchainState) error
}

func NewSwapchainManager(d Driver, window FramebufferSizer, config SwapchainConfig) *SwapchainManager {
	return &SwapchainManager{
		driver: d,
		window: window,
		config: config,
		scope:  NewScope("swapchain"),
	}
}

// Current returns the live swapchain state, or nil before Create.
func (m *SwapchainManager) Current() *SwapchainState {
	return m.state
}

// Generation counts how many times the swapchain has been built.
func (m *SwapchainManager) Generation() int {
	return m.generation
}

// OnRecreate registers f to run after every successful Recreate.
func (m *SwapchainManager) OnRecreate(f func(*SwapchainState) error) {
	m.onRecreate = append(m.onRecreate, f)
}

// Create builds the swapchain, its image views, the depth attachment and one
// framebuffer per image. If any step fails everything built so far is
// released.
func (m *SwapchainManager) Create() error {
	support, err := QuerySupport(m.driver, m.config.Surface)
	if err != nil {
		return err
	}

	width, height := m.window.FramebufferSize()
	info := NewSwapchainInfo(m.config.Surface, support, width, height,
		m.config.GraphicsFamily, m.config.PresentFamily, m.config.Vsync)

	scope := NewScope("swapchain")
	state, err := m.build(scope, info)
	if err != nil {
		scope.Release()
		return err
	}

	m.scope = scope
	m.state = state
	m.generation++

	Logger().Info("swapchain created",
		"generation", m.generation,
		"width", state.Extent.Width,
		"height", state.Extent.Height,
		"images", state.ImageCount(),
		"presentMode", info.PresentMode)

	return nil
}

func (m *SwapchainManager) build(scope *Scope, info SwapchainInfo) (*SwapchainState, error) {
	d := m.driver

	sc, err := d.CreateSwapchain(info)
	if err != nil {
		return nil, err
	}
	adopt(scope, sc, d.DestroySwapchain)

	state := &SwapchainState{
		Swapchain: sc,
		Format:    info.Format.Format,
		Extent:    info.Extent,
	}

	state.Images, err = d.SwapchainImages(sc)
	if err != nil {
		return nil, err
	}

	state.Views = make([]*ImageView, len(state.Images))
	for i, img := range state.Images {
		view, err := d.CreateImageView(img, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return nil, err
		}
		state.Views[i] = adopt(scope, view, d.DestroyImageView)
	}

	if m.config.DepthFormat != vk.FormatUndefined {
		if err := m.buildDepth(scope, state); err != nil {
			return nil, err
		}
	}

	state.Framebuffers = make([]*Framebuffer, len(state.Views))
	for i, view := range state.Views {
		attachments := []*ImageView{view}
		if state.DepthView != nil {
			attachments = append(attachments, state.DepthView)
		}
		fb, err := d.CreateFramebuffer(m.config.RenderPass, state.Extent, attachments...)
		if err != nil {
			return nil, err
		}
		state.Framebuffers[i] = adopt(scope, fb, d.DestroyFramebuffer)
	}

	return state, nil
}

func (m *SwapchainManager) buildDepth(scope *Scope, state *SwapchainState) error {
	d := m.driver
	format := m.config.DepthFormat

	depth, destroy, err := CreateBoundImage(d, ImageInfo{
		Extent: state.Extent,
		Format: format,
		Tiling: vk.ImageTilingOptimal,
		Usage:  vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
	}, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return err
	}
	state.Depth = adopt(scope, depth, destroy)

	view, err := d.CreateImageView(depth.Image, AspectFor(format, vk.ImageLayoutDepthStencilAttachmentOptimal))
	if err != nil {
		return err
	}
	state.DepthView = adopt(scope, view, d.DestroyImageView)

	if m.config.Transitioner != nil {
		return m.config.Transitioner.TransitionImage(depth.Image,
			vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal)
	}
	return nil
}

// Recreate waits until the device is idle and the window has a drawable size,
// destroys the whole swapchain-derived set (framebuffers, depth, views, then
// the swapchain) and builds it again. Registered OnRecreate hooks run
// afterwards so command buffers can be re-recorded against the new
// framebuffers.
func (m *SwapchainManager) Recreate() error {
	if err := m.driver.WaitIdle(); err != nil {
		return err
	}

	width, height := m.window.FramebufferSize()
	for width == 0 || height == 0 {
		m.window.WaitEvents()
		width, height = m.window.FramebufferSize()
	}

	m.scope.Release()
	m.state = nil

	if err := m.Create(); err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}

	for _, f := range m.onRecreate {
		if err := f(m.state); err != nil {
			return err
		}
	}
	return nil
}

// Destroy releases the swapchain and everything derived from it.
func (m *SwapchainManager) Destroy() {
	if m.scope == nil {
		return
	}
	m.scope.Release()
	m.state = nil
}

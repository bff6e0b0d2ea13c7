package vkframe

import (
	"image"
	"image/color"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RendererOptions configures NewRenderer.
type RendererOptions struct {
	Config *Config
	Window Window
	Mesh   MeshSource
	// Texture overrides Config.Assets.Texture. With neither set a checkerboard
	// is used.
	Texture *image.RGBA
	// Animate returns the transform for a frame. The default spins the mesh
	// around Z in front of a fixed camera.
	Animate func(elapsed time.Duration, extent vk.Extent2D) Transform
}

// Renderer draws one textured, indexed mesh into a window. It owns every
// Vulkan object it creates in a single root scope.
//
// See https://vulkan-tutorial.com/ for a walkthrough of the objects built
// here.
type Renderer struct {
	Instance       *Instance
	PhysicalDevice *PhysicalDevice
	Device         *Device
	Surface        vk.Surface
	GraphicsQueue  *Queue
	PresentQueue   *Queue

	Transfer  *TransferEngine
	Swapchain *SwapchainManager
	Frames    *FrameSynchronizer
	Uniforms  *UniformStream

	config  *Config
	window  Window
	animate func(time.Duration, vk.Extent2D) Transform
	start   time.Time
	root    *Scope
}

// NewRenderer builds the whole ownership tree: instance, surface, device and
// queues, command pool, render pass, descriptors, pipeline, geometry and
// texture, uniform stream, swapchain and frame slots. Vulkan must have been
// initialized. On failure everything created so far is destroyed.
func NewRenderer(options RendererOptions) (*Renderer, error) {
	if options.Window == nil || options.Mesh == nil {
		return nil, errors.New("renderer needs a window and a mesh")
	}
	if options.Config == nil {
		options.Config = DefaultConfig()
	}
	if err := options.Config.Validate(); err != nil {
		return nil, err
	}

	r := &Renderer{
		config:  options.Config,
		window:  options.Window,
		animate: options.Animate,
		root:    NewScope("renderer"),
	}
	if r.animate == nil {
		r.animate = spin
	}

	assets, err := loadAssets(options.Config.Assets, options.Texture)
	if err != nil {
		return nil, err
	}

	if err := r.init(options, assets); err != nil {
		r.root.Release()
		return nil, err
	}
	return r, nil
}

// rendererAssets is everything read from disk, loaded before any Vulkan
// object exists.
type rendererAssets struct {
	vertexShader   []byte
	fragmentShader []byte
	texture        *image.RGBA
}

// loadAssets reads both shaders and the texture. texture, when given, takes
// the place of the configured file; with neither a checkerboard is used.
func loadAssets(cfg AssetsConfig, texture *image.RGBA) (*rendererAssets, error) {
	vert, err := ReadShaderFile(cfg.VertexShader)
	if err != nil {
		return nil, err
	}
	frag, err := ReadShaderFile(cfg.FragmentShader)
	if err != nil {
		return nil, err
	}
	if texture == nil && cfg.Texture != "" {
		if texture, err = LoadTexture(cfg.Texture, cfg.MaxTextureSize); err != nil {
			return nil, err
		}
	}
	if texture == nil {
		texture = CheckerTexture(256, 8, color.White, color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xff})
	}
	return &rendererAssets{vertexShader: vert, fragmentShader: frag, texture: texture}, nil
}

func (r *Renderer) init(options RendererOptions, assets *rendererAssets) error {
	cfg := r.config

	if err := r.createDevice(); err != nil {
		return err
	}
	d := r.Device

	pool, err := d.CreateCommandPool(r.GraphicsQueue.QueueFamily)
	if err != nil {
		return err
	}
	adopt(r.root, pool, d.DestroyCommandPool)

	support, err := QuerySupport(d, r.Surface)
	if err != nil {
		return err
	}
	rpConfig := RenderPassConfig{ColorFormat: ChooseSurfaceFormat(support.Formats).Format}
	if cfg.Renderer.Depth {
		if rpConfig.DepthFormat, err = FindDepthFormat(d); err != nil {
			return err
		}
	}
	rp, err := d.CreateRenderPass(rpConfig)
	if err != nil {
		return err
	}
	adopt(r.root, rp, d.DestroyRenderPass)

	frames := cfg.Renderer.MaxFramesInFlight

	dsl, err := d.CreateDescriptorSetLayout(d.NewDescriptorSetLayout().
		AddUniformBuffer(0, vk.ShaderStageVertexBit).
		AddCombinedImageSampler(1, vk.ShaderStageFragmentBit))
	if err != nil {
		return err
	}
	adopt(r.root, dsl, d.DestroyDescriptorSetLayout)

	dp, err := d.CreateDescriptorPool(d.NewDescriptorPool().
		AddPoolSize(vk.DescriptorTypeUniformBuffer, frames).
		AddPoolSize(vk.DescriptorTypeCombinedImageSampler, frames), frames)
	if err != nil {
		return err
	}
	adopt(r.root, dp, d.DestroyDescriptorPool)

	sets, err := dp.Allocate(dsl, frames)
	if err != nil {
		return err
	}

	layout, pipeline, err := r.createPipeline(rp, dsl, options.Mesh.Vertices().VertexLayout(), assets)
	if err != nil {
		return err
	}

	r.Transfer = NewTransferEngine(d, pool, r.GraphicsQueue)

	geometryBuffer, geometry, err := UploadMesh(r.Transfer, options.Mesh)
	if err != nil {
		return err
	}
	adopt(r.root, geometryBuffer, r.Transfer.DestroyBuffer)

	view, sampler, err := r.createTexture(assets.texture)
	if err != nil {
		return err
	}

	r.Uniforms, err = NewUniformStream(d, frames, TransformSize, d.PhysicalDevice.MinUniformBufferOffsetAlignment())
	if err != nil {
		return err
	}
	r.root.Adopt(r.Uniforms)

	for i, set := range sets {
		offset, size := r.Uniforms.Region(i)
		set.AddBuffer(0, vk.DescriptorTypeUniformBuffer, r.Uniforms.Buffer(), offset, size).
			AddCombinedImageSampler(1, vk.ImageLayoutShaderReadOnlyOptimal, view, sampler).
			Write()
	}

	r.Swapchain = NewSwapchainManager(d, r.window, SwapchainConfig{
		Surface:        r.Surface,
		GraphicsFamily: uint32(r.GraphicsQueue.QueueFamily.Index),
		PresentFamily:  uint32(r.PresentQueue.QueueFamily.Index),
		RenderPass:     rp,
		DepthFormat:    rpConfig.DepthFormat,
		Vsync:          cfg.Renderer.Vsync,
		Transitioner:   r.Transfer,
	})
	if err := r.Swapchain.Create(); err != nil {
		return err
	}
	r.root.Adopt(r.Swapchain)

	recorder := NewCommandRecorder(d, r.Swapchain, rp, pipeline, layout, sets, geometry, RecorderConfig{
		Depth:           rpConfig.HasDepth(),
		DynamicViewport: pipeline.DynamicViewport,
		ClearColor:      cfg.Renderer.ClearColor,
		IndexType:       options.Mesh.Indices().IndexType(),
	})

	r.Frames, err = NewFrameSynchronizer(d, r.Swapchain, recorder, FrameSyncConfig{
		MaxFramesInFlight: frames,
		GraphicsQueue:     r.GraphicsQueue,
		PresentQueue:      r.PresentQueue,
		CommandPool:       pool,
		UpdateUniforms:    r.updateUniforms,
	})
	if err != nil {
		return err
	}
	r.root.Adopt(r.Frames)

	r.start = time.Now()
	return nil
}

func (r *Renderer) createDevice() error {
	app := &App{Name: r.config.Window.Title, EngineName: "vkframe"}
	for _, ext := range r.window.RequiredInstanceExtensions() {
		app.EnableExtension(ext)
	}
	if r.config.Renderer.Validation {
		app.EnableDebugging()
	}

	instance, err := app.CreateInstance()
	if err != nil {
		return err
	}
	r.Instance = instance
	r.root.Adopt(instance)

	r.Surface, err = r.window.CreateSurface(instance.VKInstance)
	if err != nil {
		return errors.Wrap(err, "create surface")
	}
	adopt(r.root, r.Surface, instance.DestroySurface)

	devices, err := instance.PhysicalDevices()
	if err != nil {
		return err
	}
	for _, pd := range devices {
		err := pd.Suitable(r.Surface)
		if err == nil {
			r.PhysicalDevice = pd
			break
		}
		Logger().Info("skipping physical device", "device", pd.DeviceName, "reason", err)
	}
	if r.PhysicalDevice == nil {
		return errors.Errorf("none of %d physical devices can present", len(devices))
	}

	families, err := r.PhysicalDevice.QueueFamilies()
	if err != nil {
		return err
	}
	graphics, present, err := families.GraphicsAndPresent(r.Surface)
	if err != nil {
		return err
	}

	r.Device, err = r.PhysicalDevice.CreateLogicalDeviceWithOptions(QueueFamilySlice{graphics, present}, &CreateDeviceOptions{
		EnabledExtensions: []string{SwapchainExtension},
		SamplerAnisotropy: r.config.Renderer.Anisotropy,
	})
	if err != nil {
		return err
	}
	r.root.Adopt(r.Device)

	r.GraphicsQueue = r.Device.GetQueue(graphics)
	r.PresentQueue = r.Device.GetQueue(present)

	Logger().Info("device created", "device", r.PhysicalDevice.DeviceName,
		"graphicsFamily", graphics.Index, "presentFamily", present.Index)
	return nil
}

func (r *Renderer) createPipeline(rp *RenderPass, dsl *DescriptorSetLayout, vertices VertexLayout, assets *rendererAssets) (*PipelineLayout, *Pipeline, error) {
	d := r.Device

	layout, err := d.CreatePipelineLayout(dsl)
	if err != nil {
		return nil, nil, err
	}
	adopt(r.root, layout, d.DestroyPipelineLayout)

	vert, err := d.CreateShaderModule(r.config.Assets.VertexShader, assets.vertexShader)
	if err != nil {
		return nil, nil, err
	}
	defer d.DestroyShaderModule(vert)
	frag, err := d.CreateShaderModule(r.config.Assets.FragmentShader, assets.fragmentShader)
	if err != nil {
		return nil, nil, err
	}
	defer d.DestroyShaderModule(frag)

	cache, err := d.CreatePipelineCache()
	if err != nil {
		return nil, nil, err
	}
	adopt(r.root, cache, d.DestroyPipelineCache)

	config := NewGraphicsPipelineConfig().
		AddShaderStage(vert, "main", vk.ShaderStageVertexBit).
		AddShaderStage(frag, "main", vk.ShaderStageFragmentBit).
		AddVertexLayout(vertices).
		SetDepth(r.config.Renderer.Depth).
		SetDynamicState(vk.DynamicStateViewport, vk.DynamicStateScissor).
		SetPipelineLayout(layout)

	width, height := r.window.FramebufferSize()
	pipeline, err := d.CreateGraphicsPipeline(cache, config, rp, vk.Extent2D{Width: uint32(width), Height: uint32(height)})
	if err != nil {
		return nil, nil, err
	}
	adopt(r.root, pipeline, d.DestroyPipeline)

	return layout, pipeline, nil
}

func (r *Renderer) createTexture(img *image.RGBA) (*ImageView, *Sampler, error) {
	d := r.Device

	texture, destroy, err := r.Transfer.UploadTexture(img)
	if err != nil {
		return nil, nil, err
	}
	adopt(r.root, texture, destroy)

	view, err := d.CreateImageView(texture.Image, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, nil, err
	}
	adopt(r.root, view, d.DestroyImageView)

	sampler, err := d.CreateSampler(SamplerOptions{
		AddressMode: vk.SamplerAddressModeRepeat,
		Anisotropy:  r.config.Renderer.Anisotropy,
	})
	if err != nil {
		return nil, nil, err
	}
	adopt(r.root, sampler, d.DestroySampler)

	return view, sampler, nil
}

func (r *Renderer) updateUniforms(frame int, extent vk.Extent2D) error {
	t := r.animate(time.Since(r.start), extent)
	return r.Uniforms.Write(frame, t.Bytes())
}

func spin(elapsed time.Duration, extent vk.Extent2D) Transform {
	aspect := float32(extent.Width) / float32(max(extent.Height, 1))
	t := NewViewProjection(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, 45, aspect)
	m := NewMesh()
	m.Rotation[2] = float32(elapsed.Seconds()) * 90
	t.Model = m.Transform()
	return t
}

// Run draws frames until the window asks to close.
func (r *Renderer) Run() error {
	for !r.window.ShouldClose() {
		r.window.PollEvents()
		if r.window.Resized() {
			r.Frames.FlagResize()
		}
		if err := r.Frames.DrawFrame(); err != nil {
			return err
		}
	}
	return r.Device.WaitIdle()
}

// Destroy waits for the device to go idle and releases everything in reverse
// creation order.
func (r *Renderer) Destroy() {
	if r.Device != nil {
		if err := r.Device.WaitIdle(); err != nil {
			Logger().Warn("waiting for device idle", "error", err)
		}
	}
	Logger().Info("destroying renderer", "frames", r.Frames.Stats().Drawn)
	r.root.Release()
}

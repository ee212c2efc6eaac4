package renderer

import (
	"errors"
	"fmt"

	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"

	"github.com/koru3d/puna/core"
	"github.com/koru3d/puna/device"
)

var (
	// ErrSwapchainCreationFailed is returned when the swapchain could
	// not be negotiated with the surface
	ErrSwapchainCreationFailed = errors.New("swapchain creation failed")

	// ErrShaderLoadFailed is returned when the configured shader source
	// yields no usable vertex and fragment shader pair
	ErrShaderLoadFailed = errors.New("shader loading failed")

	// ErrPipelineCreationFailed is returned when the graphics pipeline
	// or its layout could not be created
	ErrPipelineCreationFailed = errors.New("graphics pipeline creation failed")

	// ErrResourceCreationFailed is returned when an image view, render
	// pass or framebuffer could not be created
	ErrResourceCreationFailed = errors.New("rendering resource creation failed")
)

// Renderer describes the rendering machinery.
// It's created only with internal values set,
// it needs to be initialised with Initialise() before use.
type Renderer interface {
	// Initialise sets up the configured rendering pipeline
	Initialise() error

	// DeviceIsSuitable checks if the device given is suitable
	// for the rendering pipeline. If not suitable string contains the reason
	DeviceIsSuitable(vk.PhysicalDevice) (bool, string)

	// Destroy destroys internal members
	Destroy()
}

// NewVulkanRenderer creates a Vulkan API renderer
func NewVulkanRenderer(instance core.Instance, logical *device.Logical, cfg core.RendererConfiguration) Renderer {
	return &VulkanRenderer{
		configuration: cfg,
		instance:      instance,
		logical:       logical,
	}
}

// VulkanRenderer is a Vulkan API renderer
type VulkanRenderer struct {
	Renderer

	configuration core.RendererConfiguration

	instance core.Instance
	logical  *device.Logical

	surface vk.Surface
	device  vk.Device

	swapchain            vk.Swapchain
	swapchainImages      []vk.Image
	swapchainImageViews  []vk.ImageView
	swapchainImageFormat vk.Format
	swapchainExtent      vk.Extent2D

	renderPass     vk.RenderPass
	pipelineLayout vk.PipelineLayout
	pipeline       vk.Pipeline
	framebuffers   []vk.Framebuffer

	teardown core.Teardown
}

// Initialise implements interface
func (v *VulkanRenderer) Initialise() error {
	v.surface = v.instance.Surface()
	v.device = v.logical.Device

	if v.surface == vk.NullSurface {
		log.Error("cannot initialise the renderer without a bound surface")
		return ErrSwapchainCreationFailed
	}

	if err := v.createSwapchain(); err != nil {
		v.teardown.Run()
		return err
	}
	if err := v.createImageViews(); err != nil {
		v.teardown.Run()
		return err
	}
	if err := v.createRenderPass(); err != nil {
		v.teardown.Run()
		return err
	}
	if err := v.createPipeline(); err != nil {
		v.teardown.Run()
		return err
	}
	if err := v.createFramebuffers(); err != nil {
		v.teardown.Run()
		return err
	}
	return nil
}

// DeviceIsSuitable implements interface
func (v *VulkanRenderer) DeviceIsSuitable(physical vk.PhysicalDevice) (bool, string) {
	return device.Suitable(physical, v.instance.Surface(), v.configuration.DeviceExtensions)
}

func (v *VulkanRenderer) createSwapchain() error {
	var capabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(v.logical.Physical, v.surface, &capabilities)); err != nil {
		return fmt.Errorf("vk.GetPhysicalDeviceSurfaceCapabilities(): %s", err.Error())
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	formats, err := surfaceFormats(v.logical.Physical, v.surface)
	if err != nil {
		return err
	}
	presentModes, err := surfacePresentModes(v.logical.Physical, v.surface)
	if err != nil {
		return err
	}

	format := selectSurfaceFormat(formats)
	presentMode := selectPresentMode(presentModes)
	extent := selectExtent(capabilities, v.configuration.ScreenWidth, v.configuration.ScreenHeight)
	imageCount := selectImageCount(capabilities)

	families := device.ResolveQueueFamilies(v.logical.Physical, v.surface)
	sharingMode, familyIndices := selectSharingMode(families)

	scci := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               v.surface,
		MinImageCount:         imageCount,
		ImageFormat:           format.Format,
		ImageColorSpace:       format.ColorSpace,
		ImageExtent:           extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      sharingMode,
		QueueFamilyIndexCount: uint32(len(familyIndices)),
		PQueueFamilyIndices:   familyIndices,
		PreTransform:          capabilities.CurrentTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           presentMode,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}

	var swapchain vk.Swapchain
	if result := vk.CreateSwapchain(v.device, &scci, nil, &swapchain); result != vk.Success {
		log.WithField("result", result).Error(ErrSwapchainCreationFailed.Error())
		return ErrSwapchainCreationFailed
	}
	v.swapchain = swapchain
	v.swapchainImageFormat = format.Format
	v.swapchainExtent = extent
	v.teardown.Push("swapchain", func() {
		vk.DestroySwapchain(v.device, v.swapchain, nil)
	})

	var swapchainImageCount uint32
	if err := vk.Error(vk.GetSwapchainImages(v.device, v.swapchain, &swapchainImageCount, nil)); err != nil {
		return fmt.Errorf("vk.GetSwapchainImages(): %s", err.Error())
	}
	v.swapchainImages = make([]vk.Image, swapchainImageCount)
	if err := vk.Error(vk.GetSwapchainImages(v.device, v.swapchain, &swapchainImageCount, v.swapchainImages)); err != nil {
		return fmt.Errorf("vk.GetSwapchainImages(): %s", err.Error())
	}

	log.WithFields(log.Fields{
		"images":  swapchainImageCount,
		"format":  format.Format,
		"mode":    presentMode,
		"sharing": sharingMode,
		"width":   extent.Width,
		"height":  extent.Height,
	}).Debug("swapchain created")
	return nil
}

func (v *VulkanRenderer) createImageViews() error {
	v.swapchainImageViews = make([]vk.ImageView, len(v.swapchainImages))
	for idx, image := range v.swapchainImages {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   v.swapchainImageFormat,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}

		var view vk.ImageView
		if result := vk.CreateImageView(v.device, &ivci, nil, &view); result != vk.Success {
			for _, created := range v.swapchainImageViews[:idx] {
				vk.DestroyImageView(v.device, created, nil)
			}
			v.swapchainImageViews = nil
			log.WithFields(log.Fields{"image": idx, "result": result}).Error(ErrResourceCreationFailed.Error())
			return ErrResourceCreationFailed
		}
		v.swapchainImageViews[idx] = view
	}
	v.teardown.Push("image views", func() {
		for _, view := range v.swapchainImageViews {
			vk.DestroyImageView(v.device, view, nil)
		}
	})
	return nil
}

func (v *VulkanRenderer) createRenderPass() error {
	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments: []vk.AttachmentDescription{{
			Format:         v.swapchainImageFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		}},
		SubpassCount: 1,
		PSubpasses: []vk.SubpassDescription{{
			PipelineBindPoint:    vk.PipelineBindPointGraphics,
			ColorAttachmentCount: 1,
			PColorAttachments: []vk.AttachmentReference{{
				Attachment: 0,
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			}},
		}},
	}

	var renderPass vk.RenderPass
	if result := vk.CreateRenderPass(v.device, &rpci, nil, &renderPass); result != vk.Success {
		log.WithField("result", result).Error(ErrResourceCreationFailed.Error())
		return ErrResourceCreationFailed
	}
	v.renderPass = renderPass
	v.teardown.Push("render pass", func() {
		vk.DestroyRenderPass(v.device, v.renderPass, nil)
	})
	return nil
}

func (v *VulkanRenderer) loadShaders() ([]ShaderData, error) {
	switch {
	case v.configuration.ShaderDirectory != "":
		return ShadersFromDirectory(v.configuration.ShaderDirectory)
	case v.configuration.ShaderArchive != "":
		return ShadersFromArchive(v.configuration.ShaderArchive)
	case v.configuration.ShaderBox != nil:
		return ShadersFromBox(v.configuration.ShaderBox)
	}
	return nil, errors.New("no shader source configured")
}

func (v *VulkanRenderer) createPipeline() error {
	shaderData, err := v.loadShaders()
	if err != nil {
		log.Error(err.Error())
		return ErrShaderLoadFailed
	}

	var shaders []core.Shader
	defer func() {
		for _, shader := range shaders {
			shader.Destroy()
		}
	}()
	for _, data := range shaderData {
		shader, err := NewVulkanShader(data, v.device)
		if err != nil {
			log.Error(err.Error())
			return ErrShaderLoadFailed
		}
		shaders = append(shaders, shader)
	}

	var vertex, fragment core.Shader
	for _, shader := range shaders {
		switch {
		case vertex == nil && shader.Type() == core.VertexShaderType:
			vertex = shader
		case fragment == nil && shader.Type() == core.FragmentShaderType:
			fragment = shader
		}
	}
	if vertex == nil || fragment == nil {
		log.Error("a vertex and a fragment shader are needed for the pipeline")
		return ErrShaderLoadFailed
	}
	log.WithFields(log.Fields{
		"vertex":   vertex.Name(),
		"fragment": fragment.Name(),
	}).Debug("shaders loaded")

	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	var pipelineLayout vk.PipelineLayout
	if result := vk.CreatePipelineLayout(v.device, &plci, nil, &pipelineLayout); result != vk.Success {
		log.WithField("result", result).Error(ErrPipelineCreationFailed.Error())
		return ErrPipelineCreationFailed
	}
	v.pipelineLayout = pipelineLayout
	v.teardown.Push("pipeline layout", func() {
		vk.DestroyPipelineLayout(v.device, v.pipelineLayout, nil)
	})

	gpci := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: 2,
		PStages: []vk.PipelineShaderStageCreateInfo{{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertex.ShaderModule().(vk.ShaderModule),
			PName:  "main\x00",
		}, {
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragment.ShaderModule().(vk.ShaderModule),
			PName:  "main\x00",
		}},
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports: []vk.Viewport{{
				Width:    float32(v.swapchainExtent.Width),
				Height:   float32(v.swapchainExtent.Height),
				MaxDepth: 1.0,
			}},
			ScissorCount: 1,
			PScissors: []vk.Rect2D{{
				Offset: vk.Offset2D{},
				Extent: v.swapchainExtent,
			}},
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:   vk.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: vk.ColorComponentFlags(
					vk.ColorComponentRBit | vk.ColorComponentGBit |
						vk.ColorComponentBBit | vk.ColorComponentABit),
			}},
		},
		Layout:     v.pipelineLayout,
		RenderPass: v.renderPass,
	}

	pipelines := make([]vk.Pipeline, 1)
	if result := vk.CreateGraphicsPipelines(v.device, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{gpci}, nil, pipelines); result != vk.Success {
		log.WithField("result", result).Error(ErrPipelineCreationFailed.Error())
		return ErrPipelineCreationFailed
	}
	v.pipeline = pipelines[0]
	v.teardown.Push("pipeline", func() {
		vk.DestroyPipeline(v.device, v.pipeline, nil)
	})
	return nil
}

func (v *VulkanRenderer) createFramebuffers() error {
	v.framebuffers = make([]vk.Framebuffer, len(v.swapchainImageViews))
	for idx, view := range v.swapchainImageViews {
		fbci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      v.renderPass,
			AttachmentCount: 1,
			PAttachments:    []vk.ImageView{view},
			Width:           v.swapchainExtent.Width,
			Height:          v.swapchainExtent.Height,
			Layers:          1,
		}

		var framebuffer vk.Framebuffer
		if result := vk.CreateFramebuffer(v.device, &fbci, nil, &framebuffer); result != vk.Success {
			for _, created := range v.framebuffers[:idx] {
				vk.DestroyFramebuffer(v.device, created, nil)
			}
			v.framebuffers = nil
			log.WithFields(log.Fields{"framebuffer": idx, "result": result}).Error(ErrResourceCreationFailed.Error())
			return ErrResourceCreationFailed
		}
		v.framebuffers[idx] = framebuffer
	}
	v.teardown.Push("framebuffers", func() {
		for _, framebuffer := range v.framebuffers {
			vk.DestroyFramebuffer(v.device, framebuffer, nil)
		}
	})
	return nil
}

func surfaceFormats(physical vk.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, nil)); err != nil {
		return nil, fmt.Errorf("vk.GetPhysicalDeviceSurfaceFormats(): %s", err.Error())
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(physical, surface, &formatCount, formats)); err != nil {
		return nil, fmt.Errorf("vk.GetPhysicalDeviceSurfaceFormats(): %s", err.Error())
	}
	for idx := range formats {
		formats[idx].Deref()
	}
	return formats, nil
}

func surfacePresentModes(physical vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
	var modeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &modeCount, nil)); err != nil {
		return nil, fmt.Errorf("vk.GetPhysicalDeviceSurfacePresentModes(): %s", err.Error())
	}
	modes := make([]vk.PresentMode, modeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(physical, surface, &modeCount, modes)); err != nil {
		return nil, fmt.Errorf("vk.GetPhysicalDeviceSurfacePresentModes(): %s", err.Error())
	}
	return modes, nil
}

// Destroy implements interface
func (v *VulkanRenderer) Destroy() {
	if v == nil {
		return
	}
	vk.DeviceWaitIdle(v.device)
	v.teardown.Run()
}

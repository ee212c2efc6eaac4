package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	"github.com/koru3d/puna/core"
	"github.com/koru3d/puna/core/renderer"
	"github.com/koru3d/puna/device"
	"github.com/koru3d/puna/model"
	"github.com/koru3d/puna/utility/kar"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"golang.org/x/exp/mmap"
)

func init() {
	runtime.LockOSThread()
}

// Essential globals
var (
	vkInstance core.Instance
	vkDevice   *device.Logical
	vkRenderer renderer.Renderer
	sdlWindow  *sdl.Window
	sdlSurface unsafe.Pointer

	models *model.Registry

	frameCounter int64
)

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
)

var configuration = core.Configuration{
	Time: core.TimeConfiguration{
		FramesPerSecond: 60,
		EventPollDelay:  50,
	},
	Renderer: core.RendererConfiguration{
		ScreenWidth:  800,
		ScreenHeight: 600,
		// TODO: Make extension name escaping bearable
		DeviceExtensions: []string{
			"VK_KHR_swapchain\x00",
		},
	},
}

var constant float32

// configure applies environment overrides on top of the defaults.
// A .env file in the working directory is honoured when present.
func configure() {
	godotenv.Load()

	if level, err := log.ParseLevel(envy.Get("PUNA_LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}

	if width, err := strconv.ParseUint(envy.Get("PUNA_WIDTH", ""), 10, 32); err == nil {
		configuration.Renderer.ScreenWidth = uint32(width)
	}
	if height, err := strconv.ParseUint(envy.Get("PUNA_HEIGHT", ""), 10, 32); err == nil {
		configuration.Renderer.ScreenHeight = uint32(height)
	}

	configuration.Renderer.ShaderDirectory = envy.Get("PUNA_SHADER_DIR", "")
	configuration.Renderer.ShaderArchive = envy.Get("PUNA_SHADER_ARCHIVE", "")
	if configuration.Renderer.ShaderDirectory == "" && configuration.Renderer.ShaderArchive == "" {
		configuration.Renderer.ShaderBox = packr.NewBox("../../shaders")
	}
}

// loadModels fills a registry with every COLLADA resource found
// in the configured asset archive.
func loadModels() (*model.Registry, error) {
	registry := model.NewRegistry()

	archive := envy.Get("PUNA_ASSET_ARCHIVE", "")
	if archive == "" {
		return registry, nil
	}

	reader, err := mmap.Open(archive)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	assets, err := kar.Open(reader)
	if err != nil {
		return nil, err
	}

	for _, name := range assets.Index() {
		if filepath.Ext(name) != ".dae" {
			continue
		}
		contents, err := assets.ReadAll(name)
		if err != nil {
			return nil, err
		}
		if err := registry.RegisterCollada(name, contents); err != nil {
			return nil, err
		}
		log.WithField("model", name).Info("model registered")
	}
	return registry, nil
}

func newWindow() *sdl.Window {
	window, err := sdl.CreateWindow("Puna",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(configuration.Renderer.ScreenWidth),
		int32(configuration.Renderer.ScreenHeight),
		sdl.WINDOW_VULKAN)
	if err != nil {
		panic(err)
	}
	return window
}

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	configure()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		panic(err)
	}
	defer sdl.VulkanUnloadLibrary()

	sdlWindow = newWindow()

	{
		cfg := core.InstanceConfiguration{
			DebugMode:  *debug,
			Extensions: sdlWindow.VulkanGetInstanceExtensions(),
			Layers:     []string{},
		}

		if vi, err := core.NewVulkanInstance(core.DefaultVulkanApplicationInfo, sdl.VulkanGetVkGetInstanceProcAddr(), cfg); err != nil {
			panic(err)
		} else {
			vkInstance = vi
		}
		defer vkInstance.Destroy()
	}

	if srf, err := sdlWindow.VulkanCreateSurface(vkInstance.Instance()); err != nil {
		panic(err)
	} else {
		sdlSurface = srf
		vkInstance.SetSurface(sdlSurface)
	}

	physicalDevice, err := device.Select(vkInstance.AvailableDevices(), vkInstance.Surface(), configuration.Renderer.DeviceExtensions)
	if err != nil {
		panic(err)
	}

	queueFamilies := device.ResolveQueueFamilies(physicalDevice, vkInstance.Surface())
	log.WithFields(log.Fields{
		"graphics": queueFamilies.Graphics,
		"present":  queueFamilies.Present,
	}).Debug("queue families resolved")

	if dev, err := device.NewLogical(physicalDevice, queueFamilies, device.Configuration{
		Extensions: configuration.Renderer.DeviceExtensions,
	}); err != nil {
		panic(err)
	} else {
		vkDevice = dev
	}
	defer vkDevice.Destroy()

	vkRenderer = renderer.NewVulkanRenderer(vkInstance, vkDevice, configuration.Renderer)

	if suitable, reason := vkRenderer.DeviceIsSuitable(physicalDevice); !suitable {
		panic(reason)
	}

	if err := vkRenderer.Initialise(); err != nil {
		panic(err)
	}
	defer vkRenderer.Destroy()

	if reg, err := loadModels(); err != nil {
		panic(err)
	} else {
		models = reg
	}

	timeService := core.NewTime(configuration.Time)

	ctx, cancel := context.WithCancel(context.Background())

	programSync := sync.WaitGroup{}

	/* Frame counter loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
	CounterLoop:
		for {
			select {
			case <-ctx.Done():
				break CounterLoop
			default:
				currentCount := atomic.LoadInt64(&frameCounter)
				atomic.StoreInt64(&frameCounter, 0)
				fmt.Printf("\r\033[2KFrame count: %d\tCGO calls: %d", currentCount*5, runtime.NumCgoCall())
				time.Sleep(200 * time.Millisecond)
				// 200 ms * 5 = 1s, therefore we need to mutiply the count
			}
		}
		wg.Done()
	}(ctx, &programSync)

	/* Frame loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
	FrameLoop:
		for {
			select {
			case <-ctx.Done():
				break FrameLoop
			case <-timeService.FpsTicker().C:
				rotation := glm.HomogRotate3D(constant, glm.Vec3{0, 0, 1})
				for _, name := range models.Names() {
					if obj, ok := models.Lookup(name); ok {
						obj.SetRotation(rotation)
					}
				}
				constant += 0.005
				atomic.AddInt64(&frameCounter, 1)
			}
		}
		wg.Done()
	}(ctx, &programSync)

	/* Event loop */
EventLoop:
	for {
		select {
		case <-ctx.Done():
			break EventLoop
		case <-timeService.EventTicker().C:
			var event sdl.Event
			for event = sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						cancel()
						continue EventLoop
					}
				case *sdl.QuitEvent:
					cancel()
					continue EventLoop
				}
			}
		}
	}

	programSync.Wait()
	log.Info("event loop exited")

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic(err)
		}
	}
}

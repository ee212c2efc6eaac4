package renderer

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	vk "github.com/devblok/vulkan"
	"github.com/gobuffalo/packd"
	"golang.org/x/exp/mmap"

	"github.com/koru3d/puna/core"
	"github.com/koru3d/puna/utility/kar"
)

const shaderSuffix = ".spv"

// ShaderData is a compiled shader together with its inferred identity
type ShaderData struct {
	Name     string
	Type     core.ShaderType
	Contents []byte
}

// shaderIdentity infers the shader name and type from a file name.
// It is important that the file name does not contain more than two dots,
// the first is always the name of the shader, second is type, and the third one
// ensured that the shader is compiled (only compiled shaders have an .spv extension).
func shaderIdentity(filename string) (string, core.ShaderType, bool) {
	if !strings.HasSuffix(filename, shaderSuffix) {
		return "", core.UnknownShaderType, false
	}
	nodes := strings.Split(strings.TrimSuffix(filename, shaderSuffix), ".")
	if len(nodes) != 2 {
		return "", core.UnknownShaderType, false
	}
	switch nodes[1] {
	case "vert":
		return nodes[0], core.VertexShaderType, true
	case "frag":
		return nodes[0], core.FragmentShaderType, true
	}
	return "", core.UnknownShaderType, false
}

// ShadersFromDirectory loads every compiled shader found under dir.
// All shader files will be loaded.
func ShadersFromDirectory(dir string) ([]ShaderData, error) {
	var shaders []ShaderData
	if err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if f.IsDir() {
			return nil
		}
		name, shaderType, ok := shaderIdentity(f.Name())
		if !ok {
			return nil
		}
		contents, err := ioutil.ReadFile(path)
		if err != nil {
			return err
		}
		shaders = append(shaders, ShaderData{Name: name, Type: shaderType, Contents: contents})
		return nil
	}); err != nil {
		return nil, err
	}
	return shaders, nil
}

// ShadersFromArchive loads every compiled shader packed into a kar archive
func ShadersFromArchive(path string) ([]ShaderData, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	archive, err := kar.Open(reader)
	if err != nil {
		return nil, err
	}

	var shaders []ShaderData
	for _, entry := range archive.Index() {
		name, shaderType, ok := shaderIdentity(filepath.Base(entry))
		if !ok {
			continue
		}
		contents, err := archive.ReadAll(entry)
		if err != nil {
			return nil, err
		}
		shaders = append(shaders, ShaderData{Name: name, Type: shaderType, Contents: contents})
	}
	return shaders, nil
}

// ShadersFromBox collects the compiled shaders bundled into the binary
func ShadersFromBox(box packd.Walker) ([]ShaderData, error) {
	var shaders []ShaderData
	if err := box.Walk(func(path string, file packd.File) error {
		name, shaderType, ok := shaderIdentity(filepath.Base(path))
		if !ok {
			return nil
		}
		contents, err := ioutil.ReadAll(file)
		if err != nil {
			return err
		}
		shaders = append(shaders, ShaderData{Name: name, Type: shaderType, Contents: contents})
		return nil
	}); err != nil {
		return nil, err
	}
	return shaders, nil
}

// NewVulkanShader creates a shader module on the device from compiled shader code
func NewVulkanShader(data ShaderData, device vk.Device) (core.Shader, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data.Contents)),
		PCode:    core.SliceUint32(data.Contents),
	}

	var shader vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device, &smci, nil, &shader)); err != nil {
		return nil, fmt.Errorf("vk.CreateShaderModule(type %d): %s", data.Type, err.Error())
	}

	return &VulkanShader{
		shader:     shader,
		shaderType: data.Type,
		contents:   data.Contents,
		name:       data.Name,
		device:     device,
	}, nil
}

// VulkanShader is a Vulkan specific shader
type VulkanShader struct {
	core.Destroyable
	core.Shader

	name       string
	shaderType core.ShaderType
	device     vk.Device
	shader     vk.ShaderModule
	contents   []byte
}

// Type implements interface
func (v VulkanShader) Type() core.ShaderType {
	return v.shaderType
}

// ShaderModule is an accssor to the internal vk.ShaderModule
func (v VulkanShader) ShaderModule() interface{} {
	return v.shader
}

// Name implements interface
func (v VulkanShader) Name() string {
	return v.name
}

// Destroy implements interface
func (v VulkanShader) Destroy() {
	vk.DestroyShaderModule(v.device, v.shader, nil)
}

package vkframe

import (
	"os"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrShaderCode is returned for SPIR-V whose size is not a multiple of four.
var ErrShaderCode = errors.New("shader code size is not a multiple of 4")

type ShaderModule struct {
	Device         *Device
	Description    string
	VKShaderModule vk.ShaderModule
}

// ReadShaderFile reads compiled SPIR-V from file. It is meant to run before
// any device object exists so a missing file fails early.
func ReadShaderFile(file string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, errors.Wrap(ErrShaderCode, file)
	}
	return data, nil
}

// CreateShaderModule wraps SPIR-V bytecode. The bytes are copied into a word
// aligned buffer.
func (d *Device) CreateShaderModule(description string, code []byte) (*ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Wrap(ErrShaderCode, description)
	}
	words := make([]uint32, len(code)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(code)), code)

	var module vk.ShaderModule
	err := vk.Error(vk.CreateShaderModule(d.VKDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}, nil, &module))
	if err != nil {
		return nil, errors.Wrapf(err, "vkCreateShaderModule %s", description)
	}

	return &ShaderModule{Device: d, Description: description, VKShaderModule: module}, nil
}

func (s *ShaderModule) VKPipelineShaderStageCreateInfo(stage vk.ShaderStageFlagBits, entryPoint string) vk.PipelineShaderStageCreateInfo {
	var shaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{}
	shaderStageCreateInfo.SType = vk.StructureTypePipelineShaderStageCreateInfo
	shaderStageCreateInfo.Stage = stage
	shaderStageCreateInfo.Module = s.VKShaderModule
	shaderStageCreateInfo.PName = safeString(entryPoint)
	return shaderStageCreateInfo
}

func (d *Device) DestroyShaderModule(s *ShaderModule) {
	vk.DestroyShaderModule(d.VKDevice, s.VKShaderModule, nil)
}

package vkframe

import (
	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrEmptyPayload is returned for an upload without any bytes.
var ErrEmptyPayload = errors.New("upload has no payload")

// DeviceBuffer is a device local buffer filled by UploadToDeviceLocal.
// Offsets holds the byte offset of every payload in call order.
type DeviceBuffer struct {
	*BoundBuffer
	Offsets []uint64
	Size    uint64

	destroy func(*BoundBuffer)
}

// TransferEngine moves data from host memory into device local buffers and
// images. Every transfer blocks until the queue is idle, so the staging
// buffer is gone by the time a call returns.
type TransferEngine struct {
	driver   Driver
	commands *SingleTimeCommands
}

func NewTransferEngine(d Driver, pool *CommandPool, queue *Queue) *TransferEngine {
	return &TransferEngine{
		driver:   d,
		commands: NewSingleTimeCommands(d, pool, queue),
	}
}

// packPayloads lays payloads out in call order, each starting at the end of
// the previous one rounded up to align. Empty payloads take no space.
func packPayloads(payloads [][]byte, align uint64) (offsets []uint64, total uint64, err error) {
	var size uint64
	offsets = make([]uint64, len(payloads))
	for i, p := range payloads {
		total = makeAlignUp(total, align)
		offsets[i] = total
		total += uint64(len(p))
		size += uint64(len(p))
	}
	if size == 0 {
		return nil, 0, ErrEmptyPayload
	}
	return offsets, total, nil
}

func (t *TransferEngine) stage(payloads [][]byte, offsets []uint64, total uint64) (*BoundBuffer, func(*BoundBuffer), error) {
	d := t.driver
	staging, destroy, err := CreateBoundBuffer(d, total, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), HostVisibleCoherent)
	if err != nil {
		return nil, nil, err
	}
	for i, p := range payloads {
		if err := staging.Fill(d, offsets[i], p); err != nil {
			destroy(staging)
			return nil, nil, err
		}
	}
	return staging, destroy, nil
}

// UploadToDeviceLocal packs payloads contiguously into a staging buffer and
// copies them into a new device local buffer created with usage plus
// TRANSFER_DST. Either every payload arrives or nothing is left behind.
func (t *TransferEngine) UploadToDeviceLocal(payloads [][]byte, usage vk.BufferUsageFlags) (*DeviceBuffer, error) {
	return t.UploadAligned(payloads, 1, usage)
}

// UploadAligned is UploadToDeviceLocal with every payload starting on a
// multiple of align.
func (t *TransferEngine) UploadAligned(payloads [][]byte, align uint64, usage vk.BufferUsageFlags) (*DeviceBuffer, error) {
	offsets, total, err := packPayloads(payloads, align)
	if err != nil {
		return nil, err
	}

	d := t.driver
	staging, destroyStaging, err := t.stage(payloads, offsets, total)
	if err != nil {
		return nil, err
	}
	defer destroyStaging(staging)

	dst, destroy, err := CreateBoundBuffer(d, total, usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), DeviceLocal)
	if err != nil {
		return nil, err
	}

	err = t.commands.Run(func(cb *CommandBuffer) error {
		d.CmdCopyBuffer(cb, staging.Buffer, dst.Buffer, total)
		return nil
	})
	if err != nil {
		destroy(dst)
		return nil, err
	}

	Logger().Info("uploaded buffer", "size", units.BytesSize(float64(total)), "payloads", len(payloads))

	return &DeviceBuffer{BoundBuffer: dst, Offsets: offsets, Size: total, destroy: destroy}, nil
}

// DestroyBuffer releases a buffer returned by UploadToDeviceLocal.
func (t *TransferEngine) DestroyBuffer(b *DeviceBuffer) {
	b.destroy(b.BoundBuffer)
}

// UploadImage creates a sampled, optimally tiled image and fills it with
// pixels, which must be tightly packed rows of format. The image ends in
// SHADER_READ_ONLY_OPTIMAL.
func (t *TransferEngine) UploadImage(pixels []byte, extent vk.Extent2D, format vk.Format) (*BoundImage, func(*BoundImage), error) {
	offsets, total, err := packPayloads([][]byte{pixels}, 1)
	if err != nil {
		return nil, nil, err
	}

	d := t.driver
	staging, destroyStaging, err := t.stage([][]byte{pixels}, offsets, total)
	if err != nil {
		return nil, nil, err
	}
	defer destroyStaging(staging)

	img, destroy, err := CreateBoundImage(d, ImageInfo{
		Extent: extent,
		Format: format,
		Tiling: vk.ImageTilingOptimal,
		Usage:  vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
	}, DeviceLocal)
	if err != nil {
		return nil, nil, err
	}

	err = t.commands.Run(func(cb *CommandBuffer) error {
		toDst, err := NewImageBarrier(img.Image, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		if err != nil {
			return err
		}
		toShader, err := NewImageBarrier(img.Image, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
		if err != nil {
			return err
		}
		d.CmdPipelineBarrier(cb, toDst)
		d.CmdCopyBufferToImage(cb, staging.Buffer, img.Image, extent)
		d.CmdPipelineBarrier(cb, toShader)
		return nil
	})
	if err != nil {
		destroy(img)
		return nil, nil, err
	}

	Logger().Info("uploaded image", "width", extent.Width, "height", extent.Height,
		"format", format, "size", units.BytesSize(float64(total)))

	return img, destroy, nil
}

// TransitionImage moves img from old to new layout with a blocking single
// time command.
func (t *TransferEngine) TransitionImage(img *Image, old, new vk.ImageLayout) error {
	barrier, err := NewImageBarrier(img, old, new)
	if err != nil {
		return err
	}
	return t.commands.Run(func(cb *CommandBuffer) error {
		t.driver.CmdPipelineBarrier(cb, barrier)
		return nil
	})
}

// ReadBack copies the first size bytes of buf, which needs TRANSFER_SRC
// usage, into host memory.
func (t *TransferEngine) ReadBack(buf *Buffer, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, ErrEmptyPayload
	}

	d := t.driver
	host, destroy, err := CreateBoundBuffer(d, size, vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), HostVisibleCoherent)
	if err != nil {
		return nil, err
	}
	defer destroy(host)

	err = t.commands.Run(func(cb *CommandBuffer) error {
		d.CmdCopyBuffer(cb, buf, host.Buffer, size)
		return nil
	})
	if err != nil {
		return nil, err
	}

	mapped, err := d.MapMemory(host.Memory, 0, size)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, mapped)
	d.UnmapMemory(host.Memory)
	return out, nil
}

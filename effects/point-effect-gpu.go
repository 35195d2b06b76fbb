package effects

import (
	_ "embed"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/soypat/pixfx"
)

//go:embed point-effect-gpu.wgsl
var baseShaderWGSL string

var errGPUNotInitialized = errors.New("gpu effect not initialized")

// PointEffectGPU applies a per-pixel GPU compute shader transformation.
// Embed this in concrete effect implementations and provide a transform function in WGSL.
type PointEffectGPU struct {
	mu     sync.Mutex
	gpu    gpuResources
	Params [4]float32 // Uniform params: [0]=width, [1]=height, [2..3]=user params
	inited bool
}

type gpuResources struct {
	device        *wgpu.Device
	queue         *wgpu.Queue
	shaderModule  *wgpu.ShaderModule
	pipeline      *wgpu.ComputePipeline
	bindLayout    *wgpu.BindGroupLayout
	uniformBuffer *wgpu.Buffer
	inputBuffer   *wgpu.Buffer
	outputBuffer  *wgpu.Buffer
	width, height int
	outputImage   *image.RGBA
}

// Init initializes GPU resources with the given transform WGSL code.
// transformCode should define: fn transform(c: vec4<f32>) -> vec4<f32>
func (f *PointEffectGPU) Init(device *wgpu.Device, queue *wgpu.Queue, transformCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fullShader := strings.Replace(baseShaderWGSL, "// TRANSFORM_PLACEHOLDER", transformCode, 1)

	f.gpu.device = device
	f.gpu.queue = queue

	var err error
	f.gpu.shaderModule, err = device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fullShader},
	})
	if err != nil {
		return fmt.Errorf("shader module: %w", err)
	}

	f.gpu.pipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     f.gpu.shaderModule,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("compute pipeline: %w", err)
	}

	f.gpu.bindLayout = f.gpu.pipeline.GetBindGroupLayout(0)

	f.gpu.uniformBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  16, // 4 x float32
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("uniform buffer: %w", err)
	}

	f.inited = true
	return nil
}

// Process runs the shader over img and returns the transformed pixels.
// The returned image is owned by f and overwritten on the next call.
func (f *PointEffectGPU) Process(img *image.RGBA) (*image.RGBA, error) {
	region := pixfx.Region{Width: img.Rect.Dx(), Height: img.Rect.Dy()}
	if img.Stride != region.Width*pixfx.BytesPerPixel {
		return nil, errors.New("gpu effect requires tightly packed rows")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.run(img.Pix, region); err != nil {
		return nil, err
	}
	return f.gpu.outputImage, nil
}

// run uploads pix covering region, dispatches the shader and reads the result
// into f.gpu.outputImage. f.mu must be held.
func (f *PointEffectGPU) run(pix []byte, region pixfx.Region) error {
	if !f.inited {
		return errGPUNotInitialized
	}
	if int64(len(pix)) != region.Size() {
		return fmt.Errorf("got %d bytes for %dx%d region", len(pix), region.Width, region.Height)
	}
	if err := f.ensureBuffers(region.Width, region.Height); err != nil {
		return err
	}

	f.gpu.queue.WriteBuffer(f.gpu.inputBuffer, 0, pix)

	f.Params[0], f.Params[1] = float32(region.Width), float32(region.Height)
	f.gpu.queue.WriteBuffer(f.gpu.uniformBuffer, 0, wgpu.ToBytes(f.Params[:]))

	if err := f.dispatch(region.Width, region.Height); err != nil {
		return err
	}
	return f.readback()
}

// renderSurface reads the region from s, runs it through the shader and writes
// it back. name identifies the effect in logs.
func (f *PointEffectGPU) renderSurface(name string, s pixfx.Surface, width, height int) pixfx.Result {
	region := pixfx.Region{Width: width, Height: height}
	res := f.renderRegion(s, region)
	if !res.Applied() {
		logSkipped(name, res, width, height)
	}
	return res
}

func (f *PointEffectGPU) renderRegion(s pixfx.Surface, region pixfx.Region) pixfx.Result {
	if err := region.Validate(); err != nil {
		return pixfx.Skipped(err)
	} else if region.Empty() {
		return pixfx.Skipped(nil)
	}
	buf, err := pixfx.ReadRegion(s, region)
	if err != nil {
		return pixfx.Skipped(err)
	}

	// The shader works on raw bytes so non-premultiplied surface pixels pass through as is.
	f.mu.Lock()
	err = f.run(buf, region)
	if err == nil {
		copy(buf, f.gpu.outputImage.Pix)
	}
	f.mu.Unlock()
	if err != nil {
		pixfx.Logger().Warn("gpu effect failed", "width", region.Width, "height", region.Height, "err", err)
		return pixfx.Skipped(err)
	}

	if err := s.WritePixels(region.Rect(), buf); err != nil {
		return pixfx.Skipped(err)
	}
	return pixfx.Applied()
}

func (f *PointEffectGPU) ensureBuffers(w, h int) error {
	if w == f.gpu.width && h == f.gpu.height {
		return nil
	}

	f.releaseImageBuffers()

	size := uint64(w * h * pixfx.BytesPerPixel)
	var err error

	f.gpu.inputBuffer, err = f.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("input buffer: %w", err)
	}

	f.gpu.outputBuffer, err = f.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("output buffer: %w", err)
	}

	f.gpu.outputImage = image.NewRGBA(image.Rect(0, 0, w, h))
	f.gpu.width, f.gpu.height = w, h
	return nil
}

func (f *PointEffectGPU) dispatch(w, h int) error {
	bindGroup, err := f.gpu.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: f.gpu.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: f.gpu.uniformBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: f.gpu.inputBuffer, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: f.gpu.outputBuffer, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := f.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(f.gpu.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(uint32((w+7)/8), uint32((h+7)/8), 1)
	pass.End()
	pass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}

	f.gpu.queue.Submit(cmd)
	return nil
}

func (f *PointEffectGPU) readback() error {
	size := uint64(f.gpu.width * f.gpu.height * pixfx.BytesPerPixel)

	staging, err := f.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := f.gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("readback encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(f.gpu.outputBuffer, 0, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	encoder.Release()
	if err != nil {
		return fmt.Errorf("readback finish: %w", err)
	}

	f.gpu.queue.Submit(cmd)
	f.gpu.device.Poll(true, nil)

	done := make(chan error, 1)
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			done <- fmt.Errorf("map failed: %v", status)
			return
		}
		done <- nil
	})

	f.gpu.device.Poll(true, nil)
	if err := <-done; err != nil {
		return err
	}

	copy(f.gpu.outputImage.Pix, staging.GetMappedRange(0, uint(size)))
	staging.Unmap()
	return nil
}

func (f *PointEffectGPU) releaseImageBuffers() {
	if f.gpu.inputBuffer != nil {
		f.gpu.inputBuffer.Release()
		f.gpu.inputBuffer = nil
	}
	if f.gpu.outputBuffer != nil {
		f.gpu.outputBuffer.Release()
		f.gpu.outputBuffer = nil
	}
	f.gpu.width, f.gpu.height = 0, 0
}

// Cleanup releases all GPU resources.
func (f *PointEffectGPU) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.releaseImageBuffers()
	if f.gpu.uniformBuffer != nil {
		f.gpu.uniformBuffer.Release()
	}
	if f.gpu.bindLayout != nil {
		f.gpu.bindLayout.Release()
	}
	if f.gpu.pipeline != nil {
		f.gpu.pipeline.Release()
	}
	if f.gpu.shaderModule != nil {
		f.gpu.shaderModule.Release()
	}
	f.gpu = gpuResources{}
	f.inited = false
}

// SetParam sets a user parameter (index 0 or 1, mapped to Params[2] and Params[3]).
func (f *PointEffectGPU) SetParam(index int, value float32) {
	if index >= 0 && index < 2 {
		f.mu.Lock()
		f.Params[2+index] = value
		f.mu.Unlock()
	}
}

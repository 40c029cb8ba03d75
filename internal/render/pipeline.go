package render

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/line.wgsl
var lineShaderSource string

// TraceDraw describes one trace's draw for a frame. Data is the arena
// region to upload, BufferOffset its float position inside the shared
// line buffer, and Uniforms.BaseIndex the absolute float index of the
// first (index, amplitude) pair.
type TraceDraw struct {
	Data         []float32
	BufferOffset uint32
	Uniforms     Uniforms
	VertexCount  uint32
}

// Frame is the common contract of the GPU and software rasterizers: draw
// every trace of one frame into target.
type Frame interface {
	RenderFrame(draws []TraceDraw, target *image.RGBA) error
	Destroy()
}

// Renderer owns the wgpu line pipeline and its offscreen target. All
// methods must be called from the render loop goroutine.
type Renderer struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline

	lineBuf    hal.Buffer
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup

	targetTex  hal.Texture
	targetView hal.TextureView

	width, height uint32
	lineFloats    int
	maxDraws      int
}

// NewRenderer creates the pipeline and all static resources for a fixed
// target size. lineFloats is the capacity of the shared line buffer in
// floats; maxDraws bounds the traces per frame.
func NewRenderer(device hal.Device, queue hal.Queue, width, height, lineFloats, maxDraws int) (*Renderer, error) {
	r := &Renderer{
		device:     device,
		queue:      queue,
		width:      uint32(width),
		height:     uint32(height),
		lineFloats: lineFloats,
		maxDraws:   maxDraws,
	}
	if err := r.createPipeline(); err != nil {
		r.Destroy()
		return nil, err
	}
	if err := r.createResources(); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) createPipeline() error {
	if lineShaderSource == "" {
		return fmt.Errorf("line shader source is empty")
	}

	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "line_shader",
		Source: hal.ShaderSource{WGSL: lineShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile line shader: %w", err)
	}
	r.shader = shader

	bindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "line_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type:             gputypes.BufferBindingTypeUniform,
					HasDynamicOffset: true,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	r.bindLayout = bindLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "line_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "line_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatRGBA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	r.pipeline = pipeline
	return nil
}

func (r *Renderer) createResources() error {
	lineBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "line_data",
		Size:  uint64(r.lineFloats) * 4,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create line buffer: %w", err)
	}
	r.lineBuf = lineBuf

	uniformBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "line_uniforms",
		Size:  uint64(r.maxDraws) * UniformStride,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	r.uniformBuf = uniformBuf

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "line_bind",
		Layout: r.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.lineBuf.NativeHandle(), Offset: 0, Size: uint64(r.lineFloats) * 4,
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: r.uniformBuf.NativeHandle(), Offset: 0, Size: UniformStride,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	r.bindGroup = bindGroup

	targetTex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "line_target",
		Size:          hal.Extent3D{Width: r.width, Height: r.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create target texture: %w", err)
	}
	r.targetTex = targetTex

	targetView, err := r.device.CreateTextureView(targetTex, &hal.TextureViewDescriptor{
		Label:         "line_target_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create target view: %w", err)
	}
	r.targetView = targetView
	return nil
}

// RenderFrame uploads every trace's line data and uniforms, draws all
// traces into the offscreen target and reads the pixels back into
// target. Blocks until the GPU finishes the frame.
func (r *Renderer) RenderFrame(draws []TraceDraw, target *image.RGBA) error {
	if len(draws) > r.maxDraws {
		return fmt.Errorf("%d draws exceed renderer capacity %d", len(draws), r.maxDraws)
	}

	uniforms := make([]Uniforms, len(draws))
	for i, d := range draws {
		if int(d.BufferOffset)+len(d.Data) > r.lineFloats {
			return fmt.Errorf("draw %d overruns the line buffer", i)
		}
		r.queue.WriteBuffer(r.lineBuf, uint64(d.BufferOffset)*4, floatBytes(d.Data))
		uniforms[i] = d.Uniforms
	}
	if len(draws) > 0 {
		r.queue.WriteBuffer(r.uniformBuf, 0, PackSlice(uniforms))
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "line_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("line_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "line_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       r.targetView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	rp.SetPipeline(r.pipeline)
	for i, d := range draws {
		rp.SetBindGroup(0, r.bindGroup, []uint32{uint32(i) * UniformStride})
		rp.Draw(d.VertexCount, 1, 0, 0)
	}
	rp.End()

	// The color attachment must transition before CopyTextureToBuffer;
	// the barrier is a no-op on non-Vulkan backends.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.targetTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(r.width) * uint64(r.height) * 4
	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "line_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(r.targetTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: r.width * 4, RowsPerImage: r.height},
		TextureBase:  hal.ImageCopyTexture{Texture: r.targetTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: r.width, Height: r.height, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	if _, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}

	mapping, err := r.device.MapBuffer(stagingBuf, 0, pixelBufSize)
	if err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	readback := unsafe.Slice((*byte)(mapping.Ptr), pixelBufSize)
	copyRGBA(readback, target, int(r.width), int(r.height))
	if err := r.device.UnmapBuffer(stagingBuf); err != nil {
		return fmt.Errorf("unmap staging buffer: %w", err)
	}
	return nil
}

// Destroy releases all GPU resources. Safe to call more than once.
func (r *Renderer) Destroy() {
	if r.device == nil {
		return
	}
	if r.targetView != nil {
		r.device.DestroyTextureView(r.targetView)
		r.targetView = nil
	}
	if r.targetTex != nil {
		r.device.DestroyTexture(r.targetTex)
		r.targetTex = nil
	}
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.lineBuf != nil {
		r.device.DestroyBuffer(r.lineBuf)
		r.lineBuf = nil
	}
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bindLayout != nil {
		r.device.DestroyBindGroupLayout(r.bindLayout)
		r.bindLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

// Size returns the target dimensions.
func (r *Renderer) Size() (uint32, uint32) {
	return r.width, r.height
}

// floatBytes serializes floats little-endian for buffer upload.
func floatBytes(data []float32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// copyRGBA copies tightly packed RGBA8 readback rows into an image,
// honoring the image's stride.
func copyRGBA(src []byte, dst *image.RGBA, w, h int) {
	for y := 0; y < h; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w*4], src[y*w*4:(y+1)*w*4])
	}
}

package wgpudev

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/gpu"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"Surface was lost", gpu.ErrSurfaceLost},
		{"wgpu: Surface is outdated", gpu.ErrSurfaceOutdated},
		{"Surface timed out", gpu.ErrSurfaceTimeout},
		{"Device Out of memory", gpu.ErrOutOfMemory},
		{"something else", nil},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			in := errors.New(tt.msg)
			got := classify(in)
			if tt.want == nil {
				if got != in {
					t.Errorf("classify(%q) = %v; want the error unchanged", tt.msg, got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("classify(%q) = %v; want it to wrap %v", tt.msg, got, tt.want)
			}
		})
	}
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

func TestPresentMode(t *testing.T) {
	tests := []struct {
		name    string
		want    wgpu.PresentMode
		wantErr bool
	}{
		{"", wgpu.PresentModeFifo, false},
		{"FIFO", wgpu.PresentModeFifo, false},
		{"mailbox", wgpu.PresentModeMailbox, false},
		{"immediate", wgpu.PresentModeImmediate, false},
		{"vsync", wgpu.PresentModeFifo, true},
	}
	for _, tt := range tests {
		got, err := presentMode(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("presentMode(%q) = %v, %v; want %v, wantErr %v", tt.name, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestBufferUsage(t *testing.T) {
	got := bufferUsage(gpu.BufferUsageVertex | gpu.BufferUsageStorage | gpu.BufferUsageCopyDst)
	want := wgpu.BufferUsageVertex | wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	if got != want {
		t.Errorf("bufferUsage = %v; want %v", got, want)
	}
	if bufferUsage(0) != 0 {
		t.Errorf("bufferUsage(0) = %v; want 0", bufferUsage(0))
	}
}

func TestShaderStage(t *testing.T) {
	if got := shaderStage(gpu.ShaderStageCompute); got != wgpu.ShaderStageCompute {
		t.Errorf("shaderStage(compute) = %v; want %v", got, wgpu.ShaderStageCompute)
	}
	if got := shaderStage(gpu.ShaderStageVertex | gpu.ShaderStageFragment); got != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("shaderStage(vertex|fragment) = %v", got)
	}
}

type foreignCommands struct{}

func (foreignCommands) Release() {}

func TestNativeCommands(t *testing.T) {
	native, err := nativeCommands([]gpu.CommandBuffer{&commandBuffer{}, &commandBuffer{}})
	if err != nil || len(native) != 2 {
		t.Fatalf("nativeCommands(own buffers) = %d, %v; want 2, nil", len(native), err)
	}
	if native, err := nativeCommands([]gpu.CommandBuffer{&commandBuffer{}, foreignCommands{}}); err == nil {
		t.Errorf("nativeCommands(foreign buffer) = %d buffers, nil; want an error", len(native))
	}
}

func TestSubmit_ForeignCommandBufferPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Submit of a foreign command buffer did not panic")
		}
	}()
	// the panic comes before the native queue is touched
	(&Queue{}).Submit(foreignCommands{})
}

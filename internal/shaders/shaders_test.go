package shaders

import (
	"fmt"
	"strings"
	"testing"
)

func TestWorkgroupSize_MatchesKernel(t *testing.T) {
	attr := fmt.Sprintf("@workgroup_size(%d)", WorkgroupSize)
	if !strings.Contains(Compute, attr) {
		t.Errorf("compute.wgsl does not declare %s", attr)
	}
	k, ok := SoftKernels()[ComputeEntry]
	if !ok {
		t.Fatalf("no soft kernel for entry point %q", ComputeEntry)
	}
	if k.WorkgroupSize != WorkgroupSize {
		t.Errorf("soft kernel WorkgroupSize = %d; want %d", k.WorkgroupSize, WorkgroupSize)
	}
}

func TestEntryPoints(t *testing.T) {
	tests := []struct {
		src, entry string
	}{
		{Compute, "fn " + ComputeEntry + "("},
		{Draw, "fn " + VertexEntry + "("},
		{Draw, "fn " + FragmentEntry + "("},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.src, tt.entry) {
			t.Errorf("shader source has no %q", tt.entry)
		}
	}
}

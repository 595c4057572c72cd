package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/kheap/kernel"
)

func TestBootCommand(t *testing.T) {
	tests := []struct {
		name        string
		frames      int
		json        bool
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "default machine",
			wantContain: []string{"Pages mapped: 25", "0x444444440000"},
		},
		{
			name:   "json",
			frames: 64,
			json:   true,
		},
		{
			name:    "too little RAM",
			frames:  8,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			t.Cleanup(resetFlags)
			physFrames = tt.frames
			jsonOut = tt.json

			out, err := captureOutput(t, func() error { return runBoot(context.Background()) })
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, s := range tt.wantContain {
				assert.Contains(t, out, s)
			}
			if tt.json {
				var s kernel.Stats
				decodeJSON(t, out, &s)
				assert.Equal(t, tt.frames, s.PhysFrames)
				assert.Equal(t, 25, s.PagesMapped)
			}
		})
	}
}

func TestClassesCommand(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	out, err := captureOutput(t, runClasses)
	require.NoError(t, err)
	assert.Contains(t, out, "2048")

	jsonOut = true
	out, err = captureOutput(t, runClasses)
	require.NoError(t, err)
	var classes []classInfo
	decodeJSON(t, out, &classes)
	require.Len(t, classes, 9)
	assert.Equal(t, uint64(8), classes[0].Size)
}

func TestStressCommand(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	stressOps = 5000
	stressSeed = 3
	jsonOut = true

	out, err := captureOutput(t, func() error { return runStress(context.Background()) })
	require.NoError(t, err)

	var got stressOutput
	decodeJSON(t, out, &got)
	assert.Equal(t, 5000, got.Ops)
	assert.Equal(t, uint64(3), got.Seed)
	assert.Equal(t, got.Ops, got.Allocs+got.Frees+got.Failed)
}

func TestStressCommandQuiet(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	stressOps = 100
	quiet = true

	out, err := captureOutput(t, func() error { return runStress(context.Background()) })
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCommandsReleaseKernel(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)
	stressOps = 100

	for range 2 {
		_, err := captureOutput(t, func() error { return runBoot(context.Background()) })
		require.NoError(t, err)
		_, err = captureOutput(t, func() error { return runStress(context.Background()) })
		require.NoError(t, err)
	}

	k, err := kernel.Boot(context.Background(), kernel.DefaultConfig())
	require.NoError(t, err, "commands shut their kernel down")
	require.NoError(t, k.Shutdown())
}

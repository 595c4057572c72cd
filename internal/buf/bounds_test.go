package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestAddU64OverflowSafe(t *testing.T) {
	if sum, ok := AddU64OverflowSafe(0x4444_4444_0000, 100*1024); !ok || sum != 0x4444_4445_9000 {
		t.Fatalf("AddU64OverflowSafe=0x%x,%v", sum, ok)
	}
	if _, ok := AddU64OverflowSafe(math.MaxUint64, 1); ok {
		t.Fatalf("expected wraparound to be reported")
	}
}

func TestMulU64OverflowSafe(t *testing.T) {
	if got, ok := MulU64OverflowSafe(25, 4096); !ok || got != 102400 {
		t.Fatalf("MulU64OverflowSafe(25,4096)=%d,%v", got, ok)
	}
	if got, ok := MulU64OverflowSafe(0, math.MaxUint64); !ok || got != 0 {
		t.Fatalf("zero operand should never overflow")
	}
	if _, ok := MulU64OverflowSafe(math.MaxUint64/2, 3); ok {
		t.Fatalf("expected overflow")
	}
}

func TestSlice(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if _, ok := Slice(data, 2, 4); ok {
		t.Fatalf("Slice should fail for out-of-bounds range")
	}

	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}

	// Capacity is clipped so appends cannot scribble past the window.
	got, _ := Slice(data, 0, 2)
	if cap(got) != 2 {
		t.Fatalf("Slice cap = %d, want 2", cap(got))
	}
}

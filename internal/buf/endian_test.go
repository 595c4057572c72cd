package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U64LE(data); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE = 0x%x, want 0xefcdab8967452301", got)
	}

	short := []byte{0xAA}
	if U64LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}
}

func TestPutHelpers(t *testing.T) {
	word := make([]byte, 8)
	if !PutU64LE(word, 0x4444_4444_0020) {
		t.Fatalf("PutU64LE reported short buffer")
	}
	if got := U64LE(word); got != 0x4444_4444_0020 {
		t.Fatalf("round trip = 0x%x", got)
	}
	if PutU64LE(word[:7], 1) {
		t.Fatalf("PutU64LE should refuse a 7-byte buffer")
	}
	Zero(word)
	if U64LE(word) != 0 {
		t.Fatalf("Zero left data behind")
	}
}

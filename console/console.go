// Package console provides the kernel's text output devices.
//
// Each Writer owns its own spin lock and takes it with interrupts masked, so
// an interrupt handler that prints can never deadlock against the code it
// interrupted. The display and the serial port are independent: holding one
// never blocks the other.
package console

import (
	"io"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/kheap/spin"
)

// Placeholder is written to the display for any rune code page 437 cannot
// show.
const Placeholder = 0xFE

// Writer is a lock-protected output device.
type Writer struct {
	dev    spin.Lock[io.Writer]
	irq    spin.Interrupts
	encode func([]byte) []byte
}

// NewSerial returns a Writer that passes bytes through to w unchanged.
func NewSerial(w io.Writer, irq spin.Interrupts) *Writer {
	c := &Writer{irq: irq}
	*c.dev.Value() = w
	return c
}

// NewDisplay returns a Writer that re-encodes UTF-8 text to code page 437,
// the character set of a VGA text-mode screen.
func NewDisplay(w io.Writer, irq spin.Interrupts) *Writer {
	c := NewSerial(w, irq)
	c.encode = EncodeCP437
	return c
}

// Write writes p as a single unit; concurrent writers never interleave
// within one call. It reports len(p) on success even when the display
// encoding changes the byte count.
func (c *Writer) Write(p []byte) (int, error) {
	out := p
	if c.encode != nil {
		out = c.encode(p)
	}

	var err error
	c.dev.WithIRQ(c.irq, func(w *io.Writer) {
		_, err = (*w).Write(out)
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString is Write for a string.
func (c *Writer) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// EncodeCP437 converts UTF-8 text to code page 437. Newlines and tabs pass
// through; control characters, invalid UTF-8 and runes outside the code
// page become Placeholder.
func EncodeCP437(p []byte) []byte {
	out := make([]byte, 0, len(p))
	for len(p) > 0 {
		r, n := utf8.DecodeRune(p)
		p = p[n:]
		switch {
		case r == '\n' || r == '\t':
			out = append(out, byte(r))
		case r < 0x20 || r == 0x7f || r == utf8.RuneError:
			out = append(out, Placeholder)
		default:
			b, ok := charmap.CodePage437.EncodeRune(r)
			if !ok {
				b = Placeholder
			}
			out = append(out, b)
		}
	}
	return out
}

// NewLogger returns a text logger that writes through w.
func NewLogger(w *Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

package configbus

import "fmt"

// DefaultScratchCapacity is the scratch size used when the caller does
// not supply a buffer of their own.
const DefaultScratchCapacity = 2048

// ScratchBuffer is a fixed-capacity staging area for a single encode or
// decode operation. Unlike bytes.Buffer it never grows: writing past
// capacity fails with ErrBufferTooSmall, which lets callers distinguish
// "record does not fit, take the fallback path" from a malformed
// document. A buffer belongs to exactly one operation at a time and is
// reset before reuse.
type ScratchBuffer struct {
	buf []byte
	n   int
}

// NewScratch allocates a scratch buffer of the given capacity.
// Non-positive capacities fall back to DefaultScratchCapacity.
func NewScratch(capacity int) *ScratchBuffer {
	if capacity <= 0 {
		capacity = DefaultScratchCapacity
	}
	return &ScratchBuffer{buf: make([]byte, capacity)}
}

// Write appends p to the buffer, implementing io.Writer for streaming
// encoders. It fails with ErrBufferTooSmall when p does not fit,
// without writing a partial prefix.
func (b *ScratchBuffer) Write(p []byte) (int, error) {
	if b.n+len(p) > len(b.buf) {
		return 0, fmt.Errorf("%w: need %d bytes, capacity %d",
			ErrBufferTooSmall, b.n+len(p), len(b.buf))
	}
	copy(b.buf[b.n:], p)
	b.n += len(p)
	return len(p), nil
}

// Slot returns a region of exactly size bytes for a decode read. The
// stored length must be known in advance (via Handle.Stat); a size
// beyond capacity fails with ErrBufferTooSmall.
func (b *ScratchBuffer) Slot(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrInvalidArgument, size)
	}
	if size > len(b.buf) {
		return nil, fmt.Errorf("%w: stored size %d exceeds capacity %d",
			ErrBufferTooSmall, size, len(b.buf))
	}
	return b.buf[:size], nil
}

// Bytes returns the written portion of the buffer.
func (b *ScratchBuffer) Bytes() []byte { return b.buf[:b.n] }

// Len returns the number of bytes written since the last Reset.
func (b *ScratchBuffer) Len() int { return b.n }

// Cap returns the fixed capacity.
func (b *ScratchBuffer) Cap() int { return len(b.buf) }

// Reset discards written content, keeping the backing region.
func (b *ScratchBuffer) Reset() { b.n = 0 }

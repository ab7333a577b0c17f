package codec

import (
	"bytes"
	"sync"
)

// maxPooledBuffer bounds what goes back into the pool. A single drawing
// submission can grow a buffer far past a normal frame.
const maxPooledBuffer = 64 << 10

var frameBuffers = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func acquireBuffer() *bytes.Buffer {
	return frameBuffers.Get().(*bytes.Buffer)
}

// releaseBuffer resets buf and pools it unless it grew too large.
func releaseBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	frameBuffers.Put(buf)
}

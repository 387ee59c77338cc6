package filebuffer

import (
	"bytes"

	"github.com/wma1729/snf-http/internal/pool"
)

const readBufferSize = 64 * 1024

// bufferPool pools bytes.Buffer objects for reuse. No Body variant draws
// from it; the file-backed Body uses readBufferPool below.
var bufferPool = pool.New(func() *bytes.Buffer {
	return bytes.NewBuffer(make([]byte, 0, readBufferSize))
})

// GetBuffer gets a buffer from the pool.
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get()
}

// ReleaseBuffer returns a buffer to the pool.
func ReleaseBuffer(buf *bytes.Buffer) {
	buf.Reset()
	bufferPool.Put(buf)
}

// readBufferPool pools the 64 KiB scratch buffers the file-backed Body
// variant reads into, one read() syscall per Next() call (see body.go).
var readBufferPool = pool.New(func() []byte {
	return make([]byte, readBufferSize)
})

// GetReadBuffer gets a fixed-size read buffer from the pool.
func GetReadBuffer() []byte {
	return readBufferPool.Get()
}

// ReleaseReadBuffer returns a read buffer to the pool.
func ReleaseReadBuffer(buf []byte) {
	readBufferPool.Put(buf)
}

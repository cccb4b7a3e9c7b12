package transport

import (
	"sync"

	"github.com/pbrezina/samba/internal/protocol"
)

// bufferPool reuses the fixed 1024-byte receive buffers every NBT datagram
// fits in (protocol.MaxPacketSize), avoiding a fresh allocation per receive.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, protocol.MaxPacketSize)
		return &buf
	},
}

// GetBuffer returns a pointer to a MaxPacketSize-byte buffer from the pool.
// Callers must return it via PutBuffer (use defer immediately after Get).
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer zeroes and returns a buffer to the pool. The caller must not
// use the buffer again afterward.
func PutBuffer(bufPtr *[]byte) {
	buf := *bufPtr
	for i := range buf {
		buf[i] = 0
	}
	bufferPool.Put(bufPtr)
}

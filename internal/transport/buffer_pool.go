package transport

import "sync"

// socketRecvBuf is the SO_RCVBUF size requested on outbound query
// sockets: one jumbo frame, comfortably above the 4096-byte EDNS0
// size advertised by default.
const socketRecvBuf = 9000

// bufferPool recycles receive buffers across Receive calls so a busy
// resolver issuing many concurrent queries doesn't allocate one
// buffer per datagram.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, socketRecvBuf)
		return &buf
	},
}

// GetBuffer returns a pointer to a socketRecvBuf-sized buffer from the
// pool. Callers must return it via PutBuffer (typically deferred).
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer zeroes buf and returns it to the pool.
func PutBuffer(bufPtr *[]byte) {
	buf := *bufPtr
	for i := range buf {
		buf[i] = 0
	}
	bufferPool.Put(bufPtr)
}

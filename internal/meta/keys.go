package meta

import "sync"

// keyPool provides reusable byte slices for read-only key lookups.
var keyPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 128)
	},
}

// buildKey copies key into a pooled buffer. Callers must releaseKey it and
// must not hand it to a write transaction.
func buildKey(key string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	return append(buf, key...)
}

func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}

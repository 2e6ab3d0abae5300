package crypto

import "crypto/subtle"

// SecureZero overwrites b with zeros so a derived key doesn't linger in
// memory after use. subtle.ConstantTimeCopy is used instead of a plain loop
// so the compiler cannot prove the write is dead and optimize it away.
//
// This cannot guarantee complete erasure (the Go runtime may have already
// copied b's contents elsewhere during a GC or a slice grow), but it closes
// the obvious window between DeriveKey returning and the cipher being set up.
func SecureZero(b []byte) {
	if len(b) == 0 {
		return
	}
	zeros := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zeros)
}

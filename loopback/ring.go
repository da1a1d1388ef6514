// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loopback

// ring is a fixed-capacity byte queue.
// Writes accept as much as fits; reads drain as much as is buffered.
type ring struct {
	buf []byte
	off int
	n   int
}

func newRing(size int) ring {
	return ring{buf: make([]byte, size)}
}

func (r *ring) Buffered() int { return r.n }

func (r *ring) Free() int { return len(r.buf) - r.n }

// Write copies the longest prefix of b that fits and returns its length.
func (r *ring) Write(b []byte) int {
	if len(b) > r.Free() {
		b = b[:r.Free()]
	}
	end := (r.off + r.n) % len(r.buf)
	w := copy(r.buf[end:], b)
	if w < len(b) {
		w += copy(r.buf, b[w:])
	}
	r.n += w
	return w
}

// Read copies up to len(b) buffered bytes into b.
func (r *ring) Read(b []byte) int {
	if len(b) > r.n {
		b = b[:r.n]
	}
	n := copy(b, r.buf[r.off:])
	if n < len(b) {
		n += copy(b[n:], r.buf)
	}
	r.off = (r.off + n) % len(r.buf)
	r.n -= n
	if r.n == 0 {
		r.off = 0
	}
	return n
}

/*
 *  MIT License
 *
 *  Copyright (c) 2020 Nicolas JUHEL
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package buffer

import (
	"hash/fnv"
	"io"

	liberr "github.com/nabbar/vfsarc/errors"
)

// Bytes is a circular buffer specialized for byte payloads, with stream
// draining (AppendFrom) and filling (WriteContent) helpers used by the
// archive readers and the rewritable file.
type Bytes interface {
	Buffer[byte]

	// AppendFrom pulls up to max bytes from r into the buffer, wrapping the
	// ring as needed. It returns the number of bytes transferred, or -1 if
	// the very first read found no data available (r is drained or would
	// block with nothing ready).
	AppendFrom(r io.Reader, max int) (int, liberr.Error)
	// WriteContent emits the logical range [offset:offset+length) to w.
	WriteContent(w io.Writer, offset, length int) (int, liberr.Error)
	// String renders the logical content as a string.
	String() string
}

type bytesBuf struct {
	r *ring[byte]
}

// NewBytes returns an empty Bytes buffer. capacityHint sizes the initial
// backing array; zero or negative uses a small built-in default and lets the
// buffer grow as needed.
func NewBytes(capacityHint int) Bytes {
	return &bytesBuf{r: newRing[byte](capacityHint)}
}

func (b *bytesBuf) Length() int   { return b.r.Length() }
func (b *bytesBuf) Capacity() int { return b.r.Capacity() }

func (b *bytesBuf) Get(index int) (byte, liberr.Error) {
	v, e := b.r.get(index)
	if e != nil {
		return 0, ErrorIndexOutOfRange.Error(e)
	}
	return v, nil
}

func (b *bytesBuf) Append(v byte) { b.r.appendOne(v) }

func (b *bytesBuf) AppendSlice(v []byte) { b.r.appendSlice(v) }

func (b *bytesBuf) AppendRange(v []byte, from, to int) liberr.Error {
	if e := b.r.appendRange(v, from, to); e != nil {
		return ErrorParamsInvalid.Error(e)
	}
	return nil
}

func (b *bytesBuf) AppendBuffer(o Buffer[byte]) {
	if o == nil {
		return
	}
	b.r.appendSlice(o.Slice())
}

func (b *bytesBuf) Insert(at int, src []byte, from, to int) liberr.Error {
	if e := b.r.insert(at, src, from, to); e != nil {
		return ErrorParamsInvalid.Error(e)
	}
	return nil
}

func (b *bytesBuf) Delete(from, to int, hard bool) liberr.Error {
	if e := b.r.del(from, to, hard); e != nil {
		return ErrorParamsInvalid.Error(e)
	}
	return nil
}

func (b *bytesBuf) Clear(hard bool) { b.r.clear(hard) }

func (b *bytesBuf) Slice() []byte { return b.r.slice() }

func (b *bytesBuf) String() string { return string(b.r.slice()) }

func (b *bytesBuf) Equal(o Buffer[byte]) bool {
	if o == nil {
		return false
	}
	if b.Length() != o.Length() {
		return false
	}
	a := b.Slice()
	c := o.Slice()
	for i := range a {
		if a[i] != c[i] {
			return false
		}
	}
	return true
}

func (b *bytesBuf) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b.Slice())
	return h.Sum64()
}

// AppendFrom reads up to two contiguous chunks (the ring's wrap segments)
// directly from r, so a single call never copies through an intermediate
// linear buffer. It stops as soon as a read returns zero bytes with no
// error, treating that as "no more data currently available" rather than
// retrying in a busy loop.
func (b *bytesBuf) AppendFrom(r io.Reader, max int) (int, liberr.Error) {
	if max <= 0 {
		return 0, nil
	}

	b.r.ensureFree(max)

	total := 0
	remaining := max
	for remaining > 0 {
		start := b.r.phys(b.r.length)
		chunk := len(b.r.d) - start
		if chunk > remaining {
			chunk = remaining
		}

		n, err := r.Read(b.r.d[start : start+chunk])
		if n > 0 {
			b.r.length += n
			total += n
			remaining -= n
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			if total == 0 {
				return -1, ErrorIOCopy.Error(err)
			}
			return total, ErrorIOCopy.Error(err)
		}
		if n == 0 {
			break
		}
		if n < chunk {
			// short read: the source had less available right now than the
			// wrap segment could hold; don't attempt the second segment.
			break
		}
	}

	if total == 0 {
		return -1, nil
	}
	return total, nil
}

func (b *bytesBuf) WriteContent(w io.Writer, offset, length int) (int, liberr.Error) {
	total := 0
	err := b.r.writeContent(offset, length, func(chunk []byte) error {
		n, e := w.Write(chunk)
		total += n
		return e
	})
	if err != nil {
		return total, ErrorIOCopy.Error(err)
	}
	return total, nil
}

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

// Chars is a circular buffer specialized for rune payloads, used by the
// text variant of the rewritable file.
type Chars interface {
	Buffer[rune]

	// AppendFrom pulls up to max runes from r into the buffer. It returns
	// the number of runes transferred, or -1 if the very first read found
	// no data available.
	AppendFrom(r io.RuneReader, max int) (int, liberr.Error)
	// WriteContent emits the logical range [offset:offset+length) to w as
	// UTF-8 text.
	WriteContent(w io.Writer, offset, length int) (int, liberr.Error)
	// String renders the logical content as a string.
	String() string
}

type charsBuf struct {
	r *ring[rune]
}

// NewChars returns an empty Chars buffer. capacityHint sizes the initial
// backing array; zero or negative uses a small built-in default.
func NewChars(capacityHint int) Chars {
	return &charsBuf{r: newRing[rune](capacityHint)}
}

func (b *charsBuf) Length() int   { return b.r.Length() }
func (b *charsBuf) Capacity() int { return b.r.Capacity() }

func (b *charsBuf) Get(index int) (rune, liberr.Error) {
	v, e := b.r.get(index)
	if e != nil {
		return 0, ErrorIndexOutOfRange.Error(e)
	}
	return v, nil
}

func (b *charsBuf) Append(v rune) { b.r.appendOne(v) }

func (b *charsBuf) AppendSlice(v []rune) { b.r.appendSlice(v) }

func (b *charsBuf) AppendRange(v []rune, from, to int) liberr.Error {
	if e := b.r.appendRange(v, from, to); e != nil {
		return ErrorParamsInvalid.Error(e)
	}
	return nil
}

func (b *charsBuf) AppendBuffer(o Buffer[rune]) {
	if o == nil {
		return
	}
	b.r.appendSlice(o.Slice())
}

func (b *charsBuf) Insert(at int, src []rune, from, to int) liberr.Error {
	if e := b.r.insert(at, src, from, to); e != nil {
		return ErrorParamsInvalid.Error(e)
	}
	return nil
}

func (b *charsBuf) Delete(from, to int, hard bool) liberr.Error {
	if e := b.r.del(from, to, hard); e != nil {
		return ErrorParamsInvalid.Error(e)
	}
	return nil
}

func (b *charsBuf) Clear(hard bool) { b.r.clear(hard) }

func (b *charsBuf) Slice() []rune { return b.r.slice() }

func (b *charsBuf) String() string { return string(b.r.slice()) }

func (b *charsBuf) Equal(o Buffer[rune]) bool {
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

func (b *charsBuf) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(b.String()))
	return h.Sum64()
}

// AppendFrom reads one rune at a time from r, since io.RuneReader offers no
// bulk transfer. It stops as soon as a read finds nothing available, which
// for most implementations means io.EOF but may also be a transient
// would-block signal from a streaming source.
func (b *charsBuf) AppendFrom(r io.RuneReader, max int) (int, liberr.Error) {
	if max <= 0 {
		return 0, nil
	}

	total := 0
	for total < max {
		c, _, err := r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			if total == 0 {
				return -1, ErrorIOCopy.Error(err)
			}
			return total, ErrorIOCopy.Error(err)
		}
		b.r.appendOne(c)
		total++
	}

	if total == 0 {
		return -1, nil
	}
	return total, nil
}

func (b *charsBuf) WriteContent(w io.Writer, offset, length int) (int, liberr.Error) {
	total := 0
	err := b.r.writeContent(offset, length, func(chunk []rune) error {
		n, e := w.Write([]byte(string(chunk)))
		total += n
		return e
	})
	if err != nil {
		return total, ErrorIOCopy.Error(err)
	}
	return total, nil
}

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

import liberr "github.com/nabbar/vfsarc/errors"

// Elem restricts the circular buffer to the two element kinds this module needs:
// raw bytes (archive payloads) and runes (rewritable-file text mode).
type Elem interface {
	byte | rune
}

// Buffer is a growable FIFO ring over a contiguous backing array of T.
//
// Implementations are not safe for concurrent use.
type Buffer[T Elem] interface {
	// Length returns the number of elements currently stored.
	Length() int
	// Capacity returns the size of the backing array.
	Capacity() int
	// Get returns the element at the given logical index (0 is the oldest element).
	Get(index int) (T, liberr.Error)

	// Append adds a single element at the tail.
	Append(v T)
	// AppendSlice adds every element of v at the tail.
	AppendSlice(v []T)
	// AppendRange adds v[from:to] at the tail.
	AppendRange(v []T, from, to int) liberr.Error
	// AppendBuffer adds the full logical content of another buffer at the tail.
	AppendBuffer(o Buffer[T])

	// Insert writes src[from:to] starting at the given logical index, shifting
	// the tail to make room.
	Insert(at int, src []T, from, to int) liberr.Error
	// Delete removes the logical range [from:to). When hard is true the
	// vacated backing storage is zeroed.
	Delete(from, to int, hard bool) liberr.Error
	// Clear empties the buffer. When hard is true the backing storage is zeroed.
	Clear(hard bool)

	// Slice returns a linearized copy of the logical content.
	Slice() []T
	// Equal reports whether both buffers hold the same logical content.
	Equal(o Buffer[T]) bool
	// Hash returns a position-independent hash of the logical content.
	Hash() uint64
}

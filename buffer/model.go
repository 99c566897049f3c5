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

import "errors"

const defaultCapacity = 64

var (
	errParamsInvalid    = errors.New("invalid parameters")
	errIndexOutOfRange  = errors.New("index out of range")
)

// ring is the shared engine behind the byte and rune facades. offset is the
// physical index of the oldest logical element; length is the number of
// logical elements currently stored. Storage wraps: offset+length may exceed
// len(d), in which case the logical content spans the end and the start of d.
type ring[T Elem] struct {
	d      []T
	offset int
	length int
}

func newRing[T Elem](capacityHint int) *ring[T] {
	if capacityHint < 1 {
		capacityHint = defaultCapacity
	}

	return &ring[T]{
		d: make([]T, capacityHint),
	}
}

func (r *ring[T]) Length() int {
	return r.length
}

func (r *ring[T]) Capacity() int {
	return len(r.d)
}

// phys converts a logical index into a physical index inside d.
func (r *ring[T]) phys(i int) int {
	p := r.offset + i
	c := len(r.d)
	if c == 0 {
		return 0
	}
	p %= c
	if p < 0 {
		p += c
	}
	return p
}

func (r *ring[T]) get(i int) (v T, err error) {
	if i < 0 || i >= r.length {
		return v, errIndexOutOfRange
	}
	return r.d[r.phys(i)], nil
}

// ensureFree grows the backing array, if needed, so at least `extra` more
// elements fit. Growth doubles capacity until the need fits and compacts
// the logical content back to physical offset 0.
func (r *ring[T]) ensureFree(extra int) {
	need := r.length + extra
	if need <= len(r.d) {
		return
	}

	newCap := len(r.d)
	if newCap == 0 {
		newCap = defaultCapacity
	}
	for newCap < need {
		newCap *= 2
	}

	nd := make([]T, newCap)
	r.copyOutTo(nd)
	r.d = nd
	r.offset = 0
}

// copyOutTo linearizes the logical content into dst[0:r.length]. dst must be
// at least r.length long.
func (r *ring[T]) copyOutTo(dst []T) {
	if r.length == 0 {
		return
	}
	first := r.phys(0)
	tail := len(r.d) - first
	if tail >= r.length {
		copy(dst, r.d[first:first+r.length])
		return
	}
	copy(dst, r.d[first:])
	copy(dst[tail:], r.d[:r.length-tail])
}

func (r *ring[T]) slice() []T {
	out := make([]T, r.length)
	r.copyOutTo(out)
	return out
}

func (r *ring[T]) appendOne(v T) {
	r.ensureFree(1)
	r.d[r.phys(r.length)] = v
	r.length++
}

func (r *ring[T]) appendSlice(v []T) {
	r.appendRange(v, 0, len(v))
}

func (r *ring[T]) appendRange(v []T, from, to int) error {
	if from < 0 || to > len(v) || from > to {
		return errParamsInvalid
	}
	n := to - from
	if n == 0 {
		return nil
	}
	r.ensureFree(n)

	start := r.phys(r.length)
	firstLen := len(r.d) - start
	if firstLen > n {
		firstLen = n
	}
	copy(r.d[start:start+firstLen], v[from:from+firstLen])
	if firstLen < n {
		copy(r.d[0:n-firstLen], v[from+firstLen:to])
	}
	r.length += n
	return nil
}

// insert writes src[from:to] at logical index `at`, shifting the tail
// (the elements currently at [at:length)) further back first.
func (r *ring[T]) insert(at int, src []T, from, to int) error {
	if at < 0 || at > r.length || from < 0 || to > len(src) || from > to {
		return errParamsInvalid
	}
	n := to - from
	if n == 0 {
		return nil
	}

	r.ensureFree(n)
	tailLen := r.length - at
	if tailLen > 0 {
		moveWrap(r.d, len(r.d), r.phys(at), r.phys(at+n), tailLen)
	}

	// write the new content into the now-vacated [at:at+n) window.
	start := r.phys(at)
	firstLen := len(r.d) - start
	if firstLen > n {
		firstLen = n
	}
	copy(r.d[start:start+firstLen], src[from:from+firstLen])
	if firstLen < n {
		copy(r.d[0:n-firstLen], src[from+firstLen:to])
	}

	r.length += n
	return nil
}

// del removes the logical range [from:to). When from==0 the window is
// dropped by advancing offset; otherwise the tail is shifted down to close
// the gap. hard additionally zeroes the vacated physical slots.
func (r *ring[T]) del(from, to int, hard bool) error {
	if from < 0 || to > r.length || from > to {
		return errParamsInvalid
	}
	n := to - from
	if n == 0 {
		return nil
	}

	if hard {
		r.zero(from, to)
	}

	if from == 0 {
		r.offset = r.phys(n)
		r.length -= n
		return nil
	}

	tailLen := r.length - to
	if tailLen > 0 {
		moveWrap(r.d, len(r.d), r.phys(to), r.phys(from), tailLen)
	}
	if hard {
		r.zero(r.length-n, r.length)
	}
	r.length -= n
	return nil
}

func (r *ring[T]) zero(from, to int) {
	var z T
	for i := from; i < to; i++ {
		r.d[r.phys(i)] = z
	}
}

func (r *ring[T]) clear(hard bool) {
	if hard {
		r.zero(0, r.length)
	}
	r.offset = 0
	r.length = 0
}

// writeContent emits up to two contiguous slices ([offset:cap] then
// [0:remainder]) covering the logical range [from:from+length) to emit.
func (r *ring[T]) writeContent(from, length int, emit func([]T) error) error {
	if length == 0 {
		return nil
	}
	start := r.phys(from)
	firstLen := len(r.d) - start
	if firstLen > length {
		firstLen = length
	}
	if err := emit(r.d[start : start+firstLen]); err != nil {
		return err
	}
	if firstLen < length {
		return emit(r.d[0 : length-firstLen])
	}
	return nil
}

// moveWrap relocates `length` contiguous logical elements starting at
// physical index src to physical index dest, inside a ring of size cap,
// using at most three linear copies. The copies read from a snapshot of
// d[:cap], so overlapping source and destination windows are moved intact.
// src, dest and cap must already be normalized (0 <= src, dest < cap).
func moveWrap[T any](d []T, cap, src, dest, length int) {
	if length == 0 || src == dest {
		return
	}

	srcLen1 := length
	if cap-src < srcLen1 {
		srcLen1 = cap - src
	}
	destLen1 := length
	if cap-dest < destLen1 {
		destLen1 = cap - dest
	}

	s := append([]T(nil), d[:cap]...)

	if srcLen1 < destLen1 {
		copy(d[dest:dest+srcLen1], s[src:src+srcLen1])
		copy(d[dest+srcLen1:dest+destLen1], s[0:destLen1-srcLen1])
		copy(d[0:length-destLen1], s[destLen1-srcLen1:length-srcLen1])
	} else {
		copy(d[dest:dest+destLen1], s[src:src+destLen1])
		copy(d[0:srcLen1-destLen1], s[src+destLen1:src+srcLen1])
		copy(d[srcLen1-destLen1:length-destLen1], s[0:length-srcLen1])
	}
}

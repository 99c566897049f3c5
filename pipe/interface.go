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

package pipe

import (
	liberr "github.com/nabbar/vfsarc/errors"
)

// BlockingPipe pairs a reader and a writer over one shared, unbounded
// circular character buffer guarded by a single monitor.
//
// Write never blocks: the backing ring grows to accept whatever is handed
// to it. Read blocks while the buffer is empty and the writer end has not
// been closed. Closing either end wakes every reader blocked in Read; a
// reader woken this way, finding the buffer drained and the writer closed,
// returns -1 to signal end-of-stream.
//
// A BlockingPipe assumes a single producer and a single consumer; using it
// from more than one goroutine per side requires external serialization.
type BlockingPipe interface {
	// Read copies up to len(p) runes into p. It blocks while no rune is
	// available and the writer is open. It returns -1 once the writer has
	// closed and the buffer has drained.
	Read(p []rune) (n int, err liberr.Error)
	// ReadRune reads a single rune, blocking under the same rules as Read.
	ReadRune() (r rune, size int, err liberr.Error)

	// Write appends p to the buffer and wakes one blocked reader. It never
	// blocks. Writing after CloseWriter returns an error.
	Write(p []rune) (n int, err liberr.Error)
	// WriteRune appends a single rune.
	WriteRune(r rune) liberr.Error

	// CloseWriter marks the writer end closed. Already-buffered content
	// remains readable; once drained, readers observe end-of-stream.
	CloseWriter() liberr.Error
	// CloseReader marks the reader end closed and wakes any blocked reader.
	CloseReader() liberr.Error

	// Len reports the number of runes currently buffered and unread.
	Len() int
}

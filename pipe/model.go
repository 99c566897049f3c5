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
	"sync"

	libbuf "github.com/nabbar/vfsarc/buffer"
	liberr "github.com/nabbar/vfsarc/errors"
)

type pipeImpl struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  libbuf.Chars

	writerClosed bool
	readerClosed bool
}

// New returns a ready BlockingPipe. capacityHint sizes the initial backing
// ring; zero or negative uses the buffer package's default.
func New(capacityHint int) BlockingPipe {
	p := &pipeImpl{
		buf: libbuf.NewChars(capacityHint),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *pipeImpl) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Length()
}

func (p *pipeImpl) Write(v []rune) (int, liberr.Error) {
	if len(v) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writerClosed {
		return 0, ErrorPipeClosed.Error()
	}

	wasEmpty := p.buf.Length() == 0
	p.buf.AppendSlice(v)

	if wasEmpty {
		p.cond.Signal()
	}

	return len(v), nil
}

func (p *pipeImpl) WriteRune(r rune) liberr.Error {
	_, err := p.Write([]rune{r})
	return err
}

func (p *pipeImpl) CloseWriter() liberr.Error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writerClosed {
		return ErrorPipeAlreadyClosed.Error()
	}

	p.writerClosed = true
	p.cond.Broadcast()
	return nil
}

func (p *pipeImpl) CloseReader() liberr.Error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.readerClosed {
		return ErrorPipeAlreadyClosed.Error()
	}

	p.readerClosed = true
	p.cond.Broadcast()
	return nil
}

// Read blocks on the shared condition variable while the buffer is empty
// and the writer is still open. It never busy-waits: every wake-up is
// triggered by a Write, CloseWriter or CloseReader call.
func (p *pipeImpl) Read(dst []rune) (int, liberr.Error) {
	if len(dst) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for p.buf.Length() == 0 && !p.writerClosed && !p.readerClosed {
		p.cond.Wait()
	}

	if p.buf.Length() == 0 {
		return -1, nil
	}

	n := p.buf.Length()
	if n > len(dst) {
		n = len(dst)
	}

	for i := 0; i < n; i++ {
		v, _ := p.buf.Get(i)
		dst[i] = v
	}

	if err := p.buf.Delete(0, n, false); err != nil {
		return 0, err
	}

	return n, nil
}

func (p *pipeImpl) ReadRune() (rune, int, liberr.Error) {
	var tmp [1]rune
	n, err := p.Read(tmp[:])
	if n <= 0 {
		return 0, 0, err
	}
	return tmp[0], 1, nil
}

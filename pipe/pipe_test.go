/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package pipe_test

import (
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libpipe "github.com/nabbar/vfsarc/pipe"
)

var _ = Describe("BlockingPipe", func() {
	It("delivers written runes to the reader in order", func() {
		p := libpipe.New(4)
		_, err := p.Write([]rune("hello"))
		Expect(err).To(BeNil())

		dst := make([]rune, 5)
		n, err := p.Read(dst)
		Expect(err).To(BeNil())
		Expect(n).To(Equal(5))
		Expect(string(dst)).To(Equal("hello"))
	})

	It("blocks the reader until a write occurs, then wakes it", func() {
		p := libpipe.New(4)
		done := make(chan string, 1)

		go func() {
			dst := make([]rune, 3)
			n, _ := p.Read(dst)
			done <- string(dst[:n])
		}()

		// give the reader a chance to block before writing
		time.Sleep(20 * time.Millisecond)
		_, err := p.Write([]rune("abc"))
		Expect(err).To(BeNil())

		Eventually(done, time.Second).Should(Receive(Equal("abc")))
	})

	It("returns -1 only after the writer closes and the buffer drains", func() {
		p := libpipe.New(4)
		_, err := p.Write([]rune("x"))
		Expect(err).To(BeNil())
		Expect(p.CloseWriter()).To(BeNil())

		dst := make([]rune, 1)
		n, err := p.Read(dst)
		Expect(err).To(BeNil())
		Expect(n).To(Equal(1))

		n, err = p.Read(dst)
		Expect(err).To(BeNil())
		Expect(n).To(Equal(-1))
	})

	It("rejects writes after the writer end is closed", func() {
		p := libpipe.New(4)
		Expect(p.CloseWriter()).To(BeNil())
		_, err := p.Write([]rune("x"))
		Expect(err).ToNot(BeNil())
	})

	It("wakes a blocked reader immediately when CloseWriter is called", func() {
		p := libpipe.New(4)
		done := make(chan int, 1)

		go func() {
			dst := make([]rune, 1)
			n, _ := p.Read(dst)
			done <- n
		}()

		time.Sleep(20 * time.Millisecond)
		Expect(p.CloseWriter()).To(BeNil())

		Eventually(done, time.Second).Should(Receive(Equal(-1)))
	})

	It("reconstructs a large concurrent stream exactly", func() {
		const total = 12000
		src := make([]rune, total)
		r := rand.New(rand.NewSource(42))
		for i := range src {
			src[i] = rune('a' + r.Intn(26))
		}

		p := libpipe.New(16)
		go func() {
			chunk := 37
			for i := 0; i < len(src); i += chunk {
				end := i + chunk
				if end > len(src) {
					end = len(src)
				}
				_, _ = p.Write(src[i:end])
			}
			_ = p.CloseWriter()
		}()

		got := make([]rune, 0, total)
		buf := make([]rune, 53)
		for {
			n, err := p.Read(buf)
			Expect(err).To(BeNil())
			if n == -1 {
				break
			}
			got = append(got, buf[:n]...)
		}

		Expect(got).To(Equal(src))
	})
})

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

package buffer_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libbuf "github.com/nabbar/vfsarc/buffer"
)

var _ = Describe("Bytes", func() {
	Context("append and slice", func() {
		It("round-trips a simple append", func() {
			b := libbuf.NewBytes(4)
			b.AppendSlice([]byte("hello"))
			Expect(b.Slice()).To(Equal([]byte("hello")))
			Expect(b.Length()).To(Equal(5))
		})

		It("grows the backing array across many small appends", func() {
			b := libbuf.NewBytes(4)
			var want []byte
			for i := 0; i < 50; i++ {
				v := byte('a' + i%26)
				b.Append(v)
				want = append(want, v)
			}
			Expect(b.Slice()).To(Equal(want))
		})
	})

	Context("insert and delete against a linear reference", func() {
		It("matches a plain slice model across a scripted sequence", func() {
			b := libbuf.NewBytes(4)
			var ref []byte

			apply := func(op string) {
				switch op {
				case "append":
					b.AppendSlice([]byte("0123"))
					ref = append(ref, []byte("0123")...)
				case "insert-mid":
					at := len(ref) / 2
					Expect(b.Insert(at, []byte("XY"), 0, 2)).To(BeNil())
					tail := append([]byte{}, ref[at:]...)
					ref = append(ref[:at], append([]byte("XY"), tail...)...)
				case "delete-front":
					Expect(b.Delete(0, 2, false)).To(BeNil())
					ref = ref[2:]
				case "delete-mid":
					at := len(ref) / 3
					Expect(b.Delete(at, at+2, true)).To(BeNil())
					ref = append(ref[:at], ref[at+2:]...)
				}
				Expect(b.Slice()).To(Equal(ref), "after op %q", op)
			}

			for i := 0; i < 5; i++ {
				apply("append")
				apply("insert-mid")
				apply("delete-mid")
			}
			apply("delete-front")
		})

		It("rejects out-of-range access", func() {
			b := libbuf.NewBytes(4)
			b.AppendSlice([]byte("abc"))
			_, err := b.Get(10)
			Expect(err).ToNot(BeNil())
		})
	})

	Context("AppendFrom", func() {
		It("drains a reader after the read offset has advanced", func() {
			b := libbuf.NewBytes(4)
			b.AppendSlice([]byte("xx"))
			b.Delete(0, 2, false)

			src := strings.NewReader("abcdefgh")
			n, err := b.AppendFrom(src, 8)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(8))
			Expect(b.Slice()).To(Equal([]byte("abcdefgh")))
		})

		It("returns -1 only when the very first read finds no data", func() {
			b := libbuf.NewBytes(4)
			n, err := b.AppendFrom(strings.NewReader(""), 8)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(-1))
		})

		It("returns the partial count when data precedes exhaustion", func() {
			b := libbuf.NewBytes(4)
			n, err := b.AppendFrom(strings.NewReader("ab"), 8)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(2))
		})
	})

	Context("WriteContent", func() {
		It("emits a sub-range after the read offset has advanced", func() {
			b := libbuf.NewBytes(4)
			b.AppendSlice([]byte("zz"))
			b.Delete(0, 2, false)
			b.AppendSlice([]byte("abcdef"))

			var out bytes.Buffer
			n, err := b.WriteContent(&out, 1, 4)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(4))
			Expect(out.String()).To(Equal("bcde"))
		})
	})

	Context("Equal and Hash", func() {
		It("reports equal buffers as equal and equal-hashed", func() {
			a := libbuf.NewBytes(4)
			b := libbuf.NewBytes(8)
			a.AppendSlice([]byte("same content"))
			b.AppendSlice([]byte("same content"))
			Expect(a.Equal(b)).To(BeTrue())
			Expect(a.Hash()).To(Equal(b.Hash()))
		})

		It("reports differing buffers as not equal", func() {
			a := libbuf.NewBytes(4)
			b := libbuf.NewBytes(4)
			a.AppendSlice([]byte("abc"))
			b.AppendSlice([]byte("abd"))
			Expect(a.Equal(b)).To(BeFalse())
		})
	})
})

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

var _ = Describe("Chars", func() {
	Context("append and slice", func() {
		It("round-trips multi-byte runes", func() {
			c := libbuf.NewChars(4)
			c.AppendSlice([]rune("héllo wörld"))
			Expect(c.String()).To(Equal("héllo wörld"))
		})

		It("grows the backing array across many appends", func() {
			c := libbuf.NewChars(2)
			var want []rune
			for i := 0; i < 40; i++ {
				r := rune('α' + rune(i%5))
				c.Append(r)
				want = append(want, r)
			}
			Expect(c.Slice()).To(Equal(want))
		})
	})

	Context("insert and delete", func() {
		It("matches a plain rune slice model", func() {
			c := libbuf.NewChars(4)
			var ref []rune

			c.AppendSlice([]rune("abcdef"))
			ref = append(ref, []rune("abcdef")...)
			Expect(c.Slice()).To(Equal(ref))

			Expect(c.Insert(3, []rune("XYZ"), 0, 3)).To(BeNil())
			ref = append(ref[:3], append([]rune("XYZ"), ref[3:]...)...)
			Expect(c.Slice()).To(Equal(ref))

			Expect(c.Delete(1, 4, true)).To(BeNil())
			ref = append(ref[:1], ref[4:]...)
			Expect(c.Slice()).To(Equal(ref))
		})
	})

	Context("AppendFrom", func() {
		It("drains a rune reader one rune at a time", func() {
			c := libbuf.NewChars(2)
			n, err := c.AppendFrom(strings.NewReader("chûteau"), 100)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(len([]rune("chûteau"))))
			Expect(c.String()).To(Equal("chûteau"))
		})

		It("returns -1 when nothing is available", func() {
			c := libbuf.NewChars(2)
			n, err := c.AppendFrom(strings.NewReader(""), 10)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(-1))
		})
	})

	Context("WriteContent", func() {
		It("emits a sub-range as UTF-8", func() {
			c := libbuf.NewChars(4)
			c.AppendSlice([]rune("abcdéf"))

			var out bytes.Buffer
			n, err := c.WriteContent(&out, 2, 3)
			Expect(err).To(BeNil())
			Expect(n).To(BeNumerically(">", 0))
			Expect(out.String()).To(Equal("cdé"))
		})
	})
})

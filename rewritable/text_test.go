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

package rewritable_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	librwt "github.com/nabbar/vfsarc/rewritable"
)

var _ = Describe("TextFile", func() {
	It("reads runes sequentially through the UTF-8 charset", func() {
		f := tempFileWith("héllo")
		defer os.Remove(f.Name())

		tf := librwt.OpenText(f, librwt.UTF8)

		var got []rune
		for {
			r, size, err := tf.ReadRune()
			Expect(err).To(BeNil())
			if size == 0 {
				break
			}
			got = append(got, r)
		}
		Expect(string(got)).To(Equal("héllo"))
	})

	It("resolves UTF-8 by name and by empty string identically", func() {
		a, err := librwt.ResolveCharset("")
		Expect(err).To(BeNil())
		b, err := librwt.ResolveCharset("utf-8")
		Expect(err).To(BeNil())
		Expect(a.Name).To(Equal(b.Name))
	})

	It("rejects opening the writer ahead of the reader position", func() {
		f := tempFileWith("abcdef")
		defer os.Remove(f.Name())

		tf := librwt.OpenText(f, librwt.UTF8)
		_, err := tf.OpenWriter(4)
		Expect(err).ToNot(BeNil())
	})

	It("writes and finalizes text content with CloseTruncate", func() {
		f := tempFileWith("aaaaaaaaaa")
		defer os.Remove(f.Name())

		tf := librwt.OpenText(f, librwt.UTF8)
		w, werr := tf.OpenWriter(0)
		Expect(werr).To(BeNil())

		n, err := w.WriteString("hi")
		Expect(err).To(BeNil())
		Expect(n).To(Equal(2))

		Expect(tf.Close(librwt.CloseTruncate)).To(BeNil())

		out, rerr := os.ReadFile(f.Name())
		Expect(rerr).To(BeNil())
		Expect(string(out)).To(Equal("hi"))
	})
})

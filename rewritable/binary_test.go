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
	"io"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	librwt "github.com/nabbar/vfsarc/rewritable"
)

func tempFileWith(content string) *os.File {
	f, err := os.CreateTemp("", "rewritable-binary-*")
	Expect(err).To(BeNil())
	_, err = f.WriteString(content)
	Expect(err).To(BeNil())
	_, err = f.Seek(0, io.SeekStart)
	Expect(err).To(BeNil())
	return f
}

var _ = Describe("BinaryFile", func() {
	It("rejects opening the writer ahead of the reader position", func() {
		f := tempFileWith("0123456789")
		defer os.Remove(f.Name())

		bf := librwt.OpenBinary(f)
		_, err := bf.OpenWriter(5)
		Expect(err).ToNot(BeNil())
	})

	It("allows opening the writer at or behind the reader position", func() {
		f := tempFileWith("0123456789")
		defer os.Remove(f.Name())

		bf := librwt.OpenBinary(f)
		buf := make([]byte, 4)
		n, err := bf.Read(buf)
		Expect(err).To(BeNil())
		Expect(n).To(Equal(4))

		w, werr := bf.OpenWriter(0)
		Expect(werr).To(BeNil())
		Expect(w).ToNot(BeNil())
	})

	It("stages writes past the reader and flushes as the reader advances", func() {
		f := tempFileWith("AAAAAAAAAA")
		defer os.Remove(f.Name())

		bf := librwt.OpenBinary(f)

		w, werr := bf.OpenWriter(0)
		Expect(werr).To(BeNil())

		n, err := w.Write([]byte("XYZ"))
		Expect(err).To(BeNil())
		Expect(n).To(Equal(3))

		// nothing should be flushed yet: the reader hasn't advanced past
		// the write position by more than one byte.
		Expect(bf.WriterPosition()).To(Equal(int64(0)))

		buf := make([]byte, 5)
		_, _ = bf.Read(buf)

		Expect(bf.WriterPosition()).To(BeNumerically(">", 0))

		Expect(bf.Close(librwt.CloseTruncate)).To(BeNil())

		// CloseTruncate discards everything past the writer position,
		// including the "AAAAAAA" tail the reader never consumed.
		out, rerr := os.ReadFile(f.Name())
		Expect(rerr).To(BeNil())
		Expect(string(out)).To(Equal("XYZ"))
	})

	It("truncates the file at the writer position on CloseTruncate", func() {
		f := tempFileWith("0123456789")
		defer os.Remove(f.Name())

		bf := librwt.OpenBinary(f)
		buf := make([]byte, 10)
		_, _ = bf.Read(buf)

		w, werr := bf.OpenWriter(0)
		Expect(werr).To(BeNil())
		_, _ = w.Write([]byte("short"))

		Expect(bf.Close(librwt.CloseTruncate)).To(BeNil())

		out, rerr := os.ReadFile(f.Name())
		Expect(rerr).To(BeNil())
		Expect(string(out)).To(Equal("short"))
	})

	It("preserves the unread tail on CloseTransfer", func() {
		f := tempFileWith("0123456789")
		defer os.Remove(f.Name())

		bf := librwt.OpenBinary(f)
		buf := make([]byte, 3)
		_, _ = bf.Read(buf) // reader now at offset 3

		w, werr := bf.OpenWriter(0)
		Expect(werr).To(BeNil())
		_, _ = w.Write([]byte("XYZ"))

		Expect(bf.Close(librwt.CloseTransfer)).To(BeNil())

		out, rerr := os.ReadFile(f.Name())
		Expect(rerr).To(BeNil())
		Expect(string(out)).To(Equal("XYZ3456789"))
	})
})

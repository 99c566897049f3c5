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

package archtree_test

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/nabbar/vfsarc/archtree"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildGzipFixture(name, content string) []byte {
	buf := &bytes.Buffer{}
	w, _ := gzip.NewWriterLevel(buf, gzip.BestSpeed)
	w.Name = name
	_, _ = w.Write([]byte(content))
	_ = w.Close()
	return buf.Bytes()
}

var _ = Describe("GzipFormat", func() {
	It("recognizes the gzip magic plus deflate method byte", func() {
		data := buildGzipFixture("payload.txt", "body")
		Expect(archtree.GzipFormat{}.MayBeArchive(data[:3])).To(BeTrue())
	})

	It("exposes a single synthetic entry named from the FNAME field", func() {
		data := buildGzipFixture("payload.txt", "gzip body content")

		root, err := archtree.GzipFormat{}.Parse(data, "archive.gz")
		Expect(err).To(BeNil())
		Expect(root.Children()).To(HaveLen(1))

		entry := root.Children()[0]
		Expect(entry.Name()).To(Equal("payload.txt"))
		Expect(entry.Size()).To(Equal(int64(-1)))

		rc, oerr := entry.Open(0)
		Expect(oerr).To(BeNil())
		defer func() { _ = rc.Close() }()

		content, _ := io.ReadAll(rc)
		Expect(string(content)).To(Equal("gzip body content"))
	})

	It("falls back to the archive's own name stripped of .gz when FNAME is absent", func() {
		buf := &bytes.Buffer{}
		w, _ := gzip.NewWriterLevel(buf, gzip.BestSpeed)
		_, _ = w.Write([]byte("anon"))
		_ = w.Close()

		root, err := archtree.GzipFormat{}.Parse(buf.Bytes(), "notes.gz")
		Expect(err).To(BeNil())
		Expect(root.Children()[0].Name()).To(Equal("notes"))
	})
})

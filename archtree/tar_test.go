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
	"archive/tar"
	"bytes"
	"io"

	"github.com/nabbar/vfsarc/archtree"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildTarFixture() []byte {
	buf := &bytes.Buffer{}
	w := tar.NewWriter(buf)

	body := []byte("tar file content")
	_ = w.WriteHeader(&tar.Header{Name: "root.txt", Size: int64(len(body)), Mode: 0o644, Typeflag: tar.TypeReg})
	_, _ = w.Write(body)

	_ = w.WriteHeader(&tar.Header{Name: "sub/", Typeflag: tar.TypeDir, Mode: 0o755})

	nested := []byte("nested tar content")
	_ = w.WriteHeader(&tar.Header{Name: "sub/deep.txt", Size: int64(len(nested)), Mode: 0o644, Typeflag: tar.TypeReg})
	_, _ = w.Write(nested)

	_ = w.Close()
	return buf.Bytes()
}

var _ = Describe("TarFormat", func() {
	var data []byte

	BeforeEach(func() {
		data = buildTarFixture()
	})

	It("recognizes a valid header checksum", func() {
		Expect(archtree.TarFormat{}.MayBeArchive(data[:512])).To(BeTrue())
	})

	It("parses sequential headers into a nested tree", func() {
		root, err := archtree.TarFormat{}.Parse(data, "archive.tar")
		Expect(err).To(BeNil())

		var names []string
		for _, c := range root.Children() {
			names = append(names, c.Name())
		}
		Expect(names).To(ConsistOf("root.txt", "sub"))
	})

	It("reads entry content by byte-limited random access", func() {
		root, _ := archtree.TarFormat{}.Parse(data, "archive.tar")

		var file archtree.Entry
		for _, c := range root.Children() {
			if c.Name() == "root.txt" {
				file = c
			}
		}
		rc, oerr := file.Open(0)
		Expect(oerr).To(BeNil())
		defer func() { _ = rc.Close() }()

		content, _ := io.ReadAll(rc)
		Expect(string(content)).To(Equal("tar file content"))
	})

	It("resolves a GNU long name onto the following header", func() {
		buf := &bytes.Buffer{}
		w := tar.NewWriter(buf)
		longName := "this/is/a/very/long/path/that/exceeds/the/standard/one-hundred-byte/ustar/name/field/payload.txt"
		body := []byte("long name body")
		_ = w.WriteHeader(&tar.Header{Name: longName, Size: int64(len(body)), Typeflag: tar.TypeReg, Format: tar.FormatGNU})
		_, _ = w.Write(body)
		_ = w.Close()

		root, err := archtree.TarFormat{}.Parse(buf.Bytes(), "archive.tar")
		Expect(err).To(BeNil())

		found := false
		var walk func(e archtree.Entry)
		walk = func(e archtree.Entry) {
			if !e.IsDir() {
				return
			}
			for _, c := range e.Children() {
				if !c.IsDir() {
					found = found || c.Name() == "payload.txt"
				} else {
					walk(c)
				}
			}
		}
		walk(root)
		Expect(found).To(BeTrue())
	})
})

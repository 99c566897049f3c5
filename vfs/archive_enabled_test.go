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

package vfs_test

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/nabbar/vfsarc/vfs"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildFixtureZip() []byte {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	f1, _ := w.Create("readme.txt")
	_, _ = f1.Write([]byte("top level file"))

	f2, _ := w.Create("docs/guide.txt")
	_, _ = f2.Write([]byte("nested guide content"))

	_ = w.Close()
	return buf.Bytes()
}

var _ = Describe("ArchiveEnabledBacking over a native file", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "vfsarc-native-")
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		_ = os.RemoveAll(dir)
	})

	It("reads a plain file straight through when it is not an archive", func() {
		path := filepath.Join(dir, "plain.txt")
		Expect(os.WriteFile(path, []byte("not an archive"), 0o644)).To(Succeed())

		b := vfs.NewArchiveEnabled(vfs.NewNative(path), nil)
		Expect(b.Stat().Directory).To(BeFalse())

		rc, err := b.Open(0, nil)
		Expect(err).To(BeNil())
		defer func() { _ = rc.Close() }()

		content, _ := io.ReadAll(rc)
		Expect(string(content)).To(Equal("not an archive"))
	})

	It("exposes a ZIP file as a directory and reads its entries", func() {
		path := filepath.Join(dir, "bundle.zip")
		Expect(os.WriteFile(path, buildFixtureZip(), 0o644)).To(Succeed())

		b := vfs.NewArchiveEnabled(vfs.NewNative(path), nil)
		Expect(b.Stat().Directory).To(BeTrue())

		var names []string
		err := b.List(func(child vfs.FileBacking) bool {
			names = append(names, child.Name())
			return true
		}, nil)
		Expect(err).To(BeNil())
		Expect(names).To(ConsistOf("readme.txt", "docs"))

		file := b.ChildNamed("readme.txt")
		Expect(file.Stat().Exists).To(BeTrue())
		Expect(file.Stat().Directory).To(BeFalse())

		rc, oerr := file.Open(0, nil)
		Expect(oerr).To(BeNil())
		defer func() { _ = rc.Close() }()
		content, _ := io.ReadAll(rc)
		Expect(string(content)).To(Equal("top level file"))

		nested := b.ChildNamed("docs").ChildNamed("guide.txt")
		Expect(nested.Stat().Exists).To(BeTrue())
		rc2, oerr2 := nested.Open(0, nil)
		Expect(oerr2).To(BeNil())
		defer func() { _ = rc2.Close() }()
		content2, _ := io.ReadAll(rc2)
		Expect(string(content2)).To(Equal("nested guide content"))
	})

	It("combines an archive-enabled native file with a synthetic override layer", func() {
		path := filepath.Join(dir, "bundle.zip")
		Expect(os.WriteFile(path, buildFixtureZip(), 0o644)).To(Succeed())

		archiveLayer := vfs.NewArchiveEnabled(vfs.NewNative(path), nil)
		overrideLayer := vfs.NewSynthetic(vfs.SyntheticNode{
			Children: []vfs.SyntheticNode{
				{Name: "readme.txt", Data: []byte("overridden content")},
				{Name: "extra.txt", Data: []byte("only in the override layer")},
			},
		})

		combined := vfs.NewCombined(overrideLayer, archiveLayer)

		var names []string
		err := combined.List(func(child vfs.FileBacking) bool {
			names = append(names, child.Name())
			return true
		}, nil)
		Expect(err).To(BeNil())
		Expect(names).To(ConsistOf("readme.txt", "extra.txt", "docs"))

		readme := combined.ChildNamed("readme.txt")
		rc, err := readme.Open(0, nil)
		Expect(err).To(BeNil())
		defer func() { _ = rc.Close() }()
		content, _ := io.ReadAll(rc)
		Expect(string(content)).To(Equal("overridden content"))

		guide := combined.ChildNamed("docs").ChildNamed("guide.txt")
		Expect(guide.Stat().Exists).To(BeTrue())
		rc2, err2 := guide.Open(0, nil)
		Expect(err2).To(BeNil())
		defer func() { _ = rc2.Close() }()
		content2, _ := io.ReadAll(rc2)
		Expect(string(content2)).To(Equal("nested guide content"))
	})
})

var _ = Describe("ArchiveEnabledBacking nested-archive detection", func() {
	It("detects an archive stored as an entry inside another archive", func() {
		inner := buildFixtureZip()

		outerBuf := &bytes.Buffer{}
		w := zip.NewWriter(outerBuf)
		fw, _ := w.Create("payload.zip")
		_, _ = fw.Write(inner)
		_ = w.Close()

		dir, err := os.MkdirTemp("", "vfsarc-nested-")
		Expect(err).To(BeNil())
		defer func() { _ = os.RemoveAll(dir) }()

		path := filepath.Join(dir, "outer.zip")
		Expect(os.WriteFile(path, outerBuf.Bytes(), 0o644)).To(Succeed())

		b := vfs.NewArchiveEnabled(vfs.NewNative(path), nil)
		payload := b.ChildNamed("payload.zip")
		Expect(payload.Stat().Directory).To(BeTrue())

		readme := payload.ChildNamed("readme.txt")
		Expect(readme.Stat().Exists).To(BeTrue())

		rc, oerr := readme.Open(0, nil)
		Expect(oerr).To(BeNil())
		defer func() { _ = rc.Close() }()
		content, _ := io.ReadAll(rc)
		Expect(string(content)).To(Equal("top level file"))
	})
})

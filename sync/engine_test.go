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

package sync_test

import (
	"os"
	"path/filepath"

	"github.com/nabbar/vfsarc/sync"
	"github.com/nabbar/vfsarc/vfs"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Engine", func() {
	var srcDir, dstDir string

	BeforeEach(func() {
		srcDir = GinkgoT().TempDir()
		dstDir = GinkgoT().TempDir()
	})

	writeFile := func(root, rel, content string) {
		full := filepath.Join(root, rel)
		Expect(os.MkdirAll(filepath.Dir(full), 0o755)).To(Succeed())
		Expect(os.WriteFile(full, []byte(content), 0o644)).To(Succeed())
	}

	It("copies a tree of new files into an empty destination", func() {
		writeFile(srcDir, "a.txt", "alpha")
		writeFile(srcDir, "nested/b.txt", "beta")

		source := vfs.NewNative(srcDir)
		dest := vfs.NewNative(dstDir)

		eng := sync.NewEngine()
		stats, err := eng.Run(source, dest, nil)
		Expect(err).To(BeNil())
		Expect(stats.FilesUpdated).To(Equal(int64(2)))

		content, rerr := os.ReadFile(filepath.Join(dstDir, "a.txt"))
		Expect(rerr).To(BeNil())
		Expect(string(content)).To(Equal("alpha"))

		content2, rerr2 := os.ReadFile(filepath.Join(dstDir, "nested/b.txt"))
		Expect(rerr2).To(BeNil())
		Expect(string(content2)).To(Equal("beta"))
	})

	It("deletes destination-only children under the default policy", func() {
		writeFile(srcDir, "keep.txt", "keep")
		writeFile(dstDir, "keep.txt", "stale")
		writeFile(dstDir, "stray.txt", "remove me")

		source := vfs.NewNative(srcDir)
		dest := vfs.NewNative(dstDir)

		eng := sync.NewEngine()
		_, err := eng.Run(source, dest, nil)
		Expect(err).To(BeNil())

		_, statErr := os.Stat(filepath.Join(dstDir, "stray.txt"))
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("skips a file whose destination mtime already matches the source", func() {
		writeFile(srcDir, "same.txt", "same content")

		source := vfs.NewNative(srcDir)
		dest := vfs.NewNative(dstDir)

		eng := sync.NewEngine()
		_, err := eng.Run(source, dest, nil)
		Expect(err).To(BeNil())

		// second run: mtimes now match, so the engine must skip the copy.
		stats, err2 := eng.Run(source, dest, nil)
		Expect(err2).To(BeNil())
		Expect(stats.FilesUpdated).To(Equal(int64(0)))
	})

	It("never touches a destination symlink", func() {
		writeFile(srcDir, "real.txt", "real content")

		target := filepath.Join(dstDir, "target.txt")
		Expect(os.WriteFile(target, []byte("original"), 0o644)).To(Succeed())
		link := filepath.Join(dstDir, "real.txt")
		Expect(os.Symlink(target, link)).To(Succeed())

		source := vfs.NewNative(srcDir)
		dest := vfs.NewNative(dstDir)

		eng := sync.NewEngine()
		_, err := eng.Run(source, dest, nil)
		Expect(err).To(BeNil())

		fi, lerr := os.Lstat(link)
		Expect(lerr).To(BeNil())
		Expect(fi.Mode() & os.ModeSymlink).NotTo(Equal(os.FileMode(0)))
	})
})

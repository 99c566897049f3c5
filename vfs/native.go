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

package vfs

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	fprogress "github.com/nabbar/vfsarc/file/progress"

	liberr "github.com/nabbar/vfsarc/errors"
)

// NativeFileBacking is a FileBacking over the OS filesystem. It is a
// value-like handle: every query re-stats the underlying path, there is no
// cached state.
type NativeFileBacking struct {
	root string
}

// NewNative returns a NativeFileBacking rooted at path.
func NewNative(path string) *NativeFileBacking {
	return &NativeFileBacking{root: filepath.Clean(path)}
}

func (n *NativeFileBacking) Name() string {
	return filepath.Base(n.root)
}

func (n *NativeFileBacking) Path() string {
	return CleanPath(n.root)
}

func (n *NativeFileBacking) Stat() Stat {
	lfi, lerr := os.Lstat(n.root)
	if lerr != nil {
		return Stat{Origin: OriginNative}
	}

	isSymlink := lfi.Mode()&os.ModeSymlink != 0

	fi := lfi
	if isSymlink {
		if target, err := os.Stat(n.root); err == nil {
			fi = target
		}
	}

	s := Stat{
		Exists:    true,
		Directory: fi.IsDir(),
		Hidden:    len(n.Name()) > 0 && n.Name()[0] == '.',
		Readable:  true,
		Writable:  fi.Mode().Perm()&0200 != 0,
		Symbolic:  isSymlink,
		MTime:     fi.ModTime().UnixMilli(),
		Origin:    OriginNative,
	}
	if !s.Directory {
		s.Length = fi.Size()
	}
	return s
}

func (n *NativeFileBacking) Check() bool {
	return true
}

func (n *NativeFileBacking) List(onChild ListFunc, canceled CancelFunc) liberr.Error {
	entries, err := os.ReadDir(n.root)
	if err != nil {
		return ErrIO.Error(err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if canceled != nil && canceled() {
			return nil
		}
		if !onChild(n.ChildNamed(e.Name())) {
			return nil
		}
	}
	return nil
}

func (n *NativeFileBacking) ChildNamed(name string) FileBacking {
	return NewNative(filepath.Join(n.root, name))
}

func (n *NativeFileBacking) Open(startOffset int64, canceled CancelFunc) (io.ReadCloser, liberr.Error) {
	if canceled != nil && canceled() {
		return nil, nil
	}

	p, err := fprogress.Open(n.root)
	if err != nil {
		return nil, ErrNotFound.Error(err)
	}
	if startOffset > 0 {
		if _, err = p.Seek(startOffset, io.SeekStart); err != nil {
			_ = p.Close()
			return nil, ErrIO.Error(err)
		}
	}
	return p, nil
}

func (n *NativeFileBacking) Create(directory bool) liberr.Error {
	if directory {
		if err := os.MkdirAll(n.root, 0o755); err != nil {
			return ErrIO.Error(err)
		}
		return nil
	}

	if fi, err := os.Stat(n.root); err == nil && fi.IsDir() {
		return ErrUnsupported.Error()
	}

	if err := os.MkdirAll(filepath.Dir(n.root), 0o755); err != nil {
		return ErrIO.Error(err)
	}

	f, err := os.OpenFile(n.root, os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return ErrIO.Error(err)
	}
	return ErrIO.IfError(f.Close())
}

func (n *NativeFileBacking) Delete(results *DeleteStats) liberr.Error {
	fi, err := os.Lstat(n.root)
	if err != nil {
		return nil
	}

	if fi.Mode()&os.ModeSymlink != 0 {
		if err = os.Remove(n.root); err != nil {
			return ErrIO.Error(err)
		}
		return nil
	}

	if fi.IsDir() {
		entries, rdErr := os.ReadDir(n.root)
		if rdErr != nil {
			return ErrIO.Error(rdErr)
		}
		for _, e := range entries {
			if dErr := n.ChildNamed(e.Name()).Delete(results); dErr != nil {
				return dErr
			}
		}
		if err = os.Remove(n.root); err != nil {
			return ErrIO.Error(err)
		}
		if results != nil {
			results.DirectoriesDeleted++
		}
		return nil
	}

	if err = os.Remove(n.root); err != nil {
		return ErrIO.Error(err)
	}
	if results != nil {
		results.FilesDeleted++
	}
	return nil
}

func (n *NativeFileBacking) Write() (io.WriteCloser, liberr.Error) {
	if err := os.MkdirAll(filepath.Dir(n.root), 0o755); err != nil {
		return nil, ErrIO.Error(err)
	}

	p, err := fprogress.Create(n.root)
	if err != nil {
		return nil, ErrIO.Error(err)
	}
	return p, nil
}

func (n *NativeFileBacking) SetLastModified(ms int64) bool {
	t := time.UnixMilli(ms)
	return os.Chtimes(n.root, t, t) == nil
}

func (n *NativeFileBacking) SetBool(attr string, value bool, _ bool) bool {
	switch attr {
	case "writable":
		fi, err := os.Stat(n.root)
		if err != nil {
			return false
		}
		mode := fi.Mode().Perm()
		if value {
			mode |= 0o200
		} else {
			mode &^= 0o200
		}
		return os.Chmod(n.root, mode) == nil
	default:
		return false
	}
}

func (n *NativeFileBacking) Move(newPath string) liberr.Error {
	if err := os.Rename(n.root, newPath); err != nil {
		return ErrIO.Error(err)
	}
	n.root = filepath.Clean(newPath)
	return nil
}

func (n *NativeFileBacking) VisitAll(forEach VisitFunc, canceled CancelFunc) liberr.Error {
	return visitAllGeneric(n, "", forEach, canceled)
}

func (n *NativeFileBacking) ToUrl() (string, liberr.Error) {
	return "file:" + n.Path(), nil
}

// visitAllGeneric pre-order walks any FileBacking via its List method; every
// concrete variant reuses it instead of reimplementing the recursion.
func visitAllGeneric(b FileBacking, relBase string, forEach VisitFunc, canceled CancelFunc) liberr.Error {
	if canceled != nil && canceled() {
		return nil
	}
	if !forEach(b, relBase) {
		return nil
	}

	if !b.Stat().Directory {
		return nil
	}

	var outer liberr.Error
	_ = b.List(func(child FileBacking) bool {
		if canceled != nil && canceled() {
			return false
		}
		rel := child.Name()
		if relBase != "" {
			rel = relBase + "/" + child.Name()
		}
		if err := visitAllGeneric(child, rel, forEach, canceled); err != nil {
			outer = err
			return false
		}
		return true
	}, canceled)

	return outer
}


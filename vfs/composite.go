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
	"bytes"
	"io"

	liberr "github.com/nabbar/vfsarc/errors"
)

// CombinedFile overlays an ordered sequence of peer backings at the same
// relative path. Reads and Stat resolve to the first layer where the path
// exists; List merges children across every layer, first-seen order wins on
// name collisions.
type CombinedFile struct {
	layers []FileBacking
	rel    string
}

// NewCombined returns a CombinedFile over layers, highest priority first.
func NewCombined(layers ...FileBacking) *CombinedFile {
	return &CombinedFile{layers: layers}
}

func (c *CombinedFile) childLayers(rel string) []FileBacking {
	out := make([]FileBacking, 0, len(c.layers))
	for _, l := range c.layers {
		cur := l
		for _, seg := range SplitPath(rel) {
			cur = cur.ChildNamed(seg)
		}
		out = append(out, cur)
	}
	return out
}

func (c *CombinedFile) resolved() []FileBacking {
	return c.childLayers(c.rel)
}

func (c *CombinedFile) first() (FileBacking, bool) {
	for _, l := range c.resolved() {
		if l.Stat().Exists {
			return l, true
		}
	}
	if len(c.layers) > 0 {
		return c.resolved()[0], false
	}
	return nil, false
}

func (c *CombinedFile) Name() string {
	segs := SplitPath(c.rel)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

func (c *CombinedFile) Path() string {
	return CleanPath(c.rel)
}

func (c *CombinedFile) Stat() Stat {
	if l, ok := c.first(); ok {
		s := l.Stat()
		s.Origin = OriginCombined
		return s
	}
	return Stat{Origin: OriginCombined}
}

func (c *CombinedFile) Check() bool {
	if l, ok := c.first(); ok {
		return l.Check()
	}
	return true
}

func (c *CombinedFile) List(onChild ListFunc, canceled CancelFunc) liberr.Error {
	seen := make(map[string]bool)
	for _, l := range c.resolved() {
		if canceled != nil && canceled() {
			return nil
		}
		if !l.Stat().Directory {
			continue
		}
		var stop bool
		err := l.List(func(child FileBacking) bool {
			if seen[child.Name()] {
				return true
			}
			seen[child.Name()] = true
			if !onChild(c.ChildNamed(child.Name())) {
				stop = true
				return false
			}
			return true
		}, canceled)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func (c *CombinedFile) ChildNamed(name string) FileBacking {
	return &CombinedFile{layers: c.layers, rel: ConcatPath(c.rel, name)}
}

func (c *CombinedFile) Open(startOffset int64, canceled CancelFunc) (io.ReadCloser, liberr.Error) {
	if l, ok := c.first(); ok {
		return l.Open(startOffset, canceled)
	}
	return nil, ErrNotFound.Error()
}

func (c *CombinedFile) Create(directory bool) liberr.Error {
	if len(c.layers) == 0 {
		return ErrUnsupported.Error()
	}
	return c.childLayers(c.rel)[0].Create(directory)
}

func (c *CombinedFile) Delete(results *DeleteStats) liberr.Error {
	var last liberr.Error
	for _, l := range c.resolved() {
		if l.Stat().Exists {
			if err := l.Delete(results); err != nil {
				last = err
			}
		}
	}
	return last
}

func (c *CombinedFile) Write() (io.WriteCloser, liberr.Error) {
	if len(c.layers) == 0 {
		return nil, ErrUnsupported.Error()
	}
	return c.childLayers(c.rel)[0].Write()
}

func (c *CombinedFile) SetLastModified(ms int64) bool {
	if l, ok := c.first(); ok {
		return l.SetLastModified(ms)
	}
	return false
}

func (c *CombinedFile) SetBool(attr string, value bool, ownerOnly bool) bool {
	if l, ok := c.first(); ok {
		return l.SetBool(attr, value, ownerOnly)
	}
	return false
}

func (c *CombinedFile) Move(newPath string) liberr.Error {
	if l, ok := c.first(); ok {
		return l.Move(newPath)
	}
	return ErrNotFound.Error()
}

func (c *CombinedFile) VisitAll(forEach VisitFunc, canceled CancelFunc) liberr.Error {
	return visitAllGeneric(c, "", forEach, canceled)
}

func (c *CombinedFile) ToUrl() (string, liberr.Error) {
	if l, ok := c.first(); ok {
		return l.ToUrl()
	}
	return "", ErrNotFound.Error()
}

// SubFile promotes a sub-path of target as though it were its own root: a
// SubFile over target at "a/b" addresses target's "a/b/x" as its own "x".
type SubFile struct {
	target FileBacking
	prefix string
}

// NewSub returns a SubFile rooted at prefix within target.
func NewSub(target FileBacking, prefix string) *SubFile {
	cur := target
	for _, seg := range SplitPath(prefix) {
		cur = cur.ChildNamed(seg)
	}
	return &SubFile{target: cur, prefix: CleanPath(prefix)}
}

func (s *SubFile) Name() string           { return s.target.Name() }
func (s *SubFile) Path() string           { return s.target.Path() }
func (s *SubFile) Stat() Stat             { st := s.target.Stat(); st.Origin = OriginSubPath; return st }
func (s *SubFile) Check() bool            { return s.target.Check() }
func (s *SubFile) ChildNamed(n string) FileBacking {
	return &SubFile{target: s.target.ChildNamed(n)}
}

func (s *SubFile) List(onChild ListFunc, canceled CancelFunc) liberr.Error {
	return s.target.List(func(child FileBacking) bool {
		return onChild(&SubFile{target: child})
	}, canceled)
}

func (s *SubFile) Open(startOffset int64, canceled CancelFunc) (io.ReadCloser, liberr.Error) {
	return s.target.Open(startOffset, canceled)
}
func (s *SubFile) Create(directory bool) liberr.Error      { return s.target.Create(directory) }
func (s *SubFile) Delete(results *DeleteStats) liberr.Error { return s.target.Delete(results) }
func (s *SubFile) Write() (io.WriteCloser, liberr.Error)   { return s.target.Write() }
func (s *SubFile) SetLastModified(ms int64) bool           { return s.target.SetLastModified(ms) }
func (s *SubFile) SetBool(attr string, value, ownerOnly bool) bool {
	return s.target.SetBool(attr, value, ownerOnly)
}
func (s *SubFile) Move(newPath string) liberr.Error { return s.target.Move(newPath) }
func (s *SubFile) VisitAll(forEach VisitFunc, canceled CancelFunc) liberr.Error {
	return visitAllGeneric(s, "", forEach, canceled)
}
func (s *SubFile) ToUrl() (string, liberr.Error) { return s.target.ToUrl() }

// SyntheticNode describes one entry of a SyntheticFile tree: either a single
// blob (Data non-nil) or a directory (Children non-nil).
type SyntheticNode struct {
	Name     string
	Data     []byte
	MTime    int64
	Children []SyntheticNode
}

// SyntheticFile is an in-memory FileBacking built from a fixed tree of
// SyntheticNode values; it never touches disk or network. Useful for
// injecting fixtures or default content underneath a CombinedFile overlay.
type SyntheticFile struct {
	node SyntheticNode
	rel  string
}

// NewSynthetic returns a SyntheticFile rooted at root.
func NewSynthetic(root SyntheticNode) *SyntheticFile {
	return &SyntheticFile{node: root}
}

func (s *SyntheticFile) locate() (SyntheticNode, bool) {
	cur := s.node
	for _, seg := range SplitPath(s.rel) {
		found := false
		for _, c := range cur.Children {
			if c.Name == seg {
				cur = c
				found = true
				break
			}
		}
		if !found {
			return SyntheticNode{}, false
		}
	}
	return cur, true
}

func (s *SyntheticFile) Name() string {
	segs := SplitPath(s.rel)
	if len(segs) == 0 {
		return s.node.Name
	}
	return segs[len(segs)-1]
}

func (s *SyntheticFile) Path() string { return CleanPath(s.rel) }

func (s *SyntheticFile) Stat() Stat {
	n, ok := s.locate()
	if !ok {
		return Stat{Origin: OriginSynthetic}
	}
	return Stat{
		Exists:    true,
		Directory: n.Data == nil,
		Readable:  true,
		MTime:     n.MTime,
		Length:    int64(len(n.Data)),
		Origin:    OriginSynthetic,
	}
}

func (s *SyntheticFile) Check() bool { return true }

func (s *SyntheticFile) List(onChild ListFunc, canceled CancelFunc) liberr.Error {
	n, ok := s.locate()
	if !ok {
		return ErrNotFound.Error()
	}
	for _, c := range n.Children {
		if canceled != nil && canceled() {
			return nil
		}
		if !onChild(s.ChildNamed(c.Name)) {
			return nil
		}
	}
	return nil
}

func (s *SyntheticFile) ChildNamed(name string) FileBacking {
	return &SyntheticFile{node: s.node, rel: ConcatPath(s.rel, name)}
}

func (s *SyntheticFile) Open(startOffset int64, _ CancelFunc) (io.ReadCloser, liberr.Error) {
	n, ok := s.locate()
	if !ok || n.Data == nil {
		return nil, ErrNotFound.Error()
	}
	if startOffset > int64(len(n.Data)) {
		startOffset = int64(len(n.Data))
	}
	return io.NopCloser(bytes.NewReader(n.Data[startOffset:])), nil
}

func (s *SyntheticFile) Create(_ bool) liberr.Error            { return ErrUnsupported.Error() }
func (s *SyntheticFile) Delete(_ *DeleteStats) liberr.Error     { return ErrUnsupported.Error() }
func (s *SyntheticFile) Write() (io.WriteCloser, liberr.Error) { return nil, ErrUnsupported.Error() }
func (s *SyntheticFile) SetLastModified(_ int64) bool          { return false }
func (s *SyntheticFile) SetBool(_ string, _ bool, _ bool) bool  { return false }
func (s *SyntheticFile) Move(_ string) liberr.Error             { return ErrUnsupported.Error() }

func (s *SyntheticFile) VisitAll(forEach VisitFunc, canceled CancelFunc) liberr.Error {
	return visitAllGeneric(s, "", forEach, canceled)
}

func (s *SyntheticFile) ToUrl() (string, liberr.Error) {
	return "synthetic:" + s.Path(), nil
}

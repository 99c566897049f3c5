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

package archtree

import (
	"bytes"
	"io"
	"strings"
	"time"

	liberr "github.com/nabbar/vfsarc/errors"
)

// flatEntry is one record taken straight off the wire (ZIP central directory
// order, or TAR header order) before it is folded into a directory tree.
type flatEntry struct {
	path   string
	isDir  bool
	mtime  time.Time
	size   int64
	opener func(startOffset int64) (io.ReadCloser, liberr.Error)
}

// treeNode is the shared Entry implementation for every archtree format.
type treeNode struct {
	name     string
	isDir    bool
	mtime    time.Time
	size     int64
	opener   func(startOffset int64) (io.ReadCloser, liberr.Error)
	children []Entry
}

func (n *treeNode) Name() string       { return n.name }
func (n *treeNode) IsDir() bool        { return n.isDir }
func (n *treeNode) Size() int64        { return n.size }
func (n *treeNode) ModTime() time.Time { return n.mtime }
func (n *treeNode) Children() []Entry  { return n.children }

func (n *treeNode) Open(startOffset int64) (io.ReadCloser, liberr.Error) {
	if n.isDir {
		return nil, ErrUnsupportedFeature.Error()
	}
	if n.opener == nil {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return n.opener(startOffset)
}

// buildTree folds a flat, archive-order entry list (entries may or may not
// include explicit directory records) into a hierarchical tree rooted at an
// unnamed directory node. Order of children within a directory follows
// sortEntries (numeric-tolerant lexical).
func buildTree(flat []flatEntry) *treeNode {
	root := &treeNode{isDir: true}
	dirs := map[string]*treeNode{"": root}

	ensureDir := func(path string) *treeNode {
		if d, ok := dirs[path]; ok {
			return d
		}
		segs := strings.Split(path, "/")
		cur := ""
		var curNode *treeNode = root
		for _, s := range segs {
			if s == "" {
				continue
			}
			next := joinNonEmpty(cur, s)
			if d, ok := dirs[next]; ok {
				curNode = d
			} else {
				d = &treeNode{name: s, isDir: true}
				dirs[next] = d
				curNode.children = append(curNode.children, d)
				curNode = d
			}
			cur = next
		}
		return curNode
	}

	for _, fe := range flat {
		clean := strings.Trim(fe.path, "/")
		if clean == "" {
			continue
		}
		parent := ""
		name := clean
		if idx := strings.LastIndex(clean, "/"); idx >= 0 {
			parent = clean[:idx]
			name = clean[idx+1:]
		}
		pd := ensureDir(parent)

		if fe.isDir {
			ensureDir(clean)
			continue
		}

		node := &treeNode{
			name:   name,
			isDir:  false,
			mtime:  fe.mtime,
			size:   fe.size,
			opener: fe.opener,
		}
		pd.children = append(pd.children, node)
	}

	var sortRec func(n *treeNode)
	sortRec = func(n *treeNode) {
		sortEntries(n.children)
		for _, c := range n.children {
			if tn, ok := c.(*treeNode); ok {
				sortRec(tn)
			}
		}
	}
	sortRec(root)

	return root
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	return a + "/" + b
}

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

import "strings"

// CleanPath canonicalizes p to forward slashes, treating both / and \ as
// separators, and collapses repeated separators.
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// SplitPath yields one segment per non-empty path component.
func SplitPath(p string) []string {
	p = CleanPath(p)
	raw := strings.Split(p, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ConcatPath joins two path fragments, collapsing exactly one boundary
// separator so callers never have to worry about which side already has one.
func ConcatPath(a, b string) string {
	a = CleanPath(a)
	b = CleanPath(b)

	aHasSlash := strings.HasSuffix(a, "/")
	bHasSlash := strings.HasPrefix(b, "/")

	switch {
	case aHasSlash && bHasSlash:
		return a + b[1:]
	case !aHasSlash && !bHasSlash && a != "" && b != "":
		return a + "/" + b
	default:
		return a + b
	}
}

// ResolveRelative applies the segments of rel onto the segments of base,
// honoring "." (no-op) and ".." (pop one segment). A ".." that would pop
// past the root returns ok=false.
func ResolveRelative(base, rel string) (result string, ok bool) {
	segs := SplitPath(base)

	for _, s := range SplitPath(rel) {
		switch s {
		case ".":
			continue
		case "..":
			if len(segs) == 0 {
				return "", false
			}
			segs = segs[:len(segs)-1]
		default:
			segs = append(segs, s)
		}
	}

	return "/" + strings.Join(segs, "/"), true
}

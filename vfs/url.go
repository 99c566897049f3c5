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
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	libhtc "github.com/nabbar/vfsarc/httpcli"

	liberr "github.com/nabbar/vfsarc/errors"
)

// DefaultUrlStatTTL bounds how long a UrlFileBacking trusts a cached HEAD
// response before issuing a fresh one.
const DefaultUrlStatTTL = 1000 * time.Millisecond

type urlStatCache struct {
	mu      sync.Mutex
	at      time.Time
	stat    Stat
	fetched bool
}

// UrlFileBacking is a FileBacking over a remote URL root. Stat results are
// cached for a TTL (default DefaultUrlStatTTL) per instance, since a HEAD
// round-trip per query would make traversal of remote trees impractical.
type UrlFileBacking struct {
	base string
	rel  string
	ttl  time.Duration
	cli  libhtc.FctHttpClient
	cc   *urlStatCache
}

// NewUrl returns a UrlFileBacking rooted at base (an absolute http/https
// URL). A nil client function falls back to httpcli.GetClient.
func NewUrl(base string, client libhtc.FctHttpClient) *UrlFileBacking {
	if client == nil {
		client = func() *http.Client { return libhtc.GetClient() }
	}
	return &UrlFileBacking{
		base: strings.TrimRight(base, "/"),
		ttl:  DefaultUrlStatTTL,
		cli:  client,
		cc:   &urlStatCache{},
	}
}

func (u *UrlFileBacking) url() string {
	if u.rel == "" {
		return u.base
	}
	return ConcatPath(u.base, u.rel)
}

func (u *UrlFileBacking) req() libhtc.Request {
	r := libhtc.New(u.cli)
	_ = r.Endpoint(u.url())
	return r
}

func (u *UrlFileBacking) Name() string {
	segs := SplitPath(u.rel)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

func (u *UrlFileBacking) Path() string {
	return CleanPath(u.rel)
}

func (u *UrlFileBacking) Stat() Stat {
	u.cc.mu.Lock()
	if u.cc.fetched && time.Since(u.cc.at) < u.ttl {
		s := u.cc.stat
		u.cc.mu.Unlock()
		return s
	}
	u.cc.mu.Unlock()

	s := Stat{Origin: OriginURL}

	r := u.req()
	r.Method(http.MethodHead)

	resp, err := r.Do(context.Background())
	if err == nil && resp != nil {
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			s.Exists = true
			s.Readable = true
			s.Length = resp.ContentLength
			if lm := resp.Header.Get("Last-Modified"); lm != "" {
				if t, pErr := http.ParseTime(lm); pErr == nil {
					s.MTime = t.UnixMilli()
				}
			}
			if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "directory") {
				s.Directory = true
			}
		}
	}

	u.cc.mu.Lock()
	u.cc.stat = s
	u.cc.at = time.Now()
	u.cc.fetched = true
	u.cc.mu.Unlock()

	return s
}

func (u *UrlFileBacking) Check() bool {
	u.cc.mu.Lock()
	defer u.cc.mu.Unlock()
	return u.cc.fetched && time.Since(u.cc.at) < u.ttl
}

func (u *UrlFileBacking) List(_ ListFunc, _ CancelFunc) liberr.Error {
	return ErrUnsupported.Error()
}

func (u *UrlFileBacking) ChildNamed(name string) FileBacking {
	return &UrlFileBacking{
		base: u.base,
		rel:  ConcatPath(u.rel, name),
		ttl:  u.ttl,
		cli:  u.cli,
		cc:   &urlStatCache{},
	}
}

func (u *UrlFileBacking) Open(startOffset int64, canceled CancelFunc) (io.ReadCloser, liberr.Error) {
	if canceled != nil && canceled() {
		return nil, nil
	}

	r := u.req()
	if startOffset > 0 {
		r.Header("Range", fmt.Sprintf("bytes=%d-", startOffset))
	}

	resp, err := r.Do(context.Background())
	if err != nil {
		return nil, ErrIO.Error(err)
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, ErrNotFound.Error()
	}
	if resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, ErrIO.Error(fmt.Errorf("unexpected status %s", resp.Status))
	}
	return resp.Body, nil
}

func (u *UrlFileBacking) Create(_ bool) liberr.Error {
	return ErrUnsupported.Error()
}

func (u *UrlFileBacking) Delete(_ *DeleteStats) liberr.Error {
	return ErrUnsupported.Error()
}

func (u *UrlFileBacking) Write() (io.WriteCloser, liberr.Error) {
	return nil, ErrUnsupported.Error()
}

func (u *UrlFileBacking) SetLastModified(_ int64) bool {
	return false
}

func (u *UrlFileBacking) SetBool(_ string, _ bool, _ bool) bool {
	return false
}

func (u *UrlFileBacking) Move(_ string) liberr.Error {
	return ErrUnsupported.Error()
}

func (u *UrlFileBacking) VisitAll(forEach VisitFunc, canceled CancelFunc) liberr.Error {
	return visitAllGeneric(u, "", forEach, canceled)
}

func (u *UrlFileBacking) ToUrl() (string, liberr.Error) {
	return u.url(), nil
}

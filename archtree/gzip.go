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
	"compress/flate"
	"encoding/binary"
	"io"
	"strings"
	"time"

	liberr "github.com/nabbar/vfsarc/errors"
)

const (
	gzipFlagFTEXT    = 1 << 0
	gzipFlagFHCRC    = 1 << 1
	gzipFlagFEXTRA   = 1 << 2
	gzipFlagFNAME    = 1 << 3
	gzipFlagFCOMMENT = 1 << 4
)

// GzipFormat exposes a single-member GZIP stream as a one-entry synthetic
// tree: only FEXTRA/FNAME are supported, FHCRC/FCOMMENT are rejected per
// the RFC 1952 subset this core implements.
type GzipFormat struct{}

func (GzipFormat) Name() string { return "gzip" }

func (GzipFormat) MayBeArchive(prefix []byte) bool {
	return len(prefix) >= 3 && prefix[0] == 0x1F && prefix[1] == 0x8B && prefix[2] == 0x08
}

func (GzipFormat) Parse(data []byte, archiveName string) (Entry, liberr.Error) {
	if len(data) < 10 || data[0] != 0x1F || data[1] != 0x8B || data[2] != 0x08 {
		return nil, ErrNotArchive.Error()
	}

	flags := data[3]
	if flags&(gzipFlagFHCRC|gzipFlagFCOMMENT) != 0 {
		return nil, ErrUnsupportedFeature.Error()
	}

	mtimeSec := binary.LittleEndian.Uint32(data[4:8])
	pos := 10

	if flags&gzipFlagFEXTRA != 0 {
		if pos+2 > len(data) {
			return nil, ErrMalformed.Error()
		}
		xlen := int(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2 + xlen
	}

	name := ""
	if flags&gzipFlagFNAME != 0 {
		start := pos
		for pos < len(data) && data[pos] != 0 {
			pos++
		}
		if pos >= len(data) {
			return nil, ErrMalformed.Error()
		}
		name = decodeZipName(data[start:pos], false)
		pos++
	}

	if name == "" {
		name = strings.TrimSuffix(archiveName, ".gz")
	}

	payloadStart := pos
	body := data[payloadStart:]

	node := &treeNode{
		name:  name,
		isDir: false,
		mtime: time.Unix(int64(mtimeSec), 0).UTC(),
		size:  -1,
		opener: func(startOffset int64) (io.ReadCloser, liberr.Error) {
			fr := flate.NewReader(bytes.NewReader(body))
			if startOffset > 0 {
				if _, err := io.CopyN(io.Discard, fr, startOffset); err != nil {
					_ = fr.Close()
					return nil, ErrMalformed.Error()
				}
			}
			return fr, nil
		},
	}

	root := &treeNode{isDir: true, children: []Entry{node}}
	return root, nil
}

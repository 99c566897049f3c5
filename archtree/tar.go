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
	"strconv"
	"strings"
	"time"

	liberr "github.com/nabbar/vfsarc/errors"
)

// TarFormat is a sequential USTAR-compatible POSIX-TAR header parser with
// GNU 'L' long-name support. Entries are opened via an explicit byte-limited
// random-access read at entryLocalHeaderOffset + 512.
type TarFormat struct{}

func (TarFormat) Name() string { return "tar" }

func (TarFormat) MayBeArchive(prefix []byte) bool {
	if len(prefix) < 512 {
		return false
	}
	return tarChecksumValid(prefix[:512])
}

func (TarFormat) Parse(data []byte, _ string) (Entry, liberr.Error) {
	var flat []flatEntry
	pos := 0
	pendingLongName := ""

	for pos+512 <= len(data) {
		hdr := data[pos : pos+512]

		if isZeroHeader(hdr) {
			break
		}
		if !tarChecksumValid(hdr) {
			return nil, ErrMalformed.Error()
		}

		name := strings.TrimRight(string(hdr[0:100]), "\x00")
		sizeStr := strings.Trim(string(hdr[124:136]), " \x00")
		mtimeStr := strings.Trim(string(hdr[136:148]), " \x00")
		typeFlag := hdr[156]

		size, err := parseOctal(sizeStr)
		if err != nil {
			return nil, ErrMalformed.Error()
		}
		mtimeSec, _ := parseOctal(mtimeStr)

		dataOffset := pos + 512
		padded := int((size + 511) / 512 * 512)

		if typeFlag == 'L' {
			if dataOffset+int(size) > len(data) {
				return nil, ErrMalformed.Error()
			}
			pendingLongName = strings.TrimRight(string(data[dataOffset:dataOffset+int(size)]), "\x00")
			pos = dataOffset + padded
			continue
		}

		if pendingLongName != "" {
			name = pendingLongName
			pendingLongName = ""
		}

		isDir := typeFlag == '5' || strings.HasSuffix(name, "/")

		if !isDir && (typeFlag == 0 || typeFlag == '0') {
			start, length := dataOffset, int(size)
			flat = append(flat, flatEntry{
				path:  name,
				isDir: false,
				mtime: time.Unix(mtimeSec, 0).UTC(),
				size:  size,
				opener: func(startOffset int64) (io.ReadCloser, liberr.Error) {
					if start+length > len(data) {
						return nil, ErrMalformed.Error()
					}
					off := startOffset
					if off > int64(length) {
						off = int64(length)
					}
					return io.NopCloser(bytes.NewReader(data[start+int(off) : start+length])), nil
				},
			})
		} else if isDir {
			flat = append(flat, flatEntry{
				path:  name,
				isDir: true,
				mtime: time.Unix(mtimeSec, 0).UTC(),
			})
		}

		pos = dataOffset + padded
	}

	return buildTree(flat), nil
}

func isZeroHeader(hdr []byte) bool {
	for _, b := range hdr {
		if b != 0 {
			return false
		}
	}
	return true
}

func tarChecksumValid(hdr []byte) bool {
	field := strings.Trim(string(hdr[148:156]), " \x00")
	if field == "" {
		return false
	}
	want, err := parseOctal(field)
	if err != nil {
		return false
	}

	var sum int64
	for i, b := range hdr {
		if i >= 148 && i < 156 {
			sum += int64(' ')
		} else {
			sum += int64(b)
		}
	}
	return sum == want
}

func parseOctal(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 8, 64)
}

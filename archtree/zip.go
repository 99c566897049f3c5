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
	"bufio"
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"
	"time"

	liberr "github.com/nabbar/vfsarc/errors"
)

const (
	zipEOCDSig     = 0x06054b50
	zipCentralSig  = 0x02014b50
	zipLocalSig    = 0x04034b50
	zipDataDescSig = 0x08074b50

	zipBitUTF8      = 0x0800
	zipBitDataDescr = 0x0008
)

// ZipFormat parses the PKWARE ZIP container. Parse and ParseAt both resolve
// the central directory first (its offset/size fields are authoritative even
// for entries written with the bit-3 streaming flag, since a compliant writer
// back-fills the central directory once all entry data has been written).
// When no central directory can be located at all — a truncated or genuinely
// streamed container with no trailing index — or the end record declares an
// empty one, Parse falls back to
// parseZipStream, a sequential local-header walk that honors bit 3 by
// decoding each such entry to find its own boundary.
type ZipFormat struct{}

func (ZipFormat) Name() string { return "zip" }

func (ZipFormat) MayBeArchive(prefix []byte) bool {
	return len(prefix) >= 4 &&
		prefix[0] == 'P' && prefix[1] == 'K' &&
		((prefix[2] == 0x03 && prefix[3] == 0x04) || (prefix[2] == 0x05 && prefix[3] == 0x06))
}

// Parse requires the whole container in memory. It is the fallback path for
// backings that cannot offer random access (see ParseAt for the preferred,
// bounded-read path).
func (ZipFormat) Parse(data []byte, archiveName string) (Entry, liberr.Error) {
	if eocdOff, ferr := findZipEOCD(data); ferr == nil && binary.LittleEndian.Uint32(data[eocdOff+12:eocdOff+16]) != 0 {
		cdSize := int64(binary.LittleEndian.Uint32(data[eocdOff+12 : eocdOff+16]))
		cdOffset := int64(binary.LittleEndian.Uint32(data[eocdOff+16 : eocdOff+20]))
		if cdOffset < 0 || cdOffset+cdSize > int64(len(data)) {
			return nil, ErrMalformed.Error()
		}

		flat, perr := parseCentralDirectory(data[cdOffset:cdOffset+cdSize], func(localOffset, compSize uint32, method uint16) func(int64) (io.ReadCloser, liberr.Error) {
			return func(startOffset int64) (io.ReadCloser, liberr.Error) {
				return openZipEntryInMemory(data, localOffset, compSize, method, startOffset)
			}
		})
		if perr != nil {
			return nil, perr
		}
		return buildTree(flat), nil
	}

	return parseZipStream(bufio.NewReader(bytes.NewReader(data)), archiveName)
}

// ParseAt locates the end-of-central-directory record with a single bounded
// tail read (at most 22+65535 bytes, per APPNOTE §4.3.16), then reads only
// the central directory window through r. Entry payloads are never read
// until Open is called on them.
func (ZipFormat) ParseAt(r io.ReaderAt, size int64, _ string) (Entry, liberr.Error) {
	tail := int64(22 + 65535)
	if tail > size {
		tail = size
	}
	start := size - tail
	if start < 0 {
		start = 0
	}

	tailBuf, err := readAtFull(r, start, int(size-start))
	if err != nil {
		return nil, ErrMalformed.Error()
	}

	eocdOff, ferr := findZipEOCD(tailBuf)
	if ferr != nil {
		return nil, ferr
	}

	cdSize := int64(binary.LittleEndian.Uint32(tailBuf[eocdOff+12 : eocdOff+16]))
	cdOffset := int64(binary.LittleEndian.Uint32(tailBuf[eocdOff+16 : eocdOff+20]))
	if cdOffset < 0 || cdOffset+cdSize > size {
		return nil, ErrMalformed.Error()
	}

	cdBuf, err := readAtFull(r, cdOffset, int(cdSize))
	if err != nil {
		return nil, ErrMalformed.Error()
	}

	flat, perr := parseCentralDirectory(cdBuf, func(localOffset, compSize uint32, method uint16) func(int64) (io.ReadCloser, liberr.Error) {
		return func(startOffset int64) (io.ReadCloser, liberr.Error) {
			return openZipEntryAt(r, int64(localOffset), int64(compSize), method, startOffset)
		}
	})
	if perr != nil {
		return nil, perr
	}
	return buildTree(flat), nil
}

// parseCentralDirectory walks one central-directory buffer (already sliced to
// its own bounds) and builds the flat entry list. makeOpener receives each
// record's local-header offset, compressed size and method and returns the
// entry's Open(startOffset) implementation; the two callers differ only in
// how that implementation eventually reads the entry's bytes.
func parseCentralDirectory(cd []byte, makeOpener func(localOffset, compSize uint32, method uint16) func(int64) (io.ReadCloser, liberr.Error)) ([]flatEntry, liberr.Error) {
	var flat []flatEntry
	pos := 0
	end := len(cd)

	for pos < end {
		if pos+46 > len(cd) {
			return nil, ErrMalformed.Error()
		}
		if binary.LittleEndian.Uint32(cd[pos:pos+4]) != zipCentralSig {
			return nil, ErrMalformed.Error()
		}

		flags := binary.LittleEndian.Uint16(cd[pos+8 : pos+10])
		method := binary.LittleEndian.Uint16(cd[pos+10 : pos+12])
		modTime := binary.LittleEndian.Uint16(cd[pos+12 : pos+14])
		modDate := binary.LittleEndian.Uint16(cd[pos+14 : pos+16])
		compSize := binary.LittleEndian.Uint32(cd[pos+20 : pos+24])
		uncompSize := binary.LittleEndian.Uint32(cd[pos+24 : pos+28])
		nameLen := int(binary.LittleEndian.Uint16(cd[pos+28 : pos+30]))
		extraLen := int(binary.LittleEndian.Uint16(cd[pos+30 : pos+32]))
		commentLen := int(binary.LittleEndian.Uint16(cd[pos+32 : pos+34]))
		localOffset := binary.LittleEndian.Uint32(cd[pos+42 : pos+46])

		nameStart := pos + 46
		if nameStart+nameLen > len(cd) {
			return nil, ErrMalformed.Error()
		}
		name := decodeZipName(cd[nameStart:nameStart+nameLen], flags&zipBitUTF8 != 0)

		isDir := len(name) > 0 && name[len(name)-1] == '/'
		mtime := decodeDosTime(modDate, modTime)

		var opener func(int64) (io.ReadCloser, liberr.Error)
		if !isDir {
			opener = makeOpener(localOffset, compSize, method)
		}

		flat = append(flat, flatEntry{
			path:   name,
			isDir:  isDir,
			mtime:  mtime,
			size:   int64(uncompSize),
			opener: opener,
		})

		pos = nameStart + nameLen + extraLen + commentLen
	}

	return flat, nil
}

func findZipEOCD(data []byte) (int, liberr.Error) {
	maxBack := 22 + 65535
	start := len(data) - maxBack
	if start < 0 {
		start = 0
	}
	for i := len(data) - 22; i >= start; i-- {
		if binary.LittleEndian.Uint32(data[i:i+4]) == zipEOCDSig {
			return i, nil
		}
	}
	return 0, ErrNotArchive.Error()
}

func decodeZipName(b []byte, utf8 bool) string {
	if utf8 {
		return string(b)
	}
	// No CP437 table wired; treat as Latin-1, which round-trips ASCII names
	// (the overwhelming majority in practice) byte for byte.
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}

func decodeDosTime(date, t uint16) time.Time {
	sec := int((t & 0x1F) * 2)
	min := int((t >> 5) & 0x3F)
	hour := int((t >> 11) & 0x1F)
	day := int(date & 0x1F)
	month := int((date>>5)&0xF) - 1
	year := int((date>>9)&0x7F) + 1980

	if day == 0 {
		day = 1
	}
	return time.Date(year, time.Month(month+1), day, hour, min, sec, 0, time.UTC)
}

// readAtFull reads exactly n bytes at off via r.ReadAt, tolerating the
// io.EOF that ReadAt may return alongside a full read.
func readAtFull(r io.ReaderAt, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := r.ReadAt(buf, off)
	if err != nil && !(err == io.EOF && read == n) {
		return nil, err
	}
	return buf, nil
}

func decodeStagedPayload(raw []byte, method uint16, startOffset int64) (io.ReadCloser, liberr.Error) {
	switch method {
	case 0:
		if startOffset > int64(len(raw)) {
			startOffset = int64(len(raw))
		}
		return io.NopCloser(bytes.NewReader(raw[startOffset:])), nil
	case 8:
		fr := flate.NewReader(bytes.NewReader(raw))
		if startOffset > 0 {
			if _, err := io.CopyN(io.Discard, fr, startOffset); err != nil {
				_ = fr.Close()
				return nil, ErrMalformed.Error()
			}
		}
		return fr, nil
	default:
		return nil, ErrUnsupportedFeature.Error()
	}
}

// openZipEntryInMemory reads one entry's local header and staged bytes out
// of an already fully-buffered container (the Parse path).
func openZipEntryInMemory(data []byte, localOffset, compSize uint32, method uint16, startOffset int64) (io.ReadCloser, liberr.Error) {
	lo := int(localOffset)
	if lo+30 > len(data) {
		return nil, ErrMalformed.Error()
	}
	if binary.LittleEndian.Uint32(data[lo:lo+4]) != zipLocalSig {
		return nil, ErrMalformed.Error()
	}

	nameLen := int(binary.LittleEndian.Uint16(data[lo+26 : lo+28]))
	extraLen := int(binary.LittleEndian.Uint16(data[lo+28 : lo+30]))

	dataStart := lo + 30 + nameLen + extraLen
	dataEnd := dataStart + int(compSize)
	if dataEnd > len(data) {
		return nil, ErrMalformed.Error()
	}

	return decodeStagedPayload(data[dataStart:dataEnd], method, startOffset)
}

// openZipEntryAt is the ParseAt counterpart: it reads the 30-byte local
// header through r to find where the entry's bytes begin, then hands back a
// reader sourced from r itself — the entry's data is never copied into
// memory up front, stored entries are served by an io.SectionReader directly
// over r, and deflate entries stream through flate.Reader over that section.
func openZipEntryAt(r io.ReaderAt, localOffset, compSize int64, method uint16, startOffset int64) (io.ReadCloser, liberr.Error) {
	hdr, err := readAtFull(r, localOffset, 30)
	if err != nil {
		return nil, ErrMalformed.Error()
	}
	if binary.LittleEndian.Uint32(hdr[0:4]) != zipLocalSig {
		return nil, ErrMalformed.Error()
	}

	nameLen := int64(binary.LittleEndian.Uint16(hdr[26:28]))
	extraLen := int64(binary.LittleEndian.Uint16(hdr[28:30]))
	dataStart := localOffset + 30 + nameLen + extraLen

	switch method {
	case 0:
		off := startOffset
		if off > compSize {
			off = compSize
		}
		sr := io.NewSectionReader(r, dataStart+off, compSize-off)
		return io.NopCloser(sr), nil
	case 8:
		sr := io.NewSectionReader(r, dataStart, compSize)
		fr := flate.NewReader(sr)
		if startOffset > 0 {
			if _, err := io.CopyN(io.Discard, fr, startOffset); err != nil {
				_ = fr.Close()
				return nil, ErrMalformed.Error()
			}
		}
		return fr, nil
	default:
		return nil, ErrUnsupportedFeature.Error()
	}
}

// parseZipStream is the generic, local-header-only decoder used when no
// central directory could be located at all (a truncated download, or a
// source that only ever exposes a forward-only stream). It walks local
// headers in wire order; when an entry sets bit 3 (its size fields are zero
// and the authoritative values trail the compressed data in a data
// descriptor record) it decodes the entry fully to find where the
// compressed stream actually ends, then consumes the descriptor that
// follows before resuming the scan. Stop as soon as a central-directory or
// end-of-central-directory signature is seen; what trails it is not entry
// data.
func parseZipStream(br *bufio.Reader, _ string) (Entry, liberr.Error) {
	var flat []flatEntry

	for {
		sig, err := peekUint32(br)
		if err != nil {
			return nil, ErrMalformed.Error()
		}
		if sig == zipCentralSig || sig == zipEOCDSig {
			break
		}
		if sig != zipLocalSig {
			return nil, ErrMalformed.Error()
		}

		hdr := make([]byte, 30)
		if _, err := io.ReadFull(br, hdr); err != nil {
			return nil, ErrMalformed.Error()
		}

		flags := binary.LittleEndian.Uint16(hdr[6:8])
		method := binary.LittleEndian.Uint16(hdr[8:10])
		modTime := binary.LittleEndian.Uint16(hdr[10:12])
		modDate := binary.LittleEndian.Uint16(hdr[12:14])
		compSize := int64(binary.LittleEndian.Uint32(hdr[18:22]))
		nameLen := int(binary.LittleEndian.Uint16(hdr[26:28]))
		extraLen := int(binary.LittleEndian.Uint16(hdr[28:30]))

		name := make([]byte, nameLen)
		if _, err := io.ReadFull(br, name); err != nil {
			return nil, ErrMalformed.Error()
		}
		if extraLen > 0 {
			if _, err := io.CopyN(io.Discard, br, int64(extraLen)); err != nil {
				return nil, ErrMalformed.Error()
			}
		}

		isDir := len(name) > 0 && name[len(name)-1] == '/'
		mtime := decodeDosTime(modDate, modTime)

		if isDir {
			flat = append(flat, flatEntry{path: string(name), isDir: true, mtime: mtime})
			continue
		}

		hasDescriptor := flags&zipBitDataDescr != 0

		if !hasDescriptor {
			raw := make([]byte, compSize)
			if _, err := io.ReadFull(br, raw); err != nil {
				return nil, ErrMalformed.Error()
			}
			flat = append(flat, flatEntry{
				path:  string(name),
				isDir: false,
				mtime: mtime,
				size:  int64(len(raw)),
				opener: func(startOffset int64) (io.ReadCloser, liberr.Error) {
					return decodeStagedPayload(raw, method, startOffset)
				},
			})
			continue
		}

		if method != 8 {
			// Store-method entries with a trailing data descriptor have no
			// self-delimiting encoding to decode through; APPNOTE leaves
			// recovering their length to the reader's discretion, and this
			// parser does not implement that recovery.
			return nil, ErrUnsupportedFeature.Error()
		}

		fr := flate.NewReader(br)
		decoded, rerr := io.ReadAll(fr)
		_ = fr.Close()
		if rerr != nil {
			return nil, ErrMalformed.Error()
		}
		if derr := consumeDataDescriptor(br); derr != nil {
			return nil, derr
		}

		flat = append(flat, flatEntry{
			path:  string(name),
			isDir: false,
			mtime: mtime,
			size:  int64(len(decoded)),
			opener: func(startOffset int64) (io.ReadCloser, liberr.Error) {
				if startOffset > int64(len(decoded)) {
					startOffset = int64(len(decoded))
				}
				return io.NopCloser(bytes.NewReader(decoded[startOffset:])), nil
			},
		})
	}

	return buildTree(flat), nil
}

func peekUint32(br *bufio.Reader) (uint32, error) {
	b, err := br.Peek(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// consumeDataDescriptor discards the 12-byte (or 16-byte, if the optional
// signature is present) record trailing a bit-3 entry's compressed data.
func consumeDataDescriptor(br *bufio.Reader) liberr.Error {
	peek, err := br.Peek(4)
	if err != nil {
		return ErrMalformed.Error()
	}
	n := int64(12)
	if binary.LittleEndian.Uint32(peek) == zipDataDescSig {
		n = 16
	}
	if _, err := io.CopyN(io.Discard, br, n); err != nil {
		return ErrMalformed.Error()
	}
	return nil
}

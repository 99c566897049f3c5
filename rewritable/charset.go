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

package rewritable

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	liberr "github.com/nabbar/vfsarc/errors"
)

// Charset pairs a golang.org/x/text codec with the byte/rune ratios the
// text variant of RewritableFile needs to binary-search a byte budget down
// to a safe rune-prefix length, without re-encoding the whole candidate
// prefix at every step of the search.
type Charset struct {
	Name    string
	Codec   encoding.Encoding
	AvgSize float64 // average bytes consumed per rune
	MaxSize float64 // worst case bytes consumed per rune
}

// UTF8 is the default charset: the codec is a no-op, average and worst case
// sizes reflect UTF-8's 1..4 byte encoding of runes.
var UTF8 = Charset{
	Name:    "UTF-8",
	Codec:   unicode.UTF8,
	AvgSize: 1.1,
	MaxSize: 4,
}

// ResolveCharset looks up an IANA charset name via golang.org/x/text's
// registry. An empty name resolves to UTF8. Fixed-width codecs (most
// single-byte charsets) get avg == max == 1.
func ResolveCharset(name string) (Charset, liberr.Error) {
	if name == "" || strings.EqualFold(name, "UTF-8") || strings.EqualFold(name, "UTF8") {
		return UTF8, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return Charset{}, ErrorUnknownCharset.Error(err)
	}

	avg, max := 1.0, 1.0
	if strings.Contains(strings.ToUpper(name), "UTF-16") || strings.Contains(strings.ToUpper(name), "UTF16") {
		avg, max = 2, 4
	}

	return Charset{
		Name:    name,
		Codec:   enc,
		AvgSize: avg,
		MaxSize: max,
	}, nil
}

// charPrefixForByteBudget returns the largest n such that encoding
// runes[:n] with cs costs no more than budget bytes. It seeds a binary
// search bracket from the charset's average ratio, then narrows by actually
// encoding candidate prefixes, so the result is exact regardless of how
// rough the seed estimate is.
func charPrefixForByteBudget(cs Charset, runes []rune, budget int) int {
	if budget <= 0 || len(runes) == 0 {
		return 0
	}

	encodeLen := func(n int) int {
		b, err := cs.Codec.NewEncoder().Bytes([]byte(string(runes[:n])))
		if err != nil {
			return -1
		}
		return len(b)
	}

	lo, hi := 0, len(runes)
	guess := int(float64(budget) / maxFloat(cs.AvgSize, 0.1))
	if guess > hi {
		guess = hi
	}
	if guess < 0 {
		guess = 0
	}

	if n := encodeLen(guess); n >= 0 && n <= budget {
		lo = guess
	} else {
		hi = guess
	}

	for lo < hi {
		mid := lo + (hi-lo+1)/2
		n := encodeLen(mid)
		if n >= 0 && n <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	return lo
}

// safeTextChunk returns the largest byte count within data[:budget-or-less]
// that does not split a multi-byte rune: it decodes the leading window,
// binary-searches the rune prefix that re-encodes within budget bytes, and
// returns that prefix's actual encoded length.
func safeTextChunk(cs Charset, data []byte, budget int) int {
	if budget <= 0 || len(data) == 0 {
		return 0
	}
	if budget >= len(data) {
		budget = len(data)
	}

	window := data[:budget]
	decoded, _ := cs.Codec.NewDecoder().Bytes(window)
	runes := []rune(string(decoded))
	if len(runes) == 0 {
		return 0
	}

	n := charPrefixForByteBudget(cs, runes, budget)
	if n <= 0 {
		return 0
	}

	encoded, err := cs.Codec.NewEncoder().Bytes([]byte(string(runes[:n])))
	if err != nil {
		return 0
	}
	return len(encoded)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

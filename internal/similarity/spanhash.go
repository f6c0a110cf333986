// Package similarity estimates how similar two files are.
//
// Two independent scoring paths are provided: a whole-file span-overlap
// estimator modelled on git's estimate_similarity (EstimateSimilarity),
// and a line-level trigram matcher that stitches shared-trigram evidence
// into diagonal runs (TrigramFiles). Both reduce a pair of byte streams
// to a single scalar score.
package similarity

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// maxSpanLength caps a span at 64 bytes. Lines longer than this are split
// into fixed-size chunks without regard to line boundaries.
const maxSpanLength = 64

// SpanRecord is one distinct span of a file: its exact content, a stable
// 64-bit content hash and its occurrence, measured as the total bytes that
// content contributes across the whole file.
type SpanRecord struct {
	Data        []byte
	Hash        uint64
	Occurrences int
}

// SpanhashTop is the span multiset of one file, keyed by exact span
// content. Build one with SpanhashFile or SpanhashReader, then feed a
// pair of them to EstimateSimilarity.
type SpanhashTop struct {
	spans map[string]spanEntry
}

type spanEntry struct {
	hash        uint64
	occurrences int
}

// SpanhashFile hashes the file at path into a SpanhashTop.
func SpanhashFile(path string, binary bool) (*SpanhashTop, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	top, err := SpanhashReader(f, binary)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return top, nil
}

// SpanhashReader reads r to exhaustion, splitting it into spans of at most
// maxSpanLength bytes. A span ends at the first newline inside the current
// window, or at the length cap when no newline appears. In text mode a
// span ending in CRLF has the CR stripped before hashing, so "foo\r\n" and
// "foo\n" hash identically; binary mode preserves CRLF verbatim.
//
// A trailing span with no final newline is hashed when the stream ends
// cleanly. On a read error the partially accumulated span is dropped and
// the error is returned.
func SpanhashReader(r io.Reader, binary bool) (*SpanhashTop, error) {
	top := &SpanhashTop{spans: make(map[string]spanEntry)}
	buf := make([]byte, maxSpanLength)
	bufLen := 0
	for {
		n, err := r.Read(buf[bufLen:])
		bufLen += n
		if err == nil && bufLen < maxSpanLength {
			continue
		}
		atEOF := err == io.EOF
		if err != nil && !atEOF {
			return nil, err
		}
		for bufLen > 0 {
			var end int
			if idx := bytes.IndexByte(buf[:bufLen], '\n'); idx >= 0 {
				end = idx + 1
			} else if bufLen < maxSpanLength {
				// No newline yet and the window is not full: wait for
				// more input, or fall through to the trailing span below.
				break
			} else {
				end = maxSpanLength
			}
			top.add(buf[:end], binary)
			copy(buf, buf[end:bufLen])
			bufLen -= end
		}
		if atEOF {
			if bufLen > 0 {
				top.add(buf[:bufLen], binary)
			}
			return top, nil
		}
	}
}

// add accumulates one span, normalizing CRLF to LF in text mode.
func (t *SpanhashTop) add(span []byte, binary bool) {
	n := len(span)
	hasCRLF := n > 1 && span[n-1] == '\n' && span[n-2] == '\r'
	var key string
	if !binary && hasCRLF {
		key = string(span[:n-2]) + "\n"
	} else {
		key = string(span)
	}
	e, ok := t.spans[key]
	if !ok {
		e.hash = xxhash.Sum64String(key)
	}
	e.occurrences += len(key)
	t.spans[key] = e
}

// Size returns the total bytes accounted for by the multiset, i.e. the
// sum of all occurrences.
func (t *SpanhashTop) Size() int {
	total := 0
	for _, e := range t.spans {
		total += e.occurrences
	}
	return total
}

// Records materializes the multiset as a sorted sequence for the
// merge-join in EstimateSimilarity: zero-occurrence sentinels last, all
// other records in ascending hash order.
func (t *SpanhashTop) Records() []SpanRecord {
	recs := make([]SpanRecord, 0, len(t.spans))
	for data, e := range t.spans {
		recs = append(recs, SpanRecord{
			Data:        []byte(data),
			Hash:        e.hash,
			Occurrences: e.occurrences,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		switch {
		case a.Occurrences == 0 && b.Occurrences == 0:
			return false
		case a.Occurrences == 0:
			return false
		case b.Occurrences == 0:
			return true
		}
		return a.Hash < b.Hash
	})
	return recs
}

package similarity

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// matchThreshold is the accumulated trigram weight a (destination line,
// source line) pair must exceed to count as a candidate match. It is a
// fixed design constant controlling false-positive alignments.
const matchThreshold = 0.40

// Trigram is a 3-byte window packed most-significant byte first into the
// low 24 bits. Degenerate 1- and 2-byte windows from short lines pack the
// same way, left-aligned.
type Trigram uint32

// TrigramSet is the set of trigrams of one line.
type TrigramSet map[Trigram]struct{}

// packTrigram packs at most 3 bytes into a Trigram. A longer slice is a
// programming defect, not a data problem, and panics.
func packTrigram(b []byte) Trigram {
	switch len(b) {
	case 0:
		return 0
	case 1:
		return Trigram(b[0]) << 16
	case 2:
		return Trigram(b[0])<<16 | Trigram(b[1])<<8
	case 3:
		return Trigram(b[0])<<16 | Trigram(b[1])<<8 | Trigram(b[2])
	default:
		panic(fmt.Sprintf("trigram window has %d bytes, want at most 3", len(b)))
	}
}

// lineTrigrams computes the trigram set of one line. Lines shorter than 3
// bytes additionally contribute their 1- and 2-byte suffixes, so every
// non-empty line yields at least one trigram.
func lineTrigrams(line []byte) TrigramSet {
	set := make(TrigramSet)
	for i := 0; i+3 <= len(line); i++ {
		set[packTrigram(line[i:i+3])] = struct{}{}
	}
	if len(line) > 0 && len(line) < 3 {
		set[packTrigram(line[len(line)-1:])] = struct{}{}
		if len(line) > 1 {
			set[packTrigram(line[len(line)-2:])] = struct{}{}
		}
	}
	return set
}

// lineWeight is one index posting: a source line and the weight a single
// shared trigram contributes toward matching it.
type lineWeight struct {
	line   int
	weight float64
}

// TrigramIndex maps each trigram of a source file to the lines containing
// it. A line with many distinct trigrams contributes less weight per
// trigram: weight = 1 / |trigram set of that line|.
type TrigramIndex struct {
	postings  map[Trigram][]lineWeight
	lineCount int
}

// IndexFile builds a TrigramIndex over the source file at path.
func IndexFile(path string) (*TrigramIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	ix, err := IndexReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return ix, nil
}

// IndexReader builds a TrigramIndex over the lines of r. Lines are
// 1-indexed and carry their terminating newline; CRLF terminators are
// normalized to LF.
func IndexReader(r io.Reader) (*TrigramIndex, error) {
	ix := &TrigramIndex{postings: make(map[Trigram][]lineWeight)}
	err := eachLine(r, func(idx int, line []byte) {
		ix.lineCount = idx
		set := lineTrigrams(line)
		w := 1.0 / float64(len(set))
		for tri := range set {
			ix.postings[tri] = append(ix.postings[tri], lineWeight{line: idx, weight: w})
		}
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// LineCount returns the number of lines the index was built from.
func (ix *TrigramIndex) LineCount() int {
	return ix.lineCount
}

// MatchLine scores one destination line's trigram set against the index.
// The result maps candidate source lines to their accumulated weight;
// candidates at or below matchThreshold are dropped.
func (ix *TrigramIndex) MatchLine(set TrigramSet) map[int]float64 {
	matches := make(map[int]float64)
	for tri := range set {
		for _, lw := range ix.postings[tri] {
			matches[lw.line] += lw.weight
		}
	}
	for line, w := range matches {
		if w <= matchThreshold {
			delete(matches, line)
		}
	}
	return matches
}

// LineTrigramSets computes the per-line trigram sets of a destination
// stream, in line order.
func LineTrigramSets(r io.Reader) ([]TrigramSet, error) {
	var sets []TrigramSet
	err := eachLine(r, func(_ int, line []byte) {
		sets = append(sets, lineTrigrams(line))
	})
	if err != nil {
		return nil, err
	}
	return sets, nil
}

// eachLine calls fn with each line of r, 1-indexed, with any CRLF or LF
// terminator replaced by a single trailing LF. The final line is reported
// even without a terminator.
func eachLine(r io.Reader, fn func(idx int, line []byte)) error {
	br := bufio.NewReader(r)
	idx := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if line == "" && err == io.EOF {
			return nil
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		idx++
		fn(idx, append([]byte(line), '\n'))
		if err == io.EOF {
			return nil
		}
	}
}

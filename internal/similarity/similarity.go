package similarity

import (
	"fmt"
	"io"
	"os"
)

// Algorithm names the two scoring paths.
type Algorithm string

const (
	AlgorithmSpans   Algorithm = "spans"
	AlgorithmTrigram Algorithm = "trigram"
)

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return a == AlgorithmSpans || a == AlgorithmTrigram
}

// EstimateFiles runs the span-overlap estimator over two files. In binary
// mode CRLF sequences are preserved verbatim instead of being normalized
// to LF.
func EstimateFiles(leftPath, rightPath string, binary bool) (Score, error) {
	left, err := SpanhashFile(leftPath, binary)
	if err != nil {
		return 0, err
	}
	right, err := SpanhashFile(rightPath, binary)
	if err != nil {
		return 0, err
	}
	return EstimateSimilarity(left, right), nil
}

// EstimateReaders is EstimateFiles over already-open byte sources.
func EstimateReaders(left, right io.Reader, binary bool) (Score, error) {
	l, err := SpanhashReader(left, binary)
	if err != nil {
		return 0, err
	}
	r, err := SpanhashReader(right, binary)
	if err != nil {
		return 0, err
	}
	return EstimateSimilarity(l, r), nil
}

// TrigramFiles runs the trigram/run path: srcPath is indexed, every line
// of dstPath is scored against the index, and the resulting diagonal runs
// aggregate into a 0..100 percentage.
func TrigramFiles(srcPath, dstPath string) (float64, error) {
	ix, err := IndexFile(srcPath)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(dstPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open file %s: %w", dstPath, err)
	}
	defer f.Close()

	sets, err := LineTrigramSets(f)
	if err != nil {
		return 0, fmt.Errorf("failed to read file %s: %w", dstPath, err)
	}
	return trigramScore(ix, sets), nil
}

// TrigramReaders is TrigramFiles over already-open byte sources.
func TrigramReaders(src, dst io.Reader) (float64, error) {
	ix, err := IndexReader(src)
	if err != nil {
		return 0, err
	}
	sets, err := LineTrigramSets(dst)
	if err != nil {
		return 0, err
	}
	return trigramScore(ix, sets), nil
}

func trigramScore(ix *TrigramIndex, dstSets []TrigramSet) float64 {
	matches := make([]map[int]float64, len(dstSets))
	for i, set := range dstSets {
		matches[i] = ix.MatchLine(set)
	}
	runs := FindRuns(matches)
	return RunsToPercent(runs, len(dstSets))
}

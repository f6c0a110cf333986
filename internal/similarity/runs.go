package similarity

import "sort"

// minRunSpan is the largest destination-line span (end minus start) a run
// may have and still be discarded. Runs must span more than this to count
// as evidence of a copied block.
const minRunSpan = 3

// Run is a maximal diagonal alignment between a source line range and a
// destination line range: consecutive destination lines matched
// consecutive source lines. Percents holds one match percentage per
// destination line in the range.
type Run struct {
	SrcStart, SrcEnd int
	DstStart, DstEnd int
	Percents         []float64
}

// span is the run length measured in destination line gaps.
func (r Run) span() int {
	return r.DstEnd - r.DstStart
}

// FindRuns converts per-destination-line match maps (one entry per
// destination line, in order, as produced by TrigramIndex.MatchLine) into
// finalized runs. A run extends while destination line i+1 matches source
// line s+1; any open run not extended on a given line closes there, and
// closed runs spanning minRunSpan or fewer lines are discarded.
func FindRuns(matches []map[int]float64) []Run {
	// Open runs keyed by the source line they currently end at; the map
	// is replaced wholesale on every destination line.
	open := make(map[int]Run)
	var found []Run

	finalize := func(run Run) {
		if run.span() > minRunSpan {
			found = append(found, run)
		}
	}

	for i, lineMatches := range matches {
		dst := i + 1
		next := make(map[int]Run, len(lineMatches))
		for src, perc := range lineMatches {
			run, ok := open[src-1]
			if ok {
				delete(open, src-1)
			} else {
				run = Run{SrcStart: src, DstStart: dst}
			}
			run.SrcEnd = src
			run.DstEnd = dst
			run.Percents = append(run.Percents, perc)
			next[src] = run
		}
		for _, run := range open {
			finalize(run)
		}
		open = next
	}
	for _, run := range open {
		finalize(run)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].DstStart != found[j].DstStart {
			return found[i].DstStart < found[j].DstStart
		}
		return found[i].SrcStart < found[j].SrcStart
	})
	return found
}

// RunsToPercent aggregates finalized runs into a single 0..100 score over
// a destination file of lineCount lines: each destination line takes the
// best percentage any run assigns it, and the final score is the mean
// over all destination lines.
//
// A destination with zero lines has nothing to normalize by and scores
// 100 by definition; callers comparing against an empty destination get
// that explicit special case, not a division by zero.
func RunsToPercent(runs []Run, lineCount int) float64 {
	if lineCount == 0 {
		return 100.0
	}
	best := make([]float64, lineCount+1)
	for _, run := range runs {
		for k, perc := range run.Percents {
			line := run.DstStart + k
			if perc > best[line] {
				best[line] = perc
			}
		}
	}
	sum := 0.0
	for _, p := range best[1:] {
		sum += p
	}
	return sum / float64(lineCount) * 100.0
}

package similarity

import (
	"math"
	"testing"
)

// diagonal builds match maps where destination line i matches source line
// i+offset with the given percentage, for n destination lines.
func diagonal(n, offset int, perc float64) []map[int]float64 {
	matches := make([]map[int]float64, n)
	for i := range matches {
		matches[i] = map[int]float64{i + 1 + offset: perc}
	}
	return matches
}

func TestFindRuns(t *testing.T) {
	t.Run("ShortRunsDiscarded", func(t *testing.T) {
		runs := FindRuns(diagonal(4, 0, 1.0))
		if len(runs) != 0 {
			t.Errorf("Expected a 4-line diagonal to be discarded, got %d runs", len(runs))
		}
	})

	t.Run("LongRunKept", func(t *testing.T) {
		runs := FindRuns(diagonal(5, 0, 1.0))
		if len(runs) != 1 {
			t.Fatalf("Expected 1 run, got %d", len(runs))
		}
		run := runs[0]
		if run.SrcStart != 1 || run.SrcEnd != 5 || run.DstStart != 1 || run.DstEnd != 5 {
			t.Errorf("Unexpected run ranges: %+v", run)
		}
		if len(run.Percents) != 5 {
			t.Errorf("Expected 5 percentages, got %d", len(run.Percents))
		}
		for i, p := range run.Percents {
			if p != 1.0 {
				t.Errorf("Percents[%d] = %v, want 1.0", i, p)
			}
		}
	})

	t.Run("OffsetDiagonal", func(t *testing.T) {
		runs := FindRuns(diagonal(6, 10, 0.8))
		if len(runs) != 1 {
			t.Fatalf("Expected 1 run, got %d", len(runs))
		}
		run := runs[0]
		if run.SrcStart != 11 || run.SrcEnd != 16 || run.DstStart != 1 || run.DstEnd != 6 {
			t.Errorf("Unexpected run ranges: %+v", run)
		}
	})

	t.Run("BrokenContinuityClosesRun", func(t *testing.T) {
		// Five matched lines, a gap, then four more: only the first
		// segment survives the length rule.
		matches := make([]map[int]float64, 10)
		for i := 0; i < 5; i++ {
			matches[i] = map[int]float64{i + 1: 1.0}
		}
		matches[5] = map[int]float64{}
		for i := 6; i < 10; i++ {
			matches[i] = map[int]float64{i + 1: 1.0}
		}
		runs := FindRuns(matches)
		if len(runs) != 1 {
			t.Fatalf("Expected 1 run, got %d", len(runs))
		}
		if runs[0].DstStart != 1 || runs[0].DstEnd != 5 {
			t.Errorf("Unexpected surviving run: %+v", runs[0])
		}
	})

	t.Run("ParallelDiagonals", func(t *testing.T) {
		// Every destination line matches two source diagonals; both
		// produce full-length runs.
		matches := make([]map[int]float64, 5)
		for i := range matches {
			matches[i] = map[int]float64{i + 1: 1.0, i + 21: 0.5}
		}
		runs := FindRuns(matches)
		if len(runs) != 2 {
			t.Fatalf("Expected 2 runs, got %d", len(runs))
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		if runs := FindRuns(make([]map[int]float64, 8)); len(runs) != 0 {
			t.Errorf("Expected no runs, got %d", len(runs))
		}
	})
}

func TestRunsToPercent(t *testing.T) {
	t.Run("FullCoverage", func(t *testing.T) {
		runs := FindRuns(diagonal(10, 0, 1.0))
		if got := RunsToPercent(runs, 10); got != 100.0 {
			t.Errorf("Expected 100.0, got %v", got)
		}
	})

	t.Run("PartialCoverage", func(t *testing.T) {
		// 5 of 10 destination lines covered at 1.0.
		runs := FindRuns(diagonal(5, 0, 1.0))
		if got := RunsToPercent(runs, 10); got != 50.0 {
			t.Errorf("Expected 50.0, got %v", got)
		}
	})

	t.Run("BestPercentageWins", func(t *testing.T) {
		matches := make([]map[int]float64, 5)
		for i := range matches {
			matches[i] = map[int]float64{i + 1: 0.5, i + 21: 0.9}
		}
		runs := FindRuns(matches)
		got := RunsToPercent(runs, 5)
		if math.Abs(got-90.0) > 1e-9 {
			t.Errorf("Expected 90.0 from the better diagonal, got %v", got)
		}
	})

	t.Run("ZeroDestinationLines", func(t *testing.T) {
		if got := RunsToPercent(nil, 0); got != 100.0 {
			t.Errorf("Expected the explicit 100.0 special case, got %v", got)
		}
	})

	t.Run("NoRuns", func(t *testing.T) {
		if got := RunsToPercent(nil, 7); got != 0.0 {
			t.Errorf("Expected 0.0 without runs, got %v", got)
		}
	})
}

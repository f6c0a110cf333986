package similarity

// Score bounds for the span-overlap estimator. A score of MaxScore means
// the files are identical; MinScore is the floor used by the size-delta
// guard below.
const (
	MaxScore = 60000.0
	MinScore = 30000.0
)

// Score is a span-overlap similarity on the 0..MaxScore scale.
type Score float64

// Percent rescales the score to 0..100.
func (s Score) Percent() float64 {
	return float64(s) * 100.0 / MaxScore
}

// EstimateSimilarity estimates how many bytes of right are accounted for
// by spans copied from left, as a Score in [0, MaxScore].
//
// Two empty files are maximally similar; one empty file scores zero. If
// the size delta is so large that no edit could plausibly relate the two
// files — delta >= (MaxScore-MinScore)/MaxScore * max(size) — the result
// is zero without inspecting content. That guard also keeps the final
// division away from zero.
func EstimateSimilarity(left, right *SpanhashTop) Score {
	leftSize := left.Size()
	rightSize := right.Size()
	maxSize := leftSize
	baseSize := rightSize
	if rightSize > leftSize {
		maxSize, baseSize = rightSize, leftSize
	}
	deltaSize := maxSize - baseSize

	if float64(maxSize)*(MaxScore-MinScore) < float64(deltaSize)*MaxScore {
		return 0
	}
	switch {
	case leftSize == 0 && rightSize == 0:
		return MaxScore
	case leftSize == 0 || rightSize == 0:
		return 0
	}

	copied, _ := countChanges(left.Records(), right.Records())
	return Score(float64(copied) * MaxScore / float64(maxSize))
}

// countChanges merge-joins two hash-sorted span sequences, counting the
// bytes copied from src to dst (matched spans contribute the smaller of
// the two occurrences) and the bytes added in dst with no match in src.
func countChanges(src, dst []SpanRecord) (copied, added int) {
	di := 0
	next := func() SpanRecord {
		if di < len(dst) {
			r := dst[di]
			di++
			return r
		}
		return SpanRecord{}
	}

	d := next()
	for _, s := range src {
		for d.Occurrences != 0 {
			if d.Hash >= s.Hash {
				break
			}
			added += d.Occurrences
			d = next()
		}
		srcCnt := s.Occurrences
		dstCnt := 0
		if d.Occurrences > 0 && d.Hash == s.Hash {
			dstCnt = d.Occurrences
			d = next()
		}
		if srcCnt < dstCnt {
			added += dstCnt - srcCnt
			copied += srcCnt
		} else {
			copied += dstCnt
		}
	}
	for d.Occurrences > 0 {
		added += d.Occurrences
		d = next()
	}
	return copied, added
}

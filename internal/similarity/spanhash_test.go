package similarity

import (
	"errors"
	"strings"
	"testing"
)

func spanTop(t *testing.T, content string, binary bool) *SpanhashTop {
	t.Helper()
	top, err := SpanhashReader(strings.NewReader(content), binary)
	if err != nil {
		t.Fatalf("SpanhashReader failed: %v", err)
	}
	return top
}

func TestSpanhashReader(t *testing.T) {
	t.Run("SplitsOnNewlines", func(t *testing.T) {
		top := spanTop(t, "hello\nworld\n", false)
		recs := top.Records()
		if len(recs) != 2 {
			t.Fatalf("Expected 2 distinct spans, got %d", len(recs))
		}
		if top.Size() != 12 {
			t.Errorf("Expected total size 12, got %d", top.Size())
		}
		for _, r := range recs {
			if r.Occurrences != 6 {
				t.Errorf("Span %q: expected occurrence 6, got %d", r.Data, r.Occurrences)
			}
		}
	})

	t.Run("AccumulatesRepeatedContent", func(t *testing.T) {
		top := spanTop(t, "ab\nab\nab\n", false)
		recs := top.Records()
		if len(recs) != 1 {
			t.Fatalf("Expected 1 distinct span, got %d", len(recs))
		}
		// Occurrence is byte-weighted: three copies of a 3-byte span.
		if recs[0].Occurrences != 9 {
			t.Errorf("Expected occurrence 9, got %d", recs[0].Occurrences)
		}
	})

	t.Run("SplitsLongLinesAtCap", func(t *testing.T) {
		long := strings.Repeat("a", 100) + "\n"
		top := spanTop(t, long, false)
		recs := top.Records()
		if len(recs) != 2 {
			t.Fatalf("Expected 2 spans for a 101-byte line, got %d", len(recs))
		}
		sizes := map[int]bool{}
		for _, r := range recs {
			sizes[r.Occurrences] = true
		}
		if !sizes[64] || !sizes[37] {
			t.Errorf("Expected spans of 64 and 37 bytes, got %v", sizes)
		}
	})

	t.Run("HashesTrailingSpanWithoutNewline", func(t *testing.T) {
		top := spanTop(t, "abc", false)
		recs := top.Records()
		if len(recs) != 1 {
			t.Fatalf("Expected trailing span to be hashed, got %d records", len(recs))
		}
		if string(recs[0].Data) != "abc" {
			t.Errorf("Expected span %q, got %q", "abc", recs[0].Data)
		}
	})

	t.Run("NormalizesCRLFInTextMode", func(t *testing.T) {
		crlf := spanTop(t, "foo\r\n", false)
		lf := spanTop(t, "foo\n", false)
		if crlf.Records()[0].Hash != lf.Records()[0].Hash {
			t.Error("Expected CRLF and LF variants to hash identically in text mode")
		}
	})

	t.Run("PreservesCRLFInBinaryMode", func(t *testing.T) {
		crlf := spanTop(t, "foo\r\n", true)
		lf := spanTop(t, "foo\n", true)
		if crlf.Records()[0].Hash == lf.Records()[0].Hash {
			t.Error("Expected CRLF and LF variants to hash differently in binary mode")
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		top := spanTop(t, "", false)
		if top.Size() != 0 || len(top.Records()) != 0 {
			t.Errorf("Expected empty multiset, got size %d with %d records", top.Size(), len(top.Records()))
		}
	})

	t.Run("PropagatesReadErrors", func(t *testing.T) {
		wantErr := errors.New("disk on fire")
		_, err := SpanhashReader(&failingReader{err: wantErr}, false)
		if !errors.Is(err, wantErr) {
			t.Errorf("Expected read error to propagate, got %v", err)
		}
	})
}

func TestSpanhashRecordsOrder(t *testing.T) {
	top := spanTop(t, "one\ntwo\nthree\nfour\nfive\n", false)
	recs := top.Records()
	for i := 1; i < len(recs); i++ {
		if recs[i-1].Hash > recs[i].Hash {
			t.Fatalf("Records not in ascending hash order at %d: %x > %x", i, recs[i-1].Hash, recs[i].Hash)
		}
	}
}

type failingReader struct {
	err error
}

func (r *failingReader) Read(p []byte) (int, error) {
	return 0, r.err
}

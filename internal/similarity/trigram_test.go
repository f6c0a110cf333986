package similarity

import (
	"strings"
	"testing"
)

func TestPackTrigram(t *testing.T) {
	cases := []struct {
		name  string
		input []byte
		want  Trigram
	}{
		{"Empty", nil, 0},
		{"OneByte", []byte{'a'}, 0x610000},
		{"TwoBytes", []byte{'a', '\n'}, 0x610A00},
		{"ThreeBytes", []byte{'a', 'b', 'c'}, 0x616263},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := packTrigram(tc.input); got != tc.want {
				t.Errorf("packTrigram(%v) = %06x, want %06x", tc.input, got, tc.want)
			}
		})
	}

	t.Run("PanicsBeyondThreeBytes", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic for a 4-byte window")
			}
		}()
		packTrigram([]byte("abcd"))
	})
}

func TestLineTrigrams(t *testing.T) {
	t.Run("OneByteLine", func(t *testing.T) {
		set := lineTrigrams([]byte("\n"))
		if len(set) != 1 {
			t.Fatalf("Expected 1 trigram, got %d", len(set))
		}
		if _, ok := set[0x0A0000]; !ok {
			t.Error("Expected the degenerate 1-byte trigram")
		}
	})

	t.Run("TwoByteLine", func(t *testing.T) {
		set := lineTrigrams([]byte("a\n"))
		if len(set) != 2 {
			t.Fatalf("Expected 2 trigrams, got %d", len(set))
		}
		for _, want := range []Trigram{0x0A0000, 0x610A00} {
			if _, ok := set[want]; !ok {
				t.Errorf("Missing trigram %06x", want)
			}
		}
	})

	t.Run("SlidingWindows", func(t *testing.T) {
		set := lineTrigrams([]byte("abcd\n"))
		want := []Trigram{0x616263, 0x626364, 0x63640A}
		if len(set) != len(want) {
			t.Fatalf("Expected %d trigrams, got %d", len(want), len(set))
		}
		for _, tri := range want {
			if _, ok := set[tri]; !ok {
				t.Errorf("Missing trigram %06x", tri)
			}
		}
	})

	t.Run("DuplicatesCollapse", func(t *testing.T) {
		set := lineTrigrams([]byte("aaaaaa\n"))
		// "aaa" repeats; only "aaa" and "aa\n" remain distinct.
		if len(set) != 2 {
			t.Errorf("Expected 2 distinct trigrams, got %d", len(set))
		}
	})
}

func TestTrigramIndex(t *testing.T) {
	t.Run("IdenticalLineScoresPerfectly", func(t *testing.T) {
		ix, err := IndexReader(strings.NewReader("hello world\n"))
		if err != nil {
			t.Fatalf("IndexReader failed: %v", err)
		}
		matches := ix.MatchLine(lineTrigrams([]byte("hello world\n")))
		if got := matches[1]; got < 0.999 || got > 1.001 {
			t.Errorf("Expected weight 1.0 for the identical line, got %v", got)
		}
	})

	t.Run("WeakMatchesDropped", func(t *testing.T) {
		ix, err := IndexReader(strings.NewReader("abcdefghij\n"))
		if err != nil {
			t.Fatalf("IndexReader failed: %v", err)
		}
		// Shares only the "ij\n" tail: 1 of 9 trigrams, well under 0.40.
		matches := ix.MatchLine(lineTrigrams([]byte("zzzzzzzzij\n")))
		if len(matches) != 0 {
			t.Errorf("Expected weak match to be dropped, got %v", matches)
		}
	})

	t.Run("WeightSplitsAcrossTrigrams", func(t *testing.T) {
		ix, err := IndexReader(strings.NewReader("ab\n"))
		if err != nil {
			t.Fatalf("IndexReader failed: %v", err)
		}
		// "ab\n" has the single trigram {ab\n}; a full match weighs 1.0.
		matches := ix.MatchLine(lineTrigrams([]byte("ab\n")))
		if got := matches[1]; got != 1.0 {
			t.Errorf("Expected weight 1.0, got %v", got)
		}
	})

	t.Run("LineCount", func(t *testing.T) {
		ix, err := IndexReader(strings.NewReader("one\ntwo\nthree"))
		if err != nil {
			t.Fatalf("IndexReader failed: %v", err)
		}
		if ix.LineCount() != 3 {
			t.Errorf("Expected 3 lines including the unterminated tail, got %d", ix.LineCount())
		}
	})
}

func TestEachLine(t *testing.T) {
	t.Run("NormalizesCRLF", func(t *testing.T) {
		var lines []string
		err := eachLine(strings.NewReader("a\r\nb\n"), func(_ int, line []byte) {
			lines = append(lines, string(line))
		})
		if err != nil {
			t.Fatalf("eachLine failed: %v", err)
		}
		if len(lines) != 2 || lines[0] != "a\n" || lines[1] != "b\n" {
			t.Errorf("Expected normalized lines, got %q", lines)
		}
	})

	t.Run("ReportsUnterminatedTail", func(t *testing.T) {
		var got []string
		err := eachLine(strings.NewReader("tail"), func(_ int, line []byte) {
			got = append(got, string(line))
		})
		if err != nil {
			t.Fatalf("eachLine failed: %v", err)
		}
		if len(got) != 1 || got[0] != "tail\n" {
			t.Errorf("Expected the tail line with a newline appended, got %q", got)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		count := 0
		err := eachLine(strings.NewReader(""), func(_ int, _ []byte) { count++ })
		if err != nil {
			t.Fatalf("eachLine failed: %v", err)
		}
		if count != 0 {
			t.Errorf("Expected no lines, got %d", count)
		}
	})
}

package similarity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestEstimateFiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("IdenticalFiles", func(t *testing.T) {
		content := "alpha\nbeta\ngamma\n"
		a := writeFile(t, dir, "a.txt", content)
		b := writeFile(t, dir, "b.txt", content)
		for _, binary := range []bool{false, true} {
			score, err := EstimateFiles(a, b, binary)
			if err != nil {
				t.Fatalf("EstimateFiles failed: %v", err)
			}
			if score != MaxScore {
				t.Errorf("binary=%v: expected MaxScore, got %v", binary, score)
			}
		}
	})

	t.Run("DisjointSameSize", func(t *testing.T) {
		a := writeFile(t, dir, "left.txt", "aaaa\nbbbb\ncccc\n")
		b := writeFile(t, dir, "right.txt", "dddd\neeee\nffff\n")
		score, err := EstimateFiles(a, b, false)
		if err != nil {
			t.Fatalf("EstimateFiles failed: %v", err)
		}
		if score.Percent() != 0.0 {
			t.Errorf("Expected 0.00, got %.2f", score.Percent())
		}
	})

	t.Run("MissingFileNamesPath", func(t *testing.T) {
		missing := filepath.Join(dir, "does-not-exist")
		_, err := EstimateFiles(missing, missing, false)
		if err == nil {
			t.Fatal("Expected an error for a missing file")
		}
		if !strings.Contains(err.Error(), missing) {
			t.Errorf("Expected the path in the error, got %v", err)
		}
	})
}

func TestTrigramFiles(t *testing.T) {
	dir := t.TempDir()

	t.Run("IdenticalTenLineFiles", func(t *testing.T) {
		content := strings.Repeat("a\n", 10)
		src := writeFile(t, dir, "src.txt", content)
		dst := writeFile(t, dir, "dst.txt", content)
		got, err := TrigramFiles(src, dst)
		if err != nil {
			t.Fatalf("TrigramFiles failed: %v", err)
		}
		if got != 100.0 {
			t.Errorf("Expected 100.00, got %.2f", got)
		}
	})

	t.Run("UnrelatedFiles", func(t *testing.T) {
		src := writeFile(t, dir, "unrelated-src.txt", strings.Repeat("abcdefgh\n", 10))
		dst := writeFile(t, dir, "unrelated-dst.txt", strings.Repeat("12345678\n", 10))
		got, err := TrigramFiles(src, dst)
		if err != nil {
			t.Fatalf("TrigramFiles failed: %v", err)
		}
		if got != 0.0 {
			t.Errorf("Expected 0.00, got %.2f", got)
		}
	})

	t.Run("CopiedBlockInLargerFile", func(t *testing.T) {
		block := "first line of block\nsecond line of block\nthird line of block\nfourth line of block\nfifth line of block\n"
		src := writeFile(t, dir, "block-src.txt", block)
		dst := writeFile(t, dir, "block-dst.txt", block+strings.Repeat("qqqqqqqq\n", 5))
		got, err := TrigramFiles(src, dst)
		if err != nil {
			t.Fatalf("TrigramFiles failed: %v", err)
		}
		if got <= 0.0 || got > 100.0 {
			t.Fatalf("Expected a partial score, got %.2f", got)
		}
		if got < 40.0 || got > 60.0 {
			t.Errorf("Expected roughly half coverage, got %.2f", got)
		}
	})

	t.Run("EmptyDestination", func(t *testing.T) {
		src := writeFile(t, dir, "empty-src.txt", "content\n")
		dst := writeFile(t, dir, "empty-dst.txt", "")
		got, err := TrigramFiles(src, dst)
		if err != nil {
			t.Fatalf("TrigramFiles failed: %v", err)
		}
		if got != 100.0 {
			t.Errorf("Expected the documented 100.00 special case, got %.2f", got)
		}
	})
}

func TestReaderVariants(t *testing.T) {
	t.Run("EstimateReaders", func(t *testing.T) {
		score, err := EstimateReaders(strings.NewReader("x\n"), strings.NewReader("x\n"), false)
		if err != nil {
			t.Fatalf("EstimateReaders failed: %v", err)
		}
		if score != MaxScore {
			t.Errorf("Expected MaxScore, got %v", score)
		}
	})

	t.Run("TrigramReaders", func(t *testing.T) {
		content := strings.Repeat("same line here\n", 6)
		got, err := TrigramReaders(strings.NewReader(content), strings.NewReader(content))
		if err != nil {
			t.Fatalf("TrigramReaders failed: %v", err)
		}
		if got < 99.0 || got > 101.0 {
			t.Errorf("Expected ~100.00, got %.2f", got)
		}
	})
}

func TestAlgorithmValid(t *testing.T) {
	if !AlgorithmSpans.Valid() || !AlgorithmTrigram.Valid() {
		t.Error("Expected both algorithms to be valid")
	}
	if Algorithm("levenshtein").Valid() {
		t.Error("Expected an unknown algorithm to be invalid")
	}
}

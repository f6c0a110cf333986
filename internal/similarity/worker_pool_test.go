package similarity

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestWorkerPool(t *testing.T) {
	t.Run("ExecutesCompareJobs", func(t *testing.T) {
		dir := t.TempDir()
		content := strings.Repeat("shared line\n", 8)
		left := writeFile(t, dir, "left.txt", content)
		right := writeFile(t, dir, "right.txt", content)

		pool := NewWorkerPool(context.Background())
		defer pool.Close()

		results := make(chan PairScore, 1)
		done := make(chan struct{}, 1)
		job := &CompareJob{
			LeftPath:   left,
			RightPath:  right,
			Algorithm:  AlgorithmSpans,
			ResultChan: results,
			DoneChan:   done,
		}
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		select {
		case res := <-results:
			if res.Err != nil {
				t.Fatalf("CompareJob failed: %v", res.Err)
			}
			if res.Percent != 100.0 {
				t.Errorf("Expected 100.00 for identical files, got %.2f", res.Percent)
			}
			if res.LeftPath != left || res.RightPath != right {
				t.Errorf("Result paths do not match the job: %+v", res)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Timed out waiting for the comparison result")
		}
		<-done
	})

	t.Run("ReportsErrorsOnResult", func(t *testing.T) {
		pool := NewWorkerPool(context.Background())
		defer pool.Close()

		results := make(chan PairScore, 1)
		done := make(chan struct{}, 1)
		job := &CompareJob{
			LeftPath:   "/definitely/not/a/file",
			RightPath:  "/definitely/not/a/file",
			Algorithm:  AlgorithmTrigram,
			ResultChan: results,
			DoneChan:   done,
		}
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}

		select {
		case res := <-results:
			if res.Err == nil {
				t.Error("Expected an error for a missing file")
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Timed out waiting for the comparison result")
		}
	})

	t.Run("SizeIsPositive", func(t *testing.T) {
		pool := NewWorkerPool(context.Background())
		defer pool.Close()
		if pool.Size() < 1 {
			t.Errorf("Expected at least one worker, got %d", pool.Size())
		}
	})
}

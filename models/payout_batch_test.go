package models

import "testing"

func TestBatchStatusCanTransition(t *testing.T) {
	allowed := map[BatchStatus][]BatchStatus{
		BatchPending:    {BatchProcessing, BatchCancelled},
		BatchProcessing: {BatchCompleted, BatchFailed, BatchCancelled},
		BatchCompleted:  {},
		BatchFailed:     {},
		BatchCancelled:  {},
	}
	all := []BatchStatus{BatchPending, BatchProcessing, BatchCompleted, BatchFailed, BatchCancelled}

	for from, nexts := range allowed {
		permitted := make(map[BatchStatus]bool)
		for _, next := range nexts {
			permitted[next] = true
		}
		for _, next := range all {
			if got := from.CanTransition(next); got != permitted[next] {
				t.Errorf("%s -> %s = %v, want %v", from, next, got, permitted[next])
			}
		}
	}
}

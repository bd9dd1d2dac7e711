package query

import (
	"testing"
)

func TestPartitionsCoverRangeExactly(t *testing.T) {
	for total := 0; total <= 50; total++ {
		for workers := 1; workers <= 10; workers++ {
			parts := Partitions(total, workers)
			if len(parts) != workers {
				t.Fatalf("total=%d workers=%d: got %d partitions", total, workers, len(parts))
			}

			perWorker := (total + workers - 1) / workers
			sum := 0
			next := 0
			for _, p := range parts {
				if p.Start != next {
					t.Fatalf("total=%d workers=%d: partition %d starts at %d, want %d", total, workers, p.WorkerNum, p.Start, next)
				}
				if p.End < p.Start {
					t.Fatalf("total=%d workers=%d: partition %d has End %d < Start %d", total, workers, p.WorkerNum, p.End, p.Start)
				}
				if p.Size() > perWorker {
					t.Fatalf("total=%d workers=%d: partition %d has size %d, ceiling is %d", total, workers, p.WorkerNum, p.Size(), perWorker)
				}
				if p.Size() < perWorker && p.End != total {
					t.Fatalf("total=%d workers=%d: short partition %d does not end the range", total, workers, p.WorkerNum)
				}
				next = p.End
				sum += p.Size()
			}
			if sum != total {
				t.Fatalf("total=%d workers=%d: partition sizes sum to %d", total, workers, sum)
			}
			if next != total {
				t.Fatalf("total=%d workers=%d: partitions end at %d", total, workers, next)
			}
		}
	}
}

func TestPartitionsMoreWorkersThanTotal(t *testing.T) {
	parts := Partitions(3, 8)
	for i, p := range parts {
		if i < 3 && p.Size() != 1 {
			t.Errorf("partition %d: got size %d, want 1", i, p.Size())
		}
		if i >= 3 && p.Size() != 0 {
			t.Errorf("partition %d: got size %d, want empty", i, p.Size())
		}
	}
}

func TestPartitionsDeterministic(t *testing.T) {
	a := Partitions(17, 4)
	b := Partitions(17, 4)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("partition %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

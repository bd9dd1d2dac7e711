package query

// Partition assigns the contiguous iteration range [Start, End) to one worker.
type Partition struct {
	WorkerNum int
	Start     int
	End       int
}

func (p Partition) Size() int {
	return p.End - p.Start
}

// Partitions splits [0, total) across workers by ceiling division. The
// partitions are contiguous, non-overlapping and their union is exactly
// [0, total): every partition holds ceil(total/workers) iterations except the
// trailing ones, which absorb the shortfall and may be empty.
func Partitions(total, workers int) []Partition {
	perWorker := (total + workers - 1) / workers
	parts := make([]Partition, workers)
	for i := 0; i < workers; i++ {
		start := i * perWorker
		end := start + perWorker
		if start > total {
			start = total
		}
		if end > total {
			end = total
		}
		parts[i] = Partition{WorkerNum: i, Start: start, End: end}
	}
	return parts
}

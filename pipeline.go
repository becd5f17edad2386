package xpbd

import "sync"

// task splits data into workersCount contiguous chunks processed concurrently.
// fn receives the index of the item in data, so results can be written to a
// slot per item and keep the input order.
func task[T any](workersCount int, data []T, fn func(i int, data T)) {
	dataSize := len(data)
	if workersCount <= 1 || dataSize <= 1 {
		for i, d := range data {
			fn(i, d)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for start := 0; start < dataSize; start += chunkSize {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i, data[i])
			}
		}(start, min(start+chunkSize, dataSize))
	}
	wg.Wait()
}

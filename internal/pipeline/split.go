package pipeline

// Split cuts items into consecutive batches of size elements. Order is kept
// and only the last batch may be shorter. size <= 0 yields a single batch
// holding everything; empty input yields no batches.
func Split[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

package transform

// Distinct removes exact duplicate rows, keeping the first occurrence of each
func Distinct[T comparable](rows []T) []T {
	seen := make(map[T]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row]; ok {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	return out
}

// ReduceByKey keeps one row per key. replace reports whether candidate should win over current;
// for the result to be independent of input order it must be a strict total order on rows sharing a key.
func ReduceByKey[T any, K comparable](rows []T, key func(T) K, replace func(current, candidate T) bool) []T {
	index := make(map[K]int, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		k := key(row)
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, row)
			continue
		}
		if replace(out[i], row) {
			out[i] = row
		}
	}
	return out
}

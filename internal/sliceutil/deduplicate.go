// Package sliceutil provides generic slice helpers.
package sliceutil

// Deduplicate keeps the first item for each key, preserving order.
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFunc(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// LatestBy keeps one item per key: the one newer reports as newest. Among
// items that are equally new the earliest wins. Order of the result follows
// the first appearance of each key.
func LatestBy[T any, K comparable](items []T, keyFunc func(T) K, newer func(a, b T) bool) []T {
	if len(items) == 0 {
		return items
	}

	index := make(map[K]int, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFunc(item)
		i, ok := index[key]
		if !ok {
			index[key] = len(result)
			result = append(result, item)
			continue
		}
		if newer(item, result[i]) {
			result[i] = item
		}
	}
	return result
}

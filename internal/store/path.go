package store

import "strconv"

// evalPath resolves a dotted/bracketed property path against a decoded
// JSON document. Returns the value and whether the path resolved; a
// stored null resolves to (nil, true).
func evalPath(doc any, path string) (any, bool) {
	cur := doc
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			i++

		case '[':
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if j == len(path) {
				return nil, false
			}
			idx, err := strconv.Atoi(path[i+1 : j])
			if err != nil || idx < 0 {
				return nil, false
			}
			arr, ok := cur.([]any)
			if !ok || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
			i = j + 1

		default:
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			v, present := obj[path[i:j]]
			if !present {
				return nil, false
			}
			cur = v
			i = j
		}
	}
	return cur, true
}

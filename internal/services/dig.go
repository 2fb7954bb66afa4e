package services

// dig walks a decoded JSON tree by alternating string keys (map lookups) and
// int indexes (slice lookups). Returns nil as soon as the path breaks.
func dig(v any, path ...any) any {
	cur := v
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			cur = m[key]
		case int:
			arr, ok := cur.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return nil
			}
			cur = arr[key]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

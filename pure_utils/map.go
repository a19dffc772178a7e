package pure_utils

// Map returns a new slice with the same length as src, but with values transformed by f.
// The result is never nil, so that empty lists are rendered as [] in json.
func Map[T, U any](src []T, f func(T) U) []U {
	us := make([]U, len(src))
	for i := range src {
		us[i] = f(src[i])
	}
	return us
}

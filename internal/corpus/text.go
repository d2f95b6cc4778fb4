package corpus

// StringsMatchUpToSpaces reports whether two strings are equal after
// ignoring extra space characters in either one. Useful for spotting
// near-duplicate responses whose only difference is whitespace drift from
// upstream re-encoding.
func StringsMatchUpToSpaces(a, b string) bool {
	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}
	for idx := 0; idx < limit-2; idx++ {
		if a[idx] != b[idx] {
			if a[idx] != ' ' && b[idx] != ' ' {
				return false
			}
			if a[idx] == ' ' {
				a = a[:idx] + a[idx+1:]
			} else {
				b = b[:idx] + b[idx+1:]
			}
			if len(a) < limit {
				limit = len(a)
			}
			if len(b) < limit {
				limit = len(b)
			}
		}
	}
	return true
}

package domain

// Zero overwrites a byte slice with zeros to clear sensitive key material
// from memory. Safe to call on nil or empty slices.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

package vectab

// Reset forgets a previous relocation.
func Reset() {
	relocated = false
	active = nil
	clear(storage[:])
}

package pincode

// Length is the fixed width of an Indian postal PIN code.
const Length = 6

// Valid reports whether value is exactly six ASCII digits. Location columns
// in price sheets and every lookup key must satisfy this before touching
// storage.
func Valid(value string) bool {
	if len(value) != Length {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}

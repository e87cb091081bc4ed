package textutil

import "unicode"

// NaturalLess compares two strings so that embedded digit runs order
// numerically: "Lesson 2" sorts before "Lesson 10". Non-digit characters
// compare case-insensitively.
func NaturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			startA, startB := i, j
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			numA := trimLeadingZeros(ra[startA:i])
			numB := trimLeadingZeros(rb[startB:j])
			if len(numA) != len(numB) {
				return len(numA) < len(numB)
			}
			for k := range numA {
				if numA[k] != numB[k] {
					return numA[k] < numB[k]
				}
			}
			continue
		}
		la, lb := unicode.ToLower(ca), unicode.ToLower(cb)
		if la != lb {
			return la < lb
		}
		i++
		j++
	}
	return len(ra)-i < len(rb)-j
}

func trimLeadingZeros(digits []rune) []rune {
	k := 0
	for k < len(digits)-1 && digits[k] == '0' {
		k++
	}
	return digits[k:]
}

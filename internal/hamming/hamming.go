// Package hamming measures position-wise distance between equal-length
// barcodes.
package hamming

import "fmt"

// Distance counts the positions where a and b differ.
// It panics if the lengths differ; callers validate shape first.
func Distance(a, b string) int {
	if len(a) != len(b) {
		panic(fmt.Sprintf("hamming: length mismatch %d != %d", len(a), len(b)))
	}
	d := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

// Within reports whether Distance(a, b) <= max, stopping at the first
// position that pushes the count past max.
func Within(a, b string, max int) bool {
	if len(a) != len(b) {
		panic(fmt.Sprintf("hamming: length mismatch %d != %d", len(a), len(b)))
	}
	d := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			d++
			if d > max {
				return false
			}
		}
	}
	return true
}

// CheckLengths returns the index of the first item whose length differs
// from items[0], or -1 when all lengths agree.
func CheckLengths(items []string) int {
	if len(items) == 0 {
		return -1
	}
	want := len(items[0])
	for i, s := range items {
		if len(s) != want {
			return i
		}
	}
	return -1
}

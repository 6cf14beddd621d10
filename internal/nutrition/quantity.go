package nutrition

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var quantityRun = regexp.MustCompile(`[0-9.,]+`)

// ParseQuantity reads the first number out of free text such as "150g",
// "2 pieces" or "1,5 כוס". A comma is read as a decimal point. The boolean is
// false when no finite number could be read, in which case the value is 0.
func ParseQuantity(s string) (float64, bool) {
	run := quantityRun.FindString(s)
	if run == "" {
		return 0, false
	}
	run = strings.ReplaceAll(run, ",", ".")

	// Keep the longest leading prefix that is a valid decimal: "1.5.2" reads as 1.5.
	end := 0
	seenDigit, seenDot := false, false
	for i, r := range run {
		if r == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else {
			seenDigit = true
		}
		end = i + 1
	}
	if !seenDigit {
		return 0, false
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(run[:end], "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// positiveQuantity is ParseQuantity restricted to usable gram amounts.
func positiveQuantity(s string) (float64, bool) {
	v, ok := ParseQuantity(s)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// NormalizeServingSize turns a typed serving size into a plain decimal string.
// Anything that is not a positive number becomes "".
func NormalizeServingSize(s string) string {
	v, ok := positiveQuantity(s)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

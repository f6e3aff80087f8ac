package state

import "strconv"

// Hash fields come back from the store as strings. Counters written by the
// pipeline are always numeric, but fields that a processor has not written
// yet read back as "": the lenient variants default those to zero.

func parseFloatField(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func intField(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

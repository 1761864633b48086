package services

import (
	"strconv"
	"strings"
)

// CompareVersions compares dotted numeric versions.
// Returns -1, 0 or 1. Missing components count as zero, so "13" equals "13.0".
// A leading "v" is ignored; non-numeric components compare lexically.
func CompareVersions(a, b string) int {
	pa := strings.Split(strings.TrimPrefix(a, "v"), ".")
	pb := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}

	for i := 0; i < n; i++ {
		ca, cb := "0", "0"
		if i < len(pa) {
			ca = pa[i]
		}
		if i < len(pb) {
			cb = pb[i]
		}

		if c := compareComponent(ca, cb); c != 0 {
			return c
		}
	}

	return 0
}

func compareComponent(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)

	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	case errA == nil:
		// Numeric components sort before pre-release labels
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

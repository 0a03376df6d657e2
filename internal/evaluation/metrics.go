package evaluation

// Accuracy returns correct/total, or 0.0 when total is zero.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(correct) / float64(total)
}

// SetRecall computes the fraction of expected items present in got.
// Returns 1.0 if expected is empty, since nothing was missed.
func SetRecall(expected, got []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}

	gotSet := make(map[string]struct{}, len(got))
	for _, g := range got {
		gotSet[g] = struct{}{}
	}

	found := 0
	for _, e := range expected {
		if _, ok := gotSet[e]; ok {
			found++
		}
	}

	return float64(found) / float64(len(expected))
}

// SetPrecision computes the fraction of got items that were expected.
// Returns 1.0 if got is empty, since nothing spurious was reported.
func SetPrecision(expected, got []string) float64 {
	if len(got) == 0 {
		return 1.0
	}

	expectedSet := make(map[string]struct{}, len(expected))
	for _, e := range expected {
		expectedSet[e] = struct{}{}
	}

	correct := 0
	for _, g := range got {
		if _, ok := expectedSet[g]; ok {
			correct++
		}
	}

	return float64(correct) / float64(len(got))
}

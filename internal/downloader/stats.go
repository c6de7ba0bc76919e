package downloader

// Stats aggregates the outcomes of one run. Success counts both fresh
// downloads and valid cache hits; Fail counts exhausted and empty symbols.
// Total == Success + Fail always holds.
type Stats struct {
	Total   int
	Success int
	Fail    int

	// ByStatus breaks the totals down per outcome tag.
	ByStatus map[Status]int
}

func newStats() Stats {
	return Stats{ByStatus: make(map[Status]int)}
}

// add folds one outcome into the counters. Folding is commutative, so the
// arrival order of outcomes never changes the final statistics.
func (s *Stats) add(o Outcome) {
	s.Total++
	s.ByStatus[o.Status]++
	switch o.Status {
	case StatusSuccess, StatusExists:
		s.Success++
	default:
		s.Fail++
	}
}

// SuccessRate returns the success percentage, 0 for an empty run.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total) * 100
}

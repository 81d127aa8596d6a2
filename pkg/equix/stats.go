package equix

// Stats counts what a solve attempt discarded along the way. Entries dropped
// because a bucket was full are expected; verification mismatches are not
// and indicate an oracle that is not pure or a bug.
type Stats struct {
	Stage1Dropped int `json:"stage1_dropped"`
	Stage2Dropped int `json:"stage2_dropped"`
	Stage3Dropped int `json:"stage3_dropped"`
	FineDropped   int `json:"fine_dropped"`

	Candidates           int `json:"candidates"`
	PartialSumMismatches int `json:"partial_sum_mismatches"`
	FinalSumMismatches   int `json:"final_sum_mismatches"`
	Solutions            int `json:"solutions"`
}

// Add accumulates o into s
func (s *Stats) Add(o Stats) {
	s.Stage1Dropped += o.Stage1Dropped
	s.Stage2Dropped += o.Stage2Dropped
	s.Stage3Dropped += o.Stage3Dropped
	s.FineDropped += o.FineDropped
	s.Candidates += o.Candidates
	s.PartialSumMismatches += o.PartialSumMismatches
	s.FinalSumMismatches += o.FinalSumMismatches
	s.Solutions += o.Solutions
}

// Mismatches returns the number of candidates that failed verification
func (s Stats) Mismatches() int {
	return s.PartialSumMismatches + s.FinalSumMismatches
}

// MismatchRate is the fraction of candidates rejected by verification
func (s Stats) MismatchRate() float64 {
	if s.Candidates == 0 {
		return 0
	}
	return float64(s.Mismatches()) / float64(s.Candidates)
}

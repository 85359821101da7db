package types

// BatchSummary aggregates per-message outcomes of one sync cycle.
type BatchSummary struct {
	Fetched   int `json:"fetched"`
	Skipped   int `json:"skipped"`
	Degraded  int `json:"degraded"`
	Created   int `json:"created"`
	Merged    int `json:"merged"`
	Discarded int `json:"discarded"`
	Failed    int `json:"failed"`
}

// Successful reports whether the batch as a whole succeeded. Individual
// skips, degrades and discards never fail a batch; only a batch where every
// fetched item failed counts as unsuccessful.
func (s BatchSummary) Successful() bool {
	return s.Fetched == 0 || s.Failed < s.Fetched
}

// Add folds another summary into this one.
func (s *BatchSummary) Add(o BatchSummary) {
	s.Fetched += o.Fetched
	s.Skipped += o.Skipped
	s.Degraded += o.Degraded
	s.Created += o.Created
	s.Merged += o.Merged
	s.Discarded += o.Discarded
	s.Failed += o.Failed
}

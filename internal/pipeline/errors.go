package pipeline

import "fmt"

// BatchError reports a batch in which every fetched message failed. The
// syncer treats it as a signal to leave the cursor where it is so the same
// window is retried next cycle.
type BatchError struct {
	Fetched int
	Failed  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch failed: %d of %d messages errored", e.Failed, e.Fetched)
}

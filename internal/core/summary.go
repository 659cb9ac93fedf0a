package core

import (
	"time"

	"github.com/playerMars/final-ocr/internal/core/numeric"
)

// BatchSummary counts the outcome of a batch run. SuccessRate is a
// percentage of TotalFiles.
type BatchSummary struct {
	TotalFiles  int           `json:"total_files"`
	Successful  int           `json:"successful"`
	Failed      int           `json:"failed"`
	NeedsReview int           `json:"needs_review"`
	Abandoned   int           `json:"abandoned,omitempty"`
	SuccessRate float64       `json:"success_rate"`
	Duration    time.Duration `json:"duration_ns"`
}

// Summarize counts results against total inputs. Inputs without a result
// were abandoned by cancellation.
func Summarize(results []*ProcessResult, total int, elapsed time.Duration) BatchSummary {
	s := BatchSummary{TotalFiles: total, Duration: elapsed}
	for _, r := range results {
		switch {
		case r == nil:
			continue
		case r.OK():
			s.Successful++
		default:
			s.Failed++
		}
		if r.NeedsReview {
			s.NeedsReview++
		}
	}
	if n := total - s.Successful - s.Failed; n > 0 {
		s.Abandoned = n
	}
	if total > 0 {
		s.SuccessRate = numeric.Round2(100 * float64(s.Successful) / float64(total))
	}
	return s
}

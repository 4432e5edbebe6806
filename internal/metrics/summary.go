// Package metrics summarises a session's main-block performance.
package metrics

import (
	"math"
	"time"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// Summary covers main trials only. Times are in seconds; a mean over no
// trials is zero.
type Summary struct {
	Trials        int `json:"trials"`
	GoTrials      int `json:"go_trials"`
	StopTrials    int `json:"stop_trials"`
	CorrectGo     int `json:"correct_go"`
	IncorrectGo   int `json:"incorrect_go"`
	CorrectStop   int `json:"correct_stop"`
	IncorrectStop int `json:"incorrect_stop"`

	MeanGoRT         float64 `json:"mean_go_rt_s"`
	GoRTSD           float64 `json:"go_rt_sd_s"`
	MeanTargetOffset float64 `json:"mean_target_offset_s"`
	StopSuccessRate  float64 `json:"stop_success_rate"`
	MeanSSD          float64 `json:"mean_ssd_s"`
	// SSRT is the mean-method stop-signal reaction time estimate: mean Go RT
	// minus mean SSD.
	SSRT float64 `json:"ssrt_s"`
}

// Summarize computes the summary of the main trials in records.
func Summarize(records []domain.TrialRecord, target time.Duration) Summary {
	var s Summary
	var rts, ssds []float64
	var offsets float64

	for _, r := range records {
		if r.Label != domain.PhaseMain {
			continue
		}
		s.Trials++
		switch r.Outcome {
		case domain.OutcomeCorrectGo:
			s.CorrectGo++
		case domain.OutcomeIncorrectGo:
			s.IncorrectGo++
		case domain.OutcomeCorrectStop:
			s.CorrectStop++
		case domain.OutcomeIncorrectStop:
			s.IncorrectStop++
		}

		if r.Signal == domain.SignalStop {
			s.StopTrials++
			if r.SSD != nil {
				ssds = append(ssds, r.SSD.Seconds())
			}
			continue
		}
		s.GoTrials++
		if r.Outcome == domain.OutcomeCorrectGo && r.RT != nil {
			rts = append(rts, r.RT.Seconds())
			offsets += math.Abs(target.Seconds() - r.RT.Seconds())
		}
	}

	s.MeanGoRT = mean(rts)
	s.GoRTSD = stddev(rts)
	if len(rts) > 0 {
		s.MeanTargetOffset = offsets / float64(len(rts))
	}
	if s.StopTrials > 0 {
		s.StopSuccessRate = float64(s.CorrectStop) / float64(s.StopTrials)
	}
	s.MeanSSD = mean(ssds)
	if len(rts) > 0 && len(ssds) > 0 {
		s.SSRT = s.MeanGoRT - s.MeanSSD
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) <= 1 {
		return 0
	}
	avg := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - avg
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

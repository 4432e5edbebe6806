package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RecordHeader is the header line of the tab-separated record file.
const RecordHeader = "block\ttrialType\ttrial\tsignal\tresponse\tssd\trt"

// NotApplicable is written in place of the SSD on Go trials and the RT when the
// key was never released.
const NotApplicable = "NaN"

// TrialRecord is the persisted result of one trial. It is never mutated after
// the executor hands it to the sink.
type TrialRecord struct {
	Block    int
	Label    Phase
	Trial    int
	Signal   Signal
	Released bool
	// SSD is nil on Go trials.
	SSD *time.Duration
	// RT is the release latency from the first trial frame, nil if the key was
	// held to the end.
	RT      *time.Duration
	Outcome Outcome
}

// TSV renders the record as one line of the record file, without the newline.
func (r TrialRecord) TSV() string {
	response := "0"
	if r.Released {
		response = "1"
	}
	fields := []string{
		strconv.Itoa(r.Block),
		string(r.Label),
		strconv.Itoa(r.Trial),
		strconv.Itoa(int(r.Signal)),
		response,
		formatSeconds(r.SSD),
		formatSeconds(r.RT),
	}
	return strings.Join(fields, "\t")
}

func formatSeconds(d *time.Duration) string {
	if d == nil {
		return NotApplicable
	}
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func (r TrialRecord) String() string {
	return fmt.Sprintf("block=%d %s trial=%d signal=%s outcome=%s", r.Block, r.Label, r.Trial, r.Signal, r.Outcome)
}

type trialRecordJSON struct {
	Block    int      `json:"block"`
	Label    Phase    `json:"trial_type"`
	Trial    int      `json:"trial"`
	Signal   Signal   `json:"signal"`
	Response int      `json:"response"`
	SSDS     *float64 `json:"ssd_s"`
	RTS      *float64 `json:"rt_s"`
	Outcome  Outcome  `json:"outcome"`
}

func secondsPtr(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	s := d.Seconds()
	return &s
}

func durationPtr(s *float64) *time.Duration {
	if s == nil {
		return nil
	}
	d := SecondsToDuration(*s)
	return &d
}

// MarshalJSON encodes SSD and RT in seconds, null when not applicable.
func (r TrialRecord) MarshalJSON() ([]byte, error) {
	w := trialRecordJSON{
		Block:   r.Block,
		Label:   r.Label,
		Trial:   r.Trial,
		Signal:  r.Signal,
		SSDS:    secondsPtr(r.SSD),
		RTS:     secondsPtr(r.RT),
		Outcome: r.Outcome,
	}
	if r.Released {
		w.Response = 1
	}
	return json.Marshal(w)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *TrialRecord) UnmarshalJSON(data []byte) error {
	var w trialRecordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = TrialRecord{
		Block:    w.Block,
		Label:    w.Label,
		Trial:    w.Trial,
		Signal:   w.Signal,
		Released: w.Response == 1,
		SSD:      durationPtr(w.SSDS),
		RT:       durationPtr(w.RTS),
		Outcome:  w.Outcome,
	}
	return nil
}

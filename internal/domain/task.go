package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// TrialSpec is the input to one trial.
type TrialSpec struct {
	Signal Signal
	// FixedDelay is the stop-signal delay used by the fixed method.
	FixedDelay *time.Duration
}

// BarLayout describes the bar in centimetres, centred on fixation.
type BarLayout struct {
	HeightCM float64 `json:"height_cm"`
	WidthCM  float64 `json:"width_cm"`
}

// TaskConfig is the per-session task configuration.
type TaskConfig struct {
	ParticipantID string

	Method       Method
	InitialDelay time.Duration
	StepSize     time.Duration
	LowerBound   time.Duration
	UpperBound   time.Duration
	// BoundPrecision is the rounding applied to both sides when the staircase
	// compares the current delay with a bound.
	BoundPrecision time.Duration

	TrialDuration      time.Duration
	TargetFraction     float64
	InterTrialInterval time.Duration

	CountdownEnabled bool
	FeedbackEnabled  bool
	PracticeEnabled  bool

	MainBlocks int
	Order      TrialOrder
	Seed       uint64
	ControlKey Key
	Layout     BarLayout

	PracticeGoTrials    []TrialSpec
	PracticeMixedTrials []TrialSpec
	MainTrials          []TrialSpec
}

// DefaultTaskConfig returns the standard task parameters.
func DefaultTaskConfig() TaskConfig {
	mixed := append(RepeatTrials(SignalGo, 4), RepeatTrials(SignalStop, 2)...)
	mainTrials := append(RepeatTrials(SignalGo, 15), RepeatTrials(SignalStop, 5)...)
	return TaskConfig{
		Method:              MethodStaircase,
		InitialDelay:        500 * time.Millisecond,
		StepSize:            25 * time.Millisecond,
		LowerBound:          50 * time.Millisecond,
		UpperBound:          775 * time.Millisecond,
		BoundPrecision:      time.Millisecond,
		TrialDuration:       time.Second,
		TargetFraction:      0.8,
		InterTrialInterval:  2 * time.Second,
		CountdownEnabled:    true,
		FeedbackEnabled:     true,
		PracticeEnabled:     true,
		MainBlocks:          3,
		Order:               OrderRandom,
		ControlKey:          KeySpace,
		Layout:              BarLayout{HeightCM: 15, WidthCM: 3},
		PracticeGoTrials:    RepeatTrials(SignalGo, 5),
		PracticeMixedTrials: mixed,
		MainTrials:          mainTrials,
	}
}

// RepeatTrials returns n trials of the given signal.
func RepeatTrials(signal Signal, n int) []TrialSpec {
	specs := make([]TrialSpec, n)
	for i := range specs {
		specs[i] = TrialSpec{Signal: signal}
	}
	return specs
}

// TargetTime is the point of the trial at which the bar crosses the target.
func (c TaskConfig) TargetTime() time.Duration {
	return time.Duration(math.Round(c.TargetFraction * float64(c.TrialDuration)))
}

// Validate checks the configuration and returns a *ConfigurationError that
// lists every problem found.
func (c TaskConfig) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Method != MethodStaircase && c.Method != MethodFixed {
		add("method must be %q or %q, got %q", MethodStaircase, MethodFixed, c.Method)
	}
	if c.StepSize <= 0 {
		add("step size must be positive")
	}
	if c.LowerBound < 0 {
		add("lower bound must not be negative")
	}
	if c.LowerBound > c.UpperBound {
		add("lower bound %s is above upper bound %s", c.LowerBound, c.UpperBound)
	}
	if c.Method == MethodStaircase && (c.InitialDelay < c.LowerBound || c.InitialDelay > c.UpperBound) {
		add("initial delay %s is outside [%s, %s]", c.InitialDelay, c.LowerBound, c.UpperBound)
	}
	if c.BoundPrecision <= 0 {
		add("bound precision must be positive")
	}
	if c.TrialDuration <= 0 {
		add("trial duration must be positive")
	}
	if !(c.TargetFraction > 0 && c.TargetFraction < 1) {
		add("target fraction must be in (0, 1), got %v", c.TargetFraction)
	}
	if c.InterTrialInterval < 0 {
		add("inter-trial interval must not be negative")
	}
	if c.MainBlocks < 1 {
		add("at least one main block is required")
	}
	if len(c.MainTrials) == 0 {
		add("main trial list is empty")
	}
	if c.PracticeEnabled && (len(c.PracticeGoTrials) == 0 || len(c.PracticeMixedTrials) == 0) {
		add("practice is enabled but a practice trial list is empty")
	}
	if c.Order != OrderSequential && c.Order != OrderRandom {
		add("trial order must be %q or %q, got %q", OrderSequential, OrderRandom, c.Order)
	}
	if c.ControlKey == "" || c.ControlKey == KeyEscape {
		add("control key must be set and must not be %q", KeyEscape)
	}
	if c.Layout.HeightCM <= 0 || c.Layout.WidthCM <= 0 {
		add("bar layout dimensions must be positive")
	}

	lists := map[Phase][]TrialSpec{
		PhasePracticeGo:    c.PracticeGoTrials,
		PhasePracticeMixed: c.PracticeMixedTrials,
		PhaseMain:          c.MainTrials,
	}
	for _, phase := range []Phase{PhasePracticeGo, PhasePracticeMixed, PhaseMain} {
		for i, spec := range lists[phase] {
			if !spec.Signal.Valid() {
				add("%s trial %d: invalid signal %d", phase, i+1, int(spec.Signal))
				continue
			}
			if c.Method != MethodFixed || spec.Signal != SignalStop {
				continue
			}
			if spec.FixedDelay == nil {
				add("%s trial %d: fixed method requires a fixed delay on stop trials", phase, i+1)
			} else if *spec.FixedDelay <= 0 || *spec.FixedDelay > c.TrialDuration {
				add("%s trial %d: fixed delay %s is outside (0, %s]", phase, i+1, *spec.FixedDelay, c.TrialDuration)
			}
		}
	}

	if len(problems) > 0 {
		return &ConfigurationError{Problems: problems}
	}
	return nil
}

// SecondsToDuration converts seconds to a duration rounded to the microsecond,
// so that values such as 0.025 map to exactly 25ms.
func SecondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s*1e6)) * time.Microsecond
}

type trialSpecJSON struct {
	Signal      Signal   `json:"signal"`
	FixedDelayS *float64 `json:"fixed_delay_s,omitempty"`
}

// MarshalJSON encodes the delay in seconds.
func (t TrialSpec) MarshalJSON() ([]byte, error) {
	w := trialSpecJSON{Signal: t.Signal}
	if t.FixedDelay != nil {
		s := t.FixedDelay.Seconds()
		w.FixedDelayS = &s
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the delay from seconds.
func (t *TrialSpec) UnmarshalJSON(data []byte) error {
	var w trialSpecJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.Signal = w.Signal
	t.FixedDelay = nil
	if w.FixedDelayS != nil {
		d := SecondsToDuration(*w.FixedDelayS)
		t.FixedDelay = &d
	}
	return nil
}

type taskConfigJSON struct {
	ParticipantID       string      `json:"participant_id"`
	Method              Method      `json:"method"`
	InitialDelayS       float64     `json:"initial_delay_s"`
	StepSizeS           float64     `json:"step_size_s"`
	LowerBoundS         float64     `json:"lower_bound_s"`
	UpperBoundS         float64     `json:"upper_bound_s"`
	BoundPrecisionS     float64     `json:"bound_precision_s"`
	TrialDurationS      float64     `json:"trial_duration_s"`
	TargetFraction      float64     `json:"target_fraction"`
	InterTrialIntervalS float64     `json:"inter_trial_interval_s"`
	CountdownEnabled    bool        `json:"countdown_enabled"`
	FeedbackEnabled     bool        `json:"feedback_enabled"`
	PracticeEnabled     bool        `json:"practice_enabled"`
	MainBlocks          int         `json:"main_blocks"`
	Order               TrialOrder  `json:"order"`
	Seed                uint64      `json:"seed"`
	ControlKey          Key         `json:"control_key"`
	Layout              BarLayout   `json:"layout"`
	PracticeGoTrials    []TrialSpec `json:"practice_go_trials"`
	PracticeMixedTrials []TrialSpec `json:"practice_mixed_trials"`
	MainTrials          []TrialSpec `json:"main_trials"`
}

func (c TaskConfig) toJSON() taskConfigJSON {
	return taskConfigJSON{
		ParticipantID:       c.ParticipantID,
		Method:              c.Method,
		InitialDelayS:       c.InitialDelay.Seconds(),
		StepSizeS:           c.StepSize.Seconds(),
		LowerBoundS:         c.LowerBound.Seconds(),
		UpperBoundS:         c.UpperBound.Seconds(),
		BoundPrecisionS:     c.BoundPrecision.Seconds(),
		TrialDurationS:      c.TrialDuration.Seconds(),
		TargetFraction:      c.TargetFraction,
		InterTrialIntervalS: c.InterTrialInterval.Seconds(),
		CountdownEnabled:    c.CountdownEnabled,
		FeedbackEnabled:     c.FeedbackEnabled,
		PracticeEnabled:     c.PracticeEnabled,
		MainBlocks:          c.MainBlocks,
		Order:               c.Order,
		Seed:                c.Seed,
		ControlKey:          c.ControlKey,
		Layout:              c.Layout,
		PracticeGoTrials:    c.PracticeGoTrials,
		PracticeMixedTrials: c.PracticeMixedTrials,
		MainTrials:          c.MainTrials,
	}
}

// MarshalJSON encodes durations as seconds.
func (c TaskConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toJSON())
}

// UnmarshalJSON decodes over the current values, so unmarshalling into
// DefaultTaskConfig() only overrides the fields present in data.
func (c *TaskConfig) UnmarshalJSON(data []byte) error {
	w := c.toJSON()
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = TaskConfig{
		ParticipantID:       w.ParticipantID,
		Method:              w.Method,
		InitialDelay:        SecondsToDuration(w.InitialDelayS),
		StepSize:            SecondsToDuration(w.StepSizeS),
		LowerBound:          SecondsToDuration(w.LowerBoundS),
		UpperBound:          SecondsToDuration(w.UpperBoundS),
		BoundPrecision:      SecondsToDuration(w.BoundPrecisionS),
		TrialDuration:       SecondsToDuration(w.TrialDurationS),
		TargetFraction:      w.TargetFraction,
		InterTrialInterval:  SecondsToDuration(w.InterTrialIntervalS),
		CountdownEnabled:    w.CountdownEnabled,
		FeedbackEnabled:     w.FeedbackEnabled,
		PracticeEnabled:     w.PracticeEnabled,
		MainBlocks:          w.MainBlocks,
		Order:               w.Order,
		Seed:                w.Seed,
		ControlKey:          w.ControlKey,
		Layout:              w.Layout,
		PracticeGoTrials:    w.PracticeGoTrials,
		PracticeMixedTrials: w.PracticeMixedTrials,
		MainTrials:          w.MainTrials,
	}
	return nil
}

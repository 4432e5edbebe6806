package simulate

import (
	"sync"

	"github.com/IngeLeu/OSARI/internal/presentation"
)

// Recorder is a Surface that remembers what it was asked to show.
type Recorder struct {
	mu       sync.Mutex
	bars     []float64
	geometry presentation.Geometry
	colors   []presentation.TargetColor
	digits   []int
	feedback []presentation.Feedback
	notices  []presentation.Notice
	clears   int
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SetBarHeight(fraction float64, geometry presentation.Geometry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bars = append(r.bars, fraction)
	r.geometry = geometry
}

func (r *Recorder) SetTargetColor(color presentation.TargetColor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = append(r.colors, color)
}

func (r *Recorder) ShowCountdownDigit(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.digits = append(r.digits, n)
}

func (r *Recorder) ShowFeedback(feedback presentation.Feedback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedback = append(r.feedback, feedback)
}

func (r *Recorder) ShowNotice(notice presentation.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

func (r *Recorder) ClearTrialVisuals() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

// MaxBar is the highest bar fraction drawn so far.
func (r *Recorder) MaxBar() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var m float64
	for _, f := range r.bars {
		m = max(m, f)
	}
	return m
}

func (r *Recorder) LastGeometry() presentation.Geometry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.geometry
}

func (r *Recorder) Colors() []presentation.TargetColor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]presentation.TargetColor(nil), r.colors...)
}

func (r *Recorder) Digits() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.digits...)
}

func (r *Recorder) Feedback() []presentation.Feedback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]presentation.Feedback(nil), r.feedback...)
}

// Notices returns the kinds of the notices shown, in order.
func (r *Recorder) Notices() []presentation.NoticeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]presentation.NoticeKind, 0, len(r.notices))
	for _, n := range r.notices {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

// NoticesOf returns the notices of one kind with their details.
func (r *Recorder) NoticesOf(kind presentation.NoticeKind) []presentation.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []presentation.Notice
	for _, n := range r.notices {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (r *Recorder) Clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clears
}

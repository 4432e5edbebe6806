package presentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/IngeLeu/OSARI/internal/domain"
)

func TestHeightFractionCapsAtDeadline(t *testing.T) {
	total := time.Second

	assert.InDelta(t, 0.3, HeightFraction(300*time.Millisecond, total, total), 1e-9)
	assert.InDelta(t, 0.5, HeightFraction(700*time.Millisecond, 500*time.Millisecond, total), 1e-9)
	assert.InDelta(t, 1.0, HeightFraction(2*time.Second, total, total), 1e-9)
	assert.Equal(t, 0.0, HeightFraction(time.Second, total, 0))
}

func TestBarGeometryIsPure(t *testing.T) {
	layout := domain.BarLayout{HeightCM: 15, WidthCM: 3}

	empty := BarGeometry(0, layout, 0.8)
	full := BarGeometry(1, layout, 0.8)
	again := BarGeometry(0, layout, 0.8)

	assert.Equal(t, empty, again)
	assert.InDelta(t, -7.5, empty.Fill[0].Y, 1e-9)
	assert.InDelta(t, -7.49, empty.Fill[1].Y, 1e-9)
	assert.InDelta(t, 7.51, full.Fill[2].Y, 1e-9)
	assert.InDelta(t, -1.5, full.Fill[0].X, 1e-9)
	assert.InDelta(t, 1.5, full.Fill[3].X, 1e-9)
	assert.InDelta(t, 4.5, full.TargetY, 1e-9)
	assert.InDelta(t, 7.5, full.Outline[1].Y, 1e-9)
}

func TestBarGeometryClampsFraction(t *testing.T) {
	layout := domain.BarLayout{HeightCM: 10, WidthCM: 2}
	assert.Equal(t, BarGeometry(1, layout, 0.8), BarGeometry(3, layout, 0.8))
	assert.Equal(t, BarGeometry(0, layout, 0.8), BarGeometry(-1, layout, 0.8))
}

func TestFeedbackText(t *testing.T) {
	text := FeedbackText(Feedback{Outcome: domain.OutcomeCorrectGo, TargetOffset: 42 * time.Millisecond})
	assert.Contains(t, text, "42 ms from the target")
	assert.Contains(t, NoticeText(Notice{Kind: NoticeBlockComplete, Block: 1, Blocks: 3}), "Block 1 of 3")
	assert.Equal(t, TargetSuccess, ColorFor(domain.OutcomeCorrectStop))
	assert.Equal(t, TargetFailure, ColorFor(domain.OutcomeIncorrectGo))
	assert.Equal(t, TargetNeutral, ColorFor(domain.OutcomeNone))
}

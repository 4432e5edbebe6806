package ws

import (
	"time"

	"github.com/IngeLeu/OSARI/internal/hub"
	"github.com/IngeLeu/OSARI/internal/presentation"
	"github.com/IngeLeu/OSARI/internal/protocol"
)

// Surface is a presentation.Surface drawing on the display connections of
// one session. Notices and feedback also reach monitors.
type Surface struct {
	hub       *hub.Hub
	sessionID string
}

// NewSurface creates the websocket surface of a session.
func NewSurface(h *hub.Hub, sessionID string) *Surface {
	return &Surface{hub: h, sessionID: sessionID}
}

func (s *Surface) base(typ string) protocol.BaseMessage {
	return protocol.BaseMessage{
		Type:      typ,
		Ts:        time.Now().UnixMilli(),
		SessionID: s.sessionID,
	}
}

func (s *Surface) toDisplay(v interface{}) {
	_ = s.hub.BroadcastRoleJSON(s.sessionID, protocol.RoleDisplay, v)
}

func (s *Surface) SetBarHeight(fraction float64, geometry presentation.Geometry) {
	s.toDisplay(protocol.BarMessage{
		BaseMessage: s.base(protocol.TypeBar),
		Fraction:    fraction,
		Geometry:    geometry,
	})
}

func (s *Surface) SetTargetColor(color presentation.TargetColor) {
	s.toDisplay(protocol.TargetMessage{BaseMessage: s.base(protocol.TypeTarget), Color: color})
}

func (s *Surface) ShowCountdownDigit(n int) {
	s.toDisplay(protocol.CountdownMessage{BaseMessage: s.base(protocol.TypeCountdown), Digit: n})
}

func (s *Surface) ShowFeedback(feedback presentation.Feedback) {
	msg := protocol.FeedbackMessage{
		BaseMessage: s.base(protocol.TypeFeedback),
		Outcome:     string(feedback.Outcome),
		Text:        presentation.FeedbackText(feedback),
	}
	if feedback.TargetOffset > 0 {
		msg.TargetOffsetMs = feedback.TargetOffset.Round(time.Millisecond).Milliseconds()
	}
	_ = s.hub.BroadcastJSON(s.sessionID, msg)
}

func (s *Surface) ShowNotice(notice presentation.Notice) {
	_ = s.hub.BroadcastJSON(s.sessionID, protocol.NoticeMessage{
		BaseMessage: s.base(protocol.TypeNotice),
		Notice:      notice,
		Text:        presentation.NoticeText(notice),
	})
}

func (s *Surface) ClearTrialVisuals() {
	s.toDisplay(protocol.ClearMessage{BaseMessage: s.base(protocol.TypeClear)})
}

package presentation

import (
	"fmt"
	"time"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// NoticeText returns the participant-facing text for a notice.
func NoticeText(n Notice) string {
	switch n.Kind {
	case NoticeInstructions:
		return "To begin a trial, press and hold the space key\n\n" +
			"On 'Go trials': release the space key at the target\n\n" +
			"On 'Stop trials': keep the space key pressed\n\n[press space to continue]"
	case NoticePracticeIntro:
		return "First lets practice!"
	case NoticePracticeGo:
		return "Lets start with some Go trials.\nPress space to begin!"
	case NoticePracticeMixed:
		return "Great! Next, lets do some Go and Stop trials!\nPress space to begin!"
	case NoticePressAndHold:
		return "Press and hold the space key when you are ready!"
	case NoticeTooSoon:
		return "Oops! You lifted too soon!\nPress space to restart countdown"
	case NoticeWrongKey:
		return "Wrong key - please press the space key"
	case NoticeComprehension:
		return "Do you understand the task? (Y/N)"
	case NoticeBlockComplete:
		return fmt.Sprintf("Block %d of %d complete!!\n\nPress space when ready to continue!", n.Block, n.Blocks)
	case NoticeEnd:
		return "The End!\nThanks for taking part!"
	default:
		return ""
	}
}

// FeedbackText returns the per-trial feedback line.
func FeedbackText(f Feedback) string {
	switch f.Outcome {
	case domain.OutcomeCorrectGo:
		return fmt.Sprintf("You stopped the bar\n%d ms from the target!", f.TargetOffset.Round(time.Millisecond).Milliseconds())
	case domain.OutcomeIncorrectGo:
		return "Oops! You held the\nbutton for too long"
	case domain.OutcomeCorrectStop:
		return "Correct!\nYou withheld your response"
	case domain.OutcomeIncorrectStop:
		return "Oops! That was a Stop trial\nYou did not withhold your response"
	default:
		return ""
	}
}

// ColorFor maps an outcome to the target arrow colour.
func ColorFor(o domain.Outcome) TargetColor {
	switch {
	case o == domain.OutcomeNone:
		return TargetNeutral
	case o.Correct():
		return TargetSuccess
	default:
		return TargetFailure
	}
}

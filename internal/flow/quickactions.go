package flow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/iamanos/onboard/internal/models"
)

// ReplyCueKind discriminates what, if anything, the latest assistant reply
// is asking of the user.
type ReplyCueKind string

const (
	// CueNone means no shortcut-worthy prompt was detected.
	CueNone ReplyCueKind = "NONE"
	// CueConfirmationRequested means the reply asks the user to confirm
	// collected data.
	CueConfirmationRequested ReplyCueKind = "CONFIRMATION_REQUESTED"
	// CueStepAdjustOffered means the reply offers to revisit a specific step.
	CueStepAdjustOffered ReplyCueKind = "STEP_ADJUST_OFFERED"
)

// ReplyCue is the classification of an assistant reply. Step is meaningful
// only when Kind is CueStepAdjustOffered.
type ReplyCue struct {
	Kind ReplyCueKind
	Step int
}

var stepPattern = regexp.MustCompile(`step\s+(\d+)`)

var confirmationPhrases = []string{
	"is that correct",
	"is this correct",
	"can you confirm",
	"shall i confirm",
	"please confirm",
}

var adjustWords = []string{"adjust", "change", "update"}

// ClassifyReply inspects an assistant reply and reports which kind of
// follow-up, if any, it invites. Matching is case-insensitive and purely
// textual; the same reply always classifies the same way.
//
// A step-adjust offer takes precedence over a confirmation request, since
// replies offering an adjustment usually also ask "is that correct?".
func ClassifyReply(text string) ReplyCue {
	lower := strings.ToLower(text)

	if m := stepPattern.FindStringSubmatch(lower); m != nil {
		for _, word := range adjustWords {
			if strings.Contains(lower, word) {
				step, err := strconv.Atoi(m[1])
				if err == nil && step >= 1 {
					return ReplyCue{Kind: CueStepAdjustOffered, Step: step}
				}
				break
			}
		}
	}
	for _, phrase := range confirmationPhrases {
		if strings.Contains(lower, phrase) {
			return ReplyCue{Kind: CueConfirmationRequested}
		}
	}
	return ReplyCue{Kind: CueNone}
}

// InferActions derives quick-action suggestions from the latest assistant
// message in the log. Each action's Action text is what gets resubmitted
// verbatim as a user message when the shortcut is tapped. Returns nil when
// the log has no assistant message or the reply carries no cue.
func InferActions(messages []models.Message) []models.QuickAction {
	var latest *models.Message
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant {
			latest = &messages[i]
			break
		}
	}
	if latest == nil {
		return nil
	}

	cue := ClassifyReply(latest.Content)
	switch cue.Kind {
	case CueConfirmationRequested:
		return []models.QuickAction{
			{Label: "Confirm", Action: "Yes, that's correct."},
			{Label: "Go back", Action: "Go back one step."},
		}
	case CueStepAdjustOffered:
		goTo := "Go to step " + strconv.Itoa(cue.Step)
		return []models.QuickAction{
			{Label: "Confirm", Action: "Yes, that's correct."},
			{Label: goTo, Action: goTo},
		}
	default:
		return nil
	}
}

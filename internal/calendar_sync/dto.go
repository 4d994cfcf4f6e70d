package calendarsync

import "strings"

type Action string

const (
	ActionPush   Action = "push"
	ActionPull   Action = "pull"
	ActionTwoWay Action = "two_way"
)

// NormalizeAction maps the accepted aliases onto a direction. Anything
// unrecognized, including an empty value, means two-way.
func NormalizeAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "push", "sync", "system_to_google":
		return ActionPush
	case "pull", "google_to_system":
		return ActionPull
	default:
		return ActionTwoWay
	}
}

type SyncRequestDTO struct {
	UserID  string `json:"userId"`
	Action  string `json:"action"`
	TimeMin string `json:"timeMin,omitempty"`
	TimeMax string `json:"timeMax,omitempty"`
}

// SyncResponseDTO carries either a summary or an error. A two-way pass that
// aborts during pull carries both.
type SyncResponseDTO struct {
	Action  Action      `json:"action"`
	Summary interface{} `json:"summary,omitempty"`
	Error   string      `json:"error,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

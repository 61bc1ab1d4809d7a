package dto

// Action is what the classifier decided the user wants this turn.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionChat   Action = "chat"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionChat:
		return true
	}
	return false
}

// Tool is carried through from the classifier but not dispatched on.
type Tool string

const (
	ToolCalendar Tool = "calendar"
	ToolNone     Tool = "none"
)

// Intent is the structured classifier output. All six fields are always
// present on the wire; empty strings mean "not extracted".
type Intent struct {
	Title         string `json:"title"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
	Tool          Tool   `json:"tool"`
	Action        Action `json:"action"`
	Response      string `json:"response"`
}

// ChatMessage is one prior conversation turn replayed to the classifier.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

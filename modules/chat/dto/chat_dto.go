package dto

type ChatRequest struct {
	Prompt string `json:"prompt"`
}

type ChatByPhoneRequest struct {
	Phone  string `json:"phone"`
	Prompt string `json:"prompt"`
}

// ChatResult is the outcome of one conversational turn. EventID is set only
// when a calendar mutation committed.
type ChatResult struct {
	Success bool    `json:"success"`
	Action  string  `json:"action"`
	Message string  `json:"message"`
	EventID *string `json:"event_id,omitempty"`
}

package entity

import (
	"calchat/core/entity"

	"github.com/google/uuid"
)

// ResponseKind tags what the stored response column holds, so replay never
// has to guess whether to unwrap JSON.
type ResponseKind string

const (
	ResponseKindIntentJSON ResponseKind = "intent_json"
	ResponseKindText       ResponseKind = "text"
)

// Message is one conversational turn: the user's prompt and, when the
// classifier answered, its raw output. Acts as a replay buffer only;
// bulk soft-deleted after a successful calendar mutation.
type Message struct {
	UserID       uuid.UUID    `db:"user_id" json:"user_id"`
	Prompt       string       `db:"prompt" json:"prompt"`
	Response     *string      `db:"response" json:"response,omitempty"`
	ResponseKind ResponseKind `db:"response_kind" json:"response_kind"`
	entity.BaseEntity
}

func (Message) TableName() string {
	return "messages"
}

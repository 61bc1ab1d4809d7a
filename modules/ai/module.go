package ai

import (
	"calchat/modules/ai/service"
)

// Init wires the classifier adapter. The module exposes no routes; the chat
// module consumes it directly.
func Init() *service.AIService {
	return service.NewAIService()
}

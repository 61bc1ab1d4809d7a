package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"calchat/core/config"
	"calchat/core/constants"
	"calchat/core/errors"
	"calchat/core/logger"
	"calchat/modules/ai/dto"
)

const systemPromptTemplate = `Today is %s. Use this as the reference for words like today, tomorrow, yesterday.
You are a helpful assistant that manages google calendar.
If the user wants to perform an action (create, update, delete), you must ensure you have all the necessary details.
For 'create' and 'update', you NEED 'title', 'startDateTime', and 'endDateTime'.

CRITICAL:
- Ensure 'startDateTime' is BEFORE 'endDateTime'.
- Ensure BOTH 'startDateTime' and 'endDateTime' are in the FUTURE.
- If the start or end time is in the past, set 'action' to 'chat' and prompt for a future time.
- If the times are invalid (end before start), set 'action' to 'chat' and ask for correction.

If any of these are missing, ambiguous, or invalid, you MUST NOT return a 'create' or 'update' action.
Instead, you should return a response asking the user for the missing details or correction.
The 'response' field should contain the question to the user.
Do NOT make up dates or times.

If the user's request is not about calendar actions, or if you need more info, just chat with them.
Set the 'action' to 'create' ONLY when you have ALL VALID details (title, startDateTime, endDateTime).

RESPONSE STYLE:
- Be polite and respectful
- Use natural language phrasing.
- Instead of "provide start time", ask "What time will [Title] start?"
- Instead of "end time", ask "How long will [Title] last?"
- ALWAYS include the event title in the question if available.
- Keep responses short max 20 words
- Never mention "start time" or "end time" as technical terms to the user
- ASK ONLY ONE QUESTION AT A TIME.
- Order of asking if missing: 1. Title, 2. Date, 3. Start Time, 4. Duration.
- NEVER ask for "start and end time" together.
- NEVER ask for "date and time" together.
- Do NOT explain anything`

type AIServiceInterface interface {
	GenerateIntent(ctx context.Context, prompt string, history []dto.ChatMessage) (*dto.Intent, string, *errors.AppError)
}

// AIService classifies a user turn into a structured intent via the
// OpenRouter chat completions API. The strict json_schema response format
// guarantees all six fields appear on the wire; the decoder still rejects
// anything extra.
type AIService struct {
	httpClient *http.Client
	now        func() time.Time
}

func NewAIService() *AIService {
	return &AIService{
		httpClient: &http.Client{Timeout: constants.ClassifierTimeout},
		now:        time.Now,
	}
}

type completionRequest struct {
	Model          string            `json:"model"`
	Stream         bool              `json:"stream"`
	Messages       []dto.ChatMessage `json:"messages"`
	ResponseFormat responseFormat    `json:"response_format"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

var intentSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Title of the meeting"},
    "startDateTime": {"type": "string", "description": "Start date-time in ISO 8601 format ONLY (YYYY-MM-DDTHH:mm:ss.sss)"},
    "endDateTime": {"type": "string", "description": "End date-time in ISO 8601 format ONLY (YYYY-MM-DDTHH:mm:ss.sss)"},
    "tool": {"type": "string", "enum": ["calendar", "none"]},
    "action": {"type": "string", "enum": ["create", "update", "delete", "chat"]},
    "response": {"type": "string"}
  },
  "required": ["title", "startDateTime", "endDateTime", "tool", "action", "response"],
  "additionalProperties": false
}`)

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateIntent returns the parsed intent and the raw JSON content exactly
// as the model produced it. The raw form is what gets persisted for replay.
func (service *AIService) GenerateIntent(ctx context.Context, prompt string, history []dto.ChatMessage) (*dto.Intent, string, *errors.AppError) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, "", errors.NewAppError(errors.ErrInternalServer, "config not initialized", nil)
	}

	messages := make([]dto.ChatMessage, 0, len(history)+2)
	messages = append(messages, dto.ChatMessage{
		Role:    dto.RoleSystem,
		Content: fmt.Sprintf(systemPromptTemplate, service.now().UTC().Format(time.RFC3339)),
	})
	messages = append(messages, history...)
	messages = append(messages, dto.ChatMessage{Role: dto.RoleUser, Content: prompt})

	body, err := json.Marshal(completionRequest{
		Model:    cfg.OpenRouter.Model,
		Stream:   false,
		Messages: messages,
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   "schema",
				Strict: true,
				Schema: intentSchema,
			},
		},
	})
	if err != nil {
		return nil, "", errors.NewAppError(errors.ErrInternalServer, "failed to encode classifier request", err)
	}

	url := strings.TrimSuffix(cfg.OpenRouter.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", errors.NewAppError(errors.ErrInternalServer, "failed to build classifier request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.OpenRouter.APIKey)

	resp, err := service.httpClient.Do(req)
	if err != nil {
		logger.Error("AIService:GenerateIntent:Request:Error", "error", err)
		return nil, "", errors.NewAppError(errors.ErrClassifier, "classifier request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.NewAppError(errors.ErrClassifier, "failed to read classifier response", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Error("AIService:GenerateIntent:Status:Error", "status", resp.StatusCode, "body", string(raw))
		return nil, "", errors.NewAppError(errors.ErrClassifier, fmt.Sprintf("classifier returned status %d", resp.StatusCode), nil)
	}

	var completion completionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, "", errors.NewAppError(errors.ErrClassifier, "malformed classifier response", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, "", errors.NewAppError(errors.ErrClassifier, "classifier returned no content", nil)
	}

	logger.Info("AIService:GenerateIntent:TokenUsage",
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"total_tokens", completion.Usage.TotalTokens,
	)

	content := completion.Choices[0].Message.Content
	intent, appErr := parseIntent(content)
	if appErr != nil {
		return nil, "", appErr
	}
	return intent, content, nil
}

// parseIntent decodes the structured content strictly. Unknown fields and
// out-of-enum actions mean the model ignored the schema contract.
func parseIntent(content string) (*dto.Intent, *errors.AppError) {
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.DisallowUnknownFields()

	var intent dto.Intent
	if err := decoder.Decode(&intent); err != nil {
		return nil, errors.NewAppError(errors.ErrClassifier, "classifier content is not valid intent JSON", err)
	}
	if !intent.Action.Valid() {
		return nil, errors.NewAppError(errors.ErrClassifier, fmt.Sprintf("classifier returned unknown action %q", intent.Action), nil)
	}
	return &intent, nil
}

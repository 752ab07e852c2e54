package chat

import (
	"strings"

	openrouter "github.com/revrost/go-openrouter"
	"go.uber.org/zap"
)

const (
	defaultHistoryMaxMessages = 20
	defaultHistoryMaxTokens   = 2000
)

// History is the model-side conversation, bounded by message count and an
// approximate token budget. The system prompt is never trimmed.
type History struct {
	messages    []openrouter.ChatCompletionMessage
	maxMessages int
	maxTokens   int
	logger      *zap.Logger
}

func NewHistory(maxMessages, maxTokens int, logger *zap.Logger) *History {
	if maxMessages <= 0 {
		maxMessages = defaultHistoryMaxMessages
	}
	if maxTokens <= 0 {
		maxTokens = defaultHistoryMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{
		maxMessages: maxMessages,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

func (h *History) Append(messages ...openrouter.ChatCompletionMessage) {
	h.messages = append(h.messages, messages...)
	h.enforceLimits()
}

func (h *History) Messages() []openrouter.ChatCompletionMessage {
	if len(h.messages) == 0 {
		return nil
	}
	out := make([]openrouter.ChatCompletionMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int {
	return len(h.messages)
}

func (h *History) Reset() {
	h.messages = nil
}

func (h *History) Tokens() int {
	return estimateTokens(h.messages)
}

func (h *History) enforceLimits() {
	trimmed := false
	if len(h.messages) > h.maxMessages {
		h.messages = trimByCount(h.messages, h.maxMessages)
		trimmed = true
	}
	for len(h.messages) > 1 && estimateTokens(h.messages) > h.maxTokens {
		next := dropOldest(h.messages)
		if len(next) == len(h.messages) {
			break
		}
		h.messages = next
		trimmed = true
	}
	// A tool reply without the assistant call that produced it is rejected
	// by the provider.
	h.messages = dropOrphanToolReplies(h.messages)

	if trimmed {
		h.logger.Debug("chat history trimmed",
			zap.Int("messages", len(h.messages)),
			zap.Int("tokens", estimateTokens(h.messages)),
		)
	}
}

func hasSystem(messages []openrouter.ChatCompletionMessage) bool {
	return len(messages) > 0 && messages[0].Role == openrouter.ChatMessageRoleSystem
}

func trimByCount(messages []openrouter.ChatCompletionMessage, max int) []openrouter.ChatCompletionMessage {
	if len(messages) <= max {
		return messages
	}
	if !hasSystem(messages) {
		return append([]openrouter.ChatCompletionMessage(nil), messages[len(messages)-max:]...)
	}
	keep := max - 1
	if keep <= 0 {
		return messages[:1]
	}
	trimmed := make([]openrouter.ChatCompletionMessage, 0, max)
	trimmed = append(trimmed, messages[0])
	return append(trimmed, messages[len(messages)-keep:]...)
}

func dropOldest(messages []openrouter.ChatCompletionMessage) []openrouter.ChatCompletionMessage {
	if !hasSystem(messages) {
		return messages[1:]
	}
	if len(messages) <= 1 {
		return messages
	}
	trimmed := make([]openrouter.ChatCompletionMessage, 0, len(messages)-1)
	trimmed = append(trimmed, messages[0])
	return append(trimmed, messages[2:]...)
}

func dropOrphanToolReplies(messages []openrouter.ChatCompletionMessage) []openrouter.ChatCompletionMessage {
	start := 0
	if hasSystem(messages) {
		start = 1
	}
	end := start
	for end < len(messages) && messages[end].Role == openrouter.ChatMessageRoleTool {
		end++
	}
	if end == start {
		return messages
	}
	trimmed := make([]openrouter.ChatCompletionMessage, 0, len(messages)-(end-start))
	trimmed = append(trimmed, messages[:start]...)
	return append(trimmed, messages[end:]...)
}

func estimateTokens(messages []openrouter.ChatCompletionMessage) int {
	total := 0
	for _, msg := range messages {
		total += estimateMessageTokens(msg)
	}
	return total
}

func estimateMessageTokens(message openrouter.ChatCompletionMessage) int {
	total := len(strings.Fields(message.Content.Text))
	if message.Content.Text == "" {
		for _, part := range message.Content.Multi {
			total += len(strings.Fields(part.Text))
		}
	}
	for _, call := range message.ToolCalls {
		total += len(strings.Fields(call.Function.Arguments)) + 1
	}
	return total
}

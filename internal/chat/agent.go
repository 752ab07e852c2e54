package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"kofa_admin/internal/llm"

	openrouter "github.com/revrost/go-openrouter"
	"go.uber.org/zap"
)

const maxToolRounds = 4

const roundsExhaustedText = "I couldn't finish that request. Please ask again with a little more detail."

type Completer interface {
	Complete(ctx context.Context, messages []openrouter.ChatCompletionMessage, tools []openrouter.Tool) (openrouter.ChatCompletionMessage, error)
}

// LLMAssistant answers with a language model that reads and changes the
// catalogue through KOFA tools. Each user id keeps its own history.
type LLMAssistant struct {
	model  Completer
	tools  *Toolbox
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	histories map[string]*History
}

func NewLLMAssistant(model Completer, tools *Toolbox, logger *zap.Logger) *LLMAssistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMAssistant{
		model:     model,
		tools:     tools,
		logger:    logger.Named("agent"),
		now:       time.Now,
		histories: make(map[string]*History),
	}
}

func (a *LLMAssistant) history(userID string) *History {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.histories[userID]
	if !ok {
		h = NewHistory(defaultHistoryMaxMessages, defaultHistoryMaxTokens, a.logger)
		a.histories[userID] = h
	}
	return h
}

func (a *LLMAssistant) Reset(userID string) {
	a.mu.Lock()
	delete(a.histories, userID)
	a.mu.Unlock()
}

func (a *LLMAssistant) Ask(ctx context.Context, userID, message string) (Reply, error) {
	history := a.history(userID)
	if history.Len() == 0 {
		history.Append(openrouter.SystemMessage(llm.SystemPrompt(a.now())))
	}
	history.Append(openrouter.UserMessage(message))

	var action *toolCallRecord

	for round := 0; round < maxToolRounds; round++ {
		msg, err := a.model.Complete(ctx, history.Messages(), llm.ToolSchemas())
		if err != nil {
			return Reply{}, err
		}
		a.logger.Debug("llm response",
			zap.Int("round", round),
			zap.String("content", msg.Content.Text),
			zap.Int("tool_calls", len(msg.ToolCalls)),
		)

		history.Append(msg)
		if len(msg.ToolCalls) == 0 {
			return a.reply(strings.TrimSpace(msg.Content.Text), action), nil
		}

		toolMsgs, records, err := a.executeToolCalls(ctx, userID, msg.ToolCalls)
		history.Append(toolMsgs...)
		for i := range records {
			if records[i].OK && llm.MutatingTools[records[i].Name] {
				action = &records[i]
			}
		}
		if err != nil {
			return Reply{}, err
		}
	}

	return a.reply(roundsExhaustedText, action), nil
}

func (a *LLMAssistant) reply(text string, action *toolCallRecord) Reply {
	reply := Reply{Text: text}
	if action != nil {
		reply.ActionTaken = actionName(action.Name)
		reply.ActionResult = action.Result
	}
	return reply
}

// executeToolCalls answers every call. Bad arguments go back to the model as
// tool errors; a failed backend request stops the turn.
func (a *LLMAssistant) executeToolCalls(ctx context.Context, userID string, calls []llm.ToolCall) ([]openrouter.ChatCompletionMessage, []toolCallRecord, error) {
	toolMessages := make([]openrouter.ChatCompletionMessage, 0, len(calls))
	records := make([]toolCallRecord, 0, len(calls))

	for i, call := range calls {
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				record := toolCallRecord{Name: call.Function.Name, Err: fmt.Sprintf("invalid tool args: %v", err)}
				logToolRecord(a.logger, record)
				records = append(records, record)
				toolMessages = append(toolMessages, openrouter.ToolMessage(call.ID, toolErrorPayload(record.Err)))
				continue
			}
		}

		result, record, err := a.tools.Dispatch(ctx, userID, call.Function.Name, args)
		if err != nil {
			toolMessages = append(toolMessages, openrouter.ToolMessage(call.ID, toolErrorPayload(err.Error())))
			records = append(records, record)
			if isArgumentError(err) {
				continue
			}
			// Keep the history well formed for the next turn.
			for _, skipped := range calls[i+1:] {
				toolMessages = append(toolMessages, openrouter.ToolMessage(skipped.ID, toolErrorPayload("not executed")))
			}
			return toolMessages, records, err
		}

		payload, err := json.Marshal(result)
		if err != nil {
			return toolMessages, records, err
		}
		record.Result = payload
		records = append(records, record)
		toolMessages = append(toolMessages, openrouter.ToolMessage(call.ID, string(payload)))
	}

	return toolMessages, records, nil
}

func actionName(tool string) string {
	switch tool {
	case llm.ToolRestockProduct:
		return "restock_product"
	case llm.ToolLogExpense:
		return "log_expense"
	default:
		return tool
	}
}

func toolErrorPayload(message string) string {
	encoded, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, message)
	}
	return string(encoded)
}

func isArgumentError(err error) bool {
	var argErr *argumentError
	return errors.As(err, &argErr)
}

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kofa_admin/internal/config"

	openrouter "github.com/revrost/go-openrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientDisabledWithoutKeyOrModel(t *testing.T) {
	cfg := config.Default()
	cfg.LLMModel = "openai/gpt-4o-mini"

	client := NewClient(cfg, zap.NewNop())

	assert.False(t, client.Enabled())
	_, err := client.Complete(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCompleteSendsToolsAndReturnsFirstChoice(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-1","model":"test/model","choices":[{"index":0,"message":{"role":"assistant","content":"You have 3 products."},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.LLMAPIKey = "sk-test"
	cfg.LLMModel = "test/model"
	cfg.LLMBaseURL = srv.URL + "/api/v1"
	cfg.Timeout = 2 * time.Second
	client := NewClient(cfg, zap.NewNop())
	require.True(t, client.Enabled())
	assert.Equal(t, "test/model", client.Model())

	msg, err := client.Complete(context.Background(), []openrouter.ChatCompletionMessage{
		openrouter.SystemMessage(SystemPrompt(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))),
		openrouter.UserMessage("how many products?"),
	}, ToolSchemas())

	require.NoError(t, err)
	assert.Equal(t, "You have 3 products.", msg.Content.Text)
	assert.Equal(t, "test/model", body["model"])
	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 6)
}

func TestToolSchemasRequireArguments(t *testing.T) {
	byName := map[string]openrouter.Tool{}
	for _, tool := range ToolSchemas() {
		byName[tool.Function.Name] = tool
	}

	restock := byName[ToolRestockProduct].Function.Parameters.(map[string]any)
	assert.Equal(t, []string{"product_id", "quantity"}, restock["required"])
	_, hasRequired := byName[ToolGetProfitSummary].Function.Parameters.(map[string]any)["required"]
	assert.False(t, hasRequired)
	assert.True(t, MutatingTools[ToolLogExpense])
	assert.False(t, MutatingTools[ToolListOrders])
}

func TestSystemPromptCarriesDate(t *testing.T) {
	prompt := SystemPrompt(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	assert.Contains(t, prompt, "Today is Monday, 15 January 2024.")
	assert.Contains(t, prompt, "Naira")
}

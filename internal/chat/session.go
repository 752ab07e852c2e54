package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	ApologyText  = "❌ Sorry, I couldn't connect to the server. Please try again."
	FallbackText = "Sorry, I couldn't process that request."
	GreetingText = "Hello! 👋 I'm your KOFA Business AI. I can help you manage your inventory, check sales, and run your business! Try asking me:\n\n" +
		"• \"How many products do I have?\"\n" +
		"• \"Add 10 bags of rice at 5000 naira\"\n" +
		"• \"Show me low stock items\""
)

var ErrSendInFlight = errors.New("a message is already being sent")

type QuickAction struct {
	Label   string
	Message string
}

var QuickActions = []QuickAction{
	{Label: "📦 Products", Message: "How many products do I have?"},
	{Label: "📉 Low Stock", Message: "Show me low stock items"},
	{Label: "💰 Sales Today", Message: "What are my sales today?"},
}

type Message struct {
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	Suggestions []string  `json:"suggestions,omitempty"`
	At          time.Time `json:"at"`
}

// Reply is what an assistant returns for one user message.
type Reply struct {
	Text         string          `json:"response"`
	ActionTaken  string          `json:"action_taken,omitempty"`
	ActionResult json.RawMessage `json:"action_result,omitempty"`
	Suggestions  []string        `json:"suggestions,omitempty"`
}

type Assistant interface {
	Ask(ctx context.Context, userID, message string) (Reply, error)
}

// Session is one conversation transcript. At most one send is in flight.
type Session struct {
	assistant Assistant
	userID    string
	logger    *zap.Logger
	policy    *bluemonday.Policy
	now       func() time.Time

	mu       sync.Mutex
	sending  bool
	messages []Message
}

func NewSession(assistant Assistant, userID string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(userID) == "" {
		userID = DeviceID()
	}
	s := &Session{
		assistant: assistant,
		userID:    strings.TrimSpace(userID),
		logger:    logger.Named("chat"),
		policy:    bluemonday.StrictPolicy(),
		now:       time.Now,
	}
	s.messages = []Message{s.greeting()}
	return s
}

var (
	deviceOnce sync.Once
	deviceID   string
)

// DeviceID returns a pseudo-identifier generated once per process.
func DeviceID() string {
	deviceOnce.Do(func() {
		deviceID = "device-" + uuid.NewString()
	})
	return deviceID
}

func (s *Session) UserID() string {
	return s.userID
}

// Send appends the user message and the assistant reply. Blank input is
// ignored and returns a zero Message. A transport failure is reported as the
// apology message, not as an error.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, nil
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return Message{}, ErrSendInFlight
	}
	s.sending = true
	s.messages = append(s.messages, Message{Role: RoleUser, Content: text, At: s.now()})
	s.mu.Unlock()

	reply, err := s.assistant.Ask(ctx, s.userID, text)

	var msg Message
	if err != nil {
		s.logger.Warn("assistant request failed", zap.Error(err))
		msg = Message{Role: RoleAssistant, Content: ApologyText, At: s.now()}
	} else {
		msg = Message{
			Role:        RoleAssistant,
			Content:     s.render(reply),
			Suggestions: reply.Suggestions,
			At:          s.now(),
		}
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.sending = false
	s.mu.Unlock()

	return msg, nil
}

func (s *Session) render(reply Reply) string {
	text := strings.TrimSpace(s.sanitize(reply.Text))
	if text == "" {
		text = FallbackText
	}
	if reply.ActionTaken == "" {
		return text
	}

	text += "\n\n✅ Action: " + s.sanitize(reply.ActionTaken)
	if result := indentJSON(reply.ActionResult); result != "" {
		text += "\n" + result
	}
	return text
}

// sanitize drops markup and decodes the entities the policy escapes.
func (s *Session) sanitize(text string) string {
	return html.UnescapeString(s.policy.Sanitize(text))
}

func indentJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", "  "); err != nil {
		return string(trimmed)
	}
	return out.String()
}

func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Clear resets the transcript to the greeting. Assistants that keep their
// own history are reset too.
func (s *Session) Clear() {
	s.mu.Lock()
	s.messages = []Message{s.greeting()}
	s.mu.Unlock()

	if r, ok := s.assistant.(interface{ Reset(userID string) }); ok {
		r.Reset(s.userID)
	}
}

func (s *Session) greeting() Message {
	return Message{Role: RoleAssistant, Content: GreetingText, At: s.now()}
}

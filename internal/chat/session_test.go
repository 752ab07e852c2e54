package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"kofa_admin/internal/kofa"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAssistant struct {
	reply  Reply
	err    error
	calls  atomic.Int32
	gate   chan struct{}
	resets []string
}

func (s *stubAssistant) Ask(ctx context.Context, _, _ string) (Reply, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		}
	}
	return s.reply, s.err
}

func (s *stubAssistant) Reset(userID string) {
	s.resets = append(s.resets, userID)
}

func TestSendIgnoresBlankInput(t *testing.T) {
	stub := &stubAssistant{}
	session := NewSession(stub, "merchant-1", zap.NewNop())

	msg, err := session.Send(context.Background(), "   \n")

	require.NoError(t, err)
	assert.Equal(t, Message{}, msg)
	assert.Zero(t, stub.calls.Load())
	assert.Len(t, session.Transcript(), 1)
}

func TestSendRejectsSecondMessageWhileInFlight(t *testing.T) {
	stub := &stubAssistant{reply: Reply{Text: "ok"}, gate: make(chan struct{})}
	session := NewSession(stub, "merchant-1", zap.NewNop())

	done := make(chan Message, 1)
	go func() {
		msg, _ := session.Send(context.Background(), "first")
		done <- msg
	}()
	require.Eventually(t, session.Loading, time.Second, 5*time.Millisecond)

	_, err := session.Send(context.Background(), "second")
	assert.ErrorIs(t, err, ErrSendInFlight)

	close(stub.gate)
	first := <-done

	assert.Equal(t, "ok", first.Content)
	assert.Equal(t, int32(1), stub.calls.Load())
	assert.False(t, session.Loading())

	transcript := session.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, RoleUser, transcript[1].Role)
	assert.Equal(t, "first", transcript[1].Content)
}

func TestSendAppendsApologyOnFailure(t *testing.T) {
	stub := &stubAssistant{err: kofa.ErrRequestFailed}
	session := NewSession(stub, "merchant-1", zap.NewNop())

	msg, err := session.Send(context.Background(), "how many products?")

	require.NoError(t, err)
	assert.Equal(t, ApologyText, msg.Content)
	assert.False(t, session.Loading())
	transcript := session.Transcript()
	assert.Equal(t, ApologyText, transcript[len(transcript)-1].Content)
}

func TestSendFormatsActionResult(t *testing.T) {
	stub := &stubAssistant{reply: Reply{
		Text:         "Done <b>now</b> &amp; saved",
		ActionTaken:  "add_product",
		ActionResult: json.RawMessage(`{"id":"p1","stock":5}`),
		Suggestions:  []string{"Show low stock"},
	}}
	session := NewSession(stub, "merchant-1", zap.NewNop())

	msg, err := session.Send(context.Background(), "add 5 shirts")

	require.NoError(t, err)
	assert.Equal(t, "Done now & saved\n\n✅ Action: add_product\n{\n  \"id\": \"p1\",\n  \"stock\": 5\n}", msg.Content)
	assert.Equal(t, []string{"Show low stock"}, msg.Suggestions)
}

func TestSendActionWithoutResult(t *testing.T) {
	stub := &stubAssistant{reply: Reply{Text: "Logged", ActionTaken: "log_expense", ActionResult: json.RawMessage("null")}}
	session := NewSession(stub, "merchant-1", zap.NewNop())

	msg, err := session.Send(context.Background(), "I spent 500 on fuel")

	require.NoError(t, err)
	assert.Equal(t, "Logged\n\n✅ Action: log_expense", msg.Content)
}

func TestSendStripsScriptsAndFallsBackWhenEmpty(t *testing.T) {
	stub := &stubAssistant{reply: Reply{Text: "<script>alert(1)</script>"}}
	session := NewSession(stub, "merchant-1", zap.NewNop())

	msg, err := session.Send(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, FallbackText, msg.Content)
}

func TestClearResetsTranscriptAndAssistant(t *testing.T) {
	stub := &stubAssistant{reply: Reply{Text: "hello"}}
	session := NewSession(stub, "merchant-1", zap.NewNop())
	_, err := session.Send(context.Background(), "hi")
	require.NoError(t, err)

	session.Clear()

	transcript := session.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, GreetingText, transcript[0].Content)
	assert.Equal(t, []string{"merchant-1"}, stub.resets)
}

func TestBlankUserIDUsesDeviceID(t *testing.T) {
	session := NewSession(&stubAssistant{}, " ", zap.NewNop())

	assert.True(t, strings.HasPrefix(session.UserID(), "device-"))
	assert.Equal(t, DeviceID(), session.UserID())
	assert.Equal(t, DeviceID(), NewSession(&stubAssistant{}, "", nil).UserID())
}

type fakeBusinessAI struct {
	userID, message string
	resp            kofa.AIResponse
	err             error
}

func (f *fakeBusinessAI) BusinessAI(_ context.Context, userID, message string) (kofa.AIResponse, error) {
	f.userID, f.message = userID, message
	return f.resp, f.err
}

func TestBackendAssistantMapsResponse(t *testing.T) {
	api := &fakeBusinessAI{resp: kofa.AIResponse{
		Response:     "You have 3 products",
		ActionTaken:  "count_products",
		ActionResult: json.RawMessage(`{"count":3}`),
	}}

	reply, err := NewBackendAssistant(api).Ask(context.Background(), "u1", "how many?")

	require.NoError(t, err)
	assert.Equal(t, "u1", api.userID)
	assert.Equal(t, "how many?", api.message)
	assert.Equal(t, "You have 3 products", reply.Text)
	assert.Equal(t, "count_products", reply.ActionTaken)
	assert.JSONEq(t, `{"count":3}`, string(reply.ActionResult))
}

func TestBackendAssistantPassesErrors(t *testing.T) {
	boom := errors.New("offline")
	_, err := NewBackendAssistant(&fakeBusinessAI{err: boom}).Ask(context.Background(), "u1", "hi")
	assert.ErrorIs(t, err, boom)
}

package chat

import (
	"context"

	"kofa_admin/internal/kofa"
)

type BusinessAI interface {
	BusinessAI(ctx context.Context, userID, message string) (kofa.AIResponse, error)
}

// BackendAssistant delegates to the server-side business assistant.
type BackendAssistant struct {
	api BusinessAI
}

func NewBackendAssistant(api BusinessAI) *BackendAssistant {
	return &BackendAssistant{api: api}
}

func (a *BackendAssistant) Ask(ctx context.Context, userID, message string) (Reply, error) {
	resp, err := a.api.BusinessAI(ctx, userID, message)
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Text:         resp.Response,
		ActionTaken:  resp.ActionTaken,
		ActionResult: resp.ActionResult,
		Suggestions:  resp.Suggestions,
	}, nil
}

package chat

import (
	"kofa_admin/internal/config"
	"kofa_admin/internal/kofa"
	"kofa_admin/internal/llm"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Module() fx.Option {
	return fx.Module(
		"chat",
		fx.Provide(
			NewAssistant,
			func(assistant Assistant, cfg config.Config, logger *zap.Logger) *Session {
				return NewSession(assistant, cfg.ChatUserID, logger)
			},
		),
	)
}

// NewAssistant prefers the local model when one is configured and falls back
// to the server-side assistant otherwise.
func NewAssistant(client *kofa.Client, model *llm.Client, logger *zap.Logger) Assistant {
	if model.Enabled() {
		logger.Debug("chat uses llm assistant", zap.String("model", model.Model()))
		return NewLLMAssistant(model, NewToolbox(client, logger), logger)
	}
	return NewBackendAssistant(client)
}

package cli

import (
	"kofa_admin/internal/chat"
	"kofa_admin/internal/config"
	"kofa_admin/internal/dashboard"
	"kofa_admin/internal/kofa"
	"kofa_admin/internal/media"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Services is everything a command needs, built once per invocation.
type Services struct {
	Config    config.Config
	Client    *kofa.Client
	Uploader  *media.Uploader
	Dashboard *dashboard.Aggregator
	Chat      *chat.Session
	Logger    *zap.Logger
}

func NewServices(cfg config.Config, client *kofa.Client, uploader *media.Uploader, agg *dashboard.Aggregator, session *chat.Session, logger *zap.Logger) *Services {
	return &Services{
		Config:    cfg,
		Client:    client,
		Uploader:  uploader,
		Dashboard: agg,
		Chat:      session,
		Logger:    logger.Named("cli"),
	}
}

func Module() fx.Option {
	return fx.Module(
		"cli",
		fx.Provide(NewServices),
	)
}

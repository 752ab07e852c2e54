package media

import "go.uber.org/fx"

func Module() fx.Option {
	return fx.Module(
		"media",
		fx.Provide(NewUploader),
	)
}

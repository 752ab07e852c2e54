package kofa

import (
	"context"
	"io"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module(
		"kofa",
		fx.Provide(NewCacheStore),
		fx.Provide(NewClient),
		fx.Invoke(func(lc fx.Lifecycle, store CacheStore) {
			closer, ok := store.(io.Closer)
			if !ok {
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					return closer.Close()
				},
			})
		}),
	)
}

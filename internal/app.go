package internal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kofa_admin/internal/chat"
	"kofa_admin/internal/cli"
	"kofa_admin/internal/config"
	"kofa_admin/internal/dashboard"
	"kofa_admin/internal/kofa"
	"kofa_admin/internal/llm"
	"kofa_admin/internal/logging"
	"kofa_admin/internal/media"

	"github.com/go-core-fx/logger"
	"go.uber.org/fx"
)

func Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := cli.NewRunner(start, os.Stdin, os.Stdout, os.Stderr)
	return runner.Run(ctx, args)
}

// start assembles the application with the global flags applied on top of
// the loaded config.
func start(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	var services *cli.Services

	app := fx.New(
		logger.Module(),
		logger.WithFxDefaultLogger(),
		config.Module(),
		fx.Decorate(func(cfg config.Config) config.Config {
			opts.Apply(&cfg)
			return cfg
		}),
		logging.Module(),
		kofa.Module(),
		media.Module(),
		dashboard.Module(),
		llm.Module(),
		chat.Module(),
		cli.Module(),
		fx.Populate(&services),
	)

	if err := app.Start(ctx); err != nil {
		return nil, nil, err
	}
	return services, func() {
		_ = app.Stop(context.Background())
	}, nil
}

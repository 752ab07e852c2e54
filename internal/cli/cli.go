package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"kofa_admin/internal/kofa"
	"kofa_admin/internal/media"
	"kofa_admin/internal/resource"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	exitFailure = 1
	exitInvalid = 2
	exitAborted = 130
)

const (
	requestFailedText = "Could not reach KOFA. Check your connection and try again."
	uploadFailedText  = "Image upload failed. Please try again."
	reloadWarningText = "Saved, but the list could not be refreshed."
)

// StartFunc builds the services for one command and returns a stop func
// that releases them.
type StartFunc func(ctx context.Context, opts Options) (*Services, func(), error)

type Runner struct {
	start  StartFunc
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	opts   Options
}

func NewRunner(start StartFunc, in io.Reader, out, errOut io.Writer) *Runner {
	return &Runner{
		start:  start,
		in:     in,
		out:    out,
		errOut: errOut,
	}
}

// Run parses args (args[0] is the program name) and runs the command.
// Failures come back as cli.ExitCoder values carrying the exit status.
func (r *Runner) Run(ctx context.Context, args []string) error {
	return r.App().RunContext(ctx, args)
}

func (r *Runner) App() *cli.App {
	return &cli.App{
		Name:      "kofa-admin",
		Usage:     "Manage a KOFA store: products, orders, expenses and the business assistant",
		Reader:    r.in,
		Writer:    r.out,
		ErrWriter: r.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Usage: "KOFA API base URL (API_BASE_URL)", Destination: &r.opts.APIURL},
			&cli.StringFlag{Name: "token", Usage: "bearer token sent to the API (API_TOKEN)", Destination: &r.opts.Token},
			&cli.DurationFlag{Name: "timeout", Usage: "request timeout", Destination: &r.opts.Timeout},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text", Destination: &r.opts.JSON},
			&cli.BoolFlag{Name: "debug", Usage: "log at debug level", Destination: &r.opts.Debug},
			&cli.StringFlag{Name: "log-file", Usage: "log file path", Destination: &r.opts.LogFile},
		},
		Commands: []*cli.Command{
			r.productsCommand(),
			r.ordersCommand(),
			r.expensesCommand(),
			r.dashboardCommand(),
			r.chatCommand(),
			r.uploadCommand(),
			r.exportCommand(),
			r.healthCommand(),
		},
		// Exit codes are left to the caller.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

type actionFunc func(ctx context.Context, c *cli.Context, s *Services) error

func (r *Runner) action(fn actionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		services, stop, err := r.start(c.Context, r.opts)
		if err != nil {
			return cli.Exit(fmt.Sprintf("startup failed: %v", err), exitFailure)
		}
		defer stop()

		if err := fn(c.Context, c, services); err != nil {
			return r.fail(services.Logger, err)
		}
		return nil
	}
}

type usageError struct {
	message string
}

func (e usageError) Error() string {
	return e.message
}

func usagef(format string, args ...any) error {
	return usageError{message: fmt.Sprintf(format, args...)}
}

// fail turns err into the message shown to the merchant. Local rejections
// are shown as-is; request failures get a generic message and are logged.
func (r *Runner) fail(logger *zap.Logger, err error) error {
	var (
		validation *resource.ValidationError
		rejected   *media.RejectedError
		usage      usageError
	)
	switch {
	case errors.As(err, &validation):
		return cli.Exit(validation.Error(), exitInvalid)
	case errors.As(err, &rejected):
		return cli.Exit(rejected.Reason, exitInvalid)
	case errors.As(err, &usage):
		return cli.Exit(usage.message, exitInvalid)
	case errors.Is(err, context.Canceled):
		return cli.Exit("cancelled", exitAborted)
	case errors.Is(err, media.ErrUploadFailed):
		logger.Error("upload failed", zap.Error(err))
		return cli.Exit(uploadFailedText, exitFailure)
	case errors.Is(err, kofa.ErrRequestFailed):
		logger.Error("request failed", zap.Error(err))
		return cli.Exit(requestFailedText, exitFailure)
	default:
		logger.Error("command failed", zap.Error(err))
		return cli.Exit(err.Error(), exitFailure)
	}
}

// settle accepts a mutation whose follow-up reload failed: the change is
// saved, so only a warning is printed.
func (r *Runner) settle(logger *zap.Logger, err error) error {
	if err != nil && errors.Is(err, resource.ErrReloadFailed) {
		logger.Warn("reload after mutation failed", zap.Error(err))
		fmt.Fprintln(r.errOut, reloadWarningText)
		return nil
	}
	return err
}

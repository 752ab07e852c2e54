package main

import (
	"errors"
	"fmt"
	"os"

	"kofa_admin/internal"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := internal.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		os.Exit(code)
	}
}

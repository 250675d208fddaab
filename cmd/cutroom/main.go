package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cutroom/internal/services"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and maps failures to exit codes: 2 for invalid input,
// 1 for everything else.
func run(args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 1
	case errors.Is(err, services.ErrValidation):
		fmt.Fprintln(os.Stderr, "cutroom:", err)
		return 2
	default:
		fmt.Fprintln(os.Stderr, "cutroom:", err)
		return 1
	}
}

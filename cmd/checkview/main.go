package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/davetashner/checkview/internal/redact"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(printError(os.Stderr, err))
	}
}

// printError prints err to w with secrets masked and returns the exit code.
func printError(w io.Writer, err error) int {
	var ece *exitCodeError
	if errors.As(err, &ece) {
		if ece.msg != "" {
			fmt.Fprintln(w, redact.String(ece.msg))
		}
		return ece.code
	}
	fmt.Fprintln(w, redact.String(err.Error()))
	return ExitInvalidArgs
}

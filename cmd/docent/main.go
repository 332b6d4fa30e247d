package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		// Interrupted by the operator; nothing to report.
		os.Exit(130)
	}
	fmt.Fprintln(os.Stderr, "docent:", err)
	os.Exit(1)
}

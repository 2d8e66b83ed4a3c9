package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	codeercmder "github.com/papercomputeco/codeer/cmd/codeer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := codeercmder.NewCodeerCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/signconnect/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("signctl: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

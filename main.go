// goftpd - a control-connection server with idle timeouts and login
// lockout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"goftpd/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "goftpd: %v\n", err)
		os.Exit(1)
	}
}

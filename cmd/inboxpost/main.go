// Command inboxpost delivers a signed ActivityPub document to a remote
// inbox.
//
// Usage:
//
//	inboxpost [deliver] [--config inboxpost.yaml] [--document create-hello-world.json]
//	inboxpost compose --content "<p>Hello world</p>" > create-hello-world.json
//	inboxpost sign --verify
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "inboxpost:", err)
		os.Exit(1)
	}
}

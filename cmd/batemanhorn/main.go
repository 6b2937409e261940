// Command batemanhorn verifies the Bateman–Horn constant of
// Q(n) = n^47 − (n−1)^47 and its prime-counting prediction.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// Package main provides the umbra CLI tool.
//
// Usage:
//
//	umbra <command> [arguments]
//
// Commands:
//
//	css         Print the CSS of a document
//	convert     Convert a document between formats
//	preset      Write the bundled preset
//	layer       Edit the shadow layers of a document
//	settings    Change the shape, size or background color of a document
//	watch       Print the CSS of a document every time it changes
//	version     Show version information
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yacchi/umbra/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cmd.NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

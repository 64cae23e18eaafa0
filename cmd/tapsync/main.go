package main

import (
	"context"
	"os"
	"syscall"

	"github.com/brewtap-tools/tapsync/cmd"
	"github.com/charmbracelet/fang"
)

var (
	// Version and Commit are set during build
	version = "dev"
	commit  = "none"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		cmd.RootCmd,
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithNotifySignal(syscall.SIGINT, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

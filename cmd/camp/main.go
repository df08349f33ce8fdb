package main

import (
	"context"
	"fmt"
	"os"

	"campcli/internal/cli"
	"campcli/internal/infrastructure"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	_ = infrastructure.CloseLogFile()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

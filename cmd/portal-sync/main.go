package main

import (
	"fmt"
	"os"

	"go-portal-sync/internal/cli"
)

// @title           portal-sync admin API
// @version         1.0
// @description     Checkpoints, task runs and schedules of the portal sync service.

// @BasePath        /

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

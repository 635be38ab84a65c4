package main

import (
	"fmt"
	"os"

	"fjacquet/statement-import/cmd/analyze"
	"fjacquet/statement-import/cmd/batch"
	"fjacquet/statement-import/cmd/importcmd"
	"fjacquet/statement-import/cmd/root"
	"fjacquet/statement-import/internal/config"
)

func init() {
	// .env must be loaded before the root command reads STMT_* variables.
	config.LoadEnv()

	root.Init()

	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(analyze.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

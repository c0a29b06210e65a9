package main

import (
	lib "aiwall/lib"
	"github.com/urfave/cli/v2"
)

func setupCommand() *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Install and verify the external wallpaper tools",
		Action: setupAction,
	}
}

func setupAction(*cli.Context) error {
	loadConfig()

	if err := lib.Setup(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

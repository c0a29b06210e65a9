package main

import (
	"log"
	"os"

	lib "aiwall/lib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	lib.AttachParentConsole()

	// The enhancement credential may live in a .env file next to the
	// invocation instead of the environment.
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "aiwall"
	app.Usage = "Generate AI wallpapers and rotate a queue of them across displays"
	app.ArgsUsage = "PROMPT"
	app.Flags = runFlags()
	app.Action = runAction
	app.Commands = []*cli.Command{
		setupCommand(),
		randomCommand(),
		interactiveCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// Config load is cheap and absent-tolerant, so every action just does it.
func loadConfig() *lib.Config {
	conf := lib.Init()
	conf.SetupLogging()
	return conf
}

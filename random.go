package main

import (
	"context"
	"log"

	lib "aiwall/lib"
	"github.com/awused/go-strpick/persistent"
	"github.com/urfave/cli/v2"
)

func randomCommand() *cli.Command {
	return &cli.Command{
		Name: "random",
		Usage: "Generate wallpapers from randomly rotated prompts, one per " +
			"display",
		Description: "Prompts come from the configured PromptsFile, one per " +
			"line. Selection state persists in DatabaseDir so prompts don't " +
			"repeat until the whole file has been used.",
		Flags:  commonFlags(),
		Action: randomAction,
	}
}

func randomAction(c *cli.Context) error {
	conf := loadConfig()

	if conf.PromptsFile == "" || conf.DatabaseDir == "" {
		return cli.Exit(
			"The random command needs PromptsFile and DatabaseDir configured", 1)
	}

	prompts, err := lib.ReadPromptsFile(conf.PromptsFile)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if len(prompts) == 0 {
		return cli.Exit("No prompts present in PromptsFile", 1)
	}

	picker, err := persistent.NewPicker(conf.DatabaseDir)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer picker.Close()

	if err = picker.AddAll(prompts); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	p, err := buildPipeline(c, conf)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	displays := p.Displays
	if displays < 1 {
		displays = lib.DetectDisplays()
		p.Displays = displays
	}

	picked, err := picker.TryUniqueN(displays)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	for i, prompt := range picked {
		log.Printf("Display %d prompt: %s", i+1, prompt)
	}

	// Picked prompts are used as-is, one per display.
	p.Prompts = picked

	if _, err = p.Run(context.Background()); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

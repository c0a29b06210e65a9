package main

import (
	"context"
	"os"
	"strings"

	lib "aiwall/lib"
	"github.com/urfave/cli/v2"
)

const (
	flagDisplays     = "displays"
	flagSaveDir      = "save-dir"
	flagResolution   = "resolution"
	flagTool         = "tool"
	flagQueueDir     = "queue-dir"
	flagPrivate      = "private"
	flagGenerateOnly = "generate-only"
	flagSetup        = "setup"
)

func runFlags() []cli.Flag {
	return append(commonFlags(),
		&cli.BoolFlag{
			Name:  flagSetup,
			Usage: "Install and verify external dependencies, then exit",
		},
	)
}

// Shared between the default action and the random command.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    flagDisplays,
			Aliases: []string{"d"},
			Usage:   "Number of displays, auto-detected when omitted",
		},
		&cli.StringFlag{
			Name:  flagSaveDir,
			Usage: "Directory for timestamped copies of generated images",
		},
		&cli.StringFlag{
			Name:    flagResolution,
			Aliases: []string{"r"},
			Usage:   "Image resolution as WIDTHxHEIGHT",
		},
		&cli.StringFlag{
			Name:  flagTool,
			Usage: "Wallpaper setting tool, or auto to try each in order",
		},
		&cli.StringFlag{
			Name:  flagQueueDir,
			Usage: "Directory for queued wallpaper images",
		},
		&cli.BoolFlag{
			Name:  flagPrivate,
			Usage: "Skip prompt enhancement and send minimal request parameters",
		},
		&cli.BoolFlag{
			Name:    flagGenerateOnly,
			Aliases: []string{"g"},
			Usage:   "Only generate and queue images, don't set wallpapers",
		},
	}
}

func runAction(c *cli.Context) error {
	if c.Bool(flagSetup) {
		return setupAction(c)
	}

	conf := loadConfig()

	prompt := strings.TrimSpace(c.Args().First())
	if prompt == "" {
		cli.ShowAppHelp(c)
		return cli.Exit("Missing required PROMPT argument", 1)
	}

	p, err := buildPipeline(c, conf)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	p.Prompt = prompt

	if _, err = p.Run(context.Background()); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

// buildPipeline resolves flags over config defaults into a one-run
// pipeline.
func buildPipeline(c *cli.Context, conf *lib.Config) (*lib.Pipeline, error) {
	resolution := stringOr(c, flagResolution, conf.Resolution)
	width, height, err := lib.ParseResolution(resolution)
	if err != nil {
		return nil, err
	}

	tool := stringOr(c, flagTool, conf.Tool)
	if err = lib.ValidTool(tool); err != nil {
		return nil, err
	}

	p := &lib.Pipeline{
		Displays:     c.Int(flagDisplays),
		Width:        width,
		Height:       height,
		Private:      c.Bool(flagPrivate),
		GenerateOnly: c.Bool(flagGenerateOnly),
		Tool:         tool,
		QueueDir:     stringOr(c, flagQueueDir, conf.QueueDir),
		SaveDir:      stringOr(c, flagSaveDir, conf.SaveDir),
		Fetcher:      lib.NewFetcher(conf.FetchTimeout()),
	}

	// Credential absence silently disables enhancement. Private mode skips
	// it at run time instead, so interactive toggling works both ways.
	if key := os.Getenv(lib.EnhancerKeyVar); key != "" {
		p.Enhancer = lib.NewEnhancer(key, conf.GeminiModel, conf.FetchTimeout())
	}

	return p, nil
}

func stringOr(c *cli.Context, name, fallback string) string {
	if v := c.String(name); v != "" {
		return v
	}
	return fallback
}

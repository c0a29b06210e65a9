package main

import (
	"context"
	"fmt"
	"strings"

	lib "aiwall/lib"
	prompt "github.com/c-bata/go-prompt"
	"github.com/urfave/cli/v2"
)

func interactiveCommand() *cli.Command {
	return &cli.Command{
		Name: "interactive",
		Usage: "Type prompts and see them on your displays immediately, to " +
			"quickly iterate before scheduling a prompt",
		Flags:  commonFlags(),
		Action: interactiveAction,
	}
}

func completer(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "exit", Description: "Exit the program"},
		{Text: "private", Description: "Toggle private mode"},
		{Text: "resolution", Description: "Set the resolution, e.g. resolution 1920x1080"},
		{Text: "tool", Description: "Set the wallpaper tool, e.g. tool applescript"},
		{Text: "print", Description: "Print the current settings"},
	}
	return prompt.FilterHasPrefix(s, d.TextBeforeCursor(), true)
}

func interactiveAction(c *cli.Context) error {
	conf := loadConfig()

	p, err := buildPipeline(c, conf)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	// Generated images are set right away instead of queued for next run.
	p.GenerateOnly = true
	p.Immediate = true

	fmt.Println("Type a prompt to generate and set wallpapers, or 'exit'.")

	for {
		in := strings.TrimSpace(prompt.Input("aiwall> ", completer))

		switch {
		case in == "":
			continue
		case in == "exit" || in == "quit":
			return nil
		case in == "private":
			// Private also skips enhancement, no need to drop the Enhancer.
			p.Private = !p.Private
			fmt.Printf("Private mode: %v\n", p.Private)
		case in == "print":
			fmt.Printf("resolution=%dx%d tool=%s private=%v queue-dir=%s\n",
				p.Width, p.Height, p.Tool, p.Private, p.QueueDir)
		case strings.HasPrefix(in, "resolution "):
			w, h, err := lib.ParseResolution(strings.TrimPrefix(in, "resolution "))
			if err != nil {
				fmt.Println(err)
				continue
			}
			p.Width, p.Height = w, h
		case strings.HasPrefix(in, "tool "):
			name := strings.TrimSpace(strings.TrimPrefix(in, "tool "))
			if err := lib.ValidTool(name); err != nil {
				fmt.Println(err)
				continue
			}
			p.Tool = name
			// Rebind the setter to the new tool.
			p.SetBackground = nil
		default:
			p.Prompt = in
			if _, err := p.Run(context.Background()); err != nil {
				fmt.Println(err)
			}
		}
	}
}

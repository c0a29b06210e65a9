package aiwallpaperlib

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"
)

// Pipeline carries everything one run needs, built once from config and
// flags. No package-level state; the lifecycle is scoped to a single
// invocation.
type Pipeline struct {
	Prompt string
	// Per-display prompts used instead of Prompt when non-empty (random
	// command). Already final, never enhanced.
	Prompts []string

	Displays     int // 0 means autodetect
	Width        int
	Height       int
	Private      bool
	GenerateOnly bool
	// Set each freshly generated image immediately instead of queueing it
	// for the next run (interactive command).
	Immediate bool
	Tool      string
	QueueDir  string
	SaveDir   string

	// Nil disables enhancement entirely.
	Enhancer *Enhancer
	Fetcher  *Fetcher

	// Overridable seams, defaulted in Run. Tests and the interactive
	// command swap these.
	DetectDisplays func() int
	SetBackground  func(path string, display int) error
	Refresh        func()
	Now            func() time.Time
}

// Report tallies per-display outcomes of one run. Entries are display
// indices.
type Report struct {
	Displays  int
	Set       []int
	SetFailed []int
	Generated []int
	GenFailed []int
}

func (p *Pipeline) fillDefaults() {
	if p.DetectDisplays == nil {
		p.DetectDisplays = DetectDisplays
	}
	if p.SetBackground == nil {
		tool := p.Tool
		p.SetBackground = func(path string, display int) error {
			return SetWallpaper(path, display, tool)
		}
	}
	if p.Refresh == nil {
		p.Refresh = RefreshDesktop
	}
	if p.Now == nil {
		p.Now = time.Now
	}
}

// Run executes one strictly linear cycle: set whatever the previous run
// queued, then regenerate the queue for next time. A returned error is a
// setup-level failure; per-display failures only land in the report.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	p.fillDefaults()

	displays := p.Displays
	if displays < 1 {
		displays = p.DetectDisplays()
	}
	log.Printf("Target displays: %d", displays)

	r := &Report{Displays: displays}

	if !p.GenerateOnly {
		if err := p.setQueued(displays, r); err != nil {
			return r, err
		}
	}

	// An unusable queue directory aborts the whole generation phase.
	if err := os.MkdirAll(p.QueueDir, 0755); err != nil {
		return r, fmt.Errorf(
			"Error creating queue directory [%s]: %w", p.QueueDir, err)
	}
	// MkdirAll reports nil for an existing directory whether or not it is
	// writable, so probe with a real write.
	f, err := os.CreateTemp(p.QueueDir, ".writable-*")
	if err != nil {
		return r, fmt.Errorf(
			"Queue directory [%s] is not writable: %w", p.QueueDir, err)
	}
	f.Close()
	_ = os.Remove(f.Name())

	if err = p.generate(ctx, displays, r); err != nil {
		return r, err
	}

	log.Printf("Successfully generated %d/%d wallpapers",
		len(r.Generated), displays)
	return r, nil
}

// setQueued applies whatever the previous run left in the queue directory.
// Absent or empty entries are skipped, never errors. Having no usable tool
// at all is the one error returned; it can't improve on later displays.
func (p *Pipeline) setQueued(displays int, r *Report) error {
	for i := 1; i <= displays; i++ {
		path := QueuePath(p.QueueDir, i)

		fi, err := os.Stat(path)
		if err != nil || fi.Size() == 0 {
			log.Printf("Nothing queued for display %d", i)
			continue
		}

		if err = p.SetBackground(path, i); err != nil {
			if errors.Is(err, ErrNoUsableTool) {
				return err
			}
			log.Printf("Failed to set wallpaper for display %d: %v", i, err)
			r.SetFailed = append(r.SetFailed, i)
			continue
		}
		r.Set = append(r.Set, i)
	}

	p.Refresh()
	return nil
}

// promptFor resolves the prompt for one display, enhancing the shared base
// prompt at most once per run.
func (p *Pipeline) promptFor(ctx context.Context, display int, enhanced *string) string {
	if len(p.Prompts) > 0 {
		return p.Prompts[(display-1)%len(p.Prompts)]
	}

	if *enhanced != "" {
		return *enhanced
	}

	*enhanced = p.Prompt
	if p.Enhancer == nil || p.Private {
		return *enhanced
	}

	out, err := p.Enhancer.Enhance(ctx, p.Prompt)
	if err != nil {
		// Enhancement failure is never fatal, keep the raw prompt.
		log.Printf("Prompt enhancement failed, using raw prompt: %v", err)
		return *enhanced
	}

	log.Printf("Enhanced prompt: %s", out)
	*enhanced = out
	return *enhanced
}

func (p *Pipeline) generate(ctx context.Context, displays int, r *Report) error {
	var enhanced string

	for i := 1; i <= displays; i++ {
		now := p.Now()
		req := GenRequest{
			Prompt:  p.promptFor(ctx, i, &enhanced),
			Width:   p.Width,
			Height:  p.Height,
			// Current time plus display index keeps seeds distinct per
			// display per run.
			Seed:    now.Unix() + int64(i),
			Private: p.Private,
		}

		log.Printf("Generating wallpaper for display %d (seed %d)", i, req.Seed)

		data, err := p.Fetcher.Fetch(ctx, req)
		if err == nil {
			data, err = Normalize(data, p.Width, p.Height)
		}
		if err != nil {
			log.Printf("Failed to generate wallpaper for display %d: %v", i, err)
			r.GenFailed = append(r.GenFailed, i)
			continue
		}

		path, err := WriteQueued(p.QueueDir, i, data)
		if err != nil {
			log.Printf("Failed to queue wallpaper for display %d: %v", i, err)
			r.GenFailed = append(r.GenFailed, i)
			continue
		}
		r.Generated = append(r.Generated, i)
		log.Printf("Queued wallpaper for display %d: %s", i, path)

		if err = UpdateManifest(p.QueueDir, ManifestEntry{
			Display: i,
			Prompt:  req.Prompt,
			Seed:    req.Seed,
			Width:   p.Width,
			Height:  p.Height,
			Created: now,
		}); err != nil {
			log.Printf("Failed to update queue manifest: %v", err)
		}

		if p.SaveDir != "" {
			copied, err := SaveCopy(data, p.SaveDir, i, now)
			if err != nil {
				log.Printf("Failed to save copy for display %d: %v", i, err)
			} else {
				log.Printf("Saved copy to %s", copied)
			}
		}

		if p.Immediate {
			if err = p.SetBackground(path, i); err != nil {
				if errors.Is(err, ErrNoUsableTool) {
					return err
				}
				log.Printf("Failed to set wallpaper for display %d: %v", i, err)
				r.SetFailed = append(r.SetFailed, i)
			} else {
				r.Set = append(r.Set, i)
			}
		}
	}

	if p.Immediate && len(r.Set) > 0 {
		p.Refresh()
	}
	return nil
}

package aiwallpaperlib

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	// The image API answers jpeg or webp regardless of the .png path.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const pollinationsBaseURL = "https://pollinations.ai"

// The flux model with these parameters gave the best results of everything
// the API offers.
const imageModel = "flux"

// Some API failures come back as 200 with a tiny HTML or JSON error body.
const minImageBytes = 1024

// Matching what a browser would send; the API throttles obvious bots harder.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36"

// GenRequest describes a single image to generate. Seeds must differ per
// display per run or every display gets the same image.
type GenRequest struct {
	Prompt  string
	Width   int
	Height  int
	Seed    int64
	Private bool
}

// Fetcher requests rendered images from the Pollinations API. One attempt
// per call; retries are the caller's decision, and the orchestrator
// deliberately makes none.
type Fetcher struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		BaseURL:   pollinationsBaseURL,
		UserAgent: defaultUserAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) requestURL(r GenRequest) string {
	q := url.Values{}
	q.Set("width", strconv.Itoa(r.Width))
	q.Set("height", strconv.Itoa(r.Height))
	q.Set("seed", strconv.FormatInt(r.Seed, 10))
	q.Set("model", imageModel)
	q.Set("nologo", "true")
	if !r.Private {
		q.Set("enhance", "true")
	}

	return f.BaseURL + "/p/" + url.PathEscape(r.Prompt) + "?" + q.Encode()
}

// Fetch returns the raw bytes of a rendered image, or an error the caller
// should recover from at the display level.
func (f *Fetcher) Fetch(ctx context.Context, r GenRequest) ([]byte, error) {
	if r.Prompt == "" {
		return nil, errors.New("empty prompt")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return nil, errors.Errorf("invalid resolution %dx%d", r.Width, r.Height)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, f.requestURL(r), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "image request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf(
			"image request failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading image response")
	}

	if len(data) < minImageBytes {
		return nil, errors.Errorf(
			"image response suspiciously short (%d bytes)", len(data))
	}

	return data, nil
}

// Normalize decodes fetched bytes and re-encodes them as a PNG of exactly
// the requested resolution. The API occasionally returns a different size or
// format than asked for, and queue entries are contractually PNGs.
func Normalize(data []byte, width, height int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "undecodable image response")
	}

	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		img = imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "encoding wallpaper png")
	}

	return buf.Bytes(), nil
}

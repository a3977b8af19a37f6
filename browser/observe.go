package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/go-rod/rod"

	"github.com/yhl48/proxy-lite/dom"
	"github.com/yhl48/proxy-lite/poi"
)

// ObserveConfig configures the observation pass.
type ObserveConfig struct {
	// MaxIframes caps how many same-origin frames get their own capture
	// pass. Default: 10.
	MaxIframes int

	// MinIframeSize is the minimum rendered width and height, in pixels,
	// for a frame to be worth capturing. Default: 50.
	MinIframeSize float64

	// ScreenshotQuality is the JPEG quality for viewport captures. Default: 70.
	ScreenshotQuality int

	Logger *slog.Logger
}

func (c *ObserveConfig) defaults() {
	if c.MaxIframes <= 0 {
		c.MaxIframes = 10
	}
	if c.MinIframeSize <= 0 {
		c.MinIframeSize = 50
	}
	if c.ScreenshotQuality <= 0 {
		c.ScreenshotQuality = 70
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Observation is one settled look at the page: the mark list in top-level
// viewport coordinates and the raw screenshot it was extracted from.
type Observation struct {
	URL        string
	Result     poi.Result
	Screenshot []byte
}

// Observer runs the capture script against a live session and turns the
// returned snapshots into a merged mark list.
type Observer struct {
	cfg ObserveConfig
}

// NewObserver creates an Observer.
func NewObserver(cfg ObserveConfig) *Observer {
	cfg.defaults()
	return &Observer{cfg: cfg}
}

// Observe captures the page and extracts marks. Extraction runs twice
// around the screenshot; if any centroid moved between the two passes the
// page was still settling, so the screenshot is retaken and the second
// pass wins.
func (o *Observer) Observe(ctx context.Context, s *Session, ex *poi.Extractor) (*Observation, error) {
	shot, err := s.Screenshot(ctx, o.cfg.ScreenshotQuality)
	if err != nil {
		return nil, err
	}
	first, err := o.extractOnce(ctx, s, ex)
	if err != nil {
		return nil, err
	}
	second, err := o.extractOnce(ctx, s, ex)
	if err != nil {
		return nil, err
	}

	if !centroidsEqual(first.Result, second.Result) {
		o.cfg.Logger.Debug("browser: marks moved during observation, retaking screenshot")
		shot, err = s.Screenshot(ctx, o.cfg.ScreenshotQuality)
		if err != nil {
			return nil, err
		}
		second.Screenshot = shot
		return second, nil
	}
	first.Screenshot = shot
	return first, nil
}

func (o *Observer) extractOnce(ctx context.Context, s *Session, ex *poi.Extractor) (*Observation, error) {
	doc, err := o.captureDocument(ctx, s.Page())
	if err != nil {
		return nil, err
	}

	result, err := ex.Extract(doc, nil)
	if err != nil {
		return nil, fmt.Errorf("browser: extract: %w", err)
	}

	result = o.mergeFrames(ctx, s, ex, result)

	return &Observation{URL: doc.URL, Result: result}, nil
}

func centroidsEqual(a, b poi.Result) bool {
	if len(a.Centroids) != len(b.Centroids) {
		return false
	}
	for i := range a.Centroids {
		if a.Centroids[i] != b.Centroids[i] {
			return false
		}
	}
	return true
}

// captureDocument evaluates the capture script in the page (or frame) and
// decodes the snapshot it returns.
func (o *Observer) captureDocument(ctx context.Context, page *rod.Page) (*dom.Document, error) {
	res, err := page.Context(ctx).Eval(captureJS)
	if err != nil {
		return nil, fmt.Errorf("browser: capture script: %w", err)
	}
	data, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("browser: capture payload: %w", err)
	}
	doc, err := dom.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("browser: %w", err)
	}
	return doc, nil
}

// mergeFrames captures each visible same-origin iframe in its own context
// and folds the frame marks into the outer result. A frame that cannot be
// captured degrades the result to partial instead of failing the pass.
func (o *Observer) mergeFrames(ctx context.Context, s *Session, ex *poi.Extractor, result poi.Result) poi.Result {
	els, err := s.Page().Context(ctx).Elements("iframe")
	if err != nil {
		o.cfg.Logger.Debug("browser: iframe scan failed", "error", err)
		result.Partial = true
		return result
	}

	merged := 0
	for _, el := range els {
		if merged >= o.cfg.MaxIframes {
			break
		}
		shape, err := el.Shape()
		if err != nil {
			continue
		}
		box := shape.Box()
		if box == nil || box.Width < o.cfg.MinIframeSize || box.Height < o.cfg.MinIframeSize {
			continue
		}

		framePage, err := el.Frame()
		if err != nil {
			// Cross-origin or detached; the main pass already flagged it.
			result.Partial = true
			continue
		}
		frameDoc, err := o.captureDocument(ctx, framePage)
		if err != nil {
			o.cfg.Logger.Debug("browser: frame capture failed", "error", err)
			result.Partial = true
			continue
		}
		frameRes, err := ex.Extract(frameDoc, nil)
		if err != nil {
			result.Partial = true
			continue
		}

		result = MergeFrame(result, frameRes, box.X, box.Y)
		merged++
	}
	return result
}

// MergeFrame appends the marks of a frame-local result to the outer
// result, shifting frame coordinates by the frame's position in the outer
// viewport. Offsets are rounded so merged boxes stay on pixel boundaries.
func MergeFrame(outer, frame poi.Result, offsetX, offsetY float64) poi.Result {
	dx := math.Round(offsetX)
	dy := math.Round(offsetY)
	for i := range frame.Centroids {
		outer.Centroids = append(outer.Centroids, frame.Centroids[i].Translate(dx, dy))
		outer.Descriptions = append(outer.Descriptions, frame.Descriptions[i])
	}
	outer.Partial = outer.Partial || frame.Partial
	return outer
}

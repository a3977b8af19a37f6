package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Session wraps one stealth page and exposes the primitive gestures the
// action layer composes: navigation, pointer movement, keys, scrolling.
// All coordinates are viewport pixels, the same space marks are emitted in.
type Session struct {
	ID     string
	page   *rod.Page
	width  int
	height int
	log    *slog.Logger
}

// NewSession opens a stealth page on the given browser, sizes its
// viewport, and installs the select overlay on every future document.
func NewSession(b *rod.Browser, id string, width, height int, blocked []string, log *slog.Logger) (*Session, error) {
	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: stealth page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return nil, fmt.Errorf("browser: set viewport: %w", err)
	}

	if _, err := page.EvalOnNewDocument("(" + overlayJS + ")()"); err != nil {
		return nil, fmt.Errorf("browser: install overlay: %w", err)
	}

	if err := applyResourceBlocking(page, blocked); err != nil {
		return nil, err
	}

	return &Session{ID: id, page: page, width: width, height: height, log: log}, nil
}

// Rebind points the session at a new browser after a recycle. The old
// page is gone with the old process; navigation state does not survive.
func (s *Session) Rebind(b *rod.Browser) error {
	page, err := stealth.Page(b)
	if err != nil {
		return fmt.Errorf("browser: rebind: %w", err)
	}
	if _, err := page.EvalOnNewDocument("(" + overlayJS + ")()"); err != nil {
		return fmt.Errorf("browser: rebind overlay: %w", err)
	}
	s.page = page
	return nil
}

// Page exposes the underlying page for the observation pass.
func (s *Session) Page() *rod.Page { return s.page }

// Size returns the viewport dimensions.
func (s *Session) Size() (width, height int) { return s.width, s.height }

// Goto navigates to the URL and waits for the load event.
func (s *Session) Goto(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load: %w", err)
	}
	return nil
}

// Reload reloads the current page.
func (s *Session) Reload(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return fmt.Errorf("browser: reload: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load: %w", err)
	}
	return nil
}

// Back goes one step back in history. Landing on about:blank means the
// history ran out under us; step forward again so the session never shows
// the agent an empty page.
func (s *Session) Back(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.NavigateBack(); err != nil {
		return fmt.Errorf("browser: back: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load: %w", err)
	}

	info, err := p.Info()
	if err != nil {
		return fmt.Errorf("browser: page info: %w", err)
	}
	if info.URL == "about:blank" {
		if err := p.NavigateForward(); err != nil {
			return fmt.Errorf("browser: recover from blank: %w", err)
		}
		if err := p.WaitLoad(); err != nil {
			return fmt.Errorf("browser: wait load: %w", err)
		}
	}
	return nil
}

// URL returns the current page URL.
func (s *Session) URL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("browser: page info: %w", err)
	}
	return info.URL, nil
}

// Focus gives keyboard focus to the element at the point without
// clicking it.
func (s *Session) Focus(ctx context.Context, x, y float64) error {
	p := s.page.Context(ctx)
	res, err := p.Eval(`(x, y) => {
		const el = document.elementFromPoint(x, y);
		if (!el || typeof el.focus !== "function") return false;
		el.focus();
		return true;
	}`, x, y)
	if err != nil {
		return fmt.Errorf("browser: focus: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: no focusable element at (%g, %g)", x, y)
	}
	return nil
}

// Hover moves the mouse to the point.
func (s *Session) Hover(ctx context.Context, x, y float64) error {
	p := s.page.Context(ctx)
	if err := p.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("browser: move to (%g, %g): %w", x, y, err)
	}
	return nil
}

// Click moves to the point and left-clicks.
func (s *Session) Click(ctx context.Context, x, y float64) error {
	if err := s.Hover(ctx, x, y); err != nil {
		return err
	}
	p := s.page.Context(ctx)
	if err := p.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("browser: click: %w", err)
	}
	return nil
}

// MiddleClick moves to the point and middle-clicks, the gesture that
// opens links in a background tab.
func (s *Session) MiddleClick(ctx context.Context, x, y float64) error {
	if err := s.Hover(ctx, x, y); err != nil {
		return err
	}
	p := s.page.Context(ctx)
	if err := p.Mouse.Click(proto.InputMouseButtonMiddle, 1); err != nil {
		return fmt.Errorf("browser: middle click: %w", err)
	}
	return nil
}

// EnterText clicks the point, clears the field, and types the text.
// submit presses Enter afterwards.
func (s *Session) EnterText(ctx context.Context, x, y float64, text string, submit bool) error {
	if err := s.Click(ctx, x, y); err != nil {
		return err
	}
	if err := s.clearField(ctx); err != nil {
		return err
	}
	p := s.page.Context(ctx)
	if err := p.InsertText(text); err != nil {
		return fmt.Errorf("browser: insert text: %w", err)
	}
	if submit {
		if err := p.Keyboard.Type(input.Enter); err != nil {
			return fmt.Errorf("browser: press enter: %w", err)
		}
	}
	return nil
}

// ClearField clicks the point and empties the focused field.
func (s *Session) ClearField(ctx context.Context, x, y float64) error {
	if err := s.Click(ctx, x, y); err != nil {
		return err
	}
	return s.clearField(ctx)
}

// clearField selects everything in the focused field and deletes it.
func (s *Session) clearField(ctx context.Context) error {
	kb := s.page.Context(ctx).Keyboard
	if err := kb.Press(input.ControlLeft); err != nil {
		return fmt.Errorf("browser: select all: %w", err)
	}
	if err := kb.Type(input.KeyA); err != nil {
		return fmt.Errorf("browser: select all: %w", err)
	}
	if err := kb.Release(input.ControlLeft); err != nil {
		return fmt.Errorf("browser: select all: %w", err)
	}
	if err := kb.Type(input.Backspace); err != nil {
		return fmt.Errorf("browser: delete selection: %w", err)
	}
	return nil
}

// Scroll moves the mouse to the point and wheels by (dx, dy) pixels.
func (s *Session) Scroll(ctx context.Context, x, y, dx, dy float64) error {
	if err := s.Hover(ctx, x, y); err != nil {
		return err
	}
	p := s.page.Context(ctx)
	if err := p.Mouse.Scroll(dx, dy, 1); err != nil {
		return fmt.Errorf("browser: scroll: %w", err)
	}
	// Let smooth scrolling and lazy content settle before anyone observes.
	time.Sleep(200 * time.Millisecond)
	return nil
}

// SelectOption sets the value of the select element at the point and
// fires the same event sequence a synthetic-listbox pick produces.
func (s *Session) SelectOption(ctx context.Context, x, y float64, value string) error {
	p := s.page.Context(ctx)
	res, err := p.Eval(`(x, y, value) => {
		let el = document.elementFromPoint(x, y);
		if (el) el = el.closest("select");
		if (!el) return false;
		el.value = value;
		for (const opt of el.options) {
			if (opt.value === value) opt.setAttribute("selected", "");
			else opt.removeAttribute("selected");
		}
		for (const type of ["focus", "input", "change", "blur"]) {
			el.dispatchEvent(new Event(type, { bubbles: type !== "focus" && type !== "blur" }));
		}
		return true;
	}`, x, y, value)
	if err != nil {
		return fmt.Errorf("browser: select option: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: no select element at (%g, %g)", x, y)
	}
	return nil
}

// Screenshot captures the viewport as JPEG at the given quality.
func (s *Session) Screenshot(ctx context.Context, quality int) ([]byte, error) {
	q := quality
	data, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &q,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return data, nil
}

// HTML returns the serialized outer HTML of the current document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: page html: %w", err)
	}
	return html, nil
}

// Close closes the page.
func (s *Session) Close() error {
	if err := s.page.Close(); err != nil {
		return fmt.Errorf("browser: close page: %w", err)
	}
	return nil
}

package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
)

// Browser stands in for the page the session controller lives in. A
// navigation is recorded for the HTTP handler to answer with and echoed to
// out, so a terminal user can follow it too.
type Browser struct {
	mu       sync.Mutex
	location *url.URL
	pending  string
	out      io.Writer
	logger   *slog.Logger
}

func NewBrowser(location *url.URL, out io.Writer, logger *slog.Logger) *Browser {
	u := *location
	return &Browser{
		location: &u,
		out:      out,
		logger:   logger,
	}
}

func (b *Browser) Location() *url.URL {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := *b.location
	return &u
}

func (b *Browser) Navigate(ctx context.Context, target string) error {
	b.mu.Lock()
	b.pending = target
	b.mu.Unlock()

	b.logger.Debug("navigating", "target", target)

	if b.out != nil {
		if _, err := fmt.Fprintf(b.out, "Open this URL in your browser:\n\n  %s\n\n", target); err != nil {
			return fmt.Errorf("failed to print navigation: %w", err)
		}
	}
	return nil
}

func (b *Browser) Replace(target string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u, err := b.location.Parse(target)
	if err != nil {
		b.logger.Warn("ignoring unparsable location", "target", target, "error", err)
		return
	}
	b.location = u
}

// Load starts a new page load at u.
func (b *Browser) Load(u *url.URL) {
	b.mu.Lock()
	defer b.mu.Unlock()

	loc := *u
	b.location = &loc
	b.pending = ""
}

// TakeNavigation returns and forgets the last navigation target.
func (b *Browser) TakeNavigation() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := b.pending
	b.pending = ""
	return target
}

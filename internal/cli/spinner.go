package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a message on one terminal line until stop is called or
// ctx ends, then blanks the line.
type spinner struct {
	out     io.Writer
	message string

	stopOnce sync.Once
	quit     chan struct{}
	finished chan struct{}
}

func startSpinner(ctx context.Context, out io.Writer, message string) *spinner {
	s := &spinner{
		out:      out,
		message:  message,
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.finished)
	defer s.clear()

	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()
	for frame := 0; ; frame++ {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-tick.C:
			glyph := spinnerFrames[frame%len(spinnerFrames)]
			fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(glyph), StyleDim.Render(s.message))
		}
	}
}

func (s *spinner) clear() {
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", utf8.RuneCountInString(s.message)+2))
}

// stop ends the animation and waits for the line to be cleared. Calling it
// again is a no-op.
func (s *spinner) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	<-s.finished
}

// withSpinner runs fn while a spinner shows message on out.
func withSpinner[T any](ctx context.Context, out io.Writer, message string, fn func(context.Context) (T, error)) (T, error) {
	s := startSpinner(ctx, out, message)
	defer s.stop()
	return fn(ctx)
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedBuffer lets the spinner goroutine and the test share a buffer.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out lockedBuffer
	s := startSpinner(context.Background(), &out, "Fetching topology...")
	time.Sleep(3 * spinnerInterval)
	s.stop()

	got := out.String()
	if !strings.Contains(got, "Fetching topology...") {
		t.Errorf("output %q does not contain the message", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("line not cleared: %q", got)
	}
}

func TestSpinnerEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := startSpinner(ctx, &lockedBuffer{}, "Laying out...")
	cancel()

	select {
	case <-s.finished:
	case <-time.After(time.Second):
		t.Fatal("spinner still running after cancel")
	}
	s.stop()
}

func TestSpinnerStopTwice(t *testing.T) {
	s := startSpinner(context.Background(), &lockedBuffer{}, "x")
	s.stop()
	s.stop()
}

func TestWithSpinner(t *testing.T) {
	n, err := withSpinner(context.Background(), &lockedBuffer{}, "Counting...", func(context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || n != 42 {
		t.Errorf("withSpinner = %d, %v", n, err)
	}

	boom := errors.New("connection refused")
	_, err = withSpinner(context.Background(), &lockedBuffer{}, "Failing...", func(context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

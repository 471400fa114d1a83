package linphone

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPhone_PostAfterLoopExit(t *testing.T) {
	t.Parallel()

	p := NewPhone(nil)
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("phone.Close() error = %v, want nil", err)
	}

	for range 100 {
		if p.post(func() {}) {
			t.Fatal("phone.post() = true after the loop exited, want false")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.call(ctx, func() error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("phone.call() error = %v, want %v", err, ErrClosed)
	}
}

func TestPhone_CallQueuedWhenLoopExits(t *testing.T) {
	t.Parallel()

	// the loop is never started, so the event stays queued in the buffer
	p := NewPhone(nil)

	errc := make(chan error, 1)
	go func() {
		errc <- p.call(context.Background(), func() error { return nil })
	}()

	deadline := time.Now().Add(3 * time.Second)
	for len(p.events) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the event to be queued")
		}
		time.Sleep(time.Millisecond)
	}
	close(p.done)

	select {
	case err := <-errc:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("phone.call() error = %v, want %v", err, ErrClosed)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("phone.call() still blocked after the loop exited")
	}
}

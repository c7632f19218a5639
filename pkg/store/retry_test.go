package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPing(t *testing.T) {
	connectDelay = time.Millisecond
	t.Cleanup(func() { connectDelay = time.Second })

	calls := 0
	err := ping(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("starting up")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("err = %v after %d calls", err, calls)
	}

	down := errors.New("connection refused")
	calls = 0
	err = ping(context.Background(), func(context.Context) error { calls++; return down })
	if !errors.Is(err, down) || calls != connectAttempts {
		t.Errorf("err = %v after %d calls, want %d attempts", err, calls, connectAttempts)
	}
}

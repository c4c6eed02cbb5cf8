package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/GriffinCanCode/meeting-sentinel/internal/errors"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		BaseDelay:    time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		JitterFactor: 0.1,
		IsRetryable:  errors.IsRetryable,
	}
}

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New(errors.CodePublishFailed, "marker write failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryNonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastConfig(), func() error {
		calls++
		return errors.New(errors.CodeConfigInvalid, "bad config")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable error should not retry, got %d calls", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New(errors.CodeProbeTimeout, "timeout")
	err := Retry(context.Background(), fastConfig(), func() error {
		calls++
		return sentinel
	})
	if !stderrors.Is(err, sentinel) {
		t.Fatalf("expected last error back, got %v", err)
	}
	if calls != 4 { // initial + 3 retries
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastConfig(), func() error {
		return errors.New(errors.CodePublishFailed, "fail")
	})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPublishRetryConfigBounded(t *testing.T) {
	cfg := PublishRetryConfig()
	// Worst case must stay well under the 1s audio poll interval.
	worst := time.Duration(cfg.MaxRetries) * cfg.MaxDelay
	if worst >= 500*time.Millisecond {
		t.Errorf("publish retry worst case %v too long for a monitor tick", worst)
	}
	if !cfg.IsRetryable(stderrors.New("any")) {
		t.Error("publish retries should treat any write error as retryable")
	}
}

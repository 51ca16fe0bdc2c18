package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var (
	errTransient = errors.New("connection reset")
	errRate      = errors.New("too many requests")
	errClient    = errors.New("bad request")
	errWeird     = errors.New("weird")
)

func testClassifier(retryAfter time.Duration) Classifier {
	return func(err error) Classification {
		switch {
		case errors.Is(err, errTransient):
			return Classification{Class: ClassTransient}
		case errors.Is(err, errRate):
			return Classification{Class: ClassRateLimited, RetryAfter: retryAfter}
		case errors.Is(err, errClient):
			return Classification{Class: ClassClient}
		default:
			return Classification{Class: ClassOther}
		}
	}
}

func newTestTransport(retryAfter time.Duration) (*Transport, *[]time.Duration) {
	slept := &[]time.Duration{}
	tp := New(testClassifier(retryAfter), zerolog.Nop())
	tp.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return tp, slept
}

func TestExecuteSuccess(t *testing.T) {
	tp, slept := newTestTransport(0)
	id, ok := tp.Execute(context.Background(), "send", func(context.Context) (int, error) {
		return 7, nil
	})
	if !ok || id != 7 {
		t.Errorf("Execute() = (%d, %v), want (7, true)", id, ok)
	}
	if len(*slept) != 0 {
		t.Errorf("slept %v, want no sleeps", *slept)
	}
}

func TestExecuteTransientRecovers(t *testing.T) {
	tp, slept := newTestTransport(0)
	calls := 0
	id, ok := tp.Execute(context.Background(), "send", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 9, nil
	})
	if !ok || id != 9 {
		t.Errorf("Execute() = (%d, %v), want (9, true)", id, ok)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(*slept) != 2 {
		t.Errorf("sleeps = %d, want 2", len(*slept))
	}
}

func TestExecuteTransientExhausted(t *testing.T) {
	tp, _ := newTestTransport(0)
	calls := 0
	_, ok := tp.Execute(context.Background(), "send", func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	if ok {
		t.Error("Execute() ok = true, want soft failure")
	}
	if calls != maxAttempts {
		t.Errorf("calls = %d, want %d", calls, maxAttempts)
	}
}

func TestExecuteRateLimitDirective(t *testing.T) {
	tp, slept := newTestTransport(3 * time.Second)
	calls := 0
	id, ok := tp.Execute(context.Background(), "send", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errRate
		}
		return 4, nil
	})
	if !ok || id != 4 {
		t.Errorf("Execute() = (%d, %v), want (4, true)", id, ok)
	}
	if len(*slept) != 1 || (*slept)[0] != 3*time.Second+rateLimitSlack {
		t.Errorf("slept %v, want one sleep of retry-after plus slack", *slept)
	}
}

func TestExecuteRateLimitRetriesOnlyOnce(t *testing.T) {
	tp, _ := newTestTransport(2 * time.Second)
	calls := 0
	_, ok := tp.Execute(context.Background(), "send", func(context.Context) (int, error) {
		calls++
		return 0, errRate
	})
	if ok {
		t.Error("Execute() ok = true, want soft failure")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want exactly one retry after the directive", calls)
	}
}

func TestExecuteRateLimitWithoutDirectiveBacksOff(t *testing.T) {
	// A 429 with no retry-after behaves like any transient fault.
	tp, _ := newTestTransport(0)
	calls := 0
	_, ok := tp.Execute(context.Background(), "send", func(context.Context) (int, error) {
		calls++
		return 0, errRate
	})
	if ok {
		t.Error("Execute() ok = true, want soft failure")
	}
	if calls != maxAttempts {
		t.Errorf("calls = %d, want %d", calls, maxAttempts)
	}
}

func TestExecuteClientErrorNotifies(t *testing.T) {
	tp, _ := newTestTransport(0)
	var notified string
	tp.SetNotifier(func(_ context.Context, text string) error {
		notified = text
		return nil
	})
	calls := 0
	_, ok := tp.Execute(context.Background(), "send", func(context.Context) (int, error) {
		calls++
		return 0, errClient
	})
	if ok {
		t.Error("Execute() ok = true, want soft failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, client errors must not retry", calls)
	}
	if notified == "" {
		t.Error("operator was not notified")
	}
}

func TestExecuteUnclassifiedNotifies(t *testing.T) {
	tp, _ := newTestTransport(0)
	notified := 0
	tp.SetNotifier(func(context.Context, string) error {
		notified++
		return nil
	})
	_, ok := tp.Execute(context.Background(), "send", func(context.Context) (int, error) {
		return 0, errWeird
	})
	if ok {
		t.Error("Execute() ok = true, want soft failure")
	}
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
}

func TestExecuteNilNotifierSafe(t *testing.T) {
	tp, _ := newTestTransport(0)
	_, ok := tp.Execute(context.Background(), "send", func(context.Context) (int, error) {
		return 0, errClient
	})
	if ok {
		t.Error("Execute() ok = true, want soft failure")
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	tp, _ := newTestTransport(0)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, ok := tp.Execute(ctx, "send", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errTransient
	})
	if ok {
		t.Error("Execute() ok = true, want abandonment")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 after cancellation", calls)
	}
}

func TestReport(t *testing.T) {
	tp, _ := newTestTransport(0)
	notified := 0
	tp.SetNotifier(func(context.Context, string) error {
		notified++
		return nil
	})

	tp.Report(context.Background(), "worker", nil)
	if notified != 0 {
		t.Error("Report(nil) notified the operator")
	}

	tp.Report(context.Background(), "worker", errWeird)
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
}

func TestReportRateLimited(t *testing.T) {
	tp, slept := newTestTransport(2 * time.Second)
	notified := 0
	tp.SetNotifier(func(context.Context, string) error {
		notified++
		return nil
	})
	tp.Report(context.Background(), "worker", errRate)
	if len(*slept) != 1 {
		t.Errorf("sleeps = %d, want 1 for the retry-after window", len(*slept))
	}
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
}

// Package transport wraps outbound destination calls with retry, backoff and
// rate-limit handling. Callers receive either the call's result or a soft
// "did not happen" outcome; the transport never panics and never lets a
// delivery error propagate.
package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Class buckets an outbound error for retry policy purposes.
type Class int

const (
	// ClassTransient covers network faults and retryable HTTP responses.
	ClassTransient Class = iota
	// ClassRateLimited is a 429-style response, optionally carrying an
	// explicit retry-after directive.
	ClassRateLimited
	// ClassClient is a malformed request. Never retried.
	ClassClient
	// ClassOther is anything unrecognized. Never retried.
	ClassOther
)

// Classification is the outcome of classifying one error.
type Classification struct {
	Class      Class
	RetryAfter time.Duration // only meaningful for ClassRateLimited
}

// Classifier maps a destination error to a Classification. Supplied by the
// destination binding, which knows its SDK's error shapes.
type Classifier func(err error) Classification

// Notifier delivers a diagnostic text to the operator channel. It must be a
// direct, unwrapped send: escalation paths deliberately bypass the retry
// machinery to avoid recursing into it.
type Notifier func(ctx context.Context, text string) error

// Call is a single outbound action returning the destination message id.
type Call func(ctx context.Context) (int, error)

const (
	maxAttempts    = 6
	initialBackoff = 1600 * time.Millisecond
	rateLimitSlack = time.Second
)

// Transport executes outbound calls under the retry policy.
type Transport struct {
	classify Classifier
	notify   Notifier
	log      zerolog.Logger

	// sleep is swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Transport. classify is required; notify may be nil when no
// operator channel is configured.
func New(classify Classifier, log zerolog.Logger) *Transport {
	return &Transport{
		classify: classify,
		log:      log,
		sleep:    sleepCtx,
	}
}

// SetNotifier installs the operator-channel escalation hook. Installed after
// construction because the notifier is itself a destination send.
func (t *Transport) SetNotifier(n Notifier) {
	t.notify = n
}

// Execute runs call under the retry policy. The second return is false when
// the send did not happen: retries exhausted, non-retryable error, or
// context cancelled. Callers must not use the id in that case.
func (t *Transport) Execute(ctx context.Context, label string, call Call) (int, bool) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff

	rateLimitRetried := false
	for attempt := 1; ; attempt++ {
		id, err := call(ctx)
		if err == nil {
			return id, true
		}
		if ctx.Err() != nil {
			t.log.Warn().Str("call", label).Err(err).Msg("outbound call abandoned: context done")
			return 0, false
		}

		cls := t.classify(err)
		if rateLimitRetried {
			// The single post-directive retry failed; surface the soft failure.
			t.log.Error().Str("call", label).Err(err).Msg("outbound call failed after rate-limit wait")
			return 0, false
		}

		switch cls.Class {
		case ClassRateLimited:
			if cls.RetryAfter > 0 {
				// An explicit directive overrides the backoff sequence:
				// wait it out once, then retry exactly once.
				t.log.Warn().Str("call", label).Dur("retry_after", cls.RetryAfter).
					Msg("outbound call rate limited, honoring retry-after")
				if t.sleep(ctx, cls.RetryAfter+rateLimitSlack) != nil {
					return 0, false
				}
				rateLimitRetried = true
				continue
			}
			fallthrough
		case ClassTransient:
			if attempt >= maxAttempts {
				t.log.Error().Str("call", label).Int("attempts", attempt).Err(err).
					Msg("outbound call retries exhausted")
				return 0, false
			}
			delay := bo.NextBackOff()
			t.log.Warn().Str("call", label).Int("attempt", attempt).Dur("backoff", delay).Err(err).
				Msg("outbound call failed, backing off")
			if t.sleep(ctx, delay) != nil {
				return 0, false
			}
		case ClassClient:
			t.log.Error().Str("call", label).Err(err).Msg("outbound call rejected as bad request")
			t.notifyOperator(ctx, "[bridge error] bad request on "+label+":\n"+err.Error())
			return 0, false
		default:
			t.log.Error().Str("call", label).Err(err).Msg("outbound call failed with unclassified error")
			t.notifyOperator(ctx, "[bridge error] unclassified failure on "+label+":\n"+err.Error())
			return 0, false
		}
	}
}

// Report routes a failure that surfaced outside a wrapped call (panicking
// unit of work, abandoned goroutine) through the same classification and
// escalation path. It is the process-wide safety net and never fails itself.
func (t *Transport) Report(ctx context.Context, label string, err error) {
	if err == nil {
		return
	}
	cls := t.classify(err)
	if cls.Class == ClassRateLimited && cls.RetryAfter > 0 {
		t.log.Warn().Str("unit", label).Dur("retry_after", cls.RetryAfter).Err(err).
			Msg("unit of work hit destination rate limit")
		if t.sleep(ctx, cls.RetryAfter+rateLimitSlack) != nil {
			return
		}
		t.notifyOperator(ctx, "[bridge error] rate limited in "+label+", paused for retry-after window")
		return
	}
	t.log.Error().Str("unit", label).Err(err).Msg("unit of work failed")
	t.notifyOperator(ctx, "[bridge error] failure in "+label+":\n"+err.Error())
}

// notifyOperator delivers an escalation text directly, swallowing any error.
// The send is not wrapped by Execute: its own failure must never re-enter
// the escalation path.
func (t *Transport) notifyOperator(ctx context.Context, text string) {
	if t.notify == nil {
		return
	}
	if err := t.notify(ctx, text); err != nil {
		t.log.Error().Err(err).Msg("operator notification failed")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

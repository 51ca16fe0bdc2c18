package telegram

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/mymmrac/telego/telegoapi"

	"github.com/tinyland-inc/bridgeclaw/pkg/transport"
)

// Classify maps Telegram Bot API and network errors onto the transport's
// retry taxonomy. 404 joins the transient bucket: the API intermittently
// answers with it during restarts and a retry usually lands.
func Classify(err error) transport.Classification {
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.ErrorCode == 429:
			cls := transport.Classification{Class: transport.ClassRateLimited}
			if apiErr.Parameters != nil && apiErr.Parameters.RetryAfter > 0 {
				cls.RetryAfter = time.Duration(apiErr.Parameters.RetryAfter) * time.Second
			}
			return cls
		case apiErr.ErrorCode == 404 || apiErr.ErrorCode >= 500:
			return transport.Classification{Class: transport.ClassTransient}
		case apiErr.ErrorCode == 400:
			return transport.Classification{Class: transport.ClassClient}
		default:
			return transport.Classification{Class: transport.ClassOther}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return transport.Classification{Class: transport.ClassTransient}
	}
	return transport.Classification{Class: transport.ClassOther}
}

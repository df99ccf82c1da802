package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter forwards hard failures to Sentry. A nil or disabled Reporter
// drops everything, so commands can call it unconditionally.
type Reporter struct {
	enabled bool
}

// InitSentry initialises the global Sentry client when dsn is set.
func InitSentry(dsn, environment, release string) (*Reporter, error) {
	if dsn == "" {
		return &Reporter{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return &Reporter{}, err
	}
	return &Reporter{enabled: true}, nil
}

func (r *Reporter) Enabled() bool {
	return r != nil && r.enabled
}

// Capture reports err with the given tags and extras.
func (r *Reporter) Capture(err error, tags map[string]string, extras map[string]interface{}) {
	if !r.Enabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Flush waits for queued events before the process exits.
func (r *Reporter) Flush() {
	if !r.Enabled() {
		return
	}
	sentry.Flush(2 * time.Second)
}

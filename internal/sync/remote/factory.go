package remote

import (
	"context"
	"runtime"

	"github.com/kimhsiao/salonbook/backend/internal/logging"
)

// New selects the adapter for the current settings. Without a bucket the
// remote backend is unavailable.
func New(ctx context.Context, cfg S3Config) Adapter {
	if cfg.Bucket == "" {
		return Unavailable{Reason: "remote backend is not configured on " + runtime.GOOS}
	}
	a, err := NewS3Adapter(ctx, cfg)
	if err != nil {
		logging.Error("failed to configure remote backend", err, map[string]interface{}{
			"bucket": cfg.Bucket,
		})
		return Unavailable{Reason: err.Error()}
	}
	return a
}

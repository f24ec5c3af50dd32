package remote

import (
	"context"

	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
)

// Unavailable is the adapter used where no remote backend exists.
type Unavailable struct {
	Reason string
}

var _ Adapter = Unavailable{}

func (u Unavailable) err() error {
	if u.Reason == "" {
		return ErrUnavailable
	}
	return apperrors.Wrap(apperrors.ErrBackendUnavailable, u.Reason, ErrUnavailable)
}

func (u Unavailable) Available(context.Context) bool { return false }

func (u Unavailable) Upload(context.Context, string) (string, error) { return "", u.err() }

func (u Unavailable) List(context.Context) ([]Record, error) { return nil, u.err() }

func (u Unavailable) Delete(context.Context, string) error { return u.err() }

func (u Unavailable) Download(context.Context, string, string) error { return u.err() }

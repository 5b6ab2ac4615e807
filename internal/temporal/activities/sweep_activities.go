package activities

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/bookwell/bookwell-api/internal/repository"
)

type Activities struct {
	InviteRepo repository.InviteRepository
	Logger     zerolog.Logger
}

// MarkExpiredInvites rewrites pending invites past their deadline to
// status=expired and returns how many rows changed. The API never depends
// on this having run; it only keeps stored statuses from drifting.
func (a *Activities) MarkExpiredInvites(ctx context.Context) (int64, error) {
	count, err := a.InviteRepo.MarkExpired(ctx, time.Now())
	if err != nil {
		return 0, errors.Wrap(err, "mark expired invites")
	}
	if count > 0 {
		a.Logger.Info().Int64("count", count).Msg("swept expired invites")
	}
	return count, nil
}

package mocknotify

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vietd88/grubberbot/model"
	"github.com/vietd88/grubberbot/notify"
)

type Notifier struct {
	mock.Mock
}

func (n *Notifier) AnnounceSubstitute(ctx context.Context, a model.SubAnnouncement) (string, error) {
	args := n.Called(ctx, a)
	return args.String(0), args.Error(1)
}

func (n *Notifier) AnnouncePairing(ctx context.Context, g model.SeasonGame) (string, error) {
	args := n.Called(ctx, g)
	return args.String(0), args.Error(1)
}

func (n *Notifier) AnnounceClaim(ctx context.Context, c notify.Claim) error {
	args := n.Called(ctx, c)
	return args.Error(0)
}

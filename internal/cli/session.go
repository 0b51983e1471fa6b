package cli

import (
	"context"

	"github.com/rxkshit04/nightpulse/internal/controller"
	"github.com/rxkshit04/nightpulse/internal/location"
	"github.com/rxkshit04/nightpulse/internal/store"
)

// startAt runs a controller whose only position is fix and waits until the
// initial alert list has been fetched. The returned func releases both.
func startAt(ctx context.Context, client store.Client, opts location.Options, fix location.Fix) (*controller.Controller, func(), error) {
	feed := location.NewFeed()
	ctrl := controller.New(client, location.NewTracker(feed, opts))
	stop := func() {
		ctrl.Close()
		feed.Close()
	}

	if err := ctrl.Start(ctx); err != nil {
		stop()
		return nil, nil, err
	}

	feed.Push(fix)
	if _, err := ctrl.Await(ctx); err != nil {
		stop()
		return nil, nil, err
	}
	return ctrl, stop, nil
}

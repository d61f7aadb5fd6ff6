package database

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Counts holds the number of rows per table.
type Counts struct {
	Users         int64
	Shortcuts     int64
	SearchEngines int64
	Settings      int64
}

// Counts returns the number of rows in every table.
func (c *Client) Counts(ctx context.Context) (*Counts, error) {
	var counts Counts
	g, ctx := errgroup.WithContext(ctx)

	count := func(model any, dst *int64) func() error {
		return func() error {
			return c.db.WithContext(ctx).Model(model).Count(dst).Error
		}
	}
	g.Go(count(&User{}, &counts.Users))
	g.Go(count(&Shortcut{}, &counts.Shortcuts))
	g.Go(count(&SearchEngine{}, &counts.SearchEngines))
	g.Go(count(&Settings{}, &counts.Settings))

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &counts, nil
}

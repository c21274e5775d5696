package service

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Refresher is any store that can re-list its entities from the
// backend and replace its snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Reconciler re-synchronizes one dashboard's stores on view
// activation. The local optimistic patches are kept for immediate
// feedback, but only a re-fetch can pick up what sibling dashboards
// wrote in the meantime.
type Reconciler struct {
	stores []Refresher
}

func NewReconciler(stores ...Refresher) *Reconciler {
	return &Reconciler{stores: stores}
}

func (r *Reconciler) Sync(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, store := range r.stores {
		store := store
		g.Go(func() error {
			return store.Refresh(ctx)
		})
	}
	return g.Wait()
}

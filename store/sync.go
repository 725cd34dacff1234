package store

import (
	"context"
	"sort"

	"basavo/apperr"

	"cloud.google.com/go/firestore"
)

// Snapshot is one complete, ordered delivery from a live subscription.
// Callers must replace their whole local view with Records on every
// delivery; a non-nil Err is terminal for the subscription.
type Snapshot[T any] struct {
	Records []T
	Err     error
}

// Subscribe attaches a listener to the query and streams full snapshots
// until the returned release func is called or a delivery fails. Each
// snapshot is re-sorted with less, which callers define to include the
// document-id tie-break so rendering order is deterministic. The channel
// is closed after release or after the terminal error.
func Subscribe[T any, PT Mutable[T]](ctx context.Context, q firestore.Query, less func(a, b T) bool) (<-chan Snapshot[T], func()) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan Snapshot[T], 1)

	go func() {
		defer close(ch)
		it := q.Snapshots(ctx)
		defer it.Stop()
		for {
			qsnap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				deliver(ctx, ch, Snapshot[T]{Err: apperr.Remote("listen", err)})
				return
			}
			docs, err := qsnap.Documents.GetAll()
			if err != nil {
				deliver(ctx, ch, Snapshot[T]{Err: apperr.Remote("listen", err)})
				return
			}
			records, err := ToRecords[T, PT](docs)
			if err != nil {
				deliver(ctx, ch, Snapshot[T]{Err: err})
				return
			}
			Reorder(records, less)
			if !deliver(ctx, ch, Snapshot[T]{Records: records}) {
				return
			}
		}
	}()

	return ch, cancel
}

func deliver[T any](ctx context.Context, ch chan Snapshot[T], s Snapshot[T]) bool {
	select {
	case ch <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

// Reorder sorts records in place with the caller's total order. Stable so
// equal elements keep the store's order if the comparator has gaps.
func Reorder[T any](records []T, less func(a, b T) bool) {
	if less == nil {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return less(records[i], records[j])
	})
}

package stats

import (
	"context"
	"log/slog"
	"time"

	"basavo/services/ledger"
	"basavo/services/member"
	"basavo/services/schedule"
)

// Track streams live dashboard figures. It consumes the snapshot streams of
// the three collections and recomputes the whole Overview on every delivery,
// so a replayed snapshot yields the same figures. The first Overview is
// emitted once all three collections have delivered. The release function
// stops the streams and closes the channel.
func Track(ctx context.Context, members member.Store, entries ledger.Store, schedules schedule.Store) (<-chan Overview, func()) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Overview)

	memberCh, releaseMembers := members.Listen(ctx)
	entryCh, releaseEntries := entries.Listen(ctx)
	eventCh, releaseEvents := schedules.Listen(ctx)

	go func() {
		defer close(out)
		defer releaseMembers()
		defer releaseEntries()
		defer releaseEvents()

		var (
			roster []member.Member
			book   []ledger.Entry
			agenda []schedule.Event

			haveRoster, haveBook, haveAgenda bool
		)

		deliver := func() bool {
			if !haveRoster || !haveBook || !haveAgenda {
				return true
			}
			today := time.Now().Format("2006-01-02")
			select {
			case out <- *compute(roster, book, agenda, today):
				return true
			case <-ctx.Done():
				return false
			}
		}

		for memberCh != nil || entryCh != nil || eventCh != nil {
			select {
			case snap, ok := <-memberCh:
				if !ok {
					memberCh = nil
					continue
				}
				if snap.Err != nil {
					slog.With("error", snap.Err.Error()).Error("members stream failed")
					continue
				}
				roster, haveRoster = snap.Records, true
			case snap, ok := <-entryCh:
				if !ok {
					entryCh = nil
					continue
				}
				if snap.Err != nil {
					slog.With("error", snap.Err.Error()).Error("ledger stream failed")
					continue
				}
				book, haveBook = snap.Records, true
			case snap, ok := <-eventCh:
				if !ok {
					eventCh = nil
					continue
				}
				if snap.Err != nil {
					slog.With("error", snap.Err.Error()).Error("schedule stream failed")
					continue
				}
				agenda, haveAgenda = snap.Records, true
			case <-ctx.Done():
				return
			}
			if !deliver() {
				return
			}
		}
	}()

	return out, cancel
}

// Package stats aggregates the club's collections into the admin dashboard
// figures.
package stats

import (
	"context"
	"time"

	"basavo/apperr"
	"basavo/authz"
	"basavo/services/ledger"
	"basavo/services/member"
	"basavo/services/schedule"
)

// Overview is one consistent set of dashboard figures.
type Overview struct {
	TotalMembers    int   `json:"totalMembers"`
	OfficialMembers int   `json:"officialMembers"`
	Balance         int64 `json:"balance"`
	UpcomingEvents  int   `json:"upcomingEvents"`
}

// MemberCount returns the roster size and how many members are official.
func MemberCount(members []member.Member) (total, official int) {
	total = len(members)
	for _, m := range members {
		if m.Status == member.StatusOfficial {
			official++
		}
	}
	return total, official
}

// LedgerBalance folds the ledger into a single rupiah balance. Inflows add,
// outflows subtract. The fold is order-independent.
func LedgerBalance(entries []ledger.Entry) int64 {
	var balance int64
	for _, e := range entries {
		switch e.Jenis {
		case ledger.KindInflow:
			balance += e.Jumlah
		case ledger.KindOutflow:
			balance -= e.Jumlah
		}
	}
	return balance
}

// UpcomingEvents counts events on or after today. Dates are the wire-format
// YYYY-MM-DD strings so lexical comparison is chronological.
func UpcomingEvents(events []schedule.Event, today string) int {
	var n int
	for _, e := range events {
		if e.Tanggal >= today {
			n++
		}
	}
	return n
}

// Service computes dashboard figures on demand.
type Service interface {
	Overview(ctx context.Context, actor authz.Actor) (*Overview, error)
}

type service struct {
	members   member.Store
	entries   ledger.Store
	schedules schedule.Store
	today     func() string
}

var _ Service = (*service)(nil)

func NewService(members member.Store, entries ledger.Store, schedules schedule.Store) Service {
	return &service{
		members:   members,
		entries:   entries,
		schedules: schedules,
		today:     func() string { return time.Now().Format("2006-01-02") },
	}
}

func (s *service) Overview(ctx context.Context, actor authz.Actor) (*Overview, error) {
	if !authz.Can(actor.Role, authz.ActionViewAdminStats) {
		return nil, apperr.Authorization(string(authz.ActionViewAdminStats))
	}

	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.schedules.List(ctx)
	if err != nil {
		return nil, err
	}

	return compute(members, entries, events, s.today()), nil
}

func compute(members []member.Member, entries []ledger.Entry, events []schedule.Event, today string) *Overview {
	total, official := MemberCount(members)
	return &Overview{
		TotalMembers:    total,
		OfficialMembers: official,
		Balance:         LedgerBalance(entries),
		UpcomingEvents:  UpcomingEvents(events, today),
	}
}

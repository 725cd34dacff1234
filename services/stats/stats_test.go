package stats

import (
	"context"
	"testing"

	"basavo/apperr"
	"basavo/authz"
	"basavo/services/ledger"
	"basavo/services/member"
	"basavo/services/schedule"
	"basavo/store"
)

type fakeMembers struct {
	members []member.Member
	ch      chan store.Snapshot[member.Member]
}

var _ member.Store = (*fakeMembers)(nil)

func (f *fakeMembers) Get(context.Context, string) (*member.Member, error) { return nil, nil }
func (f *fakeMembers) List(context.Context) ([]member.Member, error)       { return f.members, nil }
func (f *fakeMembers) Create(context.Context, *member.Member) (string, error) {
	return "", nil
}
func (f *fakeMembers) Update(context.Context, string, map[string]any) error { return nil }
func (f *fakeMembers) Delete(context.Context, string) error                 { return nil }
func (f *fakeMembers) Listen(context.Context) (<-chan store.Snapshot[member.Member], func()) {
	return f.ch, func() {}
}

type fakeLedger struct {
	entries []ledger.Entry
	ch      chan store.Snapshot[ledger.Entry]
}

var _ ledger.Store = (*fakeLedger)(nil)

func (f *fakeLedger) List(context.Context) ([]ledger.Entry, error)       { return f.entries, nil }
func (f *fakeLedger) Create(context.Context, *ledger.Entry) (string, error) { return "", nil }
func (f *fakeLedger) Delete(context.Context, string) error               { return nil }
func (f *fakeLedger) Listen(context.Context) (<-chan store.Snapshot[ledger.Entry], func()) {
	return f.ch, func() {}
}

type fakeSchedule struct {
	events []schedule.Event
	ch     chan store.Snapshot[schedule.Event]
}

var _ schedule.Store = (*fakeSchedule)(nil)

func (f *fakeSchedule) List(context.Context) ([]schedule.Event, error)       { return f.events, nil }
func (f *fakeSchedule) Create(context.Context, *schedule.Event) (string, error) { return "", nil }
func (f *fakeSchedule) Update(context.Context, string, map[string]any) error { return nil }
func (f *fakeSchedule) Delete(context.Context, string) error                 { return nil }
func (f *fakeSchedule) Listen(context.Context) (<-chan store.Snapshot[schedule.Event], func()) {
	return f.ch, func() {}
}

var roster = []member.Member{
	{ID: "m1", Name: "Budi", Status: member.StatusOfficial},
	{ID: "m2", Name: "Citra", Status: member.StatusUnofficial},
	{ID: "m3", Name: "Dewi", Status: member.StatusOfficial},
}

var book = []ledger.Entry{
	{ID: "k1", Jenis: ledger.KindInflow, Jumlah: 150000},
	{ID: "k2", Jenis: ledger.KindOutflow, Jumlah: 40000},
	{ID: "k3", Jenis: ledger.KindInflow, Jumlah: 50000},
}

func TestMemberCount(t *testing.T) {
	total, official := MemberCount(roster)
	if total != 3 || official != 2 {
		t.Fatalf("MemberCount = (%d, %d), want (3, 2)", total, official)
	}
}

func TestLedgerBalanceOrderIndependent(t *testing.T) {
	want := int64(160000)
	if got := LedgerBalance(book); got != want {
		t.Fatalf("LedgerBalance = %d, want %d", got, want)
	}

	reversed := []ledger.Entry{book[2], book[1], book[0]}
	if got := LedgerBalance(reversed); got != want {
		t.Fatalf("LedgerBalance reversed = %d, want %d", got, want)
	}
}

func TestLedgerBalanceNewInflow(t *testing.T) {
	before := LedgerBalance(book)
	after := LedgerBalance(append([]ledger.Entry{{ID: "k4", Jenis: ledger.KindInflow, Jumlah: 50000}}, book...))
	if after-before != 50000 {
		t.Fatalf("balance moved by %d, want 50000", after-before)
	}
}

func TestUpcomingEvents(t *testing.T) {
	events := []schedule.Event{
		{ID: "e1", Tanggal: "2025-02-28"},
		{ID: "e2", Tanggal: "2025-03-01"},
		{ID: "e3", Tanggal: "2025-03-05"},
	}
	if got := UpcomingEvents(events, "2025-03-01"); got != 2 {
		t.Fatalf("UpcomingEvents = %d, want 2", got)
	}
}

func TestOverview(t *testing.T) {
	s := NewService(
		&fakeMembers{members: roster},
		&fakeLedger{entries: book},
		&fakeSchedule{events: []schedule.Event{{ID: "e1", Tanggal: "2999-01-01"}}},
	)

	admin := authz.Actor{UID: "admin-1", Role: authz.RoleAdmin}
	got, err := s.Overview(context.Background(), admin)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	want := Overview{TotalMembers: 3, OfficialMembers: 2, Balance: 160000, UpcomingEvents: 1}
	if *got != want {
		t.Fatalf("Overview = %+v, want %+v", *got, want)
	}

	regular := authz.Actor{UID: "user-1", Role: authz.RoleMahasiswa}
	if _, err := s.Overview(context.Background(), regular); !apperr.IsAuthorization(err) {
		t.Fatalf("err = %v, want AuthorizationError", err)
	}
}

func TestTrack(t *testing.T) {
	members := &fakeMembers{ch: make(chan store.Snapshot[member.Member], 4)}
	entries := &fakeLedger{ch: make(chan store.Snapshot[ledger.Entry], 4)}
	events := &fakeSchedule{ch: make(chan store.Snapshot[schedule.Event], 4)}

	out, release := Track(context.Background(), members, entries, events)
	defer release()

	members.ch <- store.Snapshot[member.Member]{Records: roster}
	entries.ch <- store.Snapshot[ledger.Entry]{Records: book}

	select {
	case v := <-out:
		t.Fatalf("got %+v before all collections delivered", v)
	default:
	}

	events.ch <- store.Snapshot[schedule.Event]{}

	first := <-out
	if first.TotalMembers != 3 || first.Balance != 160000 {
		t.Fatalf("first = %+v", first)
	}

	// Replaying the same ledger snapshot must not change the figures.
	entries.ch <- store.Snapshot[ledger.Entry]{Records: book}
	if again := <-out; again != first {
		t.Fatalf("redelivery changed figures: %+v vs %+v", again, first)
	}

	// A new inflow moves the balance by its amount.
	entries.ch <- store.Snapshot[ledger.Entry]{Records: append([]ledger.Entry{{ID: "k4", Jenis: ledger.KindInflow, Jumlah: 50000}}, book...)}
	if next := <-out; next.Balance != first.Balance+50000 {
		t.Fatalf("balance = %d, want %d", next.Balance, first.Balance+50000)
	}
}

func TestTrackReleaseClosesStream(t *testing.T) {
	members := &fakeMembers{ch: make(chan store.Snapshot[member.Member], 1)}
	entries := &fakeLedger{ch: make(chan store.Snapshot[ledger.Entry], 1)}
	events := &fakeSchedule{ch: make(chan store.Snapshot[schedule.Event], 1)}

	out, release := Track(context.Background(), members, entries, events)
	release()

	for range out {
	}
}

package ledger

import (
	"context"
	"testing"

	"basavo/apperr"
	"basavo/authz"
	"basavo/store"
)

type fakeStore struct {
	entries map[string]Entry
	nextID  int

	creates int
	deletes int
}

func newFakeStore(entries ...Entry) *fakeStore {
	f := &fakeStore{entries: make(map[string]Entry)}
	for _, e := range entries {
		f.entries[e.ID] = e
	}
	return f
}

func (f *fakeStore) List(_ context.Context) ([]Entry, error) {
	out := make([]Entry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	store.Reorder(out, Less)
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, e *Entry) (string, error) {
	f.creates++
	f.nextID++
	e.ID = string(rune('a' + f.nextID))
	f.entries[e.ID] = *e
	return e.ID, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.deletes++
	delete(f.entries, id)
	return nil
}

func (f *fakeStore) Listen(ctx context.Context) (<-chan store.Snapshot[Entry], func()) {
	ch := make(chan store.Snapshot[Entry])
	close(ch)
	return ch, func() {}
}

func (f *fakeStore) writes() int {
	return f.creates + f.deletes
}

type nopNotifier struct{}

func (nopNotifier) Success(context.Context, string)        {}
func (nopNotifier) Failure(context.Context, string, error) {}

var (
	admin   = authz.Actor{UID: "admin-1", Email: "bendahara@ukm.ac.id", Role: authz.RoleAdmin}
	regular = authz.Actor{UID: "user-1", Email: "mhs@ukm.ac.id", Role: authz.RoleUser}
)

func TestCreate(t *testing.T) {
	t.Run("admin adds inflow", func(t *testing.T) {
		fs := newFakeStore()
		s := NewService(fs, nopNotifier{})

		entry, err := s.Create(context.Background(), admin, NewEntry{
			Jenis:      KindInflow,
			Keterangan: "Iuran bulanan",
			Jumlah:     "50000",
			Tanggal:    "2025-01-10",
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if entry.Jumlah != 50000 {
			t.Fatalf("jumlah = %d, want 50000", entry.Jumlah)
		}
		if entry.DibuatOleh != admin.Email {
			t.Fatalf("dibuatOleh = %q, want session email", entry.DibuatOleh)
		}
		if entry.DibuatPada.IsZero() {
			t.Fatal("dibuatPada not stamped")
		}
	})

	t.Run("non-admin denied with zero writes", func(t *testing.T) {
		fs := newFakeStore()
		s := NewService(fs, nopNotifier{})

		_, err := s.Create(context.Background(), regular, NewEntry{
			Jenis:      KindInflow,
			Keterangan: "Iuran bulanan",
			Jumlah:     "50000",
			Tanggal:    "2025-01-10",
		})
		if !apperr.IsAuthorization(err) {
			t.Fatalf("err = %v, want AuthorizationError", err)
		}
		if fs.writes() != 0 {
			t.Fatalf("store saw %d writes, want 0", fs.writes())
		}
	})

	t.Run("validation failures before any store call", func(t *testing.T) {
		cases := []struct {
			name  string
			input NewEntry
		}{
			{"bad jenis", NewEntry{Jenis: "hutang", Keterangan: "x", Jumlah: "1", Tanggal: "2025-01-10"}},
			{"empty keterangan", NewEntry{Jenis: KindInflow, Keterangan: " ", Jumlah: "1", Tanggal: "2025-01-10"}},
			{"empty tanggal", NewEntry{Jenis: KindInflow, Keterangan: "x", Jumlah: "1", Tanggal: ""}},
			{"non-numeric jumlah", NewEntry{Jenis: KindInflow, Keterangan: "x", Jumlah: "lima ribu", Tanggal: "2025-01-10"}},
			{"negative jumlah", NewEntry{Jenis: KindInflow, Keterangan: "x", Jumlah: "-5", Tanggal: "2025-01-10"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				fs := newFakeStore()
				s := NewService(fs, nopNotifier{})
				_, err := s.Create(context.Background(), admin, tc.input)
				if !apperr.IsValidation(err) {
					t.Fatalf("err = %v, want ValidationError", err)
				}
				if fs.writes() != 0 {
					t.Fatalf("store saw %d writes, want 0", fs.writes())
				}
			})
		}
	})
}

func TestDelete(t *testing.T) {
	t.Run("unconfirmed is a no-op", func(t *testing.T) {
		fs := newFakeStore(Entry{ID: "e1", Jenis: KindInflow, Jumlah: 100, Tanggal: "2025-01-01"})
		s := NewService(fs, nopNotifier{})

		done, err := s.Delete(context.Background(), admin, "e1", false)
		if err != nil || done {
			t.Fatalf("Delete unconfirmed = (%v, %v), want (false, nil)", done, err)
		}
		if fs.writes() != 0 {
			t.Fatalf("store saw %d writes, want 0", fs.writes())
		}
	})

	t.Run("confirmed deletes", func(t *testing.T) {
		fs := newFakeStore(Entry{ID: "e1", Jenis: KindInflow, Jumlah: 100, Tanggal: "2025-01-01"})
		s := NewService(fs, nopNotifier{})

		done, err := s.Delete(context.Background(), admin, "e1", true)
		if err != nil || !done {
			t.Fatalf("Delete = (%v, %v)", done, err)
		}
	})
}

func TestGetAllOrderedNewestFirst(t *testing.T) {
	fs := newFakeStore(
		Entry{ID: "a", Jenis: KindInflow, Jumlah: 1, Tanggal: "2025-01-01"},
		Entry{ID: "b", Jenis: KindOutflow, Jumlah: 2, Tanggal: "2025-02-01"},
		Entry{ID: "c", Jenis: KindInflow, Jumlah: 3, Tanggal: "2025-02-01"},
	)
	s := NewService(fs, nopNotifier{})

	entries, err := s.GetAll(context.Background(), admin)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	got := []string{entries[0].ID, entries[1].ID, entries[2].ID}
	want := []string{"b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	if _, err := s.GetAll(context.Background(), regular); !apperr.IsAuthorization(err) {
		t.Fatalf("non-admin GetAll err = %v, want AuthorizationError", err)
	}
}

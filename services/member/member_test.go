package member

import (
	"context"
	"reflect"
	"testing"

	"basavo/apperr"
	"basavo/authz"
	"basavo/store"
)

type fakeStore struct {
	members map[string]Member
	nextID  int

	creates int
	updates int
	deletes int
}

func newFakeStore(members ...Member) *fakeStore {
	f := &fakeStore{members: make(map[string]Member)}
	for _, m := range members {
		f.members[m.ID] = m
	}
	return f
}

func (f *fakeStore) Get(_ context.Context, id string) (*Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, apperr.NotFound("members", id)
	}
	return &m, nil
}

func (f *fakeStore) List(_ context.Context) ([]Member, error) {
	out := make([]Member, 0, len(f.members))
	for _, m := range f.members {
		out = append(out, m)
	}
	store.Reorder(out, Less)
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, m *Member) (string, error) {
	f.creates++
	f.nextID++
	m.ID = string(rune('a' + f.nextID))
	f.members[m.ID] = *m
	return m.ID, nil
}

func (f *fakeStore) Update(_ context.Context, id string, fields map[string]any) error {
	f.updates++
	m, ok := f.members[id]
	if !ok {
		return apperr.NotFound("members", id)
	}
	if v, ok := fields["name"]; ok {
		m.Name = v.(string)
	}
	if v, ok := fields["email"]; ok {
		m.Email = v.(string)
	}
	if v, ok := fields["sport"]; ok {
		m.Sport = v.(string)
	}
	if v, ok := fields["jabatan"]; ok {
		m.Jabatan = v.(string)
	}
	if v, ok := fields["status"]; ok {
		m.Status = v.(string)
	}
	f.members[id] = m
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.deletes++
	delete(f.members, id)
	return nil
}

func (f *fakeStore) Listen(ctx context.Context) (<-chan store.Snapshot[Member], func()) {
	ch := make(chan store.Snapshot[Member])
	close(ch)
	return ch, func() {}
}

func (f *fakeStore) writes() int {
	return f.creates + f.updates + f.deletes
}

type nopNotifier struct{}

func (nopNotifier) Success(context.Context, string)        {}
func (nopNotifier) Failure(context.Context, string, error) {}

var (
	admin   = authz.Actor{UID: "admin-1", Role: authz.RoleAdmin}
	regular = authz.Actor{UID: "user-1", Role: authz.RoleUser}
)

var validInput = NewMember{Name: "Budi", Email: "budi@ukm.ac.id", Sport: "Futsal", Jabatan: "Anggota"}

func TestCreate(t *testing.T) {
	t.Run("admin creates unofficial member", func(t *testing.T) {
		fs := newFakeStore()
		s := NewService(fs, nopNotifier{})

		m, err := s.Create(context.Background(), admin, validInput)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if m.Status != StatusUnofficial {
			t.Fatalf("status = %q, want %q", m.Status, StatusUnofficial)
		}
		if m.ID == "" {
			t.Fatal("no id assigned")
		}
	})

	t.Run("missing field fails before any store call", func(t *testing.T) {
		fs := newFakeStore()
		s := NewService(fs, nopNotifier{})

		input := validInput
		input.Sport = "  "
		_, err := s.Create(context.Background(), admin, input)
		if !apperr.IsValidation(err) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
		if fs.writes() != 0 {
			t.Fatalf("store saw %d writes, want 0", fs.writes())
		}
	})

	t.Run("non-admin denied with zero store calls", func(t *testing.T) {
		fs := newFakeStore()
		s := NewService(fs, nopNotifier{})

		_, err := s.Create(context.Background(), regular, validInput)
		if !apperr.IsAuthorization(err) {
			t.Fatalf("err = %v, want AuthorizationError", err)
		}
		if fs.writes() != 0 {
			t.Fatalf("store saw %d writes, want 0", fs.writes())
		}
	})
}

func TestUpdate(t *testing.T) {
	fs := newFakeStore(Member{ID: "m1", Name: "Old", Email: "o@x.y", Sport: "Voli", Jabatan: "Anggota", Status: StatusUnofficial})
	s := NewService(fs, nopNotifier{})

	if err := s.Update(context.Background(), admin, "m1", validInput); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if fs.members["m1"].Name != "Budi" {
		t.Fatalf("name = %q, want Budi", fs.members["m1"].Name)
	}
	// Update never touches status.
	if fs.members["m1"].Status != StatusUnofficial {
		t.Fatal("update changed status")
	}

	if err := s.Update(context.Background(), admin, "ghost", validInput); !apperr.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestSetOfficial(t *testing.T) {
	t.Run("promotes once", func(t *testing.T) {
		fs := newFakeStore(Member{ID: "m1", Name: "Budi", Email: "b@x.y", Sport: "Futsal", Jabatan: "Anggota", Status: StatusUnofficial})
		s := NewService(fs, nopNotifier{})

		done, err := s.SetOfficial(context.Background(), admin, "m1", true)
		if err != nil || !done {
			t.Fatalf("SetOfficial = (%v, %v)", done, err)
		}
		if fs.members["m1"].Status != StatusOfficial {
			t.Fatalf("status = %q, want %q", fs.members["m1"].Status, StatusOfficial)
		}
	})

	t.Run("idempotent on already-official member", func(t *testing.T) {
		fs := newFakeStore(Member{ID: "m1", Name: "Budi", Email: "b@x.y", Sport: "Futsal", Jabatan: "Anggota", Status: StatusOfficial})
		s := NewService(fs, nopNotifier{})

		done, err := s.SetOfficial(context.Background(), admin, "m1", true)
		if err != nil || !done {
			t.Fatalf("SetOfficial on official = (%v, %v), want (true, nil)", done, err)
		}
		if fs.updates != 0 {
			t.Fatalf("store saw %d updates, want 0", fs.updates)
		}
		if fs.members["m1"].Status != StatusOfficial {
			t.Fatal("status regressed")
		}
	})

	t.Run("unconfirmed is a no-op", func(t *testing.T) {
		fs := newFakeStore(Member{ID: "m1", Name: "Budi", Email: "b@x.y", Sport: "Futsal", Jabatan: "Anggota", Status: StatusUnofficial})
		s := NewService(fs, nopNotifier{})

		done, err := s.SetOfficial(context.Background(), admin, "m1", false)
		if err != nil || done {
			t.Fatalf("SetOfficial unconfirmed = (%v, %v), want (false, nil)", done, err)
		}
		if fs.writes() != 0 {
			t.Fatalf("store saw %d writes, want 0", fs.writes())
		}
		if fs.members["m1"].Status != StatusUnofficial {
			t.Fatal("unconfirmed attempt changed status")
		}
	})

	t.Run("non-admin denied", func(t *testing.T) {
		fs := newFakeStore(Member{ID: "m1", Name: "Budi", Email: "b@x.y", Sport: "Futsal", Jabatan: "Anggota", Status: StatusUnofficial})
		s := NewService(fs, nopNotifier{})

		_, err := s.SetOfficial(context.Background(), regular, "m1", true)
		if !apperr.IsAuthorization(err) {
			t.Fatalf("err = %v, want AuthorizationError", err)
		}
		if fs.writes() != 0 {
			t.Fatalf("store saw %d writes, want 0", fs.writes())
		}
	})
}

func TestDelete(t *testing.T) {
	t.Run("cancelled confirmation leaves member in place", func(t *testing.T) {
		fs := newFakeStore(Member{ID: "m1", Name: "Budi", Email: "b@x.y", Sport: "Futsal", Jabatan: "Anggota", Status: StatusUnofficial})
		s := NewService(fs, nopNotifier{})

		done, err := s.Delete(context.Background(), admin, "m1", false)
		if err != nil || done {
			t.Fatalf("Delete unconfirmed = (%v, %v), want (false, nil)", done, err)
		}
		if fs.writes() != 0 {
			t.Fatalf("store saw %d writes, want 0", fs.writes())
		}
		members, _ := s.GetAll(context.Background())
		if len(members) != 1 {
			t.Fatal("member vanished without confirmation")
		}
	})

	t.Run("confirmed deletes", func(t *testing.T) {
		fs := newFakeStore(Member{ID: "m1", Name: "Budi", Email: "b@x.y", Sport: "Futsal", Jabatan: "Anggota", Status: StatusUnofficial})
		s := NewService(fs, nopNotifier{})

		done, err := s.Delete(context.Background(), admin, "m1", true)
		if err != nil || !done {
			t.Fatalf("Delete = (%v, %v)", done, err)
		}
		if _, ok := fs.members["m1"]; ok {
			t.Fatal("member still present")
		}
	})
}

func TestOfficial(t *testing.T) {
	members := []Member{
		{ID: "a", Name: "A", Status: StatusOfficial},
		{ID: "b", Name: "B", Status: StatusUnofficial},
		{ID: "c", Name: "C", Status: StatusOfficial},
	}
	got := Official(members)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("Official = %v", got)
	}
}

func TestFilter(t *testing.T) {
	members := []Member{
		{ID: "a", Name: "Budi Santoso", Sport: "Futsal", Jabatan: "Ketua"},
		{ID: "b", Name: "Citra Dewi", Sport: "Basket", Jabatan: "Anggota"},
	}
	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"by name", "budi", []string{"a"}},
		{"by sport", "basket", []string{"b"}},
		{"by jabatan", "KETUA", []string{"a"}},
		{"empty returns all", "", []string{"a", "b"}},
		{"no match", "renang", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(members, tc.query)
			ids := make([]string, 0, len(got))
			for _, m := range got {
				ids = append(ids, m.ID)
			}
			if !reflect.DeepEqual(ids, tc.want) {
				t.Fatalf("Filter(%q) ids = %v, want %v", tc.query, ids, tc.want)
			}
		})
	}
}

func TestMasked(t *testing.T) {
	members := []Member{{ID: "a", Name: "Budi", Email: "abcdef@x.com"}}
	got := Masked(members)
	if got[0].Email != "ab****@x.com" {
		t.Fatalf("masked email = %q", got[0].Email)
	}
	if members[0].Email != "abcdef@x.com" {
		t.Fatal("Masked mutated its input")
	}
}

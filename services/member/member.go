package member

import (
	"context"
	"fmt"
	"strings"

	"basavo/apperr"
	"basavo/authz"
	"basavo/notify"
	"basavo/store"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service manages the club member roster.
type Service interface {
	// GetAll returns the roster ordered by name. The caller decides how
	// much of each record to show; emails must be masked for viewers
	// without the viewFullEmail grant.
	GetAll(ctx context.Context) ([]Member, error)
	Create(ctx context.Context, actor authz.Actor, input NewMember) (*Member, error)
	Update(ctx context.Context, actor authz.Actor, id string, input NewMember) error
	// SetOfficial promotes a member to official status. The transition is
	// one-directional and idempotent: promoting an already-official
	// member is a successful no-op. Unconfirmed attempts do nothing.
	SetOfficial(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error)
	Delete(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error)
}

// Store is the document-store seam for the members collection.
type Store interface {
	Get(ctx context.Context, id string) (*Member, error)
	List(ctx context.Context) ([]Member, error)
	Create(ctx context.Context, m *Member) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	// Listen streams live roster snapshots until released.
	Listen(ctx context.Context) (<-chan store.Snapshot[Member], func())
}

type service struct {
	store    Store
	notifier notify.Notifier
}

var _ Service = (*service)(nil)

func NewService(store Store, notifier notify.Notifier) Service {
	return &service{
		store:    store,
		notifier: notifier,
	}
}

func (s *service) GetAll(ctx context.Context) ([]Member, error) {
	return s.store.List(ctx)
}

func validateInput(input NewMember) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return apperr.Validation("name", "required")
	case strings.TrimSpace(input.Email) == "":
		return apperr.Validation("email", "required")
	case strings.TrimSpace(input.Sport) == "":
		return apperr.Validation("sport", "required")
	case strings.TrimSpace(input.Jabatan) == "":
		return apperr.Validation("jabatan", "required")
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input NewMember) (*Member, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !authz.Can(actor.Role, authz.ActionCreateMember) {
		return nil, apperr.Authorization(string(authz.ActionCreateMember))
	}
	m := &Member{
		Name:    input.Name,
		Email:   input.Email,
		Sport:   input.Sport,
		Jabatan: input.Jabatan,
		Status:  StatusUnofficial,
	}
	id, err := s.store.Create(ctx, m)
	if err != nil {
		s.notifier.Failure(ctx, "Tidak dapat menambahkan anggota.", err)
		return nil, err
	}
	m.ID = id
	s.notifier.Success(ctx, fmt.Sprintf("Berhasil menambahkan %s!", m.Name))
	return m, nil
}

func (s *service) Update(ctx context.Context, actor authz.Actor, id string, input NewMember) error {
	if id == "" {
		return apperr.Validation("id", "required")
	}
	if err := validateInput(input); err != nil {
		return err
	}
	if !authz.Can(actor.Role, authz.ActionEditMember) {
		return apperr.Authorization(string(authz.ActionEditMember))
	}
	err := s.store.Update(ctx, id, map[string]any{
		"name":    input.Name,
		"email":   input.Email,
		"sport":   input.Sport,
		"jabatan": input.Jabatan,
	})
	if err != nil {
		s.notifier.Failure(ctx, "Gagal memperbarui anggota.", err)
		return err
	}
	s.notifier.Success(ctx, "Data anggota berhasil diperbarui!")
	return nil
}

func (s *service) SetOfficial(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error) {
	if id == "" {
		return false, apperr.Validation("id", "required")
	}
	if !authz.Can(actor.Role, authz.ActionSetMemberOfficial) {
		return false, apperr.Authorization(string(authz.ActionSetMemberOfficial))
	}
	if !confirmed {
		return false, nil
	}
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	// Already official: successful no-op, never a regression.
	if m.Status == StatusOfficial {
		return true, nil
	}
	if err := s.store.Update(ctx, id, map[string]any{"status": StatusOfficial}); err != nil {
		s.notifier.Failure(ctx, "Terjadi kesalahan saat memperbarui status.", err)
		return false, err
	}
	s.notifier.Success(ctx, fmt.Sprintf("%s telah menjadi anggota resmi.", m.Name))
	return true, nil
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error) {
	if id == "" {
		return false, apperr.Validation("id", "required")
	}
	if !authz.Can(actor.Role, authz.ActionDeleteMember) {
		return false, apperr.Authorization(string(authz.ActionDeleteMember))
	}
	if !confirmed {
		return false, nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.notifier.Failure(ctx, "Gagal menghapus anggota.", err)
		return false, err
	}
	s.notifier.Success(ctx, "Anggota telah dihapus.")
	return true, nil
}

// Official filters a roster snapshot down to official members. Used for
// the public marketing page.
func Official(members []Member) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if m.Status == StatusOfficial {
			out = append(out, m)
		}
	}
	return out
}

// Filter narrows a roster snapshot to members whose name, sport or jabatan
// contains the query, case-insensitively. Pure; operates on the snapshot
// already held locally.
func Filter(members []Member, query string) []Member {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return members
	}
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if strings.Contains(strings.ToLower(m.Name), q) ||
			strings.Contains(strings.ToLower(m.Sport), q) ||
			strings.Contains(strings.ToLower(m.Jabatan), q) {
			out = append(out, m)
		}
	}
	return out
}

// Masked returns a copy of the roster with every email passed through the
// masking transform. Applied whenever the viewer lacks viewFullEmail.
func Masked(members []Member) []Member {
	out := make([]Member, len(members))
	for i, m := range members {
		m.Email = authz.MaskEmail(m.Email)
		out[i] = m
	}
	return out
}

const collection = "members"

// Less is the roster's total order: name ascending, ties broken by the
// store-assigned id.
func Less(a, b Member) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

type firestoreStore struct {
	db *firestore.Client
}

var _ Store = (*firestoreStore)(nil)

func NewFirestoreStore(db *firestore.Client) Store {
	return &firestoreStore{db: db}
}

func (f *firestoreStore) Get(ctx context.Context, id string) (*Member, error) {
	doc, err := f.db.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperr.NotFound(collection, id)
		}
		return nil, apperr.Remote("get member", err)
	}
	return store.Decode[Member](doc)
}

func (f *firestoreStore) List(ctx context.Context) ([]Member, error) {
	docs, err := f.db.Collection(collection).
		OrderBy("name", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, apperr.Remote("list members", err)
	}
	members, err := store.ToRecords[Member](docs)
	if err != nil {
		return nil, err
	}
	store.Reorder(members, Less)
	return members, nil
}

func (f *firestoreStore) Create(ctx context.Context, m *Member) (string, error) {
	ref := f.db.Collection(collection).NewDoc()
	m.ID = ref.ID
	if _, err := ref.Set(ctx, m); err != nil {
		return "", apperr.Remote("create member", err)
	}
	return ref.ID, nil
}

func (f *firestoreStore) Update(ctx context.Context, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := f.db.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return apperr.NotFound(collection, id)
		}
		return apperr.Remote("update member", err)
	}
	return nil
}

func (f *firestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := f.db.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return apperr.Remote("delete member", err)
	}
	return nil
}

// Listen streams live roster snapshots ordered by Less.
func (f *firestoreStore) Listen(ctx context.Context) (<-chan store.Snapshot[Member], func()) {
	q := f.db.Collection(collection).OrderBy("name", firestore.Asc)
	return store.Subscribe[Member](ctx, q, Less)
}

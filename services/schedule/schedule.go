package schedule

import (
	"context"
	"strings"
	"time"

	"basavo/apperr"
	"basavo/authz"
	"basavo/notify"
	"basavo/store"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service manages the training schedule. Reads are public: the schedule
// shows on the marketing page without authentication.
type Service interface {
	GetAll(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, actor authz.Actor, input NewEvent) (*Event, error)
	Update(ctx context.Context, actor authz.Actor, id string, input NewEvent) error
	Delete(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error)
}

// Store is the document-store seam for the jadwal collection.
type Store interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, e *Event) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	Listen(ctx context.Context) (<-chan store.Snapshot[Event], func())
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

func (s *service) GetAll(ctx context.Context) ([]Event, error) {
	return s.store.List(ctx)
}

func validateInput(input NewEvent) error {
	switch {
	case strings.TrimSpace(input.Kegiatan) == "":
		return apperr.Validation("kegiatan", "required")
	case strings.TrimSpace(input.Tanggal) == "":
		return apperr.Validation("tanggal", "required")
	case strings.TrimSpace(input.Waktu) == "":
		return apperr.Validation("waktu", "required")
	case strings.TrimSpace(input.Lokasi) == "":
		return apperr.Validation("lokasi", "required")
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input NewEvent) (*Event, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !authz.Can(actor.Role, authz.ActionManageSchedule) {
		return nil, apperr.Authorization(string(authz.ActionManageSchedule))
	}
	name := actor.Name
	if name == "" {
		name = actor.Email
	}
	e := &Event{
		Kegiatan:   input.Kegiatan,
		Tanggal:    input.Tanggal,
		Waktu:      input.Waktu,
		Lokasi:     input.Lokasi,
		Sport:      input.Sport,
		DibuatOleh: name,
		DibuatPada: time.Now(),
	}
	id, err := s.store.Create(ctx, e)
	if err != nil {
		s.notifier.Failure(ctx, "Gagal menambah jadwal, coba lagi!", err)
		return nil, err
	}
	e.ID = id
	s.notifier.Success(ctx, "Jadwal berhasil di tambahkan")
	return e, nil
}

func (s *service) Update(ctx context.Context, actor authz.Actor, id string, input NewEvent) error {
	if id == "" {
		return apperr.Validation("id", "required")
	}
	if err := validateInput(input); err != nil {
		return err
	}
	if !authz.Can(actor.Role, authz.ActionManageSchedule) {
		return apperr.Authorization(string(authz.ActionManageSchedule))
	}
	err := s.store.Update(ctx, id, map[string]any{
		"kegiatan": input.Kegiatan,
		"tanggal":  input.Tanggal,
		"waktu":    input.Waktu,
		"lokasi":   input.Lokasi,
		"sport":    input.Sport,
	})
	if err != nil {
		s.notifier.Failure(ctx, "Gagal memperbarui jadwal.", err)
		return err
	}
	s.notifier.Success(ctx, "Jadwal berhasil diperbarui!")
	return nil
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error) {
	if id == "" {
		return false, apperr.Validation("id", "required")
	}
	if !authz.Can(actor.Role, authz.ActionManageSchedule) {
		return false, apperr.Authorization(string(authz.ActionManageSchedule))
	}
	if !confirmed {
		return false, nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.notifier.Failure(ctx, "Gagal menghapus jadwal, coba lagi.", err)
		return false, err
	}
	s.notifier.Success(ctx, "Data terhapus")
	return true, nil
}

const collection = "jadwal"

// Less orders the schedule soonest-first, ties broken by id.
func Less(a, b Event) bool {
	if a.Tanggal != b.Tanggal {
		return a.Tanggal < b.Tanggal
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

func (f *firestoreStore) List(ctx context.Context) ([]Event, error) {
	docs, err := f.db.Collection(collection).
		OrderBy("tanggal", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, apperr.Remote("list jadwal", err)
	}
	events, err := store.ToRecords[Event](docs)
	if err != nil {
		return nil, err
	}
	store.Reorder(events, Less)
	return events, nil
}

func (f *firestoreStore) Create(ctx context.Context, e *Event) (string, error) {
	ref := f.db.Collection(collection).NewDoc()
	e.ID = ref.ID
	if _, err := ref.Set(ctx, e); err != nil {
		return "", apperr.Remote("create jadwal", err)
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
		return apperr.Remote("update jadwal", err)
	}
	return nil
}

func (f *firestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := f.db.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return apperr.Remote("delete jadwal", err)
	}
	return nil
}

func (f *firestoreStore) Listen(ctx context.Context) (<-chan store.Snapshot[Event], func()) {
	q := f.db.Collection(collection).OrderBy("tanggal", firestore.Asc)
	return store.Subscribe[Event](ctx, q, Less)
}

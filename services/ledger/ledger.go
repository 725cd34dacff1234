package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"basavo/apperr"
	"basavo/authz"
	"basavo/notify"
	"basavo/store"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Service manages the club cash book. Everything here is admin-only,
// including reads: the kas page is not visible to regular members.
type Service interface {
	GetAll(ctx context.Context, actor authz.Actor) ([]Entry, error)
	Create(ctx context.Context, actor authz.Actor, input NewEntry) (*Entry, error)
	Delete(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error)
}

// Store is the document-store seam for the kas collection.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	Create(ctx context.Context, e *Entry) (string, error)
	Delete(ctx context.Context, id string) error
	Listen(ctx context.Context) (<-chan store.Snapshot[Entry], func())
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

func (s *service) GetAll(ctx context.Context, actor authz.Actor) ([]Entry, error) {
	if !authz.Can(actor.Role, authz.ActionManageLedger) {
		return nil, apperr.Authorization(string(authz.ActionManageLedger))
	}
	return s.store.List(ctx)
}

func parseInput(input NewEntry) (*Entry, error) {
	if input.Jenis != KindInflow && input.Jenis != KindOutflow {
		return nil, apperr.Validation("jenis", "must be pemasukan or pengeluaran")
	}
	if strings.TrimSpace(input.Keterangan) == "" {
		return nil, apperr.Validation("keterangan", "required")
	}
	if strings.TrimSpace(input.Tanggal) == "" {
		return nil, apperr.Validation("tanggal", "required")
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(input.Jumlah), 10, 64)
	if err != nil {
		return nil, apperr.Validation("jumlah", "must be a number")
	}
	if amount < 0 {
		return nil, apperr.Validation("jumlah", "must not be negative")
	}
	return &Entry{
		Jenis:      input.Jenis,
		Keterangan: input.Keterangan,
		Jumlah:     amount,
		Tanggal:    input.Tanggal,
	}, nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input NewEntry) (*Entry, error) {
	entry, err := parseInput(input)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor.Role, authz.ActionManageLedger) {
		return nil, apperr.Authorization(string(authz.ActionManageLedger))
	}
	// Audit fields come from the resolved session, never from the form.
	entry.DibuatOleh = actor.Email
	entry.DibuatPada = time.Now()

	id, err := s.store.Create(ctx, entry)
	if err != nil {
		s.notifier.Failure(ctx, "Gagal menambah data kas.", err)
		return nil, err
	}
	entry.ID = id
	s.notifier.Success(ctx, "Kas berhasil di tambahkan")
	return entry, nil
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error) {
	if id == "" {
		return false, apperr.Validation("id", "required")
	}
	if !authz.Can(actor.Role, authz.ActionManageLedger) {
		return false, apperr.Authorization(string(authz.ActionManageLedger))
	}
	if !confirmed {
		return false, nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.notifier.Failure(ctx, "Gagal menghapus data kas.", err)
		return false, err
	}
	s.notifier.Success(ctx, "Data kas terhapus")
	return true, nil
}

const collection = "kas"

// Less orders the cash book newest-first, ties broken by id.
func Less(a, b Entry) bool {
	if a.Tanggal != b.Tanggal {
		return a.Tanggal > b.Tanggal
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

func (f *firestoreStore) List(ctx context.Context) ([]Entry, error) {
	iter := f.db.Collection(collection).
		OrderBy("tanggal", firestore.Desc).
		Documents(ctx)

	var entries []Entry
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, apperr.Remote("list kas", err)
		}
		entry, err := store.Decode[Entry](doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	store.Reorder(entries, Less)
	return entries, nil
}

func (f *firestoreStore) Create(ctx context.Context, e *Entry) (string, error) {
	ref := f.db.Collection(collection).NewDoc()
	e.ID = ref.ID
	if _, err := ref.Set(ctx, e); err != nil {
		return "", apperr.Remote("create kas entry", err)
	}
	return ref.ID, nil
}

func (f *firestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := f.db.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return apperr.Remote("delete kas entry", err)
	}
	return nil
}

func (f *firestoreStore) Listen(ctx context.Context) (<-chan store.Snapshot[Entry], func()) {
	q := f.db.Collection(collection).OrderBy("tanggal", firestore.Desc)
	return store.Subscribe[Entry](ctx, q, Less)
}

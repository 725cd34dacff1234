// Package contact handles the public contact form and its admin inbox.
package contact

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"basavo/apperr"
	"basavo/authz"
	"basavo/notify"
	"basavo/store"

	"cloud.google.com/go/firestore"
)

// Service accepts public submissions and exposes the inbox to admins.
type Service interface {
	// Submit stores a message from the public form. No session required.
	Submit(ctx context.Context, input NewMessage) (*Message, error)
	// List returns the inbox, newest first.
	List(ctx context.Context, actor authz.Actor) ([]Message, error)
	// Delete removes a message. Unconfirmed attempts are a no-op.
	Delete(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error)
}

// Store is the document-store seam for the contact collection.
type Store interface {
	Create(ctx context.Context, m *Message) (string, error)
	List(ctx context.Context) ([]Message, error)
	Delete(ctx context.Context, id string) error
}

// Mailer forwards a stored message to the club inbox. Delivery failures
// never surface to the submitter; the record is already stored.
type Mailer interface {
	Forward(ctx context.Context, m Message) error
}

type service struct {
	store    Store
	mailer   Mailer
	notifier notify.Notifier
}

var _ Service = (*service)(nil)

func NewService(store Store, mailer Mailer, notifier notify.Notifier) Service {
	return &service{
		store:    store,
		mailer:   mailer,
		notifier: notifier,
	}
}

// The form requires every field filled before it submits; the service
// enforces the same.
func validateInput(input NewMessage) error {
	if strings.TrimSpace(input.Nama) == "" {
		return apperr.Validation("nama", "required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return apperr.Validation("email", "required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return apperr.Validation("email", "invalid address")
	}
	if strings.TrimSpace(input.NIM) == "" {
		return apperr.Validation("nim", "required")
	}
	if strings.TrimSpace(input.Prodi) == "" {
		return apperr.Validation("prodi", "required")
	}
	if strings.TrimSpace(input.Pesan) == "" {
		return apperr.Validation("pesan", "required")
	}
	return nil
}

func (s *service) Submit(ctx context.Context, input NewMessage) (*Message, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	m := &Message{
		Nama:  strings.TrimSpace(input.Nama),
		Email: strings.TrimSpace(input.Email),
		NIM:   strings.TrimSpace(input.NIM),
		Prodi: strings.TrimSpace(input.Prodi),
		Pesan: strings.TrimSpace(input.Pesan),
	}
	id, err := s.store.Create(ctx, m)
	if err != nil {
		s.notifier.Failure(ctx, "Gagal mengirim pesan, coba lagi.", err)
		return nil, err
	}
	m.ID = id

	if s.mailer != nil {
		if err := s.mailer.Forward(ctx, *m); err != nil {
			slog.With("error", err.Error()).Error("failed to forward contact message")
		}
	}

	s.notifier.Success(ctx, "Pesan terkirim!")
	return m, nil
}

func (s *service) List(ctx context.Context, actor authz.Actor) ([]Message, error) {
	if !authz.Can(actor.Role, authz.ActionManageContacts) {
		return nil, apperr.Authorization(string(authz.ActionManageContacts))
	}
	return s.store.List(ctx)
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, id string, confirmed bool) (bool, error) {
	if id == "" {
		return false, apperr.Validation("id", "required")
	}
	if !authz.Can(actor.Role, authz.ActionManageContacts) {
		return false, apperr.Authorization(string(authz.ActionManageContacts))
	}
	if !confirmed {
		return false, nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		s.notifier.Failure(ctx, "Gagal menghapus pesan, coba lagi.", err)
		return false, err
	}
	s.notifier.Success(ctx, "Data terhapus")
	return true, nil
}

// The landing page's contact form historically wrote into the faq
// collection; the stored data keeps that name.
const collection = "faq"

// Less orders the inbox newest-first, ties broken by id.
func Less(a, b Message) bool {
	if !a.Waktu.Equal(b.Waktu) {
		return a.Waktu.After(b.Waktu)
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

func (f *firestoreStore) Create(ctx context.Context, m *Message) (string, error) {
	ref := f.db.Collection(collection).NewDoc()
	m.ID = ref.ID
	if _, err := ref.Set(ctx, m); err != nil {
		return "", apperr.Remote("create contact message", err)
	}
	return ref.ID, nil
}

func (f *firestoreStore) List(ctx context.Context) ([]Message, error) {
	docs, err := f.db.Collection(collection).
		OrderBy("waktu", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, apperr.Remote("list contact messages", err)
	}
	messages, err := store.ToRecords[Message](docs)
	if err != nil {
		return nil, err
	}
	store.Reorder(messages, Less)
	return messages, nil
}

func (f *firestoreStore) Delete(ctx context.Context, id string) error {
	if _, err := f.db.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return apperr.Remote("delete contact message", err)
	}
	return nil
}

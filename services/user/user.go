package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"basavo/apperr"
	"basavo/authz"
	"basavo/notify"
	"basavo/store"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service manages the user profile records backing authentication and the
// admin panel. Profile creation is self-service at first sign-in; every
// other mutation is admin-only.
type Service interface {
	// GetByUID returns the profile stored under the given provider uid.
	GetByUID(ctx context.Context, uid string) (*User, error)
	// Create stores a new profile under its uid. First-write-wins: the
	// resolver checks existence before calling this.
	Create(ctx context.Context, u *User) error
	// GetAll returns every profile. Admin panel listing.
	GetAll(ctx context.Context, actor authz.Actor) ([]User, error)
	// UpdateRole sets a user's role to one of the closed enum values.
	UpdateRole(ctx context.Context, actor authz.Actor, uid string, role string) error
	// Delete removes a profile. Unconfirmed attempts are a no-op.
	Delete(ctx context.Context, actor authz.Actor, uid string, confirmed bool) (bool, error)
}

// Store is the document-store seam for the users collection.
type Store interface {
	Get(ctx context.Context, uid string) (*User, error)
	Create(ctx context.Context, u *User) error
	List(ctx context.Context) ([]User, error)
	UpdateRole(ctx context.Context, uid string, role string) error
	Delete(ctx context.Context, uid string) error
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

var NotFound = errors.New("user not found")

func (s *service) GetByUID(ctx context.Context, uid string) (*User, error) {
	if uid == "" {
		return nil, apperr.Validation("uid", "required")
	}
	return s.store.Get(ctx, uid)
}

func (s *service) Create(ctx context.Context, u *User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	if u.UID == "" {
		return apperr.Validation("uid", "required")
	}
	u.Role = string(authz.Normalize(u.Role))
	u.JoinAt = time.Now()
	if err := s.store.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to create user profile: %w", err)
	}
	return nil
}

func (s *service) GetAll(ctx context.Context, actor authz.Actor) ([]User, error) {
	if !authz.Can(actor.Role, authz.ActionManageUsers) {
		return nil, apperr.Authorization(string(authz.ActionManageUsers))
	}
	return s.store.List(ctx)
}

func (s *service) UpdateRole(ctx context.Context, actor authz.Actor, uid string, role string) error {
	if uid == "" {
		return apperr.Validation("uid", "required")
	}
	if string(authz.Normalize(role)) != role {
		return apperr.Validation("role", fmt.Sprintf("unknown role %q", role))
	}
	if !authz.Can(actor.Role, authz.ActionManageUsers) {
		return apperr.Authorization(string(authz.ActionManageUsers))
	}
	if err := s.store.UpdateRole(ctx, uid, role); err != nil {
		s.notifier.Failure(ctx, "Gagal mengubah role pengguna.", err)
		return err
	}
	s.notifier.Success(ctx, fmt.Sprintf("Role pengguna %s diubah menjadi %s.", uid, role))
	return nil
}

func (s *service) Delete(ctx context.Context, actor authz.Actor, uid string, confirmed bool) (bool, error) {
	if uid == "" {
		return false, apperr.Validation("uid", "required")
	}
	if !authz.Can(actor.Role, authz.ActionManageUsers) {
		return false, apperr.Authorization(string(authz.ActionManageUsers))
	}
	if !confirmed {
		return false, nil
	}
	if err := s.store.Delete(ctx, uid); err != nil {
		s.notifier.Failure(ctx, "Gagal menghapus pengguna.", err)
		return false, err
	}
	log.Warn().Str("uid", uid).Str("by", actor.UID).Msg("user profile deleted")
	s.notifier.Success(ctx, "Pengguna telah dihapus.")
	return true, nil
}

const collection = "users"

type firestoreStore struct {
	db *firestore.Client
}

var _ Store = (*firestoreStore)(nil)

func NewFirestoreStore(db *firestore.Client) Store {
	return &firestoreStore{db: db}
}

func (f *firestoreStore) Get(ctx context.Context, uid string) (*User, error) {
	doc, err := f.db.Collection(collection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperr.NotFound(collection, uid)
		}
		return nil, apperr.Remote("get user", err)
	}
	return store.Decode[User](doc)
}

func (f *firestoreStore) Create(ctx context.Context, u *User) error {
	// The uid doubles as the document key so creation is naturally
	// idempotent per account.
	_, err := f.db.Collection(collection).Doc(u.UID).Set(ctx, u)
	if err != nil {
		return apperr.Remote("create user", err)
	}
	return nil
}

func (f *firestoreStore) List(ctx context.Context) ([]User, error) {
	docs, err := f.db.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, apperr.Remote("list users", err)
	}
	users, err := store.ToRecords[User](docs)
	if err != nil {
		return nil, err
	}
	store.Reorder(users, func(a, b User) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UID < b.UID
	})
	return users, nil
}

func (f *firestoreStore) UpdateRole(ctx context.Context, uid string, role string) error {
	_, err := f.db.Collection(collection).Doc(uid).Update(ctx, []firestore.Update{
		{Path: "role", Value: role},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return apperr.NotFound(collection, uid)
		}
		return apperr.Remote("update user role", err)
	}
	return nil
}

func (f *firestoreStore) Delete(ctx context.Context, uid string) error {
	_, err := f.db.Collection(collection).Doc(uid).Delete(ctx)
	if err != nil {
		return apperr.Remote("delete user", err)
	}
	return nil
}

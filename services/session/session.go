// Package session resolves verified identities into role-bearing sessions.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"basavo/apperr"
	"basavo/authz"
	"basavo/services/user"
	"basavo/validator"
)

// ErrNoState is returned by a StateStore lookup when no record exists for
// the uid.
var ErrNoState = errors.New("no session state")

// StateStore persists sign-in state between requests.
type StateStore interface {
	Save(ctx context.Context, uid string, state State) error
	Lookup(ctx context.Context, uid string) (*State, error)
	Revoke(ctx context.Context, uid string) error
}

type Service interface {
	// Resolve turns a verified identity into a Session. First sign-in
	// provisions a profile with the least-privileged role. The role is
	// read from the profile once per sign-in lifetime and then served
	// from the session state: an admin changing a live user's role takes
	// effect at that user's next sign-in. Lookup failures degrade to a
	// least-privileged session rather than an error so a flaky backend
	// never locks anyone out of public pages.
	Resolve(ctx context.Context, identity *validator.Identity) (*Session, error)
	// SignOut discards the stored state so the next sign-in greets again
	// and re-reads the role.
	SignOut(ctx context.Context, uid string) error
}

type service struct {
	users user.Service
	state StateStore
}

var _ Service = (*service)(nil)

func NewService(users user.Service, state StateStore) Service {
	return &service{
		users: users,
		state: state,
	}
}

func (s *service) Resolve(ctx context.Context, identity *validator.Identity) (*Session, error) {
	if identity == nil || identity.UID == "" {
		return nil, apperr.Validation("identity", "required")
	}

	profile, err := s.users.GetByUID(ctx, identity.UID)
	switch {
	case apperr.IsNotFound(err):
		profile = &user.User{
			UID:      identity.UID,
			Name:     identity.DisplayName,
			Email:    identity.Email,
			PhotoURL: identity.PhotoURL,
			Role:     string(authz.RoleUser),
			JoinAt:   time.Now(),
		}
		if err := s.users.Create(ctx, profile); err != nil {
			slog.With("error", err.Error()).Error("failed to provision profile on first sign-in")
			return s.fallback(identity), nil
		}
	case err != nil:
		slog.With("error", err.Error()).Error("failed to load profile for session")
		return s.fallback(identity), nil
	}

	sess := &Session{
		Actor: authz.Actor{
			UID:   profile.UID,
			Name:  profile.Name,
			Email: profile.Email,
			Role:  authz.Normalize(profile.Role),
		},
		PhotoURL: profile.PhotoURL,
		Ready:    true,
	}
	state, err := s.state.Lookup(ctx, sess.UID)
	switch {
	case errors.Is(err, ErrNoState):
		// First resolve of this sign-in: cache the role and claim the
		// greeting.
		sess.Welcome = true
		s.saveState(ctx, State{
			UID:          sess.UID,
			Role:         string(sess.Role),
			WelcomeShown: true,
			CreatedAt:    time.Now(),
		})
	case err != nil:
		// Unreadable state: keep the freshly-read role and skip the
		// greeting rather than risk replaying it.
		slog.With("error", err.Error()).Warn("failed to read session state")
	default:
		// Role changes mid-session wait for the next sign-in.
		sess.Role = authz.Normalize(state.Role)
		if !state.WelcomeShown {
			sess.Welcome = true
			state.WelcomeShown = true
			s.saveState(ctx, *state)
		}
	}
	return sess, nil
}

func (s *service) saveState(ctx context.Context, state State) {
	if err := s.state.Save(ctx, state.UID, state); err != nil {
		slog.With("error", err.Error()).Warn("failed to save session state")
	}
}

// fallback is the least-privileged session used when the profile cannot be
// read. Ready stays true so pages render instead of spinning.
func (s *service) fallback(identity *validator.Identity) *Session {
	return &Session{
		Actor: authz.Actor{
			UID:   identity.UID,
			Name:  identity.DisplayName,
			Email: identity.Email,
			Role:  authz.RoleUser,
		},
		PhotoURL: identity.PhotoURL,
		Ready:    true,
	}
}

func (s *service) SignOut(ctx context.Context, uid string) error {
	if uid == "" {
		return apperr.Validation("uid", "required")
	}
	if err := s.state.Revoke(ctx, uid); err != nil {
		return err
	}
	return nil
}

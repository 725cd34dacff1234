package member

import "errors"

const (
	StatusUnofficial = "belum resmi"
	StatusOfficial   = "resmi"
)

type Member struct {
	ID      string `json:"id" firestore:"id"`
	Name    string `json:"name" firestore:"name"`
	Email   string `json:"email" firestore:"email"`
	Sport   string `json:"sport" firestore:"sport"`
	Jabatan string `json:"jabatan" firestore:"jabatan"`
	Status  string `json:"status" firestore:"status"`
}

func (m *Member) SetID(id string) {
	m.ID = id
}

func (m Member) Validate() error {
	if m.Name == "" {
		return errors.New("member missing name")
	}
	if m.Status != StatusUnofficial && m.Status != StatusOfficial {
		return errors.New("member has unknown status")
	}
	return nil
}

// NewMember is the staging input for creating or editing a member. Status
// is never client-supplied; creation always starts unofficial.
type NewMember struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Sport   string `json:"sport"`
	Jabatan string `json:"jabatan"`
}

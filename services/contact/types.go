package contact

import (
	"errors"
	"time"
)

// Message is one submission from the public contact form.
type Message struct {
	ID    string    `json:"id" firestore:"-"`
	Nama  string    `json:"nama" firestore:"nama"`
	Email string    `json:"email" firestore:"email"`
	NIM   string    `json:"nim" firestore:"nim"`
	Prodi string    `json:"prodi" firestore:"prodi"`
	Pesan string    `json:"pesan" firestore:"pesan"`
	Waktu time.Time `json:"waktu" firestore:"waktu,serverTimestamp"`
}

func (m *Message) SetID(id string) {
	m.ID = id
}

func (m Message) Validate() error {
	if m.Nama == "" || m.Pesan == "" {
		return errors.New("contact message missing nama or pesan")
	}
	return nil
}

// NewMessage carries the form fields of a submission.
type NewMessage struct {
	Nama  string `json:"nama"`
	Email string `json:"email"`
	NIM   string `json:"nim"`
	Prodi string `json:"prodi"`
	Pesan string `json:"pesan"`
}

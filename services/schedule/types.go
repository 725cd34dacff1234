package schedule

import (
	"errors"
	"time"
)

type Event struct {
	ID         string    `json:"id" firestore:"id"`
	Kegiatan   string    `json:"kegiatan" firestore:"kegiatan"`
	Tanggal    string    `json:"tanggal" firestore:"tanggal"`
	Waktu      string    `json:"waktu" firestore:"waktu"`
	Lokasi     string    `json:"lokasi" firestore:"lokasi"`
	Sport      string    `json:"sport" firestore:"sport"`
	DibuatOleh string    `json:"dibuatOleh" firestore:"dibuatOleh"`
	DibuatPada time.Time `json:"dibuatPada" firestore:"dibuatPada"`
}

func (e *Event) SetID(id string) {
	e.ID = id
}

func (e Event) Validate() error {
	if e.Kegiatan == "" {
		return errors.New("schedule event missing kegiatan")
	}
	return nil
}

// NewEvent is the staging input for creating or editing a training slot.
type NewEvent struct {
	Kegiatan string `json:"kegiatan"`
	Tanggal  string `json:"tanggal"`
	Waktu    string `json:"waktu"`
	Lokasi   string `json:"lokasi"`
	Sport    string `json:"sport"`
}

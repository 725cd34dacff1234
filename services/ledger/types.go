package ledger

import (
	"errors"
	"time"
)

const (
	KindInflow  = "pemasukan"
	KindOutflow = "pengeluaran"
)

// Entry is one immutable cash-book line. There is no edit operation:
// entries are created and, at most, deleted.
type Entry struct {
	ID         string    `json:"id" firestore:"id"`
	Jenis      string    `json:"jenis" firestore:"jenis"`
	Keterangan string    `json:"keterangan" firestore:"keterangan"`
	Jumlah     int64     `json:"jumlah" firestore:"jumlah"`
	Tanggal    string    `json:"tanggal" firestore:"tanggal"`
	DibuatOleh string    `json:"dibuatOleh" firestore:"dibuatOleh"`
	DibuatPada time.Time `json:"dibuatPada" firestore:"dibuatPada"`
}

func (e *Entry) SetID(id string) {
	e.ID = id
}

func (e Entry) Validate() error {
	if e.Jenis != KindInflow && e.Jenis != KindOutflow {
		return errors.New("ledger entry has unknown jenis")
	}
	if e.Jumlah < 0 {
		return errors.New("ledger entry has negative amount")
	}
	return nil
}

// NewEntry is the staging input for a ledger entry. Jumlah arrives as the
// raw form value and is parsed during validation.
type NewEntry struct {
	Jenis      string `json:"jenis"`
	Keterangan string `json:"keterangan"`
	Jumlah     string `json:"jumlah"`
	Tanggal    string `json:"tanggal"`
}

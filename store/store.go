// Package store holds the document-store boundary shared by every service:
// typed decoding of Firestore snapshots and the live collection listener.
package store

import (
	"fmt"

	"basavo/apperr"

	"cloud.google.com/go/firestore"
)

// Record is implemented by every collection's document type. Validate runs
// at the decode boundary so shape mismatches surface as ValidationError
// instead of propagating half-filled records.
type Record interface {
	Validate() error
}

// Mutable is the pointer side of a Record: decoding targets it and the
// store-assigned document id is written through it.
type Mutable[T any] interface {
	*T
	Record
	SetID(id string)
}

// Decode converts a single document snapshot into a validated record.
func Decode[T any, PT Mutable[T]](doc *firestore.DocumentSnapshot) (*T, error) {
	var item T
	p := PT(&item)
	if err := doc.DataTo(p); err != nil {
		return nil, apperr.Validation("", fmt.Sprintf("decode doc %s: %v", doc.Ref.ID, err))
	}
	p.SetID(doc.Ref.ID)
	if err := p.Validate(); err != nil {
		return nil, apperr.Validation("", fmt.Sprintf("doc %s: %v", doc.Ref.ID, err))
	}
	return &item, nil
}

// ToRecords converts a full query result into validated records, keeping
// the query's order.
func ToRecords[T any, PT Mutable[T]](docs []*firestore.DocumentSnapshot) ([]T, error) {
	result := make([]T, len(docs))
	for i, doc := range docs {
		item, err := Decode[T, PT](doc)
		if err != nil {
			return nil, err
		}
		result[i] = *item
	}
	return result, nil
}

package gcp

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
)

func CreateFirestore(ctx context.Context, projectID string) *firestore.Client {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		log.Fatalf("Failed to create firestore client: %v", err)
	}
	// Caller owns the client and is responsible for Close.
	return client
}

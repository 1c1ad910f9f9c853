package database

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// NewFirestoreClient builds the document store client. Credentials come from
// the ambient environment (GOOGLE_APPLICATION_CREDENTIALS or machine
// identity) unless credentialsFile points at a service-account key, and
// FIRESTORE_EMULATOR_HOST reroutes the client at an emulator, which the
// library handles on its own.
//
// Construction only fails on configuration problems. Reachability is probed
// per request so a store outage degrades requests instead of blocking boot.
func NewFirestoreClient(projectID, credentialsFile string) (*firestore.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

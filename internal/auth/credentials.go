package auth

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// datastoreScope is the OAuth scope Firestore requests are made under.
const datastoreScope = "https://www.googleapis.com/auth/datastore"

// ClientOptions returns the Google API client options shared by the Firestore
// and Cloud Storage clients. An empty credentialsFile falls back to
// Application Default Credentials, which also covers the local emulators.
func ClientOptions(ctx context.Context, credentialsFile string) ([]option.ClientOption, error) {
	if credentialsFile == "" {
		return nil, nil
	}

	// 1. Read the service account key
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	// 2. Scope it for both Firestore and Storage
	creds, err := google.CredentialsFromJSON(ctx, b, datastoreScope, storage.ScopeReadWrite)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

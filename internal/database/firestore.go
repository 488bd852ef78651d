package database

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/ezparkk/site-api/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// NewFirestoreClient connects to the project's default database. The
// FIRESTORE_EMULATOR_HOST variable is honoured by the client itself.
func NewFirestoreClient(ctx context.Context, projectID string, opts ...option.ClientOption) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return client, nil
}

type FirestoreRepository struct {
	Client *firestore.Client
}

func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{Client: client}
}

func (r *FirestoreRepository) WaitlistEmailExists(ctx context.Context, email string) (bool, error) {
	iter := r.Client.Collection(models.WaitlistCollection).
		Where("email", "==", email).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateWaitlistEntry relies on the serverTimestamp tag to stamp createdAt.
func (r *FirestoreRepository) CreateWaitlistEntry(ctx context.Context, entry *models.WaitlistEntry) (string, error) {
	ref, _, err := r.Client.Collection(models.WaitlistCollection).Add(ctx, entry)
	if err != nil {
		return "", err
	}
	entry.ID = ref.ID
	return ref.ID, nil
}

func (r *FirestoreRepository) CreateJobApplication(ctx context.Context, app *models.JobApplication) (string, error) {
	ref, _, err := r.Client.Collection(models.JobApplicationsCollection).Add(ctx, app)
	if err != nil {
		return "", err
	}
	app.ID = ref.ID
	return ref.ID, nil
}

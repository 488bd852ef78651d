package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ezparkk/site-api/internal/models"
)

type fakeRepo struct {
	mu           sync.Mutex
	waitlist     []models.WaitlistEntry
	applications []models.JobApplication

	existsErr error
	createErr error
	// block makes CreateJobApplication wait until the context is done.
	block bool
}

func (r *fakeRepo) WaitlistEmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existsErr != nil {
		return false, r.existsErr
	}
	for _, e := range r.waitlist {
		if e.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) CreateWaitlistEntry(_ context.Context, entry *models.WaitlistEntry) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	entry.ID = fmt.Sprintf("wl-%d", len(r.waitlist)+1)
	r.waitlist = append(r.waitlist, *entry)
	return entry.ID, nil
}

func (r *fakeRepo) CreateJobApplication(ctx context.Context, app *models.JobApplication) (string, error) {
	if r.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	id := fmt.Sprintf("app-%d", len(r.applications)+1)
	stored := *app
	stored.ID = id
	r.applications = append(r.applications, stored)
	return id, nil
}

func (r *fakeRepo) waitlistCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waitlist)
}

func (r *fakeRepo) applicationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applications)
}

type storedBlob struct {
	content     []byte
	contentType string
	metadata    map[string]string
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string]storedBlob
	uploads int

	uploadErr error
	urlErr    error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string]storedBlob{}}
}

func (b *fakeBlobs) Upload(_ context.Context, key string, content []byte, contentType string, metadata map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads++
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.objects[key] = storedBlob{
		content:     append([]byte(nil), content...),
		contentType: contentType,
		metadata:    metadata,
	}
	return nil
}

func (b *fakeBlobs) DownloadURL(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.urlErr != nil {
		return "", b.urlErr
	}
	if _, ok := b.objects[key]; !ok {
		return "", fmt.Errorf("object %q not found", key)
	}
	return "https://blobs.test/" + key, nil
}

// fetch resolves a URL handed out by DownloadURL back to its bytes.
func (b *fakeBlobs) fetch(url string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	const prefix = "https://blobs.test/"
	if len(url) <= len(prefix) {
		return nil, false
	}
	obj, ok := b.objects[url[len(prefix):]]
	return obj.content, ok
}

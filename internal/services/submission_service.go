package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ezparkk/site-api/internal/dtos"
	"github.com/ezparkk/site-api/internal/metrics"
	"github.com/ezparkk/site-api/internal/models"
	"go.uber.org/zap"
)

// DefaultSubmitTimeout bounds the job application insert.
const DefaultSubmitTimeout = 30 * time.Second

// isoMillis matches the millisecond ISO-8601 stamps already on stored resumes.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Repository is the document store the forms write into.
type Repository interface {
	WaitlistEmailExists(ctx context.Context, email string) (bool, error)
	CreateWaitlistEntry(ctx context.Context, entry *models.WaitlistEntry) (string, error)
	CreateJobApplication(ctx context.Context, app *models.JobApplication) (string, error)
}

// BlobStore holds uploaded resumes.
type BlobStore interface {
	Upload(ctx context.Context, key string, content []byte, contentType string, metadata map[string]string) error
	DownloadURL(ctx context.Context, key string) (string, error)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type SubmissionService struct {
	Repo    Repository
	Blobs   BlobStore
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// SubmitTimeout bounds the job application insert. Zero means DefaultSubmitTimeout.
	SubmitTimeout time.Duration

	now func() time.Time
}

// NewSubmissionService wires the service. blobs may be nil when no bucket is
// configured; resume uploads then fail with ConfigurationError.
func NewSubmissionService(repo Repository, blobs BlobStore, logger *zap.Logger, m *metrics.Metrics) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		Repo:          repo,
		Blobs:         blobs,
		Logger:        logger,
		Metrics:       m,
		SubmitTimeout: DefaultSubmitTimeout,
		now:           time.Now,
	}
}

// AddToWaitlist stores a waitlist entry unless one with the same email exists.
//
// The duplicate check and the insert are separate round-trips, so two
// concurrent submissions with the same email can both get through.
func (s *SubmissionService) AddToWaitlist(ctx context.Context, req *dtos.WaitlistRequest) (id string, err error) {
	defer s.observe("add_to_waitlist", time.Now(), &err)

	exists, err := s.Repo.WaitlistEmailExists(ctx, req.Email)
	if err != nil {
		s.Logger.Error("waitlist duplicate check failed", zap.String("email", req.Email), zap.Error(err))
		return "", mapStoreError(err, models.WaitlistCollection)
	}
	if exists {
		return "", newError(KindDuplicateEntry, msgDuplicateEntry, nil)
	}

	entry := &models.WaitlistEntry{
		Name:    req.Name,
		Email:   req.Email,
		Role:    req.Role,
		Message: req.Message,
	}
	id, err = s.Repo.CreateWaitlistEntry(ctx, entry)
	if err != nil {
		s.Logger.Error("waitlist insert failed", zap.String("email", req.Email), zap.Error(err))
		return "", mapStoreError(err, models.WaitlistCollection)
	}

	s.Logger.Info("added to waitlist", zap.String("id", id), zap.String("role", req.Role))
	return id, nil
}

// UploadResume stores the file under the resumes/ prefix and returns its
// download URL.
func (s *SubmissionService) UploadResume(ctx context.Context, file *models.ResumeFile, applicantEmail string) (url string, err error) {
	defer s.observe("upload_resume", time.Now(), &err)

	_, url, err = s.uploadResume(ctx, file, applicantEmail)
	return url, err
}

func (s *SubmissionService) uploadResume(ctx context.Context, file *models.ResumeFile, applicantEmail string) (string, string, error) {
	if err := s.checkResume(file); err != nil {
		return "", "", err
	}

	now := s.now()
	key := ResumeKey(now, applicantEmail, file.Name)
	metadata := map[string]string{
		"applicantEmail":   applicantEmail,
		"uploadedAt":       now.UTC().Format(isoMillis),
		"originalFileName": file.Name,
	}

	log := s.Logger.With(zap.String("key", key), zap.Int64("size", file.Size()), zap.String("content_type", file.ContentType))
	log.Info("uploading resume")

	if err := s.Blobs.Upload(ctx, key, file.Content, file.ContentType, metadata); err != nil {
		log.Error("resume upload failed", zap.Error(err))
		return key, "", mapStorageError(err)
	}

	url, err := s.Blobs.DownloadURL(ctx, key)
	if err != nil {
		log.Error("resume download url failed", zap.Error(err))
		return key, "", mapStorageError(err)
	}

	log.Info("resume uploaded")
	return key, url, nil
}

// checkResume runs the upload preconditions in order, before any network call.
func (s *SubmissionService) checkResume(file *models.ResumeFile) error {
	if s.Blobs == nil {
		return newError(KindConfigurationError, msgStorageNotReady, nil)
	}
	if file == nil || file.Size() == 0 {
		return newError(KindInvalidFile, msgInvalidFile, nil)
	}
	if file.Size() > MaxResumeSize {
		return newError(KindFileTooLarge, msgFileTooLarge, nil)
	}
	if !IsAllowedResumeType(file.ContentType) {
		return newError(KindUnsupportedFileType, msgUnsupportedFileType, nil)
	}
	return nil
}

// SubmitJobApplication validates, normalizes and stores an application.
func (s *SubmissionService) SubmitJobApplication(ctx context.Context, req *dtos.JobApplicationRequest) (id string, err error) {
	defer s.observe("submit_job_application", time.Now(), &err)

	app, err := NormalizeJobApplication(req)
	if err != nil {
		return "", err
	}
	return s.insertJobApplication(ctx, app)
}

// SubmitJobApplicationWithResume uploads the resume and then stores the
// application pointing at it. The application is validated before the upload
// so a bad form never leaves a blob behind. If the insert fails after the
// upload, the error carries the orphaned blob key.
func (s *SubmissionService) SubmitJobApplicationWithResume(ctx context.Context, req *dtos.JobApplicationRequest, file *models.ResumeFile) (id string, err error) {
	defer s.observe("submit_job_application_with_resume", time.Now(), &err)

	app, err := NormalizeJobApplication(req)
	if err != nil {
		return "", err
	}

	key, url, err := s.uploadResume(ctx, file, app.Email)
	if err != nil {
		return "", err
	}
	app.Resume = url

	id, err = s.insertJobApplication(ctx, app)
	if err != nil {
		se := *mapStoreError(err, models.JobApplicationsCollection)
		se.BlobKey = key
		s.Logger.Warn("application insert failed after resume upload", zap.String("key", key), zap.String("kind", string(se.Kind)))
		return "", &se
	}
	return id, nil
}

// NormalizeJobApplication checks required fields and email shape, then trims
// every field. Required fields are checked again after trimming, since a
// whitespace-only value only becomes empty at that point.
//
// The email pattern is matched against the trimmed address, so " jane@x.com"
// is accepted and stored as "jane@x.com" rather than rejected as InvalidEmail.
func NormalizeJobApplication(req *dtos.JobApplicationRequest) (*models.JobApplication, error) {
	if req == nil || req.Name == "" || req.Email == "" || req.Role == "" || req.CoverLetter == "" {
		return nil, newError(KindMissingFields, msgMissingFields, nil)
	}
	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		return nil, newError(KindInvalidEmail, msgInvalidEmail, nil)
	}

	app := &models.JobApplication{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         strings.TrimSpace(req.Role),
		Resume:       strings.TrimSpace(req.Resume),
		CoverLetter:  strings.TrimSpace(req.CoverLetter),
		LinkedIn:     strings.TrimSpace(req.LinkedIn),
		Portfolio:    strings.TrimSpace(req.Portfolio),
		Instagram:    strings.TrimSpace(req.Instagram),
		TikTok:       strings.TrimSpace(req.TikTok),
		Location:     strings.TrimSpace(req.Location),
		Availability: strings.TrimSpace(req.Availability),
		HeardAboutUs: strings.TrimSpace(req.HeardAboutUs),
	}
	if app.Name == "" || app.Email == "" || app.Role == "" || app.CoverLetter == "" {
		return nil, newError(KindEmptyAfterNormalization, msgEmptyAfterNormalize, nil)
	}
	return app, nil
}

// insertJobApplication races the insert against SubmitTimeout. A write the
// store rejects without answering would otherwise hang the caller.
func (s *SubmissionService) insertJobApplication(ctx context.Context, app *models.JobApplication) (string, error) {
	timeout := s.SubmitTimeout
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)

	log := s.Logger.With(zap.String("email", app.Email), zap.String("role", app.Role))
	log.Info("submitting job application",
		zap.Bool("has_resume", app.Resume != ""),
		zap.Int("cover_letter_length", len(app.CoverLetter)),
	)

	go func() {
		id, err := s.Repo.CreateJobApplication(ctx, app)
		done <- result{id: id, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		if r.err != nil {
			log.Error("job application insert failed", zap.Error(r.err))
			return "", mapStoreError(r.err, models.JobApplicationsCollection)
		}
		log.Info("job application stored", zap.String("id", r.id))
		return r.id, nil
	case <-timer.C:
		log.Error("job application insert timed out", zap.Duration("timeout", timeout))
		return "", newError(KindSubmissionTimeout, msgSubmissionTimeout, context.DeadlineExceeded)
	case <-ctx.Done():
		log.Warn("job application insert abandoned", zap.Error(ctx.Err()))
		return "", newError(KindSubmissionFailed, "The request was canceled before the application was saved.", ctx.Err())
	}
}

func (s *SubmissionService) observe(operation string, started time.Time, err *error) {
	outcome := metrics.OutcomeOK
	if *err != nil {
		outcome = string(KindOf(*err))
	}
	s.Metrics.ObserveSubmission(operation, outcome, started)
}

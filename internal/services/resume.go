package services

import (
	"fmt"
	"regexp"
	"time"
)

// MaxResumeSize is the largest resume accepted, 5 MiB.
const MaxResumeSize = 5 * 1024 * 1024

const resumePrefix = "resumes/"

var allowedResumeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

var (
	unsafeEmailChars    = regexp.MustCompile(`[^a-zA-Z0-9]`)
	unsafeFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// IsAllowedResumeType reports whether contentType is PDF, DOC or DOCX.
func IsAllowedResumeType(contentType string) bool {
	return allowedResumeTypes[contentType]
}

// ResumeKey builds resumes/{millis}_{email}_{file}. Both parts are reduced to
// path-safe ASCII so a key never escapes the prefix or collides across
// applicants.
func ResumeKey(at time.Time, applicantEmail, fileName string) string {
	return fmt.Sprintf("%s%d_%s_%s",
		resumePrefix,
		at.UnixMilli(),
		sanitize(unsafeEmailChars, applicantEmail, 50),
		sanitize(unsafeFileNameChars, fileName, 100),
	)
}

func sanitize(unsafe *regexp.Regexp, s string, max int) string {
	out := unsafe.ReplaceAllString(s, "_")
	if len(out) > max {
		out = out[:max]
	}
	return out
}

package models

import (
	"time"
)

// Collection names are shared with the website's existing Firestore data.
const (
	WaitlistCollection        = "waitlist"
	JobApplicationsCollection = "jobApplications"
)

type WaitlistEntry struct {
	ID        string    `gorm:"primaryKey;type:uuid" firestore:"-" json:"id"`
	Name      string    `gorm:"not null" firestore:"name" json:"name"`
	Email     string    `gorm:"index;not null" firestore:"email" json:"email"`
	Role      string    `firestore:"role" json:"role"`
	Message   string    `gorm:"type:text" firestore:"message" json:"message"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;default:CURRENT_TIMESTAMP" firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

func (WaitlistEntry) TableName() string { return "waitlist" }

// JobApplication never carries a null field: optional values are stored as "".
type JobApplication struct {
	ID           string    `gorm:"primaryKey;type:uuid" firestore:"-" json:"id"`
	Name         string    `gorm:"not null" firestore:"name" json:"name"`
	Email        string    `gorm:"index;not null" firestore:"email" json:"email"`
	Phone        string    `gorm:"not null;default:''" firestore:"phone" json:"phone"`
	Role         string    `gorm:"index;not null" firestore:"role" json:"role"`
	Resume       string    `gorm:"not null;default:''" firestore:"resume" json:"resume"`
	CoverLetter  string    `gorm:"type:text;not null" firestore:"coverLetter" json:"coverLetter"`
	LinkedIn     string    `gorm:"column:linked_in;not null;default:''" firestore:"linkedIn" json:"linkedIn"`
	Portfolio    string    `gorm:"not null;default:''" firestore:"portfolio" json:"portfolio"`
	Instagram    string    `gorm:"not null;default:''" firestore:"instagram" json:"instagram"`
	TikTok       string    `gorm:"column:tiktok;not null;default:''" firestore:"tiktok" json:"tiktok"`
	Location     string    `gorm:"not null;default:''" firestore:"location" json:"location"`
	Availability string    `gorm:"not null;default:''" firestore:"availability" json:"availability"`
	HeardAboutUs string    `gorm:"not null;default:''" firestore:"heardAboutUs" json:"heardAboutUs"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false;default:CURRENT_TIMESTAMP" firestore:"createdAt,serverTimestamp" json:"createdAt"`
}

func (JobApplication) TableName() string { return "job_applications" }

// ResumeFile is an uploaded resume before it reaches the blob store.
type ResumeFile struct {
	Name        string
	ContentType string
	Content     []byte
}

func (f *ResumeFile) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Content))
}

type Role struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Type         string   `json:"type"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
}

package dtos

// WaitlistRequest is the contact / waitlist form. The service does not
// re-validate it, so binding rules here are the only checks it gets.
type WaitlistRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Role    string `json:"role" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// JobApplicationRequest is left unvalidated on purpose: the submission
// service owns the required-field and email checks.
type JobApplicationRequest struct {
	Name        string `json:"name" form:"name"`
	Email       string `json:"email" form:"email"`
	Phone       string `json:"phone" form:"phone"`
	Role        string `json:"role" form:"role"`
	Resume      string `json:"resume" form:"-"`
	CoverLetter string `json:"coverLetter" form:"coverLetter"`

	// Optional Fields
	LinkedIn     string `json:"linkedIn" form:"linkedIn"`
	Portfolio    string `json:"portfolio" form:"portfolio"`
	Instagram    string `json:"instagram" form:"instagram"`
	TikTok       string `json:"tiktok" form:"tiktok"`
	Location     string `json:"location" form:"location"`
	Availability string `json:"availability" form:"availability"`
	HeardAboutUs string `json:"heardAboutUs" form:"heardAboutUs"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	BlobKey string `json:"blobKey,omitempty"`
}

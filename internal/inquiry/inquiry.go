// Package inquiry relays the support, partnership and job application forms
// to the team inbox.
package inquiry

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/joinsangha/storefront/internal/mailer"
	"github.com/joinsangha/storefront/pkg/apperr"
)

var (
	ErrRequiredFields = apperr.Validation("", "Please fill out all required fields")
	ErrInvalidEmail   = apperr.Validation("email", "Invalid email format")
	ErrResumeFile     = apperr.Validation("resumeFileData", "Please upload your resume file.")
	ErrResumeLink     = apperr.Validation("resume", "Please provide your resume.")
	ErrResumeEncoding = apperr.Validation("resumeFileData", "Resume file could not be read.")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Text accepts a JSON string or number. Form widgets send numeric inputs
// either way.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

func missing(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

func checkEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	return nil
}

type SupportRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

func (r SupportRequest) Validate() error {
	if missing(r.FirstName, r.LastName, r.Email, r.Subject, r.Message) {
		return ErrRequiredFields
	}
	return checkEmail(r.Email)
}

const resumeAttached = "attach"

type ApplicationRequest struct {
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	PreferredFirstName string `json:"preferredFirstName"`
	Email              string `json:"email"`
	Phone              Text   `json:"phone"`
	Resume             string `json:"resume"`
	ResumeType         string `json:"resumeType"`
	ResumeFileName     string `json:"resumeFileName"`
	ResumeFileData     string `json:"resumeFileData"`
	School             string `json:"school"`
	Degree             string `json:"degree"`
	LinkedIn           string `json:"linkedin"`
	Portfolio          string `json:"portfolio"`
	Experience         string `json:"experience"`
	Improvement        string `json:"improvement"`
	Visa               string `json:"visa"`
}

func (r ApplicationRequest) Attached() bool {
	return r.ResumeType == resumeAttached
}

func (r ApplicationRequest) Validate() error {
	if missing(r.FirstName, r.LastName, r.Email, r.Phone.String(), r.School, r.Degree, r.Experience, r.Improvement, r.Visa) {
		return ErrRequiredFields
	}
	if r.Attached() && missing(r.ResumeFileName, r.ResumeFileData) {
		return ErrResumeFile
	}
	if !r.Attached() && missing(r.Resume) {
		return ErrResumeLink
	}
	return checkEmail(r.Email)
}

// Attachment decodes the uploaded resume. It returns nil when the resume was
// given as a link.
func (r ApplicationRequest) Attachment() (*mailer.Attachment, error) {
	if !r.Attached() {
		return nil, nil
	}

	data := r.ResumeFileData
	if i := strings.Index(data, ";base64,"); i >= 0 {
		data = data[i+len(";base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, ErrResumeEncoding
	}
	return &mailer.Attachment{Name: mailer.Sanitize(r.ResumeFileName), Data: raw}, nil
}

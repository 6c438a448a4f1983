package models

import "strings"

// Status is the outcome carried by an ExtractionResult.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailure
}

// ExtractionRequest is the payload sent to POST <base>/extract/.
type ExtractionRequest struct {
	// Email is the login used by the extraction service. Required.
	Email string `json:"email"`

	// Password is the login secret. Required. Never logged.
	Password string `json:"password"`

	// PostURL is the post whose comments are searched for emails. Required.
	PostURL string `json:"post_url"`
}

// Validate checks that every field is present.
func (r *ExtractionRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(r.Password) == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(r.PostURL) == "" {
		missing = append(missing, "post URL")
	}
	if len(missing) > 0 {
		return NewAPIError(ErrCodeInvalidInput, "missing required fields: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// ExtractionResult is the outcome of one extraction run as shown by the
// Results view. It only lives in navigation state.
type ExtractionResult struct {
	Emails  []string `json:"emails"`
	PostURL string   `json:"post_url"`
	Status  Status   `json:"status"`
}

// Count returns the number of emails found.
func (r *ExtractionResult) Count() int {
	return len(r.Emails)
}

// Contact is one record of the extraction service's "results" list.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ExtractionResponse is the JSON body returned by the extraction endpoint.
//
// Emails is the primary field. Older deployments of the service answer with
// Results instead; EmailList falls back to it when Emails is absent.
type ExtractionResponse struct {
	Emails  []string  `json:"emails"`
	Results []Contact `json:"results,omitempty"`
	Status  string    `json:"status,omitempty"`
	PostURL string    `json:"post_url,omitempty"`
}

// EmailList returns the extracted emails in the order received.
// It never returns nil.
func (r *ExtractionResponse) EmailList() []string {
	if r.Emails != nil {
		return r.Emails
	}
	emails := make([]string, 0, len(r.Results))
	for _, c := range r.Results {
		if c.Email != "" {
			emails = append(emails, c.Email)
		}
	}
	return emails
}

// ExtractForm is the state of the extraction form between renders.
type ExtractForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
	PostURL  string `form:"post_url"`
}

// CanSubmit reports whether the submit control should be enabled.
func (f ExtractForm) CanSubmit() bool {
	return f.Email != "" && f.Password != "" && f.PostURL != ""
}

// Request converts the form into the outbound request. The password is
// sent as typed.
func (f ExtractForm) Request() *ExtractionRequest {
	return &ExtractionRequest{
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		PostURL:  strings.TrimSpace(f.PostURL),
	}
}

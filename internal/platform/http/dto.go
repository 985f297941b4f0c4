package http

import (
	"errors"
	"strings"

	"github.com/truthshield/callguard/internal/domain"
)

type CreateReportRequest struct {
	PhoneNumber string `json:"phone_number"`
	Kind        string `json:"kind"`
	Label       string `json:"label"`
}

func (r *CreateReportRequest) Validate() error {
	if len(r.PhoneNumber) < 5 {
		return errors.New("phone_number is too short")
	}
	if !r.ReportKind().Valid() {
		return errors.New("kind must be one of: scam, spam, safe")
	}
	return nil
}

func (r *CreateReportRequest) ReportKind() domain.ReportKind {
	return domain.ReportKind(strings.ToLower(r.Kind))
}

type AnalyzeMessageRequest struct {
	Text string `json:"text"`
}

func (r *AnalyzeMessageRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text is required")
	}
	return nil
}

type AnalyzeCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	ContactName string `json:"contact_name"`
	Duration    int    `json:"duration"`
}

func (r *AnalyzeCallRequest) Validate() error {
	if len(r.PhoneNumber) < 5 {
		return errors.New("phone_number is too short")
	}
	if r.Duration < 0 {
		return errors.New("duration cannot be negative")
	}
	return nil
}

type AnalyzeMediaRequest struct {
	MediaType string `json:"media_type"`
	MimeType  string `json:"mime_type"`
	// Data is base64 in the JSON body.
	Data []byte `json:"data"`
}

func (r *AnalyzeMediaRequest) Validate() error {
	switch domain.MediaType(r.MediaType) {
	case domain.MediaImage, domain.MediaAudio, domain.MediaVideo:
	default:
		return errors.New("media_type must be one of: image, audio, video")
	}
	if r.MimeType == "" {
		return errors.New("mime_type is required")
	}
	if len(r.Data) == 0 {
		return errors.New("data is required")
	}
	return nil
}

// UpgradePrompt tells the client how to present the paywall when a free
// quota runs out.
type UpgradePrompt struct {
	Message string   `json:"message"`
	Plans   []string `json:"plans"`
}

type QuotaExceededResponse struct {
	Error   string        `json:"error"`
	Upgrade UpgradePrompt `json:"upgrade"`
}

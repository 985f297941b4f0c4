package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/truthshield/callguard/internal/domain"
	"github.com/truthshield/callguard/internal/service"
)

// maxMediaBody caps the analyze-media payload (base64 inflates ~33%).
const maxMediaBody = 15 << 20

// ProfileLoader resolves the caller's profile for quota accounting. A nil
// loader (or unknown ID) yields a fresh free-tier profile per request.
type ProfileLoader interface {
	Load(ctx context.Context, userID string) (*domain.User, error)
}

type Handler struct {
	service  service.Service
	profiles ProfileLoader
	logger   *zap.Logger
}

func NewHandler(s service.Service, profiles ProfileLoader, logger *zap.Logger) *Handler {
	return &Handler{
		service:  s,
		profiles: profiles,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/v1/reports", h.CreateReport)
	r.Get("/v1/phone/{number}", h.LookupPhone)
	r.Post("/v1/analyze/message", h.AnalyzeMessage)
	r.Post("/v1/analyze/call", h.AnalyzeCall)
	r.Post("/v1/analyze/media", h.AnalyzeMedia)
}

func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	reporterRaw := r.Header.Get("X-Reporter-ID")

	err := h.service.IngestReport(
		r.Context(),
		req.PhoneNumber,
		reporterRaw,
		req.ReportKind(),
		req.Label,
	)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	h.writeJSON(w, map[string]string{"status": "received"})
}

func (h *Handler) LookupPhone(w http.ResponseWriter, r *http.Request) {
	phoneNumber := chi.URLParam(r, "number")
	if len(phoneNumber) < 5 {
		http.Error(w, "Invalid phone number", http.StatusBadRequest)
		return
	}

	user, err := h.resolveUser(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	result, err := h.service.LookupNumber(r.Context(), user, phoneNumber)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if result == nil {
		http.Error(w, "Number not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, result)
}

func (h *Handler) AnalyzeMessage(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.resolveUser(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	verdict, err := h.service.AnalyzeMessage(r.Context(), user, req.Text)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, verdict)
}

func (h *Handler) AnalyzeCall(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeCallRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.resolveUser(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	analysis, err := h.service.AnalyzeCall(r.Context(), user, &domain.CallLogItem{
		PhoneNumber: req.PhoneNumber,
		ContactName: req.ContactName,
		Duration:    req.Duration,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, analysis)
}

func (h *Handler) AnalyzeMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMediaBody)

	var req AnalyzeMediaRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.resolveUser(r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	result, err := h.service.AnalyzeMedia(r.Context(), user, req.Data, req.MimeType, domain.MediaType(req.MediaType))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, result)
}

// resolveUser loads the caller's quota profile from X-User-ID. Requests
// without an ID, or IDs the store has never seen, get a fresh free-tier
// profile so the daily limits still apply within the request.
func (h *Handler) resolveUser(r *http.Request) (*domain.User, error) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = "anonymous"
	}

	if h.profiles != nil {
		user, err := h.profiles.Load(r.Context(), userID)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	return &domain.User{
		ID:   userID,
		Plan: domain.PlanFree,
		Usage: domain.UsageStats{
			LastResetDate: time.Now().Format("2006-01-02"),
		},
	}, nil
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return false
	}
	if err := sonic.Unmarshal(body, dst); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload any) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		h.logger.Error("response encoding failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(raw)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		h.writeJSON(w, QuotaExceededResponse{
			Error: "daily free limit reached",
			Upgrade: UpgradePrompt{
				Message: "Bạn đã dùng hết lượt miễn phí hôm nay. Nâng cấp để dùng không giới hạn.",
				Plans:   []string{string(domain.PlanMonthly), string(domain.PlanYearly)},
			},
		})
	case errors.Is(err, service.ErrInvalidPhoneFormat),
		errors.Is(err, service.ErrInvalidPhoneNumber),
		errors.Is(err, service.ErrUnknownCountry),
		errors.Is(err, service.ErrInvalidReportKind):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("request failed", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

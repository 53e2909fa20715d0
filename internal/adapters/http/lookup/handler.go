package lookup

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	applookup "3tcapital/phonecheck/internal/application/lookup"
	"3tcapital/phonecheck/internal/core/phone"
	ctxutil "3tcapital/phonecheck/internal/infrastructure/context"
	httperrors "3tcapital/phonecheck/internal/infrastructure/http"
)

// maxBodySize bounds the check request body.
const maxBodySize = 4 << 10

// Handler bridges HTTP traffic with the lookup application service.
type Handler struct {
	service  *applookup.Service
	loginURL string
	log      *slog.Logger
}

// NewHandler creates a lookup handler. Unauthenticated history requests are
// redirected to loginURL, or answered with 401 when loginURL is empty.
func NewHandler(service *applookup.Service, loginURL string, log *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		loginURL: loginURL,
		log:      log,
	}
}

// Check handles POST /api/v1/phones/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckRequest(w, r)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{"request body is not valid"}, h.log)
		return
	}

	if msgs := req.Validate(); len(msgs) > 0 {
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", msgs, h.log)
		return
	}

	ctx := r.Context()
	record, err := h.service.Resolve(ctx, req.Phone, requestContext(r))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	history, err := h.service.RecordHistory(ctx, record.ID, applookup.DefaultRecordHistoryLimit)
	if err != nil {
		// the record resolved; a failed history read only empties the list
		h.log.Warn("Failed to load record history", "error", err, "record_id", record.ID,
			"correlation_id", ctxutil.GetCorrelationID(ctx))
		history = nil
	}

	httperrors.WriteJSON(w, http.StatusOK, CheckResponse{
		Record:  *record,
		History: toHistoryEntries(history),
	}, h.log)
}

// Field handles GET /api/v1/phones/{number}/fields/{field}.
func (h *Handler) Field(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	field := chi.URLParam(r, "field")
	translit := parseBool(r.URL.Query().Get("translit"))

	value, err := h.service.Field(r.Context(), number, field, translit)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, FieldResponse{
		Number: phone.Normalize(number),
		Field:  field,
		Value:  value,
	}, h.log)
}

// History handles GET /api/v1/history for the authenticated requester.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	requester := ctxutil.GetRequester(r.Context())
	if requester == nil {
		if h.loginURL != "" {
			http.Redirect(w, r, h.loginURL, http.StatusFound)
			return
		}
		httperrors.WriteError(w, http.StatusUnauthorized, "Authentication error", []string{"login required"}, h.log)
		return
	}

	entries, err := h.service.ActorHistory(r.Context(), requester.Subject, applookup.DefaultActorHistoryLimit)
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	items := toHistoryEntries(entries)
	httperrors.WriteJSON(w, http.StatusOK, HistoryResponse{Total: len(items), Entries: items}, h.log)
}

func (h *Handler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, applookup.ErrInvalidNumber):
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{"phone must contain 10 or 11 digits"}, h.log)
	case errors.Is(err, phone.ErrInvalidArgument):
		httperrors.WriteError(w, http.StatusBadRequest, "Validation error", []string{err.Error()}, h.log)
	case errors.Is(err, applookup.ErrLookupFailed):
		httperrors.WriteError(w, http.StatusBadGateway, applookup.ErrLookupFailed.Error(), []string{}, h.log)
	default:
		h.log.Error("Lookup request failed", "error", err, "route", r.URL.Path,
			"correlation_id", ctxutil.GetCorrelationID(r.Context()))
		httperrors.WriteError(w, http.StatusInternalServerError, "Internal error", []string{"unexpected error processing the request"}, h.log)
	}
}

// decodeCheckRequest reads the phone from a JSON body or from form values.
func decodeCheckRequest(w http.ResponseWriter, r *http.Request) (CheckRequest, error) {
	var req CheckRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, err
		}
		req.Phone = strings.TrimSpace(req.Phone)
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Phone = strings.TrimSpace(r.PostFormValue("phone"))
	return req, nil
}

func requestContext(r *http.Request) applookup.RequestContext {
	meta := ctxutil.GetClientMetadata(r.Context())
	return applookup.RequestContext{
		Actor:         ctxutil.GetRequester(r.Context()),
		SourceAddress: meta.IPAddress,
		AgentString:   meta.UserAgent,
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

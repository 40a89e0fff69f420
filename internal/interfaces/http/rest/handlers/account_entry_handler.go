package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"devaccountbook-backend/internal/application/services"
	"devaccountbook-backend/internal/domain"
	"devaccountbook-backend/internal/interfaces/http/rest/middleware"
	"devaccountbook-backend/internal/repository"
	"devaccountbook-backend/pkg/errors"
	"devaccountbook-backend/pkg/utils"
)

// ServiceResolver returns the account entry service bound to the request.
type ServiceResolver func(r *http.Request) (*services.AccountEntryService, error)

// SessionResolver binds services to the graph session opened by
// middleware.GraphSession.
func SessionResolver(factory *services.Factory) ServiceResolver {
	return func(r *http.Request) (*services.AccountEntryService, error) {
		session, ok := middleware.SessionFrom(r.Context())
		if !ok {
			return nil, errors.NewInternalError("no graph session bound to request")
		}
		return factory.New(session), nil
	}
}

// AccountEntryHandler serves /v1/account-entries.
type AccountEntryHandler struct {
	resolve      ServiceResolver
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewAccountEntryHandler creates a new account entry handler
func NewAccountEntryHandler(resolve ServiceResolver, errorHandler *errors.ErrorHandler, logger *zap.Logger) *AccountEntryHandler {
	return &AccountEntryHandler{
		resolve:      resolve,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateEntryRequest is the body of POST /account-entries.
type CreateEntryRequest struct {
	Title string   `json:"title" validate:"required,min=1,max=200"`
	Desc  *string  `json:"desc"`
	Tags  []string `json:"tags" validate:"omitempty,dive,max=50"`
}

// LinkRequest is the body of POST /account-entries/{id}/relations.
type LinkRequest struct {
	ToID  string       `json:"to_id" validate:"required"`
	Kind  string       `json:"kind" validate:"required"`
	Props domain.Props `json:"props"`
}

// ListQuery holds the paging parameters of GET /account-entries.
type ListQuery struct {
	Limit  int `validate:"min=1,max=200"`
	Offset int `validate:"min=0"`
}

// CountResponse is the body of GET /account-entries/count.
type CountResponse struct {
	Total int64 `json:"total"`
}

// List handles GET /account-entries
func (h *AccountEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	entries, err := svc.List(r.Context(), query.Limit, query.Offset)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	h.respondJSON(w, http.StatusOK, entries)
}

// Count handles GET /account-entries/count
func (h *AccountEntryHandler) Count(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	total, err := svc.Count(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, CountResponse{Total: total})
}

// Create handles POST /account-entries
func (h *AccountEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if req.Tags == nil {
		req.Tags = []string{}
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	entry, err := svc.Create(r.Context(), services.CreateEntryCommand{
		Title: req.Title,
		Desc:  req.Desc,
		Tags:  req.Tags,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, entry)
}

// Get handles GET /account-entries/{entryID}
func (h *AccountEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	entry, err := svc.Get(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entry)
}

// Patch handles PATCH /account-entries/{entryID}. Only the keys present in
// the body are written; "desc": null clears the description.
func (h *AccountEntryHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch domain.Patch
	if !h.decode(w, r, &patch) {
		return
	}
	if patch == nil {
		h.errorHandler.Handle(w, r, errors.NewValidationError("request body must be a JSON object"))
		return
	}
	if err := validatePatch(patch); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	entry, err := svc.Patch(r.Context(), chi.URLParam(r, "entryID"), patch)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entry)
}

// Delete handles DELETE /account-entries/{entryID}
func (h *AccountEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.Delete(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Link handles POST /account-entries/{entryID}/relations
func (h *AccountEntryHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	rel, err := svc.Link(r.Context(), chi.URLParam(r, "entryID"), services.LinkCommand{
		ToID:  req.ToID,
		Kind:  kind,
		Props: req.Props,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, rel)
}

// ListLinks handles GET /account-entries/{entryID}/relations
func (h *AccountEntryHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	rels, err := svc.ListLinks(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if rels.Outgoing == nil {
		rels.Outgoing = []domain.Relation{}
	}
	if rels.Incoming == nil {
		rels.Incoming = []domain.Relation{}
	}
	h.respondJSON(w, http.StatusOK, rels)
}

// Unlink handles DELETE /account-entries/{entryID}/relations/{kind}/{toID}
func (h *AccountEntryHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	err = svc.Unlink(r.Context(), chi.URLParam(r, "entryID"), chi.URLParam(r, "toID"), kind)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Tree handles GET /account-entries/{entryID}/tree
func (h *AccountEntryHandler) Tree(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	node, err := svc.Tree(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, node)
}

func (h *AccountEntryHandler) service(w http.ResponseWriter, r *http.Request) (*services.AccountEntryService, bool) {
	svc, err := h.resolve(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return nil, false
	}
	return svc, true
}

func (h *AccountEntryHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "invalid request body: " + err.Error()
		if err == io.EOF {
			msg = "request body is required"
		}
		h.errorHandler.Handle(w, r, errors.NewValidationError(msg).WithCause(err))
		return false
	}
	return true
}

func (h *AccountEntryHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// validatePatch holds the present title and tags to the CreateEntryRequest
// limits. Values of the wrong type are left to domain.Patch.Sanitize.
func validatePatch(patch domain.Patch) error {
	var req CreateEntryRequest
	var fields []string

	if title, ok := patch[domain.FieldTitle].(string); ok {
		req.Title = title
		fields = append(fields, "Title")
	}
	if raw, ok := patch[domain.FieldTags].([]any); ok {
		tags := make([]string, 0, len(raw))
		for _, item := range raw {
			tag, ok := item.(string)
			if !ok {
				return utils.ValidateStructPartial(req, fields...)
			}
			tags = append(tags, tag)
		}
		req.Tags = tags
		fields = append(fields, "Tags")
	}
	return utils.ValidateStructPartial(req, fields...)
}

func parseKind(label string) (domain.Kind, error) {
	kind, ok := domain.ParseKind(label)
	if !ok {
		return 0, errors.NewInvalidEdgeTypeError(label, domain.KindLabels())
	}
	return kind, nil
}

func parseListQuery(r *http.Request) (ListQuery, error) {
	query := ListQuery{Limit: repository.DefaultPageSize}
	values := r.URL.Query()

	if raw := values.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return query, errors.NewValidationError("limit must be an integer")
		}
		query.Limit = n
	}
	if raw := values.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return query, errors.NewValidationError("offset must be an integer")
		}
		query.Offset = n
	}

	if err := utils.ValidateStruct(query); err != nil {
		return query, err
	}
	return query, nil
}

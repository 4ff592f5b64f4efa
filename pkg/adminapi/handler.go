// Package adminapi exposes the record, form, report and lookup services over
// HTTP.
package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/bitechdev/furniture-admin/pkg/common"
	"github.com/bitechdev/furniture-admin/pkg/forms"
	"github.com/bitechdev/furniture-admin/pkg/logger"
	"github.com/bitechdev/furniture-admin/pkg/records"
)

type RecordService interface {
	List(ctx context.Context, table string, params records.ListParams) (*common.ListResponse, error)
	Get(ctx context.Context, table, key string) (map[string]interface{}, error)
	Create(ctx context.Context, table string, raw map[string]interface{}) (map[string]interface{}, error)
	Update(ctx context.Context, table, key string, raw map[string]interface{}) (map[string]interface{}, error)
	Delete(ctx context.Context, table, key string) error
}

type FormService interface {
	CreateProductWithComponents(ctx context.Context, form forms.ProductForm) (*common.FormResponse, error)
}

type ReportService interface {
	Run(ctx context.Context, name string, params map[string]string) (*common.ReportResponse, error)
}

type LookupService interface {
	List(ctx context.Context, entity string) ([]map[string]interface{}, error)
}

var errInvalidBody = errors.New("request body must be a JSON object")

// Handler translates HTTP requests into service calls and service results
// and errors into JSON responses.
type Handler struct {
	records RecordService
	forms   FormService
	reports ReportService
	lookups LookupService
	now     func() time.Time
}

func NewHandler(records RecordService, forms FormService, reports ReportService, lookups LookupService) *Handler {
	return &Handler{
		records: records,
		forms:   forms,
		reports: reports,
		lookups: lookups,
		now:     time.Now,
	}
}

// handlePanic is a helper function to handle panics with stack traces
func (h *Handler) handlePanic(w http.ResponseWriter, method string, err interface{}) {
	stack := debug.Stack()
	logger.Error("Panic in %s: %v\nStack trace:\n%s", method, err, string(stack))
	h.sendError(w, fmt.Errorf("panic in %s: %v", method, err))
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.sendResponse(w, http.StatusOK, common.HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]
	query := r.URL.Query()

	params := records.ListParams{
		Page:          atoiOrZero(query.Get("page")),
		Limit:         atoiOrZero(query.Get("limit")),
		SearchField:   query.Get("searchField"),
		SearchTerm:    query.Get("searchTerm"),
		SortField:     query.Get("sortField"),
		SortDirection: query.Get("sortDirection"),
		Filters:       firstValues(query),
	}

	logger.Debug("Listing records from %s", table)
	resp, err := h.records.List(r.Context(), table, params)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, http.StatusOK, resp)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	row, err := h.records.Get(r.Context(), vars["table"], vars["key"])
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, http.StatusOK, row)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	body, err := decodeObject(r)
	if err != nil {
		logger.Error("Failed to decode request body: %v", err)
		h.sendBadRequest(w, err)
		return
	}

	row, err := h.records.Create(r.Context(), table, body)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, http.StatusCreated, row)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	body, err := decodeObject(r)
	if err != nil {
		logger.Error("Failed to decode request body: %v", err)
		h.sendBadRequest(w, err)
		return
	}

	row, err := h.records.Update(r.Context(), vars["table"], vars["key"], body)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, http.StatusOK, row)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.records.Delete(r.Context(), vars["table"], vars["key"]); err != nil {
		h.sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleProductForm(w http.ResponseWriter, r *http.Request) {
	var form forms.ProductForm
	if err := decodeJSON(r, &form); err != nil {
		logger.Error("Failed to decode product form: %v", err)
		h.sendBadRequest(w, err)
		return
	}

	resp, err := h.forms.CreateProductWithComponents(r.Context(), form)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, http.StatusCreated, resp)
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["report"]
	resp, err := h.reports.Run(r.Context(), name, firstValues(r.URL.Query()))
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, http.StatusOK, resp)
}

func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	entity := mux.Vars(r)["entity"]
	rows, err := h.lookups.List(r.Context(), entity)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendResponse(w, http.StatusOK, rows)
}

func (h *Handler) sendResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

// sendError maps err to its status. Details of unrecognized errors are
// logged and never sent to the client.
func (h *Handler) sendError(w http.ResponseWriter, err error) {
	status, code := common.StatusOf(err)

	apiErr := common.APIError{Code: code, Message: err.Error()}
	if status == http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
		apiErr.Message = "Internal server error"
	}

	var validErr *common.ValidationError
	if errors.As(err, &validErr) {
		apiErr.Fields = validErr.Fields
	}

	h.sendResponse(w, status, apiErr)
}

func (h *Handler) sendBadRequest(w http.ResponseWriter, err error) {
	h.sendResponse(w, http.StatusBadRequest, common.APIError{
		Code:    "invalid_request",
		Message: err.Error(),
	})
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errInvalidBody
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func decodeObject(r *http.Request) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errInvalidBody
	}
	return body, nil
}

func firstValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			out[key] = vals[0]
		}
	}
	return out
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

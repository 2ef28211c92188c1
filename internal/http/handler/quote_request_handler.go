package handler

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/loxconnect/connect-api/internal/repository"
	"github.com/loxconnect/connect-api/internal/service"
	"go.uber.org/zap"
)

type QuoteRequestHandler struct {
	quoteService *service.QuoteRequestService
	maxUploadMB  int64
	logger       *zap.Logger
}

func NewQuoteRequestHandler(quoteService *service.QuoteRequestService, maxUploadMB int64, logger *zap.Logger) *QuoteRequestHandler {
	return &QuoteRequestHandler{
		quoteService: quoteService,
		maxUploadMB:  maxUploadMB,
		logger:       logger,
	}
}

func parseQuoteRequestFilters(r *http.Request) (*repository.QuoteRequestFilters, error) {
	q := r.URL.Query()
	filters := &repository.QuoteRequestFilters{
		Country: q.Get("country"),
		LabelID: q.Get("labelId"),
		Search:  q.Get("search"),
	}
	if status := q.Get("status"); status != "" {
		s := domain.QuoteStatus(status)
		if !s.IsValid() {
			return nil, errors.New("invalid status")
		}
		filters.Status = &s
	}
	if customerID := q.Get("customerId"); customerID != "" {
		id, err := uuid.Parse(customerID)
		if err != nil {
			return nil, errors.New("invalid customerId")
		}
		filters.CustomerID = &id
	}
	return filters, nil
}

// List godoc
// @Summary List quote requests
// @Description Paginated list of the quote requests visible to the caller
// @Tags QuoteRequests
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param status query string false "Filter by status"
// @Param country query string false "Filter by creator or involved country"
// @Param customerId query string false "Filter by customer" format(uuid)
// @Param labelId query string false "Filter by label"
// @Param search query string false "Search title and customer name"
// @Param sortBy query string false "Sort field" Enums(updatedAt, createdAt, title, status, startDate, endDate, creatorCountry, involvedCountry)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.QuoteRequestDTO}
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests [get]
func (h *QuoteRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := parseQuoteRequestFilters(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	sort := repository.DefaultSortConfig()
	if field := r.URL.Query().Get("sortBy"); field != "" {
		sort.Field = field
	}
	if order := r.URL.Query().Get("sortOrder"); order != "" {
		sort.Order = repository.ParseSortOrder(order)
	}

	page, pageSize := pageParams(r)
	result, err := h.quoteService.List(r.Context(), page, pageSize, filters, sort)
	if err != nil {
		respondServiceError(w, h.logger, err, "list quote requests")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Export godoc
// @Summary Export quote requests
// @Description Spreadsheet of the visible quote requests with effective flags and bucket
// @Tags QuoteRequests
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Filter by status"
// @Param country query string false "Filter by creator or involved country"
// @Success 200 {file} file
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/export [get]
func (h *QuoteRequestHandler) Export(w http.ResponseWriter, r *http.Request) {
	filters, err := parseQuoteRequestFilters(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	buf, filename, err := h.quoteService.Export(r.Context(), filters)
	if err != nil {
		respondServiceError(w, h.logger, err, "export quote requests")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetByID godoc
// @Summary Get quote request
// @Description Returns a quote request. Missing special labels are healed on read.
// @Tags QuoteRequests
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Success 200 {object} domain.QuoteRequestDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id} [get]
func (h *QuoteRequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	dto, err := h.quoteService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get quote request")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// Create godoc
// @Summary Create quote request
// @Tags QuoteRequests
// @Accept json
// @Produce json
// @Param request body domain.CreateQuoteRequestRequest true "Quote request"
// @Success 201 {object} domain.QuoteRequestDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests [post]
func (h *QuoteRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuoteRequestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dto, err := h.quoteService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create quote request")
		return
	}
	w.Header().Set("Location", "/api/v1/quote-requests/"+dto.ID.String())
	respondJSON(w, http.StatusCreated, dto)
}

// Update godoc
// @Summary Update quote request
// @Description Partial update. Each changed field is recorded as a modification.
// @Tags QuoteRequests
// @Accept json
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param request body domain.UpdateQuoteRequestRequest true "Changed fields"
// @Success 200 {object} domain.QuoteRequestDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id} [put]
func (h *QuoteRequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateQuoteRequestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dto, err := h.quoteService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update quote request")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// Delete godoc
// @Summary Delete quote request
// @Tags QuoteRequests
// @Param id path string true "Quote request ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id} [delete]
func (h *QuoteRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if err := h.quoteService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete quote request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus godoc
// @Summary Change quote request status
// @Description Notifies the other country of the request
// @Tags QuoteRequests
// @Accept json
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param request body domain.UpdateStatusRequest true "New status"
// @Success 200 {object} domain.QuoteRequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/status [put]
func (h *QuoteRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dto, err := h.quoteService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err, "update status")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// UpdateFlags godoc
// @Summary Set or clear special flags
// @Description Omitted flags are left unchanged. The matching special labels follow the flags.
// @Tags QuoteRequests
// @Accept json
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param request body domain.UpdateFlagsRequest true "Flags"
// @Success 200 {object} domain.QuoteRequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/flags [put]
func (h *QuoteRequestHandler) UpdateFlags(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateFlagsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dto, err := h.quoteService.UpdateFlags(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update flags")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// AddLabel godoc
// @Summary Attach a label
// @Tags QuoteRequests
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param labelId path string true "Label ID" format(uuid)
// @Success 200 {object} domain.QuoteRequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/labels/{labelId} [post]
func (h *QuoteRequestHandler) AddLabel(w http.ResponseWriter, r *http.Request) {
	h.toggleLabel(w, r, true)
}

// RemoveLabel godoc
// @Summary Detach a label
// @Tags QuoteRequests
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param labelId path string true "Label ID" format(uuid)
// @Success 200 {object} domain.QuoteRequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/labels/{labelId} [delete]
func (h *QuoteRequestHandler) RemoveLabel(w http.ResponseWriter, r *http.Request) {
	h.toggleLabel(w, r, false)
}

func (h *QuoteRequestHandler) toggleLabel(w http.ResponseWriter, r *http.Request, add bool) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	labelID, ok := parseID(w, r, "labelId")
	if !ok {
		return
	}

	var (
		dto *domain.QuoteRequestDTO
		err error
	)
	if add {
		dto, err = h.quoteService.AddLabel(r.Context(), id, labelID)
	} else {
		dto, err = h.quoteService.RemoveLabel(r.Context(), id, labelID)
	}
	if err != nil {
		respondServiceError(w, h.logger, err, "update labels")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// AddNote godoc
// @Summary Add a note
// @Tags QuoteRequests
// @Accept json
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param request body domain.AddNoteRequest true "Note"
// @Success 200 {object} domain.QuoteRequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/notes [post]
func (h *QuoteRequestHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req domain.AddNoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	dto, err := h.quoteService.AddNote(r.Context(), id, req.Text)
	if err != nil {
		respondServiceError(w, h.logger, err, "add note")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// Reconcile godoc
// @Summary Reconcile one quote request
// @Description Heals missing special labels and flags and returns the result
// @Tags QuoteRequests
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Success 200 {object} domain.QuoteRequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/reconcile [post]
func (h *QuoteRequestHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	dto, err := h.quoteService.Reconcile(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "reconcile quote request")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// ListModifications godoc
// @Summary Change history
// @Tags QuoteRequests
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param limit query int false "Maximum entries" default(100)
// @Success 200 {array} domain.ModificationDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/modifications [get]
func (h *QuoteRequestHandler) ListModifications(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 100
	}
	mods, err := h.quoteService.ListModifications(r.Context(), id, limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "list modifications")
		return
	}
	respondJSON(w, http.StatusOK, mods)
}

func (h *QuoteRequestHandler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	limit := h.maxUploadMB << 20
	// room for form fields and multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, limit*4+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Upload too large")
			return false
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return false
	}
	return true
}

func toUpload(header *multipart.FileHeader) (service.FileUpload, io.Closer, error) {
	file, err := header.Open()
	if err != nil {
		return service.FileUpload{}, nil, err
	}
	return service.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}, file, nil
}

// UploadAttachment godoc
// @Summary Upload an attachment
// @Tags QuoteRequests
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param file formData file true "File"
// @Success 201 {object} domain.QuoteRequestDTO
// @Failure 413 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/attachments [post]
func (h *QuoteRequestHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	if !h.parseMultipart(w, r) {
		return
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing file")
		return
	}
	upload, closer, err := toUpload(header)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Unreadable file")
		return
	}
	defer closer.Close()

	dto, err := h.quoteService.UploadAttachment(r.Context(), id, upload)
	if err != nil {
		respondServiceError(w, h.logger, err, "upload attachment")
		return
	}
	respondJSON(w, http.StatusCreated, dto)
}

func parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid attachment index")
		return 0, false
	}
	return index, true
}

// DownloadAttachment godoc
// @Summary Download an attachment
// @Tags QuoteRequests
// @Produce octet-stream
// @Param id path string true "Quote request ID" format(uuid)
// @Param index path int true "Attachment index"
// @Success 200 {file} file
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/attachments/{index} [get]
func (h *QuoteRequestHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	reader, attachment, err := h.quoteService.DownloadAttachment(r.Context(), id, index)
	if err != nil {
		respondServiceError(w, h.logger, err, "download attachment")
		return
	}
	defer reader.Close()

	contentType := attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("attachment download interrupted", zap.String("quoteRequestId", id.String()), zap.Error(err))
	}
}

// DeleteAttachment godoc
// @Summary Delete an attachment
// @Tags QuoteRequests
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param index path int true "Attachment index"
// @Success 200 {object} domain.QuoteRequestDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/attachments/{index} [delete]
func (h *QuoteRequestHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	dto, err := h.quoteService.DeleteAttachment(r.Context(), id, index)
	if err != nil {
		respondServiceError(w, h.logger, err, "delete attachment")
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

// ListMessages godoc
// @Summary List messages
// @Tags Messages
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Success 200 {array} domain.MessageDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/messages [get]
func (h *QuoteRequestHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	messages, err := h.quoteService.ListMessages(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "list messages")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// PostMessage godoc
// @Summary Post a message
// @Description Accepts JSON {text} or multipart with a text field and files. The other country is notified.
// @Tags Messages
// @Accept json,mpfd
// @Produce json
// @Param id path string true "Quote request ID" format(uuid)
// @Param request body domain.CreateMessageRequest false "Message"
// @Success 201 {object} domain.MessageDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quote-requests/{id}/messages [post]
func (h *QuoteRequestHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var (
		text    string
		uploads []service.FileUpload
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if !h.parseMultipart(w, r) {
			return
		}
		text = r.FormValue("text")
		for _, header := range r.MultipartForm.File["files"] {
			upload, closer, err := toUpload(header)
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "Unreadable file")
				return
			}
			defer closer.Close()
			uploads = append(uploads, upload)
		}
	} else {
		var req domain.CreateMessageRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		text = req.Text
	}

	msg, err := h.quoteService.PostMessage(r.Context(), id, text, uploads)
	if err != nil {
		respondServiceError(w, h.logger, err, "post message")
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

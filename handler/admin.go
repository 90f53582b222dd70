package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/model"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/utils"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 10 << 20 // 10 MB

// GetAnalytics handles GET /api/admin/analytics
// @Summary Analytics summary
// @Description Returns merged remote and local view counters, unique visitors, a daily series and the top products
// @Tags Admin
// @Security AdminKey
// @Produce json
// @Success 200 {object} model.AnalyticsSummary "Analytics summary"
// @Failure 500 {object} ErrorResponse "Analytics read failed"
// @Router /api/admin/analytics [get]
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	summary, err := h.tracker.Summary(ctx)
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to read analytics")
		return
	}
	SendJSONSuccess(w, http.StatusOK, summary)
}

// ResetAnalytics handles POST /api/admin/analytics/reset
// @Summary Reset analytics
// @Description Zeroes every counter and deletes all session and event records in one batch
// @Tags Admin
// @Security AdminKey
// @Produce json
// @Success 200 {object} map[string]string "Reset complete"
// @Failure 500 {object} ErrorResponse "Reset failed"
// @Router /api/admin/analytics/reset [post]
func (h *Handler) ResetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	if err := h.tracker.Reset(ctx); err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to reset analytics")
		return
	}

	log.Info().Str("ip", r.RemoteAddr).Msg("Analytics reset by admin")
	SendJSONSuccess(w, http.StatusOK, map[string]string{"status": "reset"})
}

// CreateProduct handles POST /api/admin/products
// @Summary Create product
// @Tags Admin
// @Security AdminKey
// @Accept json
// @Produce json
// @Param request body model.Product true "Product"
// @Success 201 {object} model.Product "Created product"
// @Failure 400 {object} ErrorResponse "Invalid product"
// @Failure 500 {object} ErrorResponse "Write failed"
// @Router /api/admin/products [post]
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	created, err := h.catalog.Create(ctx, p)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case utils.ErrMissingTitle, utils.ErrMissingCategory, utils.ErrInvalidPrice:
			status = http.StatusBadRequest
		}
		SendJSONError(w, status, err, "")
		return
	}

	SendJSONSuccess(w, http.StatusCreated, created)
}

// UpdateProduct handles PUT /api/admin/products/{id}
// @Summary Update product
// @Tags Admin
// @Security AdminKey
// @Accept json
// @Produce json
// @Param id path string true "Product id"
// @Param request body model.Product true "Product fields"
// @Success 200 {object} model.Product "Updated product"
// @Failure 400 {object} ErrorResponse "Invalid product"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /api/admin/products/{id} [put]
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var p model.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	updated, err := h.catalog.Update(ctx, id, p)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case utils.ErrProductNotFound:
			status = http.StatusNotFound
		case utils.ErrMissingTitle, utils.ErrMissingCategory, utils.ErrInvalidPrice:
			status = http.StatusBadRequest
		}
		SendJSONError(w, status, err, "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, updated)
}

// DeleteProduct handles DELETE /api/admin/products/{id}
// @Summary Delete product
// @Tags Admin
// @Security AdminKey
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /api/admin/products/{id} [delete]
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()

	if err := h.catalog.Delete(ctx, id); err != nil {
		status := http.StatusInternalServerError
		if err == utils.ErrProductNotFound {
			status = http.StatusNotFound
		}
		SendJSONError(w, status, err, "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// UploadProductImage handles POST /api/admin/products/{id}/image
// @Summary Upload product image
// @Description Stores the file under products/{id}/{filename} in object storage and attaches the URL to the product
// @Tags Admin
// @Security AdminKey
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Product id"
// @Param file formData file true "Image file"
// @Success 200 {object} map[string]string "Uploaded"
// @Failure 400 {object} ErrorResponse "Invalid upload"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Failure 502 {object} ErrorResponse "Storage unavailable"
// @Router /api/admin/products/{id}/image [post]
func (h *Handler) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.catalog.Get(id); !ok {
		SendJSONError(w, http.StatusNotFound, utils.ErrProductNotFound, "")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Missing file field")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Failed to read upload")
		return
	}

	filename := filepath.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")

	url, err := h.storage.Upload(r.Context(), id, filename, content, contentType)
	if err != nil {
		SendJSONError(w, http.StatusBadGateway, err, "Failed to store image")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opTimeout())
	defer cancel()
	if _, err := h.catalog.AttachImage(ctx, id, url); err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Image stored but product update failed")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{"url": url})
}

package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/catalog"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/middleware"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/model"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/utils"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"
)

// filterSpecFromQuery maps the list endpoint's query parameters onto a
// filter spec. Absent parameters keep the defaults.
func filterSpecFromQuery(r *http.Request) model.FilterSpec {
	spec := model.DefaultFilterSpec()
	q := r.URL.Query()

	if v := q.Get("category"); v != "" {
		spec.Category = v
	}
	if v := q.Get("sortBy"); v != "" {
		spec.SortBy = v
	}
	spec.SearchQuery = q.Get("q")
	spec.PriceRange.Min = q.Get("minPrice")
	spec.PriceRange.Max = q.Get("maxPrice")
	return spec
}

// ListProducts handles GET /api/products
// @Summary List products
// @Description Returns the catalog narrowed and ordered by category, text search, price range and sort option
// @Tags Products
// @Produce json
// @Param category query string false "Category id, or 'all'"
// @Param q query string false "Search query, matched against both languages"
// @Param minPrice query string false "Minimum price"
// @Param maxPrice query string false "Maximum price"
// @Param sortBy query string false "newest | oldest | priceLow | priceHigh | rating | popular"
// @Success 200 {array} model.Product "Filtered products"
// @Router /api/products [get]
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	spec := filterSpecFromQuery(r)
	result := catalog.Apply(h.catalog.Products(), spec)

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"total":    len(result),
		"products": result,
	})
}

// GetProduct handles GET /api/products/{id}
// @Summary Get product detail
// @Description Returns one product; the view is counted asynchronously and never delays the response
// @Tags Products
// @Produce json
// @Param id path string true "Product id"
// @Success 200 {object} model.Product "Product detail"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /api/products/{id} [get]
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	product, ok := h.catalog.Get(id)
	if !ok {
		SendJSONError(w, http.StatusNotFound, utils.ErrProductNotFound, "")
		return
	}

	// Count the view off the request path; opening the page must
	// succeed even if the write fails.
	if !middleware.IsCrawler(r.Context()) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout())
			defer cancel()
			h.tracker.TrackProductView(ctx, id)
		}()
	}

	SendJSONSuccess(w, http.StatusOK, product)
}

// ProductQR handles GET /api/products/{id}/qr
// @Summary Product share QR code
// @Description Generates a QR code PNG pointing at the product page
// @Tags Products
// @Produce png
// @Param id path string true "Product id"
// @Param size query int false "Image size in pixels (128-1024, default 256)"
// @Success 200 {file} binary "QR code image"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Failure 500 {object} ErrorResponse "QR generation failed"
// @Router /api/products/{id}/qr [get]
func (h *Handler) ProductQR(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := h.catalog.Get(id); !ok {
		SendJSONError(w, http.StatusNotFound, utils.ErrProductNotFound, "")
		return
	}

	size := 256
	if v := r.URL.Query().Get("size"); v != "" {
		fmt.Sscanf(v, "%d", &size)
	}
	if size < 128 {
		size = 128
	}
	if size > 1024 {
		size = 1024
	}

	shareURL := fmt.Sprintf("%s/products/%s", h.baseURL, id)
	png, err := qrcode.Encode(shareURL, qrcode.Medium, size)
	if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

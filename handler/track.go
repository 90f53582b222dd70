package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/middleware"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/utils"

	"github.com/rs/zerolog/log"
)

// Tracking endpoints always acknowledge with 202: the write happens in
// the background and its failure is never the client's problem.

// TrackPage handles POST /api/track/page
// @Summary Track a page view
// @Description Records a page view against the global counters and the caller's session
// @Tags Tracking
// @Accept json
// @Produce json
// @Param request body object{pageId=string} true "Page view"
// @Success 202 {object} map[string]string "Accepted"
// @Failure 400 {object} ErrorResponse "Missing page id"
// @Router /api/track/page [post]
func (h *Handler) TrackPage(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PageID string `json:"pageId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.PageID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyPageID, "")
		return
	}

	h.acceptTracking(w, r, func(ctx context.Context, sessionID, visitorID string) {
		h.tracker.TrackPageView(ctx, input.PageID, sessionID, visitorID)
	})
}

// TrackProduct handles POST /api/track/product
// @Summary Track a product view
// @Description Records a product view; used when the client renders a product without fetching its detail
// @Tags Tracking
// @Accept json
// @Produce json
// @Param request body object{productId=string} true "Product view"
// @Success 202 {object} map[string]string "Accepted"
// @Failure 400 {object} ErrorResponse "Missing product id"
// @Router /api/track/product [post]
func (h *Handler) TrackProduct(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.ProductID == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyProductID, "")
		return
	}

	h.acceptTracking(w, r, func(ctx context.Context, sessionID, visitorID string) {
		h.tracker.TrackProductView(ctx, input.ProductID)
	})
}

// TrackEvent handles POST /api/track/event
// @Summary Track a custom event
// @Description Appends a named event with an arbitrary payload to the event log
// @Tags Tracking
// @Accept json
// @Produce json
// @Param request body object{name=string,payload=object} true "Event"
// @Success 202 {object} map[string]string "Accepted"
// @Failure 400 {object} ErrorResponse "Missing event name"
// @Router /api/track/event [post]
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name    string                 `json:"name"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.Name == "" {
		SendJSONError(w, http.StatusBadRequest, utils.ErrEmptyEventName, "")
		return
	}

	h.acceptTracking(w, r, func(ctx context.Context, sessionID, visitorID string) {
		h.tracker.TrackEvent(ctx, input.Name, input.Payload, sessionID, visitorID)
	})
}

// acceptTracking responds immediately and runs the write in the
// background with its own deadline. Crawler traffic is acknowledged
// but not counted.
func (h *Handler) acceptTracking(w http.ResponseWriter, r *http.Request, track func(ctx context.Context, sessionID, visitorID string)) {
	reqCtx := r.Context()
	sessionID := middleware.SessionID(reqCtx)
	visitorID := middleware.VisitorID(reqCtx)

	if middleware.IsCrawler(reqCtx) {
		log.Debug().Str("user_agent", r.UserAgent()).Msg("Skipping tracking for automated client")
	} else {
		timeout := h.opTimeout()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			track(ctx, sessionID, visitorID)
		}()
	}

	SendJSONSuccess(w, http.StatusAccepted, map[string]string{
		"status":    "accepted",
		"sessionId": sessionID,
	})
}

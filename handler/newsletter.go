package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/gateway"
	"github.com/ahmetabdullahgultekin/trader-comm-platform-sub000/utils"

	"github.com/rs/zerolog/log"
)

// SubscribeNewsletter handles POST /api/newsletter/subscribe
// @Summary Subscribe to the newsletter
// @Description Relays the address to the configured newsletter provider through the request gateway
// @Tags Marketing
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Subscriber"
// @Success 200 {object} map[string]string "Subscribed"
// @Failure 400 {object} ErrorResponse "Invalid email"
// @Failure 502 {object} ErrorResponse "Provider rejected the subscription"
// @Router /api/newsletter/subscribe [post]
func (h *Handler) SubscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	input.Email = strings.TrimSpace(input.Email)
	if err := utils.ValidateEmail(input.Email); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}

	endpoint := h.config.Newsletter.Endpoint
	if endpoint == "" {
		SendJSONError(w, http.StatusServiceUnavailable, errors.New("newsletter provider not configured"), "")
		return
	}

	body, _ := json.Marshal(map[string]string{"email": input.Email})
	outcome := h.gateway.Do(r.Context(), endpoint, gateway.Options{
		Method: http.MethodPost,
		Body:   body,
		Headers: map[string]string{
			"Authorization": "Bearer " + h.config.Newsletter.APIKey,
		},
	})

	// This is the one place a gateway failure is user-visible.
	if !outcome.Success {
		log.Warn().Str("error", outcome.Error).Msg("Newsletter subscription failed")
		SendJSONError(w, http.StatusBadGateway, errors.New(outcome.Error), "Newsletter subscription failed")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{"status": "subscribed"})
}

// ContactForm handles POST /api/contact
// @Summary Submit the contact form
// @Description Validates the submission and notifies the site owner by email
// @Tags Marketing
// @Accept json
// @Produce json
// @Param request body object{name=string,email=string,message=string} true "Submission"
// @Success 200 {object} map[string]string "Sent"
// @Failure 400 {object} ErrorResponse "Invalid submission"
// @Failure 500 {object} ErrorResponse "Delivery failed"
// @Router /api/contact [post]
func (h *Handler) ContactForm(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	if err := utils.ValidateEmail(strings.TrimSpace(input.Email)); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "")
		return
	}
	if strings.TrimSpace(input.Message) == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("message cannot be empty"), "")
		return
	}

	if err := h.email.SendContactNotification(input.Name, input.Email, input.Message); err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to deliver message")
		return
	}

	SendJSONSuccess(w, http.StatusOK, map[string]string{"status": "sent"})
}

package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"partsfinder-backend/internal/components/telemetry"

	"go.mau.fi/util/exhttp"
)

const (
	report_deletion_challenge    = "deletion.challenge"
	report_deletion_verify       = "deletion.verify"
	report_deletion_notification = "deletion.notification"

	maxBodySize = 1 << 20
)

type Config struct {
	VerificationToken string `json:"verification_token"`
	// Endpoint is the public url the webhook is registered under.
	Endpoint string `json:"endpoint"`
}

// Notification is the account deletion payload.
type Notification struct {
	Metadata struct {
		Topic string `json:"topic"`
	} `json:"metadata"`
	Notification struct {
		NotificationId string `json:"notificationId"`
		EventDate      string `json:"eventDate"`
		Data           struct {
			Username string `json:"username"`
			UserId   string `json:"userId"`
		} `json:"data"`
	} `json:"notification"`
}

// SellerEraser removes stored data attributed to a marketplace user.
type SellerEraser interface {
	ForgetSeller(ctx context.Context, username string) (int64, error)
}

type Handler struct {
	config   Config
	verifier Verifier
	eraser   SellerEraser
	tel      telemetry.API
}

// NewHandler creates the webhook handler, eraser may be nil.
func NewHandler(config Config, verifier Verifier, eraser SellerEraser, tel telemetry.API) Handler {
	return Handler{
		config:   config,
		verifier: verifier,
		eraser:   eraser,
		tel:      telemetry.NewScopedAPI("notifications", tel),
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// HandleChallenge answers GET requests carrying a challenge_code.
func (h Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("challenge_code")
	if code == "" {
		exhttp.WriteJSONResponse(w, http.StatusBadRequest, errorBody("Missing challenge_code"))
		return
	}
	if h.config.VerificationToken == "" || h.config.Endpoint == "" {
		h.tel.ReportBroken(report_deletion_challenge, "verification token or endpoint is not configured")
		exhttp.WriteJSONResponse(w, http.StatusInternalServerError, errorBody("Server misconfigured"))
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]string{
		"challengeResponse": Challenge(code, h.config.VerificationToken, h.config.Endpoint),
	})
}

// HandleNotification verifies and acknowledges a POSTed deletion notification.
func (h Handler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		exhttp.WriteJSONResponse(w, http.StatusBadRequest, errorBody("Unreadable body"))
		return
	}

	err = h.verifier.Verify(r.Context(), r.Header.Get("x-ebay-signature"), body)
	switch {
	case errors.Is(err, ErrMissingSignature):
		exhttp.WriteJSONResponse(w, http.StatusPreconditionFailed, errorBody("Missing signature header"))
		return
	case errors.Is(err, ErrInvalidSignature):
		h.tel.ReportWarning(report_deletion_verify, err)
		exhttp.WriteJSONResponse(w, http.StatusPreconditionFailed, errorBody("Signature verification failed"))
		return
	case err != nil:
		h.tel.ReportBroken(report_deletion_verify, err)
		exhttp.WriteJSONResponse(w, http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	var notification Notification
	err = json.Unmarshal(body, &notification)
	if err != nil {
		h.tel.ReportBroken(report_deletion_notification, err)
		exhttp.WriteJSONResponse(w, http.StatusInternalServerError, errorBody("Internal server error"))
		return
	}

	username := notification.Notification.Data.Username
	if h.eraser != nil && username != "" {
		erased, err := h.eraser.ForgetSeller(r.Context(), username)
		if err != nil {
			h.tel.ReportBroken(report_deletion_notification, err)
			exhttp.WriteJSONResponse(w, http.StatusInternalServerError, errorBody("Internal server error"))
			return
		}
		h.tel.ReportDebug("erased seller", erased)
	}

	h.tel.ReportDebug(
		"account deletion notification",
		notification.Notification.NotificationId,
		notification.Notification.Data.UserId,
		notification.Notification.EventDate,
	)
	h.tel.ReportCount(report_deletion_notification, 1)

	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

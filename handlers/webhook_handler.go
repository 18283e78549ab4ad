package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"habitsAPI/internal/logger"
	"habitsAPI/services"
)

// webhookTolerance bounds how far a signed timestamp may drift from now.
const webhookTolerance = 5 * time.Minute

type clerkWebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type WebhookHandler struct {
	userService *services.UserService
	secret      string
	now         func() time.Time
}

// NewWebhookHandler builds the Clerk webhook endpoint. Without a secret
// every delivery is rejected.
func NewWebhookHandler(userService *services.UserService, secret string) *WebhookHandler {
	return &WebhookHandler{
		userService: userService,
		secret:      secret,
		now:         time.Now,
	}
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("error reading webhook body", "error", err)
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if !h.verifySignature(r.Header, body) {
		logger.Warn("invalid webhook signature")
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event clerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Warn("error parsing webhook", "error", err)
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	logger.Info("received webhook event", "type", event.Type)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch event.Type {
	case "user.deleted":
		if err := h.handleUserDeleted(ctx, event.Data); err != nil {
			logger.Error("error handling user.deleted", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Error processing webhook")
			return
		}
	default:
		logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	return h.userService.DeleteUserData(ctx, userData.ID)
}

// verifySignature checks the svix headers Clerk signs webhooks with:
// base64(HMAC-SHA256(secret, id.timestamp.body)), possibly among several
// space-separated "v1,<sig>" entries.
func (h *WebhookHandler) verifySignature(header http.Header, body []byte) bool {
	if h.secret == "" {
		return false
	}

	svixID := header.Get("svix-id")
	svixTimestamp := header.Get("svix-timestamp")
	svixSignature := header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		return false
	}

	ts, err := strconv.ParseInt(svixTimestamp, 10, 64)
	if err != nil {
		return false
	}
	if drift := h.now().Sub(time.Unix(ts, 0)); drift > webhookTolerance || drift < -webhookTolerance {
		return false
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h.secret, "whsec_"))
	if err != nil {
		logger.Error("CLERK_WEBHOOK_SECRET is not valid base64", "error", err)
		return false
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(svixID + "." + svixTimestamp + "."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, sig := range strings.Fields(svixSignature) {
		version, value, ok := strings.Cut(sig, ",")
		if ok && version == "v1" && hmac.Equal([]byte(expected), []byte(value)) {
			return true
		}
	}
	return false
}

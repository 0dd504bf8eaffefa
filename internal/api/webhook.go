package api

import (
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/mediaops/stagehand/internal/config"
	"github.com/mediaops/stagehand/internal/server"
	"github.com/mediaops/stagehand/internal/workflow"
)

// maxDeliveryBytes bounds webhook request bodies.
const maxDeliveryBytes = 1 << 20

// WebhookHandler handles POST requests from the project tracker.
//
// The delivery is acknowledged as soon as its body parses; processing
// happens asynchronously through the dispatcher, so no provisioning
// failure is ever visible to the delivering party.
func WebhookHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"path", r.URL.Path,
			"method", r.Method,
		}

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if !authorized(srv.Config.Webhook, r) {
			srv.Logger.Warn("webhook request failed basic auth", logArgs...)
			w.Header().Set("WWW-Authenticate", `Basic realm="stagehand"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxDeliveryBytes))
		if err != nil {
			srv.Logger.Error("error reading webhook body",
				append(logArgs, "error", err)...)
			http.Error(w, "Error reading request body", http.StatusBadRequest)
			return
		}

		events, err := workflow.ParseDelivery(body)
		if err != nil {
			srv.Logger.Error("error parsing webhook delivery",
				append(logArgs, "error", err)...)
			http.Error(w, "Invalid delivery body", http.StatusBadRequest)
			return
		}

		deliveryID := uuid.New().String()
		queued := srv.Dispatcher.Enqueue(workflow.Delivery{
			ID:     deliveryID,
			Events: events,
		})
		if queued {
			srv.Logger.Info("accepted webhook delivery",
				append(logArgs, "delivery_id", deliveryID, "events", len(events))...)
		} else {
			// Processing failures stay invisible to the delivering
			// party, so a dropped delivery is still acknowledged.
			srv.Logger.Error("delivery queue full, dropping webhook delivery",
				append(logArgs, "delivery_id", deliveryID, "events", len(events))...)
		}

		// Acknowledge immediately; event processing never blocks the
		// response path.
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// authorized checks the request against the webhook Basic Auth
// configuration. The gate is disabled when no credentials are
// configured.
func authorized(cfg *config.Webhook, r *http.Request) bool {
	if cfg == nil || cfg.Username == "" || cfg.Password == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
	return userOK && passOK
}

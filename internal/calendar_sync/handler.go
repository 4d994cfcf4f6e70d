package calendarsync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/saulo-duarte/chronos-calendar-sync/internal/auth"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	headerChannelToken  = "X-Goog-Channel-Token"
	headerChannelID     = "X-Goog-Channel-ID"
	headerResourceState = "X-Goog-Resource-State"

	resourceStateSync = "sync"
)

type Handler struct {
	service  SyncService
	inflight singleflight.Group
}

func NewHandler(service SyncService) *Handler {
	return &Handler{service: service}
}

// Sync runs one pass and always answers 200; failures travel in the body.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	claims, err := auth.GetUserClaimsFromContext(r.Context())
	if err != nil {
		log.Warn("User not authenticated")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var dto SyncRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
		log.WithError(err).Warn("Invalid request body")
		config.JSON(w, http.StatusOK, SyncResponseDTO{Action: NormalizeAction(""), Error: "invalid request body"})
		return
	}

	action := NormalizeAction(dto.Action)
	userID := strings.TrimSpace(dto.UserID)
	if userID == "" {
		userID = claims.UserID
	}
	if userID != claims.UserID && claims.Role != auth.RoleService {
		log.WithFields(logrus.Fields{"user_id": userID, "role": claims.Role}).Warn("Rejected sync for another user")
		config.JSON(w, http.StatusOK, SyncResponseDTO{Action: action, Error: ErrForeignUser.Error()})
		return
	}

	resp := h.run(r.Context(), action, SyncRequest{
		UserID:  userID,
		TimeMin: dto.TimeMin,
		TimeMax: dto.TimeMax,
	})
	config.JSON(w, http.StatusOK, resp)
}

// Webhook receives Google push notifications. The channel token is a
// webhook-role JWT naming the user; anything but the initial "sync" ping
// triggers a pull. The pull is best effort and never changes the status.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	claims, err := auth.ValidateJWT(r.Header.Get(headerChannelToken))
	if err != nil || claims.Role != auth.RoleWebhook {
		log.WithError(err).Warn("Rejected calendar notification with invalid channel token")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	state := r.Header.Get(headerResourceState)
	log = log.WithFields(logrus.Fields{
		"user_id":        claims.UserID,
		"channel_id":     r.Header.Get(headerChannelID),
		"resource_state": state,
	})

	if state == resourceStateSync {
		log.Info("Calendar notification channel confirmed")
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := h.run(r.Context(), ActionPull, SyncRequest{UserID: claims.UserID})
	if resp.Error != "" {
		log.WithField("detail", resp.Detail).Warnf("Pull triggered by notification failed: %s", resp.Error)
	}
	w.WriteHeader(http.StatusOK)
}

// run collapses identical concurrent requests into one pass. The pass is
// detached from request cancellation so it always runs to completion.
func (h *Handler) run(ctx context.Context, action Action, req SyncRequest) *SyncResponseDTO {
	key := strings.Join([]string{req.UserID, string(action), req.TimeMin, req.TimeMax}, "|")
	v, _, shared := h.inflight.Do(key, func() (interface{}, error) {
		return Execute(context.WithoutCancel(ctx), h.service, action, req), nil
	})
	if shared {
		config.WithContext(ctx).WithField("user_id", req.UserID).Debug("Joined in-flight sync pass")
	}
	return v.(*SyncResponseDTO)
}

// Execute runs the pass named by action and renders the outcome the way the
// HTTP trigger reports it.
func Execute(ctx context.Context, service SyncService, action Action, req SyncRequest) *SyncResponseDTO {
	resp := &SyncResponseDTO{Action: action}

	var err error
	switch action {
	case ActionPush:
		var summary *SyncSummary
		if summary, err = service.Push(ctx, req); summary != nil {
			resp.Summary = summary
		}
	case ActionPull:
		var summary *PullSummary
		if summary, err = service.Pull(ctx, req); summary != nil {
			resp.Summary = summary
		}
	default:
		var summary *TwoWaySummary
		if summary, err = service.TwoWay(ctx, req); summary != nil {
			resp.Summary = summary
		}
	}

	if err != nil {
		resp.Error = err.Error()
		resp.Detail = ErrorDetail(err)
	}
	return resp
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/anderka/support-relay/internal/model"
	"github.com/anderka/support-relay/internal/repo"
	"github.com/anderka/support-relay/internal/scheduler"
)

type Handler struct {
	sched *scheduler.Scheduler
	store repo.MessageStore
}

func NewHandler(s *scheduler.Scheduler, store repo.MessageStore) *Handler {
	return &Handler{sched: s, store: store}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) DispatcherStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) DispatcherStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) DispatcherStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"running": h.sched.IsRunning()})
}

func (h *Handler) QueueStats(w http.ResponseWriter, r *http.Request) {
	pending, err := h.store.CountPending(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

func (h *Handler) ListDeliveredMessages(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	offset := parseInt(r.URL.Query().Get("offset"), 0)

	items, err := h.store.ListDelivered(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type enqueueRequest struct {
	ChatID int64         `json:"chatId"`
	Text   string        `json:"text"`
	Topic  string        `json:"topic"`
	Media  *enqueueMedia `json:"media"`
}

type enqueueMedia struct {
	Kind     string `json:"kind"`
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Size     int64  `json:"size"`
}

// EnqueueReply inserts an operator reply as a pending row; the
// dispatcher picks it up on a later cycle. This is the ingestion path
// used by the companion operator client.
func (h *Handler) EnqueueReply(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ChatID == 0 {
		http.Error(w, "chatId is required", http.StatusBadRequest)
		return
	}

	var media *model.Media
	if req.Media != nil {
		media = &model.Media{
			Kind:      model.MediaKind(req.Media.Kind),
			URL:       req.Media.URL,
			Caption:   req.Media.Caption,
			Filename:  req.Media.Filename,
			MIME:      req.Media.MIME,
			SizeBytes: req.Media.Size,
		}
	}

	if _, err := model.NewContent(req.Text, media); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg := &model.Message{
		ChatID: req.ChatID,
		Sender: model.DirectionOperator,
		Text:   req.Text,
		Media:  media,
		Topic:  req.Topic,
	}
	if err := h.store.Insert(r.Context(), msg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": msg.ID})
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

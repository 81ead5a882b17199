package api

import "net/http"

func Router(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("GET /v1/dispatcher/status", h.DispatcherStatus)
	mux.HandleFunc("POST /v1/dispatcher/start", h.DispatcherStart)
	mux.HandleFunc("POST /v1/dispatcher/stop", h.DispatcherStop)

	mux.HandleFunc("GET /v1/queue/stats", h.QueueStats)
	mux.HandleFunc("GET /v1/messages/delivered", h.ListDeliveredMessages)
	mux.HandleFunc("POST /v1/messages", h.EnqueueReply)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("support-relay"))
	})

	return mux
}

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wontivero/infotechLibros/internal/store"
)

var streamable = map[string]bool{
	store.CollectionBooks:  true,
	store.CollectionOrders: true,
	store.CollectionLeads:  true,
}

// heartbeat keeps idle proxies from closing the stream.
var heartbeat = 25 * time.Second

// Events streams change notifications for one collection as server-sent
// events. The subscription is released when the client goes away.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	if !streamable[collection] {
		http.NotFound(w, r)
		return
	}

	rc := http.NewResponseController(w)
	sub := a.Store.Subscribe(collection)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": subscribed\n\n")
	if err := rc.Flush(); err != nil {
		slog.Warn("Streaming not supported", "error", err)
		return
	}

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]string{
				"collection": ev.Collection,
				"op":         string(ev.Op),
				"id":         ev.ID,
			})
			if err != nil {
				slog.Error("Failed to encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

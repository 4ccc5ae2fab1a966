package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"social-integration/domain/model"
	"social-integration/domain/repository"

	"github.com/gin-gonic/gin"
)

// PublishStatusEvent is the SSE payload for one platform outcome.
type PublishStatusEvent struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id"`
	Operation string         `json:"operation"`
	Platform  model.Platform `json:"platform"`
	Outcome   model.Outcome  `json:"outcome"`
	PostID    string         `json:"post_id,omitempty"`
	Permalink string         `json:"permalink,omitempty"`
	JobID     string         `json:"job_id,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Hub fans publish outcomes out to the SSE streams of the identity that triggered them.
type Hub struct {
	mu    sync.RWMutex
	users map[model.Identity]map[chan PublishStatusEvent]struct{}
}

func NewPublishHub() *Hub {
	return &Hub{users: make(map[model.Identity]map[chan PublishStatusEvent]struct{})}
}

// Serve streams events for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	identity := model.Identity(c.GetString("user_id"))
	if identity == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.subscribe(identity)
	defer h.unsubscribe(identity, ch)

	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: publish_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *Hub) subscribe(identity model.Identity) chan PublishStatusEvent {
	ch := make(chan PublishStatusEvent, 8)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[identity] == nil {
		h.users[identity] = make(map[chan PublishStatusEvent]struct{})
	}
	h.users[identity][ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(identity model.Identity, ch chan PublishStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.users[identity]; subs != nil {
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.users, identity)
		}
	}
}

// Record never blocks: slow subscribers miss events.
func (h *Hub) Record(_ context.Context, evt *repository.PublishOutcomeEvent) error {
	if evt == nil {
		return nil
	}
	out := PublishStatusEvent{
		Type:      "publish_status",
		RequestID: evt.RequestID,
		Operation: evt.Operation,
		Platform:  evt.Platform,
		Outcome:   evt.Outcome,
	}
	if r := evt.Result; r != nil {
		out.PostID, out.Permalink, out.JobID, out.Error = r.PostID, r.Permalink, r.JobID, r.Error
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[evt.Identity] {
		select {
		case ch <- out:
		default:
		}
	}
	return nil
}

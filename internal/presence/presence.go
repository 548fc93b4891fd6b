// Package presence mirrors realtime connection state into user profiles. Status
// writes in the realtime store append to a Redis stream; a consumer group reads
// it and applies each event with last-write-wins on last_changed.
package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"territorial/internal/presence/realtime"
	id "territorial/pkg/domain"
)

// Event is one status write read from the stream.
type Event struct {
	StreamID    string
	UserID      id.UserID
	State       string
	LastChanged time.Time
}

func (e Event) Online() bool {
	return e.State == realtime.StateOnline
}

// ParseEvent decodes a stream entry written by the realtime store.
func ParseEvent(msg redis.XMessage) (Event, error) {
	uid, _ := msg.Values["uid"].(string)
	state, _ := msg.Values["state"].(string)
	raw, _ := msg.Values["last_changed"].(string)
	if uid == "" || state == "" || raw == "" {
		return Event{}, fmt.Errorf("presence entry %s is missing fields", msg.ID)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("presence entry %s: bad last_changed %q: %w", msg.ID, raw, err)
	}
	return Event{
		StreamID:    msg.ID,
		UserID:      id.UserID(uid),
		State:       state,
		LastChanged: time.UnixMilli(ms).UTC(),
	}, nil
}

// PresenceWriter is the profile store's conditional presence update.
type PresenceWriter interface {
	UpdatePresence(ctx context.Context, userID id.UserID, online bool, lastSeen time.Time) (bool, error)
}

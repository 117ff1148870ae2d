package broker

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"sos/pkg/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventsChannel carries emergency lifecycle events between server
// instances; every instance's hub subscribes so the user gets the push
// no matter which instance holds their websocket.
const EventsChannel = "sos:events"

const ActionEmergencyStatus = "emergency.status"

type Event struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	UserID    string          `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"ts"`
}

func NewEvent(action, userID string, data any) (Event, error) {
	e := Event{
		ID:        uuid.NewString(),
		Action:    action,
		UserID:    userID,
		Timestamp: time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return e, err
	}
	e.Data = raw
	return e, nil
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type HandlerFunc func(Event)

type Broker struct {
	rdb      *redis.Client
	ctx      context.Context
	cancel   context.CancelFunc
	handlers sync.Map
}

func New() *Broker {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("invalid redis url:", err)
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithCancel(context.Background())

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis ping failed:", err)
	}

	return &Broker{rdb: rdb, ctx: ctx, cancel: cancel}
}

func (b *Broker) Publish(channel string, ev Event) error {
	data, err := ev.Marshal()
	if err != nil {
		return err
	}
	return b.rdb.Publish(b.ctx, channel, data).Err()
}

// PublishStatus satisfies services.StatusPublisher.
func (b *Broker) PublishStatus(e models.Emergency) error {
	ev, err := NewEvent(ActionEmergencyStatus, e.UserID, e)
	if err != nil {
		return err
	}
	return b.Publish(EventsChannel, ev)
}

// On registers a handler for an action. An empty action matches every
// event.
func (b *Broker) On(action string, fn HandlerFunc) {
	b.handlers.Store(action, fn)
}

func (b *Broker) Subscribe(channels ...string) {
	sub := b.rdb.Subscribe(b.ctx, channels...)
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-b.ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.dispatch(msg.Channel, []byte(msg.Payload))
			}
		}
	}()
}

// dispatch decodes one raw message and routes it to the handler
// registered for its action, or to the catch-all handler.
func (b *Broker) dispatch(channel string, payload []byte) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("[BROKER] bad event on %s: %v", channel, err)
		return
	}

	if fn, ok := b.handlers.Load(ev.Action); ok {
		fn.(HandlerFunc)(ev)
	} else if fn, ok := b.handlers.Load(""); ok {
		fn.(HandlerFunc)(ev)
	}
}

func (b *Broker) Close() {
	b.cancel()
	b.rdb.Close()
}

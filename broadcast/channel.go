package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the well-known storage key session messages are written to.
const DefaultKey = "nextauth.message"

// EventSession is the only event kind Receive delivers.
const EventSession = "session"

// Payload carries the reason a session message was posted.
type Payload struct {
	Trigger string `json:"trigger"`
}

// Message is the wire shape of a cross-instance notification. ClientID and
// Timestamp are injected by Post; callers only fill Event and Data.
type Message struct {
	Event     string  `json:"event"`
	Data      Payload `json:"data"`
	ClientID  string  `json:"clientId"`
	Timestamp int64   `json:"timestamp"`
}

// Channel is one instance's handle on the shared key. Each Channel owns a
// random client id used for self-exclusion on delivery.
type Channel struct {
	rdb      *redis.Client
	key      string
	clientID string

	mu     sync.Mutex
	closed bool
	subs   map[*subscription]struct{}
}

type subscription struct {
	pubsub *redis.PubSub
	once   sync.Once
}

// New returns a channel bound to the given storage key. A nil Redis client
// yields a functional no-op channel: Post does nothing and Receive never
// delivers, which is the degradation mode for environments without a
// persistence medium.
func New(rdb *redis.Client, key string) *Channel {
	if key == "" {
		key = DefaultKey
	}

	return &Channel{
		rdb:      rdb,
		key:      key,
		clientID: uuid.NewString(),
		subs:     make(map[*subscription]struct{}),
	}
}

// ClientID returns the identity stamped on every message this channel posts.
func (c *Channel) ClientID() string {
	return c.clientID
}

// Post writes the message to the shared key and announces it. Fire-and-forget:
// serialization or medium failures are logged and swallowed, never returned.
func (c *Channel) Post(ctx context.Context, msg Message) {
	if c == nil || c.rdb == nil {
		return
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	msg.ClientID = c.clientID
	msg.Timestamp = time.Now().Unix()

	raw, err := json.Marshal(msg)
	if err != nil {
		log.Print("sessync: broadcast message encode failed")
		return
	}

	if err := c.rdb.Set(ctx, c.key, raw, 0).Err(); err != nil {
		log.Print("sessync: broadcast key write failed")
		return
	}
	if err := c.rdb.Publish(ctx, notifyChannel(c.key), raw).Err(); err != nil {
		log.Print("sessync: broadcast publish failed")
	}
}

// Receive registers fn for session messages posted by other instances and
// returns the paired unsubscribe. The unsubscribe is safe to call multiple
// times and must be invoked on teardown; a leaked subscription keeps its
// delivery goroutine alive for the life of the Redis connection.
//
// Only well-formed messages with event "session", a non-empty trigger, and a
// foreign client id are delivered.
func (c *Channel) Receive(fn func(Message)) func() {
	if c == nil || c.rdb == nil || fn == nil {
		return func() {}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	sub := &subscription{pubsub: c.rdb.Subscribe(context.Background(), notifyChannel(c.key))}
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	go func() {
		for raw := range sub.pubsub.Channel() {
			msg, ok := c.decode([]byte(raw.Payload))
			if !ok {
				continue
			}
			fn(msg)
		}
	}()

	return func() {
		sub.once.Do(func() {
			c.mu.Lock()
			delete(c.subs, sub)
			c.mu.Unlock()
			_ = sub.pubsub.Close()
		})
	}
}

// Close tears down every open subscription. Subsequent Receive calls return
// inert unsubscribes and subsequent Posts are dropped.
func (c *Channel) Close() {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.closed = true
	subs := make([]*subscription, 0, len(c.subs))
	for sub := range c.subs {
		subs = append(subs, sub)
	}
	c.subs = make(map[*subscription]struct{})
	c.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() { _ = sub.pubsub.Close() })
	}
}

func (c *Channel) decode(raw []byte) (Message, bool) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, false
	}
	if msg.Event != EventSession || msg.Data.Trigger == "" {
		return Message{}, false
	}
	if msg.ClientID == c.clientID {
		return Message{}, false
	}
	return msg, true
}

func notifyChannel(key string) string {
	return key + ":notify"
}

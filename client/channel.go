package client

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"notihub/pkg/events"
	"notihub/pkg/logger"
	"notihub/pkg/models"

	"github.com/gorilla/websocket"
)

// Alert is the transient user-facing signal raised when a notification is
// pushed. Presentation (toast style per severity, navigation on the action
// URL) belongs to the embedding application.
type Alert struct {
	Title     string
	Message   string
	Tipo      models.NotificationTipo
	ActionURL string
}

type AlertFunc func(Alert)

// Channel holds one websocket connection to the hub's push endpoint and
// feeds decoded events into the store. It reconnects with exponential
// backoff until closed.
type Channel struct {
	wsURL   string
	dialer  *websocket.Dialer
	store   *Store
	alert   AlertFunc
	resync  func()
	backoff BackoffConfig
	logger  *logger.Logger
	rng     *rand.Rand

	mu        sync.Mutex
	token     string
	conn      *websocket.Conn
	connected bool
	onState   func(bool)
	done      chan struct{}
	running   bool
}

func newChannel(baseURL string, store *Store, alert AlertFunc, resync func(), backoff BackoffConfig, log *logger.Logger) *Channel {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/api/v1/notifications/ws"
	return &Channel{
		wsURL:   wsURL,
		dialer:  websocket.DefaultDialer,
		store:   store,
		alert:   alert,
		resync:  resync,
		backoff: backoff,
		logger:  log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Connect starts the connection loop. Calling it again with the same token
// is a no-op; a different token tears the connection down and redials.
func (ch *Channel) Connect(token string) {
	if token == "" {
		return
	}

	ch.mu.Lock()
	if ch.running {
		if ch.token == token {
			ch.mu.Unlock()
			return
		}
		ch.stopLocked()
	}
	ch.token = token
	ch.done = make(chan struct{})
	ch.running = true
	done := ch.done
	ch.mu.Unlock()

	go ch.run(token, done)
}

// Close tears the connection down. Pending events are dropped; handlers
// become no-ops once the loop exits.
func (ch *Channel) Close() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.stopLocked()
}

func (ch *Channel) stopLocked() {
	if !ch.running {
		return
	}
	close(ch.done)
	if ch.conn != nil {
		ch.conn.Close()
		ch.conn = nil
	}
	ch.running = false
	ch.setConnectedLocked(false)
}

func (ch *Channel) Connected() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.connected
}

// OnStateChange registers a listener for connectivity transitions.
func (ch *Channel) OnStateChange(fn func(connected bool)) {
	ch.mu.Lock()
	ch.onState = fn
	ch.mu.Unlock()
}

func (ch *Channel) setConnected(v bool) {
	ch.mu.Lock()
	ch.setConnectedLocked(v)
	ch.mu.Unlock()
}

func (ch *Channel) setConnectedLocked(v bool) {
	if ch.connected == v {
		return
	}
	ch.connected = v
	if ch.onState != nil {
		go ch.onState(v)
	}
}

func (ch *Channel) run(token string, done chan struct{}) {
	attempt := 0
	for {
		select {
		case <-done:
			return
		default:
		}

		conn, _, err := ch.dialer.Dial(ch.wsURL+"?token="+token, nil)
		if err != nil {
			attempt++
			ch.logger.Warn("Failed to dial notification channel (attempt %d): %v", attempt, err)
			if !ch.wait(done, attempt) {
				return
			}
			continue
		}

		ch.mu.Lock()
		select {
		case <-done:
			ch.mu.Unlock()
			conn.Close()
			return
		default:
		}
		ch.conn = conn
		ch.setConnectedLocked(true)
		ch.mu.Unlock()

		attempt = 0
		if ch.resync != nil {
			ch.resync()
		}

		ch.readLoop(conn, done)
		ch.setConnected(false)

		select {
		case <-done:
			return
		default:
		}
		attempt++
		if !ch.wait(done, attempt) {
			return
		}
	}
}

func (ch *Channel) wait(done chan struct{}, attempt int) bool {
	delay := nextBackoffDelay(ch.backoff, attempt, ch.rng)
	select {
	case <-done:
		return false
	case <-time.After(delay):
		return true
	}
}

func (ch *Channel) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				ch.logger.Warn("Notification channel read error: %v", err)
			}
			return
		}
		ch.handle(raw)
	}
}

func (ch *Channel) handle(raw []byte) {
	env, err := events.Decode(raw)
	if err != nil {
		ch.logger.Warn("Dropping malformed push event: %v", err)
		return
	}

	switch env.Event {
	case events.EventNewNotification:
		n, err := env.DecodeNotification()
		if err != nil {
			ch.logger.Warn("Dropping bad new_notification payload: %v", err)
			return
		}
		ch.store.ApplyNew(*n)
		if ch.alert != nil {
			ch.alert(Alert{
				Title:     n.Title,
				Message:   n.Message,
				Tipo:      n.Tipo,
				ActionURL: n.ActionURL,
			})
		}

	case events.EventUnreadCount:
		count, err := env.DecodeUnreadCount()
		if err != nil {
			ch.logger.Warn("Dropping bad unread_count payload: %v", err)
			return
		}
		ch.store.SetUnreadCount(count)

	case events.EventStatusUpdate:
		p, err := env.DecodeStatusUpdate()
		if err != nil {
			ch.logger.Warn("Dropping bad status_update payload: %v", err)
			return
		}
		switch p.Kind {
		case events.KindNotificationUpdated:
			ch.store.ApplyStatusPatch(p.NotificationID, p.Status)
		case events.KindNotificationDeleted:
			ch.store.ApplyDelete(p.NotificationID)
		default:
			ch.logger.Info("Ignoring status_update kind %q", p.Kind)
		}

	default:
		// Unknown events (including real_time_update) are ignored so
		// newer hubs can push events older clients do not know yet.
		ch.logger.Info("Ignoring push event %q", env.Event)
	}
}

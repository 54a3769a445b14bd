package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "resto-sync/pkg/errors"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	defaultHeartbeat = 30 * time.Second
	defaultJoinWait  = 10 * time.Second
)

// SubscribeOptions - параметры одной подписки. Имя канала должно быть
// уникальным для логической области, иначе подписки столкнутся.
type SubscribeOptions struct {
	Channel  string
	Bindings []Binding
	OnEvent  Handler
	OnError  ErrorHandler
}

// Subscriber открывает подписки на канал изменений. Реализуется клиентом,
// в тестах подменяется заглушкой.
type Subscriber interface {
	Subscribe(ctx context.Context, opts SubscribeOptions) (Subscription, error)
}

// Client - клиент канала изменений хостинг-бэкенда поверх websocket.
type Client struct {
	url             string
	apiKey          string
	heartbeatPeriod time.Duration
	joinWait        time.Duration
	logger          *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	subs      map[string]*subscription
	connected bool
	done      chan struct{}

	writeMu sync.Mutex
	refSeq  atomic.Uint64
}

func NewClient(url, apiKey string, heartbeatPeriod, joinWait time.Duration, logger *zap.Logger) *Client {
	if heartbeatPeriod <= 0 {
		heartbeatPeriod = defaultHeartbeat
	}
	if joinWait <= 0 {
		joinWait = defaultJoinWait
	}
	return &Client{
		url:             url,
		apiKey:          apiKey,
		heartbeatPeriod: heartbeatPeriod,
		joinWait:        joinWait,
		logger:          logger,
		subs:            make(map[string]*subscription),
	}
}

// Connect устанавливает соединение и запускает чтение и heartbeat.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	url := c.url
	if c.apiKey != "" {
		url = fmt.Sprintf("%s?apikey=%s&vsn=1.0.0", c.url, c.apiKey)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrNotConnected, err)
	}

	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	c.conn = conn
	c.connected = true
	c.done = make(chan struct{})

	go c.readLoop(conn, c.done)
	go c.heartbeatLoop(c.done)

	c.logger.Info("Соединение с каналом изменений установлено", zap.String("url", c.url))
	return nil
}

// Close разрывает соединение и закрывает все подписки.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	conn := c.conn
	c.conn = nil
	close(c.done)
	subs := make([]*subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.subs = make(map[string]*subscription)
	c.mu.Unlock()

	for _, s := range subs {
		s.shutdown(apperrors.ErrNotConnected)
	}
	return conn.Close()
}

// Subscribe открывает подписку и дожидается подтверждения от сервера.
func (c *Client) Subscribe(ctx context.Context, opts SubscribeOptions) (Subscription, error) {
	if opts.Channel == "" || len(opts.Bindings) == 0 || opts.OnEvent == nil {
		return nil, apperrors.NewInvalidInputError("канал, привязки и обработчик обязательны")
	}

	topic := "realtime:" + opts.Channel

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil, apperrors.ErrNotConnected
	}
	if _, taken := c.subs[topic]; taken {
		c.mu.Unlock()
		return nil, apperrors.ErrChannelTaken
	}
	sub := newSubscription(uuid.NewString(), topic, c, opts.OnEvent, opts.OnError)
	c.subs[topic] = sub
	c.mu.Unlock()

	payload, _ := json.Marshal(newBindingConfig(opts.Bindings))
	if err := c.send(topic, eventJoin, payload); err != nil {
		c.remove(topic)
		sub.shutdown(err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSubscribeFailed, err)
	}

	select {
	case <-sub.joined:
	case err := <-sub.joinErr:
		c.remove(topic)
		sub.shutdown(err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSubscribeFailed, err)
	case <-time.After(c.joinWait):
		c.remove(topic)
		sub.shutdown(apperrors.ErrSubscribeFailed)
		return nil, apperrors.ErrSubscribeFailed
	case <-ctx.Done():
		c.remove(topic)
		sub.shutdown(ctx.Err())
		return nil, ctx.Err()
	}

	sub.run()
	c.logger.Info("Подписка активна", zap.String("topic", topic), zap.String("id", sub.ID()))
	return sub, nil
}

func (c *Client) remove(topic string) {
	c.mu.Lock()
	delete(c.subs, topic)
	c.mu.Unlock()
}

// leave вызывается подпиской при Unsubscribe.
func (c *Client) leave(s *subscription) {
	c.remove(s.topic)
	if err := c.send(s.topic, eventLeave, json.RawMessage(`{}`)); err != nil {
		c.logger.Debug("Не удалось отправить phx_leave", zap.String("topic", s.topic), zap.Error(err))
	}
}

func (c *Client) send(topic, event string, payload json.RawMessage) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return apperrors.ErrNotConnected
	}

	msg := wireMessage{
		Topic:   topic,
		Event:   event,
		Payload: payload,
		Ref:     strconv.FormatUint(c.refSeq.Add(1), 10),
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (c *Client) heartbeatLoop(done chan struct{}) {
	ticker := time.NewTicker(c.heartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.send(heartbeatTopic, eventHeartbeat, json.RawMessage(`{}`)); err != nil {
				c.logger.Warn("Heartbeat не отправлен", zap.Error(err))
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-done:
				return
			default:
			}
			c.logger.Warn("Канал изменений разорван", zap.Error(err))
			_ = c.Close()
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg wireMessage) {
	if msg.Topic == heartbeatTopic {
		return
	}

	c.mu.Lock()
	sub := c.subs[msg.Topic]
	c.mu.Unlock()
	if sub == nil {
		return
	}

	switch msg.Event {
	case eventReply:
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err == nil && reply.Status == "error" {
			sub.fail(apperrors.ErrSubscribeFailed)
			return
		}
		sub.markActive()
	case eventChanges:
		var payload changesPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.logger.Warn("Нечитаемое событие изменения", zap.String("topic", msg.Topic), zap.Error(err))
			return
		}
		sub.deliver(payload.Data.toEvent())
	case eventError, eventClose:
		c.remove(msg.Topic)
		sub.shutdown(apperrors.ErrNotSubscribed)
	}
}

package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Hub управляет подключенными вкладками интерфейса и рассылкой сообщений.
type Hub struct {
	clients     map[*Client]bool
	userClients map[uint64][]*Client
	Register    chan *Client
	unregister  chan *Client
	logger      *zap.Logger
	mu          sync.RWMutex
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[uint64][]*Client),
		Register:    make(chan *Client),
		unregister:  make(chan *Client),
		logger:      logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Вкладка подключена", zap.Uint64("userID", client.UserID))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				clients := h.userClients[client.UserID]
				for i, c := range clients {
					if c == client {
						h.userClients[client.UserID] = append(clients[:i], clients[i+1:]...)
						break
					}
				}
				if len(h.userClients[client.UserID]) == 0 {
					delete(h.userClients, client.UserID)
				}
			}
			h.mu.Unlock()
			h.logger.Info("Вкладка отключена", zap.Uint64("userID", client.UserID))
		}
	}
}

// SendToUser отправляет сообщение всем вкладкам одного пользователя.
func (h *Hub) SendToUser(userID uint64, payload interface{}, messageType string) error {
	messageBytes, err := h.marshal(payload, messageType)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.userClients[userID] {
		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("Очередь вкладки переполнена, сообщение пропущено", zap.Uint64("userID", userID))
		}
	}
	return nil
}

// Broadcast отправляет сообщение всем подключенным вкладкам.
func (h *Hub) Broadcast(payload interface{}, messageType string) error {
	messageBytes, err := h.marshal(payload, messageType)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("Очередь вкладки переполнена, сообщение пропущено", zap.Uint64("userID", client.UserID))
		}
	}
	return nil
}

func (h *Hub) marshal(payload interface{}, messageType string) ([]byte, error) {
	envelope := Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	messageBytes, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("Ошибка сериализации сообщения для вкладки", zap.Error(err))
		return nil, err
	}
	return messageBytes, nil
}

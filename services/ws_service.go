package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	wsSendBuffer      = 64
	wsBroadcastBuffer = 256
	wsReadLimit       = 512
	wsPongWait        = 60 * time.Second
	wsPingPeriod      = 54 * time.Second
	wsWriteWait       = 10 * time.Second
)

// WSMessage представляет сообщение WebSocket
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client представляет подключенного клиента ленты изменений
type Client struct {
	ID     string
	UserID uint
	Conn   *websocket.Conn
	Send   chan WSMessage
	Hub    *Hub
}

// Hub рассылает события об изменении активов всем подключенным клиентам
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan WSMessage
	done       chan struct{}
	mutex      sync.RWMutex
	secret     []byte
	issuer     string
	audience   string
}

// NewHub создает новый хаб; secret, issuer и audience проверяются в токене при подключении
func NewHub(secret []byte, issuer, audience string) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan WSMessage, wsBroadcastBuffer),
		done:       make(chan struct{}),
		secret:     secret,
		issuer:     issuer,
		audience:   audience,
	}
}

// Run обслуживает хаб до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Println("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()

			log.Printf("Client %s (user %d) connected. Total clients: %d", client.ID, client.UserID, total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mutex.Unlock()

			log.Printf("Client %s (user %d) disconnected. Total clients: %d", client.ID, client.UserID, total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Медленный клиент: отключаем
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// NotifyAssetChange ставит событие в очередь рассылки, не блокируя вызывающего
func (h *Hub) NotifyAssetChange(event string, payload interface{}) {
	select {
	case h.broadcast <- WSMessage{Type: event, Payload: payload}:
	default:
		log.Printf("WebSocket broadcast queue full, dropping %s", event)
	}
}

// ClientCount возвращает число подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// sendTo отправляет сообщение одному клиенту, если он еще зарегистрирован
func (h *Hub) sendTo(client *Client, message WSMessage) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.Send <- message:
	default:
		close(client.Send)
		delete(h.clients, client)
	}
}

// HandleWebSocket обрабатывает WebSocket соединение
func (h *Hub) HandleWebSocket(c *websocket.Conn) {
	userID, ok := h.authenticate(c.Query("token"))
	if !ok {
		c.Close()
		return
	}

	client := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Conn:   c,
		Send:   make(chan WSMessage, wsSendBuffer),
		Hub:    h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		c.Close()
		return
	}

	// Соединение живет, пока обработчик не вернул управление
	go client.writePump()
	client.readPump()
}

// authenticate проверяет токен из query параметра и возвращает user_id
func (h *Hub) authenticate(tokenString string) (uint, bool) {
	if tokenString == "" {
		return 0, false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}

	// Токен должен быть выпущен этим сервисом, как и для REST API
	if !claims.VerifyIssuer(h.issuer, true) || !claims.VerifyAudience(h.audience, true) {
		return 0, false
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, false
	}

	return uint(userIDFloat), true
}

// readPump читает сообщения из WebSocket
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(wsReadLimit)
	c.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		var message WSMessage
		if err := c.Conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		c.handleMessage(message)
	}
}

// writePump записывает сообщения в WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage обрабатывает входящие сообщения; лента только на чтение, поэтому поддерживается лишь ping
func (c *Client) handleMessage(message WSMessage) {
	if message.Type == "ping" {
		c.Hub.sendTo(c, WSMessage{
			Type: "pong",
			Payload: map[string]interface{}{
				"timestamp": time.Now().Unix(),
			},
		})
	}
}

package push

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

// Conn абстрагирует websocket-соединение.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// session сериализует записи в одно соединение: gorilla/websocket
// допускает не более одного конкурентного писателя на Conn, а пуши
// приходят из нескольких горутин (consumer напоминаний и воркер
// расшифровок).
type session struct {
	conn Conn
	mu   sync.Mutex
}

func (s *session) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub хранит активные соединения, сгруппированные по пользователю,
// и реализует domain.Pusher. Один пользователь может держать
// несколько сессий (телефон и планшет).
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[Conn]*session
	log     zerolog.Logger
}

var _ domain.Pusher = (*Hub)(nil)

// NewHub создаёт пустой хаб.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[Conn]*session),
		log:     log.With().Str("component", "push").Logger(),
	}
}

// Register добавляет соединение пользователя.
func (h *Hub) Register(userID int64, conn Conn) {
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[Conn]*session)
	}
	h.clients[userID][conn] = &session{conn: conn}
	h.mu.Unlock()
	metrics.PushConnectedClients.Inc()
}

// Unregister убирает соединение пользователя и закрывает его.
func (h *Hub) Unregister(userID int64, conn Conn) {
	h.mu.Lock()
	if conns, ok := h.clients[userID]; ok {
		if _, ok := conns[conn]; ok {
			delete(conns, conn)
			metrics.PushConnectedClients.Dec()
		}
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// Push отправляет полезную нагрузку всем сессиям пользователя.
// Отсутствие подключённых сессий не ошибка: пуш просто теряется.
func (h *Hub) Push(userID int64, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("сериализация пуша: %w", err)
	}

	h.mu.RLock()
	sessions := make([]*session, 0, len(h.clients[userID]))
	for _, s := range h.clients[userID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if err := s.write(body); err != nil {
			metrics.PushSendErrors.Inc()
			h.log.Warn().Err(err).Int64("user_id", userID).Msg("не удалось отправить пуш, соединение закрывается")
			h.Unregister(userID, s.conn)
		}
	}
	return nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Мобильные клиенты приходят с разных origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Serve апгрейдит HTTP-запрос до websocket и держит соединение
// до разрыва со стороны клиента.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", userID).Msg("не удалось апгрейдить соединение")
		return
	}
	h.Register(userID, conn)
	defer h.Unregister(userID, conn)

	// Входящие сообщения не обрабатываются, цикл чтения нужен
	// для обнаружения разрыва.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

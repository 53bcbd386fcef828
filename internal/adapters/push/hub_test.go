package push

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeConn struct {
	written  [][]byte
	writeErr error
	closed   bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, errors.New("eof") }
func (c *fakeConn) Close() error                      { c.closed = true; return nil }

func TestPushDeliversToAllUserSessions(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	first := &fakeConn{}
	second := &fakeConn{}
	hub.Register(1, first)
	hub.Register(1, second)

	if err := hub.Push(1, map[string]string{"type": "reminder"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(first.written) != 1 || len(second.written) != 1 {
		t.Fatalf("обе сессии должны получить пуш: %d и %d", len(first.written), len(second.written))
	}
}

func TestPushToDisconnectedUserIsNoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	if err := hub.Push(42, map[string]string{"type": "reminder"}); err != nil {
		t.Fatalf("пуш без сессий не должен быть ошибкой: %v", err)
	}
}

func TestPushDropsBrokenConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	broken := &fakeConn{writeErr: errors.New("broken pipe")}
	healthy := &fakeConn{}
	hub.Register(1, broken)
	hub.Register(1, healthy)

	if err := hub.Push(1, map[string]string{"type": "reminder"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !broken.closed {
		t.Fatal("разорванное соединение должно закрываться")
	}
	if len(healthy.written) != 1 {
		t.Fatal("здоровая сессия должна получить пуш несмотря на сбой соседней")
	}

	// После разрыва пуш идёт только в живую сессию.
	if err := hub.Push(1, map[string]string{"type": "again"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(healthy.written) != 2 {
		t.Fatalf("ожидали 2 пуша в живую сессию, получили %d", len(healthy.written))
	}
}

// racyConn фиксирует пересечение конкурентных записей, которое
// реальный gorilla-Conn превращает в панику.
type racyConn struct {
	inWrite int32
	overlap int32
	written int64
}

func (c *racyConn) WriteMessage(_ int, _ []byte) error {
	if !atomic.CompareAndSwapInt32(&c.inWrite, 0, 1) {
		atomic.StoreInt32(&c.overlap, 1)
	}
	time.Sleep(10 * time.Microsecond)
	atomic.AddInt64(&c.written, 1)
	atomic.StoreInt32(&c.inWrite, 0)
	return nil
}

func (c *racyConn) ReadMessage() (int, []byte, error) { return 0, nil, errors.New("eof") }
func (c *racyConn) Close() error                      { return nil }

func TestPushSerializesConcurrentWriters(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := &racyConn{}
	hub.Register(1, conn)

	// Consumer напоминаний и воркер расшифровок пушат одному
	// пользователю одновременно.
	const perWriter = 200
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := hub.Push(1, map[string]string{"type": "reminder"}); err != nil {
					t.Errorf("не ожидали ошибку: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if atomic.LoadInt32(&conn.overlap) != 0 {
		t.Fatal("записи в одно соединение должны сериализоваться")
	}
	if got := atomic.LoadInt64(&conn.written); got != 2*perWriter {
		t.Fatalf("ожидали %d записей, получили %d", 2*perWriter, got)
	}
}

func TestUnregisterRemovesSession(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := &fakeConn{}
	hub.Register(1, conn)
	hub.Unregister(1, conn)

	if !conn.closed {
		t.Fatal("соединение должно закрываться при отписке")
	}
	if err := hub.Push(1, "x"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(conn.written) != 0 {
		t.Fatal("после отписки пуши не должны доставляться")
	}
}

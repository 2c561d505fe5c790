package web

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zamyatin-zkex/baseflow/internal/metrics"
)

const writeWait = time.Second

type keeper struct {
	mx     sync.RWMutex
	active map[*websocket.Conn]struct{}
}

func newKeeper() *keeper {
	return &keeper{
		active: make(map[*websocket.Conn]struct{}),
	}
}

func (k *keeper) addConn(conn *websocket.Conn) {
	k.mx.Lock()
	defer k.mx.Unlock()

	k.active[conn] = struct{}{}
	metrics.WebsocketClients.Set(float64(len(k.active)))
}

// broadcast writes data to every connection and drops the ones that fail.
// Writes are serialized by the keeper lock, gorilla allows one writer per conn.
func (k *keeper) broadcast(data []byte) {
	k.mx.Lock()
	defer k.mx.Unlock()

	for conn := range k.active {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			k.drop(conn)
		}
	}
}

func (k *keeper) send(conn *websocket.Conn, data []byte) error {
	k.mx.Lock()
	defer k.mx.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (k *keeper) count() int {
	k.mx.RLock()
	defer k.mx.RUnlock()

	return len(k.active)
}

func (k *keeper) close(conn *websocket.Conn) {
	k.mx.Lock()
	defer k.mx.Unlock()

	k.drop(conn)
}

func (k *keeper) drop(conn *websocket.Conn) {
	_ = conn.Close()
	delete(k.active, conn)
	metrics.WebsocketClients.Set(float64(len(k.active)))
}

func (k *keeper) keep(conn *websocket.Conn) {
	pinger := time.NewTicker(time.Second)
	defer pinger.Stop()

	var (
		aliveMx   sync.Mutex
		lastAlive = time.Now()
	)
	alive := func() {
		aliveMx.Lock()
		lastAlive = time.Now()
		aliveMx.Unlock()
	}
	const deadlineSeconds = 5
	read := make(chan msg)
	done := make(chan struct{})
	defer k.close(conn)
	defer close(done)

	ponger := conn.PongHandler()
	conn.SetPongHandler(func(appData string) error {
		alive()
		return ponger(appData)
	})

	go func() {
		defer close(read)
		for {
			mt, data, err := conn.ReadMessage()
			select {
			case read <- msg{mType: mt, data: data, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
			aliveMx.Lock()
			dead := time.Since(lastAlive).Seconds() > deadlineSeconds
			aliveMx.Unlock()
			if dead {
				return
			}
		case msg, ok := <-read:
			if !ok || msg.err != nil {
				return
			}
			if msg.mType == websocket.CloseMessage {
				return
			}
			alive()
		}
	}
}

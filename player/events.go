package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/vplayer/vplayer/log"
)

// EventCallback receives a property change (name, value) or an engine event (name, nil).
type EventCallback func(name string, data any)

// observed are the properties mpv pushes to the listener.
var observed = []string{"time-pos", "duration", "volume", "eof-reached", "video-params"}

// forwarded are the engine events the listener passes on.
var forwarded = map[string]bool{
	"file-loaded":      true,
	"playback-restart": true,
	"end-file":         true,
}

// EventListener holds a persistent connection to mpv on which properties are observed.
type EventListener struct {
	socketPath string
	callback   EventCallback

	mu   sync.Mutex
	conn net.Conn
	done chan struct{}
}

// NewEventListener creates a listener for the given socket.
func NewEventListener(socketPath string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
	}
}

// Start connects, subscribes to the observed properties and starts the read loop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.conn != nil {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	// observers live as long as the connection that registered them
	for i, name := range observed {
		payload, _ := json.Marshal(ipcCommand{Command: []any{"observe_property", i + 1, name}})
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.done = make(chan struct{})
	go el.readLoop(conn, el.done)

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection and waits for the read loop to return.
// No callback runs after Stop returns.
func (el *EventListener) Stop() {
	el.mu.Lock()
	conn, done := el.conn, el.done
	el.conn = nil
	el.mu.Unlock()

	if conn == nil {
		return
	}
	_ = conn.Close()
	<-done
}

// Done is closed when the read loop exits.
func (el *EventListener) Done() <-chan struct{} {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.done
}

func (el *EventListener) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			el.processEvent(line)
		}
		if err != nil {
			log.Debugf("mpv event listener stopped: %v", err)
			return
		}
	}
}

func (el *EventListener) processEvent(line []byte) {
	var msg ipcMessage
	if err := json.Unmarshal(line, &msg); err != nil || msg.Event == "" || el.callback == nil {
		return
	}

	switch {
	case msg.Event == "property-change" && msg.Name != "":
		el.callback(msg.Name, msg.Data)
	case msg.Event == "end-file":
		el.callback(msg.Event, msg.Reason)
	case forwarded[msg.Event]:
		el.callback(msg.Event, nil)
	}
}

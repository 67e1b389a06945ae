package player

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// fakeMPV is a minimal JSON-IPC server speaking mpv's line protocol.
type fakeMPV struct {
	t        *testing.T
	path     string
	ln       net.Listener
	mu       sync.Mutex
	commands [][]any
	props    map[string]any
	errors   map[string]string
	watchers []net.Conn
	wg       sync.WaitGroup
}

func newFakeMPV(t *testing.T) *fakeMPV {
	dir, err := os.MkdirTemp("", "vp")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}

	f := &fakeMPV{
		t:      t,
		path:   path,
		ln:     ln,
		props:  map[string]any{"volume": 100.0},
		errors: map[string]string{},
	}
	f.wg.Add(1)
	go f.accept()
	t.Cleanup(func() {
		f.close()
		_ = os.RemoveAll(dir)
	})
	return f
}

func (f *fakeMPV) accept() {
	defer f.wg.Done()
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.wg.Add(1)
		go f.serve(conn)
	}
}

func (f *fakeMPV) serve(conn net.Conn) {
	defer f.wg.Done()
	defer conn.Close()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var cmd ipcCommand
		if err := json.Unmarshal(line, &cmd); err != nil || len(cmd.Command) == 0 {
			continue
		}

		f.mu.Lock()
		f.commands = append(f.commands, cmd.Command)
		reply := ipcMessage{RequestID: cmd.RequestID, Error: "success"}
		switch cmd.Command[0] {
		case "observe_property":
			f.watchers = append(f.watchers, conn)
		case "get_property":
			name, _ := cmd.Command[1].(string)
			if msg, ok := f.errors[name]; ok {
				reply.Error = msg
			} else {
				reply.Data = f.props[name]
			}
		case "set_property":
			name, _ := cmd.Command[1].(string)
			f.props[name] = cmd.Command[2]
		}
		f.mu.Unlock()

		// an unrelated event and a stale reply precede the real answer
		_, _ = conn.Write([]byte(`{"event":"audio-reconfig"}` + "\n"))
		_, _ = conn.Write([]byte(`{"request_id":-7,"error":"success","data":"stale"}` + "\n"))
		out, _ := json.Marshal(reply)
		_, _ = conn.Write(append(out, '\n'))
	}
}

// emit pushes a raw event line to every observing connection.
func (f *fakeMPV) emit(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.watchers {
		_, _ = c.Write([]byte(line + "\n"))
	}
}

func (f *fakeMPV) set(name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.props[name] = value
}

func (f *fakeMPV) watching() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers) > 0
}

func (f *fakeMPV) sent(name string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]any
	for _, c := range f.commands {
		if c[0] == name {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeMPV) close() {
	_ = f.ln.Close()
	f.mu.Lock()
	for _, c := range f.watchers {
		_ = c.Close()
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func (f *fakeMPV) prop(name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.props[name]
}

func (f *fakeMPV) fail(name, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[name] = msg
}

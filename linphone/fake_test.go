package linphone_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ghettovoice/doorphone/linphone"
)

var errKilled = errors.New("signal: killed")

// outputBuffer is an unbounded pipe: writes never block, reads block until data or close.
type outputBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    bytes.Buffer
	closed bool
}

func newOutputBuffer() *outputBuffer {
	b := &outputBuffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	n, _ := b.buf.Write(p)
	b.cond.Broadcast()
	return n, nil
}

func (b *outputBuffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.buf.Len() == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.buf.Len() == 0 {
		return 0, io.EOF
	}
	return b.buf.Read(p)
}

func (b *outputBuffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

// fakeClient emulates linphonec: every command line is echoed after the prompt
// followed by the scripted response.
type fakeClient struct {
	pid int
	out *outputBuffer

	mu         sync.Mutex
	raw        strings.Builder
	cmds       []string
	register   string
	hook       string
	silent     bool
	ignoreQuit bool

	exitOnce sync.Once
	exited   chan struct{}
	exitErr  error

	// writes attempted after exit
	lateWrites atomic.Int32
}

func newFakeClient(pid int) *fakeClient {
	c := &fakeClient{
		pid:      pid,
		out:      newOutputBuffer(),
		exited:   make(chan struct{}),
		register: "registered=0",
		hook:     "hook=offhook",
	}
	c.out.Write([]byte(linphone.DefaultPrompt)) //nolint:errcheck
	return c
}

func (c *fakeClient) Write(p []byte) (int, error) {
	select {
	case <-c.exited:
		c.lateWrites.Add(1)
		return 0, io.ErrClosedPipe
	default:
	}

	c.mu.Lock()
	c.raw.Write(p)
	var quit bool
	var reply strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(string(p), "\n"), "\n") {
		cmd := strings.TrimSpace(line)
		c.cmds = append(c.cmds, cmd)
		if cmd == "quit" {
			quit = !c.ignoreQuit
			continue
		}
		if c.silent {
			continue
		}
		reply.WriteString(cmd + "\n")
		switch cmd {
		case "status register":
			reply.WriteString(c.register + "\n")
		case "status hook":
			reply.WriteString(c.hook + "\n")
		}
		reply.WriteString(linphone.DefaultPrompt)
	}
	c.mu.Unlock()

	c.out.Write([]byte(reply.String())) //nolint:errcheck
	if quit {
		c.exit(nil)
	}
	return len(p), nil
}

func (c *fakeClient) Output() io.Reader { return c.out }

func (c *fakeClient) Wait() error {
	<-c.exited
	return c.exitErr
}

func (c *fakeClient) Kill() error {
	c.exit(errKilled)
	return nil
}

func (c *fakeClient) Pid() int { return c.pid }

func (c *fakeClient) exit(err error) {
	c.exitOnce.Do(func() {
		c.exitErr = err
		c.out.Close()
		close(c.exited)
	})
}

func (c *fakeClient) set(fn func(c *fakeClient)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

func (c *fakeClient) commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.cmds...)
}

func (c *fakeClient) count(cmd string) int {
	n := 0
	for _, s := range c.commands() {
		if s == cmd {
			n++
		}
	}
	return n
}

func (c *fakeClient) written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw.String()
}

// fakeSpawner hands out fake clients and keeps them in spawn order.
type fakeSpawner struct {
	failures atomic.Int32
	setup    func(c *fakeClient)

	mu      sync.Mutex
	clients []*fakeClient
	calls   int
	name    string
	args    []string
}

func (s *fakeSpawner) Spawn(_ context.Context, name string, args ...string) (linphone.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.name, s.args = name, args
	if s.failures.Load() > 0 {
		s.failures.Add(-1)
		return nil, errors.New("exec: executable file not found in $PATH")
	}

	c := newFakeClient(1000 + len(s.clients))
	if s.setup != nil {
		s.setup(c)
	}
	s.clients = append(s.clients, c)
	return c, nil
}

func (s *fakeSpawner) client(i int) *fakeClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.clients) {
		return nil
	}
	return s.clients[i]
}

func (s *fakeSpawner) spawned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *fakeSpawner) spawnCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

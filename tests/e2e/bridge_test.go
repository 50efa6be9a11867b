package e2e

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/tinyland-inc/bridgeclaw/pkg/delivery"
	"github.com/tinyland-inc/bridgeclaw/pkg/queue"
	"github.com/tinyland-inc/bridgeclaw/pkg/router"
	"github.com/tinyland-inc/bridgeclaw/pkg/server"
	"github.com/tinyland-inc/bridgeclaw/pkg/threads"
)

// The e2e scenario runs the whole pipeline with an in-memory queue and a fake
// chat platform: TCP bytes in, thread messages out, replies back on the same
// socket.

type memoryQueue struct {
	items chan queue.Item
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{items: make(chan queue.Item, 64)}
}

func (q *memoryQueue) Enqueue(_ context.Context, item queue.Item) error {
	q.items <- item
	return nil
}

func (q *memoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (queue.Item, bool, error) {
	select {
	case item := <-q.items:
		return item, true, nil
	case <-time.After(timeout):
		return queue.Item{}, false, nil
	case <-ctx.Done():
		return queue.Item{}, false, ctx.Err()
	}
}

func (q *memoryQueue) Close() error { return nil }

type fakeChat struct {
	mu      sync.Mutex
	threads map[string][]threads.Thread // channelID -> active threads
	sent    map[string][]string         // threadID -> messages
	nextID  int
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		threads: make(map[string][]threads.Thread),
		sent:    make(map[string][]string),
	}
}

func (f *fakeChat) ActiveThreads(_ context.Context, channelID string) ([]threads.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]threads.Thread(nil), f.threads[channelID]...), nil
}

func (f *fakeChat) CreateThread(_ context.Context, channelID, name string) (threads.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	th := threads.Thread{ID: fmt.Sprintf("t%d", f.nextID), Name: name, CreatedAt: time.Now()}
	f.threads[channelID] = append(f.threads[channelID], th)
	return th, nil
}

func (f *fakeChat) Send(_ context.Context, threadID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[threadID] = append(f.sent[threadID], text)
	return "m1", nil
}

func (f *fakeChat) ArchivedThreads(_ context.Context, channelID string) ([]threads.Thread, error) {
	return nil, nil
}

func (f *fakeChat) DeleteThread(_ context.Context, threadID string) error { return nil }

func (f *fakeChat) messages(threadID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent[threadID]...)
}

func (f *fakeChat) findThread(channelID, name string) (threads.Thread, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, th := range f.threads[channelID] {
		if th.Name == name {
			return th, true
		}
	}
	return threads.Thread{}, false
}

type bridge struct {
	addr   string
	chat   *fakeChat
	routes *router.Router
}

func startBridge(t *testing.T) *bridge {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	q := newMemoryQueue()
	chat := newFakeChat()
	routes := router.New()

	srv := server.New(q, routes, nil, "bridge", 1<<20)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve(ctx, ln)

	consumer := delivery.NewConsumer(q, chat, routes, "main-channel")
	go consumer.Run(ctx)

	return &bridge{addr: ln.Addr().String(), chat: chat, routes: routes}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestBridge_JSONPayloadReachesThread(t *testing.T) {
	b := startBridge(t)

	conn, err := net.Dial("tcp", b.addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.Write([]byte(`{"thread":"raid-42","message":"boss down"}`))

	day := time.Now().UTC().Format("2006-01-02")
	name := fmt.Sprintf("bridge-%s-raid-42", day)

	var th threads.Thread
	waitUntil(t, "thread creation", func() bool {
		var ok bool
		th, ok = b.chat.findThread("main-channel", name)
		return ok
	})
	waitUntil(t, "message delivery", func() bool {
		msgs := b.chat.messages(th.ID)
		return len(msgs) == 1 && msgs[0] == "boss down"
	})
}

func TestBridge_PlainTextGoesToDefaultThread(t *testing.T) {
	b := startBridge(t)

	conn, err := net.Dial("tcp", b.addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.Write([]byte("server started on map de_dust2\n"))

	day := time.Now().UTC().Format("2006-01-02")
	name := fmt.Sprintf("bridge-%s-default", day)

	var th threads.Thread
	waitUntil(t, "default thread creation", func() bool {
		var ok bool
		th, ok = b.chat.findThread("main-channel", name)
		return ok
	})
	waitUntil(t, "message delivery", func() bool {
		msgs := b.chat.messages(th.ID)
		return len(msgs) == 1 && msgs[0] == "server started on map de_dust2"
	})
}

func TestBridge_BidirectionalReplyRoundTrip(t *testing.T) {
	b := startBridge(t)

	conn, err := net.Dial("tcp", b.addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.Write([]byte(`{"thread":"console","message":"awaiting orders","isBidirectional":true}`))

	day := time.Now().UTC().Format("2006-01-02")
	name := fmt.Sprintf("bridge-%s-console", day)

	var th threads.Thread
	waitUntil(t, "thread creation", func() bool {
		var ok bool
		th, ok = b.chat.findThread("main-channel", name)
		return ok
	})
	waitUntil(t, "reply route binding", func() bool {
		return b.routes.Bindings() == 1
	})

	// A human types in the thread; the reply handler routes it back.
	if !b.routes.RouteReply(th.ID, "!restart\n") {
		t.Fatal("reply was not routed")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("reading reply: %v", err)
	}
	if line != "!restart\n" {
		t.Errorf("reply = %q, want %q", line, "!restart\n")
	}
}

func TestBridge_InterleavedClientsKeepSeparateThreads(t *testing.T) {
	b := startBridge(t)

	connA, err := net.Dial("tcp", b.addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer connA.Close()
	connB, err := net.Dial("tcp", b.addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer connB.Close()

	connA.Write([]byte(`{"thread":"alpha","message":"from A"}`))
	connB.Write([]byte(`{"thread":"beta","message":"from B"}`))

	day := time.Now().UTC().Format("2006-01-02")

	var thA, thB threads.Thread
	waitUntil(t, "both threads", func() bool {
		var okA, okB bool
		thA, okA = b.chat.findThread("main-channel", fmt.Sprintf("bridge-%s-alpha", day))
		thB, okB = b.chat.findThread("main-channel", fmt.Sprintf("bridge-%s-beta", day))
		return okA && okB
	})
	waitUntil(t, "both deliveries", func() bool {
		return len(b.chat.messages(thA.ID)) == 1 && len(b.chat.messages(thB.ID)) == 1
	})

	if got := b.chat.messages(thA.ID)[0]; got != "from A" {
		t.Errorf("thread alpha got %q", got)
	}
	if got := b.chat.messages(thB.ID)[0]; got != "from B" {
		t.Errorf("thread beta got %q", got)
	}
}

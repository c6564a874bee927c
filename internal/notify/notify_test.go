package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/jimdaga/autoposter/internal/logging"
)

func TestRender(t *testing.T) {
	o := Outcome{
		ScheduleName:  "daily",
		Status:        "success",
		PublishStatus: "draft",
		Title:         "Hello",
		URL:           "https://blog/?p=1",
		Keyword:       "go",
	}
	got := Render("{status}: {title} ({keyword}) {url} {unknown}", o)
	want := "draft: Hello (go) https://blog/?p=1 {unknown}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	failed := Outcome{ScheduleName: "daily", Status: "error", Error: "publish failed"}
	if got := Render("{schedule} {status} {error}", failed); got != "daily error publish failed" {
		t.Errorf("unexpected error render %q", got)
	}

	if got := Render("", o); got != "[draft] daily\nHello\nhttps://blog/?p=1" {
		t.Errorf("unexpected default render %q", got)
	}
}

func TestChatworkFanOutContinuesAfterFailure(t *testing.T) {
	var mu sync.Mutex
	var rooms []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-ChatWorkToken") != "cw-token" {
			t.Errorf("missing token header")
		}
		r.ParseForm()
		mu.Lock()
		rooms = append(rooms, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/rooms/bad/messages" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.PostForm.Get("body") != "done: T" {
			t.Errorf("unexpected body %q", r.PostForm.Get("body"))
		}
		w.Write([]byte(`{"message_id":"1"}`))
	}))
	defer server.Close()

	n := NewChatworkNotifier(server.URL+"/", "cw-token", logging.Discard())
	n.Notify(context.Background(), Outcome{Status: "success", Title: "T", Rooms: "111, bad ,222,", Template: "done: {title}"})

	want := []string{"/rooms/111/messages", "/rooms/bad/messages", "/rooms/222/messages"}
	if len(rooms) != len(want) {
		t.Fatalf("expected %d requests, got %v", len(want), rooms)
	}
	for i := range want {
		if rooms[i] != want[i] {
			t.Errorf("request %d: got %s, want %s", i, rooms[i], want[i])
		}
	}
}

func TestChatworkSkipsWithoutRoomsOrToken(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	NewChatworkNotifier(server.URL, "tok", logging.Discard()).Notify(context.Background(), Outcome{})
	NewChatworkNotifier(server.URL, "", logging.Discard()).Notify(context.Background(), Outcome{Rooms: "1"})
	if called {
		t.Error("expected no requests")
	}
}

type recordingNotifier struct{ got []Outcome }

func (r *recordingNotifier) Notify(_ context.Context, o Outcome) { r.got = append(r.got, o) }

func TestMultiNotifiesAll(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	Multi{a, Nop{}, b}.Notify(context.Background(), Outcome{RunID: "r1"})
	if len(a.got) != 1 || len(b.got) != 1 || b.got[0].RunID != "r1" {
		t.Errorf("expected both sinks notified, got %v %v", a.got, b.got)
	}
}

func TestStreamNotifierUnreachableRedisIsNonFatal(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	s := NewStreamNotifierFromClient(rdb, logging.Discard())
	defer s.Close()

	s.Notify(context.Background(), Outcome{RunID: "r1"})
	if _, err := s.Publish(context.Background(), Outcome{RunID: "r1"}); err == nil {
		t.Error("expected publish error against unreachable redis")
	}
}

func TestDecodeOutcome(t *testing.T) {
	o, err := decodeOutcome(redis.XMessage{ID: "1-0", Values: map[string]interface{}{
		"payload": `{"run_id":"r9","status":"success","url":"https://x"}`,
	}})
	if err != nil {
		t.Fatalf("decodeOutcome: %v", err)
	}
	if o.RunID != "r9" || o.URL != "https://x" {
		t.Errorf("unexpected outcome %+v", o)
	}
	if _, err := decodeOutcome(redis.XMessage{Values: map[string]interface{}{}}); err == nil {
		t.Error("expected error for missing payload")
	}
}

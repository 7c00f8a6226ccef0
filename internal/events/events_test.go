package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hbnb-api/internal/models"

	"github.com/gorilla/websocket"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	ok := &recorder{}
	bad := &recorder{err: errors.New("broker down")}

	ev := New(Created, &models.State{Base: models.Base{ID: "s1"}}, nil)
	err := Multi{bad, ok}.Publish(context.Background(), ev)

	if err == nil || !strings.Contains(err.Error(), "broker down") {
		t.Fatalf("expected joined error, got=%v", err)
	}
	if len(ok.got) != 1 || len(bad.got) != 1 {
		t.Fatalf("expected both publishers to be called")
	}
	if ok.got[0].Kind != models.KindState || ok.got[0].ID != "s1" {
		t.Fatalf("unexpected event: %+v", ok.got[0])
	}
}

func TestRoutingKey(t *testing.T) {
	ev := New(Linked, &models.Place{Base: models.Base{ID: "p1"}}, nil)
	if got := RoutingKey(ev); got != "place.linked" {
		t.Fatalf("RoutingKey = %q", got)
	}
}

func TestHub_BroadcastsToSubscribers(t *testing.T) {
	hub := NewHub()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register("c1", conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Len() != 1 {
		t.Fatalf("expected one subscriber")
	}

	ev := New(Deleted, &models.Amenity{Base: models.Base{ID: "a1"}}, nil)
	if err := hub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != Deleted || got.Kind != models.KindAmenity || got.ID != "a1" {
		t.Fatalf("unexpected event: %+v", got)
	}

	hub.Close()
	if hub.Len() != 0 {
		t.Fatalf("expected no subscribers after Close")
	}
}

package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	viewer := hub.Register("session-1")
	defer hub.Unregister(viewer)

	payload := []byte("hello")
	hub.Broadcast("session-1", payload)

	select {
	case msg := <-viewer.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubHelpers(t *testing.T) {
	ch := liveChannel("abc")
	if ch == "" {
		t.Fatalf("expected channel")
	}
	if sessionIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected session id")
	}
	if sessionIDFromChannel("bad") != "" {
		t.Fatalf("expected empty session id")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	viewer := hub.Register("session-2")
	hub.Unregister(viewer)
	_, ok := <-viewer.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestBroadcastConcurrentWithUnregister(t *testing.T) {
	hub := NewHub(nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// viewers churn while the tracking path keeps broadcasting
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			v := hub.Register("session-churn")
			hub.Unregister(v)
		}
		close(stop)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.Broadcast("session-churn", []byte("tick"))
			}
		}
	}()

	wg.Wait()
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	viewer := hub.Register("session-redis")
	defer hub.Unregister(viewer)

	hub.Broadcast("session-redis", []byte("ping"))

	select {
	case msg := <-viewer.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// ensure subscribeRedis forwards redis publish (subscribe uses literal channel string)
	starViewer := hub.Register("*")
	defer hub.Unregister(starViewer)

	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), "session:*:live", "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-starViewer.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	viewer := hub.Register("session-bad")
	defer hub.Unregister(viewer)

	hub.Broadcast("session-bad", []byte("ping"))
}

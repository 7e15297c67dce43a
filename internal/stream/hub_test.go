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
	client := hub.Register("veh-01")
	defer hub.Unregister(client)

	payload := []byte("hello")
	hub.Broadcast("veh-01", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != "hello" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("veh-01")
	if ch == "" {
		t.Fatalf("expected channel")
	}
	if vehicleIDFromChannel(ch) != "veh-01" {
		t.Fatalf("unexpected vehicle id")
	}
	if vehicleIDFromChannel("bad") != "" {
		t.Fatalf("expected empty vehicle id")
	}
}

func TestConcurrentBroadcastAndUnregister(t *testing.T) {
	hub := NewHub(nil)

	keeper := hub.Register("veh-01")
	drained := make(chan struct{})
	go func() {
		for range keeper.Send {
		}
		close(drained)
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			hub.Broadcast("veh-01", []byte("tick"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			client := hub.Register("veh-01")
			hub.Unregister(client)
		}
	}()
	wg.Wait()

	hub.Unregister(keeper)
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatalf("keeper channel never closed")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("veh-02")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("veh-redis")
	defer hub.Unregister(ws)

	hub.Broadcast("veh-redis", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// a publish from another instance reaches local subscribers via redis
	remote := hub.Register("veh-remote")
	defer hub.Unregister(remote)

	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), redisChannel("veh-remote"), "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-remote.Send:
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
	clientNode := hub.Register("veh-bad")
	defer hub.Unregister(clientNode)

	hub.Broadcast("veh-bad", []byte("ping"))
}

package service_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	collabout "peerpad/internal/modules/collab/port/out"
	"peerpad/internal/modules/collab/service"
	"peerpad/internal/platform/clock"
	"peerpad/internal/platform/config"
	"peerpad/internal/platform/id"
)

func newLoopService(t *testing.T, username string, events collabout.Events) *service.NetworkService {
	t.Helper()
	cfg, err := config.New(username, t.TempDir())
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Interface = "127.0.0.1"
	cfg.Port = 0
	cfg.PollTimeout = 20 * time.Millisecond
	return service.NewNetworkService(cfg, hclog.NewNullLogger(), clock.SystemClock{}, id.RandomHex{}, events, nil)
}

func listenPort(t *testing.T, s *service.NetworkService) int {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if addr := s.Status().ListenAddr; addr != "" {
			_, portRaw, err := net.SplitHostPort(addr)
			if err != nil {
				t.Fatalf("parse listen addr %q: %v", addr, err)
			}
			port, err := strconv.Atoi(portRaw)
			if err != nil {
				t.Fatalf("parse listen port %q: %v", portRaw, err)
			}
			return port
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("service never published its listen address")
	return 0
}

func waitFor(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

// Two nodes on loopback: one shares a project, the other joins it, and a chat
// line crosses the wire.
func TestTwoNodesHandshakeAndChat(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hostJoins := make(chan string, 4)
	hostChats := make(chan string, 4)
	host := newLoopService(t, "alice", collabout.Events{
		OnUserJoined: func(_, username string) { hostJoins <- username },
		OnChatReceived: func(_, username, text string) { hostChats <- username + ": " + text },
	})

	guestJoins := make(chan string, 4)
	guest := newLoopService(t, "bob", collabout.Events{
		OnUserJoined: func(_, username string) { guestJoins <- username },
	})

	hostDone := make(chan error, 1)
	go func() { hostDone <- host.Run(ctx) }()
	guestDone := make(chan error, 1)
	go func() { guestDone <- guest.Run(ctx) }()

	if err := host.ShareProject("proj", "pw", true); err != nil {
		t.Fatalf("share: %v", err)
	}
	port := listenPort(t, host)
	if err := guest.Connect("127.0.0.1", port, "proj", "pw", true); err != nil {
		t.Fatalf("connect: %v", err)
	}

	waitFor(t, hostJoins, "bob")
	waitFor(t, guestJoins, "alice")

	if err := guest.SendChat("proj", "hello from bob"); err != nil {
		t.Fatalf("chat: %v", err)
	}
	waitFor(t, hostChats, "bob: hello from bob")

	cancel()
	for _, done := range []chan error{hostDone, guestDone} {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("loop did not stop")
		}
	}
}

// A joiner with the wrong password is denied and never admitted.
func TestJoinDeniedWithWrongPassword(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hostJoins := make(chan string, 4)
	host := newLoopService(t, "alice", collabout.Events{
		OnUserJoined: func(_, username string) { hostJoins <- username },
	})
	guestErrs := make(chan string, 4)
	guest := newLoopService(t, "mallory", collabout.Events{
		OnError: func(message string) { guestErrs <- message },
	})

	hostDone := make(chan error, 1)
	go func() { hostDone <- host.Run(ctx) }()
	guestDone := make(chan error, 1)
	go func() { guestDone <- guest.Run(ctx) }()

	if err := host.ShareProject("proj", "pw", true); err != nil {
		t.Fatalf("share: %v", err)
	}
	port := listenPort(t, host)
	if err := guest.Connect("127.0.0.1", port, "proj", "wrong", true); err != nil {
		t.Fatalf("connect: %v", err)
	}

	select {
	case msg := <-guestErrs:
		if msg == "" {
			t.Fatalf("empty denial message")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("denial never surfaced")
	}
	select {
	case username := <-hostJoins:
		t.Fatalf("denied user %q was admitted", username)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	<-hostDone
	<-guestDone
}

package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/pstest"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/talentline/apiserver/config"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestOpen_Disabled(t *testing.T) {
	for _, backend := range []string{"", "none"} {
		m, err := Open(context.Background(), config.MQConfig{Backend: backend})
		if err != nil || m != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", backend, m, err)
		}
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	tests := []config.MQConfig{
		{Backend: "kafka"},
		{Backend: "rabbitmq"},
		{Backend: "pubsub"},
	}
	for _, cfg := range tests {
		if _, err := Open(context.Background(), cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestHeadersToAttributes(t *testing.T) {
	if headersToAttributes(nil) != nil {
		t.Fatal("expected nil for empty headers")
	}
	attrs := headersToAttributes(amqp.Table{
		"type":    "application.submitted",
		"raw":     []byte("bytes"),
		"attempt": int32(2),
	})
	if attrs["type"] != "application.submitted" || attrs["raw"] != "bytes" || attrs["attempt"] != "2" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}

func TestPubSubBackend_RoundTrip(t *testing.T) {
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial fake pubsub: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, err := newPubSubBackend(ctx, config.PubSubConfig{ProjectID: "test-project"}, option.WithGRPCConn(conn))
	if err != nil {
		t.Fatalf("newPubSubBackend: %v", err)
	}
	m := New("pubsub", backend)

	// Subscribing first creates the subscription so the publish is retained.
	received := make(chan Message, 1)
	subCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- m.Subscribe(subCtx, "application-events", func(_ context.Context, msg Message) error {
			select {
			case received <- msg:
			default:
			}
			return nil
		})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		exists, err := backend.client.Subscription("application-events-sub").Exists(ctx)
		if err == nil && exists {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscription was not created")
		}
		time.Sleep(20 * time.Millisecond)
	}

	id, err := m.Publish(ctx, "application-events", []byte(`{"type":"application.submitted"}`), map[string]string{"type": "application.submitted"})
	if err != nil || id == "" {
		t.Fatalf("Publish = %q, %v", id, err)
	}

	select {
	case msg := <-received:
		if string(msg.Data) != `{"type":"application.submitted"}` || msg.Attributes["type"] != "application.submitted" {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}

	stop()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Subscribe returned %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

package events

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/paperlords/admin-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatermillEventPublisher_DeliversJSON(t *testing.T) {
	logger := testLogger()
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, watermill.NewSlogLogger(logger))
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, DefaultTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	publisher := NewWatermillEventPublisher(pubSub, "", logger)
	paper := &models.Paper{ID: "9b7c8a2e-4f1d-4c7e-9a65-1f2e3d4c5b6a", Title: "Physics P1"}
	event := NewPaperEvent(PaperCreated, paper, "admin-1")

	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		if msg.UUID != event.ID {
			t.Errorf("message UUID = %q, want %q", msg.UUID, event.ID)
		}
		if got := msg.Metadata.Get("event_type"); got != PaperCreated {
			t.Errorf("event_type metadata = %q, want %q", got, PaperCreated)
		}

		var decoded struct {
			Type string `json:"type"`
			Data struct {
				PaperID string `json:"paperId"`
				AdminID string `json:"adminId"`
			} `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
			t.Fatalf("payload is not JSON: %v", err)
		}
		if decoded.Type != PaperCreated || decoded.Data.PaperID != paper.ID || decoded.Data.AdminID != "admin-1" {
			t.Errorf("decoded payload = %+v", decoded)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestNewEventPublisher_Backends(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name    string
		cfg     PublisherConfig
		wantErr bool
	}{
		{"default is gochannel", PublisherConfig{}, false},
		{"gochannel", PublisherConfig{Backend: BackendGoChannel}, false},
		{"none", PublisherConfig{Backend: BackendNone}, false},
		{"kafka without brokers", PublisherConfig{Backend: BackendKafka}, true},
		{"unknown", PublisherConfig{Backend: "carrier-pigeon"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewEventPublisher(tt.cfg, logger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEventPublisher() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer p.Close()
			if err := p.Publish(context.Background(), NewPaperEvent(PaperDeleted, nil, "admin-1")); err != nil {
				t.Errorf("Publish() error = %v", err)
			}
		})
	}
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	_ = mock.Publish(ctx, NewPaperEvent(PaperCreated, &models.Paper{ID: "a"}, "admin-1"))
	_ = mock.Publish(ctx, NewPaperEvent(PaperUpdated, &models.Paper{ID: "a"}, "admin-1"))

	events := mock.GetPublishedEvents()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Source != EventSource || events[0].Version != EventVersion || events[0].Timestamp.IsZero() {
		t.Errorf("unexpected envelope %+v", events[0])
	}

	mock.ClearEvents()
	if len(mock.GetPublishedEvents()) != 0 {
		t.Error("ClearEvents() did not clear")
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewEventPublisher_GoChannelFeedsAuditLog(t *testing.T) {
	var out lockedBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	p, err := NewEventPublisher(PublisherConfig{Backend: BackendGoChannel}, logger)
	if err != nil {
		t.Fatalf("NewEventPublisher() error = %v", err)
	}
	defer p.Close()

	paper := &models.Paper{ID: "9b7c8a2e-4f1d-4c7e-9a65-1f2e3d4c5b6a"}
	if err := p.Publish(context.Background(), NewPaperEvent(PaperUpdated, paper, "admin-7")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		logged := out.String()
		if strings.Contains(logged, "Catalog event") &&
			strings.Contains(logged, "event_type="+PaperUpdated) &&
			strings.Contains(logged, "paper_id="+paper.ID) &&
			strings.Contains(logged, "admin_id=admin-7") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("audit log line not written, got:\n%s", out.String())
}

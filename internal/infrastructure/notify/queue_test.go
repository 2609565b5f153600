package notify

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"esilogis/internal/ports"
)

func TestInlineQueueCallsHandler(t *testing.T) {
	var got []ports.MailJob
	queue := NewInlineQueue(func(_ context.Context, job ports.MailJob) error {
		got = append(got, job)
		return nil
	})

	if err := queue.Enqueue(context.Background(), ports.MailJob{NotificationID: 3, To: "a@example.com"}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if len(got) != 1 || got[0].NotificationID != 3 {
		t.Fatalf("handler got %+v", got)
	}
}

func TestInlineQueuePropagatesHandlerError(t *testing.T) {
	boom := errors.New("smtp down")
	queue := NewInlineQueue(func(context.Context, ports.MailJob) error { return boom })

	if err := queue.Enqueue(context.Background(), ports.MailJob{}); !errors.Is(err, boom) {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err := NewInlineQueue(nil).Enqueue(context.Background(), ports.MailJob{}); err == nil {
		t.Fatalf("Enqueue() without handler expected error")
	}
}

func TestLogMailerNeverFails(t *testing.T) {
	if err := (LogMailer{}).Send(context.Background(), ports.MailJob{To: "a@example.com"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestNATSQueueRoundTrip(t *testing.T) {
	url := os.Getenv("ESILOGIS_TEST_NATS_URL")
	if url == "" {
		t.Skip("ESILOGIS_TEST_NATS_URL not set")
	}

	queue, err := NewNATSQueue(NATSConfig{URL: url, Subject: "esilogis.test.mail", QueueGroup: "test"})
	if err != nil {
		t.Fatalf("NewNATSQueue() error = %v", err)
	}
	t.Cleanup(func() {
		_ = queue.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan ports.MailJob, 1)
	done := make(chan error, 1)
	go func() {
		done <- queue.Consume(ctx, func(_ context.Context, job ports.MailJob) error {
			select {
			case received <- job:
			default:
			}
			return nil
		})
	}()

	deadline := time.After(5 * time.Second)
	for {
		if err := queue.Enqueue(context.Background(), ports.MailJob{NotificationID: 9, To: "a@example.com"}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
		select {
		case job := <-received:
			if job.NotificationID != 9 {
				t.Fatalf("received job %+v", job)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Consume() error = %v", err)
			}
			return
		case <-time.After(100 * time.Millisecond):
		case <-deadline:
			cancel()
			t.Fatalf("no job received")
		}
	}
}

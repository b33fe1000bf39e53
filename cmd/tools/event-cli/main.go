package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/annel0/blockpush/internal/eventbus"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "2006-01-02T15:04:05Z"
)

func main() {
	var (
		natsURL    = flag.String("nats", defaultNatsURL, "NATS server URL")
		stream     = flag.String("stream", "EVENTS", "JetStream stream name")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sources    = flag.String("sources", "", "Event sources filter (comma-separated)")
		session    = flag.String("session", "", "Session ID filter")
		limit      = flag.Int("limit", 0, "Stop after N events (0 = follow until Ctrl+C)")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, eventbus.JetStreamOptions{Stream: *stream})
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tailEvents(ctx, stop, bus, &TailOptions{
		EventTypes: parseStringList(*eventTypes),
		Sources:    parseStringList(*sources),
		SessionID:  *session,
		Limit:      int64(*limit),
	}); err != nil {
		log.Fatalf("❌ Tail failed: %v", err)
	}
}

type TailOptions struct {
	EventTypes []string
	Sources    []string
	SessionID  string
	Limit      int64
}

// tailEvents выводит новые события до отмены ctx или достижения лимита
func tailEvents(ctx context.Context, stop context.CancelFunc, bus eventbus.EventBus, opts *TailOptions) error {
	fmt.Printf("🎬 Tailing events (types: %v, limit: %d)\n", opts.EventTypes, opts.Limit)

	var count int64
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: opts.EventTypes, Sources: opts.Sources}, func(_ context.Context, ev *eventbus.Envelope) {
		if opts.SessionID != "" && ev.CorrelationID != opts.SessionID {
			return
		}
		printEvent(os.Stdout, ev)
		if n := atomic.AddInt64(&count, 1); opts.Limit > 0 && n >= opts.Limit {
			stop()
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	fmt.Printf("📊 Received %d events\n", atomic.LoadInt64(&count))
	return nil
}

func printEvent(out *os.File, ev *eventbus.Envelope) {
	fmt.Fprintf(out, "[%s] %-18s %-8s session=%s %s\n",
		ev.Timestamp.UTC().Format(timeFormat),
		ev.EventType,
		ev.Source,
		shortID(ev.CorrelationID),
		ev.Payload,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

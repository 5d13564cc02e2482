package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/annel0/transport-game/internal/eventbus"
)

const timeFormat = "2006-01-02T15:04:05Z"

func main() {
	var (
		natsURL    = flag.String("nats", nats.DefaultURL, "NATS server URL")
		stream     = flag.String("stream", "MAPEVENTS", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated: tile_changed,roadworks…)")
		since      = flag.String("since", "", "Replay history since duration (e.g. 1h, 30m); empty = only new events")
		limit      = flag.Int("limit", 0, "Stop after N events (0 = unlimited)")
		raw        = flag.Bool("raw", false, "Print raw JSON envelopes")
	)
	flag.Parse()

	nc, err := nats.Connect(*natsURL)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к NATS %s: %v", *natsURL, err)
	}
	defer nc.Drain()

	js, err := nc.JetStream()
	if err != nil {
		log.Fatalf("❌ JetStream недоступен: %v", err)
	}

	switch *command {
	case "tail":
		if err := tailEvents(js, &tailOptions{
			Stream: *stream,
			Types:  parseStringList(*eventTypes),
			Since:  *since,
			Limit:  *limit,
			Raw:    *raw,
		}); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "stats":
		if err := showStats(js, *stream); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats")
		os.Exit(1)
	}
}

type tailOptions struct {
	Stream string
	Types  []string
	Since  string
	Limit  int
	Raw    bool
}

// tailEvents подписывается на map.* и выводит события в реальном времени.
// Один тип в фильтре сужает subject; несколько типов фильтруются на клиенте.
func tailEvents(js nats.JetStreamContext, opts *tailOptions) error {
	subj := "map.*"
	if len(opts.Types) == 1 {
		subj = "map." + opts.Types[0]
	}

	subOpts := []nats.SubOpt{nats.BindStream(opts.Stream), nats.OrderedConsumer()}
	if opts.Since != "" {
		d, err := time.ParseDuration(opts.Since)
		if err != nil {
			return fmt.Errorf("invalid since duration: %w", err)
		}
		subOpts = append(subOpts, nats.StartTime(time.Now().Add(-d)))
	} else {
		subOpts = append(subOpts, nats.DeliverNew())
	}

	fmt.Printf("🎬 Tailing %s (stream %s, limit: %d)\n", subj, opts.Stream, opts.Limit)

	var count int64
	done := make(chan struct{})

	sub, err := js.Subscribe(subj, func(msg *nats.Msg) {
		var ev eventbus.Envelope
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fmt.Printf("⚠️ Непарсящееся сообщение на %s: %v\n", msg.Subject, err)
			return
		}
		if !matchTypes(ev.EventType, opts.Types) {
			return
		}
		if opts.Raw {
			fmt.Println(string(msg.Data))
		} else {
			printEvent(&ev)
		}
		if n := atomic.AddInt64(&count, 1); opts.Limit > 0 && n == int64(opts.Limit) {
			close(done)
		}
	}, subOpts...)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subj, err)
	}
	defer sub.Unsubscribe()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-done:
	}

	fmt.Printf("\n📊 Total events: %d\n", atomic.LoadInt64(&count))
	return nil
}

// showStats печатает состояние стрима: сколько событий накоплено по subject'ам.
func showStats(js nats.JetStreamContext, stream string) error {
	info, err := js.StreamInfo(stream, &nats.StreamInfoRequest{SubjectsFilter: "map.*"})
	if err != nil {
		return fmt.Errorf("stream info: %w", err)
	}

	fmt.Printf("📊 Stream %s\n", info.Config.Name)
	fmt.Printf("Total messages: %d (%d bytes)\n", info.State.Msgs, info.State.Bytes)
	if !info.State.FirstTime.IsZero() {
		fmt.Printf("Period: %s - %s\n",
			info.State.FirstTime.UTC().Format(timeFormat),
			info.State.LastTime.UTC().Format(timeFormat))
	}

	if len(info.State.Subjects) > 0 {
		fmt.Println("\nBy subject:")
		for subj, n := range info.State.Subjects {
			fmt.Printf("  %s: %d events\n", subj, n)
		}
	}
	return nil
}

// printEvent выводит конверт в читаемом формате с деталями payload'а.
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s [%s] prio=%d %s\n",
		ev.Timestamp.Format("15:04:05"),
		ev.Source,
		ev.EventType,
		ev.Priority,
		ev.ID)

	switch ev.EventType {
	case eventbus.EventTileChanged:
		var p eventbus.TileChangedPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			fmt.Printf("  Tile: (%d,%d) kind=%s\n", p.X, p.Y, p.Kind)
		}
	case eventbus.EventRegionSaved:
		var p eventbus.RegionSavedPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			fmt.Printf("  Region: (%d,%d) %d bytes\n", p.RX, p.RY, p.Size)
		}
	case eventbus.EventCrossing:
		var p eventbus.CrossingPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			fmt.Printf("  Crossing: (%d,%d) barred=%v\n", p.X, p.Y, p.Barred)
		}
	case eventbus.EventRoadWorks:
		var p eventbus.RoadWorksPayload
		if json.Unmarshal(ev.Payload, &p) == nil {
			fmt.Printf("  RoadWorks: (%d,%d) finished=%v\n", p.X, p.Y, p.Finished)
		}
	default:
		if len(ev.Payload) > 0 {
			fmt.Printf("  Payload: %s\n", string(ev.Payload))
		}
	}
}

func matchTypes(t string, types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

// parseStringList парсит строку с разделителями-запятыми.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

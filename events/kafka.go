// Package events publishes crawl progress to Kafka so other services can
// follow a run as it happens.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/will-x86/bfscrawl"
	"github.com/will-x86/bfscrawl/logger"
	"github.com/will-x86/bfscrawl/storage"
)

const writeTimeout = 5 * time.Second

type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventVisitStarted   EventType = "visit_started"
	EventAlreadyVisited EventType = "already_visited"
	EventInsecureLink   EventType = "insecure_link"
	EventFetchFailed    EventType = "fetch_failed"
	EventFinished       EventType = "finished"
)

// Event is the JSON payload of every published message. Messages are keyed by
// run ID so a run's events stay ordered within one partition.
type Event struct {
	Type    EventType        `json:"type"`
	RunID   string           `json:"run_id"`
	URL     string           `json:"url,omitempty"`
	Depth   int              `json:"depth"`
	Parent  string           `json:"parent,omitempty"`
	Href    string           `json:"href,omitempty"`
	Error   string           `json:"error,omitempty"`
	Summary *crawler.Summary `json:"summary,omitempty"`
	Time    time.Time        `json:"time"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaObserver is a crawler.Observer that writes each event to a topic.
// Publishing is best effort: a failed write is logged and the crawl goes on.
type KafkaObserver struct {
	writer messageWriter
	log    logger.Logger
	runID  string
}

func NewKafkaObserver(broker, topic string, log logger.Logger) *KafkaObserver {
	return NewKafkaObserverWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}, log)
}

// NewKafkaObserverWithWriter builds an observer on a custom writer (tests).
func NewKafkaObserverWithWriter(writer messageWriter, log logger.Logger) *KafkaObserver {
	if log == nil {
		log = logger.NewNop()
	}
	return &KafkaObserver{writer: writer, log: log}
}

func (o *KafkaObserver) Close() error {
	return o.writer.Close()
}

func (o *KafkaObserver) RunStarted(runID, seed string) {
	o.runID = runID
	o.publish(Event{Type: EventRunStarted, URL: seed})
}

func (o *KafkaObserver) VisitStarted(t storage.Target) {
	o.publish(targetEvent(EventVisitStarted, t))
}

func (o *KafkaObserver) AlreadyVisited(t storage.Target) {
	o.publish(targetEvent(EventAlreadyVisited, t))
}

func (o *KafkaObserver) InsecureLink(from storage.Target, href string) {
	e := targetEvent(EventInsecureLink, from)
	e.Href = href
	o.publish(e)
}

func (o *KafkaObserver) FetchFailed(t storage.Target, err error) {
	e := targetEvent(EventFetchFailed, t)
	e.Error = err.Error()
	o.publish(e)
}

func (o *KafkaObserver) Finished(s crawler.Summary) {
	o.publish(Event{Type: EventFinished, URL: s.Seed, Summary: &s})
}

func targetEvent(typ EventType, t storage.Target) Event {
	return Event{Type: typ, URL: t.URL, Depth: t.Depth, Parent: t.Parent}
}

func (o *KafkaObserver) publish(e Event) {
	e.RunID = o.runID
	e.Time = time.Now().UTC()

	payload, err := json.Marshal(e)
	if err != nil {
		o.log.Error("Failed to encode %s event: %v", e.Type, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(e.RunID),
		Value: payload,
		Time:  e.Time,
	}
	if err := o.writer.WriteMessages(ctx, msg); err != nil {
		o.log.Warn("Failed to publish %s event for %s: %v", e.Type, e.URL, err)
	}
}

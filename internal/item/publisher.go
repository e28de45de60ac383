package item

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/naughtygopher/errors"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/prashantkr001/items-crud/internal/pkg/kafka"
)

type EventType string

const (
	EventCreated EventType = "item.created"
	EventUpdated EventType = "item.updated"
	EventDeleted EventType = "item.deleted"
)

// Event is published after every successful mutation of an item
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Item       Item      `json:"item"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewEvent(evtType EventType, it Item) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Type:       evtType,
		Item:       it,
		OccurredAt: time.Now().UTC(),
	}
}

type publisher interface {
	Publish(ctx context.Context, evt *Event) error
}

// NopPublisher is used when there's no broker configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error {
	return nil
}

type kafkaItemPublisher struct {
	cli   *kafka.Kafka
	topic string
}

func NewKafkaItemPublisher(
	kcli *kafka.Kafka,
	pubTopic string,
) (*kafkaItemPublisher, error) { //nolint:revive // it is ok to return unexported type in this case, ensures controlled access
	if pubTopic == "" {
		return nil, errors.Validation("publish topic is required")
	}
	return &kafkaItemPublisher{
		cli:   kcli,
		topic: pubTopic,
	}, nil
}

func (kip *kafkaItemPublisher) Publish(ctx context.Context, evt *Event) error {
	jbytes, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "json marshal failed")
	}

	// keyed by item ID, so all events of an item land on the same partition and stay ordered
	err = kip.cli.ProduceSync(ctx, &kgo.Record{
		Key:   []byte(strconv.FormatInt(evt.Item.ID, 10)),
		Value: jbytes,
		Topic: kip.topic,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte(evt.Type)},
		},
	})
	if err != nil {
		return errors.Wrap(err, "kafka produce sync failed")
	}

	return nil
}

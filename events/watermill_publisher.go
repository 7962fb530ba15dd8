package events

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// WatermillPublisher implements Publisher over a Watermill message publisher
// (Redis Streams in production).
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher wraps a Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher}
}

var _ Publisher = (*WatermillPublisher)(nil)

// Publish marshals the event to JSON and publishes it on the topic.
func (p *WatermillPublisher) Publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "[WatermillPublisher.Publish] marshalling event")
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return errors.Wrapf(err, "[WatermillPublisher.Publish] publishing to %s", topic)
	}
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"nourishnet-route-service/internal/domain"
	"nourishnet-route-service/internal/platform/obs"
	"time"

	skafka "github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the publisher needs, so tests can inject a fake.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// KafkaRoutePublisher emits one message per computed route, keyed by vendor id so
// all routes of a vendor land on the same partition in order.
type KafkaRoutePublisher struct {
	writer Writer
	now    func() time.Time
}

func NewKafkaRoutePublisher(brokerURL, topic string) *KafkaRoutePublisher {
	w := &skafka.Writer{
		Addr:         skafka.TCP(brokerURL),
		Topic:        topic,
		Balancer:     &skafka.Hash{},
		RequiredAcks: skafka.RequireOne,
	}
	return NewKafkaRoutePublisherWithWriter(w)
}

func NewKafkaRoutePublisherWithWriter(w Writer) *KafkaRoutePublisher {
	return &KafkaRoutePublisher{writer: w, now: time.Now}
}

type routeStopEvent struct {
	Order                      int        `json:"order"`
	StopID                     string     `json:"stop_id"`
	Name                       string     `json:"name"`
	Address                    string     `json:"address"`
	Location                   [2]float64 `json:"location"`
	DistanceFromPreviousMeters float64    `json:"distance_from_previous_meters"`
	CumulativeTimeMinutes      float64    `json:"cumulative_time_minutes"`
}

type routeComputedEvent struct {
	Type                string           `json:"type"`
	VendorID            string           `json:"vendor_id"`
	RequestID           string           `json:"request_id,omitempty"`
	ComputedAt          time.Time        `json:"computed_at"`
	TotalDistanceMeters float64          `json:"total_distance_meters"`
	TotalTimeMinutes    float64          `json:"total_time_minutes"`
	ReturnToDepotMeters float64          `json:"return_to_depot_meters,omitempty"`
	Stops               []routeStopEvent `json:"stops"`
}

const RouteComputedEventType = "route.computed"

func (p *KafkaRoutePublisher) Publish(ctx context.Context, vendorID string, route *domain.RouteResult) (err error) {
	defer obs.Time(ctx, "events.PublishRoute")(&err)

	if p.writer == nil {
		return errors.New("publish route: writer is nil")
	}
	if route == nil {
		return errors.New("publish route: route is nil")
	}

	computedAt := route.ComputedAt
	if computedAt.IsZero() {
		computedAt = p.now()
	}

	ev := routeComputedEvent{
		Type:                RouteComputedEventType,
		VendorID:            vendorID,
		RequestID:           obs.RequestID(ctx),
		ComputedAt:          computedAt.UTC(),
		TotalDistanceMeters: route.TotalDistanceMeters,
		TotalTimeMinutes:    route.TotalTimeMinutes,
		ReturnToDepotMeters: route.ReturnToDepotMeters,
		Stops:               make([]routeStopEvent, 0, len(route.Steps)),
	}
	for _, s := range route.Steps {
		ev.Stops = append(ev.Stops, routeStopEvent{
			Order:                      s.Order,
			StopID:                     s.Stop.ID,
			Name:                       s.Stop.Name,
			Address:                    s.Stop.Address,
			Location:                   [2]float64{s.Stop.Location.Lon, s.Stop.Location.Lat},
			DistanceFromPreviousMeters: s.DistanceFromPreviousMeters,
			CumulativeTimeMinutes:      s.CumulativeTimeMinutes,
		})
	}

	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("publish route: marshal event for vendor %q: %w", vendorID, err)
	}

	msg := skafka.Message{Key: []byte(vendorID), Value: b}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish route: write message for vendor %q: %w", vendorID, err)
	}

	return nil
}

func (p *KafkaRoutePublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

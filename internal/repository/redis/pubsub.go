package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/tix-rail/internal/domain"
)

// EventsPubSub broadcasts engine changes to other processes: seat changes
// and timetable changes on one channel, order events on another.
type EventsPubSub struct {
	rdb     *redis.Client
	channel string
	orders  string
	now     func() time.Time
}

func NewEventsPubSub(rdb *redis.Client) *EventsPubSub {
	return &EventsPubSub{
		rdb:     rdb,
		channel: ChannelTrainsChanged(),
		orders:  ChannelOrderEvents(),
		now:     time.Now,
	}
}

const (
	ChangeSeats     = "seats_changed"
	ChangeTimetable = "timetable_changed"
)

// TrainChange is the message on the trains channel. An empty TrainID on a
// timetable change means the whole timetable was reset.
type TrainChange struct {
	Type    string `json:"type"`
	TrainID string `json:"train_id,omitempty"`
	Day     string `json:"day,omitempty"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *EventsPubSub) PublishTrainChanged(ctx context.Context, trainID string, day domain.Day) error {
	return p.publish(ctx, p.channel, TrainChange{
		Type:    ChangeSeats,
		TrainID: trainID,
		Day:     day.String(),
		TsUnix:  p.now().Unix(),
	})
}

func (p *EventsPubSub) PublishTimetableChanged(ctx context.Context, trainID string) error {
	return p.publish(ctx, p.channel, TrainChange{
		Type:    ChangeTimetable,
		TrainID: trainID,
		TsUnix:  p.now().Unix(),
	})
}

// Deliver publishes each order event as its own message.
func (p *EventsPubSub) Deliver(ctx context.Context, events ...domain.OrderEvent) error {
	pipe := p.rdb.Pipeline()
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		pipe.Publish(ctx, p.orders, b)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (p *EventsPubSub) publish(ctx context.Context, channel string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, channel, b).Err()
}

func (p *EventsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, change TrainChange)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var change TrainChange
			if err := json.Unmarshal([]byte(m.Payload), &change); err == nil && change.Type != "" {
				handler(ctx, change)
			}
		}
	}
}

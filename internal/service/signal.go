package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/foodielens/dishbook"
	"github.com/foodielens/dishbook/internal/usecase"
)

var tracer = otel.Tracer("signal")

// SignalService relays record events between processes over redis pubsub.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event dishbook.Event) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.Publish")
	defer span.End()

	jsonstr, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// Subscribe streams events published on channel until ctx is done. Messages
// that do not decode are logged and skipped.
func (s *SignalService) Subscribe(ctx context.Context, channel string) (<-chan dishbook.Event, error) {
	pubsub := s.rdb.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	events := make(chan dishbook.Event)
	go func() {
		defer close(events)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event dishbook.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.WarnContext(ctx, "dropping malformed event",
						slog.String("error", err.Error()),
						slog.String("channel", channel),
						slog.String("module", "signal"),
					)
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

var _ usecase.EventPublisher = (*SignalService)(nil)

// Package stats builds the per-day aggregate series behind the trend
// charts, with an optional Redis cache in front of the event queries.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cradle/internal/db"
	"cradle/internal/models"
)

// EventSource is the slice of the data layer the service needs.
type EventSource interface {
	FindEvents(ctx context.Context, f db.EventFilter) ([]models.Event, error)
}

// DayPoint is one chart sample: aggregates for a single calendar day.
type DayPoint struct {
	Day            string  `json:"day"` // YYYY-MM-DD
	FeedCount      int     `json:"feed_count"`
	FeedVolumeML   float64 `json:"feed_volume_ml"`
	NursingMinutes float64 `json:"nursing_minutes"`
	PumpVolumeML   float64 `json:"pump_volume_ml"`
	SleepHours     float64 `json:"sleep_hours"`
	DiaperCount    int     `json:"diaper_count"`
	WeightKG       float64 `json:"weight_kg,omitempty"`
}

// Service computes trend series.
type Service struct {
	events EventSource
	logger *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewService(events EventSource, logger *zerolog.Logger) *Service {
	return &Service{events: events, logger: logger}
}

// UseRedisCache configures optional Redis caching for computed series.
func (s *Service) UseRedisCache(client *redis.Client, ttl time.Duration) {
	s.redis = client
	s.cacheTTL = ttl
}

// TrendSeries returns one DayPoint per day for the `days` days ending at
// now's day (inclusive), oldest first. Days without events still appear,
// so charts keep a continuous axis.
func (s *Service) TrendSeries(ctx context.Context, profileID string, days int, now time.Time) ([]DayPoint, error) {
	if days <= 0 {
		days = 14
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := today.AddDate(0, 0, -(days - 1))

	cacheKey := fmt.Sprintf("trend:%s:%d:%s", profileID, days, today.Format("2006-01-02"))
	var series []DayPoint
	if s.readCache(ctx, cacheKey, &series) {
		return series, nil
	}

	events, err := s.events.FindEvents(ctx, db.EventFilter{
		ProfileID: profileID,
		From:      from,
		To:        today.Add(24 * time.Hour),
	})
	if err != nil {
		return nil, fmt.Errorf("trend series: %w", err)
	}

	series = aggregate(events, from, days)
	s.writeCache(ctx, cacheKey, series)
	return series, nil
}

// aggregate buckets events into per-day points. Pure, so the chart math
// is testable without a database.
func aggregate(events []models.Event, from time.Time, days int) []DayPoint {
	points := make([]DayPoint, days)
	index := make(map[string]*DayPoint, days)
	for i := range points {
		day := from.AddDate(0, 0, i).Format("2006-01-02")
		points[i].Day = day
		index[day] = &points[i]
	}

	for _, e := range events {
		p, ok := index[e.Time.Format("2006-01-02")]
		if !ok {
			continue
		}
		switch e.Type {
		case models.EventBottleFeed:
			p.FeedCount++
			p.FeedVolumeML += e.Amount
		case models.EventNursing:
			p.FeedCount++
			p.NursingMinutes += e.Duration().Minutes()
		case models.EventPumping:
			p.PumpVolumeML += e.Amount
		case models.EventSleep:
			p.SleepHours += e.Duration().Hours()
		case models.EventDiaper:
			p.DiaperCount++
		case models.EventMeasurement:
			if e.Unit == "kg" {
				p.WeightKG = e.Amount
			}
		}
	}
	return points
}

func (s *Service) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.redis == nil || s.cacheTTL <= 0 {
		return false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, val interface{}) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("trend cache write failed")
	}
}

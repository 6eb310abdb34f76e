package web

import (
	"context"
	"time"

	"go.uber.org/zap"

	"eventhub/models"
)

type ListState int

const (
	ListLoading ListState = iota
	ListEmpty
	ListPopulated
)

const (
	skeletonCount      = 6
	noDescription      = "No description provided"
	displayDateLayout  = "January 2, 2006"
	displayClockLayout = "3:04 PM"
)

// EventItem is one rendered row of the list.
type EventItem struct {
	ID          int64
	Name        string
	Date        string
	Time        string
	Location    string
	Description string
}

type ListView struct {
	State     ListState
	Items     []EventItem
	Skeletons []int
	Err       string
}

func (v ListView) Loading() bool   { return v.State == ListLoading }
func (v ListView) Empty() bool     { return v.State == ListEmpty }
func (v ListView) Populated() bool { return v.State == ListPopulated }

// EventList shows the events returned by the API, in API order, and
// re-fetches whenever EventsQueryKey is invalidated.
type EventList struct {
	api         EventsAPI
	cache       *QueryCache
	log         *zap.Logger
	unsubscribe func()
}

func NewEventList(api EventsAPI, cache *QueryCache, logger *zap.Logger) *EventList {
	l := &EventList{api: api, cache: cache, log: logger}
	l.unsubscribe = cache.Subscribe(EventsQueryKey, func() {
		if _, err := l.Load(context.Background()); err != nil {
			l.log.Warn("event list refetch failed", zap.Error(err))
		}
	})
	return l
}

// Close stops listening for invalidations.
func (l *EventList) Close() { l.unsubscribe() }

func (l *EventList) fetch(ctx context.Context) (any, error) {
	return l.api.ListEvents(ctx)
}

// Load blocks until the list data is available.
func (l *EventList) Load(ctx context.Context) (ListView, error) {
	data, err := l.cache.Fetch(ctx, EventsQueryKey, l.fetch)
	if err != nil {
		return ListView{State: ListEmpty, Err: "Failed to fetch events"}, err
	}
	return viewOf(data.([]models.Event)), nil
}

// Snapshot never blocks: with nothing cached yet it starts a background
// fetch and reports the loading state.
func (l *EventList) Snapshot() ListView {
	data, fresh := l.cache.Peek(EventsQueryKey)
	if !fresh {
		go func() {
			if _, err := l.Load(context.Background()); err != nil {
				l.log.Warn("event list background fetch failed", zap.Error(err))
			}
		}()
	}
	if data == nil {
		return ListView{State: ListLoading, Skeletons: make([]int, skeletonCount)}
	}
	return viewOf(data.([]models.Event))
}

func viewOf(events []models.Event) ListView {
	if len(events) == 0 {
		return ListView{State: ListEmpty}
	}
	items := make([]EventItem, 0, len(events))
	for _, e := range events {
		items = append(items, itemOf(e))
	}
	return ListView{State: ListPopulated, Items: items}
}

func itemOf(e models.Event) EventItem {
	desc := noDescription
	if e.Description != nil && *e.Description != "" {
		desc = *e.Description
	}
	return EventItem{
		ID:          e.ID,
		Name:        e.Name,
		Date:        FormatEventDate(e.Date),
		Time:        FormatEventTime(e.Time),
		Location:    e.Location,
		Description: desc,
	}
}

// FormatEventDate turns "2099-01-01" into "January 1, 2099".
func FormatEventDate(date string) string {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format(displayDateLayout)
}

// FormatEventTime turns "21:05" into "9:05 PM".
func FormatEventTime(clock string) string {
	t, err := time.Parse(models.TimeLayout, clock)
	if err != nil {
		return clock
	}
	return t.Format(displayClockLayout)
}

package web

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"eventhub/models"
)

var (
	ErrSubmitInFlight = errors.New("submission already in progress")
	ErrInvalidForm    = errors.New("form has validation errors")
)

const createFailedMessage = "Failed to create event"

// FormValues are the raw field values as entered.
type FormValues struct {
	Name        string
	Description string
	Date        string
	Time        string
	Location    string
}

func (v FormValues) insert() models.InsertEvent {
	in := models.InsertEvent{
		Name:     v.Name,
		Date:     v.Date,
		Time:     v.Time,
		Location: v.Location,
	}
	if v.Description != "" {
		desc := v.Description
		in.Description = &desc
	}
	return in
}

type FormView struct {
	Values  FormValues
	Errors  map[string]string
	Message string
	Pending bool
}

// EventForm collects one new event, validates it and submits it.
type EventForm struct {
	api   EventsAPI
	cache *QueryCache
	loc   *time.Location
	now   func() time.Time
	log   *zap.Logger

	// OnSuccess runs after a successful submission, once the form is reset.
	OnSuccess func(models.Event)

	mu      sync.Mutex
	values  FormValues
	errors  map[string]string
	message string
	pending bool
}

func NewEventForm(api EventsAPI, cache *QueryCache, loc *time.Location, now func() time.Time, logger *zap.Logger) *EventForm {
	return &EventForm{
		api:    api,
		cache:  cache,
		loc:    loc,
		now:    now,
		log:    logger,
		errors: map[string]string{},
	}
}

// SetValues replaces the entered values.
func (f *EventForm) SetValues(v FormValues) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = v
}

func (f *EventForm) View() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()
	errs := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		errs[k] = v
	}
	return FormView{Values: f.values, Errors: errs, Message: f.message, Pending: f.pending}
}

// Validate applies the schema rules plus the "today or later" date check and
// records one message per field. It reports whether the form is valid.
func (f *EventForm) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *EventForm) validateLocked() bool {
	in := f.values.insert()
	f.errors = map[string]string{}
	for _, fe := range models.ValidateInsertEvent(in) {
		if _, seen := f.errors[fe.Field]; !seen {
			f.errors[fe.Field] = fe.Message
		}
	}
	if _, bad := f.errors["date"]; !bad {
		if fe := models.ValidateEventDateNotPast(in, f.now(), f.loc); fe != nil {
			f.errors[fe.Field] = fe.Message
		}
	}
	return len(f.errors) == 0
}

// Submit validates and, when valid, sends the event to the API. Only one
// submission may be in flight; a second call gets ErrSubmitInFlight.
// On success the list query is invalidated and the form is cleared. On
// failure the entered values are kept and Message holds the reason.
func (f *EventForm) Submit(ctx context.Context) (models.Event, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return models.Event{}, ErrSubmitInFlight
	}
	f.message = ""
	if !f.validateLocked() {
		f.mu.Unlock()
		return models.Event{}, ErrInvalidForm
	}
	f.pending = true
	in := f.values.insert()
	f.mu.Unlock()

	event, err := f.api.CreateEvent(ctx, in)

	f.mu.Lock()
	f.pending = false
	if err != nil {
		f.message = createFailedMessage
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if apiErr.Message != "" {
				f.message = apiErr.Message
			}
			for _, fe := range apiErr.Errors {
				f.errors[fe.Field] = fe.Message
			}
		}
		f.mu.Unlock()
		f.log.Warn("event submission failed", zap.Error(err))
		return models.Event{}, err
	}
	f.values = FormValues{}
	f.errors = map[string]string{}
	f.mu.Unlock()

	f.cache.Invalidate(EventsQueryKey)
	if f.OnSuccess != nil {
		f.OnSuccess(event)
	}
	return event, nil
}

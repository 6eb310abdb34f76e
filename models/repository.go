package models

import (
	"context"
	"time"
)

// Event 是對外的完整事件資料（id / createdAt 由 store 指派）
type Event struct {
	ID          int64     `json:"id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	Description *string   `json:"description" bson:"description,omitempty"`
	Date        string    `json:"date" bson:"date"` // YYYY-MM-DD
	Time        string    `json:"time" bson:"time"` // HH:MM
	Location    string    `json:"location" bson:"location"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

// InsertEvent is what a client supplies when creating an event.
type InsertEvent struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Date        string  `json:"date" validate:"required,calendardate"`
	Time        string  `json:"time" validate:"required,clocktime"`
	Location    string  `json:"location" validate:"required"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type InsertUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,bcryptlen"`
}

// ===== Users =====
// 查無資料時回傳 ok=false，不是 error
type UserStore interface {
	GetUser(ctx context.Context, id int64) (User, bool, error)
	GetUserByUsername(ctx context.Context, username string) (User, bool, error)
	CreateUser(ctx context.Context, u InsertUser) (User, error)
}

// ===== Events =====
type EventStore interface {
	GetAllEvents(ctx context.Context) ([]Event, error)
	CreateEvent(ctx context.Context, e InsertEvent) (Event, error)
	GetEvent(ctx context.Context, id int64) (Event, bool, error)
}

// Storage is everything the API layer needs from persistence.
type Storage interface {
	UserStore
	EventStore
}

type composite struct {
	UserStore
	EventStore
}

// Compose 把不同後端的 users / events 組成一個 Storage（例如 Postgres + Mongo）
func Compose(u UserStore, e EventStore) Storage {
	return composite{UserStore: u, EventStore: e}
}

// toEvent 把 InsertEvent 轉成完整 Event
func toEvent(id int64, in InsertEvent, createdAt time.Time) Event {
	var desc *string
	if in.Description != nil {
		d := *in.Description
		desc = &d
	}
	return Event{
		ID:          id,
		Name:        in.Name,
		Description: desc,
		Date:        in.Date,
		Time:        in.Time,
		Location:    in.Location,
		CreatedAt:   createdAt,
	}
}

// Insert returns the client-supplied part of e.
func (e Event) Insert() InsertEvent {
	return InsertEvent{
		Name:        e.Name,
		Description: e.Description,
		Date:        e.Date,
		Time:        e.Time,
		Location:    e.Location,
	}
}

package event

import (
	"context"
	"errors"
	"time"
)

const (
	ScopeSchool   = "school"
	ScopeBarangay = "barangay"
	ScopeCSO      = "cso"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrInvalidID = errors.New("invalid event id")
)

// Event mirrors an event record of the remote API. Date is YYYY-MM-DD,
// TimeFrom and TimeTo are HH:MM in the configured zone.
type Event struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title" validate:"required,max=200"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Location    string    `json:"location,omitempty" bson:"location,omitempty"`
	Scope       string    `json:"event_type" bson:"scope" validate:"required,oneof=school barangay cso"`
	ScopeID     string    `json:"scope_id,omitempty" bson:"scope_id,omitempty"`
	Date        string    `json:"date" bson:"date" validate:"required,eventdate"`
	TimeFrom    string    `json:"time_from" bson:"time_from" validate:"required,clock"`
	TimeTo      string    `json:"time_to" bson:"time_to" validate:"required,clock"`
	Status      Status    `json:"status,omitempty" bson:"-"`
	SyncedAt    time.Time `json:"-" bson:"synced_at"`
}

type Repository interface {
	Upsert(ctx context.Context, event *Event) error
	UpsertMany(ctx context.Context, events []*Event) error
	GetAll(ctx context.Context) ([]*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByScope(ctx context.Context, scope string) ([]*Event, error)
	DeleteMissing(ctx context.Context, keepIDs []string) (int64, error)
}

package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// EntryEvent is published whenever an entry is created or deleted.
// It carries only identifiers; consumers fetch the full record themselves.
type EntryEvent struct {
	Action    string    `json:"action"`
	EntryID   string    `json:"entryId"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryCreated(entryID, userID string) *EntryEvent {
	return &EntryEvent{Action: ActionCreated, EntryID: entryID, UserID: userID, Timestamp: time.Now()}
}

func NewEntryDeleted(entryID, userID string) *EntryEvent {
	return &EntryEvent{Action: ActionDeleted, EntryID: entryID, UserID: userID, Timestamp: time.Now()}
}

func (e *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var event EntryEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

package domain

import (
	"strings"
	"time"
)

// ActivityAction identifies the kind of board event being recorded.
type ActivityAction string

// ActivityStatusChanged and related constants define the recorded actions.
const (
	ActivityStatusChanged ActivityAction = "status_changed"
	ActivityReordered     ActivityAction = "reordered"
	ActivityAssigned      ActivityAction = "assigned"
	ActivityUnassigned    ActivityAction = "unassigned"
)

// ActivityEntry is one best-effort record of a board transition. Failure to
// persist an entry never blocks or rolls back the transition it describes.
type ActivityEntry struct {
	ID        string
	CompanyID string
	TaskID    string
	Action    ActivityAction
	Detail    string
	ActorID   string
	At        time.Time
}

// NewActivityEntry constructs an activity record.
func NewActivityEntry(id, companyID, taskID string, action ActivityAction, detail, actorID string, now time.Time) (ActivityEntry, error) {
	id = strings.TrimSpace(id)
	companyID = strings.TrimSpace(companyID)
	taskID = strings.TrimSpace(taskID)
	if id == "" || companyID == "" || taskID == "" {
		return ActivityEntry{}, ErrInvalidID
	}
	return ActivityEntry{
		ID:        id,
		CompanyID: companyID,
		TaskID:    taskID,
		Action:    action,
		Detail:    strings.TrimSpace(detail),
		ActorID:   strings.TrimSpace(actorID),
		At:        now.UTC(),
	}, nil
}

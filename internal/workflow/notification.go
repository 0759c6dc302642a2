package workflow

import "fmt"

// Notification is the payload broadcast over the pub/sub channel after a
// successful mutation. It carries the affected record plus a ready-to-show
// display message so listeners (toaster, board) need no extra lookups.
type Notification struct {
	Workflow Workflow
	Message  string
}

// CreatedNotification builds the payload for a successful creation.
func CreatedNotification(w Workflow) Notification {
	return Notification{
		Workflow: w,
		Message:  fmt.Sprintf("Workflow created: %s", w.Title),
	}
}

// UpdatedNotification builds the payload for a status change.
func UpdatedNotification(w Workflow) Notification {
	return Notification{
		Workflow: w,
		Message:  fmt.Sprintf("Workflow moved to %s", w.Status),
	}
}

// DeletedNotification builds the payload for a deletion.
func DeletedNotification(w Workflow) Notification {
	return Notification{
		Workflow: w,
		Message:  fmt.Sprintf("Workflow deleted: %s", w.Title),
	}
}

package domain

import "time"

// Todo is the business entity. It does not depend on gin, the stores or redis.
type Todo struct {
	ID          int64
	Title       string
	Description string
	Completed   bool

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// SetCompleted assigns the completion flag and keeps CompletedAt in step with it:
// entering the completed state stamps now, leaving it clears the stamp, and
// staying completed keeps the stamp of the original completion.
func (t *Todo) SetCompleted(done bool, now time.Time) {
	switch {
	case done && (!t.Completed || t.CompletedAt == nil):
		stamp := now
		t.CompletedAt = &stamp
	case !done:
		t.CompletedAt = nil
	}
	t.Completed = done
}

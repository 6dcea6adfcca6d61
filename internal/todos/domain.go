package todos

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Todo is a single item on a user's list.
type Todo struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput holds the fields accepted when creating a todo.
type CreateInput struct {
	Title       string
	Description *string
	Completed   bool
}

// UpdateInput is a partial update. Nil fields are left untouched, except
// Description, which is written whenever DescriptionSet is true so that a nil
// value clears it.
type UpdateInput struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Completed      *bool
}

// Empty reports whether the update carries no fields.
func (u UpdateInput) Empty() bool {
	return u.Title == nil && !u.DescriptionSet && u.Completed == nil
}

// optionalString tells an absent JSON field apart from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON only runs when the key is present, null included.
func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Completion is the result of toggling a todo's completed flag.
type Completion struct {
	ID        uuid.UUID `json:"id"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

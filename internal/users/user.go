// Package users is the read adapter onto the external user-CRUD
// collaborator's table. The core never writes to it; only onUserCreated /
// onUserUpdated / onUserDeleted (internal/events) tell the core that a row
// changed.
package users

import (
	"github.com/uptrace/bun"
)

// User is the external entity as the pipeline reads it. Only the fields
// the schedulers, workers and strategies read are mapped — this schema
// belongs to the user-CRUD collaborator.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID              int64        `bun:"id,pk"`
	FirstName       string       `bun:"first_name,notnull"`
	LastName        string       `bun:"last_name,notnull"`
	Email           string       `bun:"email,notnull,unique"`
	Timezone        string       `bun:"timezone,notnull"`
	BirthdayDate    bun.NullTime `bun:"birthday_date,nullzero"`
	AnniversaryDate bun.NullTime `bun:"anniversary_date,nullzero"`
	DeletedAt       bun.NullTime `bun:"deleted_at,soft_delete,nullzero"`
}

// FullName renders the literal "{firstName} {lastName}", the same form the
// built-in strategies write into message content (they format it
// themselves and do not call this method).
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsDeleted reports whether the user has been soft-deleted.
func (u *User) IsDeleted() bool {
	return !u.DeletedAt.IsZero()
}

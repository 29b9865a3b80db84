// internal/user/user.go
//
// User creation: input schema, records, and the create action.
//
// Context
// -------
// This is the one concrete action the service ships.  A client posts name,
// email, and age; the schema trims and strips markup from the name, checks
// the email, and requires an adult age.  Valid input is saved through a
// Store and the caller gets back the name and email it submitted.
//
// Workflow
// --------
//  1. CreateSchema validates raw input into CreateUserInput.
//  2. Create persists a User via Store.Save.
//  3. The action boundary turns any Store error into an internal failure.
//
// Notes
// -----
//   - Store implementations: MemoryStore, SQLStore (MySQL or Postgres), and
//     RedisStore.  All report a taken email as ErrDuplicateEmail.
//   - Oxford commas, two spaces after periods.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/yanizio/formaction/internal/action"
	"github.com/yanizio/formaction/internal/schema"
)

// CreateFormID names the HTML form definition for CreateUserInput.
const CreateFormID = "users/create"

// CreateUserInput is the validated create-user payload.
type CreateUserInput struct {
	Name  string `form:"name" validate:"required,min=1" sanitize:"trim,strict"`
	Email string `form:"email" validate:"required,email,min=1" sanitize:"trim"`
	Age   int    `form:"age" validate:"min=18"`
}

// CreatedUser is the action's success payload.
type CreatedUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// User is a stored record.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ErrDuplicateEmail is returned by a Store when email is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrNotFound is returned by Store.Get for an unknown id.
var ErrNotFound = errors.New("user not found")

// Store persists users.
type Store interface {
	Save(ctx context.Context, name, email string) (User, error)
	Get(ctx context.Context, id string) (User, error)
}

// CreateSchema validates create-user input.
var CreateSchema = schema.MustNew[CreateUserInput]()

// Create returns the processor that saves in via s.
func Create(s Store) action.ProcessFunc[CreateUserInput, CreatedUser] {
	return func(ctx context.Context, in CreateUserInput) (CreatedUser, error) {
		u, err := s.Save(ctx, in.Name, in.Email)
		if err != nil {
			return CreatedUser{}, err
		}
		return CreatedUser{Name: u.Name, Email: u.Email}, nil
	}
}

// NewCreateAction wraps Create(s) with CreateSchema.  The name defaults to
// "users.create"; opts may override it.
func NewCreateAction(s Store, opts ...action.Option) action.Action[CreateUserInput, CreatedUser] {
	opts = append([]action.Option{action.WithName("users.create")}, opts...)
	return action.Wrap(CreateSchema, Create(s), opts...)
}

package user

import (
	"context"
	"errors"
)

// Instrument wraps s so onErr sees every failure except ErrNotFound and
// ErrDuplicateEmail, which are outcomes rather than faults.
func Instrument(s Store, onErr func(error)) Store {
	return instrumented{Store: s, onErr: onErr}
}

type instrumented struct {
	Store
	onErr func(error)
}

func (i instrumented) Save(ctx context.Context, name, email string) (User, error) {
	u, err := i.Store.Save(ctx, name, email)
	i.report(err)
	return u, err
}

func (i instrumented) Get(ctx context.Context, id string) (User, error) {
	u, err := i.Store.Get(ctx, id)
	i.report(err)
	return u, err
}

func (i instrumented) report(err error) {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateEmail) {
		return
	}
	i.onErr(err)
}

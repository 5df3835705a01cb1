package postgres

import (
	"context"

	"github.com/geocoder89/solarml/internal/domain/user"
	"github.com/geocoder89/solarml/internal/observability"
)

// InstrumentedUsersRepo decorates UsersRepo with per-operation latency and
// error metrics.
type InstrumentedUsersRepo struct {
	inner *UsersRepo
	prom  *observability.Prom
}

func NewInstrumentedUsersRepo(inner *UsersRepo, prom *observability.Prom) *InstrumentedUsersRepo {
	return &InstrumentedUsersRepo{inner: inner, prom: prom}
}

func (r *InstrumentedUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		var err error
		u, err = r.inner.GetByEmail(ctx, email)
		return err
	})

	return u, err
}

func (r *InstrumentedUsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		var err error
		u, err = r.inner.GetByID(ctx, id)
		return err
	})

	return u, err
}

func (r *InstrumentedUsersRepo) Create(ctx context.Context, u user.User) error {
	return r.prom.ObserveDB("users.create", func() error {
		return r.inner.Create(ctx, u)
	})
}

func (r *InstrumentedUsersRepo) Save(ctx context.Context, u user.User) error {
	return r.prom.ObserveDB("users.save", func() error {
		return r.inner.Save(ctx, u)
	})
}

func (r *InstrumentedUsersRepo) DeleteUnverifiedByEmail(ctx context.Context, email string) error {
	return r.prom.ObserveDB("users.delete_unverified", func() error {
		return r.inner.DeleteUnverifiedByEmail(ctx, email)
	})
}

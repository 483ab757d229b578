package doctor

import (
	"context"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

type fakeRepo struct {
	list                    func(ctx context.Context) ([]*model.Doctor, error)
	listTop                 func(ctx context.Context, limit int) ([]*model.Doctor, error)
	distinctLocations       func(ctx context.Context) ([]string, error)
	distinctSpecializations func(ctx context.Context) ([]string, error)
	search                  func(ctx context.Context, q model.SearchQuery) ([]*model.Doctor, int, error)
	incrementSearchCount    func(ctx context.Context, id int64) (*model.Doctor, error)
	existsByEmail           func(ctx context.Context, email string) (bool, error)
	create                  func(ctx context.Context, d *model.Doctor) error
	count                   func(ctx context.Context) (int, error)
}

func (f *fakeRepo) List(ctx context.Context) ([]*model.Doctor, error) { return f.list(ctx) }

func (f *fakeRepo) ListTop(ctx context.Context, limit int) ([]*model.Doctor, error) {
	return f.listTop(ctx, limit)
}

func (f *fakeRepo) DistinctLocations(ctx context.Context) ([]string, error) {
	return f.distinctLocations(ctx)
}

func (f *fakeRepo) DistinctSpecializations(ctx context.Context) ([]string, error) {
	return f.distinctSpecializations(ctx)
}

func (f *fakeRepo) Search(ctx context.Context, q model.SearchQuery) ([]*model.Doctor, int, error) {
	return f.search(ctx, q)
}

func (f *fakeRepo) IncrementSearchCount(ctx context.Context, id int64) (*model.Doctor, error) {
	return f.incrementSearchCount(ctx, id)
}

func (f *fakeRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return f.existsByEmail(ctx, email)
}

func (f *fakeRepo) Create(ctx context.Context, d *model.Doctor) error { return f.create(ctx, d) }

func (f *fakeRepo) Count(ctx context.Context) (int, error) { return f.count(ctx) }

func (f *fakeRepo) Ping(context.Context) error { return nil }

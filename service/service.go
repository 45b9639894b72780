package service

import (
	"context"
	"sync"

	"github.com/emzola/libris/config"
	"github.com/emzola/libris/internal/jsonlog"
	"github.com/emzola/libris/repository"
)

type Service interface {
	books
}

// CoverStore persists cover images outside the database.
type CoverStore interface {
	Upload(ctx context.Context, bookID int64, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, bookID int64) error
}

// Services defines a service layer.
type service struct {
	config config.Config
	wg     *sync.WaitGroup
	logger *jsonlog.Logger
	repo   repository.Repository
	covers CoverStore
}

// New creates a new instance of Service. covers may be nil, in which case cover
// uploads are disabled.
func New(cfg config.Config, wg *sync.WaitGroup, logger *jsonlog.Logger, repo repository.Repository, covers CoverStore) *service {
	return &service{
		config: cfg,
		wg:     wg,
		logger: logger,
		repo:   repo,
		covers: covers,
	}
}

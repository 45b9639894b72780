package handler

import (
	"github.com/emzola/libris/config"
	"github.com/emzola/libris/internal/jsonlog"
	"github.com/emzola/libris/service"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// Handler defines Handler layer.
type Handler struct {
	config   config.Config
	logger   *jsonlog.Logger
	limiters *ttlcache.Cache[string, *rate.Limiter]
	service  service.Service
}

// New creates a new instance of Handler. limiters holds one rate limiter per client IP;
// its TTL decides how long an idle client is remembered.
func New(cfg config.Config, logger *jsonlog.Logger, limiters *ttlcache.Cache[string, *rate.Limiter], service service.Service) *Handler {
	return &Handler{
		config:   cfg,
		logger:   logger,
		limiters: limiters,
		service:  service,
	}
}

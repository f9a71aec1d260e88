package deps

import (
	"context"
	"time"

	"reddot/internal/auth"
	"reddot/internal/logger"
	"reddot/internal/service"
	"reddot/internal/store"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Store    *store.Store
	Content  *service.ContentService
	Accounts *service.AccountService
	Sessions *auth.Sessions

	// ReadyCheck pings the backing stores; readyz reports its result.
	ReadyCheck func(ctx context.Context) error

	TrustProxy bool // true if running behind a trusted reverse proxy
}

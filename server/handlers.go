package server

import (
	"context"
	"database/sql"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/onnwee/stream-avatars/backend/overlay"
	"github.com/onnwee/stream-avatars/backend/settings"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctx   context.Context
	stage *overlay.Stage
	store settings.Store
	db    *sql.DB

	upgrader websocket.Upgrader

	// settingsMu serializes settings updates.
	settingsMu sync.Mutex
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, stage *overlay.Stage, store settings.Store, db *sql.DB) *Handlers {
	return &Handlers{
		ctx:      ctx,
		stage:    stage,
		store:    store,
		db:       db,
		upgrader: newUpgrader(originPolicy{anyOrigin: true}),
	}
}

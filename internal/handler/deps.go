package handler

import (
	"shambachat/internal/app/chat"
	"shambachat/internal/app/storage"
	"shambachat/internal/app/store"
	"shambachat/internal/configs"
)

// AppDeps bundles the wired application services the handlers close over.
type AppDeps struct {
	Config   *configs.AppConfig
	Store    store.Store
	Storage  storage.Service
	Sessions chat.SessionDeps
}

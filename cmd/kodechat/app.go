package kodechat

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/shellkode/kodechat/pkg/api"
	"github.com/shellkode/kodechat/pkg/auth"
	"github.com/shellkode/kodechat/pkg/chat"
	"github.com/shellkode/kodechat/pkg/config"
	"github.com/shellkode/kodechat/pkg/store"
	"github.com/shellkode/kodechat/pkg/stream"
)

// app bundles the wired collaborators every command needs.
type app struct {
	cfg        *config.AppConfig
	log        zerolog.Logger
	auth       *auth.Manager
	client     *api.Client
	controller *chat.Controller
	configDir  string
}

// newApp loads config and wires the full stack: config -> logger ->
// auth -> API client -> state -> store -> engine -> controller.
func newApp() (*app, error) {
	cfg, err := config.LoadAppConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}

	log := config.NewLogger(cfg.Logging)
	authMgr := auth.NewManager(dir)
	client := api.NewClient(cfg.API.BaseURL, authMgr, cfg.API.RequestTimeout, log)

	state := chat.NewState()
	fileStore := store.NewFileStore(dir, log)
	engine := stream.New(state, client, cfg.API.IdleTimeout, log)
	controller := chat.NewController(state, fileStore, engine, chat.Mode(cfg.Chat.DefaultMode), log)
	controller.LoadFromStore()

	return &app{
		cfg:        cfg,
		log:        log,
		auth:       authMgr,
		client:     client,
		controller: controller,
		configDir:  dir,
	}, nil
}

// openArchive opens the sqlite history archive under the config dir.
// Callers own the returned handle.
func (a *app) openArchive() (*store.Archive, error) {
	return store.OpenArchive(filepath.Join(a.configDir, "archive.db"))
}

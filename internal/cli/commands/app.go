package commands

import (
	"net/http"
	"time"

	"CardKeeper/internal/cli/api"
	"CardKeeper/internal/cli/bootstrap"
	"CardKeeper/internal/cli/migrate"
	"CardKeeper/internal/cli/repo/fs"
	"CardKeeper/internal/cli/service"
	"CardKeeper/internal/cli/store"
	"CardKeeper/internal/config"

	"go.uber.org/zap"
)

// App — то, с чем работают команды: конфиг, контроллер и клиент шлюза.
type App struct {
	Cfg        *config.Config
	Controller *bootstrap.Controller
	Remote     api.RemoteStore
	Log        *zap.SugaredLogger
}

// NewApp собирает клиентское приложение из конфига. Хранилище при этом
// не открывается: это произойдёт при первом обращении команды.
func NewApp(cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	policy, err := migrate.ParseDedupPolicy(cfg.DedupPolicy)
	if err != nil {
		return nil, err
	}

	fallback := ""
	if cfg.MemoryFallback {
		fallback = store.MemoryDSN()
	}
	opener := store.NewOpener(cfg.ClientDBPath, fallback, log)

	tokens := &fs.TokenStore{Path: cfg.TokenFile}
	remote := api.NewCardClient(cfg.ServerURL, cfg.ClientID, cfg.ClientSecret, tokens,
		&http.Client{Timeout: cfg.SyncTimeout + 5*time.Second}, log)

	ctrl := bootstrap.NewController(bootstrap.Config{
		MigrationDelay:      cfg.MigrationDelay,
		CacheSweepInterval:  cfg.CacheSweepInterval,
		SyncInterval:        cfg.SyncInterval,
		OnlineCheckInterval: cfg.OnlineCheckInterval,
		SyncTimeout:         cfg.SyncTimeout,
		DedupPolicy:         policy,
		Queue: service.QueueConfig{
			Workers:     cfg.SyncWorkers,
			Size:        cfg.SyncQueueSize,
			MaxAttempts: cfg.SyncMaxAttempts,
		},
	}, bootstrap.Deps{
		Opener: opener,
		Legacy: &fs.LegacyStore{Dir: cfg.LegacyStorageDir},
		Remote: remote,
		Log:    log,
	})

	return &App{Cfg: cfg, Controller: ctrl, Remote: remote, Log: log}, nil
}

// Close останавливает фоновые задачи и закрывает хранилище.
func (a *App) Close() {
	a.Controller.Stop()
}

package cmd

import (
	"github.com/jsphweid/chordpad/config"
	"github.com/jsphweid/chordpad/draft"
	"github.com/jsphweid/chordpad/logging"
	"go.uber.org/zap"
)

func openRepository(cfg config.Config, logger *zap.Logger) (draft.Repository, error) {
	var repo draft.Repository
	switch cfg.Storage.Backend {
	case "dynamodb":
		client, err := draft.DialDynamo(cfg.Storage.DynamoEndpoint, cfg.Storage.DynamoRegion)
		if err != nil {
			return nil, err
		}
		repo = draft.NewDynamoStore(client, cfg.Storage.DynamoTable)
	default:
		repo = draft.NewDiskStore(cfg.Storage.Dir)
	}
	logger.Debug("Opened draft storage",
		zap.String("backend", cfg.Storage.Backend),
		zap.Duration("cache_ttl", cfg.Cache.TTL))

	if cfg.Cache.TTL > 0 {
		repo = draft.NewCachedStore(repo, cfg.Cache.TTL)
	}
	return repo, nil
}

// openService wires storage, autosave and the draft service from config.
func openService(cfg config.Config) (*draft.Service, *zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	repo, err := openRepository(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	autosave := draft.NewAutosaver(repo, cfg.Autosave.Delay, logger)
	svc := draft.NewService(repo, autosave, logger)
	svc.SetLimits(limitsFrom(cfg))
	return svc, logger, nil
}

func limitsFrom(cfg config.Config) draft.Limits {
	return draft.Limits{MaxLines: cfg.Limits.MaxLines, MaxCharIndex: cfg.Limits.MaxCharIndex}
}

package cli

import (
	"context"

	"github.com/suratkita/suratkita/pkg/config"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/lifecycle"
	"github.com/suratkita/suratkita/pkg/store"
	"github.com/suratkita/suratkita/pkg/store/httpclient"
	"github.com/suratkita/suratkita/pkg/store/memory"
	"github.com/suratkita/suratkita/pkg/store/mongo"
)

// openStore connects to the configured document store. The http backend
// sends actor with every request so the server applies its own checks.
func openStore(ctx context.Context, cfg *config.Config, actor lifecycle.Actor) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreMongo:
		st, err := mongo.Open(ctx, mongo.Config{
			URI:      cfg.Store.MongoURI,
			Database: cfg.Store.MongoDatabase,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StoreHTTP:
		st, err := httpclient.New(cfg.Store.HTTPBaseURL, actor, nil)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StoreMemory, "":
		return memory.New(), nil
	}
	return nil, errors.Validation("unknown store backend %q", cfg.Store.Backend)
}

package main

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/cache"
	"github.com/sells-group/radar-cli/internal/classify"
	"github.com/sells-group/radar-cli/internal/company"
	"github.com/sells-group/radar-cli/internal/enrich"
	"github.com/sells-group/radar-cli/internal/resilience"
	"github.com/sells-group/radar-cli/internal/source"
	"github.com/sells-group/radar-cli/internal/store"
	"github.com/sells-group/radar-cli/internal/taxonomy"
	"github.com/sells-group/radar-cli/pkg/brasilapi"
	"github.com/sells-group/radar-cli/pkg/cnpja"
)

// radarEnv holds the store, rule engine, and optional cache shared by the
// batch, CRM, and serve commands.
type radarEnv struct {
	Store      store.Store
	Table      taxonomy.Table
	Enricher   *enrich.Enricher
	Reconciler *company.Reconciler
	Workers    int
	Redis      *redis.Client // may be nil

	// lookupBreaker guards the detail service for the life of the process.
	lookupBreaker *resilience.Breaker
}

// Close releases resources held by the environment.
func (e *radarEnv) Close() {
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "radar.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// newEnv wires the rule engine around an open, migrated store.
func newEnv(st store.Store, table taxonomy.Table, workers int, opts ...enrich.Option) *radarEnv {
	return &radarEnv{
		Store:      st,
		Table:      table,
		Enricher:   enrich.New(classify.New(table), opts...),
		Reconciler: company.NewReconciler(st),
		Workers:    workers,
		lookupBreaker: resilience.NewBreaker(resilience.BreakerConfig{
			OnChange: func(from, to resilience.BreakerState) {
				zap.L().Warn("detail lookup breaker changed state",
					zap.Stringer("from", from), zap.Stringer("to", to))
			},
		}),
	}
}

// initEnv validates cfg for mode, loads the taxonomy, opens and migrates the
// store, and connects the detail cache when configured. Callers should defer
// env.Close().
func initEnv(ctx context.Context, mode string) (*radarEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	table, err := taxonomy.Resolve(cfg.Taxonomy.Path)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	env := newEnv(st, table, cfg.Batch.Workers,
		enrich.WithRegion(enrich.Region{City: cfg.Region.City, State: cfg.Region.State}))

	if cfg.Cache.RedisURL != "" {
		client, err := cache.Open(ctx, cfg.Cache.RedisURL)
		if err != nil {
			zap.L().Warn("detail cache disabled", zap.Error(err))
		} else {
			env.Redis = client
		}
	}

	zap.L().Debug("environment ready",
		zap.String("store", cfg.Store.Driver),
		zap.Int("groups", len(table)),
		zap.Bool("cache", env.Redis != nil),
	)
	return env, nil
}

func newCNPJaClient() cnpja.Client {
	return cnpja.NewClient(cfg.CNPJa.Key,
		cnpja.WithBaseURL(cfg.CNPJa.BaseURL),
		cnpja.WithRateLimit(cfg.CNPJa.RequestsPerMin),
		cnpja.WithMaxAge(cfg.CNPJa.MaxAgeDays),
	)
}

// detailLookup returns the per-company lookup: CNPJá when a key is
// configured, otherwise BrasilAPI. Calls go through the breaker, and through
// Redis when connected so cache hits bypass the breaker.
func (e *radarEnv) detailLookup() source.DetailLookup {
	var lookup source.DetailLookup
	if cfg.CNPJa.Key != "" {
		lookup = source.NewCNPJa(newCNPJaClient(), source.CNPJaOptions{Municipality: cfg.Region.IBGECode})
	} else {
		lookup = source.NewBrasilAPI(brasilapi.NewClient(brasilapi.WithBaseURL(cfg.BrasilAPI.BaseURL)))
	}
	lookup = source.NewGuardedLookup(lookup, e.lookupBreaker)
	if e.Redis != nil {
		lookup = cache.NewDetailCache(e.Redis, lookup, time.Duration(cfg.Cache.TTLHours)*time.Hour)
	}
	return lookup
}

// sources returns the registry of scan sources available under cfg.
func (e *radarEnv) sources() *source.Registry {
	reg := source.NewRegistry(source.NewMock(source.MockOptions{
		Count:        cfg.Mock.Count,
		Seed:         cfg.Mock.Seed,
		Codes:        tableCodes(e.Table),
		Municipality: strings.ToUpper(cfg.Region.City),
		State:        cfg.Region.State,
	}))
	if cfg.CNPJa.Key != "" {
		reg.Register(source.NewCNPJa(newCNPJaClient(), source.CNPJaOptions{
			Municipality: cfg.Region.IBGECode,
			Limit:        cfg.CNPJa.SearchLimit,
		}))
	}
	return reg
}

// tableCodes flattens the activity codes of every group in table order.
func tableCodes(t taxonomy.Table) []string {
	var codes []string
	for _, g := range t {
		codes = append(codes, g.Codes...)
	}
	return codes
}

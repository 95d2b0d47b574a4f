package bootstrap

import (
	"context"
	"time"

	"census_server/adapter/out/ckan"
	"census_server/adapter/out/mongodb"
	"census_server/adapter/out/rediscache"
	"census_server/config"
	"census_server/core/agent/llm"
	"census_server/core/port/out"
	"census_server/core/service/census"
	"census_server/core/service/classification"
	"census_server/core/service/location"
	"census_server/pkg/cache"
	"census_server/pkg/logger"
	"census_server/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Dependencies holds every wired component of the census process. Mongo,
// Redis and the LLM are each optional; the service degrades per stage when
// one is absent.
type Dependencies struct {
	Config  *config.Config
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	PortalRepo out.PortalRepository

	// Cache
	RedisCache    *cache.RedisCache
	MetadataCache out.MetadataCache

	// Outbound
	Protector  *ratelimit.SurveyProtector
	Surveyor   out.PortalSurveyor
	LLMClient  *llm.Client
	Analyzer   *location.Analyzer
	Classifier *classification.Classifier

	// Services
	CensusService *census.Service
}

// NewDependencies wires all components from config. The returned cleanup
// closes every connection that was opened.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// Redis (optional)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("invalid REDIS_URL, continuing without Redis")
		} else {
			client := redis.NewClient(opts)
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := client.Ping(pingCtx).Err(); err != nil {
				logger.WithError(err).Warn("Redis unreachable, continuing without Redis")
				_ = client.Close()
			} else {
				deps.Redis = client
				deps.RedisCache = cache.NewRedisCache(client)
				cleanups = append(cleanups, func() { _ = client.Close() })
				logger.Info("Redis connected")
			}
			pingCancel()
		}
	}

	// MongoDB (optional)
	if cfg.MongoDBURL != "" {
		client, err := mongodb.NewClient(cfg.MongoDBURL, cfg.MongoDBName)
		if err != nil {
			logger.WithError(err).Warn("MongoDB unreachable, results will not be persisted")
		} else {
			deps.MongoDB = client
			adapter := mongodb.NewPortalAdapter(client.Database(cfg.MongoDBName))

			idxCtx, idxCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := adapter.EnsureIndexes(idxCtx); err != nil {
				logger.WithError(err).Warn("failed to ensure portal indexes")
			}
			idxCancel()

			deps.PortalRepo = adapter
			cleanups = append(cleanups, func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(ctx)
			})
			logger.Info("MongoDB connected: %s", cfg.MongoDBName)
		}
	}

	// Metadata cache needs Redis
	if deps.RedisCache != nil {
		deps.MetadataCache = rediscache.NewMetadataCache(deps.RedisCache, cfg.MetadataTTL())
	}

	// Survey protection (works without Redis, local fallbacks)
	protCfg := ratelimit.DefaultConfig()
	protCfg.MaxConcurrent = cfg.SurveyMaxConcurrent
	protCfg.RequestsPerSecond = cfg.SurveyPerHostRPS
	protCfg.BurstSize = cfg.SurveyBurstSize
	protCfg.DebounceDuration = time.Duration(cfg.SurveyDebounceMin) * time.Minute
	deps.Protector = ratelimit.NewSurveyProtector(deps.Redis, protCfg)

	// CKAN surveyor
	deps.Surveyor = ckan.NewClient(deps.Protector)

	// LLM client (optional, needs an API key)
	if cfg.OpenRouterAPIKey != "" {
		deps.LLMClient = llm.NewClient(llm.ClientConfig{
			APIKey:      cfg.OpenRouterAPIKey,
			BaseURL:     cfg.OpenRouterBaseURL,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		logger.Info("LLM client configured: %s", cfg.LLMModel)
	} else {
		logger.Warn("OPENROUTER_API_KEY not set, location analysis uses domain hints only")
	}

	// Location analyzer works with or without the LLM
	deps.Analyzer = location.NewAnalyzer(deps.LLMClient)

	// Classifier
	deps.Classifier = classification.NewDefaultClassifier()

	// Census service
	deps.CensusService = census.NewService(census.Config{
		Classifier: deps.Classifier,
		Analyzer:   deps.Analyzer,
		Surveyor:   deps.Surveyor,
		MetaCache:  deps.MetadataCache,
		Repo:       deps.PortalRepo,
	})

	return deps, cleanup, nil
}

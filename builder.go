package medauth

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/caldermed/medauth/internal/broadcast"
	"github.com/caldermed/medauth/internal/rate"
	"github.com/caldermed/medauth/internal/repo"
	"github.com/caldermed/medauth/provider"
	"github.com/caldermed/medauth/tokencache"
)

// Builder defines a public type used by medauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config   Config
	provider provider.Client
	cache    tokencache.Cache
	limiter  rate.SignInLimiter
	redis    *redis.Client

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithProvider injects the remote identity provider client. Required.
func (b *Builder) WithProvider(p provider.Client) *Builder {
	b.provider = p
	return b
}

// WithTokenCache overrides the default in-memory token cache.
func (b *Builder) WithTokenCache(c tokencache.Cache) *Builder {
	b.cache = c
	return b
}

// WithRedis switches the token cache and the sign-in limiter to their Redis
// backends, for web deployments where several frontend instances share
// state.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("medauth: builder already used")
	}
	if b.provider == nil {
		return nil, errors.New("medauth: provider required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	b.built = true

	rateCfg := rate.Config{
		MaxAttempts: b.config.RateLimit.MaxAttempts,
		Window:      b.config.RateLimit.Window,
	}

	cache := b.cache
	var limiter rate.SignInLimiter
	if b.redis != nil {
		if cache == nil {
			cache = tokencache.NewRedis(b.redis, b.config.Session.CacheKeyPrefix)
		}
		limiter = rate.NewRedis(b.redis, rateCfg)
	} else {
		if cache == nil {
			cache = tokencache.NewMemory()
		}
		limiter = rate.NewMemory(rateCfg)
	}

	svc := &Service{
		config:     b.config,
		repo:       repo.New(b.provider),
		provider:   b.provider,
		cache:      cache,
		limiter:    limiter,
		dispatcher: broadcast.NewDispatcher(b.config.Broadcast.Buffer),
	}
	svc.start()
	return svc, nil
}

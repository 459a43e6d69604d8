package di

import (
    "context"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"

    "linkhub-gateway/internal/application/usecases"
    "linkhub-gateway/internal/database"
    "linkhub-gateway/internal/domain/repositories"
    "linkhub-gateway/internal/gateway"
    "linkhub-gateway/internal/handler"
    "linkhub-gateway/internal/infrastructure/config"
    repo "linkhub-gateway/internal/infrastructure/repository/sqlite"
    "linkhub-gateway/internal/logger"
    fc "linkhub-gateway/internal/presentation/http/controllers"
    "linkhub-gateway/internal/ratelimit"
)

// Container provides app-wide singletons for repos/usecases/controllers.
type Container struct {
    Config *config.Config
    DB     *database.Database

    // Repositories
    Profiles  repositories.ProfileRepository
    APIKeys   repositories.APIKeyRepository
    Inquiries repositories.InquiryRepository
    Visits    repositories.VisitRepository

    // Usecases
    APIKeyUC *usecases.APIKeyUseCase

    // Controllers
    InquiryController *fc.InquiryController

    // Gateway
    Limiter    ratelimit.Limiter
    Background *gateway.Background
    Gateway    *gateway.Gateway
    Discovery  *gateway.Discovery
    Handler    *handler.Handler

    redis     *redis.Client
    stopSweep context.CancelFunc
}

func New(cfg *config.Config, db *database.Database, log *logger.Logger) (*Container, error) {
    c := &Container{
        Config:    cfg,
        DB:        db,
        Profiles:  repo.NewProfileRepo(db),
        APIKeys:   repo.NewAPIKeyRepo(db),
        Inquiries: repo.NewInquiryRepo(db),
        Visits:    repo.NewVisitRepo(db),
    }
    // Build usecases
    c.APIKeyUC = usecases.NewAPIKeyUseCase(c.APIKeys)
    // Build controllers
    c.InquiryController = fc.NewInquiryController(c.Inquiries)

    if err := c.buildLimiter(); err != nil { return nil, err }

    info := gateway.ServerInfo{Name: cfg.Application.Name, Version: cfg.Application.Version}
    profiles := gateway.NewProfiles(c.Profiles, cfg.Gateway.DemoUsername)
    engine, err := gateway.NewEngine(profiles, c.Inquiries, cfg.Gateway.BaseURL, log)
    if err != nil {
        c.Close()
        return nil, fmt.Errorf("build tool engine: %w", err)
    }
    resolver := gateway.NewResolver(profiles, cfg.Gateway.BaseURL)

    c.Background = gateway.NewBackground(gateway.DefaultBackgroundTimeout, log)
    c.Gateway = gateway.New(
        gateway.NewDispatcher(engine, resolver, profiles, info, log),
        gateway.NewValidator(c.APIKeys, c.Limiter, c.Background, log),
        gateway.NewTracker(profiles, c.Visits, c.Background, log),
    )
    c.Discovery = gateway.BuildDiscovery(engine, resolver, info, cfg.Gateway.BaseURL, cfg.Gateway.Endpoint)

    c.Handler = handler.New(handler.Deps{
        Gateway:      c.Gateway,
        Discovery:    c.Discovery,
        APIKeys:      c.APIKeyUC,
        Inquiries:    c.InquiryController,
        Profiles:     c.Profiles,
        DB:           db,
        Endpoint:     cfg.Gateway.Endpoint,
        MaxBodyBytes: cfg.Gateway.MaxBodyBytes,
        Version:      cfg.Application.Version,
    })
    return c, nil
}

func (c *Container) buildLimiter() error {
    window := c.Config.RateLimit.Window()
    switch c.Config.RateLimit.Backend {
    case "redis":
        rc := c.Config.RateLimit.Redis
        client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
        ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
        defer cancel()
        if err := client.Ping(ctx).Err(); err != nil {
            client.Close()
            return fmt.Errorf("connect redis %s: %w", rc.Addr, err)
        }
        c.redis = client
        c.Limiter = ratelimit.NewRedisLimiter(client, window)
    default:
        mem := ratelimit.NewMemoryLimiter(window)
        ctx, cancel := context.WithCancel(context.Background())
        go mem.Run(ctx, window)
        c.stopSweep = cancel
        c.Limiter = mem
    }
    return nil
}

// Close drains background work and releases limiter resources. The
// database is owned by the caller.
func (c *Container) Close() error {
    if c.Gateway != nil { c.Gateway.Wait() }
    if c.stopSweep != nil { c.stopSweep() }
    if c.redis != nil { return c.redis.Close() }
    return nil
}

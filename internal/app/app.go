// Package app wires configuration, storage and services together for the
// server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/commission"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/config"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/lock"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/repository"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/retry"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/service"
	"github.com/jonboulle/clockwork"
)

type App struct {
	Repo         *repository.Repository
	Clock        clockwork.Clock
	Network      *service.NetworkService
	Batch        *service.BatchService
	Reset        *service.ResetService
	Reports      *service.ReportService
	Payouts      *service.PayoutService
	Packages     *service.PackageService
	Participants *service.ParticipantService

	redis *redis.Client
}

// Rates converts the commission settings into engine rates.
func Rates(cfg *config.Config) commission.Rates {
	return commission.Rates{
		Self:             cfg.Commission.SelfRate,
		Direct:           cfg.Commission.DirectRate,
		Pool:             cfg.Commission.PoolPercent,
		Referrer:         cfg.Commission.ReferrerPercent,
		FlatPool:         cfg.Commission.FlatPoolPercent,
		BinaryAllocation: cfg.Commission.BinaryAllocation,
		UplineLevels:     cfg.Commission.UplineLevels,
		Workers:          cfg.Batch.Workers,
	}
}

func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	policy, err := commission.New(cfg.Commission.Policy, Rates(cfg))
	if err != nil {
		return nil, err
	}

	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &App{Repo: repo, Clock: clockwork.NewRealClock()}

	var locker lock.Locker = lock.NewLocal()
	if cfg.Redis.Enabled() {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedis(a.redis)
		log.Info("batch lock backed by redis", "addr", cfg.Redis.Addr)
	}

	a.Network = service.NewNetworkService(repo, log)
	a.Batch = service.NewBatchService(repo, policy, locker, log)
	a.Batch.SetLockTTL(cfg.Batch.LockTTL)
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Batch.CommitAttempts
	a.Batch.SetRetry(retryCfg)

	a.Reset = service.NewResetService(repo, cfg.RootIdentityEmail, log)
	a.Reports = service.NewReportService(repo)
	a.Payouts = service.NewPayoutService(repo, log)
	a.Packages = service.NewPackageService(repo, a.Clock, log)
	a.Participants = service.NewParticipantService(repo, a.Network, log)

	log.Info("commission policy selected", "policy", policy.Name())
	return a, nil
}

func (a *App) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return a.Repo.Close()
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/juicebox/internal/juicebox/api/server"
	"github.com/Leopold1975/juicebox/internal/juicebox/repository/loginlimit"
	"github.com/Leopold1975/juicebox/internal/juicebox/repository/loginlimit/redis"
	pr "github.com/Leopold1975/juicebox/internal/juicebox/repository/postrepo/postgres"
	tr "github.com/Leopold1975/juicebox/internal/juicebox/repository/tagrepo/postgres"
	ur "github.com/Leopold1975/juicebox/internal/juicebox/repository/userrepo/postgres"
	"github.com/Leopold1975/juicebox/internal/juicebox/services/postservice"
	"github.com/Leopold1975/juicebox/internal/juicebox/services/userservice"
	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"github.com/Leopold1975/juicebox/internal/pkg/pgtools"
	"github.com/Leopold1975/juicebox/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Server interface {
	Start(context.Context) error
	Shutdown(context.Context) error
}

type Limiter interface {
	userservice.Limiter
	Shutdown(context.Context) error
}

// Core is the storage and service layer shared by the HTTP app and the
// seeding command.
type Core struct {
	Posts   *postservice.PostService
	Users   *userservice.UserService
	pool    *pgxpool.Pool
	limiter Limiter
}

func NewCore(ctx context.Context, cfg config.Config, lg logger.Logger) (Core, error) {
	if err := pgtools.ApplyMigration(cfg.PostgresDB); err != nil {
		return Core{}, fmt.Errorf("apply migration error: %w", err)
	}

	pool, err := pgtools.Connect(ctx, cfg.PostgresDB.ConnString())
	if err != nil {
		return Core{}, fmt.Errorf("postgres connect error: %w", err)
	}

	var limiter Limiter = loginlimit.Noop{}

	if cfg.LoginLimit.Addr != "" {
		ll, err := redis.New(ctx, cfg.LoginLimit)
		if err != nil {
			pool.Close()

			return Core{}, fmt.Errorf("redis login limiter initializing error: %w", err)
		}

		limiter = ll
	} else {
		lg.Warnf("redis address is not set, failed logins are not throttled")
	}

	users := ur.New(pool)
	posts := postservice.New(pr.New(pool), tr.New(pool), users, lg.With("service", "posts"))

	return Core{
		Posts:   posts,
		Users:   userservice.New(users, posts, limiter, cfg.Auth, lg.With("service", "users")),
		pool:    pool,
		limiter: limiter,
	}, nil
}

func (c Core) Close(ctx context.Context) error {
	defer c.pool.Close()

	if err := c.limiter.Shutdown(ctx); err != nil {
		return fmt.Errorf("limiter shutdown error: %w", err)
	}

	return nil
}

type JuiceboxApp struct {
	s    Server
	core Core
	lg   logger.Logger
	cfg  config.Config
}

func New(ctx context.Context, cfg config.Config) (JuiceboxApp, error) {
	lg, err := logger.New(cfg.Logger)
	if err != nil {
		return JuiceboxApp{}, fmt.Errorf("can't get logger error: %w", err)
	}

	core, err := NewCore(ctx, cfg, lg)
	if err != nil {
		return JuiceboxApp{}, err
	}

	s := server.New(cfg.Server, core.Posts, core.Users, lg.With("component", "http"))

	return JuiceboxApp{
		s:    s,
		core: core,
		lg:   lg,
		cfg:  cfg,
	}, nil
}

func (ja *JuiceboxApp) Run(ctx context.Context) {
	ja.lg.Infof("STARTED SERVER ON %s", ja.cfg.Server.Addr)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := ja.s.Start(runCtx); err != nil {
			ja.lg.Errorf("server start error: %s", err.Error())
			cancel()
		}
	}()

	<-runCtx.Done()

	ctxS, cancelS := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancelS()

	if err := ja.Stop(ctxS); err != nil { //nolint:contextcheck
		ja.lg.Errorf("shutdown error: %s", err.Error())
	}
}

func (ja *JuiceboxApp) Stop(ctx context.Context) error {
	if err := ja.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := ja.core.Close(ctx); err != nil {
		return err
	}

	ja.lg.Info("Shutdowned successfully")
	_ = ja.lg.Sync()

	return nil
}

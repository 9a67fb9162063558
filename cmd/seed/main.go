package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Leopold1975/juicebox/internal/juicebox/app"
	"github.com/Leopold1975/juicebox/internal/juicebox/domain/apperr"
	"github.com/Leopold1975/juicebox/internal/juicebox/services/postservice"
	"github.com/Leopold1975/juicebox/internal/juicebox/services/userservice"
	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"github.com/Leopold1975/juicebox/pkg/logger"
)

type seedUser struct {
	user  userservice.CreateUserRequest
	posts []postservice.CreatePostRequest
}

var seed = []seedUser{ //nolint:gochecknoglobals
	{
		user: userservice.CreateUserRequest{Username: "albert", Password: "bertie99", Name: "albert", Location: "omaha, ne"},
		posts: []postservice.CreatePostRequest{{
			Title:   "First Post",
			Content: "This is my first post. I hope I love writing blogs as much as I love writing them.",
			Tags:    []string{"#happy", "#youcandoanything"},
		}},
	},
	{
		user: userservice.CreateUserRequest{Username: "sandra", Password: "2sandy4me", Name: "sandy", Location: "philadelphia, pa"},
		posts: []postservice.CreatePostRequest{{
			Title:   "Having Fun",
			Content: "I am definitely confused, but I am still having fun creating my first database.",
			Tags:    []string{"#happy", "#worstdayever"},
		}},
	},
	{
		user: userservice.CreateUserRequest{Username: "glamgal", Password: "soglam", Name: "gabby", Location: "richmond, va"},
		posts: []postservice.CreatePostRequest{{
			Title:   "So Glam",
			Content: "When I see the word Glam, I think of Gary Glitter, David Bowie, and T-Rex.",
			Tags:    []string{"#neverenoughglam", "#doyouevenglam"},
		}},
	},
}

func main() {
	var (
		configPath string
		reset      bool
	)

	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to configuration file")
	flag.BoolVar(&reset, "reset", false, "drop all tables before seeding")
	flag.Parse()

	cfg, err := config.New(configPath)
	if err != nil {
		log.Fatal(err)
	}

	cfg.PostgresDB.Reload = cfg.PostgresDB.Reload || reset

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lg, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(ctx, cfg, lg); err != nil {
		lg.Errorf("seed error: %s", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, lg logger.Logger) error {
	core, err := app.NewCore(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer core.Close(ctx) //nolint:errcheck

	for _, s := range seed {
		u, err := core.Users.CreateUser(ctx, s.user)
		if errors.Is(err, apperr.ErrUserExists) {
			lg.Infof("user %q already exists, skipping", s.user.Username)

			continue
		} else if err != nil {
			return err
		}

		for _, p := range s.posts {
			p.AuthorID = u.ID

			if _, err := core.Posts.CreatePost(ctx, p); err != nil {
				return err
			}
		}
	}

	lg.Info("Finished seeding")

	return nil
}

// Command formctl edits the stored form from a terminal. It opens the same
// store as the server, so run it against a Redis or Postgres backend, or
// against a Badger directory the server is not holding open.
package main

import (
	"context"
	"os"

	"github.com/stemsi/formbuilder/internal/config"
	"github.com/stemsi/formbuilder/internal/logger"
	"github.com/stemsi/formbuilder/internal/repository"
	"github.com/stemsi/formbuilder/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	app := &app{
		out: os.Stdout,
		open: func(ctx context.Context) (*service.QuestionService, func(), error) {
			repo, closeFn, err := repository.OpenKV(ctx, cfg, log)
			if err != nil {
				return nil, nil, err
			}
			svc := service.NewQuestionService(repo, cfg.StorageKey, log)
			if err := svc.Load(ctx); err != nil {
				closeFn()
				return nil, nil, err
			}
			return svc, closeFn, nil
		},
	}

	if err := newRootCmd(app).Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/S0me0neR0man/recaccess/internal/config"
	"github.com/S0me0neR0man/recaccess/internal/hostfile"
	"github.com/S0me0neR0man/recaccess/internal/server"
)

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := newLogger(conf.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	tag, err := language.Parse(conf.Locale)
	if err != nil {
		logger.Fatal("bad locale", zap.String("locale", conf.Locale), zap.Error(err))
	}

	store := hostfile.NewStore(tag, logger)
	if conf.SeedRecords > 0 {
		if err := store.SeedDemo(conf.SeedRecords); err != nil {
			logger.Fatal("seed", zap.Error(err))
		}
	}
	s := server.NewHostServer(store, conf, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Start(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		s.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Println(err)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/S0me0neR0man/recaccess/internal/channel"
	"github.com/S0me0neR0man/recaccess/internal/config"
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

	failed := run(conf, logger)
	_ = logger.Sync()
	if failed {
		os.Exit(1)
	}
}

// run scans the remote files and reports whether any check failed.
func run(conf *config.Config, logger *zap.Logger) bool {
	var ts oauth2.TokenSource
	if conf.Token != "" {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: conf.Token})
	}
	client, err := channel.Dial(conf.Addr, ts, logger)
	if err != nil {
		logger.Error("dial", zap.String("addr", conf.Addr), zap.Error(err))
		return true
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("close client", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	c, err := NewChecker(client, conf, logger)
	if err != nil {
		logger.Error("checker", zap.Error(err))
		return true
	}
	c.Go(ctx)
	return c.Wait()
}

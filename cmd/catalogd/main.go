package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenshelf/catalog/config"
	"github.com/greenshelf/catalog/internal/adminapi"
	"github.com/greenshelf/catalog/internal/app"
	"github.com/greenshelf/catalog/internal/webserver"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	printcfg = flag.Bool("print", false, "print the effective config and exit")
)

// @title GreenShelf Catalog API
// @version 1.0
// @description Product catalog with bulk CSV import and spreadsheet export.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*conffile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if *printcfg {
		masked := *cfg
		masked.Auth.Secret = "******"
		masked.Database.Passwd = "******"
		out, _ := yaml.Marshal(&masked)
		fmt.Println(string(out))
		return
	}

	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		zap.S().Fatalf("init application: %s", err)
	}
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	adminapi.Init()
	server := webserver.NewWebServer(application)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		zap.S().Infof("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			zap.S().Errorf("web server stopped: %s", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zap.S().Errorf("shutdown web server: %s", err)
	}
}

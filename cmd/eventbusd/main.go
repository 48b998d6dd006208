// eventbusd is the event bus broker daemon.
//
// It reads configuration from broker.json in the working directory,
// opens the configured event log backend, and starts the TCP broker
// listener alongside an admin HTTP surface (health, metrics, debug
// stream).
//
// Usage:
//
//	./eventbusd              # reads ./broker.json, starts the broker
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/primal-host/eventbus/internal/adminapi"
	"github.com/primal-host/eventbus/internal/broker"
	"github.com/primal-host/eventbus/internal/config"
	"github.com/primal-host/eventbus/internal/eventlog"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("eventbusd starting...")

	cfg, err := config.Load("broker.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (listen=%s admin=%s backend=%s)", cfg.ListenAddr, cfg.AdminAddr, cfg.LogBackend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received %v, shutting down...", sig)
		cancel()
	}()

	var evLog eventlog.Log
	switch cfg.LogBackend {
	case "postgres":
		pg, err := eventlog.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("Failed to open postgres event log: %v", err)
		}
		evLog = pg
	default:
		evLog = eventlog.NewMemory()
	}
	defer evLog.Close()

	b := broker.New(cfg.ListenAddr, evLog, cfg.WorkerCount)
	admin := adminapi.New(cfg.AdminAddr, b)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := b.Start(ctx); err != nil {
			log.Printf("broker stopped: %v", err)
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		if err := admin.Start(ctx); err != nil {
			log.Printf("admin server stopped: %v", err)
			cancel()
		}
	}()

	wg.Wait()
	log.Println("eventbusd stopped")
}

// Command footswitchd is the footswitch device daemon: it serves the web API
// the editor talks to, persists the configuration and drives the optional
// UART display.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/micro-nova/footswitch-go/internal/api"
	"github.com/micro-nova/footswitch-go/internal/auth"
	"github.com/micro-nova/footswitch-go/internal/config"
	"github.com/micro-nova/footswitch-go/internal/device"
	"github.com/micro-nova/footswitch-go/internal/display"
	"github.com/micro-nova/footswitch-go/internal/events"
	"github.com/micro-nova/footswitch-go/internal/identity"
	"github.com/micro-nova/footswitch-go/internal/maintenance"
	"github.com/micro-nova/footswitch-go/internal/models"
	"github.com/micro-nova/footswitch-go/internal/zeroconf"
)

func main() {
	var (
		addr     = flag.String("addr", ":80", "HTTP listen address")
		cfgDir   = flag.String("config-dir", "", "config directory (default: ~/.config/footswitch)")
		debug    = flag.Bool("debug", false, "enable debug logging")
		serial   = flag.String("display", "", "serial port of the UART display (e.g. /dev/ttyUSB0)")
		baud     = flag.Int("baud", display.DefaultBaud, "display baud rate")
		banks    = flag.Int("banks", 1, "bank count of a fresh configuration")
		noMDNS   = flag.Bool("no-mdns", false, "do not advertise over mDNS")
		issueKey = flag.String("issue-key", "", "generate an API key for this client name, print it and exit")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "footswitch")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	authSvc, err := auth.NewService(*cfgDir)
	if err != nil {
		slog.Error("auth service initialization failed", "err", err)
		os.Exit(1)
	}
	defer authSvc.Close()

	if *issueKey != "" {
		key, err := authSvc.Issue(*issueKey)
		if err != nil {
			slog.Error("cannot issue key", "name", *issueKey, "err", err)
			os.Exit(1)
		}
		fmt.Println(key)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := config.NewJSONStore(*cfgDir, config.Defaults{Meta: models.DefaultMeta(), BankCount: *banks})
	bus := events.NewBus[models.DeviceState]()

	ctrl, err := device.New(store, bus)
	if err != nil {
		slog.Error("device initialization failed", "err", err)
		os.Exit(1)
	}
	meta := ctrl.Meta()
	id := identity.Get(*cfgDir)
	slog.Info("device ready", "banks", meta.BankCount, "buttons", meta.Buttons, "config", store.Path(), "version", id.Version)

	// Daily configuration backups
	go maintenance.New(filepath.Join(*cfgDir, "backups"), ctrl.State).Start(ctx)

	if *serial != "" {
		port, err := display.OpenSerial(*serial, *baud)
		if err != nil {
			slog.Warn("display unavailable", "port", *serial, "err", err)
		} else {
			mirror := display.NewMirror(port)
			updates := bus.Subscribe("display")
			go func() {
				defer port.Close()
				mirror.Show(ctrl.State())
				if err := mirror.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
					slog.Warn("display mirror stopped", "err", err)
				}
			}()
		}
	}

	if !*noMDNS {
		mode := "open"
		if !authSvc.IsOpenMode() {
			mode = "key"
		}
		txt := append(id.TXT(), "buttons="+strconv.Itoa(meta.Buttons), "auth="+mode)
		zc := zeroconf.New(id.Hostname, listenPort(*addr), txt...)
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(ctrl, authSvc, bus),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("footswitch listening", "addr", *addr, "config", *cfgDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	// Flush pending config writes
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush config", "err", err)
	}
	bus.Close()

	slog.Info("shutdown complete")
}

// listenPort extracts the port from a listen address, defaulting to 80.
func listenPort(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 80
	}
	return port
}

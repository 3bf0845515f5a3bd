// Command footswitch is the configuration editor for footswitch devices.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/micro-nova/footswitch-go/internal/client"
	"github.com/micro-nova/footswitch-go/internal/zeroconf"
)

var rootCmd = &cobra.Command{
	Use:           "footswitch",
	Short:         "Edit the banks, switches and LEDs of a footswitch",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var (
	verbose    bool
	deviceFlag string
	configPath string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", "", "device URL or host (default: config file, then mDNS discovery)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "editor config file (default: ~/.config/footswitch/editor.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadSettings reads the config file and applies the command line on top.
func loadSettings() (Config, error) {
	path, explicit := configPath, configPath != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	cfg, err := LoadConfig(path, explicit)
	if err != nil {
		return Config{}, err
	}
	if deviceFlag != "" {
		cfg.Device = deviceFlag
	}
	return cfg, nil
}

// connect returns a client for the configured device, discovering one over
// mDNS when none is configured.
func connect(ctx context.Context, cfg Config) (*client.Client, error) {
	addr := cfg.Device
	if addr == "" {
		devices, err := zeroconf.Discover(ctx, 2*time.Second)
		if err != nil {
			return nil, fmt.Errorf("discover: %w", err)
		}
		if len(devices) == 0 {
			return nil, fmt.Errorf("no device found; pass --device")
		}
		addr = devices[0].URL()
		slog.Info("using discovered device", "instance", devices[0].Instance, "url", addr)
	}
	return client.New(addr, client.Options{
		APIKey:            cfg.APIKey,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
}

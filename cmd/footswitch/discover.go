package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/micro-nova/footswitch-go/internal/zeroconf"
)

func init() {
	rootCmd.AddCommand(newDiscoverCommand().cmd)
}

type discoverCommand struct {
	cmd  *cobra.Command
	wait time.Duration
}

func newDiscoverCommand() *discoverCommand {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List footswitch devices on the local network",
		Args:  cobra.NoArgs,
	}
	out := &discoverCommand{cmd: cmd}
	cmd.Flags().DurationVar(&out.wait, "wait", 3*time.Second, "how long to browse")
	cmd.RunE = out.run
	return out
}

func (c *discoverCommand) run(cmd *cobra.Command, _ []string) error {
	devices, err := zeroconf.Discover(cmd.Context(), c.wait)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(devices) == 0 {
		fmt.Fprintln(w, "no devices found")
		return nil
	}
	for _, d := range devices {
		var txt []string
		for k, v := range d.TXT {
			txt = append(txt, k+"="+v)
		}
		fmt.Fprintf(w, "%-20s %-28s %s\n", d.Instance, d.URL(), strings.Join(sortedStrings(txt), " "))
	}
	return nil
}

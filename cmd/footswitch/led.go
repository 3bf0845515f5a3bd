package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/micro-nova/footswitch-go/internal/models"
)

func init() {
	rootCmd.AddCommand(newLEDCommand().cmd)
}

type ledCommand struct {
	cmd *cobra.Command
}

func newLEDCommand() *ledCommand {
	cmd := &cobra.Command{
		Use:   "led [brightness]",
		Short: "Print or set the LED brightness (0-100)",
		Args:  cobra.MaximumNArgs(1),
	}
	out := &ledCommand{cmd: cmd}
	cmd.RunE = out.run
	return out
}

func (c *ledCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	remote, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		v := models.ParseClamp(args[0], 0, models.MaxBrightness)
		if err := remote.SetLED(ctx, models.LED{Brightness: v}); err != nil {
			return err
		}
	}
	led, err := remote.LED(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d%%\n", led.Brightness)
	return nil
}

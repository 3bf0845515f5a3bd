package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/micro-nova/footswitch-go/internal/client"
	"github.com/micro-nova/footswitch-go/internal/models"
)

func init() {
	rootCmd.AddCommand(newShowCommand().cmd)
}

type showCommand struct {
	cmd  *cobra.Command
	bank int
}

func newShowCommand() *showCommand {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the device layout and one bank's switches",
		Args:  cobra.NoArgs,
	}
	out := &showCommand{cmd: cmd}
	cmd.Flags().IntVar(&out.bank, "bank", 0, "bank to print (1-based, default: the live bank)")
	cmd.RunE = out.run
	return out
}

func (c *showCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	remote, err := connect(ctx, cfg)
	if err != nil {
		return err
	}

	meta, err := remote.Meta(ctx)
	if err != nil {
		return err
	}
	layout, err := remote.Layout(ctx)
	if err != nil {
		return err
	}
	live, err := remote.State(ctx)
	if err != nil {
		return err
	}
	bank := live.Bank
	if c.bank > 0 {
		bank = models.Wrap(c.bank-1, layout.BankCount)
	}
	return printBank(ctx, cmd.OutOrStdout(), remote, models.NormalizeMeta(meta), layout, live.Bank, bank)
}

type bankReader interface {
	Bank(ctx context.Context, bank int) (models.BankData, error)
	Button(ctx context.Context, bank, btn int) (models.ButtonMap, error)
}

var _ bankReader = (*client.Client)(nil)

func printBank(ctx context.Context, w io.Writer, r bankReader, meta models.Meta, layout models.Layout, live, bank int) error {
	for _, b := range layout.Banks {
		mark := " "
		if b.Index == live {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %3d  %s\n", mark, b.Index+1, b.Name)
	}
	data, err := r.Bank(ctx, bank)
	if err != nil {
		return err
	}
	data = models.NormalizeBankData(data, meta.Buttons)
	fmt.Fprintf(w, "\nbank %d:\n", bank+1)
	for i, name := range data.SwitchNames {
		m, err := r.Button(ctx, bank, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %d %-5s  mode %d  short %d  long %d\n", i+1, name, m.PressMode, len(m.Short), len(m.Long))
	}
	return nil
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}

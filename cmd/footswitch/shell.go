package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/micro-nova/footswitch-go/internal/editor"
	"github.com/micro-nova/footswitch-go/internal/models"
)

func init() {
	rootCmd.AddCommand(newShellCommand().cmd)
}

type shellCommand struct {
	cmd *cobra.Command
}

func newShellCommand() *shellCommand {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Edit a device interactively",
		Long: "Edit a device interactively. Every change autosaves; switching banks\n" +
			"or switches saves pending edits first. Type 'help' for commands.",
		Args: cobra.NoArgs,
	}
	out := &shellCommand{cmd: cmd}
	cmd.RunE = out.run
	return out
}

func (c *shellCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	remote, err := connect(ctx, cfg)
	if err != nil {
		return err
	}

	out := &syncWriter{w: cmd.OutOrStdout()}
	opts, recOpts := cfg.sessionOptions()
	opts.Status = func(st models.Status) {
		mark := "ok"
		if !st.OK {
			mark = "!!"
		}
		fmt.Fprintf(out, "[%s] %s\n", mark, st.Text)
	}

	s := editor.New(remote, opts)
	if err := s.Init(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.Close(context.Background()); err != nil {
			fmt.Fprintf(out, "unsaved edits: %v\n", err)
		}
	}()

	pollCtx, stop := context.WithCancel(ctx)
	defer stop()
	go editor.NewReconciler(s, recOpts).Run(pollCtx)

	fmt.Fprintf(out, "connected to %s\n", remote.BaseURL())
	printView(out, s.Snapshot())
	return runShell(ctx, s, cmd.InOrStdin(), out)
}

// syncWriter serializes writes from the prompt and from status callbacks.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

var errQuit = errors.New("quit")

// runShell reads commands from in until EOF or "quit".
func runShell(ctx context.Context, s *editor.Session, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for sc.Scan() {
		err := execLine(ctx, s, out, sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		fmt.Fprint(out, "> ")
	}
	return sc.Err()
}

const shellHelp = `commands:
  show                         print the current bank and switch
  bank <n>|next|prev           open bank n (1-based)
  btn <n>                      select switch n (1-based)
  name <text>                  rename the bank
  sw <text>                    rename the switch
  mode <0-3>                   press mode: 0 single, 1 short/long, 2 toggle, 3 group
  abled <a|b>                  LED lit by a toggle switch
  add <short|long>             append an action
  rm <list> <n>                remove action n
  type <list> <n> <cc|pc>      change an action's type
  set <list> <n> <ch|a|b> <v>  change an action field
  led <0-100>                  LED brightness
  commit                       save text edits now
  addbank | delbank            insert after / delete the current bank
  reload | revert | flush      re-read, discard edits, or save everything
  quit`

// execLine runs one shell command. Names and numbers are 1-based at the
// prompt.
func execLine(ctx context.Context, s *editor.Session, out io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	verb, args := fields[0], fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), verb))

	switch verb {
	case "help", "?":
		fmt.Fprintln(out, shellHelp)
	case "quit", "exit":
		return errQuit
	case "show":
		printView(out, s.Snapshot())
	case "bank":
		if err := need(args, 1); err != nil {
			return err
		}
		var err error
		switch args[0] {
		case "next", "+":
			err = s.NextBank(ctx)
		case "prev", "-":
			err = s.PrevBank(ctx)
		default:
			err = s.GotoBank(ctx, number(args[0])-1)
		}
		if err != nil {
			return err
		}
		printView(out, s.Snapshot())
	case "btn":
		if err := need(args, 1); err != nil {
			return err
		}
		if err := s.SelectButton(ctx, number(args[0])-1); err != nil {
			return err
		}
		printView(out, s.Snapshot())
	case "name":
		return s.SetBankName(rest)
	case "sw":
		return s.SetSwitchName(rest)
	case "mode":
		if err := need(args, 1); err != nil {
			return err
		}
		return s.SetPressMode(ctx, models.ParseClamp(args[0], models.PressSingle, models.PressGroup))
	case "abled":
		if err := need(args, 1); err != nil {
			return err
		}
		led := 1
		if args[0] == "a" || args[0] == "0" {
			led = 0
		}
		return s.SetABLed(ctx, led)
	case "add":
		if err := need(args, 1); err != nil {
			return err
		}
		return s.AddAction(ctx, args[0])
	case "rm":
		if err := need(args, 2); err != nil {
			return err
		}
		return s.RemoveAction(ctx, args[0], number(args[1])-1)
	case "type":
		if err := need(args, 3); err != nil {
			return err
		}
		return s.SetActionType(ctx, args[0], number(args[1])-1, args[2])
	case "set":
		if err := need(args, 4); err != nil {
			return err
		}
		if err := s.SetActionField(args[0], number(args[1])-1, args[2], models.ParseClamp(args[3], 0, models.MaxData7)); err != nil {
			return err
		}
		s.Commit()
	case "led":
		if err := need(args, 1); err != nil {
			return err
		}
		return s.SetBrightness(models.ParseClamp(args[0], 0, models.MaxBrightness))
	case "commit":
		s.Commit()
	case "addbank":
		return s.AddBank(ctx)
	case "delbank":
		return s.DeleteBank(ctx)
	case "reload":
		return s.Reload(ctx)
	case "revert":
		return s.Revert(ctx)
	case "flush":
		return s.Flush(ctx)
	default:
		return fmt.Errorf("unknown command %q (try help)", verb)
	}
	return nil
}

func need(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expected %d argument(s)", n)
	}
	return nil
}

// number parses a prompt index; anything unparsable is 0.
func number(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func printView(w io.Writer, v editor.View) {
	fmt.Fprintf(w, "bank %d/%d %q  switch %d %q  led %d%%\n",
		v.Cursor.Bank+1, v.Layout.BankCount, v.BankName(),
		v.Cursor.Button+1, switchName(v), v.LED.Brightness)
	b := v.Button
	fmt.Fprintf(w, "  mode %d", b.PressMode)
	if b.PressMode == models.PressToggle {
		fmt.Fprintf(w, "  led %s", map[int]string{0: "a", 1: "b"}[b.ABLed])
	}
	fmt.Fprintln(w)
	printActions(w, models.ListShort, b.Short)
	if b.PressMode == models.PressShortLong || b.PressMode == models.PressToggle {
		printActions(w, models.ListLong, b.Long)
	}
	if len(v.Pending) > 0 {
		fmt.Fprintf(w, "  unsaved: %s\n", strings.Join(v.Pending, ", "))
	}
}

func switchName(v editor.View) string {
	if v.Cursor.Button < len(v.Bank.SwitchNames) {
		return v.Bank.SwitchNames[v.Cursor.Button]
	}
	return ""
}

func printActions(w io.Writer, list string, acts []models.Action) {
	fmt.Fprintf(w, "  %s:\n", list)
	if len(acts) == 0 {
		fmt.Fprintln(w, "    (none)")
	}
	for i, a := range acts {
		if a.Type == models.ActionPC {
			fmt.Fprintf(w, "    %d. pc ch %d program %d\n", i+1, a.Ch, a.A)
			continue
		}
		fmt.Fprintf(w, "    %d. cc ch %d cc %d value %d\n", i+1, a.Ch, a.A, a.B)
	}
}

package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/micro-nova/footswitch-go/internal/models"
)

// Init loads the device: capabilities, layout, LED, then the bank the
// hardware reports as live.
func (s *Session) Init(ctx context.Context) error {
	s.navMu.Lock()
	defer s.navMu.Unlock()

	s.setStatus("init…", true)
	release := s.gate.Hold()
	defer release()

	meta, err := s.remote.Meta(ctx)
	if err != nil {
		return s.failStatus("init failed: ", fmt.Errorf("load meta: %w", err))
	}
	meta = models.NormalizeMeta(meta)
	s.mu.Lock()
	s.meta = meta
	s.mu.Unlock()

	bank := 0
	if st, err := s.remote.State(ctx); err == nil {
		bank = st.Bank
	} else {
		slog.Debug("editor: live state unavailable at init", "err", err)
	}

	snap, err := s.fetch(ctx, models.Cursor{Bank: bank}, true)
	if err != nil {
		return s.failStatus("init failed: ", err)
	}
	if err := s.postState(ctx, snap.cursor.Bank); err != nil {
		return s.failStatus("init failed: ", err)
	}
	s.apply(snap)
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	s.setStatus("ready", true)
	return nil
}

func (s *Session) checkReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return errNotReady
	}
	return nil
}

// postState tells the hardware which bank the editor shows and stamps the
// navigation time the reconciler's grace window counts from.
func (s *Session) postState(ctx context.Context, bank int) error {
	s.mu.Lock()
	s.lastNavAt = s.now()
	s.mu.Unlock()
	if err := s.remote.SetState(ctx, models.LiveState{Bank: bank}); err != nil {
		return fmt.Errorf("set hardware state: %w", err)
	}
	return nil
}

// move is the body of every navigation: settle, fetch the target, tell the
// hardware, then swap the cursor and locals in one step. On any failure the
// session keeps showing the previous context.
func (s *Session) move(ctx context.Context, target models.Cursor, post bool, full bool) error {
	release, err := s.settle(ctx)
	if err != nil {
		return err
	}
	defer release()
	return s.load(ctx, target, post, full)
}

// load runs with the gate held.
func (s *Session) load(ctx context.Context, target models.Cursor, post bool, full bool) error {
	s.mu.Lock()
	full = full || s.stale
	s.mu.Unlock()
	snap, err := s.fetch(ctx, target, full)
	if err != nil {
		return err
	}
	if post {
		if err := s.postState(ctx, snap.cursor.Bank); err != nil {
			return err
		}
	}
	s.apply(snap)
	return nil
}

// GotoBank flushes pending edits and switches to bank, wrapping out-of-range
// values. The button index is kept.
func (s *Session) GotoBank(ctx context.Context, bank int) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	s.navMu.Lock()
	defer s.navMu.Unlock()
	cur := s.Cursor()
	if err := s.move(ctx, models.Cursor{Bank: bank, Button: cur.Button}, true, false); err != nil {
		return s.failStatus("load bank failed: ", err)
	}
	return nil
}

// NextBank moves one bank up, wrapping at the end.
func (s *Session) NextBank(ctx context.Context) error {
	return s.GotoBank(ctx, s.Cursor().Bank+1)
}

// PrevBank moves one bank down, wrapping at the start.
func (s *Session) PrevBank(ctx context.Context) error {
	return s.GotoBank(ctx, s.Cursor().Bank-1)
}

// SelectButton flushes pending edits and opens button btn of the current bank.
func (s *Session) SelectButton(ctx context.Context, btn int) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	s.navMu.Lock()
	defer s.navMu.Unlock()

	release, err := s.settle(ctx)
	if err != nil {
		return s.failStatus("load switch failed: ", err)
	}
	defer release()

	s.mu.Lock()
	s.lastNavAt = s.now()
	target := models.Cursor{Bank: s.cursor.Bank, Button: btn}
	s.mu.Unlock()
	if err := s.load(ctx, target, false, false); err != nil {
		return s.failStatus("load switch failed: ", err)
	}
	return nil
}

// AddBank inserts a default bank after the current one and opens it.
func (s *Session) AddBank(ctx context.Context) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	s.navMu.Lock()
	defer s.navMu.Unlock()

	s.mu.Lock()
	full := s.local.layout.BankCount >= s.meta.MaxBanks
	s.mu.Unlock()
	if full {
		return s.failStatus("add bank failed: ", models.ErrInvalidOp("max banks reached"))
	}

	err := s.editLayout(ctx, func(l *models.Layout, cur models.Cursor) models.Cursor {
		pos := min(l.BankCount, cur.Bank+1)
		nb := models.Bank{Index: pos, Name: models.DefaultBankName(pos)}
		l.Banks = append(l.Banks[:pos], append([]models.Bank{nb}, l.Banks[pos:]...)...)
		l.Reindex()
		return models.Cursor{Bank: pos, Button: cur.Button}
	})
	if err != nil {
		return s.failStatus("add bank failed: ", err)
	}
	s.setStatus("added bank", true)
	return nil
}

// DeleteBank removes the current bank and opens its successor (or the new
// last bank). The last remaining bank cannot be deleted.
func (s *Session) DeleteBank(ctx context.Context) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	s.navMu.Lock()
	defer s.navMu.Unlock()

	s.mu.Lock()
	last := s.local.layout.BankCount <= 1
	s.mu.Unlock()
	if last {
		return s.failStatus("delete bank failed: ", models.ErrInvalidOp("need at least 1 bank"))
	}

	err := s.editLayout(ctx, func(l *models.Layout, cur models.Cursor) models.Cursor {
		l.Banks = append(l.Banks[:cur.Bank], l.Banks[cur.Bank+1:]...)
		l.Reindex()
		return models.Cursor{Bank: min(cur.Bank, l.BankCount-1), Button: cur.Button}
	})
	if err != nil {
		return s.failStatus("delete bank failed: ", err)
	}
	s.setStatus("deleted bank", true)
	return nil
}

// editLayout settles, applies a structural change to the layout, writes it
// and opens the cursor fn returns. A failed write leaves the local layout
// as it was.
func (s *Session) editLayout(ctx context.Context, fn func(l *models.Layout, cur models.Cursor) models.Cursor) error {
	release, err := s.settle(ctx)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	prev := s.local.layout
	next := prev.DeepCopy()
	target := fn(&next, s.cursor)
	s.local.layout = next
	s.mu.Unlock()

	if err := s.remote.SetLayout(ctx, layoutPayload(next)); err != nil {
		s.mu.Lock()
		s.local.layout = prev
		s.mu.Unlock()
		return fmt.Errorf("save layout: %w", err)
	}
	// per-bank data moved on the device; reload all of it
	if err := s.load(ctx, target, true, true); err != nil {
		// the loaded bank and button no longer match the device's layout
		s.mu.Lock()
		s.stale = true
		s.mu.Unlock()
		return err
	}
	return nil
}

// Reload flushes pending edits and re-reads everything from the device.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	s.navMu.Lock()
	defer s.navMu.Unlock()
	if err := s.move(ctx, s.Cursor(), false, true); err != nil {
		return s.failStatus("reload failed: ", err)
	}
	s.setStatus("reloaded", true)
	return nil
}

// Revert discards local edits and re-reads everything without flushing.
// Writes already in flight finish first; their results are overwritten.
func (s *Session) Revert(ctx context.Context) error {
	if err := s.checkReady(); err != nil {
		return err
	}
	s.navMu.Lock()
	defer s.navMu.Unlock()

	release := s.gate.Hold()
	defer release()
	s.led.Stop()
	for _, sv := range s.savers() {
		if err := sv.Wait(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if err := s.load(ctx, s.Cursor(), false, true); err != nil {
		return s.failStatus("revert failed: ", err)
	}
	s.setStatus("reverted", true)
	return nil
}

// Flush runs the flush barrier without changing context.
func (s *Session) Flush(ctx context.Context) error {
	s.navMu.Lock()
	defer s.navMu.Unlock()
	return s.barrier.FlushAll(ctx)
}

// Close flushes pending edits and stops background work. Writes started
// after Close fail.
func (s *Session) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.led.Stop()
	s.cancel()
	return err
}

package editor

import (
	"context"
	"fmt"

	"github.com/micro-nova/footswitch-go/internal/autosave"
	"github.com/micro-nova/footswitch-go/internal/models"
)

var (
	errNotReady = models.ErrConflict("editor is not initialised")
	errLoading  = models.ErrConflict("bank is loading, edit rejected")
	errStale    = models.ErrConflict("layout changed, reload required")
)

// edit applies fn to the locals and marks sv dirty in one step, so an edit
// either lands before a settle or is rejected. fn may refuse the edit.
func (s *Session) edit(sv *autosave.Saver, fn func(l *locals, cur models.Cursor, meta models.Meta) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.ready:
		return errNotReady
	case s.gate.Held():
		return errLoading
	case s.stale:
		return errStale
	}
	if err := fn(&s.local, s.cursor, s.meta); err != nil {
		return err
	}
	if sv != nil {
		sv.MarkDirty()
	}
	return nil
}

// editNow is edit followed by an immediate save that the caller waits on.
func (s *Session) editNow(ctx context.Context, sv *autosave.Saver, fn func(l *locals, cur models.Cursor, meta models.Meta) error) error {
	if err := s.edit(sv, fn); err != nil {
		return err
	}
	return sv.SaveImmediate(ctx)
}

// SetBankName renames the current bank. The change is saved on Commit.
func (s *Session) SetBankName(name string) error {
	return s.edit(s.layout, func(l *locals, cur models.Cursor, _ models.Meta) error {
		if cur.Bank >= len(l.layout.Banks) {
			return models.ErrNotFound(fmt.Sprintf("bank %d not in layout", cur.Bank))
		}
		l.layout.Banks[cur.Bank].Name = models.ClipText(name, models.MaxBankName)
		return nil
	})
}

// SetSwitchName renames the current button in the current bank. An empty
// name falls back to the default label. The change is saved on Commit.
func (s *Session) SetSwitchName(name string) error {
	return s.edit(s.bank, func(l *locals, cur models.Cursor, meta models.Meta) error {
		for len(l.bank.SwitchNames) < meta.Buttons {
			l.bank.SwitchNames = append(l.bank.SwitchNames, models.DefaultSwitchName(len(l.bank.SwitchNames)))
		}
		v := models.ClipText(name, models.MaxSwitchName)
		if v == "" {
			v = models.DefaultSwitchName(cur.Button)
		}
		l.bank.SwitchNames[cur.Button] = v
		return nil
	})
}

// SetPressMode changes the current button's press mode and saves it.
func (s *Session) SetPressMode(ctx context.Context, mode int) error {
	return s.editNow(ctx, s.button, func(l *locals, _ models.Cursor, _ models.Meta) error {
		l.button.PressMode = models.ClampInt(mode, models.PressSingle, models.PressGroup)
		if l.button.PressMode == models.PressToggle && (l.button.ABLed < 0 || l.button.ABLed > 1) {
			l.button.ABLed = 1
		}
		return nil
	})
}

// SetABLed picks which LED (0 = a, 1 = b) lights for a toggle button and
// saves it. Only toggle buttons have the choice.
func (s *Session) SetABLed(ctx context.Context, led int) error {
	return s.editNow(ctx, s.button, func(l *locals, _ models.Cursor, _ models.Meta) error {
		if l.button.PressMode != models.PressToggle {
			return models.ErrInvalidOp("a/b led only applies to toggle buttons")
		}
		l.button.ABLed = models.ClampInt(led, 0, 1)
		return nil
	})
}

// actionList returns the list named list ("short" or "long") of m.
func actionList(m *models.ButtonMap, list string) (*[]models.Action, error) {
	switch list {
	case models.ListShort:
		return &m.Short, nil
	case models.ListLong:
		return &m.Long, nil
	}
	return nil, models.ErrBadRequest(fmt.Sprintf("unknown action list %q", list))
}

func actionAt(m *models.ButtonMap, list string, idx int) (*models.Action, error) {
	acts, err := actionList(m, list)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(*acts) {
		return nil, models.ErrNotFound(fmt.Sprintf("no action %d in %s list", idx, list))
	}
	return &(*acts)[idx], nil
}

// AddAction appends a default action to list and saves the button.
// Lists hold at most meta.MaxActions entries, and only short/long and
// toggle buttons have a long list.
func (s *Session) AddAction(ctx context.Context, list string) error {
	return s.editNow(ctx, s.button, func(l *locals, _ models.Cursor, meta models.Meta) error {
		acts, err := actionList(&l.button, list)
		if err != nil {
			return err
		}
		if list == models.ListLong && (l.button.PressMode == models.PressSingle || l.button.PressMode == models.PressGroup) {
			return models.ErrInvalidOp(fmt.Sprintf("press mode %d has no long list", l.button.PressMode))
		}
		if len(*acts) >= meta.MaxActions {
			return models.ErrInvalidOp(fmt.Sprintf("max actions reached (%d)", meta.MaxActions))
		}
		*acts = append(*acts, models.DefaultAction())
		return nil
	})
}

// RemoveAction deletes action idx from list and saves the button.
func (s *Session) RemoveAction(ctx context.Context, list string, idx int) error {
	return s.editNow(ctx, s.button, func(l *locals, _ models.Cursor, _ models.Meta) error {
		if _, err := actionAt(&l.button, list, idx); err != nil {
			return err
		}
		acts, _ := actionList(&l.button, list)
		*acts = append((*acts)[:idx], (*acts)[idx+1:]...)
		return nil
	})
}

// SetActionType switches an action between "cc" and "pc" and saves the
// button. Program changes carry no value byte.
func (s *Session) SetActionType(ctx context.Context, list string, idx int, typ string) error {
	if typ != models.ActionCC && typ != models.ActionPC {
		return models.ErrBadRequest(fmt.Sprintf("unknown action type %q", typ))
	}
	return s.editNow(ctx, s.button, func(l *locals, _ models.Cursor, _ models.Meta) error {
		a, err := actionAt(&l.button, list, idx)
		if err != nil {
			return err
		}
		a.Type = typ
		*a = models.NormalizeAction(*a)
		return nil
	})
}

// Action fields that SetActionField accepts.
const (
	FieldChannel = "ch"
	FieldA       = "a"
	FieldB       = "b"
)

// SetActionField sets one numeric field of an action, clamped to its range.
// Like typing into a field, it only marks the button dirty; Commit saves it.
func (s *Session) SetActionField(list string, idx int, field string, value int) error {
	return s.edit(s.button, func(l *locals, _ models.Cursor, _ models.Meta) error {
		a, err := actionAt(&l.button, list, idx)
		if err != nil {
			return err
		}
		switch field {
		case FieldChannel:
			a.Ch = value
		case FieldA:
			a.A = value
		case FieldB:
			a.B = value
		default:
			return models.ErrBadRequest(fmt.Sprintf("unknown action field %q", field))
		}
		*a = models.NormalizeAction(*a)
		return nil
	})
}

// SetBrightness sets the LED brightness. Saves are debounced, so a drag
// across the range writes once it comes to rest.
func (s *Session) SetBrightness(v int) error {
	err := s.edit(nil, func(l *locals, _ models.Cursor, _ models.Meta) error {
		l.led.Brightness = models.NormalizeBrightness(v)
		s.led.Edit()
		return nil
	})
	return err
}

// Commit finishes the current text edit: every resource with uncommitted
// changes starts saving. It does not wait.
func (s *Session) Commit() {
	s.commit()
}

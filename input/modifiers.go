package input

// Modifiers reports which keyboard modifiers are currently held.
type Modifiers interface {
	CtrlDown() bool
	AltDown() bool
	ShiftDown() bool
}

// ModifierState is a fixed Modifiers snapshot.
type ModifierState struct {
	Ctrl, Alt, Shift bool
}

func (m ModifierState) CtrlDown() bool  { return m.Ctrl }
func (m ModifierState) AltDown() bool   { return m.Alt }
func (m ModifierState) ShiftDown() bool { return m.Shift }

// Snapshot copies the current state of m.
func Snapshot(m Modifiers) ModifierState {
	if m == nil {
		return ModifierState{}
	}
	return ModifierState{Ctrl: m.CtrlDown(), Alt: m.AltDown(), Shift: m.ShiftDown()}
}

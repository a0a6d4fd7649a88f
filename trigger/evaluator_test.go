package trigger_test

import (
	"testing"

	"github.com/Alia5/padbridge/deadzone"
	"github.com/Alia5/padbridge/device"
	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allModifierStates = func() []input.ModifierState {
	var out []input.ModifierState
	for i := 0; i < 8; i++ {
		out = append(out, input.ModifierState{Ctrl: i&1 != 0, Alt: i&2 != 0, Shift: i&4 != 0})
	}
	return out
}()

func button(name string) *input.Sampled {
	return input.NewSampled(input.Channel{Device: "kbd", Name: name, Kind: input.KindButton})
}

func axis(name string, kind input.Kind) *input.Sampled {
	return input.NewSampled(input.Channel{Device: "pad", Name: name, Kind: kind, Stick: "left"})
}

func TestCheckModifiersNoModifiers(t *testing.T) {
	for _, flags := range allModifierStates {
		r := &trigger.Rule{NoModifiers: true, Ctrl: flags.Ctrl, Alt: flags.Alt, Shift: flags.Shift}
		for _, held := range allModifierStates {
			e := trigger.Evaluator{Modifiers: held}
			expected := !held.Ctrl && !held.Alt && !held.Shift
			assert.Equal(t, expected, e.CheckModifiers(r), "rule=%+v held=%+v", flags, held)
		}
	}
}

func TestCheckModifiersRequired(t *testing.T) {
	ctrlOnly := &trigger.Rule{Ctrl: true}
	for _, held := range allModifierStates {
		e := trigger.Evaluator{Modifiers: held}
		assert.Equal(t, held.Ctrl, e.CheckModifiers(ctrlOnly), "held=%+v", held)
	}

	for _, flags := range allModifierStates {
		r := &trigger.Rule{Ctrl: flags.Ctrl, Alt: flags.Alt, Shift: flags.Shift}
		for _, held := range allModifierStates {
			e := trigger.Evaluator{Modifiers: held}
			expected := (!flags.Ctrl || held.Ctrl) && (!flags.Alt || held.Alt) && (!flags.Shift || held.Shift)
			assert.Equal(t, expected, e.CheckModifiers(r), "rule=%+v held=%+v", flags, held)
		}
	}
}

func TestIsActive(t *testing.T) {
	a := button("a")
	lx := axis("lx", input.KindAxisX)

	type testCase struct {
		name     string
		rule     trigger.Rule
		setup    func()
		held     input.ModifierState
		expected bool
	}

	cases := []testCase{
		{name: "unbound", rule: trigger.Rule{}, setup: func() {}, expected: false},
		{name: "button at rest", rule: trigger.Rule{Source: a}, setup: func() { a.Set(0) }, expected: false},
		{name: "button pressed", rule: trigger.Rule{Source: a}, setup: func() { a.Set(1) }, expected: true},
		{name: "modifier missing", rule: trigger.Rule{Source: a, Shift: true}, setup: func() { a.Set(1) }, expected: false},
		{name: "modifier held", rule: trigger.Rule{Source: a, Shift: true}, setup: func() { a.Set(1) }, held: input.ModifierState{Shift: true}, expected: true},
		{name: "axis centered", rule: trigger.Rule{Source: lx}, setup: func() { lx.Set(0) }, expected: false},
		{name: "axis deflected", rule: trigger.Rule{Source: lx}, setup: func() { lx.Set(-0.1) }, expected: true},
		{name: "axis inside deadzone is still active", rule: trigger.Rule{Source: lx, Deadzone: &deadzone.Deadzone{Radius: 0.5}}, setup: func() { lx.Set(0.1) }, expected: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.setup()
			e := trigger.Evaluator{Modifiers: tc.held}
			assert.Equal(t, tc.expected, e.IsActive(&tc.rule))
		})
	}
}

func TestPayload(t *testing.T) {
	a := button("a")
	lx := axis("lx", input.KindAxisX)
	ly := axis("ly", input.KindAxisY)
	sticks := input.NewStickCache()
	e := trigger.Evaluator{Sticks: sticks}

	sample := func(x, y float64) {
		lx.Set(x)
		ly.Set(y)
		sticks.Sample(lx)
		sticks.Sample(ly)
	}

	type testCase struct {
		name     string
		rule     trigger.Rule
		x, y     float64
		pressed  bool
		expected float64
	}

	dz := &deadzone.Deadzone{Radius: 0.2}
	cases := []testCase{
		{name: "button ignores invert", rule: trigger.Rule{Source: a, Invert: true, Deadzone: dz}, pressed: true, expected: 1},
		{name: "button released", rule: trigger.Rule{Source: a}, expected: 0},
		{name: "raw axis", rule: trigger.Rule{Source: lx}, x: 0.4, expected: 0.4},
		{name: "inverted axis", rule: trigger.Rule{Source: lx, Invert: true}, x: 0.4, expected: -0.4},
		{name: "deadzone y uses paired x", rule: trigger.Rule{Source: ly, Deadzone: dz}, x: 0.6, y: 0.8, expected: 0.8},
		{name: "deadzone swallows small", rule: trigger.Rule{Source: lx, Deadzone: dz}, x: 0.1, y: 0.1, expected: 0},
		{name: "invert then shape", rule: trigger.Rule{Source: lx, Invert: true, Deadzone: dz}, x: 0.5, expected: -0.375},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a.SetPressed(tc.pressed)
			sample(tc.x, tc.y)
			v, ok := e.Payload(&tc.rule)
			require.True(t, ok)
			assert.InDelta(t, tc.expected, v, 1e-9)
		})
	}

	_, ok := e.Payload(&trigger.Rule{})
	assert.False(t, ok)
}

func TestPayloadWithoutStickCache(t *testing.T) {
	ly := axis("ly", input.KindAxisY)
	ly.Set(0.6)
	v, ok := trigger.Evaluator{}.Payload(&trigger.Rule{Source: ly, Deadzone: &deadzone.Deadzone{Radius: 0.2}})
	require.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestRuleString(t *testing.T) {
	r := &trigger.Rule{Source: button("q"), Ctrl: true, Shift: true, Target: device.ButtonTarget(device.ButtonA)}
	assert.Equal(t, "ctrl+shift+kbd/q -> a", r.String())

	r = &trigger.Rule{NoModifiers: true, Ctrl: true, Target: device.AxisTarget(device.AxisLeftTrigger)}
	assert.Equal(t, "nomod+<none> -> leftTrigger", r.String())
}

package profile_test

import (
	"path/filepath"
	"testing"

	"go.uber.org/multierr"

	"github.com/Alia5/padbridge/deadzone"
	"github.com/Alia5/padbridge/device"
	"github.com/Alia5/padbridge/input"
	"github.com/Alia5/padbridge/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectedProfile() *profile.Profile {
	return &profile.Profile{
		Name:        "racing",
		Description: "keyboard driving",
		Thumbsticks: true,
		Rules: []profile.Rule{
			{Input: "keyboard/w", Target: "rightTrigger"},
			{Input: "keyboard/s", Target: "lt"},
			{Input: "keyboard/a", Target: "a", Ctrl: true},
			{Input: "keyboard/space", Target: "b", NoModifiers: true},
			{Input: "pad0/leftX", Target: "leftStickX", Invert: true,
				Deadzone: &profile.Deadzone{Type: "radial", Radius: 0.2}},
		},
	}
}

func TestLoadFormats(t *testing.T) {
	for _, name := range []string{"racing.json", "racing.yaml", "racing.toml"} {
		t.Run(name, func(t *testing.T) {
			p, err := profile.Load(filepath.Join("testdata", name))
			require.NoError(t, err)
			assert.Equal(t, expectedProfile(), p)
		})
	}
}

func TestParseRejects(t *testing.T) {
	type testCase struct {
		name    string
		data    string
		format  string
		wantErr string
	}
	cases := []testCase{
		{name: "unknown target", data: `{"rules":[{"input":"k/a","target":"turbo"}]}`, format: "json", wantErr: `unknown target "turbo"`},
		{name: "unknown deadzone", data: `{"rules":[{"input":"k/a","target":"a","deadzone":{"type":"square","radius":0.1}}]}`, format: "json", wantErr: `unknown deadzone type "square"`},
		{name: "radius", data: `{"rules":[{"input":"k/a","target":"a","deadzone":{"type":"radial","radius":1}}]}`, format: "json", wantErr: "out of range"},
		{name: "bad ref", data: `{"rules":[{"input":"nodevice","target":"a"}]}`, format: "json", wantErr: "expected device/channel"},
		{name: "format", data: `{}`, format: "ini", wantErr: "unsupported profile format"},
		{name: "syntax", data: "rules: [", format: ".yml", wantErr: "decode profile"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := profile.Parse([]byte(tc.data), tc.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	p := &profile.Profile{Rules: []profile.Rule{
		{Input: "k/a", Target: "nope"},
		{Input: "k/b", Target: "alsoNope"},
	}}
	err := p.Validate()
	assert.Len(t, multierr.Errors(err), 2)
}

func TestBind(t *testing.T) {
	p, err := profile.Load(filepath.Join("testdata", "racing.yaml"))
	require.NoError(t, err)

	kb := input.Sources{}
	for _, k := range []string{"w", "s", "a", "space"} {
		kb[k] = input.NewSampled(input.Channel{Device: "keyboard", Name: k, Kind: input.KindButton})
	}
	reg := input.NewRegistry()
	reg.Register("keyboard", kb)

	b, err := p.Bind(reg)
	require.NotNil(t, b)
	rules := b.Rules
	require.Len(t, rules, 5)
	assert.Empty(t, b.Siblings)
	errs := multierr.Errors(err)
	require.Len(t, errs, 1, "pad0 is not registered")
	assert.Contains(t, errs[0].Error(), `rule 4: unknown input device "pad0"`)

	assert.True(t, rules[0].Bound())
	assert.Equal(t, device.AxisTarget(device.AxisRightTrigger), rules[0].Target)
	assert.Equal(t, device.AxisTarget(device.AxisLeftTrigger), rules[1].Target)
	assert.True(t, rules[2].Ctrl)
	assert.True(t, rules[3].NoModifiers)

	assert.False(t, rules[4].Bound())
	assert.True(t, rules[4].Invert)
	assert.Equal(t, &deadzone.Deadzone{Type: deadzone.Radial, Radius: 0.2}, rules[4].Deadzone)
	assert.Equal(t, device.AxisTarget(device.AxisLeftStickX), rules[4].Target)
}

func TestBindSiblings(t *testing.T) {
	p, err := profile.Load(filepath.Join("testdata", "racing.yaml"))
	require.NoError(t, err)

	pad := input.Sources{}
	lx := input.NewSampled(input.Channel{Device: "pad0", Name: "leftX", Kind: input.KindAxisX, Stick: "left"})
	ly := input.NewSampled(input.Channel{Device: "pad0", Name: "leftY", Kind: input.KindAxisY, Stick: "left"})
	ry := input.NewSampled(input.Channel{Device: "pad0", Name: "rightY", Kind: input.KindAxisY, Stick: "right"})
	pad["leftX"], pad["leftY"], pad["rightY"] = lx, ly, ry
	reg := input.NewRegistry()
	reg.Register("pad0", pad)

	b, err := p.Bind(reg)
	require.NotNil(t, b)
	assert.Len(t, multierr.Errors(err), 4, "keyboard is not registered")
	require.True(t, b.Rules[4].Bound())
	require.Len(t, b.Siblings, 1)
	assert.Equal(t, ly.Channel(), b.Siblings[0].Channel())

	p.Rules = append(p.Rules, profile.Rule{Input: "pad0/leftY", Target: "leftStickY"})
	b, _ = p.Bind(reg)
	require.NotNil(t, b)
	assert.Empty(t, b.Siblings, "sibling already sampled as a rule input")
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		b, err := profile.Marshal(expectedProfile(), format)
		require.NoError(t, err)
		p, err := profile.Parse(b, format)
		require.NoError(t, err)
		assert.Equal(t, expectedProfile(), p, format)
	}
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Alia5/padbridge/internal/configpaths"
	"github.com/Alia5/padbridge/internal/profile"
)

// ProfileCommand groups profile subcommands.
type ProfileCommand struct {
	Show    ProfileShow    `cmd:"" help:"Print the rules of a profile"`
	Convert ProfileConvert `cmd:"" help:"Write a profile in another format"`
}

// ProfileShow validates a profile and prints its rules.
type ProfileShow struct {
	Path  string `arg:"" help:"Profile file" type:"existingfile"`
	Plain bool   `help:"Disable colors"`
}

func (c *ProfileShow) Run() error {
	p, err := profile.Load(c.Path)
	if err != nil {
		return err
	}
	st := newStyles()
	if c.Plain {
		st = plainStyles()
	}
	_, err = io.WriteString(os.Stdout, renderProfile(p, st))
	return err
}

type styles struct {
	title  lipgloss.Style
	desc   lipgloss.Style
	header lipgloss.Style
	input  lipgloss.Style
	target lipgloss.Style
	flags  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6)),
		desc:   lipgloss.NewStyle().Italic(true),
		header: lipgloss.NewStyle().Bold(true).Underline(true),
		input:  lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(3)),
		target: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(2)),
		flags:  lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(5)),
	}
}

func plainStyles() styles {
	s := lipgloss.NewStyle()
	return styles{title: s, desc: s, header: s, input: s, target: s, flags: s}
}

// renderProfile formats a profile as an aligned rule listing.
func renderProfile(p *profile.Profile, st styles) string {
	var b strings.Builder
	b.WriteString(st.title.Render(p.Name))
	b.WriteByte('\n')
	if p.Description != "" {
		b.WriteString(st.desc.Render(p.Description))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "thumbsticks: %t\n\n", p.Thumbsticks)

	inW, tgW := len("INPUT"), len("TARGET")
	for _, r := range p.Rules {
		inW = max(inW, len(r.Input))
		tgW = max(tgW, len(r.Target))
	}
	col := func(s lipgloss.Style, w int, v string) string {
		return s.Width(w + 2).Render(v)
	}

	b.WriteString(col(st.header, inW, "INPUT"))
	b.WriteString(col(st.header, tgW, "TARGET"))
	b.WriteString(st.header.Render("OPTIONS"))
	b.WriteByte('\n')
	for _, r := range p.Rules {
		b.WriteString(col(st.input, inW, r.Input))
		b.WriteString(col(st.target, tgW, r.Target))
		b.WriteString(st.flags.Render(ruleOptions(r)))
		b.WriteByte('\n')
	}
	return b.String()
}

func ruleOptions(r profile.Rule) string {
	var opts []string
	if r.NoModifiers {
		opts = append(opts, "nomod")
	} else {
		if r.Ctrl {
			opts = append(opts, "ctrl")
		}
		if r.Alt {
			opts = append(opts, "alt")
		}
		if r.Shift {
			opts = append(opts, "shift")
		}
	}
	if r.Invert {
		opts = append(opts, "invert")
	}
	if r.Deadzone != nil {
		t := r.Deadzone.Type
		if t == "" {
			t = "radial"
		}
		opts = append(opts, fmt.Sprintf("deadzone=%s:%.2f", t, r.Deadzone.Radius))
	}
	if len(opts) == 0 {
		return "-"
	}
	return strings.Join(opts, " ")
}

// ProfileConvert re-encodes a profile.
type ProfileConvert struct {
	Path   string `arg:"" help:"Profile file" type:"existingfile"`
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output string `help:"Destination file path (defaults to the input name with the new extension)"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (c *ProfileConvert) Run() error {
	p, err := profile.Load(c.Path)
	if err != nil {
		return err
	}
	data, err := profile.Marshal(p, c.Format)
	if err != nil {
		return err
	}

	dest := c.Output
	if dest == "" {
		dest = strings.TrimSuffix(c.Path, filepath.Ext(c.Path)) + "." + c.Format
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("%s exists; use --force to overwrite", dest)
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

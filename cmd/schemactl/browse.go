package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"
	"golang.org/x/term"

	"github.com/wippyai/wasm-schema/schema"
	"github.com/wippyai/wasm-schema/schema/witexport"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type typeItem struct {
	typ schema.Type
	def *wit.TypeDef
}

func (i typeItem) Title() string       { return i.typ.Name() }
func (i typeItem) Description() string { return i.typ.Kind().String() + " · " + countMembers(i.typ) }
func (i typeItem) FilterValue() string { return i.typ.Name() }

func countMembers(t schema.Type) string {
	switch t := t.(type) {
	case *schema.StructType:
		return plural(len(t.Fields), "field")
	case *schema.StateObjectType:
		return plural(len(t.KeyFields), "key") + ", " + plural(len(t.ValueFields), "value")
	case *schema.EnumType:
		return plural(len(t.Values), "value")
	case *schema.OneOfType:
		return plural(len(t.Cases), "case")
	}
	return ""
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

type browseState int

const (
	stateList browseState = iota
	stateDetail
)

type browseModel struct {
	list   list.Model
	source string
	detail string
	state  browseState
}

func newBrowseModel(source string, s schema.Schema) (*browseModel, error) {
	defs, err := witexport.Export(s)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*wit.TypeDef, len(defs))
	for i, t := range s.Types() {
		byName[t.Name()] = defs[i]
	}

	sorted := s.Sorted()
	items := make([]list.Item, len(sorted))
	for i, t := range sorted {
		items[i] = typeItem{typ: t, def: byName[t.Name()]}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Schema " + source
	l.Styles.Title = titleStyle
	return &browseModel{list: l, source: source}, nil
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-1)

	case tea.KeyMsg:
		if m.state == stateDetail {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc", "enter", "backspace":
				m.state = stateList
				m.detail = ""
			}
			return m, nil
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(typeItem); ok {
				m.detail = detailView(item)
				m.state = stateDetail
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *browseModel) View() string {
	if m.state == stateDetail {
		return m.detail + "\n" + helpStyle.Render("esc back • q quit")
	}
	return m.list.View()
}

// detailView shows the fields of a type alongside its WIT form and layout.
func detailView(item typeItem) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(item.typ.Name()))
	b.WriteString(" ")
	b.WriteString(typeStyle.Render(item.typ.Kind().String()))
	b.WriteString("\n\n")

	for _, line := range members(item.typ) {
		b.WriteString("  ")
		b.WriteString(nameStyle.Render(line[0]))
		b.WriteString(": ")
		b.WriteString(typeStyle.Render(line[1]))
		b.WriteString("\n")
	}

	if item.def == nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("no WIT form"))
		b.WriteString("\n")
		return b.String()
	}
	info := witexport.Layout(item.def)
	fmt.Fprintf(&b, "\nWIT (size %d, align %d):\n\n", info.Size, info.Align)
	b.WriteString(witexport.Render([]*wit.TypeDef{item.def}))
	return b.String()
}

func members(t schema.Type) [][2]string {
	var out [][2]string
	switch t := t.(type) {
	case *schema.StructType:
		for _, f := range t.Fields {
			out = append(out, [2]string{f.Name, f.Type.String()})
		}
	case *schema.StateObjectType:
		for _, f := range t.KeyFields {
			out = append(out, [2]string{f.Name, f.Type.String() + " (key)"})
		}
		for _, f := range t.ValueFields {
			out = append(out, [2]string{f.Name, f.Type.String()})
		}
	case *schema.EnumType:
		for _, v := range t.Values {
			out = append(out, [2]string{v.Name, fmt.Sprint(v.Value)})
		}
	case *schema.OneOfType:
		for _, c := range t.Cases {
			out = append(out, [2]string{fmt.Sprintf("%s #%d", c.Name, c.Discriminant), c.Type.String()})
		}
	}
	return out
}

func runBrowse(a *app, _ []string) error {
	s, err := loadSchema(a.opts.schemaPath)
	if err != nil {
		return err
	}
	if f, ok := a.out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		a.logger.Debug("output is not a terminal, listing instead")
		return runList(a, nil)
	}

	m, err := newBrowseModel(a.opts.schemaPath, s)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

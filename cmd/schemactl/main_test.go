package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/wasm-schema/codec"
	"github.com/wippyai/wasm-schema/config"
	"github.com/wippyai/wasm-schema/envelope"
)

const ordersYAML = `
types:
  - kind: struct
    name: Order
    fields:
      - {name: id, type: u32}
      - {name: name, type: string}
      - {name: color, type: nullable<enum Color>}
  - kind: enum
    name: Color
    sealed: true
    values:
      - {name: red, value: 0}
      - {name: green, value: 1}
messages:
  - name: PlaceOrder
    request: struct Order
    response: u64
`

const ordersJSONC = `{
  // Order gained a tags field.
  "types": [
    {"kind": "struct", "name": "Order", "fields": [
      {"name": "id", "type": "u32"},
      {"name": "name", "type": "string"},
      {"name": "color", "type": "nullable<enum Color>"},
      {"name": "tags", "type": "list<string>"},
    ]},
    {"kind": "enum", "name": "Color", "sealed": true, "values": [
      {"name": "red", "value": 0},
      {"name": "green", "value": 1},
    ]},
  ],
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var out bytes.Buffer
	if err := run(append(args, "--log-level", "error"), &out); err != nil {
		t.Fatalf("schemactl %s failed: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestList(t *testing.T) {
	path := writeFile(t, "orders.yaml", ordersYAML)
	out := runCLI(t, "list", "--schema", path)

	for _, want := range []string{
		"Color { red=0, green=1 }",
		"Order { id: u32, name: string, color: nullable<enum Color> }",
		"PlaceOrder(struct Order) -> u64",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Color") > strings.Index(out, "Order {") {
		t.Error("types should be listed by name")
	}
}

func TestFingerprint(t *testing.T) {
	path := writeFile(t, "orders.yaml", ordersYAML)
	out := strings.TrimSpace(runCLI(t, "fingerprint", "-s", path))
	if len(out) != 64 {
		t.Errorf("fingerprint %q should be 64 hex digits", out)
	}
	if again := strings.TrimSpace(runCLI(t, "fingerprint", "-s", path)); again != out {
		t.Error("fingerprint should be stable")
	}
}

func TestDiff(t *testing.T) {
	old := writeFile(t, "old.yaml", ordersYAML)
	cur := writeFile(t, "new.jsonc", ordersJSONC)

	out := runCLI(t, "diff", old, cur)
	if !strings.Contains(out, "~ Order { id: u32, name: string, color: nullable<enum Color>, tags: list<string> }") {
		t.Errorf("diff output:\n%s", out)
	}
	if strings.Contains(out, "Color {") && strings.Contains(out, "~ Color") {
		t.Error("unchanged enum reported as modified")
	}

	if out := runCLI(t, "diff", old, old); strings.TrimSpace(out) != "no changes" {
		t.Errorf("self diff = %q", out)
	}
}

func TestWIT(t *testing.T) {
	path := writeFile(t, "orders.yaml", ordersYAML)
	out := runCLI(t, "wit", "--schema", path, "--layout")
	for _, want := range []string{
		"// size 16, align 4\nrecord order {\n    id: u32,\n    name: string,\n    color: option<color>,\n}\n",
		"// offsets: id@0 name@4 color@12, padding 2\n",
		"// size 1, align 1\nenum color {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

type order struct {
	ID   uint32
	Name string
}

func TestSealAndInspect(t *testing.T) {
	schemaPath := writeFile(t, "orders.yaml", ordersYAML)
	payload, err := codec.EncodeBytes(order{ID: 7, Name: strings.Repeat("widget ", 40)})
	if err != nil {
		t.Fatal(err)
	}
	in := writeFile(t, "order.bin", string(payload))
	frame := filepath.Join(t.TempDir(), "order.wsch")

	runCLI(t, "seal", "--schema", schemaPath, "--in", in, "--out", frame, "--compression", "lz4")

	data, err := os.ReadFile(frame)
	if err != nil {
		t.Fatal(err)
	}
	h, opened, err := envelope.Open(data)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if h.Compression != envelope.LZ4 || !bytes.Equal(opened, payload) {
		t.Errorf("header %+v, payload equal %v", h, bytes.Equal(opened, payload))
	}

	out := runCLI(t, "inspect", frame, "--schema", schemaPath, "--bytes", "16")
	for _, want := range []string{"compression  lz4", "schema       matches", "00000000  07 00 00 00", "more bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestInspect_WrongSchema(t *testing.T) {
	schemaPath := writeFile(t, "orders.yaml", ordersYAML)
	other := writeFile(t, "other.jsonc", ordersJSONC)
	in := writeFile(t, "p.bin", "x")
	frame := filepath.Join(t.TempDir(), "p.wsch")
	runCLI(t, "seal", "-s", schemaPath, "--in", in, "--out", frame)

	t.Setenv(config.EnvVar, "")
	var out bytes.Buffer
	if err := run([]string{"inspect", frame, "--schema", other}, &out); err == nil {
		t.Error("expected schema mismatch")
	}
}

func TestRun_Errors(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	tests := [][]string{
		{"frobnicate"},
		{"list"},
		{"list", "--schema", "missing.yaml"},
		{"diff", "one.yaml"},
		{"seal", "--schema", "x.yaml"},
		{"list", "--log-level", "loud", "--schema", "x.yaml"},
	}
	for _, args := range tests {
		var out bytes.Buffer
		if err := run(args, &out); err == nil {
			t.Errorf("schemactl %s should fail", strings.Join(args, " "))
		}
	}
}

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	if err := run(nil, &out); err != nil {
		t.Fatal(err)
	}
	for name := range commands {
		if !strings.Contains(out.String(), name) {
			t.Errorf("usage missing %s", name)
		}
	}
}

func TestBrowse_FallsBackToList(t *testing.T) {
	path := writeFile(t, "orders.yaml", ordersYAML)
	out := runCLI(t, "browse", "--schema", path)
	if !strings.Contains(out, "Order {") {
		t.Errorf("non-terminal browse should list types:\n%s", out)
	}
}

func TestBrowseModel(t *testing.T) {
	path := writeFile(t, "orders.yaml", ordersYAML)
	s, err := loadSchema(path)
	if err != nil {
		t.Fatal(err)
	}
	m, err := newBrowseModel(path, s)
	if err != nil {
		t.Fatal(err)
	}
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	if !strings.Contains(m.View(), "Color") {
		t.Error("list view should show type names")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateDetail {
		t.Fatal("enter should open the detail view")
	}
	view := m.View()
	for _, want := range []string{"red", "enum color", "size 1, align 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q:\n%s", want, view)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateList {
		t.Error("esc should return to the list")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("q should quit")
	}
}

// Package menu describes the bot keyboards and the navigation graph between them.
package menu

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Proton-105/cashflow-bot/internal/table"
)

// Button actions.
const (
	ActionAddExpenses = "add_expenses"
	ActionAddIncome   = "add_income"
	ActionReports     = "reports"
	ActionCategory    = "category"
	ActionNewCategory = "new_category"
	ActionCurrency    = "currency"
	ActionNewCurrency = "new_currency"
	ActionCommit      = "commit"
	ActionCancel      = "cancel"
	ActionReport      = "report"
	ActionGroup       = "group"
	ActionToday       = "date_today"
	ActionNewUser     = "new_user"
)

// Keyboard ids.
const (
	KeyboardStart      = "start"
	KeyboardCategories = "categories"
	KeyboardCurrencies = "currencies"
	KeyboardCommit     = "commit"
	KeyboardReports    = "reports"
	KeyboardGrouping   = "grouping"
	KeyboardDate       = "date"
	KeyboardNewUser    = "new_user"
)

// Answers carried by yes/no buttons.
const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// Graph columns besides the reserved Parent and Owner.
const (
	ColumnKeyboard = "Keyboard"
	ColumnAction   = "Action"
	ColumnPayload  = "Payload"
	ColumnText     = "Text"
	ColumnDynamic  = "Dynamic"
)

//go:embed keyboards.yaml
var defaultGraph []byte

// Button is a transport-neutral keyboard button.
type Button struct {
	Text    string
	Action  string
	Payload string
}

// CallbackData encodes the action and payload for the transport.
func (b Button) CallbackData() (string, error) {
	return EncodeCallback(b.Action, b.Payload)
}

// Layout is a keyboard ready to be rendered.
type Layout struct {
	Keyboard string
	Rows     [][]Button
}

// Buttons returns every button in reading order.
func (l *Layout) Buttons() []Button {
	if l == nil {
		return nil
	}
	var out []Button
	for _, row := range l.Rows {
		out = append(out, row...)
	}
	return out
}

type graphFile struct {
	Keyboards []struct {
		ID      string `yaml:"id"`
		Parent  string `yaml:"parent"`
		Columns int    `yaml:"columns"`
		Buttons []struct {
			Action  string `yaml:"action"`
			Payload string `yaml:"payload"`
			Text    string `yaml:"text"`
			Owner   string `yaml:"owner"`
			Dynamic bool   `yaml:"dynamic"`
		} `yaml:"buttons"`
	} `yaml:"keyboards"`
}

// Graph maps every keyboard button to the action that showed its keyboard and the keyboard it opens.
type Graph struct {
	tree    *table.TreeTable
	columns map[string]int
}

// LoadGraph parses a YAML keyboard description.
func LoadGraph(data []byte) (*Graph, error) {
	var file graphFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode keyboard graph: %w", err)
	}

	tree, err := table.NewTree(table.NewColumns(ColumnKeyboard, ColumnAction, ColumnPayload, ColumnText, ColumnDynamic))
	if err != nil {
		return nil, err
	}

	g := &Graph{tree: tree, columns: make(map[string]int)}
	for _, kb := range file.Keyboards {
		if kb.ID == "" {
			return nil, fmt.Errorf("keyboard without id")
		}
		if _, dup := g.columns[kb.ID]; dup {
			return nil, fmt.Errorf("keyboard %q declared twice", kb.ID)
		}
		g.columns[kb.ID] = max(kb.Columns, 1)

		for _, btn := range kb.Buttons {
			if btn.Action == "" {
				return nil, fmt.Errorf("keyboard %q: button without action", kb.ID)
			}
			if err := tree.AppendRow(kb.ID, btn.Action, btn.Payload, btn.Text, btn.Dynamic, nullable(kb.Parent), nullable(btn.Owner)); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// DefaultGraph returns the graph compiled into the binary.
func DefaultGraph() *Graph {
	g, err := LoadGraph(defaultGraph)
	if err != nil {
		panic(err)
	}
	return g
}

// Tree exposes the underlying tree table.
func (g *Graph) Tree() *table.TreeTable {
	return g.tree
}

// Next returns the keyboard opened by pressing action with payload on keyboard.
// ok is false when the button does not exist; an empty id means a text prompt follows.
func (g *Graph) Next(keyboard, action, payload string) (string, bool) {
	row, ok := g.find(keyboard, action, payload)
	if !ok {
		return "", false
	}
	owner, _ := g.tree.Owner(row)
	return stringValue(owner), true
}

// Parent returns the action that shows the keyboard.
func (g *Graph) Parent(keyboard string) string {
	row, ok := g.tree.FindRow(table.ByName(ColumnKeyboard), keyboard)
	if !ok {
		return ""
	}
	parent, _ := g.tree.Parent(row)
	return stringValue(parent)
}

// Layout builds the keyboard. dynamic buttons replace the dynamic placeholder and are laid out in a grid,
// static buttons share the last row.
func (g *Graph) Layout(keyboard string, dynamic ...Button) *Layout {
	layout := &Layout{Keyboard: keyboard}
	perRow := g.columns[keyboard]
	if perRow == 0 {
		perRow = 1
	}

	var static []Button
	for i := 0; i < g.tree.RowCount(); i++ {
		if g.cell(ColumnKeyboard, i) != keyboard {
			continue
		}

		if isDynamic, _ := g.value(ColumnDynamic, i).(bool); isDynamic {
			action := g.cell(ColumnAction, i)
			var row []Button
			for _, btn := range dynamic {
				btn.Action = action
				row = append(row, btn)
				if len(row) == perRow {
					layout.Rows = append(layout.Rows, row)
					row = nil
				}
			}
			if len(row) > 0 {
				layout.Rows = append(layout.Rows, row)
			}
			continue
		}

		static = append(static, Button{
			Text:    g.cell(ColumnText, i),
			Action:  g.cell(ColumnAction, i),
			Payload: g.cell(ColumnPayload, i),
		})
	}

	if len(static) > 0 {
		layout.Rows = append(layout.Rows, static)
	}
	return layout
}

// Has reports whether the keyboard is declared.
func (g *Graph) Has(keyboard string) bool {
	_, ok := g.columns[keyboard]
	return ok
}

func (g *Graph) find(keyboard, action, payload string) (int, bool) {
	for i := 0; i < g.tree.RowCount(); i++ {
		if g.cell(ColumnKeyboard, i) != keyboard || g.cell(ColumnAction, i) != action {
			continue
		}
		if isDynamic, _ := g.value(ColumnDynamic, i).(bool); isDynamic {
			return i, true
		}
		if g.cell(ColumnPayload, i) == payload {
			return i, true
		}
	}
	return -1, false
}

func (g *Graph) value(column string, row int) any {
	v, _ := g.tree.Value(table.ByName(column), row)
	return v
}

func (g *Graph) cell(column string, row int) string {
	return stringValue(g.value(column, row))
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

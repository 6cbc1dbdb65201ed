package picker

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const helpText = "↑↓/jk: navigate, space: toggle, a: select all, i: invert, r: clear all, enter: confirm, esc: cancel"

// checklistModel is the Bubble Tea model behind Checklist.
type checklistModel struct {
	title    string
	items    []string
	checked  []bool
	cursor   int
	offset   int // first visible row
	pageSize int

	done    bool
	aborted bool
}

func newChecklistModel(title string, items []string, defaults []int, pageSize int) checklistModel {
	checked := make([]bool, len(items))
	for _, i := range defaults {
		if i >= 0 && i < len(items) {
			checked[i] = true
		}
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return checklistModel{
		title:    title,
		items:    items,
		checked:  checked,
		pageSize: pageSize,
	}
}

func (cm checklistModel) Init() tea.Cmd {
	return nil
}

func (cm checklistModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Keep room for the title, the counter and the help line.
		if rows := msg.Height - 4; rows > 0 && rows < cm.pageSize {
			cm.pageSize = rows
			cm.scroll()
		}
		return cm, nil

	case tea.KeyMsg:
		return cm.handleKeyPress(msg)
	}

	return cm, nil
}

func (cm checklistModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		cm.aborted = true
		return cm, tea.Quit

	case "enter":
		cm.done = true
		return cm, tea.Quit

	case "down", "j":
		if cm.cursor < len(cm.items)-1 {
			cm.cursor++
		}

	case "up", "k":
		if cm.cursor > 0 {
			cm.cursor--
		}

	case "pgdown", "ctrl+d":
		cm.cursor = min(cm.cursor+cm.pageSize, max(len(cm.items)-1, 0))

	case "pgup", "ctrl+u":
		cm.cursor = max(cm.cursor-cm.pageSize, 0)

	case "home", "g":
		cm.cursor = 0

	case "end", "G":
		cm.cursor = max(len(cm.items)-1, 0)

	case " ", "space", "x":
		if len(cm.items) > 0 {
			cm.checked[cm.cursor] = !cm.checked[cm.cursor]
		}

	case "a":
		for i := range cm.checked {
			cm.checked[i] = true
		}

	case "i":
		for i := range cm.checked {
			cm.checked[i] = !cm.checked[i]
		}

	case "r":
		for i := range cm.checked {
			cm.checked[i] = false
		}
	}

	cm.scroll()
	return cm, nil
}

// scroll keeps the cursor inside the visible window.
func (cm *checklistModel) scroll() {
	if cm.cursor < cm.offset {
		cm.offset = cm.cursor
	}
	if cm.cursor >= cm.offset+cm.pageSize {
		cm.offset = cm.cursor - cm.pageSize + 1
	}
}

// selected returns the checked items in display order.
func (cm checklistModel) selected() []string {
	out := make([]string, 0, len(cm.items))
	for i, item := range cm.items {
		if cm.checked[i] {
			out = append(out, item)
		}
	}
	return out
}

func (cm checklistModel) View() string {
	if cm.done || cm.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(cm.title))
	b.WriteString("\n")

	end := min(cm.offset+cm.pageSize, len(cm.items))
	for i := cm.offset; i < end; i++ {
		cursor := "  "
		if i == cm.cursor {
			cursor = cursorStyle.Render("❯ ")
		}

		box := dimStyle.Render("[ ]")
		label := itemStyle.Render(cm.items[i])
		if cm.checked[i] {
			box = checkedStyle.Render("[x]")
		}

		b.WriteString(cursor)
		b.WriteString(box)
		b.WriteString(" ")
		b.WriteString(label)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\n", dimStyle.Render(fmt.Sprintf("%d/%d selected", len(cm.selected()), len(cm.items))))
	b.WriteString(helpStyle.Render(helpText))
	b.WriteString("\n")

	return b.String()
}

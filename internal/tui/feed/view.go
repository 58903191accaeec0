package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	var body string
	if len(m.items) == 0 {
		body = m.emptyView()
	} else {
		body = m.rowsView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusView(), m.helpView())
}

// rowsView places each rendered row at its engine offset. A row is clipped
// to the height the engine has for it until its measurement is applied.
func (m *Model) rowsView() string {
	viewport := m.list.Viewport()
	lines := make([]string, viewport)

	for _, row := range m.window.Rows {
		content, ok := m.rows[row.Index]
		if !ok {
			continue
		}
		rowLines := strings.Split(content, "\n")
		for i := 0; i < len(rowLines) && i < row.Height; i++ {
			y := row.Top - m.scroll + i
			if y < 0 {
				continue
			}
			if y >= viewport {
				break
			}
			lines[y] = rowLines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) emptyView() string {
	height := m.list.Viewport()
	msg := "no items"
	switch {
	case m.fetching:
		msg = m.spinner.View() + " loading…"
	case m.pageErr != nil:
		msg = "nothing loaded"
	}
	return lipgloss.NewStyle().Height(height).MaxHeight(height).Render(emptyStyle.Render(msg))
}

func (m *Model) statusView() string {
	left := m.status
	if left == "" {
		switch {
		case m.fetching:
			left = m.spinner.View() + " fetching…"
		case len(m.items) > 0:
			left = fmt.Sprintf("%d/%d", m.selected+1, len(m.items))
			if m.hasNext {
				left += "+"
			}
		}
	}

	right := fmt.Sprintf("%3.0f%%  overscan %d  %s", m.progress.Ratio*100, m.list.Overscan(), m.list.Phase())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return truncate.StringWithTail(left, uint(max(m.width, 1)), "…")
	}
	return statusBarStyle.Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) helpView() string {
	return m.help.View(m.keys)
}

// footerHeight is the number of terminal rows below the list.
func (m *Model) footerHeight() int {
	return 1 + lipgloss.Height(m.helpView())
}

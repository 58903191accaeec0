package feed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"

	"github.com/Paintersrp/vfeed/internal/vlist"
)

const requestTimeout = 30 * time.Second

// feedBridge renders each row the engine asks for and reports the rendered
// line count back as its height.
type feedBridge struct{ m *Model }

func (b feedBridge) Observe(row vlist.Row, report vlist.Reporter) {
	content, loading := b.m.renderRow(row.Index)
	b.m.rows[row.Index] = content
	report(float64(lipgloss.Height(content)), loading)
}

// feedSource adapts the model's paging state to the engine. LoadMore only
// records the request; Update turns it into a command.
type feedSource struct{ m *Model }

func (s feedSource) HasNextPage() bool {
	return s.m.pager != nil && s.m.hasNext && s.m.pageErr == nil
}

func (s feedSource) LoadMore() {
	s.m.wantMore = true
}

func (m *Model) fetchPage(gen int, cursor string, limit int, reload bool) tea.Cmd {
	pager := m.pager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		page, err := pager.Page(ctx, cursor, limit)
		return pageMsg{gen: gen, items: page.Items, next: page.Next, reload: reload, err: err}
	}
}

func (m *Model) fetchDetail(id string) tea.Cmd {
	pager := m.pager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		body, err := pager.Detail(ctx, id)
		return detailMsg{id: id, body: body, err: err}
	}
}

// toggle expands or collapses a row. Expanding a row whose body is not
// cached starts loading it; the row shows a placeholder meanwhile.
func (m *Model) toggle(index int) tea.Cmd {
	if index < 0 || index >= len(m.items) {
		return nil
	}
	if m.list.Expanded(index) {
		m.list.SetExpanded(index, false)
		return nil
	}

	m.list.SetExpanded(index, true)
	id := m.items[index].ID
	delete(m.detailErr, id)
	if _, ok := m.bodies.Get(id); ok || m.loadingDetail[id] || m.pager == nil {
		return nil
	}
	m.loadingDetail[id] = true
	return tea.Batch(m.fetchDetail(id), m.startSpinner())
}

func (m *Model) handleDetail(msg detailMsg) {
	delete(m.loadingDetail, msg.id)
	if msg.err != nil {
		m.detailErr[msg.id] = msg.err
		log.Printf("feed[%s]: detail %s failed: %v", m.list.ID(), msg.id, msg.err)
		return
	}
	m.bodies.Put(msg.id, msg.body)
}

// renderRow draws one item. loading is set while an expanded row waits for
// its body.
func (m *Model) renderRow(index int) (string, bool) {
	if index < 0 || index >= len(m.items) {
		return "", false
	}
	item := m.items[index]
	width := max(m.width, 8)

	marker := "▸ "
	if m.list.Expanded(index) {
		marker = "▾ "
	}
	title := truncate.StringWithTail(marker+item.Title, uint(width-1), "…")
	style := titleStyle
	if index == m.selected {
		style = selectedTitleStyle
	}

	meta := item.Updated.Format("2006-01-02 15:04")
	if len(item.Tags) > 0 {
		meta += "  #" + strings.Join(item.Tags, " #")
	}
	if item.Summary != "" {
		meta += "  " + item.Summary
	}
	meta = truncate.StringWithTail(meta, uint(max(width-3, 1)), "…")

	parts := []string{style.Render(title), metaStyle.Render(meta)}
	loading := false
	if m.list.Expanded(index) {
		switch body, ok := m.bodies.Peek(item.ID); {
		case ok:
			parts = append(parts, detailStyle.Render(m.renderDetail(item.ID, body)))
		case m.detailErr[item.ID] != nil:
			parts = append(parts, errorStyle.Copy().PaddingLeft(2).Render(
				fmt.Sprintf("failed to load: %v", m.detailErr[item.ID])))
		default:
			parts = append(parts, loadingStyle.Render(m.spinner.View()+" loading…"))
			loading = true
		}
	}
	return rowStyle.Render(strings.Join(parts, "\n")), loading
}

// renderDetail runs a body through glamour once per width.
func (m *Model) renderDetail(id, body string) string {
	key := detailKey{id: id, width: m.width}
	if out, ok := m.rendered.Get(key); ok {
		return out
	}

	out := body
	if r := m.markdownRenderer(); r != nil {
		if rendered, err := r.Render(body); err == nil {
			out = rendered
		} else {
			log.Printf("feed[%s]: render %s: %v", m.list.ID(), id, err)
		}
	}
	out = strings.Trim(out, "\n")
	m.rendered.Put(key, out)
	return out
}

func (m *Model) markdownRenderer() *glamour.TermRenderer {
	if m.renderer != nil {
		return m.renderer
	}
	styleOpt := glamour.WithStandardStyle(m.cfg.UI.GlamourStyle)
	if m.cfg.UI.GlamourStyle == "" || m.cfg.UI.GlamourStyle == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(max(m.width-6, 20)),
		glamour.WithColorProfile(termenv.ANSI256),
	)
	if err != nil {
		log.Printf("feed[%s]: glamour: %v", m.list.ID(), err)
		return nil
	}
	m.renderer = r
	return r
}

func (m *Model) setSelected(index int) {
	m.selected = min(max(index, 0), max(len(m.items)-1, 0))
}

// moveCursor moves the selection and scrolls just enough to show it.
func (m *Model) moveCursor(delta int) {
	if len(m.items) == 0 {
		return
	}
	m.setSelected(m.selected + delta)
	m.ensureVisible(m.selected)
}

func (m *Model) ensureVisible(index int) {
	if index < 0 || index >= len(m.items) {
		return
	}
	top, bottom := m.list.Top(index), m.list.Top(index+1)
	scroll, viewport := m.list.ScrollOffset(), m.list.Viewport()
	switch {
	case top < scroll:
		m.list.ScrollTo(top)
	case bottom > scroll+viewport:
		m.list.ScrollTo(min(top, bottom-viewport))
	}
}

// scrollBy scrolls the viewport and drags the selection along when it
// leaves the visible rows.
func (m *Model) scrollBy(delta int) {
	m.list.ScrollBy(delta)
	w := m.list.Window()
	if w.Empty {
		return
	}
	switch {
	case m.selected < w.VisibleFirst:
		m.setSelected(w.VisibleFirst)
	case m.selected > w.VisibleLast:
		m.setSelected(w.VisibleLast)
	}
}

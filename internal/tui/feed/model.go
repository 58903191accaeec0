// Package feed is the terminal browser for a paged item feed. It renders
// rows through a vlist.List, so only the rows near the viewport are ever
// rendered, and expanded rows load their detail body on demand.
package feed

import (
	"fmt"
	"log"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/Paintersrp/vfeed/internal/cache"
	"github.com/Paintersrp/vfeed/internal/config"
	"github.com/Paintersrp/vfeed/internal/source"
	"github.com/Paintersrp/vfeed/internal/vlist"
)

const wheelStep = 3

// FrameMsg advances the engine's scheduler.
type FrameMsg time.Time

type pageMsg struct {
	gen    int
	items  []source.Item
	next   string
	reload bool
	err    error
}

type detailMsg struct {
	id   string
	body string
	err  error
}

type detailKey struct {
	id    string
	width int
}

type Options struct {
	Config   *config.Config
	Pager    source.Pager
	Watcher  *source.Watcher
	Observer vlist.Observer
	// Anchor is an item identity to bring into view once it is loaded.
	Anchor    string
	Clock     func() time.Time
	Clipboard func(string) error
}

type Model struct {
	cfg       *config.Config
	pager     source.Pager
	watcher   *source.Watcher
	obs       vlist.Observer
	now       func() time.Time
	clipboard func(string) error

	loop     *vlist.Loop
	list     *vlist.List
	window   vlist.Window
	scroll   int
	progress vlist.Progress
	rows     map[int]string

	items    []source.Item
	next     string
	hasNext  bool
	fetching bool
	wantMore bool
	gen      int
	pageErr  error

	anchor     string
	anchorDone bool

	bodies        *cache.LRUCache[string, string]
	rendered      *cache.LRUCache[detailKey, string]
	loadingDetail map[string]bool
	detailErr     map[string]error
	renderer      *glamour.TermRenderer

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	spinning bool
	ticking  bool
	tickDue  time.Time
	status   string

	selected int
	width    int
	height   int
}

func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.WriteAll
	}
	obs := opts.Observer
	if obs == nil {
		obs = vlist.NopObserver{}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle.Copy().UnsetPaddingLeft()

	m := &Model{
		cfg:           cfg,
		pager:         opts.Pager,
		watcher:       opts.Watcher,
		obs:           obs,
		now:           now,
		clipboard:     clip,
		rows:          make(map[int]string),
		hasNext:       true,
		anchor:        opts.Anchor,
		bodies:        cache.NewLRUCache[string, string](cfg.UI.DetailCacheSize),
		rendered:      cache.NewLRUCache[detailKey, string](cfg.UI.DetailCacheSize),
		loadingDetail: make(map[string]bool),
		detailErr:     make(map[string]error),
		keys:          newKeyMap(),
		help:          help.New(),
		spinner:       sp,
	}

	m.loop = vlist.NewLoop(now)
	m.list = vlist.New(cfg.Options(), m.loop,
		vlist.WithDataSource(feedSource{m}),
		vlist.WithBridge(feedBridge{m}),
		vlist.WithObserver(obs),
		vlist.WithClock(now),
	)
	m.list.OnProgress(func(p vlist.Progress) { m.progress = p })
	if m.anchor != "" {
		m.list.SetAnchor(m.anchor)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.requestPage(false), m.startSpinner(), m.watcher.Start())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.list.Close()
			return m, tea.Quit
		}
		cmds = append(cmds, m.handleKey(msg))

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			m.scrollBy(-wheelStep)
		case tea.MouseWheelDown:
			m.scrollBy(wheelStep)
		}

	case FrameMsg:
		if !time.Time(msg).Before(m.tickDue) {
			m.ticking = false
		}
		m.loop.Advance(m.now())

	case pageMsg:
		cmds = append(cmds, m.handlePage(msg))

	case detailMsg:
		m.handleDetail(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy() {
			cmds = append(cmds, cmd)
		} else {
			m.spinning = false
		}

	case source.ChangedMsg:
		for _, id := range msg.Paths {
			m.bodies.Remove(id)
			delete(m.detailErr, id)
		}
		m.rendered.Purge()
		log.Printf("feed[%s]: %d notes changed, reloading", m.list.ID(), len(msg.Paths))
		cmds = append(cmds, m.requestPage(true), m.watcher.Start())

	case source.WatchErrMsg:
		log.Printf("feed[%s]: watcher error: %v", m.list.ID(), msg.Err)
		cmds = append(cmds, m.watcher.Start())
	}

	m.layout()
	cmds = append(cmds, m.afterLayout()...)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	half := max(1, m.list.Viewport()/2)

	switch {
	case key.Matches(msg, m.keys.down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.halfDown):
		m.scrollBy(half)
	case key.Matches(msg, m.keys.halfUp):
		m.scrollBy(-half)
	case key.Matches(msg, m.keys.pageDown):
		m.scrollBy(max(1, m.list.Viewport()))
	case key.Matches(msg, m.keys.pageUp):
		m.scrollBy(-max(1, m.list.Viewport()))
	case key.Matches(msg, m.keys.top):
		m.list.ScrollTo(0)
		m.setSelected(0)
	case key.Matches(msg, m.keys.bottom):
		m.list.ScrollTo(m.list.TotalHeight())
		m.setSelected(len(m.items) - 1)
	case key.Matches(msg, m.keys.toggle):
		return m.toggle(m.selected)
	case key.Matches(msg, m.keys.collapseAll):
		m.list.SetExpansion(nil)
		m.ensureVisible(m.selected)
	case key.Matches(msg, m.keys.copy):
		m.copySelection()
	case key.Matches(msg, m.keys.reload):
		m.status = ""
		return m.requestPage(true)
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// resize applies a new terminal size. A width change invalidates every
// rendered row, so the measured heights are dropped while the expansion
// set is kept.
func (m *Model) resize(width, height int) {
	widthChanged := width != m.width
	m.width, m.height = width, height
	m.help.Width = width
	if widthChanged {
		m.renderer = nil
		m.rendered.Purge()
		m.list.SetExpansion(m.list.ExpandedIndices())
	}
}

// layout recomputes the window and renders its rows. It runs after every
// message so View only reads state.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.list.SetViewportHeight(max(1, m.height-m.footerHeight()))
	m.rows = make(map[int]string, len(m.window.Rows))
	m.window = m.list.Render()
	m.scroll = m.list.ScrollOffset()
}

// afterLayout turns engine requests into commands: a pending page request
// and the next frame tick. A tick is booked again when the engine wants to
// run earlier than the one in flight; the later tick still arrives and is
// handled like any other frame.
func (m *Model) afterLayout() []tea.Cmd {
	var cmds []tea.Cmd
	if m.wantMore {
		m.wantMore = false
		cmds = append(cmds, m.requestPage(false))
	}
	if due, ok := m.loop.Next(); ok && (!m.ticking || due.Before(m.tickDue)) {
		m.ticking, m.tickDue = true, due
		cmds = append(cmds, tea.Tick(max(0, due.Sub(m.now())), func(t time.Time) tea.Msg {
			return FrameMsg(t)
		}))
	}
	return cmds
}

func (m *Model) requestPage(reload bool) tea.Cmd {
	if m.pager == nil || (m.fetching && !reload) {
		return nil
	}
	cursor, limit := m.next, m.cfg.Source.PageSize
	if reload {
		m.gen++
		m.pageErr = nil
		cursor = ""
		limit = max(len(m.items), limit)
	} else if !m.hasNext {
		return nil
	}
	m.fetching = true
	return tea.Batch(m.fetchPage(m.gen, cursor, limit, reload), m.startSpinner())
}

func (m *Model) handlePage(msg pageMsg) tea.Cmd {
	if msg.gen != m.gen {
		return nil
	}
	m.fetching = false

	if msg.err != nil {
		m.pageErr = msg.err
		m.status = errorStyle.Render(fmt.Sprintf("failed to load page: %v (r to retry)", msg.err))
		log.Printf("feed[%s]: page fetch failed: %v", m.list.ID(), msg.err)
		if f, ok := m.obs.(interface{ PageFailed() }); ok {
			f.PageFailed()
		}
		m.list.PageSettled()
		return nil
	}

	if msg.reload {
		m.items = append(m.items[:0:0], msg.items...)
	} else {
		seen := make(map[string]struct{}, len(m.items))
		for _, it := range m.items {
			seen[it.ID] = struct{}{}
		}
		for _, it := range msg.items {
			if _, dup := seen[it.ID]; !dup {
				m.items = append(m.items, it)
				seen[it.ID] = struct{}{}
			}
		}
	}
	m.next = msg.next
	m.hasNext = msg.next != ""
	m.syncList()
	m.list.PageSettled()

	if m.anchor != "" && !m.anchorDone && m.hasNext {
		return m.requestPage(false)
	}
	return nil
}

func (m *Model) syncList() {
	ids := make([]string, len(m.items))
	for i, it := range m.items {
		ids[i] = it.ID
	}
	selectedID := ""
	prev := m.list.Items()
	if m.selected >= 0 && m.selected < len(prev) {
		selectedID = prev[m.selected]
	}

	m.list.SetItems(ids)

	if i, ok := m.list.IndexOf(selectedID); ok {
		m.selected = i
	}
	if m.anchor != "" && !m.anchorDone {
		if i, ok := m.list.IndexOf(m.anchor); ok {
			m.selected = i
			m.anchorDone = true
		}
	}
	m.selected = min(max(m.selected, 0), max(len(m.items)-1, 0))
}

func (m *Model) copySelection() {
	if m.selected < 0 || m.selected >= len(m.items) {
		return
	}
	id := m.items[m.selected].ID
	if err := m.clipboard(id); err != nil {
		m.status = errorStyle.Render(fmt.Sprintf("copy failed: %v", err))
		return
	}
	m.status = fmt.Sprintf("copied %s", id)
}

func (m *Model) busy() bool {
	return m.fetching || len(m.loadingDetail) > 0
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// List exposes the engine for inspection.
func (m *Model) List() *vlist.List { return m.list }

// Selected returns the index of the highlighted row.
func (m *Model) Selected() int { return m.selected }

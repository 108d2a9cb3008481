// Package ui provides the terminal presentation layer of the reader. It
// pulls selection state for rendering and turns key presses into reader
// commands.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"

	"github.com/dgnsrekt/spotlight/internal/cache"
	"github.com/dgnsrekt/spotlight/internal/playback"
	"github.com/dgnsrekt/spotlight/internal/queue"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
	"github.com/dgnsrekt/spotlight/internal/words"
)

const (
	statusBarHeight = 1
	ellipsis        = "…"
	maxSpacing      = 4
)

// Router handles reader commands.
type Router interface {
	Handle(cmd ttypes.Command) bool
}

// Selection is the state the view pulls on every render. Relayout moves the
// words to where the page shows them, so vertical navigation follows the
// screen lines.
type Selection interface {
	Selection() ttypes.Selection
	Index() *words.Index
	Relayout(bounds []ttypes.Rect) *words.Index
}

// Reader owns the loaded document.
type Reader interface {
	Load(doc *ttypes.Document) error
	ToggleLanguage() ttypes.Language
	Language() ttypes.Language
	Source() string
}

// Player reads single words on click.
type Player interface {
	PlaySingle(i int)
	Stop()
}

// Clips reports clip generation progress.
type Clips interface {
	Counts() cache.ClipCounts
}

// Prefetch reports background clip generation.
type Prefetch interface {
	GetStats() queue.Stats
}

// Engine reports whether the voice fell back to the secondary engine.
type Engine interface {
	UsingFallback() bool
}

// Watcher blocks until the document source changes.
type Watcher interface {
	Wait(ctx context.Context) error
}

// Deps are the reader components the TUI drives.
type Deps struct {
	Router    Router
	Selection Selection
	Reader    Reader
	Player    Player
	Clips     Clips
	Events    <-chan playback.Event

	// Prefetch and Engine are optional status sources.
	Prefetch Prefetch
	Engine   Engine

	// Reload and Watcher are set when the source can be re-read.
	Reload  func(context.Context) (*ttypes.Document, error)
	Watcher Watcher

	// ReadOnLoad starts reading from the first word once the TUI is up.
	ReadOnLoad bool
}

// NewProgram returns a new Tea program.
func NewProgram(ctx context.Context, cfg Config, deps Deps) *tea.Program {
	log.Debug("starting spotlight", "source", cfg.Source, "watch", cfg.Watch)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	opts = append(opts, tea.WithContext(ctx))
	return tea.NewProgram(newModel(ctx, cfg, deps), opts...)
}

type model struct {
	ctx  context.Context
	cfg  Config
	deps Deps

	width, height int
	viewport      viewport.Model
	spinner       spinner.Model
	showHelp      bool

	mainColors int
	spotColors int
	spacing    int

	// words keeps the document boxes the page is flowed from; index is the
	// selection's index, which holds the flowed boxes.
	index    *words.Index
	words    []ttypes.Word
	page     page
	flowed   bool
	flowedAt [2]int // width and spacing of page

	status        statusDisplay
	statusMessage string
	statusIsError bool
	statusID      int
}

func newModel(ctx context.Context, cfg Config, deps Deps) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true

	return model{
		ctx:        ctx,
		cfg:        cfg,
		deps:       deps,
		viewport:   vp,
		spinner:    sp,
		mainColors: cfg.MainColors,
		spotColors: cfg.SpotlightColors,
		spacing:    max(cfg.Spacing, 1),
		status:     newStatusDisplay(),
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, listenEvents(m.deps.Events)}
	if m.cfg.Watch {
		cmds = append(cmds, waitForChange(m.ctx, m.deps.Watcher))
	}
	if m.deps.ReadOnLoad {
		router := m.deps.Router
		cmds = append(cmds, func() tea.Msg {
			router.Handle(ttypes.CommandReadAll)
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refresh(true)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if i, ok := m.page.wordAt(msg.Y+m.viewport.YOffset, msg.X); ok && m.deps.Player != nil {
				log.Debug("word clicked", "index", i)
				m.deps.Player.PlaySingle(i)
				m.refresh(true)
			}
			return m, nil
		}

	case eventMsg:
		if flash := m.status.update(msg.event); flash != "" {
			_, isSkip := msg.event.(playback.WordSkipped)
			cmds = append(cmds, m.flash(flash, isSkip))
		}
		m.refresh(true)
		cmds = append(cmds, listenEvents(m.deps.Events))
		return m, tea.Batch(cmds...)

	case fileChangedMsg:
		return m, reloadDocument(m.ctx, m.deps.Reload)

	case documentMsg:
		if msg.err != nil {
			log.Error("reloading document", "error", msg.err)
			cmds = append(cmds, m.flash("Reload failed: "+msg.err.Error(), true))
		} else if err := m.deps.Reader.Load(msg.doc); err != nil {
			log.Error("loading document", "error", err)
			cmds = append(cmds, m.flash("Reload failed: "+err.Error(), true))
		} else {
			m.status = newStatusDisplay()
			m.refresh(true)
			note := "Reloaded"
			if len(msg.doc.Words) == 0 {
				note = "Reloaded: no words"
			}
			cmds = append(cmds, m.flash(note, false))
		}
		if m.cfg.Watch {
			cmds = append(cmds, waitForChange(m.ctx, m.deps.Watcher))
		}
		return m, tea.Batch(cmds...)

	case statusMessageTimeoutMsg:
		if msg.id == m.statusID {
			m.statusMessage = ""
			m.statusIsError = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		if m.deps.Player != nil {
			m.deps.Player.Stop()
		}
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		m.resize()
		m.refresh(true)
		return m, nil

	case "l":
		lang := m.deps.Reader.ToggleLanguage()
		m.refresh(false)
		cmd := m.flash("Language: "+string(lang), false)
		return m, cmd

	case "c":
		m.mainColors++
		m.refresh(false)
		cmd := m.flash("Text colours: "+paletteAt(m.mainColors).Name, false)
		return m, cmd

	case "C":
		m.spotColors++
		m.refresh(false)
		cmd := m.flash("Spotlight colours: "+paletteAt(m.spotColors).Name, false)
		return m, cmd

	case "+", "=":
		if m.spacing < maxSpacing {
			m.spacing++
			m.refresh(true)
		}
		return m, nil

	case "-":
		if m.spacing > 1 {
			m.spacing--
			m.refresh(true)
		}
		return m, nil

	case "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if cmd, ok := keyCommand(key); ok {
		if m.deps.Router.Handle(cmd) {
			log.Debug("command handled", "command", cmd)
		}
		m.refresh(true)
	}
	return m, nil
}

// flash shows a status bar message for a few seconds.
func (m *model) flash(s string, isError bool) tea.Cmd {
	m.statusID++
	m.statusMessage = s
	m.statusIsError = isError
	return statusMessageExpiry(m.statusID)
}

func (m *model) resize() {
	h := m.height - statusBarHeight
	if m.showHelp {
		h -= strings.Count(m.helpView(), "\n") + 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(h, 0)
}

// refresh re-flows the words when the index or geometry changed, redraws
// the page and scrolls the selection into view when follow is set.
func (m *model) refresh(follow bool) {
	index := m.deps.Selection.Index()
	if index != m.index {
		m.index = index
		m.words = make([]ttypes.Word, 0, index.Size())
		for i := 0; i < index.Size(); i++ {
			if w, err := index.Get(i); err == nil {
				m.words = append(m.words, w)
			}
		}
		m.flowed = false
	}

	if geom := [2]int{m.width, m.spacing}; !m.flowed || geom != m.flowedAt {
		m.page = flow(m.words, m.width, m.spacing)
		m.flowed, m.flowedAt = true, geom
		if relaid := m.deps.Selection.Relayout(m.page.bounds()); relaid != nil {
			m.index = relaid
		}
	}

	sel := m.deps.Selection.Selection()
	m.viewport.SetContent(m.page.render(m.words, sel,
		paletteAt(m.mainColors), paletteAt(m.spotColors), m.width))

	if !follow || sel.IsEmpty() {
		return
	}
	line := m.page.lineOf(sel.Start)
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}

func (m model) View() string {
	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	m.statusBarView(&b)
	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

func (m model) statusBarView(b *strings.Builder) {
	logo := logoStyle(" Spotlight ")
	helpNote := statusBarHelpStyle(" ? Help ")

	counts := m.deps.Clips.Counts()
	queued := 0
	if m.deps.Prefetch != nil {
		queued = m.deps.Prefetch.GetStats().Pending
	}
	clips := clipsNote(counts, queued)
	if counts.Loading > 0 {
		clips = m.spinner.View() + statusBarCountStyle(clips)
	} else {
		clips = statusBarCountStyle(clips)
	}

	note := m.statusMessage
	if note == "" {
		lang := string(m.deps.Reader.Language())
		if m.deps.Engine != nil && m.deps.Engine.UsingFallback() {
			lang += " (fallback voice)"
		}
		note = m.status.note(m.deps.Reader.Source(), lang, len(m.words))
	}
	room := max(0, m.width-
		runewidth.StringWidth(" Spotlight ")-
		lipgloss.Width(clips)-
		runewidth.StringWidth(" ? Help "))
	note = runewidth.Truncate(" "+note+" ", room, ellipsis)
	padding := strings.Repeat(" ", max(0, room-runewidth.StringWidth(note)))

	switch {
	case m.statusMessage != "" && m.statusIsError:
		note = statusBarErrorStyle(note + padding)
	case m.statusMessage != "":
		note = statusBarMessageStyle(note + padding)
	default:
		note = statusBarNoteStyle(note + padding)
	}

	fmt.Fprintf(b, "%s%s%s%s", logo, note, clips, helpNote)
}

// # internal/tui/tui.go
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"slotscan/internal/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// Result is one finished scan pushed into the UI.
type Result struct {
	Messages []report.Message
	Stats    report.Stats
	Problems bool
	Err      error
	Duration time.Duration
	Trend    string
}

type startMsg struct{}

type resultMsg Result

type item struct {
	title, desc string
	isError     bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list     list.Model
	spinner  spinner.Model
	scanning bool

	stats     report.Stats
	problems  bool
	scanErr   error
	errors    int
	notes     int
	scanCount int
	duration  time.Duration
	trend     string
	lastScan  time.Time
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Findings"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	return model{
		list:     l,
		spinner:  s,
		scanning: true,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case startMsg:
		m.scanning = true
	case resultMsg:
		m.scanning = false
		m.scanCount++
		m.lastScan = time.Now()
		m.stats = msg.Stats
		m.problems = msg.Problems
		m.scanErr = msg.Err
		m.duration = msg.Duration
		m.trend = msg.Trend

		m.errors, m.notes = 0, 0
		items := make([]list.Item, 0, len(msg.Messages))
		for _, message := range msg.Messages {
			if message.Error {
				m.errors++
			} else {
				m.notes++
			}
			items = append(items, item{
				title:   noticeTitle(message.Notice),
				desc:    message.Notice.Display(false),
				isError: message.Error,
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var status string
	if m.scanCount == 0 {
		status = statusStyle.Render("waiting for first scan")
	} else {
		status = statusStyle.Render(fmt.Sprintf("Last scan: %s | %d modules | %d classes | %s",
			m.lastScan.Format("15:04:05"), m.stats.Modules.Checked, m.stats.Classes.All,
			m.duration.Round(time.Millisecond)))
	}

	var summary string
	switch {
	case m.scanning:
		summary = m.spinner.View() + statusStyle.Render("scanning...")
	case m.scanErr != nil:
		summary = errorStyle.Render("✗ " + m.scanErr.Error())
	case !m.problems:
		summary = successStyle.Render("✅ All OK!")
	default:
		summary = fmt.Sprintf("⚠️  %s | %s",
			errorStyle.Render(fmt.Sprintf("%d errors", m.errors)),
			noteStyle.Render(fmt.Sprintf("%d notes", m.notes)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("slotscan watch"), status, summary)
	if m.trend != "" {
		header += statusStyle.Render(m.trend) + "\n"
	}
	return docStyle.Render(header + "\n" + m.list.View())
}

func noticeTitle(n report.Notice) string {
	switch n.(type) {
	case report.ModuleSkipped:
		return "Import Failure"
	case report.OverlappingSlots:
		return "Overlapping Slots"
	case report.BadSlotInheritance:
		return "Bad Slot Inheritance"
	case report.ShouldHaveSlots:
		return "Missing Slots"
	case report.DuplicateSlots:
		return "Duplicate Slots"
	}
	return "Notice"
}

// UI owns the bubbletea program for watch mode.
type UI struct {
	program *tea.Program
}

func New() *UI {
	return &UI{program: tea.NewProgram(initialModel(), tea.WithAltScreen())}
}

// Run blocks until the user quits.
func (u *UI) Run() error {
	_, err := u.program.Run()
	return err
}

func (u *UI) ScanStarted() {
	u.program.Send(startMsg{})
}

func (u *UI) ScanFinished(r Result) {
	u.program.Send(resultMsg(r))
}

func (u *UI) Quit() {
	u.program.Quit()
}

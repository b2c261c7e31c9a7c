package report

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anzway/learnterm/internal/catalog"
	"github.com/anzway/learnterm/internal/router"
	"github.com/anzway/learnterm/internal/screen"
	"github.com/anzway/learnterm/internal/ui/components"
	"github.com/anzway/learnterm/internal/ui/layout"
	"github.com/anzway/learnterm/internal/ui/theme"
)

// Backend is the slice of the API client the report screen needs.
type Backend interface {
	CatalogOptions(ctx context.Context, resource string, parents []catalog.Param) ([]catalog.Option, error)
	SyllabusChapters(ctx context.Context, subject string) ([]string, error)
	PreparedChapters(ctx context.Context, subject string) ([]string, error)
}

var resources = []string{"classes", "subjects"}

// optionsMsg carries fetched options for one selector level.
type optionsMsg struct {
	Level      int
	Generation uint64
	Options    []catalog.Option
	Err        error
}

// reportMsg carries both chapter sets for the chosen subject. Pending is
// computed client-side: syllabus minus prepared.
type reportMsg struct {
	Subject  string
	Prepared []string
	Pending  []string
	Err      error
}

// ReportScreen shows which chapters the student has prepared and which are
// still pending for a subject.
type ReportScreen struct {
	backend   Backend
	hierarchy *catalog.Hierarchy
	selector  components.Selector

	subject  string
	prepared []string
	pending  []string
	showing  bool
	loading  bool
	errMsg   string
}

var _ screen.Screen = (*ReportScreen)(nil)
var _ screen.KeyHintProvider = (*ReportScreen)(nil)

// New creates the preparation report screen.
func New(backend Backend) *ReportScreen {
	h := catalog.NewHierarchy("class", "subject")
	return &ReportScreen{
		backend:   backend,
		hierarchy: h,
		selector:  components.NewSelector(h),
	}
}

func (s *ReportScreen) Init() tea.Cmd {
	return s.fetchOptions(s.hierarchy.RootFetch())
}

func (s *ReportScreen) Title() string {
	return "Report"
}

func (s *ReportScreen) KeyHints() []layout.KeyHint {
	if s.showing {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Field"},
		{Key: "Enter", Description: "Open"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ReportScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case optionsMsg:
		s.selector.SetLoading(-1)
		if msg.Err != nil {
			s.hierarchy.ClearOptions(msg.Level, msg.Generation)
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		if s.hierarchy.SetOptions(msg.Level, msg.Generation, msg.Options) {
			s.errMsg = ""
		}
		return s, nil

	case reportMsg:
		s.loading = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		if msg.Subject != s.hierarchy.Value(1) {
			return s, nil
		}
		s.errMsg = ""
		s.subject = msg.Subject
		s.prepared = msg.Prepared
		s.pending = msg.Pending
		s.showing = true
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *ReportScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.showing {
		if msg.String() == "esc" {
			s.showing = false
		}
		return s, nil
	}

	if msg.String() == "esc" && !s.selector.Open() {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	var fetch *catalog.Fetch
	s.selector, fetch = s.selector.Update(msg)
	if fetch != nil {
		s.selector.SetLoading(fetch.Level)
		return s, s.fetchOptions(fetch)
	}

	if s.hierarchy.FullyResolved() && !s.loading {
		s.loading = true
		return s, s.loadReport(s.hierarchy.Value(1))
	}
	return s, nil
}

func (s *ReportScreen) loadReport(subject string) tea.Cmd {
	backend := s.backend
	return func() tea.Msg {
		ctx := context.Background()
		all, err := backend.SyllabusChapters(ctx, subject)
		if err != nil {
			return reportMsg{Subject: subject, Err: err}
		}
		prepared, err := backend.PreparedChapters(ctx, subject)
		if err != nil {
			return reportMsg{Subject: subject, Err: err}
		}
		return reportMsg{
			Subject:  subject,
			Prepared: prepared,
			Pending:  complement(all, prepared),
		}
	}
}

// complement returns the chapters in all that are not in done, preserving
// syllabus order.
func complement(all, done []string) []string {
	doneSet := make(map[string]struct{}, len(done))
	for _, d := range done {
		doneSet[strings.TrimSpace(d)] = struct{}{}
	}
	var out []string
	for _, ch := range all {
		if _, ok := doneSet[strings.TrimSpace(ch)]; !ok {
			out = append(out, ch)
		}
	}
	return out
}

func (s *ReportScreen) fetchOptions(fetch *catalog.Fetch) tea.Cmd {
	backend := s.backend
	f := *fetch
	return func() tea.Msg {
		opts, err := backend.CatalogOptions(context.Background(), resources[f.Level], f.Parents)
		return optionsMsg{Level: f.Level, Generation: f.Generation, Options: opts, Err: err}
	}
}

func (s *ReportScreen) View(width, height int) string {
	if s.showing {
		return s.viewReport(width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render("Preparation report"))
	b.WriteString("\n\n")
	b.WriteString(s.selector.View())
	if s.loading {
		b.WriteString("\n" + theme.Hint.Render("building report…"))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n" + theme.Incorrect.Render(s.errMsg))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(1, 2).Render(b.String())
}

func (s *ReportScreen) viewReport(width, height int) string {
	col := (width - 8) / 2
	if col < 20 {
		col = 20
	}

	left := theme.Correct.Render("Prepared") + "\n\n" + chapterList(s.prepared)
	right := theme.Incorrect.Render("Still pending") + "\n\n" + chapterList(s.pending)

	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(col).Render(left),
		"    ",
		lipgloss.NewStyle().Width(col).Render(right),
	)

	body := theme.Title.Width(width).Render(catalog.DisplayLabel(s.subject)) + "\n\n" + columns
	return lipgloss.NewStyle().Width(width).Height(height).Padding(1, 2).Render(body)
}

func chapterList(chapters []string) string {
	if len(chapters) == 0 {
		return theme.Hint.Render("none")
	}
	var b strings.Builder
	for _, ch := range chapters {
		b.WriteString("• " + catalog.DisplayLabel(ch) + "\n")
	}
	return b.String()
}

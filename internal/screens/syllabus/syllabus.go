package syllabus

import (
	"context"
	"fmt"
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

// Backend is the slice of the API client the syllabus browser needs.
type Backend interface {
	CatalogOptions(ctx context.Context, resource string, parents []catalog.Param) ([]catalog.Option, error)
}

// catalog endpoints per hierarchy level
var resources = []string{"classes", "subjects", "chapters"}

// optionsMsg carries fetched options for one selector level.
type optionsMsg struct {
	Level      int
	Generation uint64
	Options    []catalog.Option
	Err        error
}

// pagesMsg carries the chapter's page references.
type pagesMsg struct {
	Chapter string
	Pages   []catalog.Option
	Err     error
}

// SyllabusScreen browses a chapter's pages: resolve class, subject and
// chapter, then step through the chapter's page references one at a time.
type SyllabusScreen struct {
	backend   Backend
	hierarchy *catalog.Hierarchy
	selector  components.Selector

	pages    []catalog.Option
	chapter  string
	page     int
	browsing bool
	loading  bool
	errMsg   string
}

var _ screen.Screen = (*SyllabusScreen)(nil)
var _ screen.KeyHintProvider = (*SyllabusScreen)(nil)

// New creates the syllabus browser.
func New(backend Backend) *SyllabusScreen {
	h := catalog.NewHierarchy("class", "subject", "chapter")
	return &SyllabusScreen{
		backend:   backend,
		hierarchy: h,
		selector:  components.NewSelector(h),
	}
}

func (s *SyllabusScreen) Init() tea.Cmd {
	return s.fetchOptions(s.hierarchy.RootFetch())
}

func (s *SyllabusScreen) Title() string {
	return "Syllabus"
}

func (s *SyllabusScreen) KeyHints() []layout.KeyHint {
	if s.browsing {
		return []layout.KeyHint{
			{Key: "←/→", Description: "Page"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Field"},
		{Key: "Enter", Description: "Open"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SyllabusScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
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

	case pagesMsg:
		s.loading = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		if msg.Chapter != s.hierarchy.Value(2) {
			// Selection moved on while the pages were loading.
			return s, nil
		}
		s.errMsg = ""
		s.pages = msg.Pages
		s.chapter = msg.Chapter
		s.page = 0
		s.browsing = true
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *SyllabusScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.browsing {
		switch msg.String() {
		case "right", "l", "n":
			if s.page+1 < len(s.pages) {
				s.page++
			}
		case "left", "h", "p":
			if s.page > 0 {
				s.page--
			}
		case "esc":
			s.browsing = false
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

	// A resolved chapter loads its page references immediately.
	if s.hierarchy.FullyResolved() && !s.loading {
		s.loading = true
		return s, s.loadPages()
	}
	return s, nil
}

func (s *SyllabusScreen) fetchOptions(fetch *catalog.Fetch) tea.Cmd {
	backend := s.backend
	f := *fetch
	return func() tea.Msg {
		opts, err := backend.CatalogOptions(context.Background(), resources[f.Level], f.Parents)
		return optionsMsg{Level: f.Level, Generation: f.Generation, Options: opts, Err: err}
	}
}

func (s *SyllabusScreen) loadPages() tea.Cmd {
	backend := s.backend
	params := s.hierarchy.Params()
	chapter := s.hierarchy.Value(2)
	return func() tea.Msg {
		pages, err := backend.CatalogOptions(context.Background(), "chapter-images", params)
		return pagesMsg{Chapter: chapter, Pages: pages, Err: err}
	}
}

func (s *SyllabusScreen) View(width, height int) string {
	if s.browsing {
		return s.viewPages(width, height)
	}

	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render("Browse the syllabus"))
	b.WriteString("\n\n")
	b.WriteString(s.selector.View())
	if s.loading {
		b.WriteString("\n" + theme.Hint.Render("loading pages…"))
	}
	if s.errMsg != "" {
		b.WriteString("\n\n" + theme.Incorrect.Render(s.errMsg))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(1, 2).Render(b.String())
}

func (s *SyllabusScreen) viewPages(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Width(width).Render(catalog.DisplayLabel(s.chapter)))
	b.WriteString("\n\n")

	if len(s.pages) == 0 {
		b.WriteString(theme.Hint.Render("No pages for this chapter."))
	} else {
		ref := s.pages[s.page]
		b.WriteString(theme.Selected.Render("  "+ref.Label) + "\n")
		b.WriteString(theme.Hint.Render("  "+ref.Value) + "\n\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("page %d of %d  (←/→ to turn)", s.page+1, len(s.pages))))
	}
	return lipgloss.NewStyle().Width(width).Height(height).Padding(1, 2).Render(b.String())
}

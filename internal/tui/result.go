package tui

import (
	"context"
	"fmt"

	"candle-lens/internal/domain"
	"candle-lens/internal/session"
	"candle-lens/internal/view"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Analysis message types.
type analysisDoneMsg struct{ result *domain.AnalysisResult }
type analysisErrMsg struct{ err error }

// ResultModel is the result modal: a spinner while analyzing, a scrollable report after.
type ResultModel struct {
	sess     *session.Session
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
}

// NewResultModel creates a new result modal.
func NewResultModel(sess *session.Session) ResultModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(SpinnerColor)

	return ResultModel{
		sess:     sess,
		viewport: viewport.New(76, 20),
		spinner:  sp,
	}
}

// Update handles incoming messages.
func (m ResultModel) Update(msg tea.Msg) (ResultModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.sess.Analyzing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the modal.
func (m ResultModel) View() string {
	modal := view.BuildModal(m.sess)

	title := HeaderStyle.Render(modal.Title)
	if modal.Symbol != "" {
		title += "  " + BadgeStyle.Render(modal.Symbol) + " " + SubtextStyle.Render(modal.AssetName+" · "+modal.CategoryLabel)
	}

	var body string
	switch {
	case modal.Loading != nil:
		body = lipgloss.JoinVertical(lipgloss.Left,
			"",
			fmt.Sprintf("%s %s", m.spinner.View(), modal.Loading.Title),
			SubtextStyle.Render(modal.Loading.Description),
		)
	default:
		body = m.viewport.View()
	}

	footer := SubtextStyle.Render("esc: fechar  n: " + modal.NewAnalysisLabel + "  ↑/↓: rolar")
	return ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, body, footer))
}

// Refresh re-renders the report into the viewport from the session result.
func (m *ResultModel) Refresh() {
	m.viewport.SetContent(RenderResult(view.BuildResult(m.sess.Result), m.viewport.Width))
	m.viewport.GotoTop()
}

// SetSize updates the model dimensions.
func (m *ResultModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	vw, vh := w-6, h-6
	if vw < 20 {
		vw = 20
	}
	if vh < 5 {
		vh = 5
	}
	m.viewport.Width = vw
	m.viewport.Height = vh
	m.Refresh()
}

// Spin starts the spinner.
func (m ResultModel) Spin() tea.Cmd { return m.spinner.Tick }

func analyzeCmd(svc ChartAnalyzer, req domain.AnalysisRequest) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Analyze(context.Background(), req)
		if err != nil {
			return analysisErrMsg{err: err}
		}
		return analysisDoneMsg{result: res}
	}
}

package tui

import (
	"context"
	"path/filepath"
	"strings"

	"candle-lens/internal/domain"
	"candle-lens/internal/session"
	"candle-lens/internal/view"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Upload message types.
type imageLoadedMsg struct{ image *domain.Image }
type imageErrMsg struct{ err error }
type removeImageMsg struct{}

// UploadModel reads a chart image from a path typed by the user.
type UploadModel struct {
	services Services
	sess     *session.Session
	input    textinput.Model
	loading  bool
	err      error
	width    int
	height   int
}

// NewUploadModel creates a new upload screen.
func NewUploadModel(svc Services, sess *session.Session) UploadModel {
	ti := textinput.New()
	ti.Placeholder = "caminho/para/grafico.png"
	ti.CharLimit = 512
	ti.Width = 60
	ti.Focus()

	return UploadModel{services: svc, sess: sess, input: ti}
}

// Init loads the initial image when one was given on the command line.
func (m UploadModel) Init() tea.Cmd {
	if m.services.InitialImage != "" {
		return loadImageCmd(m.services, m.services.InitialImage)
	}
	return textinput.Blink
}

// Update handles incoming messages.
func (m UploadModel) Update(msg tea.Msg) (UploadModel, tea.Cmd) {
	switch msg := msg.(type) {
	case imageLoadedMsg:
		m.loading = false
		m.err = nil
		m.input.SetValue("")
		return m, nil

	case imageErrMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.RemoveImage):
			return m, func() tea.Msg { return removeImageMsg{} }
		case msg.Type == tea.KeyEnter && !m.loading:
			path := strings.TrimSpace(m.input.Value())
			if path == "" {
				return m, nil
			}
			m.loading = true
			m.err = nil
			return m, loadImageCmd(m.services, path)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the upload screen.
func (m UploadModel) View() string {
	u := view.BuildUpload(m.sess)

	sections := []string{
		"",
		HeaderStyle.Render("  " + u.Title),
		SubtextStyle.Render("  Informe o caminho de uma imagem de gráfico de candlestick"),
		"",
		"  " + m.input.View(),
		"",
	}
	if m.loading {
		sections = append(sections, SubtextStyle.Render("  Carregando..."))
	}
	if m.err != nil {
		sections = append(sections, ErrorStyle.Render("  "+m.err.Error()))
	}
	if u.Loaded {
		sections = append(sections,
			SuccessStyle.Render("  ✓ "+u.LoadedLabel),
			"  "+BadgeStyle.Render(u.ImageName)+"  "+SubtextStyle.Render("ctrl+x: "+u.RemoveLabel),
		)
	}
	if m.services.ChartDir != "" {
		sections = append(sections, "", SubtextStyle.Render("  Diretório: "+m.services.ChartDir))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the model dimensions.
func (m *UploadModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if w > 10 {
		m.input.Width = w - 6
	}
}

// Focus gives focus to the path input.
func (m *UploadModel) Focus() { m.input.Focus() }

// Blur removes focus from the path input.
func (m *UploadModel) Blur() { m.input.Blur() }

func loadImageCmd(svc Services, path string) tea.Cmd {
	return func() tea.Msg {
		full, err := svc.resolveChartPath(path)
		if err != nil {
			return imageErrMsg{err: err}
		}
		data, err := svc.readFile(full)
		if err != nil {
			return imageErrMsg{err: err}
		}
		img, err := svc.Analysis.PrepareImage(context.Background(), filepath.Base(full), data, "")
		if err != nil {
			return imageErrMsg{err: err}
		}
		return imageLoadedMsg{image: img}
	}
}

package tui

import (
	"errors"
	"strings"

	"candle-lens/internal/service"
	"candle-lens/internal/session"
	"candle-lens/internal/view"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// Tab represents a screen tab in the TUI.
type Tab int

const (
	TabUpload Tab = iota
	TabAsset
	TabTimeframe
	TabRisk
)

var tabNames = []string{"1:Gráfico", "2:Ativo", "3:Timeframe", "4:Risco"}

// AppModel is the root Bubble Tea model. It owns the session and applies every
// transition requested by the child screens.
type AppModel struct {
	services   Services
	session    *session.Session
	activeTab  Tab
	upload     UploadModel
	assets     AssetModel
	timeframes TimeframeModel
	risk       RiskModel
	result     ResultModel
	notices    []session.Notice
	width      int
	height     int
	quitting   bool
}

// NewAppModel creates the root application model with all child screens.
func NewAppModel(svc Services) AppModel {
	sess := session.New(uuid.NewString())
	return AppModel{
		services:   svc,
		session:    sess,
		activeTab:  TabUpload,
		upload:     NewUploadModel(svc, sess),
		assets:     NewAssetModel(sess),
		timeframes: NewTimeframeModel(sess),
		risk:       NewRiskModel(sess),
		result:     NewResultModel(sess),
	}
}

// Init initializes the child models.
func (m AppModel) Init() tea.Cmd {
	return m.upload.Init()
}

// Update handles incoming messages, routing to the active tab.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.propagateSize()
		return m, nil

	case tea.KeyMsg:
		m.notices = nil
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.modalOpen() {
			return m.updateModal(msg)
		}
		if model, cmd, handled := m.globalKey(msg); handled {
			return model, cmd
		}

	case imageLoadedMsg:
		if err := m.session.LoadImage(*msg.image); err != nil {
			m.fail(err)
		} else {
			m.notify(view.ImageLoaded())
			m.switchTab(TabAsset)
		}
		var cmd tea.Cmd
		m.upload, cmd = m.upload.Update(msg)
		return m, cmd

	case imageErrMsg:
		if errors.Is(msg.err, service.ErrNotAnImage) {
			m.notify(view.InvalidImage())
		}
		var cmd tea.Cmd
		m.upload, cmd = m.upload.Update(msg)
		return m, cmd

	case removeImageMsg:
		m.apply(m.session.RemoveImage())
		return m, nil

	case assetChosenMsg:
		if err := m.session.SelectAsset(msg.asset); err != nil {
			m.fail(err)
		} else {
			m.switchTab(TabTimeframe)
		}
		return m, nil

	case timeframeChosenMsg:
		m.apply(m.session.SelectTimeframe(msg.timeframe))
		return m, nil

	case riskTypeMsg:
		m.apply(m.session.SelectRiskType(msg.riskType))
		return m, nil

	case riskProfileMsg:
		m.apply(m.session.SetRiskProfile(msg.profile))
		return m, nil

	case analysisDoneMsg:
		if err := m.session.CompleteAnalysis(msg.result); err == nil {
			m.notify(view.AnalysisCompleted(m.session.Asset.Symbol))
			m.result.Refresh()
		}
		return m, nil

	case analysisErrMsg:
		if err := m.session.FailAnalysis(msg.err.Error()); err == nil {
			m.notify(view.AnalysisFailed(msg.err.Error()))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)
		return m, cmd
	}

	// Route keyboard and other messages to the active tab only
	var cmd tea.Cmd
	switch m.activeTab {
	case TabUpload:
		m.upload, cmd = m.upload.Update(msg)
	case TabAsset:
		m.assets, cmd = m.assets.Update(msg)
	case TabTimeframe:
		m.timeframes, cmd = m.timeframes.Update(msg)
	case TabRisk:
		m.risk, cmd = m.risk.Update(msg)
	}
	return m, cmd
}

// globalKey handles bindings that apply on every tab. Printable keys are left to
// text inputs while one has focus.
func (m AppModel) globalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	typing := m.typing()
	switch {
	case key.Matches(msg, DefaultKeyMap.Quit) && !typing:
		m.quitting = true
		return m, tea.Quit, true

	case key.Matches(msg, DefaultKeyMap.Tab):
		m.switchTab(Tab((int(m.activeTab) + 1) % len(tabNames)))
		return m, nil, true

	case key.Matches(msg, DefaultKeyMap.ShiftTab):
		next := int(m.activeTab) - 1
		if next < 0 {
			next = len(tabNames) - 1
		}
		m.switchTab(Tab(next))
		return m, nil, true

	case key.Matches(msg, DefaultKeyMap.Analyze):
		return m.startAnalysis()

	case key.Matches(msg, DefaultKeyMap.Reset):
		if err := m.session.Reset(); err != nil {
			m.fail(err)
		} else {
			m.risk = NewRiskModel(m.session)
			m.switchTab(TabUpload)
		}
		return m, nil, true

	case !typing && len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '4':
		m.switchTab(Tab(msg.Runes[0] - '1'))
		return m, nil, true
	}
	return m, nil, false
}

func (m AppModel) startAnalysis() (tea.Model, tea.Cmd, bool) {
	req, err := m.session.StartAnalysis()
	if err != nil {
		m.fail(err)
		return m, nil, true
	}
	return m, tea.Batch(analyzeCmd(m.services.Analysis, req), m.result.Spin()), true
}

func (m AppModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.session.Analyzing {
		if msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, DefaultKeyMap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, DefaultKeyMap.Close):
		m.apply(m.session.CloseResult())
		return m, nil
	case key.Matches(msg, DefaultKeyMap.NewAnalysis):
		if err := m.session.NewAnalysis(); err != nil {
			m.fail(err)
		} else {
			m.switchTab(TabAsset)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.result, cmd = m.result.Update(msg)
	return m, cmd
}

// View renders the header, tab bar, notices and either the active screen or the modal.
func (m AppModel) View() string {
	if m.quitting {
		return "Até logo!\n"
	}

	header := HeaderStyle.Render(view.AppTitle)
	if m.services.Username != "" {
		header += "  " + SubtextStyle.Render("@"+m.services.Username)
	}

	sections := []string{header, m.renderTabBar()}
	for _, n := range m.notices {
		sections = append(sections, FormatNotice(n))
	}

	if m.modalOpen() {
		sections = append(sections, m.result.View())
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	var content string
	switch m.activeTab {
	case TabUpload:
		content = m.upload.View()
	case TabAsset:
		content = m.assets.View()
	case TabTimeframe:
		content = m.timeframes.View()
	case TabRisk:
		content = m.risk.View()
	}
	sections = append(sections, content, "", m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.propagateSize()
}

// ActiveTab returns the currently active tab (for testing).
func (m AppModel) ActiveTab() Tab { return m.activeTab }

// Session exposes the session driven by this model.
func (m AppModel) Session() *session.Session { return m.session }

// Notices returns the notices shown since the last key press.
func (m AppModel) Notices() []session.Notice { return m.notices }

func (m AppModel) modalOpen() bool {
	return m.session.Analyzing || m.session.ShowResult
}

func (m AppModel) typing() bool {
	return m.activeTab == TabUpload || (m.activeTab == TabAsset && m.assets.Editing())
}

func (m *AppModel) switchTab(tab Tab) {
	if tab == TabUpload && m.activeTab != TabUpload {
		m.upload.Focus()
	} else if m.activeTab == TabUpload && tab != TabUpload {
		m.upload.Blur()
	}
	m.activeTab = tab
}

func (m *AppModel) notify(n session.Notice) {
	m.session.Notify(n)
	m.notices = append(m.notices, m.session.DrainNotices()...)
}

func (m *AppModel) apply(err error) {
	if err != nil {
		m.fail(err)
	}
}

// fail surfaces a rejected transition as an error notice.
func (m *AppModel) fail(err error) {
	desc := err.Error()
	switch {
	case errors.Is(err, session.ErrAnalysisInFlight):
		desc = "Aguarde a conclusão da análise em andamento."
	case errors.Is(err, session.ErrCannotAnalyze):
		if m.session.Image == nil {
			desc = "Carregue uma imagem do gráfico."
		} else {
			desc = view.BuildAnalyzeButton(m.session).Label
		}
	}
	m.notify(session.Notice{Level: session.NoticeError, Title: "Erro", Description: desc})
}

func (m *AppModel) propagateSize() {
	contentHeight := m.height - 4 // header, tab bar, footer
	m.upload.SetSize(m.width, contentHeight)
	m.assets.SetSize(m.width, contentHeight)
	m.timeframes.SetSize(m.width, contentHeight)
	m.risk.SetSize(m.width, contentHeight)
	m.result.SetSize(m.width, contentHeight)
}

func (m AppModel) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.activeTab {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m AppModel) renderFooter() string {
	b := view.BuildAnalyzeButton(m.session)
	label := SubtextStyle.Render("[ " + b.Label + " ]")
	if b.Enabled {
		label = SelectedStyle.Render("[ " + b.Label + " ]")
	}
	help := []string{"ctrl+a: analisar", "ctrl+r: reiniciar", "tab: navegar"}
	if m.services.Analysis != nil {
		help = append(help, "backend: "+m.services.Analysis.Backend())
	}
	return label + "  " + SubtextStyle.Render(strings.Join(help, " · "))
}

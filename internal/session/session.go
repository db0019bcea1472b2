package session

import (
	"errors"
	"time"

	"candle-lens/internal/domain"
)

type State string

const (
	StateIdle        State = "idle"
	StateImageLoaded State = "image_loaded"
	StateConfiguring State = "configuring"
	StateAnalyzing   State = "analyzing"
	StateResult      State = "result"
	StateFailed      State = "failed"
)

var (
	ErrAnalysisInFlight = errors.New("an analysis is already in progress")
	ErrCannotAnalyze    = errors.New("image, asset and timeframe are required before analyzing")
	ErrNotAnalyzing     = errors.New("no analysis is in progress")
	ErrNotFound         = errors.New("session not found")
)

// StaleAnalysisAfter is how long a session may stay analyzing before the next
// transition gives up on the run.
const StaleAnalysisAfter = 10 * time.Minute

const staleAnalysisMessage = "analysis did not finish in time"

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message shown once by the next render.
type Notice struct {
	Level       NoticeLevel `json:"level"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Detail      string      `json:"detail,omitempty"`
}

// Session is one user's working state. All mutation goes through the transition methods;
// while an analysis is in flight only CompleteAnalysis and FailAnalysis are accepted.
type Session struct {
	ID          string                 `json:"id"`
	Image       *domain.Image          `json:"image,omitempty"`
	Asset       *domain.Asset          `json:"asset,omitempty"`
	Timeframe   *domain.Timeframe      `json:"timeframe,omitempty"`
	RiskProfile domain.RiskProfile     `json:"riskProfile"`
	Result      *domain.AnalysisResult `json:"result,omitempty"`
	Analyzing   bool                   `json:"analyzing"`
	ShowResult  bool                   `json:"showResult"`
	Error       string                 `json:"error,omitempty"`
	Notices     []Notice               `json:"notices,omitempty"`
	UpdatedAt   time.Time              `json:"updatedAt"`

	AnalysisStartedAt time.Time `json:"analysisStartedAt,omitzero"`
}

func New(id string) *Session {
	return &Session{
		ID:          id,
		RiskProfile: domain.DefaultRiskProfile(),
		UpdatedAt:   time.Now().UTC(),
	}
}

// State derives the state machine position from the fields.
func (s *Session) State() State {
	switch {
	case s.Analyzing:
		return StateAnalyzing
	case s.Result != nil:
		return StateResult
	case s.Error != "":
		return StateFailed
	case s.Image == nil:
		return StateIdle
	case s.Asset != nil || s.Timeframe != nil:
		return StateConfiguring
	default:
		return StateImageLoaded
	}
}

// CanAnalyze reports whether StartAnalysis would succeed.
func (s *Session) CanAnalyze() bool {
	return s.Image != nil && s.Timeframe != nil && s.Asset != nil && !s.Analyzing
}

// ExpireStaleAnalysis fails an analysis that has been running for longer than
// StaleAnalysisAfter at now. It reports whether the session changed.
func (s *Session) ExpireStaleAnalysis(now time.Time) bool {
	if !s.Analyzing {
		return false
	}
	started := s.AnalysisStartedAt
	if started.IsZero() {
		started = s.UpdatedAt
	}
	if now.Sub(started) < StaleAnalysisAfter {
		return false
	}
	_ = s.FailAnalysis(staleAnalysisMessage)
	return true
}

func (s *Session) guard() error {
	s.ExpireStaleAnalysis(time.Now())
	if s.Analyzing {
		return ErrAnalysisInFlight
	}
	return nil
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// LoadImage replaces the image. A new image invalidates the result and the timeframe.
func (s *Session) LoadImage(img domain.Image) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.Image = &img
	s.Result = nil
	s.Timeframe = nil
	s.Error = ""
	s.ShowResult = false
	s.touch()
	return nil
}

func (s *Session) RemoveImage() error {
	if err := s.guard(); err != nil {
		return err
	}
	s.Image = nil
	s.Result = nil
	s.Timeframe = nil
	s.Error = ""
	s.ShowResult = false
	s.touch()
	return nil
}

func (s *Session) SelectAsset(a domain.Asset) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.Asset = &a
	s.touch()
	return nil
}

func (s *Session) SelectTimeframe(tf domain.Timeframe) error {
	if err := s.guard(); err != nil {
		return err
	}
	s.Timeframe = &tf
	s.touch()
	return nil
}

// SelectRiskType switches the profile type and resets both sliders to its defaults.
func (s *Session) SelectRiskType(t domain.RiskProfileType) error {
	if !t.IsValid() {
		return domain.ErrInvalidRiskProfile
	}
	return s.SetRiskProfile(domain.NewRiskProfile(t))
}

func (s *Session) SetRiskProfile(p domain.RiskProfile) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.RiskProfile = p
	s.touch()
	return nil
}

// StartAnalysis enters the analyzing state and returns the request to send.
func (s *Session) StartAnalysis() (domain.AnalysisRequest, error) {
	if err := s.guard(); err != nil {
		return domain.AnalysisRequest{}, err
	}
	if !s.CanAnalyze() {
		return domain.AnalysisRequest{}, ErrCannotAnalyze
	}
	s.Analyzing = true
	s.Result = nil
	s.Error = ""
	s.ShowResult = false
	s.touch()
	s.AnalysisStartedAt = s.UpdatedAt
	return domain.AnalysisRequest{
		ImageURL:    s.Image.DataURL,
		RiskProfile: s.RiskProfile,
		Timeframe:   *s.Timeframe,
		Asset:       *s.Asset,
	}, nil
}

func (s *Session) CompleteAnalysis(res *domain.AnalysisResult) error {
	if !s.Analyzing {
		return ErrNotAnalyzing
	}
	s.Analyzing = false
	s.AnalysisStartedAt = time.Time{}
	s.Result = res
	s.Error = ""
	s.ShowResult = true
	s.touch()
	return nil
}

func (s *Session) FailAnalysis(msg string) error {
	if !s.Analyzing {
		return ErrNotAnalyzing
	}
	if msg == "" {
		msg = "analysis failed"
	}
	s.Analyzing = false
	s.AnalysisStartedAt = time.Time{}
	s.Result = nil
	s.Error = msg
	s.ShowResult = false
	s.touch()
	return nil
}

func (s *Session) CloseResult() error {
	if err := s.guard(); err != nil {
		return err
	}
	s.ShowResult = false
	s.touch()
	return nil
}

// NewAnalysis keeps the image and clears everything chosen for the previous run.
func (s *Session) NewAnalysis() error {
	if err := s.guard(); err != nil {
		return err
	}
	s.ShowResult = false
	s.Result = nil
	s.Timeframe = nil
	s.Asset = nil
	s.Error = ""
	s.touch()
	return nil
}

func (s *Session) Reset() error {
	if err := s.guard(); err != nil {
		return err
	}
	id := s.ID
	*s = *New(id)
	return nil
}

func (s *Session) Notify(n Notice) {
	s.Notices = append(s.Notices, n)
}

// DrainNotices returns pending notices and forgets them.
func (s *Session) DrainNotices() []Notice {
	out := s.Notices
	s.Notices = nil
	return out
}

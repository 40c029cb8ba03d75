package ui

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Phosphor colour palette, after the green CRT scopes
var (
	phosphorBright = lipgloss.Color("#33FF77") // Bright trace green
	phosphorMid    = lipgloss.Color("#1FBF55") // Mid glow
	phosphorDim    = lipgloss.Color("#0E7A36") // Dim glow
	phosphorFade   = lipgloss.Color("#0A4A22") // Faded afterglow
	graticuleGray  = lipgloss.Color("#3A4A3E") // Graticule lines
)

// RenderProgress carries one frame's worth of status from the render
// loop to the UI.
type RenderProgress struct {
	Frame       int64
	TotalFrames int64
	Elapsed     time.Duration
	Confidences []float32
	FrameData   *image.RGBA
}

// RenderComplete signals the end of the render with summary figures.
type RenderComplete struct {
	OutputDir   string
	TotalFrames int64
	FPS         int
	RenderTime  time.Duration
	DeviceName  string
}

// SourceInfo describes the analyzed audio for the header block.
type SourceInfo struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
	PeakLevel  float64 // dB
	RMSLevel   float64 // dB
	Mode       string
}

// progressQuitMsg is sent when it's time to quit after showing completion
type progressQuitMsg struct{}

// Model implements the Bubbletea model for the render progress view
type Model struct {
	progressBar progress.Model

	source   *SourceInfo
	state    RenderProgress
	complete *RenderComplete

	startTime      time.Time
	completionTime time.Time

	width           int
	height          int
	noPreview       bool
	cachedPreview   string
	cachedFrameNum  int64
	completionDelay time.Duration
	quitting        bool
}

// NewModel creates a progress UI model
func NewModel(source *SourceInfo, noPreview bool) *Model {
	p := progress.New(
		progress.WithGradient(string(phosphorDim), string(phosphorBright)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Model{
		progressBar:     p,
		source:          source,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
		noPreview:       noPreview,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(msg.Width-30, 50)
		return m, nil

	case RenderProgress:
		m.state = msg
		return m, nil

	case RenderComplete:
		m.complete = &msg
		m.completionTime = time.Now()
		m.quitting = true

		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return progressQuitMsg{}
		})

	case progressQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	if m.complete != nil {
		return m.renderComplete()
	}
	return m.renderProgress()
}

// CompletionSummary returns the final summary for printing after the alt
// screen exits. Empty until the render is complete.
func (m *Model) CompletionSummary() string {
	if m.complete == nil {
		return ""
	}
	return m.renderComplete()
}

func (m *Model) renderProgress() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(phosphorBright).
		Render("Wavescope")

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(phosphorMid).Render("Rendering frames"))
	s.WriteString("\n\n")

	if m.state.TotalFrames > 0 {
		percent := float64(m.state.Frame) / float64(m.state.TotalFrames)
		s.WriteString("Progress: ")
		s.WriteString(m.progressBar.ViewAs(percent))
		s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
		s.WriteString("\n\n")

		elapsed := m.state.Elapsed
		if elapsed == 0 {
			elapsed = time.Since(m.startTime)
		}
		var eta time.Duration
		if percent > 0 {
			eta = time.Duration(float64(elapsed)/percent) - elapsed
		}
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(
			fmt.Sprintf("Time: %s  │  ETA: %s  │  Frame %d of %d",
				formatDuration(elapsed), formatDuration(eta),
				m.state.Frame, m.state.TotalFrames)))
		s.WriteString("\n")
	} else {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting render...\n"))
	}

	s.WriteString("\n")
	m.renderSourceInfo(&s)

	if len(m.state.Confidences) > 0 {
		s.WriteString("\n\n")
		m.renderTriggerStatus(&s)
	}

	if !m.noPreview && m.state.FrameData != nil {
		if m.state.Frame != m.cachedFrameNum {
			preview := DownsampleFrame(m.state.FrameData, DefaultPreviewConfig())
			m.cachedPreview = RenderPreview(preview)
			m.cachedFrameNum = m.state.Frame
		}
		if m.cachedPreview != "" {
			s.WriteString("\n")
			s.WriteString(m.cachedPreview)
		}
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(phosphorDim).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderSourceInfo(s *strings.Builder) {
	labelStyle := lipgloss.NewStyle().Faint(true)
	valueStyle := lipgloss.NewStyle()
	headerStyle := lipgloss.NewStyle().Faint(true).Bold(true)

	s.WriteString(headerStyle.Render("Audio"))
	s.WriteString(" │ ")

	if m.source == nil {
		s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render("no source"))
		return
	}

	s.WriteString(valueStyle.Render(fmt.Sprintf("%.1fs", m.source.Duration.Seconds())))
	s.WriteString("  ")
	s.WriteString(valueStyle.Render(fmt.Sprintf("%d Hz, %d ch", m.source.SampleRate, m.source.Channels)))
	s.WriteString("  ")
	s.WriteString(labelStyle.Render("Peak:"))
	s.WriteString(" ")
	s.WriteString(valueStyle.Render(fmt.Sprintf("%.1f dB", m.source.PeakLevel)))
	s.WriteString("  ")
	s.WriteString(labelStyle.Render("RMS:"))
	s.WriteString(" ")
	s.WriteString(valueStyle.Render(fmt.Sprintf("%.1f dB", m.source.RMSLevel)))
	s.WriteString("  ")
	s.WriteString(labelStyle.Render("Trigger:"))
	s.WriteString(" ")
	s.WriteString(valueStyle.Render(m.source.Mode))
}

// renderTriggerStatus shows a per-trace lock meter. A dim bar means the
// trace is frozen on its last stable offset.
func (m *Model) renderTriggerStatus(s *strings.Builder) {
	s.WriteString(lipgloss.NewStyle().Foreground(phosphorMid).Render("Trigger lock:"))
	s.WriteString("\n")
	for i, c := range m.state.Confidences {
		label := fmt.Sprintf("ch%d ", i)
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(label))
		s.WriteString(makeLockMeter(float64(c), 24))
		if c == 0 {
			s.WriteString(lipgloss.NewStyle().Foreground(graticuleGray).Italic(true).Render("  frozen"))
		} else {
			s.WriteString(fmt.Sprintf(" %3.0f%%", c*100))
		}
		if i < len(m.state.Confidences)-1 {
			s.WriteString("\n")
		}
	}
}

func (m *Model) renderComplete() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(phosphorBright).
		Render("✓ Render Complete!")

	s.WriteString(title)
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)
	highlight := lipgloss.NewStyle().Foreground(phosphorMid)

	s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Output:   "), m.complete.OutputDir))
	if m.complete.DeviceName != "" {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Device:   "), m.complete.DeviceName))
	}

	videoDuration := time.Duration(m.complete.TotalFrames) * time.Second / time.Duration(m.complete.FPS)
	var speed float64
	if m.complete.RenderTime > 0 {
		speed = float64(videoDuration) / float64(m.complete.RenderTime)
	}
	s.WriteString(fmt.Sprintf("%s%d frames at %d fps (%.1fs)\n",
		dimLabel.Render("Frames:   "),
		m.complete.TotalFrames, m.complete.FPS, videoDuration.Seconds()))
	s.WriteString(fmt.Sprintf("%s%s (%.1fx realtime)",
		dimLabel.Render("Time:     "),
		highlight.Render(formatDuration(m.complete.RenderTime)), speed))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(phosphorMid).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

// Helper functions

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// makeLockMeter renders a confidence bar in the phosphor gradient.
func makeLockMeter(ratio float64, width int) string {
	if math.IsNaN(ratio) || ratio < 0 {
		ratio = 0
	}
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}

	var result strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			pos := float64(i) / float64(width)
			var c lipgloss.Color
			switch {
			case pos < 0.25:
				c = phosphorFade
			case pos < 0.5:
				c = phosphorDim
			case pos < 0.75:
				c = phosphorMid
			default:
				c = phosphorBright
			}
			result.WriteString(lipgloss.NewStyle().Foreground(c).Render("█"))
		} else {
			result.WriteString(lipgloss.NewStyle().Foreground(graticuleGray).Render("░"))
		}
	}
	return result.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

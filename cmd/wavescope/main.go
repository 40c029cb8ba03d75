package main

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/wavescope/wavescope/internal/audio"
	"github.com/wavescope/wavescope/internal/cli"
	"github.com/wavescope/wavescope/internal/config"
	"github.com/wavescope/wavescope/internal/export"
	"github.com/wavescope/wavescope/internal/render"
	"github.com/wavescope/wavescope/internal/scope"
	"github.com/wavescope/wavescope/internal/trigger"
	"github.com/wavescope/wavescope/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Input  string `arg:"" name:"input" help:"Input audio file (wav, aiff, mp3, flac, ogg)" optional:""`
	Output string `arg:"" name:"output" help:"Output directory for the PNG frame sequence" optional:""`

	Width     int     `help:"Frame width in pixels" default:"1920"`
	Height    int     `help:"Frame height in pixels" default:"1080"`
	FPS       int     `help:"Frames per second" default:"60"`
	Frames    int64   `help:"Stop after this many frames (0 = whole file)" default:"0"`
	Window    int     `help:"Samples shown per trace per frame" default:"2048"`
	Thickness float64 `help:"Trace stroke width in pixels" default:"4"`

	Mode           string  `help:"Centering mode: peakspeed, phase, xcorr or external" default:"peakspeed"`
	TriggerChannel int     `help:"Source channel driving the external trigger" default:"-1"`
	TriggerLevel   float64 `help:"External trigger level" default:"0"`
	TriggerSlope   string  `help:"External trigger slope: rising or falling" default:"rising"`

	Channels int     `help:"Number of traces (0 = one per source channel)" default:"0"`
	Software bool    `help:"Use the CPU rasterizer instead of the GPU"`
	Title    string  `help:"Title drawn in the frame corner"`
	Font     string  `help:"TrueType font file for the overlay text" type:"path"`
	FontSize float64 `help:"Overlay font size in points" default:"18"`

	NoPreview bool `help:"Disable the terminal preview while rendering"`
	Version   bool `help:"Show version information"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("wavescope"),
		kong.Description("Render audio waveforms as a stabilised oscilloscope trace."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate required arguments when not showing version
	if CLI.Input == "" || CLI.Output == "" {
		cli.PrintError("<input> and <output> are required")
		os.Exit(1)
	}

	// Validate input file exists
	if _, err := os.Stat(CLI.Input); os.IsNotExist(err) {
		cli.PrintError(fmt.Sprintf("input file does not exist: %s", CLI.Input))
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.Width = CLI.Width
	cfg.Height = CLI.Height
	cfg.FPS = CLI.FPS
	cfg.WindowLen = CLI.Window
	cfg.Thickness = CLI.Thickness
	cfg.Mode = CLI.Mode
	cfg.TriggerChannel = CLI.TriggerChannel
	cfg.TriggerLevel = CLI.TriggerLevel
	cfg.TriggerSlope = CLI.TriggerSlope
	cfg.Channels = CLI.Channels
	cfg.Software = CLI.Software
	cfg.Title = CLI.Title
	cfg.FontPath = CLI.Font

	if err := cfg.Validate(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	_ = ctx // Kong context available for future use

	renderFrames(cfg)
}

func renderFrames(cfg config.Config) {
	mode, err := trigger.ParseMode(cfg.Mode)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	src, err := audio.LoadFile(CLI.Input)
	if err != nil {
		cli.PrintError(fmt.Sprintf("loading audio: %v", err))
		os.Exit(1)
	}
	profile := audio.Analyze(src)

	// One trace per requested channel, top to bottom
	numTraces := cfg.Channels
	if numTraces == 0 {
		numTraces = src.NumChannels()
	}
	if numTraces > src.NumChannels() {
		cli.PrintError(fmt.Sprintf("requested %d traces but source has %d channels", numTraces, src.NumChannels()))
		os.Exit(1)
	}
	channels := make([]int, numTraces)
	for i := range channels {
		channels[i] = i
	}

	if mode == trigger.ExternalTrigger && (cfg.TriggerChannel < 0 || cfg.TriggerChannel >= src.NumChannels()) {
		cli.PrintError("external mode needs --trigger-channel pointing at a source channel")
		os.Exit(1)
	}

	slope := 1
	if cfg.TriggerSlope == "falling" {
		slope = -1
	}
	trigCfg := trigger.Config{
		WindowLen:            cfg.WindowLen,
		SearchWidth:          config.SearchWidth,
		MinPitchHz:           config.MinPitchHz,
		MaxPitchHz:           config.MaxPitchHz,
		CorrelationThreshold: config.CorrelationThreshold,
		Level:                float32(cfg.TriggerLevel),
		Hysteresis:           config.TriggerHysteresis,
		Slope:                slope,
		DeadTime:             config.TriggerDeadTime,
	}

	// Pick the rasterizer: GPU unless --software is set or no device opens
	lineFloats := numTraces * 2 * 2 * cfg.WindowLen
	var renderer render.Frame
	deviceName := "software"
	if cfg.Software {
		renderer = render.NewSoftware(cfg.Width, cfg.Height)
	} else {
		dev, err := render.OpenDevice()
		if err != nil {
			cli.PrintWarning(fmt.Sprintf("no GPU available, falling back to software rendering: %v", err))
			renderer = render.NewSoftware(cfg.Width, cfg.Height)
		} else {
			defer dev.Close()
			gpu, err := render.NewRenderer(dev.Device, dev.Queue, cfg.Width, cfg.Height, lineFloats, numTraces)
			if err != nil {
				cli.PrintError(fmt.Sprintf("creating render pipeline: %v", err))
				os.Exit(1)
			}
			renderer = gpu
			deviceName = dev.Name
		}
	}
	defer renderer.Destroy()

	sc, err := scope.New(scope.Config{
		Source:         src,
		Profile:        profile,
		Channels:       channels,
		Mode:           mode,
		TriggerChannel: cfg.TriggerChannel,
		Trigger:        trigCfg,
		Width:          cfg.Width,
		Height:         cfg.Height,
		Thickness:      float32(cfg.Thickness),
		WindowLen:      cfg.WindowLen,
		Margin:         config.AnalysisMargin,
		FPS:            cfg.FPS,
		Renderer:       renderer,
		WaitAnalysis:   true,
	})
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sc.Start(runCtx)
	defer sc.Stop()

	writer, err := export.NewWriter(CLI.Output, cfg.Title, cfg.FontPath, CLI.FontSize)
	if err != nil {
		cli.PrintError(fmt.Sprintf("preparing output: %v", err))
		os.Exit(1)
	}

	totalFrames := sc.NumFrames()
	if CLI.Frames > 0 && CLI.Frames < totalFrames {
		totalFrames = CLI.Frames
	}
	if totalFrames == 0 {
		cli.PrintError("audio file is shorter than one frame")
		os.Exit(1)
	}

	model := ui.NewModel(sourceInfo(src, profile, cfg.Mode), CLI.NoPreview)
	p := tea.NewProgram(model)

	// Run rendering in a goroutine and send progress updates
	var renderErr error
	go func() {
		start := time.Now()
		for frame := int64(0); frame < totalFrames; frame++ {
			img, confidences, err := sc.RenderFrame(runCtx, frame)
			if err != nil {
				renderErr = err
				p.Quit()
				return
			}
			if err := writer.WriteFrame(frame, img, confidences); err != nil {
				renderErr = err
				p.Quit()
				return
			}

			// Send progress every 3 frames; include frame data for the
			// preview every 6 frames unless it is disabled
			if frame%3 == 0 {
				var frameData *image.RGBA
				if !CLI.NoPreview && frame%6 == 0 {
					frameData = img
				}
				p.Send(ui.RenderProgress{
					Frame:       frame + 1,
					TotalFrames: totalFrames,
					Elapsed:     time.Since(start),
					Confidences: confidences,
					FrameData:   frameData,
				})
			}
		}

		p.Send(ui.RenderComplete{
			OutputDir:   CLI.Output,
			TotalFrames: totalFrames,
			FPS:         cfg.FPS,
			RenderTime:  time.Since(start),
			DeviceName:  deviceName,
		})
	}()

	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("running UI: %v", err))
		os.Exit(1)
	}
	if renderErr != nil {
		cli.PrintError(fmt.Sprintf("rendering: %v", renderErr))
		os.Exit(1)
	}

	if summary := model.CompletionSummary(); summary != "" {
		fmt.Println(summary)
	}
}

func sourceInfo(src *audio.Source, profile *audio.Profile, mode string) *ui.SourceInfo {
	peak, rms := float32(0), float32(0)
	for _, ch := range profile.Channels {
		if ch.Peak > peak {
			peak = ch.Peak
		}
		if ch.RMS > rms {
			rms = ch.RMS
		}
	}
	return &ui.SourceInfo{
		Duration:   time.Duration(float64(time.Second) * src.Duration()),
		SampleRate: src.SampleRate(),
		Channels:   src.NumChannels(),
		PeakLevel:  toDB(peak),
		RMSLevel:   toDB(rms),
		Mode:       mode,
	}
}

func toDB(level float32) float64 {
	if level <= 0 {
		return -96
	}
	return 20 * math.Log10(float64(level))
}

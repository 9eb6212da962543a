package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/faiface/beep"
	"github.com/spf13/cobra"

	"github.com/schollz/dotmatrix/internal/analysis"
	"github.com/schollz/dotmatrix/internal/animation"
	"github.com/schollz/dotmatrix/internal/capture"
	appconfig "github.com/schollz/dotmatrix/internal/config"
	"github.com/schollz/dotmatrix/internal/input"
	"github.com/schollz/dotmatrix/internal/midiconnector"
	"github.com/schollz/dotmatrix/internal/model"
	"github.com/schollz/dotmatrix/internal/player"
	"github.com/schollz/dotmatrix/internal/session"
	"github.com/schollz/dotmatrix/internal/spectrum"
	"github.com/schollz/dotmatrix/internal/views"
)

var (
	Version = "dev"

	// Command-line configuration
	config struct {
		env      string
		debug    string
		dump     string
		fps      int
		midi     string
		dir      string
		device   string
		volume   float64
		interval time.Duration
		fft      int
	}
)

// DumpTickMsg triggers periodic dumps to file
type DumpTickMsg struct{}

var rootCmd = &cobra.Command{
	Use:   "dotmatrix [file]",
	Short: "A dot-matrix audio visualizer for the terminal",
	Long: `dotmatrix plays an audio file, or captures a live input, and draws its
frequency spectrum as a grid of braille dots.

Features:
• mp3, wav, ogg, flac and aiff playback with seeking and volume
• Live capture from any input or monitor device
• Zoomable waveform overview
• MIDI remote control`,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	Run:     runDotmatrix,
}

var spectrumCmd = &cobra.Command{
	Use:   "spectrum <file>",
	Short: "Print the frequency spectrum of a file as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpectrum,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&config.env, "env", "",
		"Load settings from this .env file (default ./.env)")
	rootCmd.PersistentFlags().StringVarP(&config.debug, "log", "l", "",
		"Write debug logs to specified file (empty disables)")
	rootCmd.Flags().StringVarP(&config.dump, "dump", "d", "",
		"Write terminal frames to specified file every 10 seconds (empty disables)")
	rootCmd.Flags().IntVar(&config.fps, "fps", 30,
		"Animation frame rate")
	rootCmd.Flags().StringVar(&config.midi, "midi", "",
		"MIDI input to use as a remote (substring of the port name)")
	rootCmd.Flags().StringVar(&config.dir, "dir", "",
		"Directory the file browser starts in")
	rootCmd.Flags().StringVar(&config.device, "device", "",
		"Capture from the first input whose name contains this, without asking")
	rootCmd.Flags().Float64Var(&config.volume, "volume", 0.75,
		"Initial volume between 0 and 1")

	spectrumCmd.Flags().DurationVar(&config.interval, "interval", spectrum.DefaultInterval,
		"Time between frames")
	spectrumCmd.Flags().IntVar(&config.fft, "fft", analysis.DefaultFFTSize,
		"FFT size, a power of two")
	rootCmd.AddCommand(spectrumCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() *os.File {
	if config.debug == "" {
		log.SetOutput(io.Discard)
		return nil
	}
	f, err := tea.LogToFile(config.debug, "debug")
	if err != nil {
		log.Printf("Fatal: %v", err)
		os.Exit(1)
	}
	log.SetOutput(f)
	// Set log flags to include file and line number for VS Code clickable links
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	return f
}

// loadConfig layers flags the user actually set over defaults, .env and the
// environment.
func loadConfig(cmd *cobra.Command) (appconfig.Config, error) {
	cfg, err := appconfig.Load(config.env)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("log") {
		cfg.LogFile = config.debug
	}
	if flags.Changed("dump") {
		cfg.DumpFile = config.dump
	}
	if flags.Changed("fps") {
		cfg.FPS = config.fps
	}
	if flags.Changed("midi") {
		cfg.MidiPort = config.midi
	}
	if flags.Changed("dir") {
		cfg.StartDir = config.dir
	}
	if flags.Changed("device") {
		cfg.CaptureDevice = config.device
	}
	if flags.Changed("volume") {
		cfg.Volume = config.volume
	}
	config.debug = cfg.LogFile
	return cfg, cfg.Validate()
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	if f := setupLogging(); f != nil {
		defer f.Close()
	}
	return spectrum.WriteJSONLines(cmd.OutOrStdout(), args[0], spectrum.Options{
		FFTSize:  config.fft,
		Interval: config.interval,
	})
}

func runDotmatrix(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if f := setupLogging(); f != nil {
		defer f.Close()
	}
	log.Println("Debug logging enabled")
	log.Printf("Config: %+v", cfg)

	// One output context and analysis graph per process.
	graph := analysis.NewManager(func() analysis.Output {
		return analysis.NewSpeakerOutput(cfg.SampleRate)
	}, cfg.FFTSize)
	el := player.New(beep.SampleRate(cfg.SampleRate))
	sess := session.New(el, graph, nil, cfg.SkipStep)
	sess.SetVolume(cfg.Volume)

	pa := capture.NewPortAudio()
	negotiator := capture.NewNegotiator(pa, cfg.SampleRate, cfg.CaptureFrames)

	app := initialModel(cfg, sess, negotiator, el.Events())
	if len(args) == 1 {
		app.startPath = args[0]
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			sess.Close()
			el.Close()
			pa.Terminate()
		})
	}
	setupCleanupOnExit(cleanup)

	// Close dump file when function exits
	if app.dumpFile != nil {
		defer func() {
			if err := app.dumpFile.Close(); err != nil {
				log.Printf("Error closing dump file: %v", err)
			}
		}()
	}

	p := tea.NewProgram(app, tea.WithAltScreen())

	if cfg.MidiPort != "" {
		for _, name := range midiconnector.Devices() {
			log.Printf("MIDI device found: %s", name)
		}
		conn, err := midiconnector.Open(cfg.MidiPort, func(c midiconnector.Command) {
			p.Send(input.RemoteMsg{Command: c})
		})
		if err != nil {
			log.Printf("MIDI remote disabled: %v", err)
		} else {
			defer conn.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		log.Printf("Error: %v", err)
	}
	app.model.Visualizer.Close()

	// Always clean up when the program exits normally (e.g. q)
	cleanup()
}

func initialModel(cfg appconfig.Config, sess *session.Session, negotiator *capture.Negotiator, events <-chan player.Event) *AppModel {
	m := model.NewModel(cfg, sess, negotiator, events)
	app := &AppModel{model: m}

	// Open dump file if path is provided
	if cfg.DumpFile != "" {
		f, err := os.Create(cfg.DumpFile)
		if err != nil {
			log.Printf("Error opening dump file %s: %v", cfg.DumpFile, err)
		} else {
			app.dumpFile = f
			log.Printf("Terminal dump enabled: writing to %s every 10 seconds", cfg.DumpFile)
		}
	}
	return app
}

// AppModel wraps the model and implements the tea.Model interface
type AppModel struct {
	model     *model.Model
	dumpFile  *os.File
	startPath string
}

// tickDump schedules the next DumpTickMsg for periodic dumps
func tickDump() tea.Cmd {
	return tea.Tick(10*time.Second, func(time.Time) tea.Msg {
		return DumpTickMsg{}
	})
}

func (a *AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{a.model.Loop.Start()}

	if a.startPath != "" {
		cmds = append(cmds, input.AttachPath(a.model, a.startPath))
	}

	// Start dump ticker if dump file is enabled
	if a.dumpFile != nil {
		cmds = append(cmds, tickDump())
	}

	return tea.Batch(cmds...)
}

func (a *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return a, input.Resize(a.model, msg)

	case animation.FrameMsg:
		return a, input.AdvanceFrame(a.model, msg)

	case DumpTickMsg:
		// Write current view to dump file
		if a.dumpFile != nil {
			view := a.View()
			timestamp := time.Now().Format("2006-01-02 15:04:05")
			fmt.Fprintf(a.dumpFile, "\n=== Frame at %s ===\n", timestamp)
			fmt.Fprintf(a.dumpFile, "%s\n", view)
			a.dumpFile.Sync() // Ensure it's written to disk
		}
		return a, tickDump()

	case tea.KeyMsg:
		return a, input.HandleKeyInput(a.model, msg)
	}

	return a, input.HandleMsg(a.model, msg)
}

func (a *AppModel) View() string {
	return views.Render(a.model)
}

func setupCleanupOnExit(cleanup func()) {
	// Handle cleanup on various exit signals
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-c
		cleanup()
		os.Exit(0)
	}()
}

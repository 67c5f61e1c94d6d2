// Package main provides the player entry point.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/Ra5c0/MP3-Player/internal/app/library"
	"github.com/Ra5c0/MP3-Player/internal/app/playback"
	"github.com/Ra5c0/MP3-Player/internal/app/progress"
	"github.com/Ra5c0/MP3-Player/internal/app/transcode"
	"github.com/Ra5c0/MP3-Player/internal/infra/audio"
	"github.com/Ra5c0/MP3-Player/internal/infra/config"
	"github.com/Ra5c0/MP3-Player/internal/infra/ffmpeg"
	"github.com/Ra5c0/MP3-Player/internal/infra/logger"
	"github.com/Ra5c0/MP3-Player/internal/infra/store"
)

var (
	app        = kingpin.New("player", "Command-line audio player")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	startPaths = app.Arg("path", "Audio files or folders to queue at startup").Strings()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the main player logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	device, err := audio.New(cfg.Audio)
	if err != nil {
		return fmt.Errorf("failed to create audio device: %w", err)
	}

	transcoder := ffmpeg.NewTranscoder(cfg.Transcode.FFmpegPath)
	cache := transcode.NewCache(transcoder, device, transcode.Config{
		CacheDir:   cfg.Transcode.CacheDir,
		Extensions: cfg.Transcode.Extensions,
	})
	probe := ffmpeg.NewProbe(cfg.Transcode.FFmpegPath)

	engine := playback.NewEngine(device, probe, cache)
	engine.SetVolume(cfg.Playback.InitialVolume)

	lib := library.NewManager(store.NewFileStore(cfg.Library.PlaylistsFile), engine)
	tracker := progress.NewTracker(engine, cfg.TickInterval())

	// Queue startup arguments before the loop begins.
	for _, p := range *startPaths {
		queuePath(lib, p)
	}

	tracker.Start()

	// Shutdown order matters: the tracker must stop before the engine is
	// torn down so its tick cannot fire against a closed engine.
	defer func() {
		tracker.Stop()
		engine.Halt()
		engine.Close()
		cache.Cleanup()
		zlog.Info().Msg("Player stopped")
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("Ready. Type 'help' for commands.")

	var lastProgress progress.Update
	for {
		select {
		case <-sigCh:
			zlog.Info().Msg("Received shutdown signal...")
			return nil
		case u := <-tracker.Updates():
			lastProgress = u
		case ev := <-engine.Events():
			printEvent(ev)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := execute(engine, lib, lastProgress, line); quit {
				return nil
			}
		}
	}
}

// queuePath adds a file or folder argument to the playlist.
func queuePath(lib *library.Manager, path string) {
	info, err := os.Stat(path)
	if err != nil {
		zlog.Warn().Msgf("Skipping %s: %v", path, err)
		return
	}
	if info.IsDir() {
		name, added, err := lib.AddFolder(path)
		if err != nil {
			zlog.Warn().Msgf("Cannot scan %s: %v", path, err)
			return
		}
		if added > 0 {
			zlog.Info().Msgf("Added %d tracks, saved playlist %q", added, name)
		} else {
			zlog.Info().Msgf("No new audio files found in %s", path)
		}
		return
	}
	if lib.AddFiles([]string{path}) == 0 {
		zlog.Warn().Msgf("Unsupported or duplicate file: %s", path)
	}
}

func printEvent(ev playback.Event) {
	switch ev.Type {
	case playback.EventTrackStarted:
		fmt.Printf("Now playing: %s\n", ev.Track.DisplayName(60))
	case playback.EventStateChanged:
		fmt.Printf("State: %s\n", ev.State)
	case playback.EventHalted:
		fmt.Println("Stopped")
	case playback.EventPlaybackError:
		var lerr *playback.LoadError
		if errors.As(ev.Err, &lerr) {
			fmt.Println(lerr.UserMessage())
		} else {
			fmt.Printf("Playback error: %v\n", ev.Err)
		}
	}
}

// execute runs one command line. It returns true when the player should
// exit.
func execute(engine *playback.Engine, lib *library.Manager, last progress.Update, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "play", "p":
		if err := engine.PlayPause(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	case "next", "n":
		if err := engine.Next(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	case "prev":
		if err := engine.Prev(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	case "start":
		if len(args) != 1 {
			fmt.Println("Usage: start INDEX")
			return false
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Println("Usage: start INDEX")
			return false
		}
		if err := engine.Start(idx); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	case "shuffle":
		if engine.ToggleShuffle() {
			fmt.Println("Shuffle on")
		} else {
			fmt.Println("Shuffle off")
		}
	case "vol":
		if len(args) != 1 {
			fmt.Printf("Volume: %d\n", engine.Volume())
			return false
		}
		level, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Println("Usage: vol LEVEL (0-100)")
			return false
		}
		engine.SetVolume(level)
	case "add":
		if len(args) == 0 {
			fmt.Println("Usage: add PATH")
			return false
		}
		queuePath(lib, strings.Join(args, " "))
	case "load":
		if len(args) == 0 {
			fmt.Println("Usage: load NAME")
			return false
		}
		count, err := lib.LoadNamed(strings.Join(args, " "))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Loaded %d tracks\n", count)
	case "save":
		if len(args) == 0 {
			fmt.Println("Usage: save NAME")
			return false
		}
		name, err := lib.SaveAs(strings.Join(args, " "))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Playlist saved: %s\n", name)
	case "playlists":
		for _, name := range lib.Names() {
			fmt.Println(name)
		}
	case "list":
		printTracks(engine)
	case "clear":
		lib.Clear()
		fmt.Println("Playlist cleared")
	case "status":
		printStatus(engine, last)
	case "help":
		printHelp()
	case "quit", "q", "exit":
		return true
	default:
		fmt.Printf("Unknown command: %s (try 'help')\n", cmd)
	}
	return false
}

func printTracks(engine *playback.Engine) {
	current, active := engine.CurrentIndex()
	for i, t := range engine.Tracks() {
		marker := "  "
		if active && i == current {
			marker = "> "
		}
		fmt.Printf("%s%3d  %s\n", marker, i, t.DisplayName(80))
	}
}

func printStatus(engine *playback.Engine, last progress.Update) {
	fmt.Printf("State: %s  Shuffle: %v  Volume: %d\n",
		engine.State(), engine.ShuffleEnabled(), engine.Volume())
	if t, ok := engine.CurrentTrack(); ok {
		fmt.Printf("Track: %s\n", t.DisplayName(60))
		fmt.Printf("Time: %s / %s\n", last.Elapsed, last.Duration)
	}
}

func printHelp() {
	fmt.Println(`Commands:
  play | p        toggle play/pause (starts track 0 when idle)
  start INDEX     play the track at INDEX
  next | n        next track (shuffle-aware)
  prev            previous track
  shuffle         toggle shuffle mode
  vol [LEVEL]     show or set volume (0-100)
  add PATH        add a file or folder to the playlist
  load NAME       load a saved playlist
  save NAME       save the current playlist
  playlists       list saved playlists
  list            list playlist tracks
  clear           clear the playlist
  status          show transport state and progress
  quit | q        exit`)
}

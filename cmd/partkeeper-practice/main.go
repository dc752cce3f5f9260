package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/faiface/beep"
	"github.com/partkeeper/partkeeper/internal/audio"
	"github.com/partkeeper/partkeeper/internal/kvstore"
	"github.com/partkeeper/partkeeper/internal/playback"
	"github.com/partkeeper/partkeeper/internal/practice"
)

const outputRate = beep.SampleRate(44100)

func main() {
	file := flag.String("file", "", "soundtrack to practise with (.wav or .mp3)")
	media := flag.String("media", "", "media id or video link the settings are saved under (default: the file name)")
	store := flag.String("store", defaultStorePath(), "settings file")
	debug := flag.Bool("debug", false, "log player and persistence failures")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: partkeeper-practice -file <soundtrack> [-media <id or link>] [-store <path>]")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	mediaID := mediaKey(*media, *file)

	player, err := audio.Open(*file, audio.Config{
		OutputRate: outputRate,
		Lock:       audio.SpeakerLock{},
	})
	if err != nil {
		log.Fatalf("failed to open soundtrack: %v", err)
	}
	if err := audio.StartSpeaker(outputRate, player); err != nil {
		log.Fatalf("failed to open audio output: %v", err)
	}
	defer audio.CloseSpeaker()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := playback.NewSession(mediaID, kvstore.NewFile(*store), playback.Config{Logger: logger})
	session.Start(ctx, player)
	defer session.Stop()

	console := practice.NewConsole(session, player, os.Stdout)
	fmt.Printf("%s (%s), saved as %q\n", filepath.Base(*file), practice.FormatSeconds(player.Duration()), mediaID)
	console.PrintStatus()
	fmt.Println("type h for help")

	if err := prompt(ctx, console); err != nil {
		log.Printf("prompt: %v", err)
	}
}

func prompt(ctx context.Context, console *practice.Console) error {
	items := make([]readline.PrefixCompleterInterface, 0, len(practice.CommandNames()))
	for _, name := range practice.CommandNames() {
		items = append(items, readline.PcItem(name))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(os.TempDir(), "partkeeper-practice.history"),
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "q",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		quit, err := console.Execute(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if quit {
			return nil
		}
	}
}

// mediaKey is the id settings are stored under: the video id when a link or
// id is given, otherwise the soundtrack's base name.
func mediaKey(media, file string) string {
	if media = strings.TrimSpace(media); media != "" {
		return playback.MediaID(media)
	}
	return filepath.Base(file)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "partkeeper-settings.json"
	}
	return filepath.Join(home, ".partkeeper", "settings.json")
}

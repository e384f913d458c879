package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/lexiqai/speech-studio/internal/app"
	"github.com/lexiqai/speech-studio/internal/audio"
	"github.com/lexiqai/speech-studio/internal/config"
	"github.com/lexiqai/speech-studio/internal/generation"
	"github.com/lexiqai/speech-studio/internal/observability"
	"github.com/lexiqai/speech-studio/internal/tts"
)

const usage = `usage: speak <command> [flags]

commands:
  generate -in FILE [-voice V] [-out DIR]   synthesize a text file ("-" reads stdin)
  preview  [-voice V] [-out DIR]            synthesize the preview phrase
  keys     add KEY | list | remove INDEX | clear
  voices                                    list prebuilt voices
  version`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	// stdout carries command output
	observability.InitLoggerTo(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "generate":
		err = runGenerate(ctx, cfg, os.Args[2:])
	case "preview":
		err = runPreview(ctx, cfg, os.Args[2:])
	case "keys":
		err = runKeys(ctx, cfg, os.Args[2:])
	case "voices":
		err = runVoices(os.Stdout)
	case "version":
		fmt.Println(observability.Version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runGenerate(ctx context.Context, cfg *config.Config, args []string) error {
	var inPath, voice, outDir string
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	fs.StringVar(&inPath, "in", "", "Text file to synthesize, - for stdin")
	fs.StringVar(&voice, "voice", cfg.DefaultVoice, "Prebuilt voice name")
	fs.StringVar(&outDir, "out", ".", "Directory for the WAV file")
	fs.Parse(args)

	if inPath == "" {
		return fmt.Errorf("generate: -in is required")
	}
	if _, ok := tts.LookupVoice(voice); !ok {
		return fmt.Errorf("unknown voice %q", voice)
	}

	text, err := readText(inPath)
	if err != nil {
		return err
	}

	studio, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer studio.Close()

	run, err := studio.Orchestrator.Generate(ctx, generation.Request{Text: text, VoiceID: voice}, func(percent int) {
		fmt.Fprintf(os.Stderr, "\rgenerating... %3d%%", percent)
	})
	if run != nil && run.Completed > 0 {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	path, err := writeAudio(outDir, run.Filename, run.Audio)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d chunks, %s)\n", path, run.Chunks, audio.Duration(len(run.Audio)-audio.HeaderSize))
	return nil
}

func runPreview(ctx context.Context, cfg *config.Config, args []string) error {
	var voice, outDir string
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	fs.StringVar(&voice, "voice", cfg.DefaultVoice, "Prebuilt voice name")
	fs.StringVar(&outDir, "out", ".", "Directory for the WAV file")
	fs.Parse(args)

	if _, ok := tts.LookupVoice(voice); !ok {
		return fmt.Errorf("unknown voice %q", voice)
	}

	studio, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer studio.Close()

	wav, err := studio.Orchestrator.Preview(ctx, voice)
	if err != nil {
		return err
	}

	path, err := writeAudio(outDir, fmt.Sprintf("preview-%s.wav", voice), wav)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runKeys(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("keys: expected add, list, remove or clear")
	}

	studio, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer studio.Close()
	keys := studio.Keys

	switch args[0] {
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("keys add: missing KEY")
		}
		added, err := keys.Add(ctx, args[1])
		if err != nil {
			return err
		}
		if !added {
			return fmt.Errorf("keys add: empty key ignored")
		}
		fmt.Printf("added, %d keys in pool\n", len(keys.List()))
	case "list":
		for i, k := range keys.List() {
			fmt.Printf("%d\t%s\n", i, observability.MaskKey(k))
		}
	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("keys remove: missing INDEX")
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("keys remove: invalid index %q", args[1])
		}
		if err := keys.RemoveAt(ctx, index); err != nil {
			return err
		}
		fmt.Printf("removed, %d keys in pool\n", len(keys.List()))
	case "clear":
		if err := keys.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("all keys removed")
	default:
		return fmt.Errorf("keys: unknown subcommand %q", args[0])
	}
	return nil
}

func runVoices(out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VOICE\tGENDER\tSTYLE")
	for _, v := range tts.Voices {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Gender, v.Description)
	}
	return tw.Flush()
}

func readText(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func writeAudio(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return path, nil
}

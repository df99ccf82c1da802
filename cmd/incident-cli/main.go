// cmd/incident-cli/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"incident-relay/internal/common/audio"
	"incident-relay/internal/common/config"
	commonhttp "incident-relay/internal/common/http"
	"incident-relay/internal/common/llm"
	"incident-relay/internal/common/logger"
	"incident-relay/internal/common/observability"
	"incident-relay/internal/common/tts"
	"incident-relay/internal/delivery"
	"incident-relay/internal/extraction"
	"incident-relay/internal/incident"
	"incident-relay/internal/pipeline"
	"incident-relay/internal/voice"
)

const (
	exitOK       = 0
	exitRejected = 1
	exitFailure  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		text       = flag.String("text", "", "incident description (read from stdin when empty)")
		configPath = flag.String("config", "", "path to a config YAML file")
		dryRun     = flag.Bool("dry-run", false, "build and validate the incident without posting it")
		speak      = flag.Bool("speak", false, "speak a confirmation after delivery")
		noWait     = flag.Bool("no-wait", false, "do not block on playback of the confirmation")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		return exitFailure
	}

	// stdout carries the JSON result, so logs go to stderr.
	zapLog, err := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		return exitFailure
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "incident-cli"})

	reporter, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Sentry.Environment, cfg.App.Version)
	if err != nil {
		log.Warn("sentry disabled", map[string]interface{}{"error": err.Error()})
	}
	defer reporter.Flush()

	rawText, err := readText(*text, os.Stdin)
	if err != nil {
		log.Error("no incident text", map[string]interface{}{"error": err.Error()})
		return exitFailure
	}

	if !*dryRun && cfg.Webhook.URL == "" {
		log.Error("webhook.url is required unless -dry-run is set", nil)
		return exitFailure
	}

	completer, err := llm.New(cfg)
	if err != nil {
		log.Error("llm client init failed", map[string]interface{}{"error": err.Error()})
		return exitFailure
	}

	tickets := pipeline.New(extraction.NewExtractor(completer, log, nil), incident.NewBuilder(), log)
	webhook := delivery.NewWebhookClient(&delivery.Config{
		URL:     cfg.Webhook.URL,
		Timeout: cfg.Webhook.TimeoutDuration(),
	}, log, nil)

	var confirmer *voice.Confirmer
	var speaker pipeline.Speaker
	wantSpeech := *speak || cfg.Speech.Enabled
	if wantSpeech {
		if cfg.Speech.APIKey == "" {
			log.Error("speech.api_key is required for spoken confirmations", nil)
			return exitFailure
		}
		synth := tts.NewElevenLabsClient(tts.ElevenLabsConfig{
			APIKey:  cfg.Speech.APIKey,
			VoiceID: cfg.Speech.VoiceID,
			ModelID: cfg.Speech.ModelID,
			BaseURL: cfg.Speech.BaseURL,
		}, commonhttp.NewClient(0))
		confirmer = voice.NewConfirmer(synth, audio.NewSpeaker(), config.GetDuration(cfg.Speech.LeadInSilence), log, nil)
		speaker = confirmer
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	intake := pipeline.NewIntake(tickets, webhook, speaker, log, nil)
	outcome, err := intake.Run(ctx, rawText, pipeline.IntakeOptions{
		DryRun:   *dryRun,
		Speak:    wantSpeech,
		Blocking: !*noWait,
	})
	if confirmer != nil {
		confirmer.Wait()
	}

	if outcome != nil {
		if perr := printJSON(os.Stdout, outcome); perr != nil {
			log.Error("outcome not printable", map[string]interface{}{"error": perr.Error()})
			return exitFailure
		}
	}
	if err != nil {
		reporter.Capture(err, map[string]string{"command": "incident-cli"}, map[string]interface{}{
			"llmProvider": completer.Provider(),
		})
		log.Error("intake failed", map[string]interface{}{"error": err.Error()})
		return exitFailure
	}
	if !outcome.OK() {
		return exitRejected
	}
	return exitOK
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func readText(flagText string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(flagText) != "" {
		return flagText, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("pass -text or pipe a description on stdin")
	}
	return string(data), nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

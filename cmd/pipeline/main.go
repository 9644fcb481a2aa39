package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bulatminnakhmetov/svidanka-media/internal/config"
	"github.com/bulatminnakhmetov/svidanka-media/internal/fixtures"
	"github.com/bulatminnakhmetov/svidanka-media/internal/permission"
	"github.com/bulatminnakhmetov/svidanka-media/internal/picker"
	"github.com/bulatminnakhmetov/svidanka-media/internal/pipeline"
	"github.com/bulatminnakhmetov/svidanka-media/internal/profile"
	"github.com/bulatminnakhmetov/svidanka-media/internal/prompt"
	"github.com/bulatminnakhmetov/svidanka-media/internal/session"
	"github.com/bulatminnakhmetov/svidanka-media/internal/submission"
	"github.com/bulatminnakhmetov/svidanka-media/internal/uploader"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	sess, err := buildSession(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not establish a session")
	}

	fx, err := fixtures.Load()
	if err != nil {
		log.Warn().Err(err).Msg("fixtures unavailable")
	}

	term := prompt.NewTerminal(os.Stdin, os.Stdout)

	p, err := pipeline.New(pipeline.Deps{
		Session:   sess,
		Gate:      permission.NewTerminalGate(os.Stdin, os.Stdout, log),
		Picker:    picker.NewFSPicker(os.Stdin, os.Stdout, log),
		Confirmer: terminalConfirmer{term},
		Uploader: uploader.New(cfg.APIBaseURL, log,
			uploader.WithPutTimeout(cfg.UploadTimeout),
			uploader.WithAuthToken(sess.Token),
		),
		Submitter: submission.New(cfg.APIBaseURL, log,
			submission.WithTimeout(cfg.SubmitTimeout),
			submission.WithAuthToken(sess.Token),
		),
		Profiles:    profile.NewClient(cfg.APIBaseURL, log, profile.WithAuthToken(sess.Token)),
		Fixtures:    fx,
		ThresholdMB: cfg.SizeThresholdMB,
		Log:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("could not build pipeline")
	}

	ctx := context.Background()
	if err := p.LoadExisting(ctx); err != nil {
		log.Warn().Err(err).Msg("could not load existing profile media")
	}

	term.Say("Logged in as %s (%s). Commands: photo <0-2>, video, record, remove <slot|video>, show, submit, quit.", sess.Email, sess.UserUID)

	runLoop(ctx, p, term, log)
}

func buildSession(cfg *config.Config) (*session.Session, error) {
	if cfg.AuthToken != "" {
		return session.FromToken(cfg.AuthToken, nil)
	}
	return session.New(cfg.UserUID, cfg.UserEmail)
}

// terminalConfirmer adapts the terminal prompt to the confirmer interface
type terminalConfirmer struct {
	term *prompt.Terminal
}

func (c terminalConfirmer) Confirm(ctx context.Context, question string) (bool, error) {
	return c.term.YesNo(question)
}

func runLoop(ctx context.Context, p *pipeline.Pipeline, term *prompt.Terminal, log zerolog.Logger) {
	for {
		line, err := term.Ask(">")
		if err != nil {
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "photo":
			if len(fields) < 2 {
				term.Say("usage: photo <0-2>")
				continue
			}
			slot, err := strconv.Atoi(fields[1])
			if err != nil {
				term.Say("usage: photo <0-2>")
				continue
			}
			report(term, p.AddPhoto(ctx, slot))

		case "video":
			report(term, p.AddVideo(ctx, false))

		case "record":
			report(term, p.AddVideo(ctx, true))

		case "remove":
			if len(fields) < 2 {
				term.Say("usage: remove <slot|video>")
				continue
			}
			if fields[1] == "video" {
				p.RemoveVideo()
				continue
			}
			slot, err := strconv.Atoi(fields[1])
			if err != nil {
				term.Say("usage: remove <slot|video>")
				continue
			}
			report(term, p.RemovePhoto(slot))

		case "show":
			show(p, term)

		case "submit":
			start := time.Now()
			if err := p.Submit(ctx); err != nil {
				report(term, err)
				continue
			}
			log.Info().Dur("took", time.Since(start)).Msg("profile updated")
			term.Say("Profile updated.")
			return

		case "quit", "exit":
			return

		default:
			term.Say("Commands: photo <0-2>, video, record, remove <slot|video>, show, submit, quit.")
		}
	}
}

func show(p *pipeline.Pipeline, term *prompt.Terminal) {
	for i, slot := range p.Photos() {
		if slot.Empty() {
			term.Say("photo %d: empty", i)
			continue
		}
		term.Say("photo %d: %s (%s)", i, slot.URI, formatSize(slot.SizeMB))
	}
	video := p.Video()
	switch {
	case video.Empty():
		term.Say("video: empty")
	case video.IsTestFixture:
		term.Say("video: %s (%s, test fixture)", video.URI, formatSize(video.SizeMB))
	default:
		term.Say("video: %s (%s)", video.URI, formatSize(video.SizeMB))
	}
	term.Say("total: %.2fMB", p.TotalSizeMB())
}

func formatSize(mb *float64) string {
	if mb == nil {
		return "size unknown"
	}
	return fmt.Sprintf("%.2fMB", *mb)
}

// report surfaces the failure taxonomy as the blocking messages the mobile
// app shows; nothing retries automatically.
func report(term *prompt.Terminal, err error) {
	switch {
	case err == nil:
	case errors.Is(err, submission.ErrServer), errors.Is(err, submission.ErrTimeout):
		term.Say("The update was not accepted. Try again with smaller photos or a shorter video.")
	case errors.Is(err, submission.ErrNetwork):
		term.Say("Could not reach the server. Check your connection and try again.")
	case errors.Is(err, pipeline.ErrAborted):
		term.Say("Submission canceled.")
	case errors.Is(err, pipeline.ErrPermissionDenied):
		term.Say("Permission denied.")
	default:
		term.Say("Something went wrong: %v", err)
	}
}

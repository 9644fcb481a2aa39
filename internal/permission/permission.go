package permission

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/bulatminnakhmetov/svidanka-media/internal/prompt"
)

// Kind identifies a device capability the pipeline needs access to.
type Kind string

const (
	KindLibrary Kind = "library"
	KindCamera  Kind = "camera"
)

// Gate asks for access to a device capability. Implementations return false
// on denial and never retry on their own; the caller re-invokes the gate on
// the next user action.
type Gate interface {
	Request(ctx context.Context, kind Kind) (bool, error)
}

// TerminalGate is the CLI stand-in for the OS permission dialog. On denial it
// offers to open the system settings once, then reports the denial either way.
type TerminalGate struct {
	term *prompt.Terminal
	log  zerolog.Logger
}

func NewTerminalGate(in io.Reader, out io.Writer, log zerolog.Logger) *TerminalGate {
	return &TerminalGate{
		term: prompt.NewTerminal(in, out),
		log:  log.With().Str("component", "permission-gate").Logger(),
	}
}

func (g *TerminalGate) Request(ctx context.Context, kind Kind) (bool, error) {
	granted, err := g.term.YesNo("Allow access to the " + string(kind) + "?")
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	g.log.Debug().Str("kind", string(kind)).Msg("permission denied")

	openSettings, err := g.term.YesNo("Access denied. Open system settings to change it?")
	if err != nil {
		return false, err
	}
	if openSettings {
		// The mobile app launches the OS settings screen here; on a terminal
		// the best we can do is tell the user where to go.
		g.term.Say("Grant %s access in your system settings, then try again.", kind)
	}
	return false, nil
}

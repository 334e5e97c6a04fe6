// Package dispatch executes classified intents against the downstream
// side-effect channels and produces the user-facing reply.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"automatron/pkg/intent"
	"automatron/pkg/reply"
)

// HomeSender delivers an ordered command sequence to the automation bus
// in one session.
type HomeSender interface {
	Send(ctx context.Context, commands ...string) error
}

// ExpenseRecorder forwards one expense record to the external ledger.
type ExpenseRecorder interface {
	Record(ctx context.Context, amount int, category string) error
}

// Dispatcher turns intents into side effects. Downstream calls are
// strictly sequential, single-attempt; failures propagate to the caller
// unmodified.
type Dispatcher struct {
	home    HomeSender
	ledger  ExpenseRecorder
	version string
	log     *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

// New constructs a dispatcher over the two downstream adapters.
func New(home HomeSender, ledger ExpenseRecorder, version string, log *slog.Logger) (*Dispatcher, error) {
	if home == nil {
		return nil, errors.New("home sender is required")
	}
	if ledger == nil {
		return nil, errors.New("expense recorder is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		home:    home,
		ledger:  ledger,
		version: version,
		log:     log.With("component", "dispatch"),
		now:     time.Now,
	}, nil
}

// DispatchText classifies text and dispatches the resulting intent.
func (d *Dispatcher) DispatchText(ctx context.Context, text string) (reply.Value, error) {
	return d.Dispatch(ctx, intent.Classify(text))
}

// Dispatch executes one intent. The type switch is exhaustive over the
// intent variants; an unknown variant is a programming error.
func (d *Dispatcher) Dispatch(ctx context.Context, in intent.Intent) (reply.Value, error) {
	switch v := in.(type) {
	case intent.Home:
		if err := d.home.Send(ctx, v.Commands...); err != nil {
			return nil, err
		}
		return reply.Text(v.Ack), nil

	case intent.Expense:
		if err := d.ledger.Record(ctx, v.Amount, string(v.Category)); err != nil {
			return nil, err
		}
		body := fmt.Sprintf("recorded expense ฿%d %s", v.Amount, v.Category)
		return reply.NewBubble("expense tracking", body), nil

	case intent.Diagnostic:
		return d.diagnose(v.Command), nil

	case intent.Fallback:
		return reply.Text("unrecognized message! " + v.Text), nil

	default:
		return nil, fmt.Errorf("unhandled intent %T", in)
	}
}

// diagnose serves the fixed diagnostic command set. No side effects.
func (d *Dispatcher) diagnose(command string) reply.Value {
	switch command {
	case "ping":
		return reply.Text("pong")
	case "version":
		return reply.NewBubble("diagnostics", "automatron "+d.version)
	case "time":
		return reply.NewBubble("diagnostics", d.now().UTC().Format(time.RFC3339))
	default:
		return reply.NewBubble("diagnostics",
			fmt.Sprintf("unknown diagnostic command %q; available: ping, version, time", command))
	}
}

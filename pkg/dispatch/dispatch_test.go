package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"automatron/pkg/intent"
	"automatron/pkg/reply"
)

type recordingHome struct {
	calls [][]string
	err   error
}

func (h *recordingHome) Send(_ context.Context, commands ...string) error {
	h.calls = append(h.calls, commands)
	return h.err
}

type recordingLedger struct {
	amounts    []int
	categories []string
	err        error
}

func (l *recordingLedger) Record(_ context.Context, amount int, category string) error {
	l.amounts = append(l.amounts, amount)
	l.categories = append(l.categories, category)
	return l.err
}

func newTestDispatcher(t *testing.T, home *recordingHome, ledger *recordingLedger) *Dispatcher {
	t.Helper()

	d, err := New(home, ledger, "test", slog.Default())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	d.now = func() time.Time {
		return time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	}

	return d
}

func TestDispatchSceneSingleBusSession(t *testing.T) {
	home := &recordingHome{}
	d := newTestDispatcher(t, home, &recordingLedger{})

	value, err := d.DispatchText(context.Background(), "arriving")
	if err != nil {
		t.Fatalf("DispatchText error: %v", err)
	}

	if len(home.calls) != 1 {
		t.Fatalf("bus sessions = %d, want exactly one for the whole scene", len(home.calls))
	}
	want := []string{"plugs on", "lights normal", "ac on"}
	if !reflect.DeepEqual(home.calls[0], want) {
		t.Fatalf("commands = %v, want %v", home.calls[0], want)
	}
	if value != reply.Text("preparing home") {
		t.Fatalf("reply = %v, want preparing home", value)
	}
}

func TestDispatchLightsMode(t *testing.T) {
	home := &recordingHome{}
	d := newTestDispatcher(t, home, &recordingLedger{})

	value, err := d.DispatchText(context.Background(), "lights dim")
	if err != nil {
		t.Fatalf("DispatchText error: %v", err)
	}
	if value != reply.Text("ok, lights dim") {
		t.Fatalf("reply = %v, want ok, lights dim", value)
	}
}

func TestDispatchHomeFailurePropagates(t *testing.T) {
	home := &recordingHome{err: errors.New("connection refused")}
	d := newTestDispatcher(t, home, &recordingLedger{})

	value, err := d.DispatchText(context.Background(), "ac on")
	if err == nil {
		t.Fatal("expected bus failure to propagate")
	}
	if value != nil {
		t.Fatalf("reply = %v, want nil on failure", value)
	}
	if len(home.calls) != 1 {
		t.Fatalf("bus sessions = %d, want single attempt with no retry", len(home.calls))
	}
}

func TestDispatchExpense(t *testing.T) {
	led := &recordingLedger{}
	d := newTestDispatcher(t, &recordingHome{}, led)

	value, err := d.Dispatch(context.Background(), intent.Expense{Amount: 4, Category: intent.Food})
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}

	if !reflect.DeepEqual(led.amounts, []int{4}) || !reflect.DeepEqual(led.categories, []string{"food"}) {
		t.Fatalf("recorded %v/%v, want 4/food", led.amounts, led.categories)
	}

	bubble, ok := value.(*reply.Bubble)
	if !ok {
		t.Fatalf("reply = %T, want *reply.Bubble", value)
	}
	if bubble.Title != "expense tracking" {
		t.Fatalf("title = %q, want expense tracking", bubble.Title)
	}
	if bubble.Body != "recorded expense ฿4 food" {
		t.Fatalf("body = %q", bubble.Body)
	}
}

func TestDispatchExpenseFailurePropagates(t *testing.T) {
	led := &recordingLedger{err: errors.New("webhook returned status 502")}
	d := newTestDispatcher(t, &recordingHome{}, led)

	if _, err := d.Dispatch(context.Background(), intent.Expense{Amount: 1, Category: intent.Game}); err == nil {
		t.Fatal("expected ledger failure to propagate")
	}
}

func TestDispatchFallbackNeverFails(t *testing.T) {
	home := &recordingHome{}
	led := &recordingLedger{}
	d := newTestDispatcher(t, home, led)

	value, err := d.DispatchText(context.Background(), "arbitrary text")
	if err != nil {
		t.Fatalf("DispatchText error: %v", err)
	}
	if value != reply.Text("unrecognized message! arbitrary text") {
		t.Fatalf("reply = %v", value)
	}
	if len(home.calls) != 0 || len(led.amounts) != 0 {
		t.Fatal("fallback must not touch downstream adapters")
	}
}

func TestDispatchDiagnostics(t *testing.T) {
	d := newTestDispatcher(t, &recordingHome{}, &recordingLedger{})

	value, err := d.DispatchText(context.Background(), ">ping")
	if err != nil {
		t.Fatalf("DispatchText error: %v", err)
	}
	if value != reply.Text("pong") {
		t.Fatalf("reply = %v, want pong", value)
	}

	value, err = d.DispatchText(context.Background(), ">bogus")
	if err != nil {
		t.Fatalf("DispatchText error: %v", err)
	}
	if _, ok := value.(*reply.Bubble); !ok {
		t.Fatalf("unknown diagnostic reply = %T, want bubble", value)
	}
}

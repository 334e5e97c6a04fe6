// Package intent classifies raw chat text into a closed set of command
// intents. Classification is pure: no I/O, total over all inputs.
package intent

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Intent is a closed variant over every command the relay understands.
// The dispatcher switches over the concrete types exhaustively, so a new
// command means a new type here and a new case there.
type Intent interface {
	isIntent()
}

// Home drives the home-automation bus with an ordered command sequence
// and acknowledges with a fixed reply.
type Home struct {
	Commands []string
	Ack      string
}

func (Home) isIntent() {}

// Expense records one spending entry in the external ledger.
type Expense struct {
	Amount   int
	Category Category
}

func (Expense) isIntent() {}

// Diagnostic invokes one of the fixed server-side diagnostic commands.
type Diagnostic struct {
	Command string
}

func (Diagnostic) isIntent() {}

// Fallback echoes text that matched no pattern.
type Fallback struct {
	Text string
}

func (Fallback) isIntent() {}

// Category is an expense category from the fixed six-value enumeration.
type Category string

const (
	Transportation Category = "transportation"
	Food           Category = "food"
	Game           Category = "game"
	Health         Category = "health"
	Miscellaneous  Category = "miscellaneous"
	Occasion       Category = "occasion"
)

var categoryByCode = map[string]Category{
	"t": Transportation,
	"f": Food,
	"g": Game,
	"h": Health,
	"m": Miscellaneous,
	"o": Occasion,
}

// literalCommand maps fixed aliases (command words and sticker tokens)
// to one home-bus intent.
type literalCommand struct {
	aliases  []string
	commands []string
	ack      string
}

// Literal aliases are checked before the generalized patterns below, so
// the table order and the first-match rule together define priority.
// The bedtime entry is reachable only through its sticker token.
var literalCommands = []literalCommand{
	{
		aliases:  []string{"ac on", "sticker:2:27"},
		commands: []string{"ac on"},
		ack:      "ok, turning air-con on",
	},
	{
		aliases:  []string{"ac off", "sticker:2:29"},
		commands: []string{"ac off"},
		ack:      "ok, turning air-con off",
	},
	{
		aliases:  []string{"power on", "plugs on"},
		commands: []string{"plugs on"},
		ack:      "ok, turning smart plugs on",
	},
	{
		aliases:  []string{"power off", "plugs off"},
		commands: []string{"plugs off"},
		ack:      "ok, turning smart plugs off",
	},
	{
		aliases:  []string{"home", "arriving", "sticker:2:503"},
		commands: []string{"plugs on", "lights normal", "ac on"},
		ack:      "preparing home",
	},
	{
		aliases:  []string{"leaving", "sticker:2:502"},
		commands: []string{"plugs off", "lights off", "ac off"},
		ack:      "bye",
	},
	{
		aliases:  []string{"lights", "sticker:4:275"},
		commands: []string{"lights normal"},
		ack:      "ok, lights normal",
	},
	{
		aliases:  []string{"sticker:11539:52114128"},
		commands: []string{"lights bedtime"},
		ack:      "ok, good night",
	},
}

var (
	lightsPattern  = regexp.MustCompile(`^lights (\w+)$`)
	expensePattern = regexp.MustCompile(`(?i)^([\d.]+)([tfghmo])$`)
)

// StickerToken folds a sticker into the textual pattern space, so sticker
// aliases and command words share one classifier.
func StickerToken(packageID, stickerID string) string {
	return "sticker:" + packageID + ":" + stickerID
}

// Classify maps message text to an Intent, first match wins. Unmatched
// text yields Fallback carrying the original message.
func Classify(text string) Intent {
	for _, literal := range literalCommands {
		for _, alias := range literal.aliases {
			if text == alias {
				return Home{Commands: literal.commands, Ack: literal.ack}
			}
		}
	}

	if m := lightsPattern.FindStringSubmatch(text); m != nil {
		mode := m[1]
		return Home{Commands: []string{"lights " + mode}, Ack: "ok, lights " + mode}
	}

	if m := expensePattern.FindStringSubmatch(text); m != nil {
		amount, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return Expense{
				// Amounts are recorded at whole precision.
				Amount:   int(math.Round(amount)),
				Category: categoryByCode[strings.ToLower(m[2])],
			}
		}
	}

	if rest, ok := strings.CutPrefix(text, ">"); ok {
		return Diagnostic{Command: strings.TrimSpace(rest)}
	}

	return Fallback{Text: text}
}

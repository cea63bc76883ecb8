// Package input translates drag and click gestures into typed placement
// commands and runs them against a placement target.
package input

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/panel-configurator/backend/internal/models"
	"github.com/panel-configurator/backend/internal/rules"
)

// ErrInvalidCommand is returned for malformed or unknown command payloads.
var ErrInvalidCommand = errors.New("invalid input command")

// MaxTextLength is the longest cell label, in characters, that fits under an
// icon.
const MaxTextLength = 64

// Kind tags a Command variant on the wire.
type Kind string

const (
	KindPlaceNew     Kind = "place_new"
	KindMovePlaced   Kind = "move_placed"
	KindRemovePlaced Kind = "remove_placed"
	KindEditText     Kind = "edit_text"
)

// Command is one of PlaceNew, MovePlaced, RemovePlaced or EditText.
type Command interface {
	Kind() Kind
}

// PlaceNew drops a catalog icon onto a cell.
type PlaceNew struct {
	IconID string `json:"iconId"`
	Cell   int    `json:"cell"`
}

// MovePlaced moves an already placed icon, exchanging with the destination.
type MovePlaced struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// RemovePlaced clears the icon of a cell.
type RemovePlaced struct {
	Cell int `json:"cell"`
}

// EditText sets the label of a cell.
type EditText struct {
	Cell int    `json:"cell"`
	Text string `json:"text"`
}

func (PlaceNew) Kind() Kind     { return KindPlaceNew }
func (MovePlaced) Kind() Kind   { return KindMovePlaced }
func (RemovePlaced) Kind() Kind { return KindRemovePlaced }
func (EditText) Kind() Kind     { return KindEditText }

// Target is the placement surface commands run against.
type Target interface {
	Place(cell int, icon models.Icon) rules.Verdict
	Move(from, to int) rules.Verdict
	Remove(cell int) bool
	SetText(cell int, text string) rules.Verdict
}

// Resolver maps icon ids to catalog icons.
type Resolver interface {
	Lookup(id string) (models.Icon, error)
}

// Outcome reports what a dispatched command did.
type Outcome struct {
	Kind    Kind          `json:"kind"`
	Verdict rules.Verdict `json:"verdict"`
	Changed bool          `json:"changed"`
}

// Dispatch runs cmd against target. Rule rejections are reported in the
// outcome; an error means the command itself could not be interpreted, such
// as an icon id missing from the catalog.
func Dispatch(target Target, resolver Resolver, cmd Command) (Outcome, error) {
	switch c := cmd.(type) {
	case PlaceNew:
		icon, err := resolver.Lookup(c.IconID)
		if err != nil {
			return Outcome{}, err
		}
		v := target.Place(c.Cell, icon)
		return Outcome{Kind: c.Kind(), Verdict: v, Changed: v.OK}, nil
	case MovePlaced:
		v := target.Move(c.From, c.To)
		return Outcome{Kind: c.Kind(), Verdict: v, Changed: v.OK && c.From != c.To}, nil
	case RemovePlaced:
		removed := target.Remove(c.Cell)
		return Outcome{Kind: c.Kind(), Verdict: rules.Allow, Changed: removed}, nil
	case EditText:
		if utf8.RuneCountInString(c.Text) > MaxTextLength {
			return Outcome{}, fmt.Errorf("%w: text longer than %d characters", ErrInvalidCommand, MaxTextLength)
		}
		v := target.SetText(c.Cell, c.Text)
		return Outcome{Kind: c.Kind(), Verdict: v, Changed: v.OK}, nil
	case nil:
		return Outcome{}, fmt.Errorf("%w: nil command", ErrInvalidCommand)
	default:
		return Outcome{}, fmt.Errorf("%w: unsupported command %T", ErrInvalidCommand, cmd)
	}
}

// Decode parses the payload of a command message of the given kind.
func Decode(kind Kind, data json.RawMessage) (Command, error) {
	var (
		cmd Command
		err error
	)
	switch kind {
	case KindPlaceNew:
		var c PlaceNew
		err = json.Unmarshal(data, &c)
		if err == nil && c.IconID == "" {
			err = errors.New("iconId is required")
		}
		cmd = c
	case KindMovePlaced:
		var c MovePlaced
		err = json.Unmarshal(data, &c)
		cmd = c
	case KindRemovePlaced:
		var c RemovePlaced
		err = json.Unmarshal(data, &c)
		cmd = c
	case KindEditText:
		var c EditText
		err = json.Unmarshal(data, &c)
		cmd = c
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidCommand, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCommand, kind, err)
	}
	return cmd, nil
}

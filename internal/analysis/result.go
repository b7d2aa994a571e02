package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	nonstandard "github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/tidwall/gjson"

	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

type Status string

const (
	StatusOK       Status = "ok"
	StatusRejected Status = "rejected"
)

// Accepted is the analysis of text that was classified as a journal entry.
type Accepted struct {
	Mood        string `json:"mood" validate:"required,notblank"`
	StressLevel int    `json:"stress_level" validate:"gte=0,lte=10"`
	Topic       string `json:"topic" validate:"required,notblank"`
	Summary     string `json:"summary" validate:"required,notblank"`
	Advice      string `json:"advice" validate:"required,notblank"`
}

// Rejected explains why text was not treated as a journal entry.
type Rejected struct {
	Reason string `json:"reason" validate:"required,notblank"`
}

// Result is a tagged union: exactly one of Accepted or Rejected is set.
type Result struct {
	Status   Status
	Accepted *Accepted
	Rejected *Rejected
}

func NewAccepted(a Accepted) Result {
	return Result{Status: StatusOK, Accepted: &a}
}

func NewRejected(reason string) Result {
	return Result{Status: StatusRejected, Rejected: &Rejected{Reason: reason}}
}

// MarshalJSON flattens the variant next to its status tag.
func (r Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.Status == StatusOK && r.Accepted != nil:
		return json.Marshal(struct {
			Status Status `json:"status"`
			Accepted
		}{Status: r.Status, Accepted: *r.Accepted})
	case r.Status == StatusRejected && r.Rejected != nil:
		return json.Marshal(struct {
			Status Status `json:"status"`
			Rejected
		}{Status: r.Status, Rejected: *r.Rejected})
	default:
		return nil, fmt.Errorf("analysis result has no variant for status %q", r.Status)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", nonstandard.NotBlank)
	return v
}

// ValidateAccepted checks the field constraints of an accepted analysis.
func ValidateAccepted(a Accepted) error {
	return validate.Struct(a)
}

// The wire Status must repeat the peeked discriminator. A duplicated key
// resolves differently in gjson (first) and encoding/json (last).
type acceptedWire struct {
	Status      Status   `json:"status" validate:"eq=ok"`
	Mood        string   `json:"mood" validate:"required,notblank"`
	StressLevel *float64 `json:"stress_level" validate:"required,gte=0,lte=10"`
	Topic       string   `json:"topic" validate:"required,notblank"`
	Summary     string   `json:"summary" validate:"required,notblank"`
	Advice      string   `json:"advice" validate:"required,notblank"`
}

type rejectedWire struct {
	Status Status `json:"status" validate:"eq=rejected"`
	Reason string `json:"reason" validate:"required,notblank"`
}

// DecodeResult strictly decodes a model completion. Anything that is not
// exactly one well-formed variant is an upstream format error.
func DecodeResult(raw []byte) (Result, error) {
	if !gjson.ValidBytes(raw) {
		return Result{}, formatError("completion is not valid JSON", nil)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Result{}, formatError("completion is not a JSON object", nil)
	}
	tag := root.Get("status")
	if tag.Type != gjson.String {
		return Result{}, formatError("status discriminator missing", nil)
	}

	switch Status(tag.String()) {
	case StatusOK:
		var wire acceptedWire
		if err := decodeStrict(raw, &wire); err != nil {
			return Result{}, formatError("accepted analysis did not decode", err)
		}
		if err := validate.Struct(wire); err != nil {
			return Result{}, formatError("accepted analysis failed validation", err)
		}
		level := *wire.StressLevel
		if level != math.Trunc(level) {
			return Result{}, formatError("stress_level must be a whole number", nil)
		}
		return NewAccepted(Accepted{
			Mood:        strings.TrimSpace(wire.Mood),
			StressLevel: int(level),
			Topic:       strings.TrimSpace(wire.Topic),
			Summary:     strings.TrimSpace(wire.Summary),
			Advice:      strings.TrimSpace(wire.Advice),
		}), nil
	case StatusRejected:
		var wire rejectedWire
		if err := decodeStrict(raw, &wire); err != nil {
			return Result{}, formatError("rejection did not decode", err)
		}
		if err := validate.Struct(wire); err != nil {
			return Result{}, formatError("rejection failed validation", err)
		}
		return NewRejected(strings.TrimSpace(wire.Reason)), nil
	default:
		return Result{}, formatError("unknown status discriminator", nil).
			WithDetails(map[string]any{"status": tag.String()})
	}
}

func decodeStrict(raw []byte, dest any) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func formatError(msg string, cause error) *pkgerrors.Error {
	if cause == nil {
		return pkgerrors.New(pkgerrors.CodeUpstreamFormat, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstreamFormat, cause, msg)
}

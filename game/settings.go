package game

import (
	"bytes"
	"encoding/json"
	"strings"

	"attuned-server/content"
)

// PlayerOrderMode controls primary-player rotation.
type PlayerOrderMode string

const (
	OrderSequential PlayerOrderMode = "SEQUENTIAL"
	OrderRandom     PlayerOrderMode = "RANDOM"
)

// SelectionMode controls whether a turn carries one pre-picked card or
// a truth/dare pair the player chooses from.
type SelectionMode string

const (
	SelectionRandom SelectionMode = "RANDOM"
	SelectionManual SelectionMode = "MANUAL"
)

// FlexBool unmarshals a boolean that clients sometimes send as the
// string "true"/"false". Naive truthiness on the raw value would treat
// the string "false" as true and silently break dare exclusion.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = FlexBool(!strings.EqualFold(s, "false") && s != "0" && s != "")
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = FlexBool(v)
	return nil
}

// RawSettings is the wire shape of session settings before
// normalization.
type RawSettings struct {
	PlayerOrderMode string    `json:"player_order_mode"`
	SelectionMode   string    `json:"selection_mode"`
	IncludeDare     *FlexBool `json:"include_dare"`
	IntimacyLevel   int       `json:"intimacy_level"`
}

// Settings is the normalized session configuration.
type Settings struct {
	PlayerOrderMode PlayerOrderMode `json:"player_order_mode"`
	SelectionMode   SelectionMode   `json:"selection_mode"`
	IncludeDare     bool            `json:"include_dare"`
	IntimacyLevel   int             `json:"intimacy_level"`
}

// Normalize canonicalizes raw settings: mode enums are uppercased with
// safe defaults, include_dare defaults to true, intimacy level is
// clamped to 1-5.
func (r RawSettings) Normalize() Settings {
	s := Settings{
		PlayerOrderMode: OrderSequential,
		SelectionMode:   SelectionRandom,
		IncludeDare:     true,
		IntimacyLevel:   3,
	}

	switch PlayerOrderMode(strings.ToUpper(r.PlayerOrderMode)) {
	case OrderRandom:
		s.PlayerOrderMode = OrderRandom
	case OrderSequential, "":
		s.PlayerOrderMode = OrderSequential
	}

	switch SelectionMode(strings.ToUpper(r.SelectionMode)) {
	case SelectionManual:
		s.SelectionMode = SelectionManual
	case SelectionRandom, "":
		s.SelectionMode = SelectionRandom
	}

	if r.IncludeDare != nil {
		s.IncludeDare = bool(*r.IncludeDare)
	}

	if r.IntimacyLevel != 0 {
		s.IntimacyLevel = r.IntimacyLevel
		if s.IntimacyLevel < 1 {
			s.IntimacyLevel = 1
		}
		if s.IntimacyLevel > 5 {
			s.IntimacyLevel = 5
		}
	}
	return s
}

// Rating maps the intimacy level onto the session content rating.
func (s Settings) Rating() content.Rating {
	return content.RatingForIntimacy(s.IntimacyLevel)
}

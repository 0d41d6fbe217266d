package domain

import (
	"fmt"
	"strings"
)

// Option is one of the four answer labels every question carries.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// Options lists the answer alphabet in display order.
var Options = [4]Option{OptionA, OptionB, OptionC, OptionD}

// ParseOption normalizes and validates a client supplied option label.
func ParseOption(raw string) (Option, error) {
	opt := Option(strings.ToUpper(strings.TrimSpace(raw)))
	if !opt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOption, raw)
	}
	return opt, nil
}

// Valid reports whether o belongs to the answer alphabet.
func (o Option) Valid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Locale identifies the content language of a session.
type Locale string

const (
	LocaleEN Locale = "en"
	LocalePT Locale = "pt"
	LocaleES Locale = "es"
	LocaleFR Locale = "fr"
)

// SupportedLocales is the fixed set of locales the engine serves.
var SupportedLocales = []Locale{LocaleEN, LocalePT, LocaleES, LocaleFR}

// ParseLocale validates a locale code.
func ParseLocale(raw string) (Locale, error) {
	loc := Locale(strings.ToLower(strings.TrimSpace(raw)))
	for _, supported := range SupportedLocales {
		if loc == supported {
			return loc, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, raw)
}

const (
	MinLevel = 1
	MaxLevel = 5

	MinPhase = 1
	MaxPhase = 50
)

// ValidatePhase checks that n is a playable phase number.
func ValidatePhase(n int) error {
	if n < MinPhase || n > MaxPhase {
		return fmt.Errorf("%w: %d", ErrInvalidPhase, n)
	}
	return nil
}

// Question is a multiple choice trivia question. Questions are owned by the content
// repository; sessions keep an immutable copy.
type Question struct {
	ID       string    `json:"id"`
	Topic    string    `json:"topic"`
	Level    int       `json:"level"`
	Locale   Locale    `json:"locale"`
	Prompt   string    `json:"prompt"`
	Choices  [4]string `json:"choices"`
	Correct  Option    `json:"correct"`
	MediaRef string    `json:"mediaRef,omitempty"`
}

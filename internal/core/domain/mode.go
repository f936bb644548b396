package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Mode selects how a wrapped call interacts with the cache.
type Mode string

const (
	// ModeRecord always performs the real call and persists its result.
	ModeRecord Mode = "record"
	// ModeStrict never performs the real call; a miss is fatal.
	ModeStrict Mode = "strict"
	// ModeLazy prefers the cache and falls back to the real call on any miss.
	ModeLazy Mode = "lazy"
)

// ParseMode parses a mode name. The empty string yields ModeLazy.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRecord:
		return ModeRecord, nil
	case ModeStrict:
		return ModeStrict, nil
	case ModeLazy, "":
		return ModeLazy, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidMode, "failed to parse mode"), "mode", s)
	}
}

func (m Mode) String() string {
	return string(m)
}

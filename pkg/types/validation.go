package types

import (
	"regexp"
	"strings"
)

// Compiled once at package initialization; room codes are validated on every
// join attempt and every poll-driven refresh.
var roomCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6,8}$`)

// NormalizeRoomCode uppercases the input and strips every character that is
// not A-Z or 0-9. Room codes are case-insensitive on entry but canonical form
// is uppercase.
func NormalizeRoomCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToUpper(strings.TrimSpace(code)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidRoomCode checks a code already in canonical form.
func IsValidRoomCode(code string) bool {
	return roomCodeRegex.MatchString(code)
}

// ValidateRoomConfig checks room-creation options before they are sent to the
// server. Practice rooms ignore any provided time limit; tournament rooms
// require one of the enumerated limits.
func (c *RoomConfig) Validate() error {
	if strings.TrimSpace(c.RoomName) == "" {
		return ErrEmptyRoomName
	}
	if len(c.RoomName) > 50 {
		return ErrRoomNameTooLong
	}
	switch c.Mode {
	case RoomModePractice, RoomModeTournament:
	case "":
		c.Mode = RoomModePractice
	default:
		return ErrInvalidRoomMode
	}
	if c.Mode == RoomModeTournament {
		if c.TimeLimitMinutes == nil {
			return ErrMissingTimeLimit
		}
		if !IsValidTournamentTimeLimit(*c.TimeLimitMinutes) {
			return ErrInvalidTimeLimit
		}
	} else {
		// Practice rooms are untimed regardless of what the form sent.
		c.TimeLimitMinutes = nil
	}
	return nil
}

// IsValidTournamentTimeLimit checks minutes against the fixed set the server
// accepts.
func IsValidTournamentTimeLimit(minutes int) bool {
	for _, allowed := range TournamentTimeLimits {
		if minutes == allowed {
			return true
		}
	}
	return false
}

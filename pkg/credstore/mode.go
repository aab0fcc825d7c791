package credstore

import "fmt"

// Mode selects where an item lives.
type Mode int

const (
	// ModeVolatile keeps items in process memory only.
	ModeVolatile Mode = iota
	// ModeFixed keeps items in the durable backend as plain text.
	ModeFixed
	// ModeFixedEncrypted keeps items in the durable backend sealed under the local passcode.
	ModeFixedEncrypted
)

func (m Mode) String() string {
	switch m {
	case ModeVolatile:
		return "volatile"
	case ModeFixed:
		return "fixed"
	case ModeFixedEncrypted:
		return "fixed-encrypted"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Durable reports whether items in this mode survive a restart.
func (m Mode) Durable() bool {
	return m == ModeFixed || m == ModeFixedEncrypted
}

// ParseMode is the inverse of Mode.String. "ephemeral" is accepted for ModeVolatile.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "volatile", "ephemeral":
		return ModeVolatile, nil
	case "fixed":
		return ModeFixed, nil
	case "fixed-encrypted":
		return ModeFixedEncrypted, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) valid() bool {
	return m >= ModeVolatile && m <= ModeFixedEncrypted
}

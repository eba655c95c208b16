package htlc

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/iov-one/htlc/errors"
)

// UnixTime represents a point in time as POSIX time, seconds precision.
//
// The escrow expiration is an unsigned number of seconds, so UnixTime is
// unsigned as well. Points in time before the epoch cannot be represented
// and AsUnixTime clamps them to zero.
type UnixTime uint64

// Time returns a time.Time structure that represents the same moment in time.
func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// IsZero returns true if this time represents a zero value.
func (t UnixTime) IsZero() bool {
	return t == 0
}

// Add modifies this UNIX time by given duration. This is compatible with
// time.Time.Add method. The result never goes below zero.
func (t UnixTime) Add(d time.Duration) UnixTime {
	n := int64(t) + int64(d/time.Second)
	if n < 0 {
		return 0
	}
	return UnixTime(n)
}

// AsUnixTime converts given Time structure into its UNIX time representation.
func AsUnixTime(t time.Time) UnixTime {
	if u := t.Unix(); u > 0 {
		return UnixTime(u)
	}
	return 0
}

// MarshalJSON writes the unix seconds as a JSON number.
func (t UnixTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(t), 10)), nil
}

// UnmarshalJSON supports unmarshaling both as time.Time and from a number.
// Usually a number is used as a representation of this time in JSON but it is
// convinient to use a string format in configurations (ie genesis file).
func (t *UnixTime) UnmarshalJSON(raw []byte) error {
	var unix int64
	if err := json.Unmarshal(raw, &unix); err == nil {
		if unix < 0 {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = UnixTime(unix)
		return nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if unix, err := strconv.ParseUint(str, 10, 64); err == nil {
			*t = UnixTime(unix)
			return nil
		}
	}

	var stdtime time.Time
	if err := json.Unmarshal(raw, &stdtime); err == nil {
		if stdtime.Unix() < 0 {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = UnixTime(stdtime.Unix())
		return nil
	}

	return errors.Wrap(errors.ErrInput, "invalid time format")
}

// String returns the usual string representation of this time as the time.Time
// structure would.
func (t UnixTime) String() string {
	return t.Time().String()
}

// IsExpired returns true if given expiration time is not in the future as
// compared to now. Expiration is inclusive, meaning that if now is equal to
// the expiration time than this function returns true.
func IsExpired(now UnixTime, expiration UnixTime) bool {
	return expiration <= now
}

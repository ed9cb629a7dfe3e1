package users

import (
	"fmt"
	"strings"
	"time"
)

// Registration carries the fields accepted at sign-up.
type Registration struct {
	Email     string
	Password  string
	Name      string
	Birthday  *time.Time
	Marketing bool
	Push      bool
	Notice    bool
}

// ProfileUpdate is a partial profile change. A nil field is left untouched.
// Birthday, Token and FCM are cleared by an empty string; Email, Name and
// Password must not be empty when present.
type ProfileUpdate struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Name      *string `json:"name"`
	Birthday  *string `json:"birthday"`
	Marketing *bool   `json:"marketing"`
	Push      *bool   `json:"push"`
	Notice    *bool   `json:"notice"`
	Token     *string `json:"token"`
	FCM       *string `json:"fcm"`
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Email == nil && p.Password == nil && p.Name == nil && p.Birthday == nil &&
		p.Marketing == nil && p.Push == nil && p.Notice == nil && p.Token == nil && p.FCM == nil
}

// columns converts the update into column assignments. hash is applied to a
// new password before it is stored.
func (p ProfileUpdate) columns(hash func(string) (string, error)) (map[string]interface{}, error) {
	cols := map[string]interface{}{}

	required := []struct {
		col string
		val *string
	}{{"email", p.Email}, {"name", p.Name}}
	for _, f := range required {
		if f.val == nil {
			continue
		}
		v := strings.TrimSpace(*f.val)
		if v == "" {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidInput, f.col)
		}
		cols[f.col] = v
	}

	if p.Password != nil {
		if *p.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", ErrInvalidInput)
		}
		h, err := hash(*p.Password)
		if err != nil {
			return nil, err
		}
		cols["password"] = h
	}

	if p.Birthday != nil {
		if *p.Birthday == "" {
			cols["birthday"] = nil
		} else {
			t, err := ParseDate(*p.Birthday)
			if err != nil {
				return nil, fmt.Errorf("%w: birthday: %v", ErrInvalidInput, err)
			}
			cols["birthday"] = t
		}
	}

	nullable := []struct {
		col string
		val *string
	}{{"token", p.Token}, {"fcm", p.FCM}}
	for _, f := range nullable {
		if f.val == nil {
			continue
		}
		if *f.val == "" {
			cols[f.col] = nil
		} else {
			cols[f.col] = *f.val
		}
	}

	flags := []struct {
		col string
		val *bool
	}{{"marketing", p.Marketing}, {"push", p.Push}, {"notice", p.Notice}}
	for _, f := range flags {
		if f.val != nil {
			cols[f.col] = *f.val
		}
	}
	return cols, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return t, nil
}

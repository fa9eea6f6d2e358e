package registration

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/mcoot/xrkiosk/internal/model"
)

// DateLayout is the wire format of a date of birth
const DateLayout = "2006-01-02"

var phonePattern = regexp.MustCompile(`^[\d\s\-()+]*\d[\d\s\-()+]*$`)

// Details are the identity fields collected on the user-details step
type Details struct {
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	DateOfBirth string       `json:"date_of_birth"`
	Gender      model.Gender `json:"gender"`
}

// Normalize trims surrounding whitespace from every text field
func (d Details) Normalize() Details {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.DateOfBirth = strings.TrimSpace(d.DateOfBirth)
	return d
}

// Validate checks the normalized details. A date of birth after today is rejected.
func (d Details) Validate(today time.Time) error {
	fields := map[string]string{}

	if d.Name == "" {
		fields["name"] = "name is required"
	}

	if d.Email == "" {
		fields["email"] = "email is required"
	} else if !validEmail(d.Email) {
		fields["email"] = "invalid email address"
	}

	if d.Phone == "" {
		fields["phone"] = "phone number is required"
	} else if !phonePattern.MatchString(d.Phone) {
		fields["phone"] = "invalid characters in phone number"
	}

	if d.DateOfBirth == "" {
		fields["date_of_birth"] = "date of birth is required"
	} else if dob, err := time.Parse(DateLayout, d.DateOfBirth); err != nil {
		fields["date_of_birth"] = "date of birth must be YYYY-MM-DD"
	} else if dob.After(today) {
		fields["date_of_birth"] = "date of birth is in the future"
	}

	if !d.Gender.Valid() {
		fields["gender"] = "please select a gender"
	}

	if len(fields) > 0 {
		return &model.ValidationError{Fields: fields}
	}
	return nil
}

// validEmail accepts a bare addr-spec with a dotted domain
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

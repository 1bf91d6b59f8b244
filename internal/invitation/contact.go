package invitation

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ummahconnect/community-backend/internal/apperr"
)

var validate = validator.New()

// Contact is where an invitation is delivered. It is one of EmailContact,
// PhoneContact or BothContact.
type Contact interface {
	Email() string
	Phone() string
	isContact()
}

type EmailContact struct{ Address string }

type PhoneContact struct{ Number string }

type BothContact struct {
	Address string
	Number  string
}

func (c EmailContact) Email() string { return c.Address }
func (c EmailContact) Phone() string { return "" }
func (EmailContact) isContact()      {}

func (c PhoneContact) Email() string { return "" }
func (c PhoneContact) Phone() string { return c.Number }
func (PhoneContact) isContact()      {}

func (c BothContact) Email() string { return c.Address }
func (c BothContact) Phone() string { return c.Number }
func (BothContact) isContact()      {}

// NewContact builds a Contact from optional email and phone values. Emails
// are lowercased; phones must be in E.164 form (+countrycode...).
func NewContact(email, phone string) (Contact, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)

	if email == "" && phone == "" {
		return nil, apperr.ErrInvalidContact
	}
	if email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return nil, apperr.WithMessage(apperr.ErrInvalidContact, "invalid email address")
		}
	}
	if phone != "" {
		if err := validate.Var(phone, "e164"); err != nil {
			return nil, apperr.WithMessage(apperr.ErrInvalidContact, "phone number must be in E.164 format")
		}
	}

	switch {
	case email != "" && phone != "":
		return BothContact{Address: email, Number: phone}, nil
	case email != "":
		return EmailContact{Address: email}, nil
	default:
		return PhoneContact{Number: phone}, nil
	}
}

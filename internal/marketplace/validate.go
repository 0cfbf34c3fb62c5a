package marketplace

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseID validates a job or bid identifier and returns its canonical form.
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", ErrInvalidID
	}
	return u.String(), nil
}

// NewID returns a fresh random identifier.
func NewID() string { return uuid.NewString() }

// ValidateJob checks the fields a stored job must carry.
func ValidateJob(j *Job) error {
	j.Title = strings.TrimSpace(j.Title)
	j.Category = strings.TrimSpace(j.Category)
	j.Buyer.Email = strings.TrimSpace(j.Buyer.Email)
	if err := check(j); err != nil {
		return err
	}
	if j.Deadline.IsZero() {
		return &ValidationError{Msg: "deadline is required"}
	}
	return nil
}

// ValidateBid checks the fields a new bid must carry.
func ValidateBid(b *Bid) error {
	b.Email = strings.TrimSpace(b.Email)
	b.JobID = strings.TrimSpace(b.JobID)
	b.Category = strings.TrimSpace(b.Category)
	return check(b)
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Msg: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return &ValidationError{Msg: strings.Join(msgs, "; ")}
}

// NormalizeAttributes returns raw as a JSON object, defaulting to "{}".
func NormalizeAttributes(raw []byte) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []byte("{}"), nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, &ValidationError{Msg: "attributes must be a JSON object"}
	}
	return []byte(trimmed), nil
}

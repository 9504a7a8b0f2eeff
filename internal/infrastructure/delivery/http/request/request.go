package request

import (
	"github.com/go-playground/validator/v10"

	"tokvault/internal/errs"
	"tokvault/pkg/urls"
)

var validate = validator.New()

// Start is the body of POST /v1/jobs: a username to discover, or explicit
// post URLs, plus an optional link cap.
type Start struct {
	Username string   `json:"username" validate:"omitempty,max=64"`
	URLs     []string `json:"urls"     validate:"omitempty,dive,url"`
	Count    int      `json:"count"    validate:"gte=0"`
}

func (s *Start) Validate() error {
	if s.Count < 0 {
		return errs.ErrInvalidCount
	}

	if err := validate.Struct(s); err != nil {
		return err
	}

	if s.Username == "" && len(s.URLs) == 0 {
		return errs.ErrMissingTarget
	}

	for _, u := range s.URLs {
		if !urls.IsURLValid(u) {
			return errs.ErrInvalidURL
		}
	}

	return nil
}

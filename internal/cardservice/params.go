package cardservice

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/models"
)

// AddCardParams is the input for creating a card. Fact cards need Question
// and Answer; concept cards need Concept. Fields of the other kind must be
// empty.
type AddCardParams struct {
	Kind     models.Kind
	Question string
	Answer   string
	Concept  string
	Tags     []string
}

// Validate checks kind-specific field requirements.
func (p AddCardParams) Validate() error {
	kindErr := validation.Errors{
		"kind": validation.Validate(string(p.Kind), validation.Required,
			validation.In(string(models.KindFact), string(models.KindConcept))),
	}.Filter()
	if kindErr != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidContent, kindErr)
	}

	switch p.Kind {
	case models.KindFact:
		if p.Concept != "" {
			return fmt.Errorf("%w: concept text not applicable to fact cards", apperr.ErrInvalidContent)
		}
		if p.Question == "" || p.Answer == "" {
			return fmt.Errorf("%w: fact cards require both question and answer", apperr.ErrInvalidContent)
		}
	case models.KindConcept:
		if p.Question != "" || p.Answer != "" {
			return fmt.Errorf("%w: question/answer not applicable to concept cards", apperr.ErrInvalidContent)
		}
		if p.Concept == "" {
			return fmt.Errorf("%w: concept cards require a concept description", apperr.ErrInvalidContent)
		}
	}
	return nil
}

// EditCardParams is the input for editing card content. Nil fields are left
// unchanged. Supplying a field that does not match the card's kind fails with
// apperr.ErrInvalidContent.
type EditCardParams struct {
	Question *string
	Answer   *string
	Concept  *string
	Tags     *[]string
}

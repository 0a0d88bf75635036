package http

import (
	"errors"
	"sync"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the "health" rule to gin's binding validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("health", func(fl validator.FieldLevel) bool {
				return domain.Health(fl.Field().String()).Known()
			})
		}
	})
}

// bindError turns a binding failure into the message the form shows.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid body"
	}
	fe := verrs[0]
	switch {
	case fe.Tag() == "health":
		return domain.ErrInvalidHealth.Error()
	case fe.Field() == "PlannedPercent" || fe.Field() == "ActualPercent":
		return domain.ErrInvalidPercent.Error()
	case fe.Field() == "ProjectID":
		return domain.ErrProjectRequired.Error()
	default:
		return "invalid " + fe.Field()
	}
}

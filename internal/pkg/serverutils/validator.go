package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and converts failures into a
// fiber 422 error with one readable line per failed field.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			lines := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				lines = append(lines, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
			return fiber.NewError(fiber.StatusUnprocessableEntity, strings.Join(lines, "; "))
		}
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

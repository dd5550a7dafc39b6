// Package validator provides composable validation rules.
//
// A Rule pairs a check with the error reported when the check fails. Apply
// evaluates rules in order and returns every failure at once as
// ValidationErrors:
//
//	err := validator.Apply(
//		validator.RequiredString("email", form.Email),
//		validator.Email("email", form.Email),
//		validator.MaxLenString("message", form.Message, 2000),
//	)
//	if ve := validator.ExtractValidationErrors(err); ve != nil {
//		msgs := ve.Get("email")
//	}
//
// Each error carries a translation key and its parameters; both are part of
// the JSON form so API clients can localize messages themselves.
package validator

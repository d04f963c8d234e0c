// Package validation evaluates declarative field rule sets against raw
// request input. All violations are collected, not fail-fast, and come
// back as a field -> messages map suitable for rendering on the form
// the actor came from.
package validation

// Input holds the raw field values of a request. A key that is absent
// was not supplied at all, which matters for update rule sets where
// absence means "leave unchanged".
type Input map[string]string

// Errors maps a field name to the messages for every rule it violated.
type Errors map[string][]string

// Add records a violation for a field. Handlers also use it to fold in
// store-level constraint violations (e.g. a duplicate email that raced
// past the pre-check).
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Any reports whether at least one violation was recorded.
func (e Errors) Any() bool {
	return len(e) > 0
}

// Rule checks one field of the input. It returns a human-readable
// message for a violation, or an error when the check itself could not
// run (the uniqueness lookup hitting the store).
type Rule func(field string, in Input) (string, error)

// Field declares the rules for a single input field. Optional fields
// that are absent or empty are skipped entirely; required fields that
// are absent or empty fail with a required message and no further
// rules run for them.
type Field struct {
	Name     string
	Optional bool
	Rules    []Rule
}

// Validate evaluates every field of the schema against the input and
// collects all violations. The returned error is an infrastructure
// failure, not a validation outcome.
func Validate(in Input, fields []Field) (Errors, error) {
	errs := Errors{}

	for _, f := range fields {
		value, present := in[f.Name]
		if !present || value == "" {
			if !f.Optional {
				errs.Add(f.Name, requiredMessage(f.Name))
			}
			continue
		}

		for _, rule := range f.Rules {
			message, err := rule(f.Name, in)
			if err != nil {
				return nil, err
			}
			if message != "" {
				errs.Add(f.Name, message)
			}
		}
	}

	return errs, nil
}

package bundle

import "fmt"

// ValidationError represents a structural defect in a bundle document,
// with a field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a bundle's structure. Returns all errors (not
// fail-fast) so callers can report the complete picture.
//
// Validation is structural only: it checks that every mapping carries a
// usable directive, not that the mapping list is a correct dependency
// order (that is a documented precondition, enforced at rewrite time by
// the engine) and not that create-path mappings will have content (a
// NewOrExisting mapping may match an existing target and never need
// its reference item).
func (b *Bundle) Validate() []ValidationError {
	var errs []ValidationError

	seen := make(map[string]int, len(b.Mappings))
	for i, m := range b.Mappings {
		field := fmt.Sprintf("mappings[%d]", i)

		if m.Type == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: "entity type is required",
			})
		}
		if m.SrcID == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".srcId",
				Message: "source id is required",
			})
		}
		if !m.Action.Valid() {
			errs = append(errs, ValidationError{
				Field:   field + ".action",
				Message: fmt.Sprintf("unknown action %q", m.Action),
			})
		}
		if by := m.Properties.MapBy(); by != MapByID && by != MapByName {
			errs = append(errs, ValidationError{
				Field:   field + ".properties.MapBy",
				Message: fmt.Sprintf("unknown MapBy %q: must be %q or %q", by, MapByID, MapByName),
			})
		}
		if m.ActionTaken != "" || m.ErrorType != "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "mapping already carries a resolution outcome",
			})
		}

		if m.SrcID != "" {
			if prev, dup := seen[m.SrcID]; dup {
				errs = append(errs, ValidationError{
					Field:   field + ".srcId",
					Message: fmt.Sprintf("duplicate source id %q (first at mappings[%d])", m.SrcID, prev),
				})
			} else {
				seen[m.SrcID] = i
			}
		}
	}

	for i, item := range b.References {
		field := fmt.Sprintf("references[%d]", i)
		if item.ID == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: "reference id is required",
			})
		}
		if item.Type == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".type",
				Message: "reference type is required",
			})
		}
	}

	return errs
}

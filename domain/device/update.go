package device

import "strings"

// Assignment sets one field through a named placeholder
type Assignment struct {
	Field       string
	Placeholder string
	Value       interface{}
}

// Mutation is a sparse update description for a single stored record.
// Assignments keep the patch order.
type Mutation struct {
	Assignments []Assignment
}

// IsEmpty reports whether the mutation writes nothing
func (m Mutation) IsEmpty() bool {
	return len(m.Assignments) == 0
}

// Fields returns the assigned field names in order
func (m Mutation) Fields() []string {
	names := make([]string, len(m.Assignments))
	for i, a := range m.Assignments {
		names[i] = a.Field
	}
	return names
}

// Values maps each placeholder to its value
func (m Mutation) Values() map[string]interface{} {
	values := make(map[string]interface{}, len(m.Assignments))
	for _, a := range m.Assignments {
		values[a.Placeholder] = a.Value
	}
	return values
}

// Expression renders the assignments as "SET a = :a, b = :b"
func (m Mutation) Expression() string {
	if m.IsEmpty() {
		return ""
	}
	parts := make([]string, len(m.Assignments))
	for i, a := range m.Assignments {
		parts[i] = a.Field + " = " + a.Placeholder
	}
	return "SET " + strings.Join(parts, ", ")
}

// NewMutation turns a validated update into placeholder assignments
func NewMutation(u Update) Mutation {
	assignments := make([]Assignment, 0, len(u.Changes))
	for _, fv := range u.Changes {
		assignments = append(assignments, Assignment{
			Field:       fv.Name,
			Placeholder: ":" + fv.Name,
			Value:       fv.Value,
		})
	}
	return Mutation{Assignments: assignments}
}

// BuildUpdate validates a patch against the schema of the stored category
// and returns the mutation to apply. It does not touch the store.
func BuildUpdate(storedCategory string, patch RawFields) (Mutation, error) {
	update, err := Resolve(storedCategory).ValidatePatch(patch)
	if err != nil {
		return Mutation{}, err
	}
	return NewMutation(update), nil
}

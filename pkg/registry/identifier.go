package registry

import "regexp"

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Identifier is a table or column name that has been checked against the
// registry's allow-lists. Values can only be produced by this package, so a
// query builder taking Identifier never sees raw request input.
type Identifier struct {
	name string
}

func (i Identifier) String() string {
	return i.name
}

func (i Identifier) IsZero() bool {
	return i.name == ""
}

// Qualified returns "<table>.<column>"; a zero table returns the bare name.
func (i Identifier) Qualified(table Identifier) string {
	if table.IsZero() {
		return i.name
	}
	return table.name + "." + i.name
}

// Alias returns the "<table>_<column>" alias used for joined columns.
func (i Identifier) Alias(table Identifier) string {
	return table.name + "_" + i.name
}

func isValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

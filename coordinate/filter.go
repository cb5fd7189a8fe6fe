package coordinate

// Filter decides whether a coordinate is selected.
type Filter func(Coordinate) bool

// SameModule selects coordinates that belong to the same module as c,
// i.e. that share group, name and version.
func SameModule(c Coordinate) Filter {
	module := c.Module()
	return func(o Coordinate) bool {
		return o.Module() == module
	}
}

// Exactly selects coordinates that are identical to c in all attributes,
// including classifier and extension.
func Exactly(c Coordinate) Filter {
	return func(o Coordinate) bool {
		return o == c
	}
}

// All selects coordinates matched by every given filter.
func All(filters ...Filter) Filter {
	return func(o Coordinate) bool {
		for _, f := range filters {
			if !f(o) {
				return false
			}
		}
		return true
	}
}

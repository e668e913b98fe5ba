package instantiator

// Target is the benchmarked shape. Every strategy must hand back a fresh
// instance holding the default values.
type Target struct {
	A int
	B string
}

// NewTarget is the registered no-argument constructor of Target.
func NewTarget() *Target {
	return &Target{A: 0, B: ""}
}

// IsDefault reports whether t carries the default field values.
func (t *Target) IsDefault() bool {
	return t != nil && t.A == 0 && t.B == ""
}

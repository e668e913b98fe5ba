package linked

import "unsafe"

func NewTarget() unsafe.Pointer {
	return unsafe.Pointer(new(struct {
		A int
		B string
	}))
}

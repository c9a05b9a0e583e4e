package core

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

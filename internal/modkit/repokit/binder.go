package repokit

import "fmt"

// Binder binds a domain repo to a Queryer, a pool or one transaction
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc lets a plain constructor act as a Binder
type BindFunc[T any] func(Queryer) T

// Bind calls the underlying function
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds q and panics on a nil binder or Queryer
// name says which repo was being wired
func MustBind[T any](name string, b Binder[T], q Queryer) T {
	if b == nil {
		panic(fmt.Sprintf("%s: nil binder", name))
	}
	if q == nil {
		panic(fmt.Sprintf("%s: nil Queryer", name))
	}
	return b.Bind(q)
}

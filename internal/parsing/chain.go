package parsing

import "fmt"

// Decorator wraps a Service in another Service.
type Decorator func(Service) Service

// Chain applies decorators to base in order, so the last decorator is the
// outermost: Chain(b, WithCache(...), WithLogging(...)) is Logged(Cached(b)).
// Side effects of decorators that act after delegating therefore run from
// the first decorator to the last.
func Chain(base Service, decorators ...Decorator) Service {
	svc := base
	for _, d := range decorators {
		if d == nil {
			continue
		}
		svc = d(svc)
	}
	return svc
}

// Wrapper is implemented by every decorator.
type Wrapper interface {
	Unwrap() Service
}

// Innermost follows Unwrap until it reaches a non-decorator.
func Innermost(svc Service) Service {
	for {
		w, ok := svc.(Wrapper)
		if !ok {
			return svc
		}
		svc = w.Unwrap()
	}
}

// mustInner rejects a nil inner service at construction time.
func mustInner(kind string, inner Service) {
	if inner == nil {
		panic(fmt.Errorf("%w: %s decorator needs an inner service", ErrContractViolation, kind))
	}
}

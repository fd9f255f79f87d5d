// Package dispatch routes named operations to backend implementations based
// on the kinds of their tensor arguments.
//
// Backends install themselves by registering (operation, signature,
// implementation) entries. At call time the registry selects the single most
// specific matching signature. Ambiguity is rejected when an entry is
// registered, so resolution never depends on registration order.
package dispatch

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/born-ml/gtensor/internal/tensor"
)

// Impl is a backend implementation of one operation.
type Impl func(args []tensor.Tensor, p Params) (tensor.Tensor, error)

// Registration is one entry of the registry.
type Registration struct {
	Op        string
	Signature Signature
	Backend   string // Informational name of the installing backend.
	Impl      Impl
}

// Registry maps operation names to their registered implementations.
// It is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	ops *orderedmap.OrderedMap[string, []Registration]
}

// Default is the process-wide registry the dense and chunked backends
// install into at init time.
var Default = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: orderedmap.New[string, []Registration]()}
}

// maxCheckedVariadicArity bounds the arities enumerated when validating
// variadic signatures. Variadic tails repeat a single spec, so one extra
// repetition beyond the longest fixed prefix decides specificity.
const maxCheckedVariadicArity = 3

// Register adds reg to the registry. An entry with the same operation and
// the same per-position kind sets replaces the previous one. If the new entry
// would leave some argument kinds without a unique most specific match, the
// registry is left unchanged and ErrAmbiguousSignature is returned.
func (r *Registry) Register(reg Registration) error {
	if reg.Op == "" || reg.Impl == nil {
		return fmt.Errorf("register %q: operation name and implementation are required", reg.Op)
	}
	if len(reg.Signature.Specs) == 0 {
		return fmt.Errorf("register %s: empty signature", reg.Op)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, _ := r.ops.Get(reg.Op)
	next := make([]Registration, 0, len(existing)+1)
	replaced := false
	for _, e := range existing {
		if e.Signature.key() == reg.Signature.key() {
			next = append(next, reg)
			replaced = true
			continue
		}
		next = append(next, e)
	}
	if !replaced {
		next = append(next, reg)
	}

	if err := checkUnambiguous(reg.Op, next); err != nil {
		return err
	}
	r.ops.Set(reg.Op, next)

	slog.Debug("registered operation", "op", reg.Op, "signature", reg.Signature.String(),
		"backend", reg.Backend, "replaced", replaced)
	return nil
}

// MustRegister is like Register but panics on error. Backends use it from
// init, where a conflict is a programming error.
func (r *Registry) MustRegister(reg Registration) {
	if err := r.Register(reg); err != nil {
		panic(err)
	}
}

// Resolve returns the most specific registration of op matching the kinds of args.
func (r *Registry) Resolve(op string, args ...tensor.Tensor) (Registration, error) {
	kinds := make([]tensor.Kind, len(args))
	for i, a := range args {
		if a == nil {
			return Registration{}, fmt.Errorf("%w: %s: argument %d is nil", ErrUnsupportedType, op, i)
		}
		kinds[i] = a.Kind()
	}

	r.mu.RLock()
	entries, ok := r.ops.Get(op)
	r.mu.RUnlock()
	if !ok {
		return Registration{}, fmt.Errorf("%w: unknown operation %q", ErrUnsupportedType, op)
	}

	best, found, err := mostSpecific(op, entries, kinds)
	if err != nil {
		return Registration{}, err
	}
	if !found {
		return Registration{}, fmt.Errorf("%w: no implementation of %s for %s",
			ErrUnsupportedType, op, formatKinds(kinds))
	}
	return best, nil
}

// Call resolves op for args and invokes the selected implementation.
func (r *Registry) Call(op string, args []tensor.Tensor, p Params) (tensor.Tensor, error) {
	reg, err := r.Resolve(op, args...)
	if err != nil {
		return nil, err
	}
	return reg.Impl(args, p)
}

// Operations returns the registered operation names in first-registration order.
func (r *Registry) Operations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, r.ops.Len())
	for pair := r.ops.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Registrations returns the entries registered for op.
func (r *Registry) Registrations(op string) []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, _ := r.ops.Get(op)
	return append([]Registration(nil), entries...)
}

// mostSpecific selects among entries the one matching kinds whose specs are
// subsets of every other match. found is false when nothing matches.
func mostSpecific(op string, entries []Registration, kinds []tensor.Kind) (best Registration, found bool, err error) {
	var matches []Registration
	for _, e := range entries {
		if e.Signature.Matches(kinds) {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return Registration{}, false, nil
	}

	n := len(kinds)
	for _, cand := range matches {
		dominates := true
		for _, other := range matches {
			if other.Signature.key() == cand.Signature.key() {
				continue
			}
			if !cand.Signature.atLeastAsSpecific(other.Signature, n) || other.Signature.atLeastAsSpecific(cand.Signature, n) {
				dominates = false
				break
			}
		}
		if dominates {
			return cand, true, nil
		}
	}

	sigs := make([]string, len(matches))
	for i, m := range matches {
		sigs[i] = m.Signature.String()
	}
	return Registration{}, false, fmt.Errorf("%w: %s for %s matches %s with no unique most specific",
		ErrAmbiguousSignature, op, formatKinds(kinds), strings.Join(sigs, ", "))
}

// checkUnambiguous enumerates every kind tuple the entries can accept and
// verifies that each has a unique most specific match.
func checkUnambiguous(op string, entries []Registration) error {
	maxArity := 0
	for _, e := range entries {
		n := len(e.Signature.Specs)
		if e.Signature.Variadic {
			n = max(n+1, maxCheckedVariadicArity)
		}
		maxArity = max(maxArity, n)
	}

	all := tensor.Kinds()
	for n := 1; n <= maxArity; n++ {
		kinds := make([]tensor.Kind, n)
		var walk func(pos int) error
		walk = func(pos int) error {
			if pos == n {
				_, _, err := mostSpecific(op, entries, kinds)
				return err
			}
			for _, k := range all {
				kinds[pos] = k
				if err := walk(pos + 1); err != nil {
					return err
				}
			}
			return nil
		}
		if err := walk(0); err != nil {
			return err
		}
	}
	return nil
}

func formatKinds(kinds []tensor.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}

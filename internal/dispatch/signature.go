package dispatch

import (
	"math/bits"
	"strings"

	"github.com/born-ml/gtensor/internal/tensor"
)

// kindSet is a bitmask over tensor.Kind values.
type kindSet uint32

func (s kindSet) has(k tensor.Kind) bool { return s&(1<<uint(k)) != 0 }

func (s kindSet) subsetOf(other kindSet) bool { return s&^other == 0 }

// TypeSpec is one position of a signature: either an exact kind or a named
// group of kinds.
type TypeSpec struct {
	name  string
	kinds kindSet
}

// Exact returns a spec matching exactly one kind.
func Exact(k tensor.Kind) TypeSpec {
	return TypeSpec{name: k.String(), kinds: 1 << uint(k)}
}

// Group returns a spec matching any of kinds.
func Group(name string, kinds ...tensor.Kind) TypeSpec {
	var s kindSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}
	return TypeSpec{name: name, kinds: s}
}

// Predefined specs.
var (
	Dense        = Exact(tensor.KindDense)
	ChunkedGraph = Exact(tensor.KindChunkedGraph)
	ChunkedStore = Exact(tensor.KindChunkedStore)
	AnyChunked   = Group("chunked", tensor.KindChunkedGraph, tensor.KindChunkedStore)
	Any          = Group("any", tensor.Kinds()...)
)

// Matches reports whether kind k is a member of the spec.
func (t TypeSpec) Matches(k tensor.Kind) bool { return t.kinds.has(k) }

// String returns the spec name.
func (t TypeSpec) String() string { return t.name }

// Signature is the positional list of argument specs an implementation
// accepts. A variadic signature repeats its last spec for one or more
// trailing arguments.
type Signature struct {
	Specs    []TypeSpec
	Variadic bool
}

// Sig returns a fixed-arity signature.
func Sig(specs ...TypeSpec) Signature {
	return Signature{Specs: specs}
}

// VariadicSig returns a signature whose last spec repeats.
func VariadicSig(specs ...TypeSpec) Signature {
	return Signature{Specs: specs, Variadic: true}
}

// specAt returns the spec governing argument i, and false when the signature
// has no such position.
func (s Signature) specAt(i int) (TypeSpec, bool) {
	switch {
	case i < len(s.Specs):
		return s.Specs[i], true
	case s.Variadic && len(s.Specs) > 0:
		return s.Specs[len(s.Specs)-1], true
	default:
		return TypeSpec{}, false
	}
}

// acceptsArity reports whether the signature takes n arguments.
func (s Signature) acceptsArity(n int) bool {
	if s.Variadic {
		return n >= len(s.Specs)
	}
	return n == len(s.Specs)
}

// Matches reports whether the signature accepts arguments of these kinds.
func (s Signature) Matches(kinds []tensor.Kind) bool {
	if !s.acceptsArity(len(kinds)) {
		return false
	}
	for i, k := range kinds {
		spec, _ := s.specAt(i)
		if !spec.Matches(k) {
			return false
		}
	}
	return true
}

// atLeastAsSpecific reports whether, for an n-argument call, every position
// of s accepts a subset of what the same position of other accepts.
func (s Signature) atLeastAsSpecific(other Signature, n int) bool {
	for i := 0; i < n; i++ {
		a, _ := s.specAt(i)
		b, _ := other.specAt(i)
		if !a.kinds.subsetOf(b.kinds) {
			return false
		}
	}
	return true
}

// key identifies a signature by its kind sets, ignoring spec names.
// Registering a signature with an existing key replaces the entry.
func (s Signature) key() string {
	var b strings.Builder
	for i, spec := range s.Specs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(kindSetString(spec.kinds))
	}
	if s.Variadic {
		b.WriteString("...")
	}
	return b.String()
}

func kindSetString(s kindSet) string {
	names := make([]string, 0, s.size())
	for _, k := range tensor.Kinds() {
		if s.has(k) {
			names = append(names, k.String())
		}
	}
	return "{" + strings.Join(names, "|") + "}"
}

func (s kindSet) size() int { return bits.OnesCount32(uint32(s)) }

// String formats the signature as (spec, spec...).
func (s Signature) String() string {
	names := make([]string, len(s.Specs))
	for i, spec := range s.Specs {
		names[i] = spec.String()
	}
	out := "(" + strings.Join(names, ", ")
	if s.Variadic {
		out += "..."
	}
	return out + ")"
}

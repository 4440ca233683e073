package digraph

// Relation is the meaning of an edge, derived from the kinds of its
// endpoints and its direction.
type Relation string

const (
	RelImplements    Relation = "implements"
	RelExtends       Relation = "extends"
	RelUses          Relation = "uses"
	RelOwns          Relation = "owns"
	RelOwnedBy       Relation = "owned_by"
	RelDeclares      Relation = "declares"
	RelImplementedBy Relation = "implemented_by"
	RelSignature     Relation = "signature"
	RelHonors        Relation = "honors"
	RelCalls         Relation = "calls"
	RelInstantiates  Relation = "instantiates"
	RelTypedAs       Relation = "typed_as"
	RelUnknown       Relation = "unknown"
)

// Classify returns the relation carried by e.
//
// Impl -> Class is ambiguous by kinds alone: it is the back-reference when
// the class provides the body, and an instantiation otherwise. A body whose
// owner declares the method hangs off the Method vertex with no Class -> Impl
// edge, so ownership is read from the Impl's identity.
func (g *Graph) Classify(e Edge) Relation {
	from, to := e.From.Kind, e.To.Kind
	switch from {
	case KindClass, KindTrait:
		switch to {
		case KindInterface:
			return RelImplements
		case KindClass:
			if from == KindClass {
				return RelExtends
			}
		case KindTrait:
			return RelUses
		case KindImpl:
			return RelOwns
		case KindMethod:
			return RelDeclares
		}
	case KindInterface:
		switch to {
		case KindInterface:
			return RelExtends
		case KindMethod:
			return RelDeclares
		}
	case KindMethod:
		switch to {
		case KindParam:
			return RelSignature
		case KindImpl:
			return RelImplementedBy
		}
	case KindImpl:
		switch to {
		case KindParam:
			return RelHonors
		case KindMethod, KindImpl:
			return RelCalls
		case KindTrait:
			return RelOwnedBy
		case KindClass:
			if e.From.Owner() == e.To.Name {
				return RelOwnedBy
			}
			return RelInstantiates
		}
	case KindParam:
		if to == KindClass || to == KindInterface {
			return RelTypedAs
		}
	}
	return RelUnknown
}

// EdgesOf returns the edges classified as r in insertion order.
func (g *Graph) EdgesOf(r Relation) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if g.Classify(e) == r {
			out = append(out, e)
		}
	}
	return out
}

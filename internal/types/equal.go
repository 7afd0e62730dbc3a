package types

// Equal reports whether l and r are structurally equal. Any is equal to every type,
// there is no implicit coercion between other types.
func Equal(l, r Type) bool {
	if IsAny(l) || IsAny(r) {
		return true
	}
	if l.Kind() != r.Kind() {
		return false
	}

	switch l := l.(type) {
	case Primitive:
		return true
	case *Ref:
		return l.Store == r.(*Ref).Store
	case *Array:
		return Equal(l.Elem, r.(*Array).Elem)
	case *Optional:
		return Equal(l.Inner, r.(*Optional).Inner)
	case *Object:
		other := r.(*Object)
		if len(l.Fields) != len(other.Fields) {
			return false
		}
		for name, fieldType := range l.Fields {
			otherFieldType, ok := other.Fields[name]
			if !ok || !Equal(fieldType, otherFieldType) {
				return false
			}
		}
		return true
	case noneType:
		return true
	default:
		panic(ErrUnreachable)
	}
}

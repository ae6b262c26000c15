package cell

import "github.com/certen/ledgercore/pkg/cellerr"

// setMember is the sentinel value bound to every element of a HashSet —
// the set is a thin view over a HashMap from element to this constant.
var setMember Cell = NewBool(true)

// NewEmptySet returns the canonical empty HashSet value.
func NewEmptySet() Cell {
	return (&MapLeaf{}).asSetForm(true)
}

// SetInclude returns root with elem added.
func SetInclude(root Cell, elem Cell, res Resolver) (Cell, error) {
	node, ok := root.(mapNode)
	if !ok {
		return nil, cellerr.NewUnsupported("set-include", "root is not a set")
	}
	keyRef := NewRef(elem)
	valRef := NewRef(setMember)
	out, err := node.assoc(elem.Hash(), keyRef, valRef, 0, res)
	if err != nil {
		return nil, err
	}
	return out.asSetForm(true), nil
}

// SetExclude returns root with elem removed.
func SetExclude(root Cell, elem Cell, res Resolver) (Cell, error) {
	node, ok := root.(mapNode)
	if !ok {
		return nil, cellerr.NewUnsupported("set-exclude", "root is not a set")
	}
	out, err := node.dissoc(elem.Hash(), elem, 0, res)
	if err != nil {
		return nil, err
	}
	return out.asSetForm(true), nil
}

// SetContains reports whether elem is a member of root.
func SetContains(root Cell, elem Cell, res Resolver) (bool, error) {
	node, ok := root.(mapNode)
	if !ok {
		return false, cellerr.NewUnsupported("set-contains", "root is not a set")
	}
	_, found, err := node.get(elem.Hash(), elem, 0, res)
	return found, err
}

// SetCount returns the number of members in root.
func SetCount(root Cell) (int, error) {
	return MapCount(root)
}

// SetIncludeAll returns a with every member of b added.
func SetIncludeAll(a, b Cell, res Resolver) (Cell, error) {
	merged, err := MapMergeWith(a, b, func(existing, incoming Cell) (Cell, bool) {
		return setMember, true
	}, res)
	if err != nil {
		return nil, err
	}
	node, ok := merged.(mapNode)
	if !ok {
		return nil, cellerr.NewUnsupported("set-include-all", "merge result is not a map")
	}
	return node.asSetForm(true), nil
}

// SetExcludeAll returns a with every member of b removed.
func SetExcludeAll(a, b Cell, res Resolver) (Cell, error) {
	bNode, ok := b.(mapNode)
	if !ok {
		return nil, cellerr.NewUnsupported("set-exclude-all", "b is not a set")
	}
	var entries []mapEntry
	if err := bNode.collectEntries(&entries, res); err != nil {
		return nil, err
	}
	result := a
	for _, e := range entries {
		key, err := e.key.GetValue(res)
		if err != nil {
			return nil, err
		}
		result, err = SetExclude(result, key, res)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// SetIntersectAll returns the members of a that are also in b.
func SetIntersectAll(a, b Cell, res Resolver) (Cell, error) {
	aNode, ok := a.(mapNode)
	if !ok {
		return nil, cellerr.NewUnsupported("set-intersect-all", "a is not a set")
	}
	var entries []mapEntry
	if err := aNode.collectEntries(&entries, res); err != nil {
		return nil, err
	}
	result := NewEmptySet()
	for _, e := range entries {
		key, err := e.key.GetValue(res)
		if err != nil {
			return nil, err
		}
		in, err := SetContains(b, key, res)
		if err != nil {
			return nil, err
		}
		if in {
			result, err = SetInclude(result, key, res)
			if err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

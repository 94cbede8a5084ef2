package toolbar

// walkToBlock visits start and its ancestors up to and including nearest
// block level element which is returned.
func walkToBlock(start Node, styles Styles, visit func(Node)) (Node, error) {
	for n := start; n != nil; n = n.Parent() {
		if visit != nil {
			visit(n)
		}
		if styles.IsBlockKind(n.Kind()) {
			return n, nil
		}
	}
	return nil, ErrNoBlockAncestor
}

// Resolver computes element kinds enclosing selection anchor up to the
// block boundary.
type Resolver struct {
	styles Styles
}

func NewResolver(styles Styles) *Resolver {
	return &Resolver{styles: styles}
}

// Resolve returns kinds innermost first. Terminating block element kind is
// always the last one.
func (r *Resolver) Resolve(anchor Node) ([]string, error) {
	var kinds []string
	_, err := walkToBlock(anchorElement(anchor), r.styles, func(n Node) {
		kinds = append(kinds, n.Kind())
	})
	return kinds, err
}

package ast

// Inspect traverses the tree rooted at n in source order, calling f for
// each node. If f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	RewriteChildren(n, func(child Node) Node {
		Inspect(child, f)
		return child
	})
}

// Names returns the set of identifier, parameter, label and declared
// names used anywhere under n, including nested functions.
func Names(n Node) map[string]bool {
	names := make(map[string]bool)
	Inspect(n, func(n Node) bool {
		switch n := n.(type) {
		case *Ident:
			names[n.Name] = true
		case *Function:
			if n.Name != "" {
				names[n.Name] = true
			}
			for _, p := range n.Params {
				names[p] = true
			}
		case *VarDecl:
			for _, d := range n.Decls {
				names[d.Name] = true
			}
		case *TryStmt:
			if n.Param != "" {
				names[n.Param] = true
			}
		case *LabeledStmt:
			names[n.Label] = true
		}
		return true
	})
	return names
}

package engine

import "strconv"

// names hands out identifiers that do not collide with anything the
// function already uses.
type names struct {
	used map[string]bool
	next int
}

func newNames(used map[string]bool) *names {
	return &names{used: used}
}

func (n *names) take(name string) bool {
	if n.used[name] {
		return false
	}
	n.used[name] = true
	return true
}

// unique returns base, or base_1, base_2 and so on.
func (n *names) unique(base string) string {
	if n.take(base) {
		return base
	}
	for i := 1; ; i++ {
		if name := base + "_" + strconv.Itoa(i); n.take(name) {
			return name
		}
	}
}

// temp returns the next free temporary: _a through _z, then _1, _2...
func (n *names) temp() string {
	for {
		var name string
		if n.next < 26 {
			name = "_" + string(rune('a'+n.next))
		} else {
			name = "_" + strconv.Itoa(n.next-25)
		}
		n.next++
		if n.take(name) {
			return name
		}
	}
}

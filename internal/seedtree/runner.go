// Package seedtree implements a protocol-agnostic request dispatcher over a
// hierarchical tree of pods/tabs/fields: it resolves a text path to a typed
// operation and runs it asynchronously, delivering typed callbacks to a
// Visitor. It is the Go analogue of fon9::seed::SeedVisitor /
// TicketRunner*.
package seedtree

import (
	"context"
)

// Dispatcher runs fn asynchronously, e.g. on a workerpool.Pool.
type Dispatcher func(fn func())

// Registry resolves a path's leading segment to a Tree. The teacher's
// domain only needs flat, single-level trees (no nested tree ops), which
// keeps path resolution to one lookup plus the terminal key/tab/cmd split
// done by ParsePath.
type Registry struct {
	trees map[string]*Tree
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{trees: make(map[string]*Tree)}
}

// Add registers tree under its own name.
func (r *Registry) Add(tree *Tree) {
	r.trees[tree.Name] = tree
}

func (r *Registry) resolve(segments []string) (*Tree, *Error) {
	if len(segments) == 0 {
		return nil, NewError(PathFormatError, "path names no tree")
	}
	tree, ok := r.trees[segments[0]]
	if !ok {
		return nil, NewError(NotFoundKey, "no such tree: "+segments[0])
	}
	if len(segments) > 1 {
		return nil, NewError(PathFormatError, "nested tree paths are not supported")
	}
	return tree, nil
}

// ParseSetValues parses a Write runner's "field=value,field=value" command
// line, grounded on SeedVisitor.cpp's ParseSetValues (comma-separated pairs,
// '=' split, quotes honored).
func ParseSetValues(cmdline string) ([]FieldSet, *Error) {
	if cmdline == "" {
		return nil, nil
	}
	parts, err := splitUnquoted(cmdline, ',')
	if err != nil {
		return nil, err
	}
	var sets []FieldSet
	for _, p := range parts {
		if p == "" {
			continue
		}
		idx := findUnquoted(p, '=')
		if idx < 0 {
			return nil, NewError(BadCommandArgument, "missing '=' in "+p)
		}
		name := p[:idx]
		rawVal := p[idx+1:]
		val, _, verr := unquote(rawVal)
		if verr != nil {
			return nil, verr
		}
		sets = append(sets, FieldSet{Field: name, Value: val})
	}
	return sets, nil
}

func resolveTab(tree *Tree, name string) (*Tab, *Error) {
	return tree.TabByName(name)
}

// RunRead is the Read ticket runner: pod-level only; a tree-level resolve
// (no key) reports not_supported_read.
func RunRead(ctx context.Context, reg *Registry, v *Visitor, path string, dispatch Dispatcher) {
	parsed, perr := ParsePath(path)
	if perr != nil {
		v.Callbacks.OnError(perr)
		return
	}
	tree, terr := reg.resolve(parsed.Segments)
	if terr != nil {
		v.Callbacks.OnError(terr)
		return
	}
	if !parsed.HasKey {
		v.Callbacks.OnError(NewError(NotSupportedRead, "read requires a pod key"))
		return
	}
	tab, taberr := resolveTab(tree, parsed.TabName)
	if taberr != nil {
		v.Callbacks.OnError(taberr)
		return
	}
	if tree.OnRead == nil {
		v.Callbacks.OnError(NewError(NotSupportedRead, "tree does not support read"))
		return
	}
	dispatch(func() {
		rd, rerr := tree.OnRead(ctx, parsed.Key, tab)
		if rerr != nil {
			v.Callbacks.OnError(rerr)
			return
		}
		v.Callbacks.OnRead(rd)
	})
}

// RunWrite is the Write ticket runner: parses the command line's
// field=value list, applies each field.Set against the pod's row, and
// collects per-field diagnostics alongside the overall result.
func RunWrite(ctx context.Context, reg *Registry, v *Visitor, path string, dispatch Dispatcher) {
	parsed, perr := ParsePath(path)
	if perr != nil {
		v.Callbacks.OnError(perr)
		return
	}
	tree, terr := reg.resolve(parsed.Segments)
	if terr != nil {
		v.Callbacks.OnError(terr)
		return
	}
	if !parsed.HasKey {
		v.Callbacks.OnError(NewError(NotSupportedWrite, "write requires a pod key"))
		return
	}
	tab, taberr := resolveTab(tree, parsed.TabName)
	if taberr != nil {
		v.Callbacks.OnError(taberr)
		return
	}
	sets, serr := ParseSetValues(parsed.Cmd)
	if serr != nil {
		v.Callbacks.OnError(serr)
		return
	}
	if tree.OnWriteRow == nil {
		v.Callbacks.OnError(NewError(NotSupportedWrite, "tree does not support write"))
		return
	}
	dispatch(func() {
		row, rerr := tree.OnWriteRow(ctx, parsed.Key)
		if rerr != nil {
			v.Callbacks.OnError(rerr)
			return
		}
		result := WriteResult{FieldErrors: map[string]*Error{}}
		for _, s := range sets {
			field, ok := tab.FieldByName(s.Field)
			if !ok {
				result.FieldErrors[s.Field] = NewError(FieldNotFound, s.Field)
				continue
			}
			if ferr := field.Set(row, s.Value); ferr != nil {
				result.FieldErrors[s.Field] = ferr
			}
		}
		if tree.OnAfterWrite != nil {
			tree.OnAfterWrite(ctx, parsed.Key)
		}
		tree.Notify(tab, parsed.Key)
		v.Callbacks.OnWrite(result)
	})
}

// RunRemove is the Remove ticket runner: pod-level only; a tree-level
// resolve reports not_supported_remove_pod.
func RunRemove(ctx context.Context, reg *Registry, v *Visitor, path string, dispatch Dispatcher) {
	parsed, perr := ParsePath(path)
	if perr != nil {
		v.Callbacks.OnError(perr)
		return
	}
	tree, terr := reg.resolve(parsed.Segments)
	if terr != nil {
		v.Callbacks.OnError(terr)
		return
	}
	if !parsed.HasKey {
		v.Callbacks.OnError(NewError(NotSupportedRemovePod, "remove requires a pod key"))
		return
	}
	if tree.OnRemove == nil {
		v.Callbacks.OnError(NewError(NotSupportedRemovePod, "tree does not support remove"))
		return
	}
	dispatch(func() {
		if rerr := tree.OnRemove(ctx, parsed.Key); rerr != nil {
			v.Callbacks.OnError(rerr)
			return
		}
		v.Callbacks.OnRemoved(true)
	})
}

// RunGridView is the GridView ticket runner: tree-level, returns an ordered
// bounded snapshot starting strictly after startKey.
func RunGridView(ctx context.Context, reg *Registry, v *Visitor, path, startKey string, maxRows int, dispatch Dispatcher) {
	parsed, perr := ParsePath(path)
	if perr != nil {
		v.Callbacks.OnError(perr)
		return
	}
	tree, terr := reg.resolve(parsed.Segments)
	if terr != nil {
		v.Callbacks.OnError(terr)
		return
	}
	tab, taberr := resolveTab(tree, parsed.TabName)
	if taberr != nil {
		v.Callbacks.OnError(taberr)
		return
	}
	dispatch(func() {
		v.Callbacks.OnGridView(tree.GridView(tab, startKey, maxRows))
	})
}

// RunCommand is the Command ticket runner: an empty command line at a
// tree-level path commits the new working path on the visitor; otherwise
// the command line is forwarded to the pod's seed-command handler.
func RunCommand(ctx context.Context, reg *Registry, v *Visitor, path string, dispatch Dispatcher) {
	parsed, perr := ParsePath(path)
	if perr != nil {
		v.Callbacks.OnError(perr)
		return
	}
	tree, terr := reg.resolve(parsed.Segments)
	if terr != nil {
		v.Callbacks.OnError(terr)
		return
	}
	if !parsed.HasKey {
		if !parsed.HasCmd || parsed.Cmd == "" {
			v.SetCurrentPath(path)
			v.Callbacks.OnCommand("")
			return
		}
		v.Callbacks.OnError(NewError(NotSupportedCmd, "tree-level command must be empty"))
		return
	}
	tab, taberr := resolveTab(tree, parsed.TabName)
	if taberr != nil {
		v.Callbacks.OnError(taberr)
		return
	}
	if tree.OnCommand == nil {
		v.Callbacks.OnError(NewError(NotSupportedCmd, "tree does not support commands"))
		return
	}
	dispatch(func() {
		result, cerr := tree.OnCommand(ctx, parsed.Key, tab, parsed.Cmd)
		if cerr != nil {
			v.Callbacks.OnError(cerr)
			return
		}
		v.Callbacks.OnCommand(result)
	})
}

// RunSubscribe is the Subscribe/Unsubscribe ticket runner. Tab name
// UnsubscribeTabName releases the visitor's current subscription; any other
// tab name installs a new one, atomically displacing (and unsubscribing)
// whatever was previously installed, and — if a newer subscribe races in
// before this one finishes installing — immediately unsubscribes itself.
func RunSubscribe(ctx context.Context, reg *Registry, v *Visitor, path string, dispatch Dispatcher) {
	parsed, perr := ParsePath(path)
	if perr != nil {
		v.Callbacks.OnError(perr)
		return
	}
	tree, terr := reg.resolve(parsed.Segments)
	if terr != nil {
		v.Callbacks.OnError(terr)
		return
	}

	if parsed.TabName == UnsubscribeTabName {
		v.Unsubscribe()
		v.Callbacks.OnSubscribe(true)
		return
	}

	tab, taberr := resolveTab(tree, parsed.TabName)
	if taberr != nil {
		v.Callbacks.OnError(taberr)
		return
	}

	sub := v.newSubscribe()
	dispatch(func() {
		conn := tree.Subscribe(tab, func(n Notice) {
			v.Callbacks.OnNotify(n)
		})
		sub.install(tree, conn)
		v.Callbacks.OnSubscribe(true)
		if !v.stillCurrent(sub) {
			sub.teardown()
		}
	})
}

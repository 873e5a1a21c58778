package fileimport

import (
	"context"
	"strconv"

	"github.com/ndrandal/feed-simulator/go-feed/internal/seedtree"
)

// monFieldText renders a Seed's monitor mode as seedtree Field text, one
// of "None"/"Reload"/"AddTail".
func monFieldText(mon MonitorFlag) string {
	switch mon {
	case MonitorReload:
		return "Reload"
	case MonitorAddTail:
		return "AddTail"
	default:
		return "None"
	}
}

func parseMonField(text string) (MonitorFlag, bool) {
	switch text {
	case "Reload":
		return MonitorReload, true
	case "AddTail":
		return MonitorAddTail, true
	case "None":
		return MonitorNone, true
	default:
		return MonitorNone, false
	}
}

var infoTab = &seedtree.Tab{
	Name: "info",
	Fields: []*seedtree.Field{
		{
			Name: "FileName",
			Get:  func(row any) string { return row.(*Seed).FileName },
		},
		{
			Name: "Mon",
			Get:  func(row any) string { return monFieldText(row.(*Seed).Mon) },
			Set: func(row any, text string) *seedtree.Error {
				seed := row.(*Seed)
				mon, ok := parseMonField(text)
				if !ok {
					return seedtree.NewError(seedtree.StrToCellFailed, "Mon must be None, Reload, or AddTail")
				}
				seed.mu.Lock()
				seed.Mon = mon
				seed.mu.Unlock()
				return nil
			},
		},
		{
			Name: "Sch",
			Get:  func(row any) string { return row.(*Seed).Sch },
		},
		{
			Name: "State",
			Get:  func(row any) string { return row.(*Seed).State().String() },
		},
		{
			Name: "LastPos",
			Get:  func(row any) string { return strconv.FormatInt(row.(*Seed).LastPos(), 10) },
		},
		{
			Name: "Result",
			Get: func(row any) string {
				s := row.(*Seed)
				s.mu.Lock()
				defer s.mu.Unlock()
				return s.Result
			},
		},
	},
}

// NewTree exposes m's seeds as a seedtree.Tree: each pod key is a seed
// name, the "info" tab reports its configuration/state, and the "reload",
// "forceload", and "clearreload" commands drive the underlying Seed/Manager
// operations. Mounted at "/fileimport" per SPEC_FULL §3.E.
func NewTree(m *Manager) *seedtree.Tree {
	tree := seedtree.NewTree("fileimport", infoTab)
	for _, name := range m.Seeds() {
		tree.AddKey(name)
	}

	tree.OnRead = func(ctx context.Context, key string, tab *seedtree.Tab) (seedtree.RawRd, *seedtree.Error) {
		seed := m.Seed(key)
		if seed == nil {
			return seedtree.RawRd{}, seedtree.NewError(seedtree.NotFoundKey, key)
		}
		values := make([]string, len(tab.Fields))
		for i, f := range tab.Fields {
			values[i] = f.Get(seed)
		}
		return seedtree.RawRd{Tab: tab, Values: values}, nil
	}

	tree.OnWriteRow = func(ctx context.Context, key string) (any, *seedtree.Error) {
		seed := m.Seed(key)
		if seed == nil {
			return nil, seedtree.NewError(seedtree.NotFoundKey, key)
		}
		return seed, nil
	}

	tree.OnAfterWrite = func(ctx context.Context, key string) {
		tree.Notify(infoTab, key)
	}

	tree.OnGridRow = func(key string, tab *seedtree.Tab) (seedtree.GridRow, bool) {
		seed := m.Seed(key)
		if seed == nil {
			return seedtree.GridRow{}, false
		}
		values := make([]string, len(tab.Fields))
		for i, f := range tab.Fields {
			values[i] = f.Get(seed)
		}
		return seedtree.GridRow{Key: key, Values: values}, true
	}

	tree.OnCommand = func(ctx context.Context, key string, tab *seedtree.Tab, cmdline string) (string, *seedtree.Error) {
		seed := m.Seed(key)
		if seed == nil {
			return "", seedtree.NewError(seedtree.NotFoundKey, key)
		}
		switch cmdline {
		case "reload":
			if err := seed.Reload(ctx); err != nil {
				return "", seedtree.NewError(seedtree.IOError, err.Error())
			}
			tree.Notify(infoTab, key)
			return "reloaded", nil
		case "forceload":
			seed.SetForceLoadOnce()
			return "armed", nil
		case "clearreload":
			seed.ClearAddTailRemain()
			if err := seed.ForceFullReload(ctx); err != nil {
				return "", seedtree.NewError(seedtree.IOError, err.Error())
			}
			tree.Notify(infoTab, key)
			return "reloaded", nil
		default:
			return "", seedtree.NewError(seedtree.NotSupportedCmd, cmdline)
		}
	}

	return tree
}

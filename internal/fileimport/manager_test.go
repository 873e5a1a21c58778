package fileimport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestManagerLoadAllRunsRosterAndWatchlist(t *testing.T) {
	dir := t.TempDir()
	rosterPath := writeTemp(t, dir, "roster.csv", "2330,TSMC\n2454,MediaTek\n")
	watchPath := writeTemp(t, dir, "watchlist.csv", "2330\n")

	var rosterRows [][]string
	var watchRows [][]string

	m := NewManager()
	roster := NewRosterSeed("roster", rosterPath, func(fields []string) error {
		rosterRows = append(rosterRows, fields)
		return nil
	})
	watch := NewWatchlistSeed("watchlist", watchPath, func(fields []string) error {
		watchRows = append(watchRows, fields)
		return nil
	})
	if err := m.AddSeed(roster, 0); err != nil {
		t.Fatalf("AddSeed roster: %v", err)
	}
	if err := m.AddSeed(watch, 0); err != nil {
		t.Fatalf("AddSeed watchlist: %v", err)
	}

	if err := m.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(rosterRows) != 2 || rosterRows[0][1] != "TSMC" {
		t.Fatalf("rosterRows = %v", rosterRows)
	}
	if len(watchRows) != 1 || watchRows[0][0] != "2330" {
		t.Fatalf("watchRows = %v", watchRows)
	}
}

func TestManagerAddSeedRejectsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "roster.csv", "")
	m := NewManager()
	seed := NewRosterSeed("roster", path, func(fields []string) error { return nil })
	if err := m.AddSeed(seed, 0); err != nil {
		t.Fatalf("first AddSeed: %v", err)
	}
	if err := m.AddSeed(seed, 0); err == nil {
		t.Fatalf("expected error registering duplicate seed name")
	}
}

func TestManagerClearReloadAllResetsAddTailState(t *testing.T) {
	dir := t.TempDir()
	watchPath := writeTemp(t, dir, "watchlist.csv", "a\nb\n")

	var rows [][]string
	m := NewManager()
	watch := NewWatchlistSeed("watchlist", watchPath, func(fields []string) error {
		rows = append(rows, fields)
		return nil
	})
	if err := m.AddSeed(watch, 0); err != nil {
		t.Fatalf("AddSeed: %v", err)
	}
	if err := m.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows after first load = %v", rows)
	}

	rows = nil
	if err := m.ClearReloadAll(context.Background()); err != nil {
		t.Fatalf("ClearReloadAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows after ClearReloadAll should reparse whole file, got %v", rows)
	}
}

package main

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/ndrandal/feed-simulator/go-feed/internal/config"
	"github.com/ndrandal/feed-simulator/go-feed/internal/engine"
	"github.com/ndrandal/feed-simulator/go-feed/internal/fileimport"
	"github.com/ndrandal/feed-simulator/go-feed/internal/symbol"
)

// registerFileImportSeeds wires the two optional file-import seeds: a
// full-reload roster overriding base prices, and an AddTail-mode watchlist
// flagging tickers of interest. Either is skipped if its path is empty.
func registerFileImportSeeds(mgr *fileimport.Manager, cfg *config.Config, market *engine.MarketEngine, syms []symbol.Symbol) {
	byTicker := symbol.ByTicker()

	if cfg.SeedRosterPath != "" {
		roster := fileimport.NewRosterSeed("roster", cfg.SeedRosterPath, func(fields []string) error {
			if len(fields) < 3 {
				return fmt.Errorf("roster: expected locate,ticker,basePrice, got %v", fields)
			}
			ticker := strings.TrimSpace(fields[1])
			sym, ok := byTicker[ticker]
			if !ok {
				return fmt.Errorf("roster: unknown ticker %q", ticker)
			}
			price, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
			if err != nil {
				return fmt.Errorf("roster: bad base price for %q: %w", ticker, err)
			}
			market.SetPrice(sym.LocateCode, price)
			return nil
		})
		if err := mgr.AddSeed(roster, cfg.SeedPollInterval); err != nil {
			log.Printf("fileimport: roster seed registration failed: %v", err)
		}
	}

	if cfg.SeedWatchlistPath != "" {
		watchlist := fileimport.NewWatchlistSeed("watchlist", cfg.SeedWatchlistPath, func(fields []string) error {
			if len(fields) < 2 {
				return nil
			}
			ticker := strings.TrimSpace(fields[1])
			if _, ok := byTicker[ticker]; !ok {
				return fmt.Errorf("watchlist: unknown ticker %q", ticker)
			}
			log.Printf("fileimport: watchlist flag for %s", ticker)
			return nil
		})
		if err := mgr.AddSeed(watchlist, cfg.SeedPollInterval); err != nil {
			log.Printf("fileimport: watchlist seed registration failed: %v", err)
		}
	}
}

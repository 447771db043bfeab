// Package main provides the content importer. It reads the game-content YAML
// tree (enemies, weapons, pools, locations, tier weights, player loadouts),
// cross-checks references, and upserts everything into PostgreSQL, where the
// combat server reads it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/strikepoint/server/internal/config"
	"github.com/strikepoint/server/internal/game/encounter"
	"github.com/strikepoint/server/internal/game/enemy"
	"github.com/strikepoint/server/internal/game/loot"
	"github.com/strikepoint/server/internal/game/pool"
	"github.com/strikepoint/server/internal/game/weapon"
	"github.com/strikepoint/server/internal/observability"
	"github.com/strikepoint/server/internal/storage/postgres"
)

// bundle is the full content tree held in memory between loading and
// importing, so a broken file aborts the run before any write.
type bundle struct {
	locations []*pool.Location
	pools     []*pool.Pool
	enemies   []*enemy.Template
	weapons   []*weapon.Def
	tiers     loot.TierWeights
	loadouts  []*encounter.PlayerLoadout
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	contentDir := flag.String("content", "", "content directory; empty = content.dir from config")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	dir := cfg.Content.Dir
	if *contentDir != "" {
		dir = *contentDir
	}

	loadStart := time.Now()
	b, err := loadBundle(dir)
	if err != nil {
		logger.Fatal("loading content", zap.String("dir", dir), zap.Error(err))
	}
	logger.Info("content loaded",
		zap.String("dir", dir),
		zap.Int("locations", len(b.locations)),
		zap.Int("pools", len(b.pools)),
		zap.Int("enemies", len(b.enemies)),
		zap.Int("weapons", len(b.weapons)),
		zap.Int("tiers", len(b.tiers)),
		zap.Int("loadouts", len(b.loadouts)),
		zap.Duration("elapsed", time.Since(loadStart)),
	)

	if err := b.checkReferences(); err != nil {
		logger.Fatal("content references broken", zap.Error(err))
	}

	dbStart := time.Now()
	dbPool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer dbPool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	if err := b.importInto(ctx, postgres.NewContentRepository(dbPool.DB()), logger); err != nil {
		logger.Fatal("importing content", zap.Error(err))
	}

	fmt.Printf("import complete in %s\n", time.Since(start).Round(time.Millisecond))
}

func loadBundle(dir string) (*bundle, error) {
	var b bundle
	var err error

	if b.enemies, err = enemy.LoadTemplates(filepath.Join(dir, "enemies")); err != nil {
		return nil, err
	}
	if b.weapons, err = weapon.LoadWeapons(filepath.Join(dir, "weapons")); err != nil {
		return nil, err
	}
	if b.pools, err = pool.LoadPools(filepath.Join(dir, "pools")); err != nil {
		return nil, err
	}
	if b.locations, err = pool.LoadLocations(filepath.Join(dir, "locations.yaml")); err != nil {
		return nil, err
	}
	if b.tiers, err = loot.LoadTierWeights(filepath.Join(dir, "tiers.yaml")); err != nil {
		return nil, err
	}

	// players.yaml is development seed data; production loadouts arrive from
	// the progression service, so a missing file is fine.
	playersPath := filepath.Join(dir, "players.yaml")
	if _, statErr := os.Stat(playersPath); statErr == nil {
		if b.loadouts, err = encounter.LoadLoadouts(playersPath); err != nil {
			return nil, err
		}
	}

	return &b, nil
}

// checkReferences verifies the cross-file links the database cannot: enemy
// pool members must name a loaded template, and loadouts must name a loaded
// weapon. Loot pool candidates are freeform drop IDs owned by the inventory
// side, so they pass unchecked.
func (b *bundle) checkReferences() error {
	enemies := make(map[string]bool, len(b.enemies))
	for _, t := range b.enemies {
		enemies[t.ID] = true
	}
	weapons := make(map[string]bool, len(b.weapons))
	for _, d := range b.weapons {
		weapons[d.ID] = true
	}

	for _, p := range b.pools {
		if p.Kind != pool.KindEnemy {
			continue
		}
		for _, m := range p.Members {
			if !enemies[m.CandidateID] {
				return fmt.Errorf("pool %q member references unknown enemy template %q", p.ID, m.CandidateID)
			}
		}
	}
	for _, l := range b.loadouts {
		if !weapons[l.WeaponID] {
			return fmt.Errorf("loadout %q references unknown weapon %q", l.UserID, l.WeaponID)
		}
	}
	return nil
}

// importInto upserts the bundle. Weapons go in before loadouts to satisfy
// the foreign key; everything else is order-independent.
func (b *bundle) importInto(ctx context.Context, repo *postgres.ContentRepository, logger *zap.Logger) error {
	importStart := time.Now()

	for _, loc := range b.locations {
		if err := repo.UpsertLocation(ctx, loc); err != nil {
			return fmt.Errorf("location %q: %w", loc.ID, err)
		}
	}
	for _, t := range b.enemies {
		if err := repo.UpsertEnemyTemplate(ctx, t); err != nil {
			return fmt.Errorf("enemy template %q: %w", t.ID, err)
		}
	}
	for _, d := range b.weapons {
		if err := repo.UpsertWeapon(ctx, d); err != nil {
			return fmt.Errorf("weapon %q: %w", d.ID, err)
		}
	}
	for _, p := range b.pools {
		if err := repo.UpsertPool(ctx, p); err != nil {
			return fmt.Errorf("pool %q: %w", p.ID, err)
		}
	}
	if err := repo.ReplaceTierWeights(ctx, b.tiers); err != nil {
		return fmt.Errorf("tier weights: %w", err)
	}
	for _, l := range b.loadouts {
		if err := repo.UpsertLoadout(ctx, l); err != nil {
			return fmt.Errorf("loadout %q: %w", l.UserID, err)
		}
	}

	logger.Info("content imported",
		zap.Int("locations", len(b.locations)),
		zap.Int("pools", len(b.pools)),
		zap.Int("enemies", len(b.enemies)),
		zap.Int("weapons", len(b.weapons)),
		zap.Int("loadouts", len(b.loadouts)),
		zap.Duration("elapsed", time.Since(importStart)),
	)
	return nil
}

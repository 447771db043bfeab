// Package main provides the offline encounter simulator. It loads the
// content YAML tree into in-memory stores, runs a batch of seeded encounters
// through the full combat engine, and prints the outcome, hit-zone, enemy,
// and loot distributions. Content designers use it to check balance changes
// before importing them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"time"

	"github.com/strikepoint/server/internal/game/bands"
	"github.com/strikepoint/server/internal/game/encounter"
	"github.com/strikepoint/server/internal/game/enemy"
	"github.com/strikepoint/server/internal/game/loot"
	"github.com/strikepoint/server/internal/game/pool"
	"github.com/strikepoint/server/internal/game/rng"
	"github.com/strikepoint/server/internal/game/weapon"
	"github.com/strikepoint/server/internal/storage/memory"
)

// tally accumulates the distributions one simulation run reports.
type tally struct {
	encounters int
	taps       int
	dealt      int
	taken      int
	outcomes   map[encounter.Outcome]int
	zones      map[bands.Zone]int
	enemies    map[string]int
	drops      map[string]int
}

func main() {
	defaultCurve := bands.DefaultCurve()

	contentDir := flag.String("content", "content", "content directory")
	encounters := flag.Int("encounters", 1000, "number of encounters to simulate")
	seed := flag.Int64("seed", 1, "random seed; same seed, same report")
	userID := flag.String("user", "", "player user id; empty = first loadout in players.yaml")
	locationID := flag.String("location", "", "location id; empty = first entry in locations.yaml")
	maxTurns := flag.Int("max-turns", 200, "turns before the player gives up and escapes")
	lootDraws := flag.Int("draws", encounter.DefaultLootDraws, "loot draws per victory")
	shrink := flag.Float64("shrink", defaultCurve.Shrink, "fraction of injure+miss removed at accuracy 100")
	critShare := flag.Float64("crit-share", defaultCurve.CritShare, "fraction of freed degrees granted to crit")
	flag.Parse()

	ctx := context.Background()

	content, loadouts, locations, err := loadContent(*contentDir)
	if err != nil {
		log.Fatalf("loading content: %v", err)
	}

	user := *userID
	if user == "" {
		if len(loadouts) == 0 {
			log.Fatalf("no loadouts in %s/players.yaml and no -user given", *contentDir)
		}
		user = loadouts[0].UserID
	}
	location := *locationID
	if location == "" {
		if len(locations) == 0 {
			log.Fatalf("no locations in %s/locations.yaml and no -location given", *contentDir)
		}
		location = locations[0].ID
	}

	mgr, err := encounter.NewManager(encounter.Deps{
		Sessions: memory.NewSessionStore(),
		Log:      memory.NewLogStore(),
		History:  memory.NewHistoryStore(),
		Content:  content,
		Rand:     rng.NewSeededSource(*seed),
	}, encounter.Options{
		LootDraws: *lootDraws,
		Curve:     bands.Curve{Shrink: *shrink, CritShare: *critShare},
	})
	if err != nil {
		log.Fatalf("creating encounter manager: %v", err)
	}

	// Taps come from their own stream so moving the tap distribution never
	// disturbs the engine's enemy, crit, and loot draws for a given seed.
	taps := rng.NewSeededSource(*seed + 1)

	start := time.Now()
	t := newTally()
	for i := 0; i < *encounters; i++ {
		if err := runEncounter(ctx, mgr, taps, user, location, *maxTurns, t); err != nil {
			log.Fatalf("encounter %d: %v", i+1, err)
		}
	}
	elapsed := time.Since(start)

	history, err := mgr.PlayerHistory(ctx, user, location)
	if err != nil {
		log.Fatalf("reading player history: %v", err)
	}

	printReport(t, history, user, location, *seed, elapsed)
}

func newTally() *tally {
	return &tally{
		outcomes: make(map[encounter.Outcome]int),
		zones:    make(map[bands.Zone]int),
		enemies:  make(map[string]int),
		drops:    make(map[string]int),
	}
}

// runEncounter plays one full session: spawn, attack until a side falls or
// the turn cap hits, then complete.
func runEncounter(ctx context.Context, mgr *encounter.Manager, taps rng.Source, user, location string, maxTurns int, t *tally) error {
	s, err := mgr.CreateSession(ctx, user, location)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	t.encounters++
	t.enemies[s.EnemyTypeID]++

	for s.Active() && s.TurnNumber < maxTurns {
		res, err := mgr.Attack(ctx, s.ID, taps.Float64())
		if err != nil {
			return fmt.Errorf("attack turn %d: %w", s.TurnNumber+1, err)
		}
		t.taps++
		t.zones[res.Zone]++
		t.dealt += res.DamageDealt
		t.taken += res.DamageTaken
		s = res.Session
	}

	// Complete concludes a still-ongoing session (the turn cap) as an escape
	// and records the outcome either way.
	comp, err := mgr.Complete(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	t.outcomes[comp.Outcome]++
	for _, d := range comp.Loot {
		t.drops[dropKey(d)] += d.Quantity
	}
	return nil
}

func dropKey(d loot.Drop) string {
	if d.StyleID != "" {
		return fmt.Sprintf("%s %s (%s)", d.Type, d.LootableID, d.StyleID)
	}
	return fmt.Sprintf("%s %s", d.Type, d.LootableID)
}

func loadContent(dir string) (*memory.ContentSource, []*encounter.PlayerLoadout, []*pool.Location, error) {
	enemies, err := enemy.LoadTemplates(filepath.Join(dir, "enemies"))
	if err != nil {
		return nil, nil, nil, err
	}
	weapons, err := weapon.LoadWeapons(filepath.Join(dir, "weapons"))
	if err != nil {
		return nil, nil, nil, err
	}
	pools, err := pool.LoadPools(filepath.Join(dir, "pools"))
	if err != nil {
		return nil, nil, nil, err
	}
	locations, err := pool.LoadLocations(filepath.Join(dir, "locations.yaml"))
	if err != nil {
		return nil, nil, nil, err
	}
	tiers, err := loot.LoadTierWeights(filepath.Join(dir, "tiers.yaml"))
	if err != nil {
		return nil, nil, nil, err
	}
	loadouts, err := encounter.LoadLoadouts(filepath.Join(dir, "players.yaml"))
	if err != nil {
		return nil, nil, nil, err
	}

	content := memory.NewContentSource()
	for _, loc := range locations {
		content.AddLocation(loc)
	}
	for _, p := range pools {
		content.AddPool(p)
	}
	for _, tmpl := range enemies {
		content.AddEnemyTemplate(tmpl)
	}
	for _, d := range weapons {
		content.AddWeapon(d)
	}
	content.SetTierWeights(tiers)
	for _, l := range loadouts {
		content.AddLoadout(l)
	}
	return content, loadouts, locations, nil
}

func printReport(t *tally, history *encounter.History, user, location string, seed int64, elapsed time.Duration) {
	fmt.Printf("simulated %d encounters in %s (user=%s location=%s seed=%d)\n",
		t.encounters, elapsed.Round(time.Millisecond), user, location, seed)
	if t.encounters == 0 {
		return
	}

	fmt.Println("\noutcomes:")
	for _, o := range []encounter.Outcome{encounter.OutcomeVictory, encounter.OutcomeDefeat, encounter.OutcomeEscape} {
		printLine(string(o), t.outcomes[o], t.encounters)
	}

	fmt.Printf("\nhit zones (%d taps, avg %.1f turns/encounter):\n",
		t.taps, float64(t.taps)/float64(t.encounters))
	for z := bands.ZoneInjure; z <= bands.ZoneCrit; z++ {
		printLine(z.String(), t.zones[z], t.taps)
	}

	fmt.Printf("\ndamage: dealt %.1f/turn, taken %.1f/turn\n",
		float64(t.dealt)/float64(t.taps), float64(t.taken)/float64(t.taps))

	fmt.Println("\nenemies:")
	printSorted(t.enemies, t.encounters)

	if len(t.drops) > 0 {
		var total int
		for _, n := range t.drops {
			total += n
		}
		fmt.Printf("\nloot (%d drops):\n", total)
		printSorted(t.drops, total)
	}

	fmt.Printf("\nhistory: %d attempts, %d victories, streak %d (longest %d)\n",
		history.TotalAttempts, history.Victories, history.CurrentStreak, history.LongestStreak)
}

func printLine(name string, count, total int) {
	fmt.Printf("  %-28s %7d  %5.1f%%\n", name, count, 100*float64(count)/float64(total))
}

// printSorted prints a name→count map largest first, names breaking ties.
func printSorted(counts map[string]int, total int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		printLine(name, counts[name], total)
	}
}

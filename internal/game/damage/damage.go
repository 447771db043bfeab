// Package damage computes the hit-point exchange for one resolved attack
// zone. The zone decides who gets hurt; the stat spread decides by how much.
package damage

import "github.com/strikepoint/server/internal/game/bands"

// Zone multipliers for landed hits. Crit adds a random bonus in [0, 1) on
// top of its base multiplier.
const (
	grazeMultiplier    = 0.6
	critBaseMultiplier = 1.6
)

// Stats holds the effective combat statistics for one exchange, after weapon
// bonuses and enemy level scaling are applied.
type Stats struct {
	PlayerAttack  int
	PlayerDefense int
	EnemyAttack   int
	EnemyDefense  int
}

// Result is the outcome of one resolved exchange.
type Result struct {
	// ToEnemy is the damage dealt to the enemy; 0 on miss and injure.
	ToEnemy int
	// ToPlayer is the damage dealt to the player: the self-inflicted injure
	// penalty, or the enemy counterattack on a landed hit.
	ToPlayer int
	// Counterattack reports whether ToPlayer came from an enemy counter
	// rather than the injure penalty.
	Counterattack bool
}

// Source is the subset of rng.Source used for the crit bonus roll.
type Source interface {
	Float64() float64
}

// Resolve computes the damage exchange for a hit in the given zone:
//
//	miss    nothing happens on either side
//	injure  the player takes the enemy's attack as a self-inflicted penalty
//	graze   0.6x player attack lands; the enemy counters
//	normal  full player attack lands; the enemy counters
//	crit    1.6x-2.6x player attack lands; the enemy counters
//
// Landed damage is attack (after its multiplier, truncated to an integer)
// minus the defender's defense, floored at 1: a hit that lands always costs
// at least a point. A miss costs nothing — the floor is deliberately
// asymmetric.
//
// Precondition: src must be non-nil.
// Postcondition: ToEnemy >= 1 for graze/normal/crit and 0 otherwise;
// ToPlayer >= 1 for injure and counterattacks and 0 otherwise.
func Resolve(zone bands.Zone, stats Stats, src Source) Result {
	switch zone {
	case bands.ZoneInjure:
		return Result{ToPlayer: landed(stats.EnemyAttack - stats.PlayerDefense)}
	case bands.ZoneGraze:
		hit := int(float64(stats.PlayerAttack)*grazeMultiplier) - stats.EnemyDefense
		return withCounter(landed(hit), stats)
	case bands.ZoneNormal:
		return withCounter(landed(stats.PlayerAttack-stats.EnemyDefense), stats)
	case bands.ZoneCrit:
		mult := critBaseMultiplier + src.Float64()
		hit := int(float64(stats.PlayerAttack)*mult) - stats.EnemyDefense
		return withCounter(landed(hit), stats)
	default:
		// Miss, and any zone this package does not know, costs nothing.
		return Result{}
	}
}

// CounterDamage returns the damage an enemy counterattack deals.
//
// Postcondition: Returns >= 1.
func CounterDamage(stats Stats) int {
	return landed(stats.EnemyAttack - stats.PlayerDefense)
}

// landed floors a landed hit at 1.
func landed(dmg int) int {
	if dmg < 1 {
		return 1
	}
	return dmg
}

func withCounter(toEnemy int, stats Stats) Result {
	return Result{
		ToEnemy:       toEnemy,
		ToPlayer:      CounterDamage(stats),
		Counterattack: true,
	}
}

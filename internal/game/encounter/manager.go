package encounter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/strikepoint/server/internal/game/bands"
	"github.com/strikepoint/server/internal/game/damage"
	"github.com/strikepoint/server/internal/game/loot"
	"github.com/strikepoint/server/internal/game/pool"
	"github.com/strikepoint/server/internal/game/rng"
	"github.com/strikepoint/server/internal/game/selection"
)

// Defaults applied by NewManager when the corresponding Options field is
// left zero.
const (
	// DefaultTTL is how long a session may sit idle before it expires.
	DefaultTTL = 15 * time.Minute
	// DefaultLootDraws is the number of independent loot draws per victory.
	DefaultLootDraws = 3
	// DefaultSweepBatch bounds how many sessions one sweep pass touches.
	DefaultSweepBatch = 100
	// DefaultSweepWorkers bounds the sweep's parallel finalization.
	DefaultSweepWorkers = 4
)

// Options tunes the Manager. Zero fields take the package defaults.
type Options struct {
	TTL          time.Duration
	LootDraws    int
	Curve        bands.Curve
	SweepBatch   int
	SweepWorkers int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Deps are the collaborators a Manager needs. Sessions, Log, History, and
// Content are required; Cache is optional (nil disables caching); Rand and
// Logger default to the crypto source and a no-op logger.
type Deps struct {
	Sessions SessionStore
	Log      LogStore
	History  HistoryStore
	Content  ContentSource
	Cache    SessionCache
	Rand     rng.Source
	Logger   *zap.Logger
}

// Manager drives combat sessions end to end. It keeps no mutable state of
// its own; all coordination goes through the stores, so any number of
// Manager instances (and processes) can serve the same data.
type Manager struct {
	sessions SessionStore
	log      LogStore
	history  HistoryStore
	content  ContentSource
	cache    SessionCache
	rand     rng.Source
	logger   *zap.Logger
	opts     Options
}

// NewManager validates deps, applies option defaults, and returns a ready
// Manager.
//
// Precondition: deps.Sessions, deps.Log, deps.History, and deps.Content are
// non-nil.
func NewManager(deps Deps, opts Options) (*Manager, error) {
	if deps.Sessions == nil {
		return nil, errors.New("encounter: session store is required")
	}
	if deps.Log == nil {
		return nil, errors.New("encounter: log store is required")
	}
	if deps.History == nil {
		return nil, errors.New("encounter: history store is required")
	}
	if deps.Content == nil {
		return nil, errors.New("encounter: content source is required")
	}
	if deps.Rand == nil {
		deps.Rand = rng.NewCryptoSource()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.LootDraws <= 0 {
		opts.LootDraws = DefaultLootDraws
	}
	if opts.Curve == (bands.Curve{}) {
		opts.Curve = bands.DefaultCurve()
	}
	if opts.SweepBatch <= 0 {
		opts.SweepBatch = DefaultSweepBatch
	}
	if opts.SweepWorkers <= 0 {
		opts.SweepWorkers = DefaultSweepWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		sessions: deps.Sessions,
		log:      deps.Log,
		history:  deps.History,
		content:  deps.Content,
		cache:    deps.Cache,
		rand:     deps.Rand,
		logger:   deps.Logger,
		opts:     opts,
	}, nil
}

// TurnResult is what one resolved attack turn returns to the caller.
type TurnResult struct {
	// Zone is where the tap landed on the adjusted dial.
	Zone bands.Zone
	// DamageDealt is the damage the attack dealt. Enemy HP still floors at
	// zero, so the last hit of a fight may deal more than it removes.
	DamageDealt int
	// DamageTaken is the damage applied to the player this turn, whether
	// from a counterattack or an injure tap.
	DamageTaken int
	// Session is the post-turn session state.
	Session *Session
}

// CompleteResult is what Complete returns: the terminal outcome and, only
// for the call that recorded a victory, the generated loot.
type CompleteResult struct {
	Outcome Outcome
	Loot    []loot.Drop
}

// SweepResult counts what one sweep pass did.
type SweepResult struct {
	// Abandoned is the number of idle ongoing sessions closed this pass.
	Abandoned int
	// Recovered is the number of terminal sessions whose history had never
	// been recorded and was recorded now.
	Recovered int
}

// CreateSession spawns a new encounter for the user at the location: it
// lazily abandons the user's expired session, draws an enemy from the
// matching pools, scales its stats by the player's combat level, and
// persists the ongoing session with the seq-1 spawn event.
//
// Fails with ErrActiveSessionExists when the user still has a live session
// (a concurrent creation race fails exactly one creator), and with
// pool.ErrNoMatchingPool when no enemy pool covers the location and level.
//
// Postcondition: on success the returned session is ongoing, TurnNumber 0,
// with both HP values positive.
func (m *Manager) CreateSession(ctx context.Context, userID, locationID string) (*Session, error) {
	if userID == "" {
		return nil, errors.New("user id must not be empty")
	}
	if locationID == "" {
		return nil, errors.New("location id must not be empty")
	}
	now := m.now()

	// Clear the user's expired session first so the uniqueness check below
	// reflects reality rather than a corpse.
	stale, err := m.sessions.AbandonExpiredForUser(ctx, userID, now.Add(-m.opts.TTL))
	if err != nil {
		return nil, fmt.Errorf("abandon expired sessions: %w", err)
	}
	for _, s := range stale {
		m.closeAbandoned(ctx, s)
	}

	loadout, err := m.content.PlayerLoadout(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load player loadout: %w", err)
	}
	loc, err := m.content.Location(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	pools, err := m.content.Pools(ctx, pool.KindEnemy)
	if err != nil {
		return nil, fmt.Errorf("load enemy pools: %w", err)
	}
	members, err := pool.Aggregate(pools, *loc, loadout.CombatLevel)
	if err != nil {
		return nil, err
	}
	candidates := make([]selection.Candidate, len(members))
	for i, member := range members {
		candidates[i] = selection.Candidate{ID: member.CandidateID, Weight: member.Weight}
	}
	winner, err := selection.Pick(candidates, m.rand)
	if err != nil {
		return nil, fmt.Errorf("draw enemy for location %q: %w", locationID, err)
	}
	tmpl, err := m.content.EnemyTemplate(ctx, winner.ID)
	if err != nil {
		return nil, fmt.Errorf("load enemy template: %w", err)
	}
	stats := tmpl.ScaledStats(loadout.CombatLevel)

	s := &Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		LocationID:  locationID,
		EnemyTypeID: tmpl.ID,
		CombatLevel: loadout.CombatLevel,
		PlayerHP:    loadout.MaxHP,
		EnemyHP:     stats.HP,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.sessions.Insert(ctx, s); err != nil {
		return nil, fmt.Errorf("insert combat session: %w", err)
	}

	m.appendEvent(ctx, &LogEvent{
		CombatID: s.ID,
		TS:       now,
		Actor:    ActorEnemy,
		Type:     EventSpawn,
		Payload:  tmpl.ID,
		Value:    stats.HP,
	})
	m.cachePut(ctx, s)

	m.logger.Info("combat session created",
		zap.String("session_id", s.ID),
		zap.String("user_id", userID),
		zap.String("location_id", locationID),
		zap.String("enemy_type_id", tmpl.ID),
		zap.Int("combat_level", s.CombatLevel),
		zap.Int("enemy_hp", s.EnemyHP))
	return s, nil
}

// Attack resolves one timed tap against an ongoing session: the weapon's
// bands are adjusted for the player's accuracy, the tap resolves to a zone,
// damage is exchanged, and the turn is persisted under an optimistic turn
// guard. A kill suppresses the enemy's counterattack.
//
// Fails with bands.ErrInvalidTapPosition for taps outside [0, 1],
// ErrSessionNotFound for unknown or expired sessions, ErrSessionNotActive
// for concluded ones, and ErrTurnConflict when a concurrent turn won the
// update race (nothing was applied; the caller re-reads and retries).
func (m *Manager) Attack(ctx context.Context, sessionID string, tap float64) (*TurnResult, error) {
	if tap < 0 || tap > 1 {
		return nil, bands.ErrInvalidTapPosition
	}
	now := m.now()
	s, err := m.getLive(ctx, sessionID, now)
	if err != nil {
		return nil, err
	}
	if !s.Active() {
		return nil, ErrSessionNotActive
	}

	loadout, err := m.content.PlayerLoadout(ctx, s.UserID)
	if err != nil {
		return nil, fmt.Errorf("load player loadout: %w", err)
	}
	wpn, err := m.content.Weapon(ctx, loadout.WeaponID)
	if err != nil {
		return nil, fmt.Errorf("load weapon: %w", err)
	}
	tmpl, err := m.content.EnemyTemplate(ctx, s.EnemyTypeID)
	if err != nil {
		return nil, fmt.Errorf("load enemy template: %w", err)
	}
	enemyStats := tmpl.ScaledStats(s.CombatLevel)

	adjusted, err := bands.Adjust(wpn.Bands, loadout.Accuracy, m.opts.Curve)
	if err != nil {
		return nil, fmt.Errorf("adjust hit bands for weapon %q: %w", wpn.ID, err)
	}
	zone, err := bands.ResolveZone(adjusted, tap)
	if err != nil {
		return nil, err
	}

	exchange := damage.Resolve(zone, damage.Stats{
		PlayerAttack:  loadout.Attack + wpn.Attack,
		PlayerDefense: loadout.Defense,
		EnemyAttack:   enemyStats.Attack,
		EnemyDefense:  enemyStats.Defense,
	}, m.rand)

	expectedTurn := s.TurnNumber
	dealt := exchange.ToEnemy
	taken := exchange.ToPlayer

	s.EnemyHP -= dealt
	if s.EnemyHP < 0 {
		s.EnemyHP = 0
	}
	killed := s.EnemyHP == 0
	if killed && exchange.Counterattack {
		// Dead enemies deal no return damage.
		taken = 0
	}
	s.PlayerHP -= taken
	if s.PlayerHP < 0 {
		s.PlayerHP = 0
	}
	switch {
	case killed:
		s.Outcome = OutcomeVictory
	case s.PlayerHP == 0:
		s.Outcome = OutcomeDefeat
	}
	s.TurnNumber = expectedTurn + 1
	s.UpdatedAt = now

	if err := m.sessions.Update(ctx, s, expectedTurn); err != nil {
		return nil, fmt.Errorf("persist combat turn: %w", err)
	}

	attackValue := dealt
	if zone == bands.ZoneInjure {
		attackValue = taken
	}
	m.appendEvent(ctx, &LogEvent{
		CombatID: s.ID,
		TS:       now,
		Actor:    ActorPlayer,
		Type:     EventAttack,
		Payload:  zone.String(),
		Value:    attackValue,
	})
	if exchange.Counterattack && taken > 0 {
		m.appendEvent(ctx, &LogEvent{
			CombatID: s.ID,
			TS:       now,
			Actor:    ActorEnemy,
			Type:     EventCounter,
			Value:    taken,
		})
	}

	if s.Active() {
		m.cachePut(ctx, s)
	} else {
		m.appendOutcomeEvent(ctx, s, now)
		m.cacheDrop(ctx, s.ID)
	}

	m.logger.Debug("combat turn resolved",
		zap.String("session_id", s.ID),
		zap.Int("turn", s.TurnNumber),
		zap.String("zone", zone.String()),
		zap.Int("damage_dealt", dealt),
		zap.Int("damage_taken", taken),
		zap.Int("enemy_hp", s.EnemyHP),
		zap.Int("player_hp", s.PlayerHP),
		zap.String("outcome", string(s.Outcome)))

	return &TurnResult{Zone: zone, DamageDealt: dealt, DamageTaken: taken, Session: s}, nil
}

// Complete finalizes a session. An ongoing session is concluded as an
// escape. The call that wins the stats-recording race folds the outcome
// into the player's history and, on victory, generates and returns the
// loot; every later call is a no-op that returns the stored outcome with
// nil loot. Safe to call any number of times.
//
// Fails with ErrSessionNotFound for unknown or expired sessions.
func (m *Manager) Complete(ctx context.Context, sessionID string) (*CompleteResult, error) {
	now := m.now()
	// Finalization works against the authoritative row, never the cache.
	s, err := m.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.opts.TTL, now) {
		return nil, ErrSessionNotFound
	}

	if s.Active() {
		won, err := m.sessions.Conclude(ctx, sessionID, OutcomeEscape, now)
		if err != nil {
			return nil, fmt.Errorf("conclude session: %w", err)
		}
		if won {
			s.Outcome = OutcomeEscape
			s.UpdatedAt = now
			m.appendOutcomeEvent(ctx, s, now)
		} else {
			// A concurrent attack or sweep got there first; trust the row.
			s, err = m.sessions.Get(ctx, sessionID)
			if err != nil {
				return nil, err
			}
		}
	}

	result := &CompleteResult{Outcome: s.Outcome}
	if !m.finalize(ctx, s) {
		return result, nil
	}
	if s.Outcome == OutcomeVictory {
		drops, err := m.rollLoot(ctx, s)
		if err != nil {
			m.logger.Error("roll victory loot",
				zap.String("session_id", s.ID),
				zap.Error(err))
		} else {
			result.Loot = drops
		}
	}

	m.logger.Info("combat session completed",
		zap.String("session_id", s.ID),
		zap.String("user_id", s.UserID),
		zap.String("outcome", string(s.Outcome)),
		zap.Int("loot_drops", len(result.Loot)))
	return result, nil
}

// GetSession returns the current session state. Expired sessions read as
// absent (ErrSessionNotFound); the sweep cleans them up later.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	return m.getLive(ctx, sessionID, m.now())
}

// SweepExpired closes one batch of idle ongoing sessions as abandoned and
// records their history, then recovers terminal sessions whose stats were
// never recorded (the client vanished between the outcome and Complete).
// Loot from recovered victories is forfeit: drops are only generated for a
// live Complete call.
//
// The pass is idempotent and races safely with live traffic: an attack that
// refreshes a session first simply keeps it out of this batch.
func (m *Manager) SweepExpired(ctx context.Context) (SweepResult, error) {
	start := m.now()
	cutoff := start.Add(-m.opts.TTL)

	abandoned, err := m.sessions.AbandonExpired(ctx, cutoff, m.opts.SweepBatch)
	if err != nil {
		return SweepResult{}, fmt.Errorf("abandon expired sessions: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(m.opts.SweepWorkers)
	for _, s := range abandoned {
		g.Go(func() error {
			m.closeAbandoned(ctx, s)
			return nil
		})
	}
	_ = g.Wait() // workers log their own failures

	result := SweepResult{Abandoned: len(abandoned)}

	unrecorded, err := m.sessions.ListUnrecorded(ctx, cutoff, m.opts.SweepBatch)
	if err != nil {
		m.logger.Error("list unrecorded sessions", zap.Error(err))
		return result, nil
	}
	for _, s := range unrecorded {
		if !m.finalize(ctx, s) {
			continue
		}
		result.Recovered++
		if s.Outcome == OutcomeVictory {
			m.logger.Info("victory loot forfeited by inactivity",
				zap.String("session_id", s.ID),
				zap.String("user_id", s.UserID))
		}
	}

	if result.Abandoned > 0 || result.Recovered > 0 {
		m.logger.Info("session sweep complete",
			zap.Int("abandoned", result.Abandoned),
			zap.Int("recovered", result.Recovered),
			zap.Duration("elapsed", time.Since(start)))
	}
	return result, nil
}

// PlayerHistory returns the player's combat record at a location.
func (m *Manager) PlayerHistory(ctx context.Context, userID, locationID string) (*History, error) {
	return m.history.Get(ctx, userID, locationID)
}

// CombatLog returns a session's combat log in sequence order.
func (m *Manager) CombatLog(ctx context.Context, sessionID string) ([]*LogEvent, error) {
	return m.log.List(ctx, sessionID)
}

// getLive loads a session, cache first, treating TTL expiry as absence.
// Reads never write: expired rows stay for the create path or the sweep to
// abandon.
func (m *Manager) getLive(ctx context.Context, id string, now time.Time) (*Session, error) {
	if s, ok := m.cacheGet(ctx, id); ok {
		if !s.Expired(m.opts.TTL, now) {
			return s, nil
		}
		m.cacheDrop(ctx, id)
		return nil, ErrSessionNotFound
	}
	s, err := m.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Expired(m.opts.TTL, now) {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// closeAbandoned logs the abandon outcome and records history for a session
// the store just marked abandoned.
func (m *Manager) closeAbandoned(ctx context.Context, s *Session) {
	m.appendOutcomeEvent(ctx, s, m.now())
	m.finalize(ctx, s)
	m.logger.Info("combat session abandoned",
		zap.String("session_id", s.ID),
		zap.String("user_id", s.UserID),
		zap.Time("last_activity", s.UpdatedAt))
}

// finalize folds a terminal session into the player's history exactly once
// across all processes. Returns true for the single call that won the
// StatsRecorded flag. History write failures are logged and left for the
// sweep's recovery pass to retry.
func (m *Manager) finalize(ctx context.Context, s *Session) bool {
	won, err := m.sessions.MarkStatsRecorded(ctx, s.ID)
	if err != nil {
		m.logger.Error("mark stats recorded",
			zap.String("session_id", s.ID),
			zap.Error(err))
		return false
	}
	if !won {
		return false
	}
	if _, err := m.history.Record(ctx, s.UserID, s.LocationID, s.Outcome, s.UpdatedAt); err != nil {
		m.logger.Error("record player history",
			zap.String("session_id", s.ID),
			zap.String("user_id", s.UserID),
			zap.String("outcome", string(s.Outcome)),
			zap.Error(err))
	}
	m.cacheDrop(ctx, s.ID)
	return true
}

// rollLoot aggregates the location's loot pools and generates the victory
// drops for a slain enemy.
func (m *Manager) rollLoot(ctx context.Context, s *Session) ([]loot.Drop, error) {
	tmpl, err := m.content.EnemyTemplate(ctx, s.EnemyTypeID)
	if err != nil {
		return nil, fmt.Errorf("load enemy template: %w", err)
	}
	loc, err := m.content.Location(ctx, s.LocationID)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	pools, err := m.content.Pools(ctx, pool.KindLoot)
	if err != nil {
		return nil, fmt.Errorf("load loot pools: %w", err)
	}
	tiers, err := m.content.TierWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tier weights: %w", err)
	}
	members, err := pool.Aggregate(pools, *loc, s.CombatLevel)
	if err != nil {
		if errors.Is(err, pool.ErrNoMatchingPool) {
			m.logger.Warn("no loot pool for location",
				zap.String("session_id", s.ID),
				zap.String("location_id", s.LocationID),
				zap.Int("combat_level", s.CombatLevel))
			return nil, nil
		}
		return nil, err
	}

	drops := loot.Generate(members, tiers, tmpl.Tier, tmpl.StyleID, m.opts.LootDraws, m.rand)
	if len(drops) == 0 {
		m.logger.Warn("victory produced no loot",
			zap.String("session_id", s.ID),
			zap.String("location_id", s.LocationID),
			zap.String("enemy_type_id", s.EnemyTypeID))
	}
	return drops, nil
}

// appendOutcomeEvent closes a session's combat log with its terminal state.
// Victory and escape belong to the player; defeat and abandonment to the
// enemy and the clock respectively (abandonment is logged as the player
// walking away).
func (m *Manager) appendOutcomeEvent(ctx context.Context, s *Session, at time.Time) {
	actor := ActorPlayer
	if s.Outcome == OutcomeDefeat {
		actor = ActorEnemy
	}
	m.appendEvent(ctx, &LogEvent{
		CombatID: s.ID,
		TS:       at,
		Actor:    actor,
		Type:     EventOutcome,
		Payload:  string(s.Outcome),
	})
}

// appendEvent assigns the next sequence number and stores the event. The
// combat log is diagnostic: failures are logged, never surfaced, and a lost
// race for a sequence slot is retried once with a fresh number.
func (m *Manager) appendEvent(ctx context.Context, ev *LogEvent) {
	for attempt := 0; attempt < 2; attempt++ {
		seq, err := m.log.NextSeq(ctx, ev.CombatID)
		if err != nil {
			m.logger.Warn("combat log next seq",
				zap.String("session_id", ev.CombatID),
				zap.Error(err))
			return
		}
		ev.Seq = seq
		err = m.log.Append(ctx, ev)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrDuplicateLogSeq) {
			m.logger.Warn("combat log append",
				zap.String("session_id", ev.CombatID),
				zap.Int("seq", ev.Seq),
				zap.Error(err))
			return
		}
	}
	m.logger.Warn("combat log append dropped after seq conflicts",
		zap.String("session_id", ev.CombatID),
		zap.String("type", string(ev.Type)))
}

func (m *Manager) cacheGet(ctx context.Context, id string) (*Session, bool) {
	if m.cache == nil {
		return nil, false
	}
	return m.cache.Get(ctx, id)
}

func (m *Manager) cachePut(ctx context.Context, s *Session) {
	if m.cache != nil {
		m.cache.Put(ctx, s)
	}
}

func (m *Manager) cacheDrop(ctx context.Context, id string) {
	if m.cache != nil {
		m.cache.Drop(ctx, id)
	}
}

func (m *Manager) now() time.Time {
	return m.opts.Now().UTC()
}

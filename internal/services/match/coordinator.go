package match

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pairwise-games/stakeroom/internal/dependencies/clock"
	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/services/balance"
	"github.com/pairwise-games/stakeroom/internal/services/challenge"
	"github.com/pairwise-games/stakeroom/internal/services/registry"
	"github.com/pairwise-games/stakeroom/internal/storage"
	"github.com/pairwise-games/stakeroom/internal/stream"
)

// Config holds coordinator behavior settings
type Config struct {
	// ReconnectGrace is how long a disconnected player's waiting or
	// in-progress match survives awaiting a rejoin before it is
	// force-cancelled. Zero cancels immediately on disconnect.
	ReconnectGrace time.Duration
}

// DefaultConfig returns default coordinator configuration
func DefaultConfig() Config {
	return Config{
		ReconnectGrace: 0,
	}
}

// Coordinator pairs open challenges into matches and drives each match's
// room session through its lifecycle.
//
// Two levels of serialization: pairMu is the single owner of challenge-book
// mutation plus match formation, making accept-and-form one atomic unit; the
// lock table serializes join, completion, cancellation, and forced
// termination per match id.
type Coordinator struct {
	storage   storage.Storage
	book      *challenge.Book
	gate      balance.Gate
	registry  *registry.Registry
	publisher stream.Publisher
	clock     clock.Clock
	logger    *slog.Logger
	cfg       Config

	pairMu sync.Mutex
	locks  *lockTable

	// Pending reconnect-grace timers by departed connection, stopped on
	// shutdown so no deferred cancel outlives the process teardown
	timerMu     sync.Mutex
	graceTimers map[model.ConnectionID]*time.Timer
	stopped     bool
}

// NewCoordinator creates a new match Coordinator
func NewCoordinator(
	storage storage.Storage,
	book *challenge.Book,
	gate balance.Gate,
	reg *registry.Registry,
	publisher stream.Publisher,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		storage:     storage,
		book:        book,
		gate:        gate,
		registry:    reg,
		publisher:   publisher,
		clock:       clock,
		logger:      logger.With(slog.String("component", "coordinator")),
		cfg:         cfg,
		locks:       newLockTable(),
		graceTimers: make(map[model.ConnectionID]*time.Timer),
	}
}

// RoomSnapshot is the room state returned to a joining participant
type RoomSnapshot struct {
	MatchID     model.MatchID
	Players     []string
	State       model.MatchState
	JoinedCount int
}

// CreateChallenge opens a new challenge for the participant
func (c *Coordinator) CreateChallenge(ctx context.Context, p *model.Participant, stake int64) (*model.Challenge, error) {
	c.pairMu.Lock()
	defer c.pairMu.Unlock()

	ch, err := c.book.Create(ctx, p, stake)
	if err != nil {
		return nil, err
	}

	c.publishSnapshots(ctx)
	return ch, nil
}

// WithdrawChallenge removes the participant's own open challenge
func (c *Coordinator) WithdrawChallenge(ctx context.Context, p *model.Participant, id model.ChallengeID) error {
	c.pairMu.Lock()
	defer c.pairMu.Unlock()

	if err := c.book.Withdraw(ctx, id, p.UserID); err != nil {
		return err
	}

	c.publishSnapshots(ctx)
	return nil
}

// AcceptChallenge consumes an open challenge and forms a match from it.
//
// The whole operation is one critical section: for a given challenge id,
// acceptance attempts are totally ordered by arrival here, exactly one
// succeeds, and every later one observes ErrChallengeNotFound. Both stakes
// are moved into escrow before the challenge is removed, so a failed balance
// check leaves the challenge open for another acceptor.
func (c *Coordinator) AcceptChallenge(ctx context.Context, acceptor *model.Participant, id model.ChallengeID) (*model.Match, error) {
	c.pairMu.Lock()
	defer c.pairMu.Unlock()

	ch, err := c.book.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if ch.CreatorUserID == acceptor.UserID || ch.CreatorConnectionID == acceptor.ConnectionID {
		return nil, model.ErrSelfAccept
	}

	// Re-verify the acceptor can cover the stake; the listing check is stale
	bal, err := c.gate.Balance(ctx, acceptor.UserID)
	if err != nil {
		return nil, err
	}
	if bal < ch.Stake {
		return nil, model.ErrInsufficientBalance
	}

	// Escrow both stakes before touching challenge or match state
	if err := c.gate.Debit(ctx, acceptor.UserID, ch.Stake); err != nil {
		return nil, err
	}
	if err := c.gate.Debit(ctx, ch.CreatorUserID, ch.Stake); err != nil {
		// Creator can no longer fund the challenge; give the acceptor
		// their stake back and retire the listing
		if cerr := c.gate.Credit(ctx, acceptor.UserID, ch.Stake); cerr != nil {
			c.logger.Error("failed to refund acceptor after creator debit failure",
				slog.String("challenge_id", string(id)),
				slog.String("error", cerr.Error()),
			)
		}
		if rerr := c.book.Remove(ctx, id); rerr != nil {
			c.logger.Error("failed to remove unfundable challenge",
				slog.String("challenge_id", string(id)),
				slog.String("error", rerr.Error()),
			)
		}
		c.publishSnapshots(ctx)
		return nil, err
	}

	if err := c.book.Remove(ctx, id); err != nil {
		// Storage fault after escrow; release both stakes and abort
		// without a partial commit
		_ = c.gate.Credit(ctx, acceptor.UserID, ch.Stake)
		_ = c.gate.Credit(ctx, ch.CreatorUserID, ch.Stake)
		return nil, err
	}

	now := c.clock.Now()
	m := &model.Match{
		ID: model.MatchID(uuid.NewString()),
		PlayerA: model.PlayerSlot{
			UserID:       ch.CreatorUserID,
			ConnectionID: ch.CreatorConnectionID,
			DisplayName:  ch.CreatorName,
		},
		PlayerB: model.PlayerSlot{
			UserID:       acceptor.UserID,
			ConnectionID: acceptor.ConnectionID,
			DisplayName:  acceptor.DisplayName,
		},
		Stake:     ch.Stake,
		State:     model.MatchStateForming,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The forming state is never observable outside this critical section
	m.State = model.MatchStateWaiting

	if err := c.storage.SaveMatch(ctx, m); err != nil {
		_ = c.gate.Credit(ctx, acceptor.UserID, ch.Stake)
		_ = c.gate.Credit(ctx, ch.CreatorUserID, ch.Stake)
		// Put the challenge back so the creator's intent survives the fault
		if rerr := c.storage.SaveChallenge(ctx, ch); rerr != nil {
			c.logger.Error("failed to restore challenge after match save failure",
				slog.String("challenge_id", string(id)),
				slog.String("error", rerr.Error()),
			)
		}
		return nil, err
	}

	c.registry.BindMatch(m.PlayerA.ConnectionID, m.ID)
	c.registry.BindMatch(m.PlayerB.ConnectionID, m.ID)

	c.logger.Info("match formed",
		slog.String("match_id", string(m.ID)),
		slog.String("challenge_id", string(id)),
		slog.String("player_a", string(m.PlayerA.UserID)),
		slog.String("player_b", string(m.PlayerB.UserID)),
		slog.Int64("stake", m.Stake),
	)

	// Direct both sides into the room; each must still confirm by joining
	c.sendToSlot(m.PlayerA, model.EventMatchFormed, model.MatchFormedPayload{
		MatchID: m.ID, Stake: m.Stake, OpponentName: m.PlayerB.DisplayName,
	})
	c.sendToSlot(m.PlayerB, model.EventMatchFormed, model.MatchFormedPayload{
		MatchID: m.ID, Stake: m.Stake, OpponentName: m.PlayerA.DisplayName,
	})
	c.sendToSlot(m.PlayerA, model.EventEnterRoom, model.EnterRoomPayload{MatchID: m.ID})
	c.sendToSlot(m.PlayerB, model.EventEnterRoom, model.EnterRoomPayload{MatchID: m.ID})

	c.publishSnapshots(ctx)
	return m, nil
}

// Join confirms a participant's entry into a match's room. The second
// distinct participant's join moves the match from waiting to in progress,
// exactly once. A join by a known user on a new connection rebinds that
// user's slot (reconnection).
func (c *Coordinator) Join(ctx context.Context, p *model.Participant, matchID model.MatchID) (*RoomSnapshot, error) {
	unlock := c.locks.acquire(matchID)
	defer unlock()

	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.State.Terminal() {
		return nil, model.ErrMatchTerminal
	}

	slot := m.SlotForConnection(p.ConnectionID)
	if slot == nil {
		slot = m.SlotFor(p.UserID)
		if slot == nil {
			return nil, model.ErrNotAParticipant
		}
		// Same durable identity on a fresh connection: rebind the slot
		c.registry.UnbindMatch(slot.ConnectionID)
		slot.ConnectionID = p.ConnectionID
		c.registry.BindMatch(p.ConnectionID, m.ID)
	}

	// A participant joining twice (e.g. reconnect) must not double-count
	if !slot.Joined {
		slot.Joined = true
		m.JoinedCount++
	}

	started := false
	if m.JoinedCount == 2 && m.State == model.MatchStateWaiting {
		m.State = model.MatchStateInProgress
		started = true
	}

	m.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	if started {
		c.logger.Info("match started", slog.String("match_id", string(m.ID)))
		payload := model.MatchStartedPayload{
			MatchID: m.ID,
			PlayerA: m.PlayerA.DisplayName,
			PlayerB: m.PlayerB.DisplayName,
			Stake:   m.Stake,
		}
		c.sendToSlot(m.PlayerA, model.EventMatchStarted, payload)
		c.sendToSlot(m.PlayerB, model.EventMatchStarted, payload)
		c.publishSnapshots(ctx)
	}

	return &RoomSnapshot{
		MatchID:     m.ID,
		Players:     []string{m.PlayerA.DisplayName, m.PlayerB.DisplayName},
		State:       m.State,
		JoinedCount: m.JoinedCount,
	}, nil
}

// Complete settles a match with a declared winner. Only legal while the
// match is in progress (a rejected cancellation returns the match to in
// progress first). The escrowed pot goes to the winner.
func (c *Coordinator) Complete(ctx context.Context, matchID model.MatchID, winner model.UserID) (*model.Match, error) {
	unlock := c.locks.acquire(matchID)
	defer unlock()

	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.State.Terminal() {
		return nil, model.ErrMatchTerminal
	}
	if m.State != model.MatchStateInProgress {
		return nil, model.ErrMatchNotInProgress
	}
	if m.SlotFor(winner) == nil {
		return nil, model.ErrNotAParticipant
	}

	// Commit the terminal record before moving funds: a payout lost to a
	// fault is recoverable from the completed match, while a payout applied
	// before a failed save would be re-applied on retry.
	m.State = model.MatchStateCompleted
	m.WinnerUserID = winner
	m.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return nil, err
	}

	pot := 2 * m.Stake
	if err := c.gate.Credit(ctx, winner, pot); err != nil {
		c.logger.Error("winner payout failed, settle from the completed record",
			slog.String("match_id", string(m.ID)),
			slog.String("winner", string(winner)),
			slog.Int64("pot", pot),
			slog.String("error", err.Error()),
		)
	}

	c.logger.Info("match completed",
		slog.String("match_id", string(m.ID)),
		slog.String("winner", string(winner)),
		slog.Int64("pot", pot),
	)

	payload := model.MatchCompletedPayload{MatchID: m.ID, WinnerUserID: winner, Pot: pot}
	c.sendToSlot(m.PlayerA, model.EventMatchCompleted, payload)
	c.sendToSlot(m.PlayerB, model.EventMatchCompleted, payload)

	c.retire(m)
	c.publishSnapshots(ctx)
	return m, nil
}

// GetMatch retrieves a match by id
func (c *Coordinator) GetMatch(ctx context.Context, matchID model.MatchID) (*model.Match, error) {
	return c.storage.GetMatch(ctx, matchID)
}

// OpenChallenges returns the open-challenges snapshot for a requester
func (c *Coordinator) OpenChallenges(ctx context.Context, requestingUserID model.UserID) ([]model.ChallengeView, error) {
	c.pairMu.Lock()
	defer c.pairMu.Unlock()
	return c.book.Snapshot(ctx, requestingUserID)
}

// ActiveMatches returns the active-matches snapshot
func (c *Coordinator) ActiveMatches(ctx context.Context) ([]model.MatchView, error) {
	matches, err := c.storage.ListActiveMatches(ctx)
	if err != nil {
		return nil, err
	}
	return matchViews(matches), nil
}

// ExpireChallenges removes challenges older than ttl, republishing if any went
func (c *Coordinator) ExpireChallenges(ctx context.Context, ttl time.Duration) (int, error) {
	c.pairMu.Lock()
	defer c.pairMu.Unlock()

	removed, err := c.book.RemoveExpired(ctx, ttl)
	if removed > 0 {
		c.publishSnapshots(ctx)
	}
	return removed, err
}

// SeedStream pushes the current snapshots to a freshly opened stream so the
// client does not wait for the next committed transition
func (c *Coordinator) SeedStream(ctx context.Context, connID model.ConnectionID) {
	c.pairMu.Lock()
	defer c.pairMu.Unlock()

	challenges, err := c.book.List(ctx)
	if err != nil {
		c.logger.Error("failed to list challenges for stream seed", slog.String("error", err.Error()))
		return
	}
	matches, err := c.storage.ListActiveMatches(ctx)
	if err != nil {
		c.logger.Error("failed to list matches for stream seed", slog.String("error", err.Error()))
		return
	}
	c.publisher.SendSnapshotTo(connID, challenges, matchViews(matches))
}

// HandleDisconnect consumes the participantLeft event: the departed
// connection's open challenges are removed, and any match it was bound to is
// force-cancelled, either immediately or after the reconnect grace window.
func (c *Coordinator) HandleDisconnect(ctx context.Context, p *model.Participant) {
	c.pairMu.Lock()
	removed, err := c.book.RemoveByCreator(ctx, p.ConnectionID)
	if err != nil {
		c.logger.Error("failed to remove challenges for departed connection",
			slog.String("connection_id", string(p.ConnectionID)),
			slog.String("error", err.Error()),
		)
	}
	if removed > 0 {
		c.publishSnapshots(ctx)
	}
	c.pairMu.Unlock()

	matchID, ok := c.registry.MatchFor(p.ConnectionID)
	if !ok {
		return
	}

	if c.cfg.ReconnectGrace <= 0 {
		c.cancelForDeparted(ctx, matchID, p)
		return
	}

	c.logger.Info("deferring forced cancel for reconnect grace",
		slog.String("match_id", string(matchID)),
		slog.String("connection_id", string(p.ConnectionID)),
		slog.Duration("grace", c.cfg.ReconnectGrace),
	)
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.stopped {
		return
	}
	connID := p.ConnectionID
	c.graceTimers[connID] = time.AfterFunc(c.cfg.ReconnectGrace, func() {
		c.timerMu.Lock()
		delete(c.graceTimers, connID)
		stopped := c.stopped
		c.timerMu.Unlock()
		if stopped {
			return
		}
		c.cancelForDeparted(context.Background(), matchID, p)
	})
}

// Shutdown stops all pending reconnect-grace timers so no forced cancel
// fires after the rest of the process has wound down
func (c *Coordinator) Shutdown() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	c.stopped = true
	for connID, timer := range c.graceTimers {
		timer.Stop()
		delete(c.graceTimers, connID)
	}
}

// cancelForDeparted force-cancels a match whose participant's connection is
// gone, unless the user already rejoined on a fresh connection
func (c *Coordinator) cancelForDeparted(ctx context.Context, matchID model.MatchID, departed *model.Participant) {
	unlock := c.locks.acquire(matchID)
	defer unlock()

	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		c.registry.UnbindMatch(departed.ConnectionID)
		return
	}
	if m.State.Terminal() {
		c.registry.UnbindMatch(departed.ConnectionID)
		return
	}

	slot := m.SlotForConnection(departed.ConnectionID)
	if slot == nil {
		// Rejoined on a new connection during the grace window
		return
	}

	// Forced termination applies to waiting and in-progress matches; a
	// match already under arbitration stays with the arbiter
	if m.State != model.MatchStateWaiting && m.State != model.MatchStateInProgress {
		return
	}

	m.State = model.MatchStateCancelled
	m.CancelReason = "opponent_disconnected"
	m.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		c.logger.Error("failed to cancel match for departed participant",
			slog.String("match_id", string(matchID)),
			slog.String("error", err.Error()),
		)
		return
	}

	c.logger.Info("match cancelled - participant disconnected",
		slog.String("match_id", string(matchID)),
		slog.String("departed_user", string(departed.UserID)),
	)

	// No credit or debit here: the outcome is emitted for the external
	// ledger to act on
	remaining := m.Opponent(departed.UserID)
	c.sendToSlot(*remaining, model.EventOpponentDisconnected, model.OpponentDisconnectedPayload{
		MatchID:        m.ID,
		DepartedUserID: departed.UserID,
	})

	c.retire(m)
	c.publishSnapshots(ctx)
}

// WithMatch runs fn with the match loaded under its per-match lock, saving
// it afterwards if fn reports a mutation. Used by the cancellation workflow
// so its transitions serialize with join/complete/forced-cancel.
func (c *Coordinator) WithMatch(ctx context.Context, matchID model.MatchID, fn func(m *model.Match) (mutated bool, err error)) error {
	unlock := c.locks.acquire(matchID)
	defer unlock()

	m, err := c.storage.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}

	mutated, err := fn(m)
	if err != nil {
		return err
	}
	if !mutated {
		return nil
	}

	m.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveMatch(ctx, m); err != nil {
		return err
	}

	if m.State.Terminal() {
		c.retire(m)
	}
	c.publishSnapshots(ctx)
	return nil
}

// SendToSlots delivers a directed event to both participants of a match
func (c *Coordinator) SendToSlots(m *model.Match, eventType model.EventType, payload any) {
	c.sendToSlot(m.PlayerA, eventType, payload)
	c.sendToSlot(m.PlayerB, eventType, payload)
}

// retire clears the connection bindings and lock entry of a terminal match
func (c *Coordinator) retire(m *model.Match) {
	c.registry.UnbindMatch(m.PlayerA.ConnectionID)
	c.registry.UnbindMatch(m.PlayerB.ConnectionID)
	c.locks.forget(m.ID)
}

func (c *Coordinator) sendToSlot(slot model.PlayerSlot, eventType model.EventType, payload any) {
	c.publisher.SendTo(slot.ConnectionID, model.Event{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		Payload:   payload,
	})
}

// publishSnapshots reads both views and fans them out. Called inside the
// critical section that committed the triggering mutation, so clients see
// snapshots in commit order.
func (c *Coordinator) publishSnapshots(ctx context.Context) {
	challenges, err := c.book.List(ctx)
	if err != nil {
		c.logger.Error("failed to list challenges for broadcast", slog.String("error", err.Error()))
		return
	}
	matches, err := c.storage.ListActiveMatches(ctx)
	if err != nil {
		c.logger.Error("failed to list matches for broadcast", slog.String("error", err.Error()))
		return
	}
	c.publisher.PublishSnapshots(challenges, matchViews(matches))
}

func matchViews(matches []*model.Match) []model.MatchView {
	views := make([]model.MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, model.MatchView{
			ID:      m.ID,
			PlayerA: m.PlayerA.DisplayName,
			PlayerB: m.PlayerB.DisplayName,
			Stake:   m.Stake,
			State:   m.State,
		})
	}
	return views
}

package cancellation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pairwise-games/stakeroom/internal/dependencies/clock"
	"github.com/pairwise-games/stakeroom/internal/model"
	"github.com/pairwise-games/stakeroom/internal/services/balance"
	"github.com/pairwise-games/stakeroom/internal/services/match"
	"github.com/pairwise-games/stakeroom/internal/storage"
)

// Workflow handles cancellation requests and their arbitration.
//
// All match transitions run through the coordinator's per-match lock so they
// serialize with joins, completions, and forced terminations.
type Workflow struct {
	storage     storage.Storage
	coordinator *match.Coordinator
	gate        balance.Gate
	clock       clock.Clock
	logger      *slog.Logger
}

// NewWorkflow creates a new cancellation Workflow
func NewWorkflow(
	storage storage.Storage,
	coordinator *match.Coordinator,
	gate balance.Gate,
	clock clock.Clock,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		storage:     storage,
		coordinator: coordinator,
		gate:        gate,
		clock:       clock,
		logger:      logger.With(slog.String("component", "cancellation")),
	}
}

// Request opens a cancellation request against an in-progress match. The
// match moves to cancellation_requested and waits for arbitration; at most
// one request may be pending per match.
func (w *Workflow) Request(ctx context.Context, p *model.Participant, matchID model.MatchID, reason string) (*model.CancellationRequest, error) {
	var req *model.CancellationRequest

	err := w.coordinator.WithMatch(ctx, matchID, func(m *model.Match) (bool, error) {
		if m.State.Terminal() {
			return false, model.ErrMatchTerminal
		}
		if m.State == model.MatchStateCancellationRequested {
			return false, model.ErrAlreadyRequested
		}
		if m.State != model.MatchStateInProgress {
			return false, model.ErrMatchNotInProgress
		}
		if m.SlotFor(p.UserID) == nil {
			return false, model.ErrNotAParticipant
		}

		req = &model.CancellationRequest{
			ID:               model.CancellationID(uuid.NewString()),
			MatchID:          m.ID,
			RequestingUserID: p.UserID,
			Reason:           reason,
			Status:           model.CancellationPending,
			CreatedAt:        w.clock.Now(),
		}
		if err := w.storage.SaveCancellation(ctx, req); err != nil {
			return false, err
		}

		m.State = model.MatchStateCancellationRequested

		w.logger.Info("cancellation requested",
			slog.String("match_id", string(m.ID)),
			slog.String("request_id", string(req.ID)),
			slog.String("requesting_user", string(p.UserID)),
		)

		w.coordinator.SendToSlots(m, model.EventCancellationRequested, model.CancellationRequestedPayload{
			MatchID:          m.ID,
			RequestingUserID: p.UserID,
			Reason:           reason,
		})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Resolve applies an arbiter's decision to a match's pending cancellation
// request. Approval cancels the match and releases both stakes from escrow;
// rejection returns the match to in progress. Either way the decision is
// final: a second resolve reports ErrAlreadyResolved (approved) or
// ErrNoPendingRequest (rejected, request discarded).
func (w *Workflow) Resolve(ctx context.Context, matchID model.MatchID, decision model.CancellationDecision) (*model.Match, error) {
	if !decision.Valid() {
		return nil, model.ErrInvalidDecision
	}

	var resolved *model.Match

	err := w.coordinator.WithMatch(ctx, matchID, func(m *model.Match) (bool, error) {
		req, err := w.storage.GetCancellationForMatch(ctx, matchID)
		if err != nil {
			return false, err
		}
		if req.Status != model.CancellationPending {
			return false, model.ErrAlreadyResolved
		}
		if m.State != model.MatchStateCancellationRequested {
			return false, model.ErrNoPendingRequest
		}

		now := w.clock.Now()
		req.ResolvedAt = now

		switch decision {
		case model.DecisionApproved:
			// Commit the approved record before refunding: the pending
			// guard above then rejects a retry, so a save fault cannot
			// lead to the stakes being refunded twice. A refund lost to
			// a fault is recoverable from the approved record.
			req.Status = model.CancellationApproved
			if err := w.storage.SaveCancellation(ctx, req); err != nil {
				return false, err
			}

			if err := w.gate.Credit(ctx, m.PlayerA.UserID, m.Stake); err != nil {
				w.logRefundFailure(m, m.PlayerA.UserID, err)
			}
			if err := w.gate.Credit(ctx, m.PlayerB.UserID, m.Stake); err != nil {
				w.logRefundFailure(m, m.PlayerB.UserID, err)
			}

			m.State = model.MatchStateCancelled
			m.CancelReason = "cancellation_approved"

		case model.DecisionRejected:
			req.Status = model.CancellationRejected
			// A rejected request leaves no trace; the match can be
			// requested against again
			if err := w.storage.DeleteCancellationForMatch(ctx, matchID); err != nil {
				return false, err
			}
			m.State = model.MatchStateInProgress
		}

		w.logger.Info("cancellation resolved",
			slog.String("match_id", string(m.ID)),
			slog.String("request_id", string(req.ID)),
			slog.String("decision", string(decision)),
		)

		w.coordinator.SendToSlots(m, model.EventCancellationResolved, model.CancellationResolvedPayload{
			MatchID:    m.ID,
			Decision:   decision,
			MatchState: m.State,
		})

		resolved = m
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (w *Workflow) logRefundFailure(m *model.Match, userID model.UserID, err error) {
	w.logger.Error("stake refund failed, settle from the approved record",
		slog.String("match_id", string(m.ID)),
		slog.String("user_id", string(userID)),
		slog.Int64("stake", m.Stake),
		slog.String("error", err.Error()),
	)
}

// PendingRequest returns the pending request for a match, if any
func (w *Workflow) PendingRequest(ctx context.Context, matchID model.MatchID) (*model.CancellationRequest, error) {
	req, err := w.storage.GetCancellationForMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.CancellationPending {
		return nil, model.ErrNoPendingRequest
	}
	return req, nil
}

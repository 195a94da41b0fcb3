package stream

import (
	"github.com/pairwise-games/stakeroom/internal/model"
)

// Publisher is the outbound side of the coordination core. Implementations
// must not block: callers publish while holding the critical section that
// committed the transition, which is what guarantees every client observes
// snapshots in commit order.
type Publisher interface {
	// PublishSnapshots fans out the open-challenges and active-matches
	// views to every connected client. The challenge view is personalized
	// per client (own flag); the match view is shared.
	PublishSnapshots(challenges []*model.Challenge, matches []model.MatchView)

	// SendTo delivers a directed event to a single connection. Unknown
	// connection ids are ignored.
	SendTo(connID model.ConnectionID, event model.Event)

	// SendSnapshotTo delivers the current views to a single connection,
	// seeding a newly opened stream.
	SendSnapshotTo(connID model.ConnectionID, challenges []*model.Challenge, matches []model.MatchView)
}

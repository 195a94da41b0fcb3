package model

import "time"

// ChallengeID is a human-readable identifier for open challenges
type ChallengeID string

// Challenge is an open offer to play at a given stake, awaiting an acceptor.
// It lives in the challenge book from creation until it is consumed by an
// acceptance, withdrawn, expired, or removed by creator disconnect.
type Challenge struct {
	ID                  ChallengeID
	CreatorUserID       UserID
	CreatorConnectionID ConnectionID
	CreatorName         string
	Stake               int64 // minor currency units, always > 0
	CreatedAt           time.Time
}

// ChallengeView is a challenge as seen by one requester, with ownership
// annotated so clients can render withdraw vs accept controls
type ChallengeView struct {
	ID          ChallengeID
	CreatorName string
	Stake       int64
	Own         bool
}

package eco

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const sessionsCollection = "eco_sessions"

type firestoreStore struct {
	client *firestore.Client
	clock  Clock
}

// NewFirestoreStore persists session snapshots in the eco_sessions collection.
func NewFirestoreStore(client *firestore.Client, clock Clock) ProgressStore {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &firestoreStore{client: client, clock: clock}
}

type sessionDocument struct {
	UserID       string    `firestore:"user_id"`
	TotalPoints  int       `firestore:"total_points"`
	EarnedBadges []string  `firestore:"earned_badges"`
	UpdatedAt    time.Time `firestore:"updated_at"`
}

func (s *firestoreStore) Load(ctx context.Context, sessionID string) (SessionRecord, bool, error) {
	doc, err := s.client.Collection(sessionsCollection).Doc(sessionID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return SessionRecord{}, false, nil
	}
	if err != nil {
		return SessionRecord{}, false, err
	}

	var stored sessionDocument
	if err := doc.DataTo(&stored); err != nil {
		return SessionRecord{}, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return SessionRecord{
		UserID:   stored.UserID,
		Snapshot: Snapshot{TotalPoints: stored.TotalPoints, EarnedBadges: stored.EarnedBadges},
	}, true, nil
}

func (s *firestoreStore) Save(ctx context.Context, sessionID, userID string, snap Snapshot) error {
	badges := snap.EarnedBadges
	if badges == nil {
		badges = []string{}
	}
	_, err := s.client.Collection(sessionsCollection).Doc(sessionID).Set(ctx, sessionDocument{
		UserID:       userID,
		TotalPoints:  snap.TotalPoints,
		EarnedBadges: badges,
		UpdatedAt:    s.clock.Now().UTC(),
	})
	return err
}

func (s *firestoreStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.Collection(sessionsCollection).Doc(sessionID).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

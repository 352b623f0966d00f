package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/dmitrijs2005/focuskeeper/internal/models"
)

// DeleteFolder tombstones the folder and detaches every TopicConfig pointing
// at it, so the topics fall back to "unorganized". Sessions are never touched
// by a folder delete.
func (s *Store) DeleteFolder(ctx context.Context, userID string, folderID int64, now time.Time) error {
	return s.WithTx(ctx, func(ctx context.Context, tx *Store) error {
		if err := tx.Folders.SoftDelete(ctx, folderID, now); err != nil {
			return err
		}
		return tx.Topics.ClearFolder(ctx, userID, folderID, now)
	})
}

// RenameTopic bulk-updates the topic label on all sessions and on the
// TopicConfig row keyed by (user, oldTopic).
func (s *Store) RenameTopic(ctx context.Context, userID, oldTopic, newTopic string, now time.Time) error {
	return s.WithTx(ctx, func(ctx context.Context, tx *Store) error {
		if err := tx.Sessions.RenameTopic(ctx, userID, oldTopic, newTopic, now); err != nil {
			return err
		}
		return tx.Topics.RenameTopic(ctx, userID, oldTopic, newTopic, now)
	})
}

// DeleteTopic removes the topic entirely: its config row is deleted and all
// of its sessions are soft-deleted.
func (s *Store) DeleteTopic(ctx context.Context, userID, topic string, now time.Time) error {
	return s.WithTx(ctx, func(ctx context.Context, tx *Store) error {
		if err := tx.Topics.DeleteByTopic(ctx, userID, topic); err != nil {
			return err
		}
		return tx.Sessions.SoftDeleteByTopic(ctx, userID, topic, now)
	})
}

// AssignTopicFolder files the topic under folderID (nil detaches), creating
// the TopicConfig on first customization and preserving the other settings
// of an existing one.
func (s *Store) AssignTopicFolder(ctx context.Context, userID, topic string, folderID *int64, now time.Time) error {
	existing, err := s.Topics.GetByTopic(ctx, userID, topic)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	tc := &models.TopicConfig{UserID: userID, Topic: topic}
	if existing != nil {
		tc.AllowBackground = existing.AllowBackground
		tc.Color = existing.Color
	}
	tc.FolderID = folderID
	tc.UpdatedAt = now

	return s.Topics.Upsert(ctx, tc)
}

// SetTopicBackground records the topic's allow-background policy, creating
// the TopicConfig on first customization.
func (s *Store) SetTopicBackground(ctx context.Context, userID, topic string, allow bool, now time.Time) error {
	existing, err := s.Topics.GetByTopic(ctx, userID, topic)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	tc := &models.TopicConfig{UserID: userID, Topic: topic}
	if existing != nil {
		tc.FolderID = existing.FolderID
		tc.Color = existing.Color
	}
	tc.AllowBackground = allow
	tc.UpdatedAt = now

	return s.Topics.Upsert(ctx, tc)
}

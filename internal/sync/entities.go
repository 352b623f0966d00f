package sync

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/focuskeeper/internal/common"
	"github.com/dmitrijs2005/focuskeeper/internal/models"
	"github.com/dmitrijs2005/focuskeeper/internal/remote"
)

// entitySyncer is one entity kind's sync strategy. The engine drives the
// phases in dependency order (folders before sessions before topic configs);
// each syncer only knows how to dedupe, upload, and download its own rows.
type entitySyncer interface {
	name() string
	// count returns the number of local rows, tombstones included. The engine
	// uses it to detect a wiped local table.
	count(ctx context.Context) (int64, error)
	dedupe(ctx context.Context, p *pass) (int, error)
	upload(ctx context.Context, p *pass, since time.Time) (int, error)
	download(ctx context.Context, p *pass, since time.Time) (int, error)
}

// pass carries the state of one sync pass. folderMap accumulates remote→local
// folder id mappings as folders are linked or inserted, so session and config
// downloads later in the same pass can resolve their folder references.
type pass struct {
	folderMap map[int64]int64
}

// resolveFolder maps a remote folder id to a local one, consulting the rows
// touched earlier in this pass first. A nil result means the folder is not
// known locally yet; the reference stays unresolved until a later pass.
func (e *Engine) resolveFolder(ctx context.Context, p *pass, remoteID int64) (*int64, error) {
	if id, ok := p.folderMap[remoteID]; ok {
		return &id, nil
	}
	f, err := e.store.Folders.FindByRemoteID(ctx, e.userID, remoteID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.folderMap[remoteID] = f.ID
	id := f.ID
	return &id, nil
}

// remoteFolderRef converts a local folder reference to the remote folder id,
// or nil when the folder has not been uploaded yet.
func (e *Engine) remoteFolderRef(ctx context.Context, folderID *int64) (*int64, error) {
	if folderID == nil {
		return nil, nil
	}
	f, err := e.store.Folders.GetByID(ctx, *folderID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !f.Linked() {
		return nil, nil
	}
	rid := f.RemoteID
	return &rid, nil
}

// folderSyncer reconciles Folder rows.
type folderSyncer struct{ e *Engine }

func (s *folderSyncer) name() string { return "folders" }

func (s *folderSyncer) count(ctx context.Context) (int64, error) {
	return s.e.store.Folders.Count(ctx, s.e.userID)
}

// dedupe collapses local folders sharing a remote id: the lowest local id
// wins, sessions pointing at a losing duplicate are repointed, the rest are
// hard-deleted.
func (s *folderSyncer) dedupe(ctx context.Context, p *pass) (int, error) {
	groups, err := s.e.store.Folders.DuplicateRemoteIDs(ctx, s.e.userID)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, ids := range groups {
		keep := ids[0]
		for _, dup := range ids[1:] {
			if err := s.e.store.Sessions.RepointFolder(ctx, s.e.userID, dup, keep); err != nil {
				return n, err
			}
			if err := s.e.store.Folders.Delete(ctx, dup); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func (s *folderSyncer) upload(ctx context.Context, p *pass, since time.Time) (int, error) {
	dirty, err := s.e.store.Folders.ListDirty(ctx, s.e.userID, since)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range dirty {
		f := &dirty[i]
		stored, err := s.e.client.UpsertFolder(ctx, &remote.FolderRow{
			ID: f.RemoteID, UserID: f.UserID, LocalID: f.ID,
			Name: f.Name, Color: f.Color, Icon: f.Icon,
			Deleted: f.Deleted, UpdatedAt: f.UpdatedAt,
		})
		if errors.Is(err, common.ErrRemoteConflict) {
			// another device created the same folder; link to its row
			stored, err = s.e.client.FolderByLocalID(ctx, s.e.userID, f.ID)
			if errors.Is(err, common.ErrNotFound) {
				stored, err = s.e.client.FolderByName(ctx, s.e.userID, f.Name)
			}
		}
		if err != nil {
			return n, err
		}
		if !f.Linked() {
			if err := s.e.store.Folders.LinkRemote(ctx, f.ID, stored.ID); err != nil {
				return n, err
			}
		}
		p.folderMap[stored.ID] = f.ID
		n++
	}
	return n, nil
}

func (s *folderSyncer) download(ctx context.Context, p *pass, since time.Time) (int, error) {
	rows, err := s.e.client.FoldersModifiedSince(ctx, s.e.userID, since)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range rows {
		r := &rows[i]

		local, err := s.e.store.Folders.FindByRemoteID(ctx, s.e.userID, r.ID)
		if err == nil {
			p.folderMap[r.ID] = local.ID
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return n, err
		}

		// prefer linking an unlinked local twin over inserting a duplicate
		if twin, err := s.e.store.Folders.FindUnlinked(ctx, s.e.userID, r.LocalID); err == nil {
			if err := s.e.store.Folders.LinkRemote(ctx, twin.ID, r.ID); err != nil {
				return n, err
			}
			p.folderMap[r.ID] = twin.ID
			n++
			continue
		} else if !errors.Is(err, common.ErrNotFound) {
			return n, err
		}

		id, err := s.e.store.Folders.InsertFromRemote(ctx, &models.Folder{
			RemoteID: r.ID, UserID: r.UserID,
			Name: r.Name, Color: r.Color, Icon: r.Icon,
			Deleted: r.Deleted, UpdatedAt: r.UpdatedAt,
		})
		if err != nil {
			return n, err
		}
		p.folderMap[r.ID] = id
		n++
	}
	return n, nil
}

// sessionSyncer reconciles Session rows.
type sessionSyncer struct{ e *Engine }

func (s *sessionSyncer) name() string { return "sessions" }

func (s *sessionSyncer) count(ctx context.Context) (int64, error) {
	return s.e.store.Sessions.Count(ctx, s.e.userID)
}

func (s *sessionSyncer) dedupe(ctx context.Context, p *pass) (int, error) {
	groups, err := s.e.store.Sessions.DuplicateRemoteIDs(ctx, s.e.userID)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, ids := range groups {
		for _, dup := range ids[1:] {
			if err := s.e.store.Sessions.Delete(ctx, dup); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func (s *sessionSyncer) upload(ctx context.Context, p *pass, since time.Time) (int, error) {
	dirty, err := s.e.store.Sessions.ListDirty(ctx, s.e.userID, since)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range dirty {
		sess := &dirty[i]

		folderRef, err := s.e.remoteFolderRef(ctx, sess.FolderID)
		if err != nil {
			return n, err
		}

		stored, err := s.e.client.UpsertSession(ctx, &remote.SessionRow{
			ID: sess.RemoteID, UserID: sess.UserID, LocalID: sess.ID,
			Topic: sess.Topic, Tag: sess.Tag, FolderID: folderRef,
			StartTime: sess.StartTime, EndTime: sess.EndTime, Duration: sess.Duration,
			Deleted: sess.Deleted, UpdatedAt: sess.UpdatedAt,
		})
		if errors.Is(err, common.ErrRemoteConflict) {
			stored, err = s.e.client.SessionByLocalID(ctx, s.e.userID, sess.ID)
		}
		if err != nil {
			return n, err
		}
		if !sess.Linked() {
			if err := s.e.store.Sessions.LinkRemote(ctx, sess.ID, stored.ID); err != nil {
				return n, err
			}
		}
		n++
	}
	return n, nil
}

func (s *sessionSyncer) download(ctx context.Context, p *pass, since time.Time) (int, error) {
	rows, err := s.e.client.SessionsModifiedSince(ctx, s.e.userID, since)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range rows {
		r := &rows[i]

		var folderRef *int64
		if r.FolderID != nil {
			folderRef, err = s.e.resolveFolder(ctx, p, *r.FolderID)
			if err != nil {
				return n, err
			}
		}

		local, err := s.e.store.Sessions.FindByRemoteID(ctx, s.e.userID, r.ID)
		if err == nil {
			// the folder may only just have arrived in this pass
			if local.FolderID == nil && folderRef != nil {
				if err := s.e.store.Sessions.SetFolder(ctx, local.ID, folderRef, s.e.now()); err != nil {
					return n, err
				}
			}
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return n, err
		}

		if twin, err := s.e.store.Sessions.FindUnlinked(ctx, s.e.userID, r.LocalID); err == nil {
			if err := s.e.store.Sessions.LinkRemote(ctx, twin.ID, r.ID); err != nil {
				return n, err
			}
			n++
			continue
		} else if !errors.Is(err, common.ErrNotFound) {
			return n, err
		}

		if _, err := s.e.store.Sessions.InsertFromRemote(ctx, &models.Session{
			RemoteID: r.ID, UserID: r.UserID,
			Topic: r.Topic, Tag: r.Tag, FolderID: folderRef,
			StartTime: r.StartTime, EndTime: r.EndTime, Duration: r.Duration,
			Deleted: r.Deleted, UpdatedAt: r.UpdatedAt,
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// topicConfigSyncer reconciles TopicConfig rows. Their uniqueness is enforced
// locally by the (user, topic) constraint, so the dedupe phase has nothing to
// do for them.
type topicConfigSyncer struct{ e *Engine }

func (s *topicConfigSyncer) name() string { return "topic_configs" }

func (s *topicConfigSyncer) count(ctx context.Context) (int64, error) {
	return s.e.store.Topics.Count(ctx, s.e.userID)
}

func (s *topicConfigSyncer) dedupe(ctx context.Context, p *pass) (int, error) {
	return 0, nil
}

func (s *topicConfigSyncer) upload(ctx context.Context, p *pass, since time.Time) (int, error) {
	dirty, err := s.e.store.Topics.ListDirty(ctx, s.e.userID, since)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range dirty {
		tc := &dirty[i]

		folderRef, err := s.e.remoteFolderRef(ctx, tc.FolderID)
		if err != nil {
			return n, err
		}

		stored, err := s.e.client.UpsertTopicConfig(ctx, &remote.TopicConfigRow{
			ID: tc.RemoteID, UserID: tc.UserID, Topic: tc.Topic,
			FolderID: folderRef, AllowBackground: tc.AllowBackground,
			Color: tc.Color, UpdatedAt: tc.UpdatedAt,
		})
		if errors.Is(err, common.ErrRemoteConflict) {
			stored, err = s.e.client.TopicConfigByTopic(ctx, s.e.userID, tc.Topic)
		}
		if err != nil {
			return n, err
		}
		if !tc.Linked() {
			if err := s.e.store.Topics.LinkRemote(ctx, tc.ID, stored.ID); err != nil {
				return n, err
			}
		}
		n++
	}
	return n, nil
}

func (s *topicConfigSyncer) download(ctx context.Context, p *pass, since time.Time) (int, error) {
	rows, err := s.e.client.TopicConfigsModifiedSince(ctx, s.e.userID, since)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := range rows {
		r := &rows[i]

		var folderRef *int64
		if r.FolderID != nil {
			folderRef, err = s.e.resolveFolder(ctx, p, *r.FolderID)
			if err != nil {
				return n, err
			}
		}

		_, err := s.e.store.Topics.FindByRemoteID(ctx, s.e.userID, r.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, common.ErrNotFound) {
			return n, err
		}

		if twin, err := s.e.store.Topics.FindUnlinkedByTopic(ctx, s.e.userID, r.Topic); err == nil {
			if err := s.e.store.Topics.LinkRemote(ctx, twin.ID, r.ID); err != nil {
				return n, err
			}
			n++
			continue
		} else if !errors.Is(err, common.ErrNotFound) {
			return n, err
		}

		if _, err := s.e.store.Topics.InsertFromRemote(ctx, &models.TopicConfig{
			RemoteID: r.ID, UserID: r.UserID, Topic: r.Topic,
			FolderID: folderRef, AllowBackground: r.AllowBackground,
			Color: r.Color, UpdatedAt: r.UpdatedAt,
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

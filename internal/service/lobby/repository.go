package lobby

import (
	"context"
	"fmt"
	"time"

	"lobby-backend/internal/database"
	"lobby-backend/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// Repository is the durable mirror of live rooms. It is written behind the
// in-memory state and never read on the request path.
type Repository interface {
	PutRoom(ctx context.Context, item model.RoomItem) error
	UpdateRoomMembers(ctx context.Context, roomID string, players, spectators []string, status, updatedAt string) error
	DeleteRoom(ctx context.Context, roomID string) error
}

type DynamoRepository struct {
	rooms database.Table
}

func NewDynamoRepository(db *database.Database, table string) Repository {
	if table == "" {
		table = model.RoomsTable
	}
	return &DynamoRepository{rooms: db.Client.Table(table)}
}

func (r *DynamoRepository) PutRoom(ctx context.Context, item model.RoomItem) error {
	return r.rooms.Put(ctx, item)
}

func (r *DynamoRepository) UpdateRoomMembers(ctx context.Context, roomID string, players, spectators []string, status, updatedAt string) error {
	update := (&database.Update{}).
		Set("players", database.StringList(players)).
		Set("spectators", database.StringList(spectators)).
		Set("status", database.String(status)).
		Set("updatedAt", database.String(updatedAt))
	return r.rooms.Update(ctx, database.StringKey(model.RoomKeyAttr, roomID), update)
}

func (r *DynamoRepository) DeleteRoom(ctx context.Context, roomID string) error {
	return r.rooms.Delete(ctx, database.StringKey(model.RoomKeyAttr, roomID))
}

// saveRoomLocked snapshots r and writes it in the background. The password
// is hashed off the lock.
func (s *Service) saveRoomLocked(r *room) {
	if s.repo == nil {
		return
	}
	now := s.now().UTC()
	item := model.RoomItem{
		ID:         r.id,
		Creator:    r.creator,
		Players:    clone(r.players),
		Spectators: clone(r.spectators),
		Status:     string(r.status),
		CreatedAt:  r.createdAt.Unix(),
		UpdatedAt:  now.Format(time.RFC3339Nano),
	}
	password := r.password

	s.background("put_room", item.ID, func(ctx context.Context) error {
		if password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash room password: %w", err)
			}
			item.PasswordHash = string(hash)
		}
		if err := s.repo.PutRoom(ctx, item); err != nil {
			return fmt.Errorf("put room %s: %w", item.ID, err)
		}
		return nil
	})
}

func (s *Service) saveMembersLocked(r *room) {
	if s.repo == nil {
		return
	}
	roomID := r.id
	players := clone(r.players)
	spectators := clone(r.spectators)
	status := string(r.status)
	updatedAt := s.now().UTC().Format(time.RFC3339Nano)

	s.background("update_room", roomID, func(ctx context.Context) error {
		if err := s.repo.UpdateRoomMembers(ctx, roomID, players, spectators, status, updatedAt); err != nil {
			return fmt.Errorf("update room %s: %w", roomID, err)
		}
		return nil
	})
}

func (s *Service) deleteRoomLocked(roomID string) {
	if s.repo == nil {
		return
	}
	s.background("delete_room", roomID, func(ctx context.Context) error {
		if err := s.repo.DeleteRoom(ctx, roomID); err != nil {
			return fmt.Errorf("delete room %s: %w", roomID, err)
		}
		return nil
	})
}

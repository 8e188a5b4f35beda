package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/custom-chats/internal/types"
)

// stateModel maps to the chat_states table. Each profile owns one document.
type stateModel struct {
	ProfileID string `gorm:"primaryKey;size:64"`
	Version   string `gorm:"size:16;not null"`
	Document  []byte `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (stateModel) TableName() string {
	return "chat_states"
}

// ProfileInfo summarizes a stored profile.
type ProfileInfo struct {
	ProfileID string
	Bytes     int
	UpdatedAt time.Time
}

// StateRepo persists state documents.
type StateRepo struct {
	db *gorm.DB
}

// NewStateRepo returns a StateRepo.
func NewStateRepo(db *gorm.DB) *StateRepo {
	return &StateRepo{db: db}
}

// Load returns nil, nil when the profile has never been saved.
func (r *StateRepo) Load(ctx context.Context, profileID string) (*types.State, error) {
	var model stateModel
	err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat state: %w", err)
	}

	var state types.State
	if err := json.Unmarshal(model.Document, &state); err != nil {
		return nil, fmt.Errorf("failed to decode chat state: %w", err)
	}
	return &state, nil
}

// Save upserts the profile's document.
func (r *StateRepo) Save(ctx context.Context, profileID string, state *types.State) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	doc, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode chat state: %w", err)
	}

	record := stateModel{
		ProfileID: profileID,
		Version:   types.ExportVersion,
		Document:  doc,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "document", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save chat state: %w", err)
	}
	return nil
}

// Delete removes a profile's document.
func (r *StateRepo) Delete(ctx context.Context, profileID string) error {
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Delete(&stateModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete chat state: %w", err)
	}
	return nil
}

// Profiles lists the stored profiles, most recently updated first.
func (r *StateRepo) Profiles(ctx context.Context) ([]ProfileInfo, error) {
	var rows []struct {
		ProfileID string
		Bytes     int
		UpdatedAt time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&stateModel{}).
		Select("profile_id, octet_length(document::text) AS bytes, updated_at").
		Order("updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	results := make([]ProfileInfo, 0, len(rows))
	for _, row := range rows {
		results = append(results, ProfileInfo(row))
	}
	return results, nil
}

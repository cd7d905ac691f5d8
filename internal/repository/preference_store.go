package repository

import (
	"context"
	"errors"
	"time"

	"sigmapips/internal/domain/models"
	"sigmapips/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// preferenceRow is the persisted shape of a subscriber preference. The
// composite unique index enforces one row per (user, market, instrument,
// timeframe) tuple at the database level.
type preferenceRow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	UserID     int64     `gorm:"column:user_id;uniqueIndex:idx_pref_tuple;not null"`
	Market     string    `gorm:"size:16;uniqueIndex:idx_pref_tuple;not null"`
	Instrument string    `gorm:"size:16;uniqueIndex:idx_pref_tuple;not null"`
	Timeframe  string    `gorm:"size:8;uniqueIndex:idx_pref_tuple;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (preferenceRow) TableName() string { return "subscriber_preferences" }

func (r *preferenceRow) toModel() models.SubscriberPreference {
	return models.SubscriberPreference{
		ID:         r.ID,
		UserID:     r.UserID,
		Market:     r.Market,
		Instrument: r.Instrument,
		Timeframe:  r.Timeframe,
		CreatedAt:  r.CreatedAt,
	}
}

// NewGormDB opens a Postgres connection pool for the preference store.
func NewGormDB(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
}

// GormPreferenceStore implements repository.PreferenceStore on Postgres.
type GormPreferenceStore struct {
	logger *logger.Logger
	db     *gorm.DB
}

// NewGormPreferenceStore migrates the schema and returns a store.
func NewGormPreferenceStore(lgr *logger.Logger, db *gorm.DB) (*GormPreferenceStore, error) {
	if err := db.AutoMigrate(&preferenceRow{}); err != nil {
		return nil, err
	}
	return &GormPreferenceStore{logger: lgr, db: db}, nil
}

// FindDuplicate reports whether the tuple already has a row.
func (s *GormPreferenceStore) FindDuplicate(ctx context.Context, userID int64, market, instrument, timeframe string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&preferenceRow{}).
		Where("user_id = ? AND market = ? AND instrument = ? AND timeframe = ?",
			userID, market, instrument, timeframe).
		Count(&count).Error
	if err != nil {
		return false, &models.StoreUnavailable{Err: err}
	}
	return count > 0, nil
}

// Insert stores a new preference. The unique index backs up the explicit
// duplicate check, so a racing insert still cannot create a second row.
func (s *GormPreferenceStore) Insert(ctx context.Context, pref *models.SubscriberPreference) (*models.SubscriberPreference, error) {
	dup, err := s.FindDuplicate(ctx, pref.UserID, pref.Market, pref.Instrument, pref.Timeframe)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, models.ErrDuplicatePreference
	}

	row := preferenceRow{
		UserID:     pref.UserID,
		Market:     pref.Market,
		Instrument: pref.Instrument,
		Timeframe:  pref.Timeframe,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, models.ErrDuplicatePreference
		}
		return nil, &models.StoreUnavailable{Err: err}
	}

	stored := row.toModel()
	return &stored, nil
}

// ListForUser returns all preferences owned by the user, newest first.
func (s *GormPreferenceStore) ListForUser(ctx context.Context, userID int64) ([]models.SubscriberPreference, error) {
	var rows []preferenceRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, &models.StoreUnavailable{Err: err}
	}

	prefs := make([]models.SubscriberPreference, 0, len(rows))
	for i := range rows {
		prefs = append(prefs, rows[i].toModel())
	}
	return prefs, nil
}

// Delete removes a preference by id, scoped to the owning user.
func (s *GormPreferenceStore) Delete(ctx context.Context, id, userID int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&preferenceRow{})
	if res.Error != nil {
		return &models.StoreUnavailable{Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return models.ErrPreferenceNotFound
	}
	return nil
}

// ListMatching returns every row matching the routing key.
func (s *GormPreferenceStore) ListMatching(ctx context.Context, market, instrument, timeframe string) ([]models.SubscriberPreference, error) {
	var rows []preferenceRow
	err := s.db.WithContext(ctx).
		Where("market = ? AND instrument = ? AND timeframe = ?", market, instrument, timeframe).
		Find(&rows).Error
	if err != nil {
		return nil, &models.StoreUnavailable{Err: err}
	}

	prefs := make([]models.SubscriberPreference, 0, len(rows))
	for i := range rows {
		prefs = append(prefs, rows[i].toModel())
	}
	return prefs, nil
}

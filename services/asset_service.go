package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"assetcontrol-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Типы событий об изменении активов
const (
	EventAssetCreated    = "asset.created"
	EventAssetUpdated    = "asset.updated"
	EventAssetDeleted    = "asset.deleted"
	EventAssetCheckedOut = "asset.checked_out"
	EventAssetCheckedIn  = "asset.checked_in"
)

// AssetNotifier получает уведомления об успешных изменениях активов
type AssetNotifier interface {
	NotifyAssetChange(event string, payload interface{})
}

// AssetDeletedPayload payload события asset.deleted
type AssetDeletedPayload struct {
	ID uint `json:"id"`
}

// AssetService реализует жизненный цикл активов: выборку, создание, выдачу и возврат
type AssetService struct {
	db       *gorm.DB
	notifier AssetNotifier
	now      func() time.Time
}

// NewAssetService создает новый сервис активов
func NewAssetService(db *gorm.DB) *AssetService {
	return &AssetService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithNotifier подключает получателя событий об изменениях
func (s *AssetService) WithNotifier(notifier AssetNotifier) *AssetService {
	s.notifier = notifier
	return s
}

// List возвращает страницу активов с поиском и сортировкой
func (s *AssetService) List(ctx context.Context, q AssetQuery) (*PagedResult[models.Asset], error) {
	q = q.normalized()
	filter := searchScope(q.Search)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Asset{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]models.Asset, 0, q.PageSize)
	err := s.db.WithContext(ctx).
		Scopes(filter).
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.SortBy.Column()}, Desc: q.SortDir == SortDesc}).
		Order("id ASC").
		Offset(q.offset()).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &PagedResult[models.Asset]{
		Items:    items,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}

// searchScope фильтрует по подстроке в name или code без учета регистра
func searchScope(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		pattern := likePattern(term)
		return db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(code) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
}

// Get возвращает актив по ID
func (s *AssetService) Get(ctx context.Context, id uint) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.WithContext(ctx).First(&asset, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &asset, nil
}

// Create регистрирует новый актив в статусе Available.
// Проверка кода и вставка не атомарны: гонку ловит уникальный индекс, и она тоже дает ErrAssetCodeTaken.
func (s *AssetService) Create(ctx context.Context, name, code string) (*models.Asset, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Asset{}).Where("code = ?", code).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAssetCodeTaken
	}

	now := s.now()
	asset := models.Asset{
		Name:      name,
		Code:      code,
		Status:    models.AssetStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithContext(ctx).Create(&asset).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAssetCodeTaken
		}
		return nil, err
	}

	s.notify(EventAssetCreated, &asset)
	return &asset, nil
}

// Update переименовывает актив; код, статус и поля выдачи не меняются
func (s *AssetService) Update(ctx context.Context, id uint, name string) (*models.Asset, error) {
	name = strings.TrimSpace(name)

	var asset models.Asset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&asset, id).Error; err != nil {
			return translateNotFound(err)
		}

		now := s.now()
		if err := tx.Model(&asset).Updates(map[string]interface{}{
			"name":       name,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}

		asset.Name = name
		asset.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(EventAssetUpdated, &asset)
	return &asset, nil
}

// Delete безвозвратно удаляет актив
func (s *AssetService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Asset{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAssetNotFound
	}

	s.notify(EventAssetDeleted, AssetDeletedPayload{ID: id})
	return nil
}

// Checkout выдает актив: Available -> InUse
func (s *AssetService) Checkout(ctx context.Context, id uint, takenBy string, note *string) (*models.Asset, error) {
	holder := strings.TrimSpace(takenBy)
	now := s.now()

	asset, err := s.transition(ctx, id, models.AssetStatusAvailable, ErrAssetAlreadyInUse, map[string]interface{}{
		"status":         models.AssetStatusInUse,
		"checked_out_by": holder,
		"notes":          trimmedOrNil(note),
		"checked_out_at": now,
		"updated_at":     now,
	})
	if err != nil {
		return nil, err
	}

	s.notify(EventAssetCheckedOut, asset)
	return asset, nil
}

// Checkin возвращает актив: InUse -> Available, поля выдачи очищаются
func (s *AssetService) Checkin(ctx context.Context, id uint) (*models.Asset, error) {
	asset, err := s.transition(ctx, id, models.AssetStatusInUse, ErrAssetAlreadyAvailable, map[string]interface{}{
		"status":         models.AssetStatusAvailable,
		"checked_out_by": nil,
		"notes":          nil,
		"checked_out_at": nil,
		"updated_at":     s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.notify(EventAssetCheckedIn, asset)
	return asset, nil
}

// transition выполняет переход статуса только из состояния from.
// UPDATE ограничен условием status = from, поэтому параллельный переход дает rejected, а не двойную запись.
func (s *AssetService) transition(ctx context.Context, id uint, from models.AssetStatus, rejected error, updates map[string]interface{}) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&asset, id).Error; err != nil {
			return translateNotFound(err)
		}
		if asset.Status != from {
			return rejected
		}

		result := tx.Model(&models.Asset{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return rejected
		}

		asset = models.Asset{}
		return tx.First(&asset, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *AssetService) notify(event string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.NotifyAssetChange(event, payload)
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAssetNotFound
	}
	return err
}

// isDuplicateKey распознает нарушение уникального индекса.
// Строковая проверка нужна для драйверов, которые не переводят ошибку в gorm.ErrDuplicatedKey.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

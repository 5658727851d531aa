package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/database"
	notificationDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/leave-management/internal/notification"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.RepositoryAPI {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	model := notification.ToDataModel(n)
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	n.ID = model.ID
	n.CreatedAt = model.CreatedAt
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	var model notificationDatamodel.Notification
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrNotificationNotFound
		}
		return nil, err
	}
	return notification.FromDataModel(&model), nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]*notification.Notification, error) {
	q := database.Conn(ctx, r.db).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var models []*notificationDatamodel.Notification
	if err := q.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return notification.FromDataModelSlice(models), nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, n *notification.Notification) error {
	result := database.Conn(ctx, r.db).
		Model(&notificationDatamodel.Notification{ID: n.ID}).
		Updates(map[string]interface{}{"is_read": true, "read_at": n.ReadAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrNotificationNotFound
	}
	return nil
}

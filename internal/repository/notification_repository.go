package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/stjcampus/events-api/internal/models"
)

// NotificationRepository persists mailbox messages, recipients, and replies.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification and its explicit recipient rows.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification, recipientIDs []string) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create notification: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO notifications (id, title, content, audience, target_department, event_id, created_by, created_at)
VALUES (:id, :title, :content, :audience, :target_department, :event_id, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	for _, recipientID := range recipientIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notification_recipients (notification_id, user_id) VALUES ($1, $2)`, notification.ID, recipientID); err != nil {
			return fmt.Errorf("add notification recipient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create notification: %w", err)
	}
	return nil
}

// ListInbox returns notifications visible to a user: broadcasts, their
// department's messages, and ones addressed to them explicitly.
func (r *NotificationRepository) ListInbox(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationDetail, int, error) {
	base := `FROM notifications n
JOIN users s ON s.id = n.created_by
WHERE (n.audience = 'ALL'
   OR (n.audience = 'DEPARTMENT' AND n.target_department = $2)
   OR (n.audience = 'USERS' AND EXISTS (
        SELECT 1 FROM notification_recipients nr WHERE nr.notification_id = n.id AND nr.user_id = $1)))`
	args := []interface{}{filter.UserID, filter.Department}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT n.id, n.title, n.content, n.audience, n.target_department, n.event_id, n.created_by, n.created_at,
        s.full_name AS sender_name,
        (SELECT COUNT(*) FROM notification_replies nrep WHERE nrep.notification_id = n.id) AS reply_count
        %s ORDER BY n.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var notifications []models.NotificationDetail
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list inbox: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count inbox: %w", err)
	}
	return notifications, total, nil
}

// FindByID returns one notification with sender metadata.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.NotificationDetail, error) {
	const query = `SELECT n.id, n.title, n.content, n.audience, n.target_department, n.event_id, n.created_by, n.created_at,
s.full_name AS sender_name,
(SELECT COUNT(*) FROM notification_replies nrep WHERE nrep.notification_id = n.id) AS reply_count
FROM notifications n
JOIN users s ON s.id = n.created_by
WHERE n.id = $1`
	var notification models.NotificationDetail
	if err := r.db.GetContext(ctx, &notification, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return &notification, nil
}

// IsVisibleTo reports whether the user may read and reply to the notification.
func (r *NotificationRepository) IsVisibleTo(ctx context.Context, notificationID, userID, department string) (bool, error) {
	const query = `SELECT 1 FROM notifications n
WHERE n.id = $1 AND (n.audience = 'ALL'
   OR (n.audience = 'DEPARTMENT' AND n.target_department = $3)
   OR (n.audience = 'USERS' AND EXISTS (
        SELECT 1 FROM notification_recipients nr WHERE nr.notification_id = n.id AND nr.user_id = $2))
   OR n.created_by = $2)
LIMIT 1`
	var visible int
	if err := r.db.GetContext(ctx, &visible, query, notificationID, userID, department); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check notification visibility: %w", err)
	}
	return true, nil
}

// CreateReply appends a threaded reply.
func (r *NotificationRepository) CreateReply(ctx context.Context, reply *models.NotificationReply) error {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notification_replies (id, notification_id, user_id, content, created_at)
VALUES (:id, :notification_id, :user_id, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reply); err != nil {
		return fmt.Errorf("create notification reply: %w", err)
	}
	return nil
}

// ListReplies returns the reply thread in chronological order.
func (r *NotificationRepository) ListReplies(ctx context.Context, notificationID string) ([]models.NotificationReply, error) {
	const query = `SELECT nr.id, nr.notification_id, nr.user_id, u.full_name AS user_name, nr.content, nr.created_at
FROM notification_replies nr
JOIN users u ON u.id = nr.user_id
WHERE nr.notification_id = $1 ORDER BY nr.created_at`
	var replies []models.NotificationReply
	if err := r.db.SelectContext(ctx, &replies, query, notificationID); err != nil {
		return nil, fmt.Errorf("list notification replies: %w", err)
	}
	return replies, nil
}

// Count returns the total number of notifications.
func (r *NotificationRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return total, nil
}

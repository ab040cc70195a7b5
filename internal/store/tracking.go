package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/utamuwetu/storefront/internal/database"
	"github.com/utamuwetu/storefront/internal/models"
)

type AppendTrackingRequest struct {
	Status   string
	Location string
	Message  string
}

// AppendTracking writes one event to the order's tracking log and mirrors
// the status onto the order's delivery_status. The log itself is append-only;
// existing rows are never updated or deleted. The first transition to
// Shipped assigns the order a carrier tracking number.
func AppendTracking(ctx context.Context, db *sql.DB, orderID int64, req AppendTrackingRequest) (*models.TrackingEvent, error) {
	event := &models.TrackingEvent{}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var trackingNumber *string
		err := tx.QueryRowContext(ctx,
			`SELECT tracking_number FROM orders WHERE id = $1 FOR UPDATE`,
			orderID).Scan(&trackingNumber)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO tracking_history (order_id, status, location, message, timestamp)
			 VALUES ($1, $2, $3, $4, NOW())
			 RETURNING id, order_id, status, location, message, timestamp`,
			orderID, req.Status, req.Location, req.Message).Scan(
			&event.ID,
			&event.OrderID,
			&event.Status,
			&event.Location,
			&event.Message,
			&event.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append tracking event: %w", err)
		}

		if req.Status == models.DeliveryStatusShipped && trackingNumber == nil {
			tn := newTrackingNumber()
			trackingNumber = &tn
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders
			 SET delivery_status = $2,
			     tracking_number = COALESCE(tracking_number, $3),
			     updated_at = NOW()
			 WHERE id = $1`,
			orderID, req.Status, trackingNumber); err != nil {
			return fmt.Errorf("update delivery status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

func newTrackingNumber() string {
	return "TRK-" + strings.ToUpper(uuid.NewString()[:13])
}

// ListTracking returns the order's tracking log, newest first.
func ListTracking(ctx context.Context, db *sql.DB, orderID int64) ([]models.TrackingEvent, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return nil, database.ErrOrderNotFound
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, status, location, message, timestamp
		 FROM tracking_history
		 WHERE order_id = $1
		 ORDER BY timestamp DESC, id DESC`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("list tracking events: %w", err)
	}
	defer rows.Close()

	var events []models.TrackingEvent
	for rows.Next() {
		var e models.TrackingEvent
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &e.Location, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan tracking event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

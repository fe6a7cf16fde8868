package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"bikeshare/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRideStarted   NotificationType = "RIDE_STARTED"
	NotificationRideCompleted NotificationType = "RIDE_COMPLETED"
	NotificationRideCancelled NotificationType = "RIDE_CANCELLED"
	NotificationLowBalance    NotificationType = "LOW_BALANCE"
)

// Notification represents an event published to the notification sink.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService publishes ride events to the notification sink.
// Delivery is fire-and-forget: failures are logged and never propagated
// to the caller.
type NotificationService struct {
	// In a real deployment this would hold push/SMS/email clients.
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyRideStarted tells the rider their ride has begun.
func (s *NotificationService) NotifyRideStarted(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, Notification{
		Type:        NotificationRideStarted,
		RecipientID: ride.RiderID,
		Title:       "Ride Started",
		Message:     fmt.Sprintf("Bike unlocked at (%.4f, %.4f). Enjoy your ride!", ride.StartLat, ride.StartLng),
		Data: map[string]interface{}{
			"ride_id":    ride.ID,
			"bike_id":    ride.BikeID,
			"started_at": ride.StartedAt,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRideCompleted tells the rider their ride has been settled.
func (s *NotificationService) NotifyRideCompleted(ctx context.Context, ride *domain.Ride, newBalance float64) error {
	return s.send(ctx, Notification{
		Type:        NotificationRideCompleted,
		RecipientID: ride.RiderID,
		Title:       "Ride Completed",
		Message:     fmt.Sprintf("Your ride cost %.2f. %d min, %.2f km.", ride.Cost, ride.DurationMin, ride.DistanceKm),
		Data: map[string]interface{}{
			"ride_id":     ride.ID,
			"cost":        ride.Cost,
			"duration":    ride.DurationMin,
			"distance_km": ride.DistanceKm,
			"balance":     newBalance,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyRideCancelled tells the rider their ride was cancelled.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride) error {
	return s.send(ctx, Notification{
		Type:        NotificationRideCancelled,
		RecipientID: ride.RiderID,
		Title:       "Ride Cancelled",
		Message:     "Your ride was cancelled. No charge was applied.",
		Data: map[string]interface{}{
			"ride_id": ride.ID,
			"bike_id": ride.BikeID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyLowBalance warns the rider their balance dropped below a threshold.
func (s *NotificationService) NotifyLowBalance(ctx context.Context, riderID string, balance float64) error {
	return s.send(ctx, Notification{
		Type:        NotificationLowBalance,
		RecipientID: riderID,
		Title:       "Low Balance",
		Message:     fmt.Sprintf("Your wallet balance is down to %.2f. Top up to keep riding.", balance),
		Data: map[string]interface{}{
			"balance": balance,
		},
		CreatedAt: time.Now(),
	})
}

// send delivers a notification (log-backed implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}

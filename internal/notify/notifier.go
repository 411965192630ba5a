package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/diagnosis/bnb-marketplace/pkg/events"
	"github.com/diagnosis/bnb-marketplace/pkg/logger"
)

// UserLookup resolves the recipient of a notification.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Notifier turns booking events into emails: hosts hear about new requests,
// renters hear about status changes.
type Notifier struct {
	users  UserLookup
	mailer Mailer
}

func NewNotifier(users UserLookup, mailer Mailer) *Notifier {
	return &Notifier{users: users, mailer: mailer}
}

// Subscribe registers the notifier on the bus under a queue group so each
// event is handled by one notify instance.
func (n *Notifier) Subscribe(bus events.Subscriber, queue string) error {
	for _, subject := range []string{events.BookingCreated, events.BookingStatusChanged} {
		if err := bus.QueueSubscribe(subject, queue, n.handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}
	return nil
}

func (n *Notifier) handle(msg *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := n.Handle(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to handle event", "subject", msg.Subject, "error", err)
	}
}

func (n *Notifier) Handle(ctx context.Context, msg *events.Message) error {
	switch msg.Subject {
	case events.BookingCreated:
		var ev events.BookingCreatedEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		return n.bookingCreated(ctx, ev)
	case events.BookingStatusChanged:
		var ev events.BookingStatusChangedEvent
		if err := msg.Decode(&ev); err != nil {
			return err
		}
		return n.statusChanged(ctx, ev)
	default:
		logger.DebugContext(ctx, "Ignoring event", "subject", msg.Subject)
		return nil
	}
}

func (n *Notifier) bookingCreated(ctx context.Context, ev events.BookingCreatedEvent) error {
	host, err := n.recipient(ctx, ev.HostID)
	if err != nil || host == nil {
		return err
	}
	email := bookingRequestEmail(host.Email, host.DisplayName(), ev.PropertyName, ev.CheckInDate, ev.CheckOutDate, ev.TotalPrice)
	if err := n.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to email host: %w", err)
	}
	logger.InfoContext(ctx, "Host notified of booking request", "booking_id", ev.BookingID, "host_id", ev.HostID)
	return nil
}

func (n *Notifier) statusChanged(ctx context.Context, ev events.BookingStatusChangedEvent) error {
	if ev.OldStatus == ev.NewStatus {
		return nil
	}
	renter, err := n.recipient(ctx, ev.RenterID)
	if err != nil || renter == nil {
		return err
	}
	email := bookingStatusEmail(renter.Email, renter.DisplayName(), ev.PropertyName, ev.NewStatus, ev.CheckInDate, ev.CheckOutDate)
	if err := n.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to email renter: %w", err)
	}
	logger.InfoContext(ctx, "Renter notified of status change", "booking_id", ev.BookingID, "status", ev.NewStatus)
	return nil
}

// recipient returns nil without error when the user no longer exists.
func (n *Notifier) recipient(ctx context.Context, userID string) (*domain.User, error) {
	u, err := n.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if u == nil {
		logger.WarnContext(ctx, "Notification recipient not found", "user_id", userID)
	}
	return u, nil
}

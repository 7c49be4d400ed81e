// Package notify delivers user-facing cart notifications such as
// "Requested quantity is out of stock".
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Level is the severity shown to the shopper.
type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

// Codes and messages raised by the cart.
const (
	CodeStockExceeded = "STOCK_EXCEEDED"
	CodeAddFailed     = "ADD_FAILED"
	CodeRemoveFailed  = "REMOVE_FAILED"
	CodeUpdateFailed  = "UPDATE_FAILED"

	MessageStockExceeded = "Requested quantity is out of stock"
	MessageAddFailed     = "Error adding product"
	MessageRemoveFailed  = "Error removing product"
	MessageUpdateFailed  = "Error changing product quantity"
)

// Notification is a message for the shopper.
type Notification struct {
	Level     Level  `json:"level"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	ProductID int64  `json:"product_id,omitempty"`
}

// StockExceeded is raised when a requested amount is above the stock count.
func StockExceeded(productID int64) Notification {
	return Notification{Level: LevelError, Code: CodeStockExceeded, Message: MessageStockExceeded, ProductID: productID}
}

// AddFailed is raised when adding a product fails for any other reason.
func AddFailed(productID int64) Notification {
	return Notification{Level: LevelError, Code: CodeAddFailed, Message: MessageAddFailed, ProductID: productID}
}

// RemoveFailed is raised when the product is not in the cart or the removal
// could not be stored.
func RemoveFailed(productID int64) Notification {
	return Notification{Level: LevelError, Code: CodeRemoveFailed, Message: MessageRemoveFailed, ProductID: productID}
}

// UpdateFailed is raised when changing an amount fails for any reason other
// than stock.
func UpdateFailed(productID int64) Notification {
	return Notification{Level: LevelError, Code: CodeUpdateFailed, Message: MessageUpdateFailed, ProductID: productID}
}

// Notifier delivers notifications. Implementations must be safe for
// concurrent use. Delivery errors are the notifier's concern; the cart never
// fails an operation because a notification could not be delivered.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs at warn level.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	l.logger.WarnContext(ctx, "cart notification",
		slog.String("level", string(n.Level)),
		slog.String("code", n.Code),
		slog.String("message", n.Message),
		slog.Int64("product_id", n.ProductID),
	)
	return nil
}

// Multi fans a notification out to every notifier, returning the joined
// errors of those that failed.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range m {
		if nt == nil {
			continue
		}
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

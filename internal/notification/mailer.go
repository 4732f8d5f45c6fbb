package notification

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
)

// Mailer sends order notifications. The SMTP variant is constructed once
// at startup and passed by reference; there is no package-level
// transporter.
type Mailer interface {
	SendOrderConfirmation(to string, order domain.Order) error
	SendShippingNotification(to string, order domain.Order) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func NewSMTPMailer(host string, port int, username, password, from string, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		logger: logger,
	}
}

func (m *SMTPMailer) SendOrderConfirmation(to string, order domain.Order) error {
	html := fmt.Sprintf(`
    <h2>Order Confirmation</h2>
    <p>Thank you for your order!</p>
    <ul>
      <li><strong>Order ID:</strong> %s</li>
      <li><strong>Product:</strong> %s</li>
      <li><strong>Amount:</strong> ₹%.2f</li>
    </ul>
    <p>We'll notify you once your order is shipped.</p>`,
		order.OrderID, order.ProductName, order.Amount)

	return m.send(to, "Order Confirmation", html)
}

func (m *SMTPMailer) SendShippingNotification(to string, order domain.Order) error {
	trackingNumber := order.Tracking.TrackingNumber
	if trackingNumber == "" {
		trackingNumber = "N/A"
	}
	html := fmt.Sprintf(`
    <h2>Your Order Has Been Shipped!</h2>
    <p>Great news! Your order is on its way.</p>
    <ul>
      <li><strong>Order ID:</strong> %s</li>
      <li><strong>Tracking Number:</strong> %s</li>
    </ul>
    <p><a href="%s">Track your order</a></p>`,
		order.OrderID, trackingNumber, order.Tracking.TrackingURL)

	return m.send(to, "Your Order Has Been Shipped", html)
}

func (m *SMTPMailer) send(to, subject, html string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send %q email to %s: %w", subject, to, err)
	}
	return nil
}

// services/notification_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"yogastore-backend/models"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier delivers purchase receipts to customers.
type Notifier interface {
	PurchaseCompleted(ctx context.Context, customer models.Customer, receipt *Receipt) error
}

// TwilioNotifier sends receipts by SMS, or WhatsApp for E.164 numbers when a
// WhatsApp sender is configured.
type TwilioNotifier struct {
	client        *twilio.RestClient
	from          string
	whatsappFrom  string
	createMessage func(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

func NewTwilioNotifier(accountSid, authToken, from, whatsappFrom string) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &TwilioNotifier{
		client:        client,
		from:          from,
		whatsappFrom:  whatsappFrom,
		createMessage: client.Api.CreateMessage,
	}
}

func (n *TwilioNotifier) PurchaseCompleted(ctx context.Context, customer models.Customer, receipt *Receipt) error {
	if customer.PhoneNumber == "" {
		return nil
	}

	to, from := customer.PhoneNumber, n.from
	channel := "sms"
	if strings.HasPrefix(customer.PhoneNumber, "+") && n.whatsappFrom != "" {
		to = "whatsapp:" + customer.PhoneNumber
		from = "whatsapp:" + n.whatsappFrom
		channel = "whatsapp"
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(receiptMessage(customer, receipt))

	resp, err := n.createMessage(params)
	if err != nil {
		return fmt.Errorf("send %s receipt: %w", channel, err)
	}
	fields := logrus.Fields{"customer_id": customer.ID, "channel": channel}
	if resp != nil && resp.Sid != nil {
		fields["sid"] = *resp.Sid
	}
	logrus.WithFields(fields).Info("purchase receipt sent")
	return nil
}

// LogNotifier is used when no SMS provider is configured.
type LogNotifier struct{}

func (LogNotifier) PurchaseCompleted(ctx context.Context, customer models.Customer, receipt *Receipt) error {
	logrus.WithFields(logrus.Fields{
		"customer_id":    customer.ID,
		"transaction_id": receipt.TransactionID,
	}).Info(receiptMessage(customer, receipt))
	return nil
}

func receiptMessage(customer models.Customer, receipt *Receipt) string {
	name := customer.Name
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s, you're enrolled in %s. Paid %s by %s on %s. Remaining balance: %s.",
		name,
		receipt.CourseTitle,
		models.FormatPrice(receipt.Price),
		receipt.PaymentMethod,
		receipt.PurchasedAt.Format("Jan 2, 2006"),
		models.FormatPrice(receipt.Balance),
	)
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"yogastore-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

func sampleReceipt() *Receipt {
	return &Receipt{
		TransactionID: 12,
		CourseTitle:   "Morning Flow",
		Price:         decimal.RequireFromString("29.99"),
		PaymentMethod: "Credit Card",
		Balance:       decimal.RequireFromString("20.01"),
		PurchasedAt:   time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}

func TestTwilioNotifier_ChoosesChannel(t *testing.T) {
	var sent []*twilioApi.CreateMessageParams
	n := &TwilioNotifier{
		from:         "+15550000",
		whatsappFrom: "+15551111",
		createMessage: func(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
			sent = append(sent, p)
			sid := "SM123"
			return &twilioApi.ApiV2010Message{Sid: &sid}, nil
		},
	}
	ctx := context.Background()

	require.NoError(t, n.PurchaseCompleted(ctx, models.Customer{ID: 1, Name: "Ana", PhoneNumber: "+15552222"}, sampleReceipt()))
	require.NoError(t, n.PurchaseCompleted(ctx, models.Customer{ID: 2, PhoneNumber: "5553333"}, sampleReceipt()))
	require.NoError(t, n.PurchaseCompleted(ctx, models.Customer{ID: 3}, sampleReceipt()), "no phone is not an error")

	require.Len(t, sent, 2)
	assert.Equal(t, "whatsapp:+15552222", *sent[0].To)
	assert.Equal(t, "whatsapp:+15551111", *sent[0].From)
	assert.Equal(t, "5553333", *sent[1].To)
	assert.Equal(t, "+15550000", *sent[1].From)
	assert.Contains(t, *sent[0].Body, "Hi Ana, you're enrolled in Morning Flow. Paid $29.99 by Credit Card on Mar 4, 2025")
	assert.Contains(t, *sent[1].Body, "Hi there")
}

func TestTwilioNotifier_WrapsSendErrors(t *testing.T) {
	boom := errors.New("twilio down")
	n := &TwilioNotifier{
		from: "+15550000",
		createMessage: func(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
			return nil, boom
		},
	}
	err := n.PurchaseCompleted(context.Background(), models.Customer{PhoneNumber: "+15552222"}, sampleReceipt())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "sms")
}

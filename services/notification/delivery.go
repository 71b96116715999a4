package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

// Delivery sends one push message and returns the transport's message id.
type Delivery interface {
	Send(ctx context.Context, deviceToken, title, body string, data map[string]string) (string, error)
}

// MessageSender is the part of *messaging.Client used for delivery.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMDelivery is the production Delivery over Firebase Cloud Messaging.
type FCMDelivery struct {
	client MessageSender
}

func NewFCMDelivery(client MessageSender) (*FCMDelivery, error) {
	if client == nil {
		return nil, fmt.Errorf("fcm delivery initialization error: messaging client is nil")
	}
	return &FCMDelivery{client: client}, nil
}

// Send pushes a notification to a single device token.
func (d *FCMDelivery) Send(ctx context.Context, deviceToken, title, body string, data map[string]string) (string, error) {
	if deviceToken == "" {
		return "", fmt.Errorf("Send: empty device token")
	}

	id, err := d.client.Send(ctx, buildMessage(deviceToken, title, body, data))
	if err != nil {
		return "", fmt.Errorf("Send: failed to send FCM message: %w", err)
	}
	return id, nil
}

func buildMessage(token, title, body string, data map[string]string) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "expiry_reminders",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
}

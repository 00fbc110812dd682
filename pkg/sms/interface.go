package sms

import "context"

type SMSProvider interface {
	SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error)
	SendBulkSMS(ctx context.Context, requests []*SMSRequest) ([]*SMSResponse, error)
}

type SMSRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type SMSResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

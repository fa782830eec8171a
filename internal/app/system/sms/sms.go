// Package sms delivers one-time codes to mobile numbers.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sender delivers a text message to a mobile number.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// LogSender writes messages to the log instead of sending them.
// For local development and demo deployments only.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(ctx context.Context, to, message string) error {
	s.Log.Info("sms (log provider)",
		zap.String("to", Mask(to)),
		zap.String("message", message))
	return nil
}

// DefaultTwilioBaseURL is the Twilio REST API root.
const DefaultTwilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioSender sends messages through the Twilio Messages API.
type TwilioSender struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Client     *http.Client
	Log        *zap.Logger
}

// NewTwilioSender returns a sender with a 30s HTTP client.
func NewTwilioSender(accountSID, authToken, from string, logger *zap.Logger) *TwilioSender {
	return &TwilioSender{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		BaseURL:    DefaultTwilioBaseURL,
		Client:     &http.Client{Timeout: 30 * time.Second},
		Log:        logger,
	}
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *TwilioSender) Send(ctx context.Context, to, message string) error {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.From)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimRight(s.BaseURL, "/"), url.PathEscape(s.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.SetBasicAuth(s.AccountSID, s.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read sms response: %w", err)
	}

	var tr twilioResponse
	_ = json.Unmarshal(body, &tr)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if tr.Message != "" {
			return fmt.Errorf("sms provider returned %d (code %d): %s", resp.StatusCode, tr.Code, tr.Message)
		}
		return fmt.Errorf("sms provider returned %d", resp.StatusCode)
	}

	if s.Log != nil {
		s.Log.Info("sms sent",
			zap.String("to", Mask(to)),
			zap.String("sid", tr.SID),
			zap.String("status", tr.Status))
	}
	return nil
}

// Mask hides all but the last four digits of a mobile number.
func Mask(mobile string) string {
	if len(mobile) <= 4 {
		return strings.Repeat("*", len(mobile))
	}
	return strings.Repeat("*", len(mobile)-4) + mobile[len(mobile)-4:]
}

// OTPMessage is the text sent for a verification code.
func OTPMessage(code string, expiry time.Duration) string {
	return fmt.Sprintf("Your DrShaadi verification code is %s. It expires in %d minutes.", code, int(expiry.Round(time.Minute)/time.Minute))
}

package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ParseForecastRequest decodes a raw Kafka message into a ForecastRequest.
// A message without a city in its body falls back to the message key.
func ParseForecastRequest(raw RawRequest) (ForecastRequest, error) {
	var req ForecastRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return ForecastRequest{}, ErrInvalidRequest(err, "decode forecast request")
	}
	if strings.TrimSpace(req.City) == "" {
		req.City = strings.TrimSpace(string(raw.Key))
	}
	if req.City == "" {
		return ForecastRequest{}, ErrInvalidRequest(nil, "forecast request has no city")
	}
	return req, nil
}

// OutlookKey is the message key for an outlook: "city|selected_date".
func OutlookKey(o Outlook) string {
	return o.City + "|" + o.SelectedDate
}

// SerializeOutlook converts an Outlook to a Kafka output message, stamping
// the generation time from the package clock.
func SerializeOutlook(o Outlook) (OutputMessage, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return OutputMessage{}, fmt.Errorf("marshal outlook: %w", err)
	}
	return OutputMessage{
		Key:   []byte(OutlookKey(o)),
		Value: data,
		Headers: map[string]string{
			"city":         o.City,
			"region":       o.Region,
			"generated_at": Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

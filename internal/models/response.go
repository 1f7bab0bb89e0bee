// Package models holds the JSON shapes served by the HTTP API.
package models

import (
	"flex.onebusaway.org/internal/clock"
)

// ResponseModel is the envelope every API response is wrapped in.
type ResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Data        any    `json:"data,omitempty"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func NewOKResponse(data any, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        200,
		CurrentTime: ResponseCurrentTime(c),
		Data:        data,
		Text:        "OK",
		Version:     1,
	}
}

func NewErrorResponse(code int, text string, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(c),
		Text:        text,
		Version:     1,
	}
}

func ResponseCurrentTime(c clock.Clock) int64 {
	return c.NowUnixMilli()
}

// EntryData wraps a single object.
type EntryData struct {
	Entry any `json:"entry"`
}

// ListData wraps a list of objects.
type ListData struct {
	List          any  `json:"list"`
	LimitExceeded bool `json:"limitExceeded"`
}

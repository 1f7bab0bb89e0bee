package models

import "time"

type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
}

func NewCurrentTimeData(t time.Time) EntryData {
	return EntryData{
		Entry: CurrentTimeModel{
			ReadableTime: t.Format(time.RFC3339),
			Time:         t.UnixMilli(),
		},
	}
}

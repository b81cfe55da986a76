package models

import "encoding/json"

// Requests for bias HTTP endpoints. Defined in domain for consistency and reuse.

type TriggerUpdateRequest struct {
	Asset  string `json:"asset" validate:"required,len=3"`
	Reason string `json:"reason" default:"manual" validate:"required,max=128"`
}

type ScheduledEventRequest struct {
	Asset  string `json:"asset" validate:"required,len=3"`
	At     string `json:"at" validate:"required"` // RFC3339
	Reason string `json:"reason" validate:"required,max=128"`
}

type SubmitRecordRequest struct {
	Kind    string          `json:"kind" validate:"required,oneof=economic cot sentiment calendar"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type HistoryRequest struct {
	Asset string `json:"asset" query:"asset" validate:"required,len=3"`
	From  string `json:"from" query:"from"`
	To    string `json:"to" query:"to"`
	Limit int    `json:"limit" query:"limit" default:"100" validate:"min=1,max=1000"`
}

type FactorWeightRequest struct {
	Name   string  `json:"name" validate:"required,max=64"`
	Weight float64 `json:"weight" validate:"required,gt=0,lte=10"`
}

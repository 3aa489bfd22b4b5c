// Package api contains the HTTP contract of the LabPulse analysis API.
// Version v1 represents the current stable API version.
package api

import (
	"labpulse/pkg/contracts/domain"
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
)

// Analysis API Requests

// AnalysisQuery holds the query parameters every view accepts. Empty
// selections mean "All" and "All Labs".
type AnalysisQuery struct {
	Profile string `json:"profile" query:"profile" validate:"max=256,selection"`
	Lab     string `json:"lab" query:"lab" validate:"max=256,selection"`
	Format  string `json:"format" query:"format" validate:"omitempty,oneof=json csv xlsx"`
	Period  string `json:"period" query:"period" validate:"omitempty,oneof=monthly weekly"`
}

// Filter returns the normalized selection of the query.
func (q AnalysisQuery) Filter() domain.Filter {
	return domain.NewFilter(q.Profile, q.Lab)
}

// Analysis API Responses

// Response wraps a successful result.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

// ListResponse wraps a list of profile ids or lab names.
type ListResponse struct {
	Status string   `json:"status"`
	Data   []string `json:"data"`
	Count  int      `json:"count"`
}

// EmptyResponse answers a selection that matched no record.
type EmptyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewResponse wraps data with the success status.
func NewResponse(data any) Response {
	return Response{Status: StatusSuccess, Data: data}
}

// NewListResponse wraps values with the success status and their count.
func NewListResponse(values []string) ListResponse {
	if values == nil {
		values = []string{}
	}
	return ListResponse{Status: StatusSuccess, Data: values, Count: len(values)}
}

// NewEmptyResponse is the answer to an empty selection.
func NewEmptyResponse() EmptyResponse {
	return EmptyResponse{Status: StatusEmpty, Message: domain.EmptySelectionMessage}
}

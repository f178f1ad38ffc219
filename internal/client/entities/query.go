package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/iudanet/ngsiadmin/internal/validation"
	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

// MeasurementRequest identifies an entity and the attribute to read.
type MeasurementRequest struct {
	URN  string
	Name string
}

// MeasurementResult is the value read by QueryEntity.
type MeasurementResult struct {
	Timestamp *time.Time `json:"timestamp,omitempty"` // TimeInstant в UTC, nil если отсутствует или не разобран
	URN       string     `json:"urn"`
	Name      string     `json:"name"`
	Value     string     `json:"value"`
}

// QueryEntity reads the attribute req.Name of entity req.URN.
//
// Transport and status errors are logged and returned with a nil result.
// A response without the attribute or its value yields ErrMissingField.
func (s *Service) QueryEntity(ctx context.Context, req MeasurementRequest) (*MeasurementResult, error) {
	if err := validation.ValidateMeasurementRequest(req.URN, req.Name); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Get(ctx, pathEntities+"/"+url.PathEscape(req.URN), nil)
	if err != nil {
		s.logger.Error("Failed to get entity", "urn", req.URN, "error", err)
		return nil, fmt.Errorf("failed to get entity %s: %w", req.URN, err)
	}

	var entity ngsi.Entity
	if err := json.Unmarshal(resp.Body, &entity); err != nil || entity == nil {
		return nil, fmt.Errorf("entity %s: %w", req.URN, ErrMalformedResponse)
	}

	result := &MeasurementResult{
		URN:       req.URN,
		Name:      req.Name,
		Timestamp: timeInstant(entity),
	}

	attr, ok := entity.Attribute(req.Name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", req.Name, ErrMissingField)
	}
	if !attr.HasValue() {
		return nil, fmt.Errorf("%s.value: %w", req.Name, ErrMissingField)
	}
	result.Value = attr.ValueString()

	return result, nil
}

// timeInstant разбирает TimeInstant.value как RFC 3339 и переводит в UTC.
// Ошибка разбора не считается ошибкой запроса.
func timeInstant(entity ngsi.Entity) *time.Time {
	attr, ok := entity.Attribute(ngsi.KeyTimeInstant)
	if !ok {
		return nil
	}
	raw, ok := attr.Value.(string)
	if !ok {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil
	}
	ts = ts.UTC()
	return &ts
}

package entities

import (
	"context"
	"fmt"
	"net/url"

	"github.com/iudanet/ngsiadmin/internal/client/api"
	"github.com/iudanet/ngsiadmin/internal/logging"
	"github.com/iudanet/ngsiadmin/internal/validation"
	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

// UploadEntities creates entities with the append_strict action. The broker
// rejects entities that already exist.
//
// keyValues selects the simplified attribute encoding on the broker side;
// entities must already be encoded accordingly.
func (s *Service) UploadEntities(ctx context.Context, entities []ngsi.Entity, keyValues bool) (*api.Response, error) {
	return s.batch(ctx, ngsi.ActionAppendStrict, entities, keyValues)
}

// UpdateEntities updates attributes of existing entities (update action).
func (s *Service) UpdateEntities(ctx context.Context, entities []ngsi.Entity, keyValues bool) (*api.Response, error) {
	return s.batch(ctx, ngsi.ActionUpdate, entities, keyValues)
}

// DeleteAllEntities fetches all entities of entityType (all entities if empty)
// and deletes them in one batch. The fetch is best effort, so a partial fetch
// deletes only what was retrieved.
func (s *Service) DeleteAllEntities(ctx context.Context, entityType string) (*api.Response, error) {
	fetched := s.GetAllEntities(ctx, Filter{Type: entityType})

	ids := make([]ngsi.Entity, 0, len(fetched))
	for i, e := range fetched {
		if _, ok := e.ID(); !ok {
			s.logger.Warn("Skipping entity without id", "index", i)
			continue
		}
		ids = append(ids, e.IDOnly())
	}

	s.logger.Debug("Deleting entities", "count", len(ids), "type", entityType)
	return s.batch(ctx, ngsi.ActionDelete, ids, false)
}

// batch отправляет одну batch-операцию POST /op/update
func (s *Service) batch(ctx context.Context, action ngsi.ActionType, entities []ngsi.Entity, keyValues bool) (*api.Response, error) {
	if err := validation.ValidateEntityIDs(entities); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", action, err)
	}

	var params url.Values
	if keyValues {
		params = url.Values{}
		params.Set("options", "keyValues")
	}

	// nil slice сериализуется как null, брокер ожидает массив
	if entities == nil {
		entities = []ngsi.Entity{}
	}
	payload := ngsi.BatchOperation{
		ActionType: action,
		Entities:   entities,
	}

	s.logger.Debug("Sending batch operation",
		"action", action,
		"entities", len(entities),
		"key_values", keyValues,
	)

	resp, err := s.apiClient.Post(ctx, pathBatch, params, payload)
	if err != nil {
		return nil, fmt.Errorf("%s batch failed: %w", action, err)
	}

	s.logger.Debug("Batch response", "action", action, "status", resp.StatusCode, "body", truncateBody(resp.Body))
	return resp, nil
}

func truncateBody(b []byte) string {
	return logging.Truncate(b, logging.MaxBodyLogLen)
}

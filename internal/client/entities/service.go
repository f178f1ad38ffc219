// Package entities implements the entity-transfer operations of the client:
// paginated retrieval, batch operations and single entity queries.
package entities

import (
	"errors"
	"log/slog"

	"github.com/iudanet/ngsiadmin/internal/client/api"
)

// Пути NGSI v2 относительно базового адреса
const (
	pathEntities = "/entities"
	pathBatch    = "/op/update"
)

var (
	// ErrMissingField означает, что в ответе брокера нет обязательного поля
	ErrMissingField = errors.New("missing field in entity")

	// ErrMalformedResponse означает, что ответ брокера не соответствует ожидаемой форме
	ErrMalformedResponse = errors.New("malformed broker response")
)

// Service выполняет операции над сущностями брокера.
// Не хранит состояния между вызовами и может использоваться повторно.
type Service struct {
	apiClient api.ClientAPI
	logger    *slog.Logger
}

// NewService creates a new entities service
func NewService(apiClient api.ClientAPI, logger *slog.Logger) *Service {
	return &Service{
		apiClient: apiClient,
		logger:    logger,
	}
}

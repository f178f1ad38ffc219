package validation

import (
	"errors"
	"fmt"

	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

var (
	// ErrMissingID означает, что у сущности batch-операции нет непустого строкового id
	ErrMissingID = errors.New("entity id is missing")

	// ErrEmptyURN означает пустой идентификатор в запросе одиночной сущности
	ErrEmptyURN = errors.New("entity urn cannot be empty")

	// ErrEmptyAttribute означает пустое имя атрибута в запросе
	ErrEmptyAttribute = errors.New("attribute name cannot be empty")
)

// ValidateEntityIDs проверяет, что каждая сущность несет непустой id.
// Возвращает ошибку для первой невалидной сущности с её индексом.
func ValidateEntityIDs(entities []ngsi.Entity) error {
	for i, e := range entities {
		if _, ok := e.ID(); !ok {
			return fmt.Errorf("entity #%d: %w", i, ErrMissingID)
		}
	}
	return nil
}

// ValidateMeasurementRequest проверяет параметры запроса одиночной сущности
func ValidateMeasurementRequest(urn, name string) error {
	if urn == "" {
		return ErrEmptyURN
	}
	if name == "" {
		return ErrEmptyAttribute
	}
	return nil
}

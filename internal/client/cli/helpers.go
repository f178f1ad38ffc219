package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/iudanet/ngsiadmin/internal/client/api"
	"github.com/iudanet/ngsiadmin/internal/logging"
	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

// readEntitiesFile читает JSON массив сущностей
func readEntitiesFile(path string) ([]ngsi.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("data file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var result []ngsi.Entity
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("data file %s must contain a JSON array of entities: %w", path, err)
	}
	return result, nil
}

// readMetadataFile читает JSON объект, который подмешивается в сгенерированные сущности
func readMetadataFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("metadata file %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil || result == nil {
		return nil, fmt.Errorf("metadata file %s must contain a JSON object", path)
	}
	return result, nil
}

// writeJSON печатает значение как форматированный JSON
func (c *Cli) writeJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = append(data, '\n')
	if _, err := c.io.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// entityTypes возвращает отсортированный список типов для сводки в логе
func (c *Cli) entityTypes(list []ngsi.Entity) []string {
	types, untyped := ngsi.Types(list)
	if len(untyped) > 0 {
		c.logger.Warn("Entities without type, the broker will assign its default type", "count", len(untyped))
	}

	result := make([]string, 0, len(types))
	for t := range types {
		result = append(result, t)
	}
	slices.Sort(result)
	return result
}

// reportBatch логирует результат batch операции.
// action используется в сообщениях: "upload", "update", "delete".
func (c *Cli) reportBatch(action, done string, resp *api.Response, err error) error {
	if err != nil {
		var statusErr *api.StatusError
		if errors.As(err, &statusErr) {
			c.logger.Error("Response",
				"status", statusErr.StatusCode,
				"body", logging.Truncate(statusErr.Body, logging.MaxBodyLogLen),
			)
		} else {
			c.logger.Error("Failed to "+action+" entities", "error", err)
		}
		return err
	}

	c.logger.Debug("Response", "status", resp.StatusCode, "body", logging.Truncate(resp.Body, logging.MaxBodyLogLen))
	c.logger.Info("Entities " + done + " successfully")
	return nil
}

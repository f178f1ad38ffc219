package cli

import (
	"context"

	"github.com/iudanet/ngsiadmin/internal/client/entities"
	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

func (c *Cli) runFetch(ctx context.Context) error {
	c.logger.Info("Fetching all entities...", "type", c.opts.entityType)

	result := c.entities.GetAllEntities(ctx, entities.Filter{
		Type:  c.opts.entityType,
		Attrs: c.opts.attrs,
	})
	if result == nil {
		result = []ngsi.Entity{}
	}

	c.metrics.AddEntities("fetch", len(result))
	c.logger.Info("Fetched entities", "count", len(result))

	return c.writeJSON(result)
}

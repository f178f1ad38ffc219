package cli

import (
	"context"
)

func (c *Cli) runDelete(ctx context.Context) error {
	c.logger.Info("Deleting all entities...", "type", c.opts.entityType)

	resp, err := c.entities.DeleteAllEntities(ctx, c.opts.entityType)
	return c.reportBatch("delete", "deleted", resp, err)
}

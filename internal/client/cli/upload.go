package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *Cli) runUpload(ctx context.Context, path string) error {
	list, err := readEntitiesFile(path)
	if err != nil {
		c.logger.Error("Could not load data file", "path", path, "error", err)
		return err
	}

	c.logger.Info("Uploading entities of types", "types", c.entityTypes(list), "count", len(list))

	resp, err := c.entities.UploadEntities(ctx, list, c.opts.keyValues)
	if err == nil {
		c.metrics.AddEntities("upload", len(list))
	}
	return c.reportBatch("upload", "uploaded", resp, err)
}

func (c *Cli) newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update <json_data_file>...",
		Short: "Update attributes of existing entities from JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.setup(ctx); err != nil {
				return err
			}
			defer c.writeMetrics()

			var failed int
			for _, path := range args {
				if err := c.runUpdate(ctx, path); err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d updates failed", failed, len(args))
			}
			return nil
		},
	}
}

func (c *Cli) runUpdate(ctx context.Context, path string) error {
	list, err := readEntitiesFile(path)
	if err != nil {
		c.logger.Error("Could not load data file", "path", path, "error", err)
		return err
	}

	c.logger.Info("Updating entities of types", "types", c.entityTypes(list), "count", len(list))

	resp, err := c.entities.UpdateEntities(ctx, list, c.opts.keyValues)
	if err == nil {
		c.metrics.AddEntities("update", len(list))
	}
	return c.reportBatch("update", "updated", resp, err)
}

package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/iudanet/ngsiadmin/internal/generator"
)

func (c *Cli) runGenerate(ctx context.Context) error {
	opts := generator.Options{
		Min:             c.opts.min,
		Max:             c.opts.max,
		Count:           c.opts.batchSize,
		IntervalMinutes: c.opts.interval,
		TypeName:        c.opts.entityType,
	}

	if c.opts.metadata != "" {
		metadata, err := readMetadataFile(c.opts.metadata)
		if err != nil {
			c.logger.Error("Could not load metadata file", "path", c.opts.metadata, "error", err)
			return err
		}
		opts.Metadata = metadata
	}

	series, err := c.generator.SimpleTimeSeries(opts)
	if err != nil {
		c.logger.Error("Failed to generate data", "error", err)
		return err
	}
	c.metrics.AddEntities("generate", len(series))

	if err := c.writeJSON(series); err != nil {
		return err
	}

	if !c.opts.yes {
		answer, err := c.io.ReadInput("Do you want to upload the generated data? (y/N) ")
		if err != nil && !errors.Is(err, io.EOF) {
			c.logger.Error("Failed to read your input", "error", err)
			return err
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			return nil
		}
	}

	c.logger.Info("Uploading entities of types", "types", c.entityTypes(series), "count", len(series))

	resp, err := c.entities.UploadEntities(ctx, series, false)
	if err == nil {
		c.metrics.AddEntities("upload", len(series))
	}
	return c.reportBatch("upload", "uploaded", resp, err)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/iudanet/ngsiadmin/internal/client/entities"
)

func (c *Cli) newQueryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "query <urn> <attribute>",
		Short: "Show the latest value of an entity attribute",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.setup(ctx); err != nil {
				return err
			}
			defer c.writeMetrics()

			result, err := c.entities.QueryEntity(ctx, entities.MeasurementRequest{
				URN:  args[0],
				Name: args[1],
			})
			// ошибки транспорта уже залогированы сервисом
			if err != nil {
				return err
			}

			return c.writeJSON(result)
		},
	}
}

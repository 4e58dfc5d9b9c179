package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/service"
)

const defaultSeedMembers = 20

// seedCommand creates the seed command.
func (c *CLI) seedCommand() *cobra.Command {
	var (
		members int
		seed    uint64
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Install relation masters and generate a demo family",
		Long: `Install the default relation masters and generate a demo family.

Existing masters are updated in place. With --members 0 only the masters are
installed. The same --seed always produces the same family.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			return c.runSeed(cmd.Context(), members, seed)
		},
	}

	cmd.Flags().IntVarP(&members, "members", "n", defaultSeedMembers, "number of members to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default: current time)")

	return cmd
}

func (c *CLI) runSeed(ctx context.Context, members int, seed uint64) error {
	a, err := c.openPersistent(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating %d members...", members))
	spinner.Start()

	res, err := a.svc.Seed(ctx, service.SeedOptions{Members: members, Seed: seed})
	if err != nil {
		spinner.StopWithError("Seed failed")
		return err
	}
	spinner.StopWithSuccess("Seed complete")
	sayField("Masters", styleCount.Render(strconv.Itoa(res.Masters)))
	sayField("Members", styleCount.Render(strconv.Itoa(res.Members)))
	sayField("Edges", styleCount.Render(strconv.Itoa(res.Edges)))
	sayField("Seed", strconv.FormatUint(seed, 10))
	sayHint("Browse", appName+" members")
	return nil
}

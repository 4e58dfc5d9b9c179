package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	kio "github.com/matzehuels/kintree/pkg/io"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.json>",
		Short: "Write masters, members and edges to a JSON dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := kio.ExportJSON(ctx, a.svc.Store(), args[0])
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			sayDone("Exported %d members, %d edges and %d relation masters", len(d.Members), len(d.Edges), len(d.Masters))
			sayWrote(args[0])
			return nil
		},
	}
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load a JSON dataset into the store",
		Long: `Load a JSON dataset written by 'kintree export'.

Relation masters are matched by code and created when missing. Members and
edges keep their ids, so importing into a store that already holds one of
them fails with a conflict.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.openPersistent(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			prog := newProgress(c.Logger)
			n, err := kio.ImportJSON(ctx, a.svc.Store(), args[0])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			prog.done(fmt.Sprintf("Imported %s", args[0]))
			sayDone("Imported %d members, %d edges and %d relation masters", n.Members, n.Edges, n.Masters)
			return nil
		},
	}
}

package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
)

// linkCommand creates the link command.
func (c *CLI) linkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link <from-id> <to-id> <CODE>",
		Short: "Record a relationship between two members",
		Long: `Record a relationship between two members.

The relation code names a relation master, e.g. SPOUSE, FATHER, MOTHER or
CHILD. The mirrored edge is recorded as well: "link 1 2 FATHER" also records
2 CHILD 1.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseMemberID("from-id", args[0])
			if err != nil {
				return err
			}
			to, err := parseMemberID("to-id", args[1])
			if err != nil {
				return err
			}
			return c.runLink(cmd.Context(), from, to, strings.ToUpper(args[2]))
		},
	}
}

func (c *CLI) runLink(ctx context.Context, from, to int64, code string) error {
	a, err := c.openPersistent(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	e, err := a.svc.Link(ctx, from, to, code)
	if err != nil {
		return err
	}
	sayDone("Linked %d %s %d", from, styleAccent.Render(code), to)
	sayDetail("edge #%d", e.ID)
	return nil
}

// unlinkCommand creates the unlink command.
func (c *CLI) unlinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <edge-id>",
		Short: "Delete a relationship and its mirror",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMemberID("edge-id", args[0])
			if err != nil {
				return err
			}
			a, err := c.openPersistent(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.Unlink(cmd.Context(), id); err != nil {
				return err
			}
			sayDone("Relationship deleted")
			return nil
		},
	}
}

func parseMemberID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidRequest, "%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

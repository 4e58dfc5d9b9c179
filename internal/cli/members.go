package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/service"
)

// membersCommand creates the members command that lists one page of members.
func (c *CLI) membersCommand() *cobra.Command {
	var p service.ListParams

	cmd := &cobra.Command{
		Use:   "members",
		Short: "List members with their inferred families",
		Long: `List members with their inferred families.

Without --search, members are listed in tree order: each couple's
descendants follow them before the next root. With --search, every term must
match the first or the last name and the newest members come first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMembers(cmd.Context(), p)
		},
	}

	cmd.Flags().StringVarP(&p.Search, "search", "s", "", "filter by name")
	cmd.Flags().IntVarP(&p.Page, "page", "p", service.DefaultPage, "page number")
	cmd.Flags().IntVarP(&p.Limit, "limit", "l", service.DefaultLimit, "members per page")

	return cmd
}

func (c *CLI) runMembers(ctx context.Context, p service.ListParams) error {
	a, err := c.open(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.svc.ListMembers(ctx, p)
	if err != nil {
		return err
	}
	if len(page.Data) == 0 {
		sayNote("No members found")
		return nil
	}

	fmt.Println(memberTable(page.Data))
	sayDetail("page %d of %d · %d members", page.Meta.Page, page.Meta.TotalPages, page.Meta.Total)
	return nil
}

// memberTable renders members with their spouses, parents and children.
func memberTable(members []family.WithFamily) string {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			m.FullName(),
			genderCell(m.Gender),
			dobCell(m.DOB),
			summaryNames(m.Spouses),
			summaryNames(m.Parents),
			summaryNames(m.Children),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorRule)).
		Headers("ID", "Name", "Gender", "Born", "Spouses", "Parents", "Children").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorRule)
			case col == 1:
				return styleInk
			}
			return lipgloss.NewStyle().Foreground(colorMuted)
		}).
		Render()
}

// familyCommand creates the family command.
func (c *CLI) familyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "family [member-id]",
		Short: "Show a member's spouses, parents and children",
		Long: `Show a member's spouses, parents and children.

Without a member id an interactive picker lists every member in tree order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id int64
			if len(args) == 1 {
				v, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || v <= 0 {
					return errors.New(errors.ErrCodeInvalidRequest, "member id must be a positive integer, got %q", args[0])
				}
				id = v
			}
			return c.runFamily(cmd.Context(), id)
		},
	}
}

func (c *CLI) runFamily(ctx context.Context, id int64) error {
	a, err := c.open(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if id == 0 {
		picked, err := pickMember(ctx, a.svc)
		if err != nil || picked == nil {
			return err
		}
		id = picked.ID
	}

	f, err := a.svc.Family(ctx, id)
	if err != nil {
		return err
	}
	printFamily(f)
	return nil
}

// pickMember runs the interactive picker. A nil member means the user quit.
func pickMember(ctx context.Context, svc *service.Service) (*family.WithFamily, error) {
	page, err := svc.ListMembers(ctx, service.ListParams{Limit: errors.MaxPageLimit})
	if err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		sayNote("No members yet")
		sayHint("Generate a demo family", appName+" seed")
		return nil, nil
	}
	if page.Meta.Total > len(page.Data) {
		sayWarn("showing the first %d of %d members", len(page.Data), page.Meta.Total)
	}

	final, err := tea.NewProgram(NewMemberPickerModel(page.Data), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}
	return final.(MemberPickerModel).Selected, nil
}

func printFamily(f family.WithFamily) {
	fmt.Println(styleName.Render(f.FullName()) + " " + styleMuted.Render("#"+strconv.FormatInt(f.ID, 10)))
	if f.Gender != family.GenderUnset {
		sayField("Gender", string(f.Gender))
	}
	if f.DOB != nil {
		sayField("Born", dobCell(f.DOB))
	}
	if f.NativePlace != "" {
		sayField("Native place", f.NativePlace)
	}
	fmt.Println()
	printRelatives("Spouses", f.Spouses)
	printRelatives("Parents", f.Parents)
	printRelatives("Children", f.Children)
}

func printRelatives(title string, people []family.Summary) {
	fmt.Println(styleAccent.Render(title))
	if len(people) == 0 {
		sayDetail("none")
		return
	}
	for _, p := range people {
		fmt.Printf("  %s %s %s\n", styleMuted.Render(iconArrow), styleInk.Render(strings.TrimSpace(p.FirstName+" "+p.LastName)),
			styleMuted.Render("#"+strconv.FormatInt(p.ID, 10)))
	}
}

func genderCell(g family.Gender) string {
	if g == family.GenderUnset {
		return "—"
	}
	return string(g)
}

func dobCell(dob *time.Time) string {
	if dob == nil {
		return "—"
	}
	return dob.Format(time.DateOnly)
}

func summaryNames(people []family.Summary) string {
	if len(people) == 0 {
		return "—"
	}
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.FirstName
	}
	return strings.Join(names, ", ")
}

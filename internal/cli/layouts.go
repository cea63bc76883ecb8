package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/panel-configurator/backend/internal/placement"
	"github.com/spf13/cobra"
)

func (c *CLI) layoutsCommand() *cobra.Command {
	var (
		panel       string
		layoutsFile string
	)

	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "Print panel layouts and their zone tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layouts, err := layout.Load(layoutsFile)
			if err != nil {
				return err
			}

			list := layouts.All()
			if panel != "" {
				l, err := layouts.LayoutFor(models.PanelType(panel))
				if err != nil {
					return err
				}
				list = []*layout.PanelLayout{l}
			}

			for i, l := range list {
				if i > 0 {
					fmt.Fprintln(c.out)
				}
				printLayout(c.out, l)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&panel, "panel", "", "only print this panel type")
	cmd.Flags().StringVar(&layoutsFile, "layouts", "", "layouts file (default: built-in)")

	return cmd
}

func printLayout(w io.Writer, l *layout.PanelLayout) {
	fmt.Fprintf(w, "%s  %d cells\n", l.Type, l.CellCount)

	for _, g := range l.Grids {
		fmt.Fprintf(w, "  grid %-8s cells %d-%d (%dx%d)\n", g.Name, g.FirstCell, g.FirstCell+g.Size()-1, g.Rows, g.Columns)
	}
	for _, x := range l.ExtraCells {
		fmt.Fprintf(w, "  extra %-7s cell %d\n", x.Name, x.Cell)
	}

	fmt.Fprintf(w, "  categories: %s\n", joinCategories(l.Categories))
	if len(l.Singletons) > 0 {
		fmt.Fprintf(w, "  singletons: %s\n", joinCategories(l.Singletons))
	}

	zones := make([]string, 0, len(l.Zones))
	for name := range l.Zones {
		zones = append(zones, name)
	}
	sort.Strings(zones)
	for _, name := range zones {
		fmt.Fprintf(w, "  zone %-14s %v\n", name, l.ZoneCells(name))
	}

	for _, r := range l.Restrictions {
		var targets []string
		targets = append(targets, r.Icons...)
		for _, c := range r.Categories {
			targets = append(targets, string(c))
		}
		fmt.Fprintf(w, "  rule %-8s %s in %s\n", r.Mode, strings.Join(targets, ","), r.Zone)
	}
	for _, c := range l.Capacities {
		fmt.Fprintf(w, "  capacity %s: max %d of %s\n", c.Zone, c.Max, joinCategories(c.Categories))
	}
}

func joinCategories(cs []models.Category) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func (c *CLI) checkCommand() *cobra.Command {
	var (
		panel string
		cell  int
		icon  string
		with  []string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the placement rules for one icon on a panel",
		Long: `Evaluate the placement rules for one icon on a panel.

Icons already on the panel are given with --with CELL=ICON, for example:

  panelconfig check --panel DPH --with 7=PIR1 --cell 16 --icon PIR2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layouts, icons, err := loadTables("", "")
			if err != nil {
				return err
			}
			l, err := layouts.LayoutFor(models.PanelType(panel))
			if err != nil {
				return err
			}
			store := placement.New(l, nil)

			for _, entry := range with {
				cellPart, id, ok := strings.Cut(entry, "=")
				if !ok {
					return fmt.Errorf("invalid --with %q, want CELL=ICON", entry)
				}
				at, err := strconv.Atoi(cellPart)
				if err != nil {
					return fmt.Errorf("invalid --with %q: %w", entry, err)
				}
				existing, err := icons.Lookup(id)
				if err != nil {
					return err
				}
				if v := store.Place(at, existing); !v.OK {
					return fmt.Errorf("cannot prepare %s at cell %d: %s", id, at, v.Message)
				}
			}

			candidate, err := icons.Lookup(icon)
			if err != nil {
				return err
			}
			v := store.Check(cell, candidate)
			if v.OK {
				fmt.Fprintf(c.out, "accepted: %s at cell %d on %s\n", candidate.ID, cell, l.Type)
				return nil
			}
			fmt.Fprintf(c.out, "rejected (%s): %s\n", v.Reason, v.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&panel, "panel", "", "panel type")
	cmd.Flags().IntVar(&cell, "cell", 0, "target cell")
	cmd.Flags().StringVar(&icon, "icon", "", "icon id")
	cmd.Flags().StringSliceVar(&with, "with", nil, "icons already placed, as CELL=ICON")
	_ = cmd.MarkFlagRequired("panel")
	_ = cmd.MarkFlagRequired("icon")

	return cmd
}

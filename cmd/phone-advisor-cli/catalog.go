package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/api/rpc"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/config"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/recommend"
	"github.com/spherical-ai/spherical/libs/phone-advisor/pkg/advisor"
)

// newCatalogCmd creates the catalog subcommand tree.
func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse and manage the phone catalog",
	}

	cmd.AddCommand(newCatalogListCmd())
	cmd.AddCommand(newCatalogShowCmd())
	cmd.AddCommand(newCatalogLeadersCmd())
	cmd.AddCommand(newCatalogImportCmd())
	cmd.AddCommand(newCatalogExportCmd())

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newCatalogListCmd() *cobra.Command {
	var req advisor.ListPhonesRequest

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List phones, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := rpc.SelectPhones(a.Assistant, req)
			if err != nil {
				return err
			}

			ui := NewUI(cmd.OutOrStdout(), outputJSON, noColor)
			if outputJSON {
				return ui.JSON(items)
			}
			if len(items) == 0 {
				ui.Warning("No phones match those filters")
				return nil
			}
			ui.Table(phoneHeaders, phoneRows(items))
			ui.Info("%d of %d phones", len(items), a.Catalog.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Brand, "brand", "", "filter by brand (case-insensitive)")
	cmd.Flags().StringVar(&req.Category, "category", "", "filter by category (flagship, premium, mid-range, budget, entry-level)")
	cmd.Flags().Float64Var(&req.MaxPrice, "max", 0, "maximum price in rupees")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "maximum number of phones")

	return cmd
}

func newCatalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full record of one phone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			it, ok := a.Catalog.Get(args[0])
			if !ok {
				return fmt.Errorf("phone %q not found", args[0])
			}

			ui := NewUI(cmd.OutOrStdout(), outputJSON, noColor)
			if outputJSON {
				return ui.JSON(it)
			}
			showPhone(ui, it)
			return nil
		},
	}
}

func showPhone(ui *UI, it catalog.Item) {
	spec := it.Specifications

	ui.Section(it.Name)
	ui.KeyValue("Brand", it.Brand)
	ui.KeyValue("Category", it.Category)
	ui.KeyValue("Price", catalog.FormatINR(it.Price.Current))
	ui.KeyValue("Display", fmt.Sprintf("%s %s, %s", spec.Display.Size, spec.Display.Type, spec.Display.RefreshRate))
	ui.KeyValue("Processor", spec.Processor.Chipset)
	ui.KeyValue("Memory", fmt.Sprintf("%s RAM, %s storage", strings.Join(spec.Memory.RAM, "/"), strings.Join(spec.Memory.Storage, "/")))
	ui.KeyValue("Main camera", spec.Camera.Rear.Main)
	ui.KeyValue("Battery", fmt.Sprintf("%s, %s wired", spec.Battery.Capacity, spec.Battery.Charging.Wired))
	ui.KeyValue("Rating", fmt.Sprintf("%.1f overall, %.1f camera, %.1f performance, %.1f battery",
		it.Rating.Overall, it.Rating.Camera, it.Rating.Performance, it.Rating.Battery))

	if len(it.Pros) > 0 {
		ui.KeyValue("Pros", strings.Join(it.Pros, "; "))
	}
	if len(it.Cons) > 0 {
		ui.KeyValue("Cons", strings.Join(it.Cons, "; "))
	}
}

func newCatalogLeadersCmd() *cobra.Command {
	var ceiling float64

	cmd := &cobra.Command{
		Use:   "leaders <view>",
		Short: "Show a curated view: " + strings.Join(recommend.Views(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Assistant.Engine().View(args[0], ceiling)
			if err != nil {
				return fmt.Errorf("%w (choose one of: %s)", err, strings.Join(recommend.Views(), ", "))
			}

			ui := NewUI(cmd.OutOrStdout(), outputJSON, noColor)
			if outputJSON {
				return ui.JSON(items)
			}
			if len(items) == 0 {
				ui.Warning("No phones in this view")
				return nil
			}
			ui.Table(phoneHeaders, phoneRows(items))
			return nil
		},
	}

	cmd.Flags().Float64Var(&ceiling, "max", 0, "price ceiling in rupees")

	return cmd
}

// newCatalogImportCmd writes a catalog into a SQL store so the server can
// load it with catalog.source sqlite or postgres.
func newCatalogImportCmd() *cobra.Command {
	var (
		from   string
		driver string
		dsn    string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a YAML catalog (or the embedded one) into sqlite or postgres",
		Example: `  phone-advisor catalog import --from phones.yaml --driver sqlite --dsn phones.db
  phone-advisor catalog import --driver postgres --dsn postgres://localhost/advisor`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			if dsn == "" {
				if driver == config.CatalogSQLite {
					dsn = cfg.Catalog.Path
				} else {
					dsn = cfg.Catalog.DSN
				}
			}
			if dsn == "" {
				return fmt.Errorf("--dsn is required")
			}

			var (
				cat *catalog.Catalog
				err error
			)
			if from == "" {
				cat, err = catalog.Default()
			} else {
				cat, err = catalog.LoadFile(from)
			}
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			ui := NewUI(cmd.OutOrStdout(), outputJSON, noColor)
			n, err := importCatalog(ctx, ui, cat, driver, dsn)
			if err != nil {
				return err
			}

			if outputJSON {
				return ui.JSON(map[string]interface{}{"imported": cat.Len(), "stored": n, "driver": driver})
			}
			ui.Success("Imported %d phones into %s (%d stored)", cat.Len(), driver, n)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "YAML catalog file (default: embedded catalog)")
	cmd.Flags().StringVar(&driver, "driver", config.CatalogSQLite, "target database: sqlite or postgres")
	cmd.Flags().StringVar(&dsn, "dsn", "", "sqlite file path or postgres connection string (default: from config)")

	return cmd
}

// importCatalog migrates the store, upserts every phone and returns the
// resulting row count.
func importCatalog(ctx context.Context, ui *UI, cat *catalog.Catalog, driver, dsn string) (int, error) {
	store, err := catalog.OpenStore(ctx, driver, dsn)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return 0, err
	}

	bar := ui.NewImportBar(cat.Len(), "Importing")
	if err := store.Save(ctx, cat.Items(), func(catalog.Item) { _ = bar.Add(1) }); err != nil {
		return 0, err
	}
	_ = bar.Finish()

	return store.Count(ctx)
}

func newCatalogExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(commandContext(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := buildCatalogWorkbook(a.Catalog.Items())
			if err != nil {
				return fmt.Errorf("build workbook: %w", err)
			}
			defer f.Close()

			if err := f.SaveAs(output); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			ui := NewUI(cmd.OutOrStdout(), outputJSON, noColor)
			if outputJSON {
				return ui.JSON(map[string]interface{}{"exported": a.Catalog.Len(), "output": output})
			}
			ui.Success("Exported %d phones to %s", a.Catalog.Len(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "phones.xlsx", "output workbook path")

	return cmd
}

const catalogSheet = "Phones"

var catalogExportHeaders = []string{
	"ID", "Name", "Brand", "Category", "Price (INR)", "Display", "Processor",
	"Battery", "Overall", "Camera", "Performance", "Battery Rating", "Highlights",
}

// buildCatalogWorkbook lays the catalog out as one row per phone.
func buildCatalogWorkbook(items []catalog.Item) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), catalogSheet); err != nil {
		return nil, err
	}

	for i, h := range catalogExportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(catalogSheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, it := range items {
		values := []interface{}{
			it.ID,
			it.Name,
			it.Brand,
			string(it.Category),
			it.Price.Current,
			it.Specifications.Display.Size,
			it.Specifications.Processor.Chipset,
			it.Specifications.Battery.Capacity,
			it.Rating.Overall,
			it.Rating.Camera,
			it.Rating.Performance,
			it.Rating.Battery,
			strings.Join(it.Highlights, "; "),
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(catalogSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetPanes(catalogSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	return f, nil
}

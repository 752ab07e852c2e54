package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"kofa_admin/internal/export"
	"kofa_admin/internal/kofa"
	"kofa_admin/internal/media"
	"kofa_admin/internal/resource"
	"kofa_admin/internal/view"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func productFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "product name"},
		&cli.StringFlag{Name: "price", Usage: "price in Naira"},
		&cli.IntFlag{Name: "stock", Usage: "stock level"},
		&cli.StringFlag{Name: "description", Usage: "description"},
		&cli.StringFlag{Name: "category", Usage: "category"},
		&cli.StringSliceFlag{Name: "voice-tag", Usage: "voice search tag, repeatable (default: words of the name)"},
		&cli.StringFlag{Name: "image", Usage: "image file to upload and attach"},
	}
}

func (r *Runner) productsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "list and manage the product catalogue",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list products",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"q"}, Usage: "match name, category, description or voice tags"},
					&cli.BoolFlag{Name: "low-stock", Usage: fmt.Sprintf("only products at or below %d units", view.LowStockThreshold)},
				},
				Action: r.action(r.listProducts),
			},
			{
				Name:   "add",
				Usage:  "create a product",
				Flags:  productFlags(),
				Action: r.action(r.addProduct),
			},
			{
				Name:      "update",
				Usage:     "change fields of a product",
				ArgsUsage: "<id>",
				Flags:     productFlags(),
				Action:    r.action(r.updateProduct),
			},
			{
				Name:      "delete",
				Usage:     "delete a product",
				ArgsUsage: "<id>",
				Action:    r.action(r.deleteProduct),
			},
			{
				Name:      "restock",
				Usage:     "add units to a product's stock",
				ArgsUsage: "<id> <quantity>",
				Action:    r.action(r.restockProduct),
			},
			{
				Name:      "import",
				Usage:     "create products from an XLSX or CSV sheet with name, price and stock columns (- reads CSV from stdin)",
				ArgsUsage: "<file.xlsx|file.csv|->",
				Action:    r.action(r.importProducts),
			},
		},
	}
}

func (r *Runner) loadProducts(ctx context.Context, s *Services) (*resource.Products, error) {
	products := resource.NewProducts(s.Client, s.Logger)
	if err := products.Reload(ctx); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Runner) listProducts(ctx context.Context, c *cli.Context, s *Services) error {
	products, err := r.loadProducts(ctx, s)
	if err != nil {
		return err
	}
	defer products.Close()

	items := view.SearchProducts(products.Items(), c.String("search"))
	if c.Bool("low-stock") {
		items = view.LowStock(items, view.LowStockThreshold)
	}
	return r.emit(items, func(w io.Writer) {
		writeProducts(w, items)
		fmt.Fprintln(w)
		writeInventory(w, view.InventoryStats(products.Items()))
	})
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	cleaned := strings.NewReplacer("₦", "", ",", "", " ", "").Replace(raw)
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, usagef("invalid price %q", raw)
	}
	return price, nil
}

// attachImage uploads --image when set and returns its URL.
func (r *Runner) attachImage(ctx context.Context, c *cli.Context, s *Services) (string, error) {
	path := c.String("image")
	if path == "" {
		return "", nil
	}
	file, err := media.OpenFile(path)
	if err != nil {
		return "", usagef("cannot read %s", path)
	}
	image, err := s.Uploader.UploadImage(ctx, file)
	if err != nil {
		return "", err
	}
	return image.URL, nil
}

func (r *Runner) addProduct(ctx context.Context, c *cli.Context, s *Services) error {
	price, err := parsePrice(c.String("price"))
	if err != nil {
		return err
	}

	input := kofa.ProductInput{
		Name:        c.String("name"),
		Price:       price,
		StockLevel:  c.Int("stock"),
		Description: c.String("description"),
		Category:    c.String("category"),
		VoiceTags:   c.StringSlice("voice-tag"),
	}
	if err := requireProductFlags(c, input); err != nil {
		return err
	}
	imageURL, err := r.attachImage(ctx, c, s)
	if err != nil {
		return err
	}
	input.ImageURL = imageURL

	products := resource.NewProducts(s.Client, s.Logger)
	defer products.Close()
	created, err := products.Create(ctx, input)
	if err := r.settle(s.Logger, err); err != nil {
		return err
	}
	return r.emit(created, func(w io.Writer) {
		fmt.Fprintf(w, "Added %s (id=%s)\n", created.Name, created.ID)
	})
}

// requireProductFlags reports price and stock missing on create together
// with any other invalid field of input.
func requireProductFlags(c *cli.Context, input kofa.ProductInput) error {
	missing := map[string]string{}
	for flag, field := range map[string]string{"price": "price_ngn", "stock": "stock_level"} {
		if !c.IsSet(flag) || (flag == "price" && strings.TrimSpace(c.String(flag)) == "") {
			missing[field] = "is required"
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var invalid *resource.ValidationError
	if errors.As(resource.Validate(input), &invalid) {
		for field, reason := range invalid.Fields {
			if _, ok := missing[field]; !ok {
				missing[field] = reason
			}
		}
	}
	return &resource.ValidationError{Fields: missing}
}

func (r *Runner) patchFromFlags(ctx context.Context, c *cli.Context, s *Services) (resource.ProductPatch, error) {
	var patch resource.ProductPatch
	if c.IsSet("name") {
		name := c.String("name")
		patch.Name = &name
	}
	if c.IsSet("price") {
		price, err := parsePrice(c.String("price"))
		if err != nil {
			return patch, err
		}
		patch.Price = &price
	}
	if c.IsSet("stock") {
		stock := c.Int("stock")
		patch.StockLevel = &stock
	}
	if c.IsSet("description") {
		description := c.String("description")
		patch.Description = &description
	}
	if c.IsSet("category") {
		category := c.String("category")
		patch.Category = &category
	}
	if c.IsSet("voice-tag") {
		patch.VoiceTags = c.StringSlice("voice-tag")
	}
	imageURL, err := r.attachImage(ctx, c, s)
	if err != nil {
		return patch, err
	}
	if imageURL != "" {
		patch.ImageURL = &imageURL
	}
	return patch, nil
}

func productID(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", usagef("missing product id")
	}
	return id, nil
}

func (r *Runner) updateProduct(ctx context.Context, c *cli.Context, s *Services) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	products, err := r.loadProducts(ctx, s)
	if err != nil {
		return err
	}
	defer products.Close()

	base, ok := products.Find(id)
	if !ok {
		return usagef("product %s not found", id)
	}
	patch, err := r.patchFromFlags(ctx, c, s)
	if err != nil {
		return err
	}

	updated, err := products.Update(ctx, id, resource.MergeProduct(base, patch))
	if err := r.settle(s.Logger, err); err != nil {
		return err
	}
	return r.emit(updated, func(w io.Writer) {
		fmt.Fprintf(w, "Updated %s (id=%s)\n", updated.Name, updated.ID)
	})
}

func (r *Runner) deleteProduct(ctx context.Context, c *cli.Context, s *Services) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	products := resource.NewProducts(s.Client, s.Logger)
	defer products.Close()

	deleted, err := products.Delete(ctx, id)
	if err := r.settle(s.Logger, err); err != nil {
		return err
	}
	return r.emit(map[string]any{"id": id, "deleted": deleted}, func(w io.Writer) {
		fmt.Fprintf(w, "Deleted %s\n", id)
	})
}

func (r *Runner) restockProduct(ctx context.Context, c *cli.Context, s *Services) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(c.Args().Get(1)))
	if err != nil {
		return usagef("quantity must be a whole number")
	}
	products := resource.NewProducts(s.Client, s.Logger)
	defer products.Close()

	result, err := products.Restock(ctx, id, quantity)
	if err := r.settle(s.Logger, err); err != nil {
		return err
	}
	return r.emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "Restocked %s, new stock level: %d\n", id, result.NewStockLevel)
	})
}

// readImport parses an XLSX workbook, or CSV text from a .csv/.tsv/.txt file
// or from stdin when path is "-".
func (r *Runner) readImport(path string) ([]kofa.ProductInput, error) {
	var (
		inputs []kofa.ProductInput
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, usagef("cannot read %s", path)
		}
		defer f.Close()
		inputs, err = export.ReadProductsCSV(f)
	default:
		if path == "-" {
			inputs, err = export.ReadProductsCSV(r.in)
			break
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, usagef("cannot read %s", path)
		}
		defer f.Close()
		inputs, err = export.ReadProducts(f)
	}
	if err != nil {
		return nil, usagef("%v", err)
	}
	return inputs, nil
}

type importResult struct {
	Created []kofa.Product `json:"created"`
	Failed  []string       `json:"failed,omitempty"`
}

func (r *Runner) importProducts(ctx context.Context, c *cli.Context, s *Services) error {
	path := c.Args().First()
	if path == "" {
		return usagef("missing file")
	}
	inputs, err := r.readImport(path)
	if err != nil {
		return err
	}

	products := resource.NewProducts(s.Client, s.Logger)
	products.Close() // skip reloading after every row

	var (
		result  importResult
		lastErr error
	)
	for _, input := range inputs {
		created, err := products.Create(ctx, input)
		if err != nil {
			s.Logger.Warn("import row failed", zap.String("name", input.Name), zap.Error(err))
			result.Failed = append(result.Failed, input.Name)
			lastErr = err
			continue
		}
		result.Created = append(result.Created, created)
	}
	if len(result.Created) == 0 {
		return lastErr
	}

	return r.emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "Imported %d of %d products\n", len(result.Created), len(inputs))
		for _, name := range result.Failed {
			fmt.Fprintf(w, "- failed: %s\n", name)
		}
	})
}

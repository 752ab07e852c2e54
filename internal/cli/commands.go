package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kofa_admin/internal/chat"
	"kofa_admin/internal/dashboard"
	"kofa_admin/internal/export"
	"kofa_admin/internal/media"
	"kofa_admin/internal/resource"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func (r *Runner) dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:   "dashboard",
		Usage:  "revenue, orders, customers, inventory and profit at a glance",
		Action: r.action(r.showDashboard),
	}
}

func (r *Runner) showDashboard(ctx context.Context, _ *cli.Context, s *Services) error {
	var paint func(dashboard.Snapshot)
	if !r.opts.JSON {
		paint = func(snap dashboard.Snapshot) {
			writeDashboard(r.out, snap)
			fmt.Fprintln(r.out)
		}
	}

	snap := s.Dashboard.Load(ctx, paint)
	if failed := snap.Failed(); len(failed) == 3 {
		return snap.Err(dashboard.PanelOrders)
	}
	return r.emit(dashboardJSON{Snapshot: snap, Failed: snap.Failed()}, func(w io.Writer) {
		writeDashboard(w, snap)
	})
}

func (r *Runner) chatCommand() *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "ask the business assistant; starts an interactive session without a message",
		ArgsUsage: "[message]",
		Action:    r.action(r.runChat),
	}
}

func (r *Runner) runChat(ctx context.Context, c *cli.Context, s *Services) error {
	if c.Args().Present() {
		return r.sendChat(ctx, s.Chat, strings.Join(c.Args().Slice(), " "))
	}
	return r.chatREPL(ctx, s)
}

func (r *Runner) sendChat(ctx context.Context, session *chat.Session, text string) error {
	msg, err := session.Send(ctx, text)
	if err != nil {
		return err
	}
	if msg.Content == "" {
		return nil
	}
	return r.emit(msg, func(w io.Writer) {
		fmt.Fprintln(w, msg.Content)
		for _, suggestion := range msg.Suggestions {
			fmt.Fprintf(w, "  • %s\n", suggestion)
		}
	})
}

func (r *Runner) chatREPL(ctx context.Context, s *Services) error {
	reader := bufio.NewScanner(r.in)
	fmt.Fprintln(r.out, chat.GreetingText)
	fmt.Fprintln(r.out, "\nQuick actions: /quick <n>   Commands: /clear, /history, exit")
	writeQuickActions(r.out)

	for {
		fmt.Fprint(r.out, "> ")
		if !reader.Scan() {
			return reader.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(reader.Text())
		lower := strings.ToLower(line)
		switch {
		case line == "":
			continue
		case lower == "exit" || lower == "quit":
			return nil
		case lower == "/clear":
			s.Chat.Clear()
			fmt.Fprintln(r.out, "History cleared.")
			continue
		case lower == "/history":
			writeTranscript(r.out, s.Chat.Transcript())
			continue
		case strings.HasPrefix(lower, "/quick"):
			n, err := strconv.Atoi(strings.TrimSpace(line[len("/quick"):]))
			if err != nil || n < 1 || n > len(chat.QuickActions) {
				writeQuickActions(r.out)
				continue
			}
			line = chat.QuickActions[n-1].Message
			fmt.Fprintf(r.out, "> %s\n", line)
		}

		if err := r.sendChat(ctx, s.Chat, line); err != nil {
			if errors.Is(err, chat.ErrSendInFlight) {
				fmt.Fprintln(r.out, "Still waiting for the previous answer.")
				continue
			}
			return err
		}
	}
}

func writeQuickActions(w io.Writer) {
	for i, action := range chat.QuickActions {
		fmt.Fprintf(w, "  %d) %s: %q\n", i+1, action.Label, action.Message)
	}
}

func writeTranscript(w io.Writer, messages []chat.Message) {
	fmt.Fprintf(w, "History (%d messages):\n", len(messages))
	for i, msg := range messages {
		preview := strings.TrimSpace(msg.Content)
		if preview == "" {
			preview = "(empty)"
		}
		const maxLen = 120
		if runes := []rune(preview); len(runes) > maxLen {
			preview = string(runes[:maxLen]) + "..."
		}
		fmt.Fprintf(w, "%d) %s: %s\n", i+1, msg.Role, strings.ReplaceAll(preview, "\n", " "))
	}
}

func (r *Runner) uploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "upload a product image (JPEG, PNG, WebP or GIF, up to 5MB)",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "product-id", Usage: "attach the uploaded image to this product"},
		},
		Action: r.action(r.uploadImage),
	}
}

func (r *Runner) uploadImage(ctx context.Context, c *cli.Context, s *Services) error {
	path := c.Args().First()
	file := media.File{}
	if path != "" {
		opened, err := media.OpenFile(path)
		if err != nil {
			return usagef("cannot read %s", path)
		}
		file = opened
	}

	image, err := s.Uploader.UploadImage(ctx, file)
	if err != nil {
		return err
	}

	if id := strings.TrimSpace(c.String("product-id")); id != "" {
		products, err := r.loadProducts(ctx, s)
		if err != nil {
			return err
		}
		defer products.Close()
		base, ok := products.Find(id)
		if !ok {
			return usagef("product %s not found", id)
		}
		_, err = products.Update(ctx, id, resource.MergeProduct(base, resource.ProductPatch{ImageURL: &image.URL}))
		if err := r.settle(s.Logger, err); err != nil {
			return err
		}
		s.Logger.Info("image attached", zap.String("product_id", id), zap.String("url", image.URL))
	}

	return r.emit(image, func(w io.Writer) {
		fmt.Fprintf(w, "Uploaded %s (%dx%d)\n", image.URL, image.Width, image.Height)
	})
}

func (r *Runner) exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write products, orders and expenses to an XLSX workbook",
		ArgsUsage: "<file.xlsx>",
		Action:    r.action(r.exportWorkbook),
	}
}

func (r *Runner) exportWorkbook(ctx context.Context, c *cli.Context, s *Services) error {
	path := strings.TrimSpace(c.Args().First())
	if path == "" {
		return usagef("missing output file")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}

	products, err := s.Client.ListProducts(ctx)
	if err != nil {
		return err
	}
	orders, err := s.Client.ListOrders(ctx, "")
	if err != nil {
		return err
	}
	expenses, err := s.Client.ListExpenses(ctx, "")
	if err != nil {
		return err
	}
	if err := export.WriteFile(path, products, orders, expenses); err != nil {
		return err
	}

	summary := map[string]any{"file": path, "products": len(products), "orders": len(orders), "expenses": len(expenses)}
	return r.emit(summary, func(w io.Writer) {
		fmt.Fprintf(w, "Wrote %s (%d products, %d orders, %d expenses)\n", path, len(products), len(orders), len(expenses))
	})
}

func (r *Runner) healthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "check that the KOFA API is reachable",
		Action: r.action(r.health),
	}
}

func (r *Runner) health(ctx context.Context, _ *cli.Context, s *Services) error {
	status, err := s.Client.Health(ctx)
	if err != nil {
		return err
	}
	return r.emit(status, func(w io.Writer) {
		fmt.Fprintf(w, "KOFA API: %s\n", status.Status)
	})
}

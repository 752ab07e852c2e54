package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"kofa_admin/internal/kofa"
	"kofa_admin/internal/view"

	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	RecentOrdersLimit = 5
	DefaultRegion     = "NG"
)

type Panel string

const (
	PanelOrders   Panel = "orders"
	PanelProducts Panel = "products"
	PanelProfit   Panel = "profit"
)

// Source is the subset of the API client the dashboard reads from.
type Source interface {
	ListOrders(ctx context.Context, status string) ([]kofa.Order, error)
	ListProducts(ctx context.Context) ([]kofa.Product, error)
	ProfitSummary(ctx context.Context) (kofa.ProfitSummary, error)
}

type Stats struct {
	Revenue       decimal.Decimal       `json:"revenue"`
	TodayRevenue  decimal.Decimal       `json:"today_revenue"`
	OrderCount    int                   `json:"order_count"`
	PendingOrders int                   `json:"pending_orders"`
	Customers     int                   `json:"customers"`
	RecentOrders  []kofa.Order          `json:"recent_orders"`
	Inventory     view.InventorySummary `json:"inventory"`
	Profit        kofa.ProfitSummary    `json:"profit"`
}

// Snapshot is one rendering of the dashboard. A panel listed in Errors kept
// its zero value.
type Snapshot struct {
	Stats
	Errors    map[Panel]error `json:"-"`
	FromCache bool            `json:"from_cache"`
	LoadedAt  time.Time       `json:"loaded_at"`
}

func (s Snapshot) Err(panel Panel) error {
	return s.Errors[panel]
}

// Failed lists the panels that could not be loaded, in a stable order.
func (s Snapshot) Failed() []Panel {
	out := make([]Panel, 0, len(s.Errors))
	for _, panel := range []Panel{PanelOrders, PanelProducts, PanelProfit} {
		if s.Errors[panel] != nil {
			out = append(out, panel)
		}
	}
	return out
}

type Aggregator struct {
	src    Source
	cache  kofa.CacheStore
	region string
	now    func() time.Time
	tracer trace.Tracer
	logger *zap.Logger
}

func New(client *kofa.Client, logger *zap.Logger) *Aggregator {
	return NewAggregator(client, client.Cache(), logger)
}

// NewAggregator reads from src. cache may be nil, which disables the
// instant paint.
func NewAggregator(src Source, cache kofa.CacheStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		src:    src,
		cache:  cache,
		region: DefaultRegion,
		now:    time.Now,
		tracer: otel.Tracer("kofa_admin/dashboard"),
		logger: logger.Named("dashboard"),
	}
}

// Load issues the three panel reads concurrently and waits for all of them.
// When paint is set and the cache holds any panel, paint receives a
// snapshot built from cached data before the reads settle.
func (a *Aggregator) Load(ctx context.Context, paint func(Snapshot)) Snapshot {
	ctx, span := a.tracer.Start(ctx, "dashboard.Load")
	defer span.End()

	if paint != nil {
		if cached, ok := a.fromCache(ctx); ok {
			span.AddEvent("painted from cache")
			paint(cached)
		}
	}

	var (
		orders   []kofa.Order
		products []kofa.Product
		profit   kofa.ProfitSummary
		results  [3]error
	)

	var g errgroup.Group
	g.Go(func() error {
		orders, results[0] = a.src.ListOrders(ctx, "")
		return nil
	})
	g.Go(func() error {
		products, results[1] = a.src.ListProducts(ctx)
		return nil
	})
	g.Go(func() error {
		profit, results[2] = a.src.ProfitSummary(ctx)
		return nil
	})
	_ = g.Wait()

	errs := make(map[Panel]error, len(results))
	for i, panel := range []Panel{PanelOrders, PanelProducts, PanelProfit} {
		if err := results[i]; err != nil {
			errs[panel] = err
			span.RecordError(err, trace.WithAttributes(attribute.String("panel", string(panel))))
			a.logger.Warn("panel failed", zap.String("panel", string(panel)), zap.Error(err))
		}
	}

	snapshot := Snapshot{
		Stats:    Build(orders, products, profit, a.now(), a.region),
		Errors:   errs,
		LoadedAt: a.now(),
	}

	span.SetAttributes(
		attribute.Int("dashboard.orders", len(orders)),
		attribute.Int("dashboard.products", len(products)),
		attribute.Int("dashboard.failed_panels", len(errs)),
	)
	if len(errs) == 3 {
		span.SetStatus(codes.Error, "all panels failed")
	}
	a.logger.Debug("dashboard loaded",
		zap.Int("orders", len(orders)),
		zap.Int("products", len(products)),
		zap.Int("failed", len(errs)),
	)
	return snapshot
}

func (a *Aggregator) fromCache(ctx context.Context) (Snapshot, bool) {
	if a.cache == nil {
		return Snapshot{}, false
	}
	orders, hitOrders := kofa.Peek[[]kofa.Order](ctx, a.cache, kofa.CacheKeyOrders, a.logger)
	products, hitProducts := kofa.Peek[[]kofa.Product](ctx, a.cache, kofa.CacheKeyProducts, a.logger)
	profit, hitProfit := kofa.Peek[kofa.ProfitSummary](ctx, a.cache, kofa.CacheKeyProfitSummary, a.logger)
	if !hitOrders && !hitProducts && !hitProfit {
		return Snapshot{}, false
	}
	return Snapshot{
		Stats:     Build(orders, products, profit, a.now(), a.region),
		FromCache: true,
		LoadedAt:  a.now(),
	}, true
}

// Build derives the dashboard figures. It does no I/O.
func Build(orders []kofa.Order, products []kofa.Product, profit kofa.ProfitSummary, now time.Time, region string) Stats {
	pending := 0
	for _, order := range orders {
		if order.HasStatus(kofa.OrderStatusPending) {
			pending++
		}
	}
	return Stats{
		Revenue:       view.SumTotals(orders),
		TodayRevenue:  view.TodayRevenue(orders, now),
		OrderCount:    len(orders),
		PendingOrders: pending,
		Customers:     CountCustomers(orders, region),
		RecentOrders:  RecentOrders(orders, RecentOrdersLimit),
		Inventory:     view.InventoryStats(products),
		Profit:        profit,
	}
}

// CountCustomers counts distinct customer phone numbers. Numbers are
// compared in E.164 form when they parse for region; blank numbers are
// skipped.
func CountCustomers(orders []kofa.Order, region string) int {
	seen := make(map[string]struct{}, len(orders))
	for _, order := range orders {
		phone := strings.TrimSpace(order.CustomerPhone)
		if phone == "" {
			continue
		}
		seen[NormalizePhone(phone, region)] = struct{}{}
	}
	return len(seen)
}

// NormalizePhone formats raw as E.164, or returns it trimmed when it does
// not parse.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	num, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

// RecentOrders returns up to limit orders, newest first. Orders with equal
// timestamps keep their backend order.
func RecentOrders(orders []kofa.Order, limit int) []kofa.Order {
	sorted := make([]kofa.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

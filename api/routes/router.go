package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tapcellar/tapcellar-backend/api/controllers"
	"github.com/tapcellar/tapcellar-backend/api/middleware"
	"github.com/tapcellar/tapcellar-backend/internal/invoices"
	"github.com/tapcellar/tapcellar-backend/internal/purchaseorders"
	"github.com/tapcellar/tapcellar-backend/internal/reconcile"
	"github.com/tapcellar/tapcellar-backend/internal/suppliers"
	"github.com/tapcellar/tapcellar-backend/internal/worklist"
	"github.com/tapcellar/tapcellar-backend/pkg/config"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

// NewRouter wires the HTTP surface. Nil services are tolerated; their routes
// answer with a service-unavailable error instead of panicking at boot.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database controllers.Pinger,
	cache controllers.Pinger,
	gatherer prometheus.Gatherer,
	invoiceService invoices.Service,
	reconcileService reconcile.Service,
	worklistService worklist.Service,
	purchaseOrderService purchaseorders.Service,
	supplierService suppliers.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/health/live", controllers.HealthLive(cfg))
	r.Get("/health/ready", controllers.HealthReady(cfg, database, cache))

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", controllers.IngestInvoice(invoiceService, logg))
			r.Get("/", controllers.ListInvoices(invoiceService, logg))

			r.Route("/{invoiceID}", func(r chi.Router) {
				r.Get("/", controllers.GetInvoice(invoiceService, logg))
				r.Get("/lines.csv", controllers.ExportInvoiceCSV(invoiceService, logg))
				r.Patch("/lines/{lineID}", controllers.PatchLineItem(invoiceService, logg))
				r.Post("/reconcile", controllers.RunReconciliation(reconcileService, logg))
				r.Get("/worklist", controllers.GetWorklist(worklistService, logg))
				r.Get("/worklist.csv", controllers.GetWorklistCSV(worklistService, logg))
				r.Post("/purchase-orders", controllers.CreatePurchaseOrder(purchaseOrderService, logg))
				r.Get("/purchase-orders", controllers.ListPurchaseOrders(purchaseOrderService, logg))
			})
		})

		r.Get("/suppliers", controllers.ListSuppliers(supplierService, logg))
		r.Post("/suppliers/refresh", controllers.RefreshSuppliers(supplierService, logg))
	})

	return r
}

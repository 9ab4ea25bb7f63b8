package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/johiruljahid/nsultan/internal/assistant"
	"github.com/johiruljahid/nsultan/internal/backup"
	"github.com/johiruljahid/nsultan/internal/cart"
	"github.com/johiruljahid/nsultan/internal/checkout"
	"github.com/johiruljahid/nsultan/internal/config"
	"github.com/johiruljahid/nsultan/internal/events"
	"github.com/johiruljahid/nsultan/internal/handler"
	"github.com/johiruljahid/nsultan/internal/media"
	"github.com/johiruljahid/nsultan/internal/metrics"
	"github.com/johiruljahid/nsultan/internal/middleware"
	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/johiruljahid/nsultan/internal/notify"
	"github.com/johiruljahid/nsultan/internal/receipt"
	"github.com/johiruljahid/nsultan/internal/store"
	ws "github.com/johiruljahid/nsultan/internal/websocket"
)

// Options carries the optional integrations built by main. Nil fields turn
// the matching feature off.
type Options struct {
	Media    *media.Store
	Events   events.Publisher
	Notifier *notify.Dispatcher
	Model    assistant.Generator
	Metrics  *metrics.Metrics
	Backups  *backup.Manager
}

type Server struct {
	cfg          *config.Config
	hub          *ws.Hub
	carts        *cart.Registry
	menuStore    *store.MenuStore
	galleryStore *store.GalleryStore
	categories   *store.CategoryStore
	orderStore   *store.OrderStore
	bookingStore *store.BookingStore
	adminStore   *store.AdminStore
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	metrics      *metrics.Metrics

	catalogH   *handler.CatalogHandler
	cartH      *handler.CartHandler
	checkoutH  *handler.CheckoutHandler
	orderH     *handler.OrderHandler
	bookingH   *handler.BookingHandler
	authH      *handler.AuthHandler
	uploadH    *handler.UploadHandler
	pushH      *handler.PushHandler
	assistantH *handler.AssistantHandler
	backupH    *handler.BackupHandler

	logger *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	carts := cart.NewRegistry()

	menuStore := store.NewMenuStore(db)
	galleryStore := store.NewGalleryStore(db)
	categoryStore := store.NewCategoryStore(db)
	orderStore := store.NewOrderStore(db)
	bookingStore := store.NewBookingStore(db)
	adminStore := store.NewAdminStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)
	statsStore := store.NewStatsStore(db)
	backupStore := store.NewBackupStore(db)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NewDispatcher(logger.With("component", "notify"))
	}
	pub := opts.Events
	if pub == nil {
		pub = events.NopPublisher{}
	}

	receipts := receipt.Generator{
		BaseURL:       cfg.Server.BaseURL,
		BusinessName:  cfg.Business.Name,
		PaymentMethod: cfg.Business.PaymentMethod,
		PaymentNumber: cfg.Business.PaymentNumber,
	}

	checkoutSvc := checkout.NewService(checkout.Config{
		DeliveryFee:   cfg.Business.DeliveryFee,
		MinTrxLength:  cfg.Business.MinTrxLength,
		PaymentMethod: cfg.Business.PaymentMethod,
		PaymentNumber: cfg.Business.PaymentNumber,
	}, menuStore, orderStore, hub, pub, notifier, opts.Metrics, logger.With("component", "checkout"))

	sultana := assistant.New(assistant.Config{
		MaxTokens:   cfg.Assistant.MaxTokens,
		Temperature: cfg.Assistant.Temperature,
		DeliveryFee: cfg.Business.DeliveryFee,
		PaymentNo:   cfg.Business.PaymentNumber,
	}, opts.Model, menuStore, checkoutSvc, opts.Metrics, logger.With("component", "assistant"))

	s := &Server{
		cfg:          cfg,
		hub:          hub,
		carts:        carts,
		menuStore:    menuStore,
		galleryStore: galleryStore,
		categories:   categoryStore,
		orderStore:   orderStore,
		bookingStore: bookingStore,
		adminStore:   adminStore,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		metrics:      opts.Metrics,

		catalogH:   handler.NewCatalogHandler(menuStore, galleryStore, categoryStore, opts.Media, hub, logger.With("component", "catalog")),
		cartH:      handler.NewCartHandler(carts, menuStore, cfg.Server.SecureCookies, logger.With("component", "cart")),
		checkoutH:  handler.NewCheckoutHandler(checkoutSvc, carts, receipts, logger.With("component", "checkout")),
		orderH:     handler.NewOrderHandler(orderStore, hub, pub, opts.Metrics, receipts, logger.With("component", "order")),
		bookingH:   handler.NewBookingHandler(bookingStore, hub, pub, notifier, opts.Metrics, logger.With("component", "booking")),
		authH:      handler.NewAuthHandler(adminStore, sessionStore, statsStore, cfg.Admin.SessionTTL, cfg.Server.SecureCookies, logger.With("component", "auth")),
		uploadH:    handler.NewUploadHandler(opts.Media, logger.With("component", "upload")),
		pushH:      handler.NewPushHandler(pushStore, cfg.Push.VAPIDPublicKey, logger.With("component", "push_handler")),
		assistantH: handler.NewAssistantHandler(sultana, receipts, logger.With("component", "assistant")),
		backupH:    handler.NewBackupHandler(opts.Backups, backupStore, logger.With("component", "backup")),

		logger: logger,
	}

	opts.Metrics.RegisterGauge("websocket_clients", "Connected WebSocket clients.", func() float64 {
		return float64(hub.ClientCount())
	})
	opts.Metrics.RegisterGauge("rate_limit_keys", "Clients tracked by the rate limiter.", func() float64 {
		return float64(s.rateLimiter.Len())
	})
	opts.Metrics.RegisterGauge("carts", "Carts held in memory.", func() float64 {
		return float64(carts.Len())
	})

	return s
}

// Hub returns the realtime hub so main can attach a relay.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Carts returns the cart registry for cleanup tasks.
func (s *Server) Carts() *cart.Registry {
	return s.carts
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, ws.HandlerOptions{
		IsAdmin:     s.isAdmin,
		Snapshot:    s.snapshot,
		OriginHosts: ws.OriginHosts(s.cfg.Server.AllowedOrigins),
		Logger:      s.logger.With("component", "websocket"),
	}))

	s.registerPublicRoutes(mux)
	s.registerAdminRoutes(mux)

	if dir := s.cfg.Server.StaticDir; dir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(dir)))
	}

	var h http.Handler = mux
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = s.metrics.Middleware(h)
	h = middleware.CORS(s.cfg.Server.AllowedOrigins)(h)
	return h
}

func (s *Server) registerPublicRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/menu", s.catalogH.ListMenu)
	mux.HandleFunc("GET /api/menu/{id}", s.catalogH.GetMenuItem)
	mux.HandleFunc("GET /api/categories", s.catalogH.ListCategories)
	mux.HandleFunc("GET /api/gallery", s.catalogH.ListGallery)

	mux.HandleFunc("GET /api/cart", s.cartH.Get)
	mux.HandleFunc("POST /api/cart/items", s.cartH.AddItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", s.cartH.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", s.cartH.RemoveItem)
	mux.HandleFunc("DELETE /api/cart", s.cartH.Clear)

	mux.HandleFunc("POST /api/checkout", s.rateLimited("checkout", 10, s.checkoutH.PlaceOrder))
	mux.HandleFunc("POST /api/checkout/quote", s.checkoutH.Quote)
	mux.HandleFunc("GET /api/orders/{id}", s.orderH.Get)
	mux.HandleFunc("GET /api/orders/{id}/qrcode", s.orderH.QRCode)
	mux.HandleFunc("GET /api/payment/qrcode", s.orderH.PaymentQR)

	mux.HandleFunc("GET /api/bookings/options", s.bookingH.Options)
	mux.HandleFunc("POST /api/bookings", s.rateLimited("booking", 10, s.bookingH.Create))

	mux.HandleFunc("GET /api/assistant", s.assistantH.Greeting)
	mux.HandleFunc("POST /api/assistant/chat", s.rateLimited("assistant", 20, s.assistantH.Chat))
	mux.HandleFunc("POST /api/assistant/quote", s.assistantH.Quote)
	mux.HandleFunc("POST /api/assistant/orders", s.rateLimited("checkout", 10, s.assistantH.Order))

	mux.HandleFunc("POST /api/admin/login", s.rateLimited("login", 10, s.authH.Login))
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	requireAdmin := middleware.RequireAdmin(s.sessionStore, s.adminStore)
	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAdmin(h))
	}

	admin("POST /api/admin/logout", s.authH.Logout)
	admin("GET /api/admin/me", s.authH.Me)
	admin("GET /api/admin/stats", s.authH.Stats)

	admin("POST /api/admin/menu", s.catalogH.CreateMenuItem)
	admin("PUT /api/admin/menu/{id}", s.catalogH.UpdateMenuItem)
	admin("DELETE /api/admin/menu/{id}", s.catalogH.DeleteMenuItem)
	admin("POST /api/admin/categories", s.catalogH.AddCategory)
	admin("POST /api/admin/gallery", s.catalogH.CreateGalleryImage)
	admin("DELETE /api/admin/gallery/{id}", s.catalogH.DeleteGalleryImage)
	admin("POST /api/admin/uploads", s.uploadH.Upload)

	admin("GET /api/admin/orders", s.orderH.List)
	admin("PUT /api/admin/orders/{id}/status", s.orderH.UpdateStatus)
	admin("POST /api/admin/orders/{id}/advance", s.orderH.Advance)

	admin("GET /api/admin/bookings", s.bookingH.List)
	admin("PUT /api/admin/bookings/{id}/status", s.bookingH.UpdateStatus)

	admin("GET /api/admin/push/vapid-key", s.pushH.GetVAPIDKey)
	admin("POST /api/admin/push/subscribe", s.pushH.Subscribe)
	admin("GET /api/admin/push/subscriptions", s.pushH.ListSubscriptions)
	admin("DELETE /api/admin/push/subscriptions/{id}", s.pushH.Unsubscribe)

	admin("GET /api/admin/backups", s.backupH.List)
	admin("POST /api/admin/backups", s.backupH.Run)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimited limits h per client IP. Routes sharing a scope share a budget.
func (s *Server) rateLimited(scope string, limit int, h http.HandlerFunc) http.HandlerFunc {
	rule := middleware.Rule{Scope: scope, Limit: limit, Window: time.Minute}
	return s.rateLimiter.Limit(rule)(h).ServeHTTP
}

func (s *Server) isAdmin(r *http.Request) bool {
	_, ok := middleware.Authenticate(r, s.sessionStore, s.adminStore)
	return ok
}

// Snapshot is the first message on every realtime connection. Orders and
// bookings are only included for admins.
type Snapshot struct {
	Menu       []model.FoodItem     `json:"menu"`
	Gallery    []model.GalleryImage `json:"gallery"`
	Categories []model.Category     `json:"categories"`
	Orders     []model.Order        `json:"orders,omitempty"`
	Bookings   []model.Booking      `json:"bookings,omitempty"`
}

// Versions reports the version of every order and booking in the snapshot.
func (snap Snapshot) Versions() map[string]int64 {
	v := make(map[string]int64, len(snap.Orders)+len(snap.Bookings))
	for _, o := range snap.Orders {
		v[ws.DocumentKey(ws.EntityOrder, o.ID)] = o.Version
	}
	for _, b := range snap.Bookings {
		v[ws.DocumentKey(ws.EntityBooking, b.ID)] = b.Version
	}
	return v
}

func (s *Server) snapshot(_ context.Context, admin bool) (any, error) {
	var snap Snapshot
	var err error
	if snap.Menu, err = s.menuStore.List(); err != nil {
		return nil, fmt.Errorf("snapshot menu: %w", err)
	}
	if snap.Gallery, err = s.galleryStore.List(); err != nil {
		return nil, fmt.Errorf("snapshot gallery: %w", err)
	}
	if snap.Categories, err = s.categories.List(); err != nil {
		return nil, fmt.Errorf("snapshot categories: %w", err)
	}
	if !admin {
		return snap, nil
	}
	if snap.Orders, err = s.orderStore.List(); err != nil {
		return nil, fmt.Errorf("snapshot orders: %w", err)
	}
	if snap.Bookings, err = s.bookingStore.List(""); err != nil {
		return nil, fmt.Errorf("snapshot bookings: %w", err)
	}
	return snap, nil
}

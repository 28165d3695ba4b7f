package router

import (
	"context"
	"errors"
	"net/http"

	"traderiser-backend/internal/application/accounts"
	"traderiser-backend/internal/application/alerts"
	authsvc "traderiser-backend/internal/application/auth"
	"traderiser-backend/internal/application/emails"
	healthsvc "traderiser-backend/internal/application/health"
	"traderiser-backend/internal/application/ledger"
	"traderiser-backend/internal/application/live"
	"traderiser-backend/internal/application/market"
	"traderiser-backend/internal/application/valuation"
	"traderiser-backend/internal/config"
	"traderiser-backend/internal/infrastructure/database"
	accounthandler "traderiser-backend/internal/interfaces/handlers/account"
	alerthandler "traderiser-backend/internal/interfaces/handlers/alerts"
	analysishandler "traderiser-backend/internal/interfaces/handlers/analysis"
	authhandler "traderiser-backend/internal/interfaces/handlers/auth"
	healthhandler "traderiser-backend/internal/interfaces/handlers/health"
	livehandler "traderiser-backend/internal/interfaces/handlers/live"
	markethandler "traderiser-backend/internal/interfaces/handlers/market"
	portfoliohandler "traderiser-backend/internal/interfaces/handlers/portfolio"
	tradehandler "traderiser-backend/internal/interfaces/handlers/trading"
	txhandler "traderiser-backend/internal/interfaces/handlers/transactions"
	"traderiser-backend/internal/middleware"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// healthProbeTicker is quoted by the market-data health probe.
const healthProbeTicker = "SPY"

// App is everything the process owns: HTTP surface, stores and background workers.
type App struct {
	Fiber   *fiber.App
	DB      *gorm.DB
	Rdb     *redis.Client
	Gateway *market.Gateway
	Monitor *alerts.Monitor
	Live    *live.Manager
}

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// NewProvider returns the market-data upstream named by MARKET_PROVIDER.
func NewProvider(cfg *config.Config) market.Provider {
	if cfg.MarketProvider == "alpaca" {
		return market.NewAlpacaProvider(cfg.AlpacaAPIKey, cfg.AlpacaAPISecret, cfg.AlpacaDataURL)
	}
	return market.NewYahooProvider(cfg.YahooBaseURL)
}

// NewMailer returns nil when neither SMTP nor Brevo is configured.
func NewMailer(cfg *config.Config) emails.Sender {
	switch {
	case cfg.SMTPHost != "":
		return emails.NewMailer(&emails.SMTPClient{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	case cfg.SendinblueAPIKey != "":
		return emails.NewMailer(&emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom})
	}
	return nil
}

// CreateApp opens the stores, builds the services and mounts every route.
// Live sessions are bound to root and end when it is cancelled.
func CreateApp(root context.Context, cfg *config.Config) (*App, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(rdb),
		EnableTrustedProxyCheck: true,
		JSONEncoder:             json.Marshal,
		JSONDecoder:             json.Unmarshal,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix:  cfg.FrontendURLEndsWith,
		DevPassword:    cfg.DevPassword,
		AllowLocalhost: !cfg.IsProduction(),
	}))
	app.Use(middleware.Session(rdb))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	gw := market.NewGateway(NewProvider(cfg), &market.RedisCache{Rdb: rdb},
		market.WithQuoteTTL(cfg.QuoteCacheTTL),
		market.WithHistoryTTL(cfg.HistoryCacheTTL))
	mailer := NewMailer(cfg)
	if mailer == nil {
		log.Warn().Msg("No mail transport configured, e-mails disabled")
	}

	acctSvc := &accounts.Service{DB: db, Rdb: rdb, Mailer: mailer, StartingBalance: cfg.StartingBalance}
	alertSvc := &alerts.Service{DB: db, Prices: gw, Mailer: mailer}
	ledgerSvc := &ledger.Service{DB: db}
	valSvc := &valuation.Service{
		DB:     db,
		Prices: gw,
		Store:  &valuation.RedisHistory{Rdb: rdb, Capacity: cfg.HistoryCapacity},
	}
	liveMgr := live.NewManager(root, gw, cfg.LiveTickInterval)
	monitor := &alerts.Monitor{Service: alertSvc, Interval: cfg.AlertPollInterval}

	// Health
	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
		Probes: []healthsvc.Probe{{
			Name: "market_data_" + gw.ProviderName(),
			Check: func(ctx context.Context) error {
				_, err := gw.Quote(ctx, healthProbeTicker)
				return err
			},
		}},
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	// Auth
	ah := &authhandler.Handlers{
		Accounts: acctSvc,
		Finder:   &authsvc.GormAccountFinder{DB: db},
		Rdb:      rdb,
		Config:   sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/register", ah.Register)
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	// Account + watchlist
	acch := &accounthandler.Handlers{Service: acctSvc, Quotes: gw, Config: sessionCfg}
	accg := app.Group("/api/v1/account", middleware.RequireAuth())
	accg.Get("/", acch.Profile)
	accg.Patch("/", acch.UpdateProfile)
	accg.Post("/waitlist", acch.JoinWaitlist)
	wg := app.Group("/api/v1/watchlist", middleware.RequireAuth())
	wg.Get("/", acch.Watchlist)
	wg.Post("/", acch.AddToWatchlist)
	wg.Delete("/:ticker", acch.RemoveFromWatchlist)

	// Trading
	th := &tradehandler.Handlers{Ledger: ledgerSvc, Live: liveMgr, Market: gw}
	tg := app.Group("/api/v1/trading", middleware.RequireAuth())
	tg.Post("/buy", th.Buy)
	tg.Post("/sell", th.Sell)

	// Transactions
	txh := &txhandler.Handlers{Ledger: ledgerSvc}
	app.Get("/api/v1/transactions", middleware.RequireAuth(), txh.GetTransactions)

	// Portfolio
	ph := &portfoliohandler.Handlers{Valuation: valSvc}
	pg := app.Group("/api/v1/portfolio", middleware.RequireAuth())
	pg.Get("/", ph.Snapshot)
	pg.Get("/history", ph.History)

	// Alerts
	alh := &alerthandler.Handlers{Service: alertSvc}
	alg := app.Group("/api/v1/alerts", middleware.RequireAuth())
	alg.Get("/", alh.List)
	alg.Post("/", alh.Create)
	alg.Post("/check", alh.Check)
	alg.Delete("/:id", alh.Delete)

	// Market data is public.
	mh := &markethandler.Handlers{Gateway: gw}
	mg := app.Group("/api/v1/market")
	mg.Get("/quote/:ticker", mh.Quote)
	mg.Get("/history/:ticker", mh.History)
	mg.Get("/news", mh.News)
	mg.Get("/movers", mh.Movers)
	mg.Get("/sectors", mh.Sectors)

	// Live simulator
	lh := &livehandler.Handlers{Manager: liveMgr}
	lg := app.Group("/api/v1/live", middleware.RequireAuth())
	lg.Post("/:ticker/start", lh.Start)
	lg.Post("/:ticker/stop", lh.Stop)
	lg.Get("/:ticker/candles", lh.Candles)

	// Analysis
	anh := &analysishandler.Handlers{Market: gw, Accounts: acctSvc}
	ang := app.Group("/api/v1/analysis", middleware.RequireAuth())
	ang.Post("/position-risk", anh.PositionRisk)
	ang.Get("/:ticker/forecast", anh.Forecast)
	ang.Get("/:ticker/risk", anh.Risk)

	return &App{
		Fiber:   app,
		DB:      db,
		Rdb:     rdb,
		Gateway: gw,
		Monitor: monitor,
		Live:    liveMgr,
	}, nil
}

// Close stops live sessions and releases the stores.
func (a *App) Close() {
	a.Live.Shutdown()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Rdb.Close()
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Farmacia-api/internal/application/ledger"
	"github.com/jhoicas/Farmacia-api/internal/application/order"
	"github.com/jhoicas/Farmacia-api/internal/application/ports"
	"github.com/jhoicas/Farmacia-api/internal/application/transfer"
	"github.com/jhoicas/Farmacia-api/internal/domain/pricing"
	"github.com/jhoicas/Farmacia-api/internal/domain/repository"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/memory"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/notify"
	"github.com/jhoicas/Farmacia-api/internal/infrastructure/postgres"
	infrapubsub "github.com/jhoicas/Farmacia-api/internal/infrastructure/pubsub"
	infraredis "github.com/jhoicas/Farmacia-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/Farmacia-api/internal/interfaces/http"
	"github.com/jhoicas/Farmacia-api/pkg/config"
	"github.com/jhoicas/Farmacia-api/pkg/logger"
)

// backend colaboradores de persistencia elegidos por APP_STORE.
type backend struct {
	tx        ports.TxRunner
	reads     repository.TxRepos
	users     repository.UserDirectory
	catalog   repository.ProductCatalog
	locations repository.LocationRegistry
	customers repository.CustomerRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer be.close()

	locker, closeLocker := openLocker(ctx, cfg, log)
	defer closeLocker()
	events, closeEvents := openPublisher(ctx, cfg, log)
	defer closeEvents()

	timeout := cfg.Core.OperationTimeout
	orderUC := order.NewUseCase(order.Deps{
		Tx:            be.tx,
		Orders:        be.reads.Orders,
		Loyalty:       be.reads.Loyalty,
		Users:         be.users,
		Catalog:       be.catalog,
		Locations:     be.locations,
		Customers:     be.customers,
		Prescriptions: be.reads.Prescriptions,
		Deliveries:    be.reads.Deliveries,
		Pricing: pricing.NewResolver(pricing.Fees{
			ConsultationFee:       cfg.Pricing.ConsultationFee,
			DeliveryFee:           cfg.Pricing.DeliveryFee,
			FreeDeliveryThreshold: cfg.Pricing.FreeDeliveryThreshold,
		}),
		Locker:  locker,
		Events:  events,
		Log:     log,
		Timeout: timeout,
	})
	transferUC := transfer.NewUseCase(transfer.Deps{
		Tx:        be.tx,
		Transfers: be.reads.Transfers,
		Ledger:    be.reads.Ledger,
		Users:     be.users,
		Catalog:   be.catalog,
		Locations: be.locations,
		Events:    events,
		Log:       log,
		Timeout:   timeout,
	})
	ledgerUC := ledger.NewUseCase(be.tx, be.reads.Ledger, be.users, events, log, timeout)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.App.Store})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		OrderUC:    orderUC,
		TransferUC: transferUC,
		LedgerUC:   ledgerUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor HTTP finalizado")
	}

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.App.Store == "memory" {
		st := memory.NewStore()
		seedDemo(st, cfg, log)
		return &backend{
			tx:        st,
			reads:     st.Repos(),
			users:     st.Directory(),
			catalog:   st.Catalog(),
			locations: st.Locations(),
			customers: st.Customers(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &backend{
		tx:        postgres.NewTxRunner(pool),
		reads:     postgres.Repos(pool),
		users:     postgres.NewUserDirectory(pool),
		catalog:   postgres.NewProductCatalog(pool),
		locations: postgres.NewLocationRegistry(pool),
		customers: postgres.NewCustomerRepository(pool),
		close:     pool.Close,
	}, nil
}

// openLocker usa Redis si REDIS_ADDR está definido; si no, un bloqueo en proceso.
func openLocker(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.OrderLocker, func()) {
	if cfg.Redis.Addr == "" {
		log.Warn().Msg("REDIS_ADDR vacío: bloqueo de órdenes solo dentro del proceso")
		return memory.NewKeyedLocker(), func() {}
	}
	rdb, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	log.Info().Str("addr", cfg.Redis.Addr).Dur("lock_ttl", cfg.Redis.LockTTL).Msg("bloqueo de órdenes en Redis")
	return infraredis.NewOrderLocker(rdb, cfg.Redis.LockTTL, log), func() { _ = rdb.Close() }
}

// openPublisher usa Pub/Sub si PUBSUB_PROJECT_ID está definido; si no, registra los eventos en el log.
func openPublisher(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.EventPublisher, func()) {
	if cfg.PubSub.ProjectID == "" {
		return notify.NewLogPublisher(log), func() {}
	}
	client, err := infrapubsub.NewClient(ctx, cfg.PubSub)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente Pub/Sub")
	}
	pub, err := infrapubsub.New(client, cfg.PubSub.Topic)
	if err != nil {
		log.Fatal().Err(err).Msg("publicador Pub/Sub")
	}
	log.Info().Str("project", cfg.PubSub.ProjectID).Str("topic", cfg.PubSub.Topic).Msg("eventos hacia Pub/Sub")
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar Pub/Sub")
		}
	}
}

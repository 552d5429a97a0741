// Package kernel assembles the application: persistence, realtime
// fan-out, services, controllers and the HTTP handler.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/dimitrisnimas/Online-Delivery-App/app/controllers"
	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/app/routes"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/config"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/auth"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/cache"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/metrics"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/middleware"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/realtime"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/reqid"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/router"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/workerpool"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/ws"
)

const (
	publishTimeout = 5 * time.Second
	sweepInterval  = time.Minute
)

// Kernel owns the long-lived parts of one API instance.
type Kernel struct {
	Router *router.Router

	hub     *realtime.Hub
	bridge  *realtime.RedisBridge
	pool    *workerpool.Pool
	limiter *middleware.Limiter
	closers []func() error
}

// New wires every component on top of db. Redis and RabbitMQ are dialed
// only when configured.
func New(ctx context.Context, db *gorm.DB) (*Kernel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	k := &Kernel{
		hub:     realtime.NewHub(),
		limiter: middleware.NewLimiter(config.RateLimitPerMinute()),
	}
	if err := k.limiter.TrustProxies(config.TrustedProxies()...); err != nil {
		return nil, err
	}

	publisher, err := k.publisher(ctx)
	if err != nil {
		k.Close() //nolint:errcheck
		return nil, err
	}

	stores := repositories.NewStoreRepository(db)
	users := repositories.NewUserRepository(db)
	products := repositories.NewProductRepository(db)
	stages := repositories.NewStageRepository(db)
	orders := repositories.NewOrderRepository(db)
	issuer := auth.NewIssuer(config.JWTSecret(), config.JWTTTL())

	orderService := services.NewOrderService(orders, products, stages, publisher)

	r := router.New()
	r.Use(
		metrics.Middleware(),
		middleware.Recovery,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions(config.CORSOrigins())),
		k.limiter.Middleware,
	)
	r.HandleFunc("/metrics", metrics.Handler())

	routes.RegisterAPI(r, routes.Deps{
		Resolver: services.NewTenantResolver(stores),
		Verifier: services.NewVerifier(issuer, users),
		Auth:     controllers.NewAuthController(services.NewAuthService(users, issuer)),
		Orders:   controllers.NewOrderController(orderService, k.hub),
		Store:    controllers.NewStoreController(services.NewCatalogService(products, stages)),
		Platform: controllers.NewPlatformController(services.NewPlatformService(stores, users, orders)),
		Realtime: controllers.NewRealtimeController(orderService, k.hub),
	})
	k.Router = r

	if origins := config.CORSOrigins(); len(origins) > 0 && origins[0] != "*" {
		ws.SetCheckOrigin(middleware.OriginAllowed(origins))
	}
	return k, nil
}

// publisher builds the order-event chain:
//
//	Async(workerpool) → Fanout{hub or redis bridge, amqp mirror}
func (k *Kernel) publisher(ctx context.Context) (realtime.Publisher, error) {
	var local realtime.Publisher = k.hub

	switch driver := config.RealtimeDriver(); driver {
	case "memory":
	case "redis":
		client, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword())
		if err != nil {
			return nil, err
		}
		k.closers = append(k.closers, client.Close)
		k.bridge = realtime.NewRedisBridge(client, realtime.DefaultChannel, k.hub)
		local = k.bridge
	default:
		return nil, fmt.Errorf("kernel: unknown REALTIME_DRIVER %q", driver)
	}

	fanout := realtime.Fanout{local}
	if url := config.AMQPURL(); url != "" {
		mirror, closeFn, err := realtime.DialAMQP(url, config.AMQPExchange())
		if err != nil {
			return nil, err
		}
		k.closers = append(k.closers, closeFn)
		fanout = append(fanout, mirror)
		logger.Info("realtime: mirroring order events to amqp", "exchange", config.AMQPExchange())
	}

	workers := config.RealtimeWorkers()
	k.pool = workerpool.New(workers, workers*64)
	return realtime.NewAsync(k.pool, fanout, publishTimeout), nil
}

func (k *Kernel) Handler() http.Handler { return k.Router.Handler() }

// Run drives the hub, the redis relay and the rate-limiter sweep until
// ctx ends.
func (k *Kernel) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		k.hub.Run(gctx)
		return nil
	})
	if k.bridge != nil {
		g.Go(func() error { return k.bridge.Run(gctx) })
	}
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				k.limiter.Sweep()
			}
		}
	})
	return g.Wait()
}

// Close drains pending emissions and releases broker connections.
func (k *Kernel) Close() error {
	if k.pool != nil {
		k.pool.Shutdown()
	}
	var errs []error
	for i := len(k.closers) - 1; i >= 0; i-- {
		errs = append(errs, k.closers[i]())
	}
	return errors.Join(errs...)
}

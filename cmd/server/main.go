// Command server wires the booking engine: stores (Postgres or in-memory),
// the per-vertical services, and the HTTP surface. Business logic lives in
// the internal services; main only assembles them.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	carpoolhandler "fleetpool/internal/carpool/handler"
	carpoolmetrics "fleetpool/internal/carpool/metrics"
	carpoolservice "fleetpool/internal/carpool/service"
	"fleetpool/internal/carpool/store/listing"
	"fleetpool/internal/carpool/store/registration"
	"fleetpool/internal/jwttoken"
	"fleetpool/internal/notify"
	"fleetpool/internal/platform/config"
	"fleetpool/internal/platform/httpserver"
	"fleetpool/internal/platform/logger"
	platformmetrics "fleetpool/internal/platform/metrics"
	"fleetpool/internal/platform/middleware"
	"fleetpool/internal/platform/postgres"
	platformredis "fleetpool/internal/platform/redis"
	ratelimitservice "fleetpool/internal/ratelimit/service"
	"fleetpool/internal/ratelimit/store/lockout"
	reshandler "fleetpool/internal/reservations/handler"
	resmetrics "fleetpool/internal/reservations/metrics"
	resservice "fleetpool/internal/reservations/service"
	"fleetpool/internal/reservations/store/reservation"
	"fleetpool/internal/route"
	userhandler "fleetpool/internal/users/handler"
	usermetrics "fleetpool/internal/users/metrics"
	userservice "fleetpool/internal/users/service"
	"fleetpool/internal/users/store/resettoken"
	"fleetpool/internal/users/store/user"
	vehhandler "fleetpool/internal/vehicles/handler"
	vehmetrics "fleetpool/internal/vehicles/metrics"
	vehservice "fleetpool/internal/vehicles/service"
	"fleetpool/internal/vehicles/store/fleetvehicle"
	"fleetpool/internal/vehicles/store/personalvehicle"
	"fleetpool/pkg/platform/middleware/requesttime"
	"fleetpool/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ------------------------------------------------------------------
	// Storage
	// ------------------------------------------------------------------
	var (
		db     *sql.DB
		runner tx.Runner

		userStore        userservice.UserStore
		fleetStore       vehservice.FleetVehicleStore
		personalStore    vehservice.PersonalVehicleStore
		reservationStore resservice.ReservationStore
		listingStore     carpoolservice.ListingStore
		regStore         carpoolservice.RegistrationStore
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		runner = tx.NewSQLRunner(db)
		userStore = user.NewPostgres(db)
		fleetStore = fleetvehicle.NewPostgres(db)
		personalStore = personalvehicle.NewPostgres(db)
		reservationStore = reservation.NewPostgres(db)
		listingStore = listing.NewPostgres(db)
		regStore = registration.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		// The in-memory stores only lock per call, so the booking
		// sections still need a serializing boundary.
		runner = tx.NewMutexRunner()
		userStore = user.NewInMemory()
		fleetStore = fleetvehicle.NewInMemory()
		personalStore = personalvehicle.NewInMemory()
		reservationStore = reservation.NewInMemory()
		listingStore = listing.NewInMemory()
		regStore = registration.NewInMemory()
		log.Info("using in-memory stores")
	}

	var (
		resetTokens  userservice.ResetTokenStore
		lockoutStore ratelimitservice.Store
	)
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		resetTokens = resettoken.NewRedis(redisClient.Client)
		lockoutStore = lockout.NewRedis(redisClient.Client)
		log.Info("using redis reset token and lockout stores")
	} else {
		resetTokens = resettoken.NewInMemory()
		lockoutStore = lockout.NewInMemory()
	}

	// ------------------------------------------------------------------
	// Services
	// ------------------------------------------------------------------
	jwtService := jwttoken.New(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTTTL)
	routeClient := route.New(cfg.NominatimURL, cfg.OSRMURL, route.WithLogger(log))

	var mailer notify.Mailer
	if cfg.SMTPAddr != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		mailer = notify.NewLogMailer(log)
	}
	notifier := notify.New(mailer, userStore, notify.WithLogger(log))
	loginThrottle := ratelimitservice.New(lockoutStore, ratelimitservice.WithLogger(log))

	users := userservice.New(userStore, resetTokens, jwtService, notifier,
		userservice.WithLogger(log),
		userservice.WithMetrics(usermetrics.New()),
		userservice.WithResetTTL(cfg.ResetTokenTTL),
		userservice.WithLoginThrottle(loginThrottle),
	)
	vehicles := vehservice.New(fleetStore, personalStore, reservationStore,
		vehservice.WithLogger(log),
		vehservice.WithMetrics(vehmetrics.New()),
	)
	carpool := carpoolservice.New(listingStore, regStore, fleetStore, personalStore, routeClient, notifier,
		carpoolservice.WithLogger(log),
		carpoolservice.WithMetrics(carpoolmetrics.New()),
		carpoolservice.WithTxRunner(runner),
	)
	reservations := resservice.New(reservationStore, fleetStore, carpool,
		resservice.WithLogger(log),
		resservice.WithMetrics(resmetrics.New()),
		resservice.WithTxRunner(runner),
	)

	// ------------------------------------------------------------------
	// HTTP surface
	// ------------------------------------------------------------------
	httpMetrics := platformmetrics.New()

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(requesttime.Middleware)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(httpMetrics))

	userhandler.New(users, jwtService, log).Register(router)
	vehhandler.New(vehicles, jwtService, log).Register(router)
	reshandler.New(reservations, jwtService, log).Register(router)
	carpoolhandler.New(carpool, jwtService, log).Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	// ------------------------------------------------------------------
	// Lifecycle
	// ------------------------------------------------------------------
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting fleetpool", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

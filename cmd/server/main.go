package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	store "github.com/EtoYaLama/gunplaDIPLOM"
	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

type App struct {
	config *gconfig.Container[*store.BaseConfig]
	bunDB  *bun.DB
	repo   store.RepositoryManager
	authn  *store.RouteAuthenticator
	fiber  *fiber.App
	logger *glog.BaseLogger
}

func (a *App) Config() *store.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("store"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&store.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(app); err != nil {
		panic(err)
	}

	addr := app.Config().GetServer().GetAddress()
	go func() {
		if err := app.fiber.Listen(addr); err != nil {
			app.GetLogger("server").Error("server stopped", "error", err)
		}
	}()

	WaitExitSignal()

	if err := app.fiber.Shutdown(); err != nil {
		app.GetLogger("server").Error("shutdown error", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	pcfg := app.Config().GetPersistence()

	var db *sql.DB
	var dialect schema.Dialect
	var err error

	if strings.HasPrefix(pcfg.GetDriver(), "postgres") {
		db = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pcfg.GetDSN())))
		dialect = pgdialect.New()
	} else {
		db, err = sql.Open(sqliteshim.ShimName, pcfg.GetDSN())
		if err != nil {
			log.Fatal(err)
			return err
		}
		dialect = sqlitedialect.New()
	}

	persistence.RegisterModel((*store.User)(nil))
	persistence.RegisterModel((*store.Product)(nil))
	persistence.RegisterModel((*store.CartItem)(nil))
	persistence.RegisterModel((*store.Order)(nil))
	persistence.RegisterModel((*store.OrderItem)(nil))

	client, err := persistence.New(pcfg, db, dialect)
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(store.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = store.NewRepositoryManager(client.DB())
	app.repo.MustValidate()

	return nil
}

type userTrackerAdapter struct {
	users store.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*store.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *store.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSucccessfulLogin(ctx context.Context, user *store.User) error {
	return a.users.TrackSucccessfulLogin(ctx, user)
}

func WithHTTPServer(app *App) error {
	authCfg := app.Config().GetAuth()

	userProvider := store.NewUserProvider(userTrackerAdapter{users: app.repo.Users()}).
		WithLogger(app.GetLogger("auth:prv"))

	authenticator := store.NewAuthenticator(userProvider, authCfg).
		WithLogger(app.GetLogger("auth"))

	authn, err := store.NewHTTPAuthenticator(authenticator, authCfg)
	if err != nil {
		return err
	}
	authn.WithLogger(app.GetLogger("auth:http"))
	app.authn = authn

	app.fiber = fiber.New(fiber.Config{
		AppName:      "gunpla-store",
		ErrorHandler: store.ErrorHandler(app.GetLogger("http")),
	})

	store.RegisterAuthRoutes(app.fiber,
		store.NewAuthController(app.repo, authn).
			WithLogger(app.GetLogger("auth:ctrl")))

	store.RegisterProductRoutes(app.fiber,
		store.NewProductsController(app.repo, authn).
			WithLogger(app.GetLogger("products:ctrl")))

	store.RegisterOrderRoutes(app.fiber,
		store.NewOrdersController(app.repo, authn).
			WithLogger(app.GetLogger("orders:ctrl")))

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}

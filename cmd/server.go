package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"

	"github.com/checkmarble/kyc-backend/api"
	"github.com/checkmarble/kyc-backend/infra"
	"github.com/checkmarble/kyc-backend/repositories"
	"github.com/checkmarble/kyc-backend/usecases"
	"github.com/checkmarble/kyc-backend/utils"
)

func RunServer() error {
	apiConfig := apiConfigFromEnv()
	pgConfig := pgConfigFromEnv()
	blobConfig := blobConfigFromEnv()
	authConfig := authConfigFromEnv()
	serverConfig := ServerConfig{
		loggingFormat:       utils.GetEnv("LOGGING_FORMAT", "text"),
		sentryDsn:           utils.GetEnv("SENTRY_DSN", ""),
		createAdminEmail:    utils.GetEnv("CREATE_ADMIN_EMAIL", ""),
		createAdminPassword: utils.GetEnv("CREATE_ADMIN_PASSWORD", ""),
	}

	logger := utils.NewLogger(serverConfig.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	if err := serverConfig.Validate(); err != nil {
		utils.LogAndReportSentryError(ctx, err)
		return err
	}

	infra.SetupSentry(serverConfig.sentryDsn, apiConfig.Env, apiVersion)
	defer sentry.Flush(3 * time.Second)

	telemetryRessources, err := infra.InitTelemetry(telemetryConfigFromEnv(apiConfig.AppName), apiVersion)
	if err != nil {
		utils.LogAndReportSentryError(ctx, err)
		telemetryRessources = infra.NoopTelemetry()
	}

	pool, err := infra.NewPostgresConnectionPool(ctx, pgConfig.GetConnectionString(),
		telemetryRessources.TracerProvider, pgConfig.MaxPoolConnections)
	if err != nil {
		utils.LogAndReportSentryError(ctx, err)
		return err
	}
	defer pool.Close()

	blobRepository, err := repositories.NewBlobRepository(utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS", ""))
	if err != nil {
		utils.LogAndReportSentryError(ctx, err)
		return err
	}
	reasoningConfig := reasoningConfigFromEnv()
	reasoningClient, err := infra.NewReasoningClient(reasoningConfig)
	if err != nil {
		utils.LogAndReportSentryError(ctx, err)
		return err
	}
	jwtRepository := repositories.NewJwtRepository(ctx, authConfig)
	if authConfig.JwksUri == "" && authConfig.SharedSecret == "" {
		logger.WarnContext(ctx, "no token verification key configured, the admin api will reject every request")
	}
	if authConfig.JwksUri != "" && authConfig.SharedSecret != "" {
		logger.WarnContext(ctx, "jwks uri configured, tokens issued by /api/auth/login will be refused")
	}

	repos := repositories.NewRepositories(pool,
		repositories.WithBlobRepository(blobRepository),
		repositories.WithDocumentIntelligenceRepository(
			repositories.NewDocumentIntelligenceRepository(documentIntelligenceConfigFromEnv())),
		repositories.WithReasoningRepository(
			repositories.NewReasoningRepository(reasoningClient, reasoningConfig.Model)),
		repositories.WithJwtRepository(jwtRepository),
	)

	uc := usecases.NewUsecases(repos,
		usecases.WithApiVersion(apiVersion),
		usecases.WithBlobConfig(blobConfig),
	)

	////////////////////////////////////////////////////////////
	// Seed the database
	////////////////////////////////////////////////////////////
	accountUsecase := uc.NewAccountUsecase()
	if err := accountUsecase.EnsureAdmin(ctx, serverConfig.createAdminEmail, serverConfig.createAdminPassword); err != nil {
		utils.LogAndReportSentryError(ctx, err)
		return err
	}

	router := api.InitRouterMiddlewares(ctx, apiConfig, telemetryRessources)
	server := api.NewServer(router, apiConfig, uc, utils.NewAuthentication(jwtRepository))

	notify, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.InfoContext(ctx, "starting server", slog.String("port", apiConfig.Port),
			slog.String("version", apiVersion))
		err := server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			utils.LogAndReportSentryError(ctx, errors.Wrap(err, "Error while serving the app"))
		}
		logger.InfoContext(ctx, "server returned")
	}()

	<-notify.Done()
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogAndReportSentryError(
			ctx,
			errors.Wrap(err, "Error while shutting down the server"),
		)
		return err
	}
	if err := telemetryRessources.Shutdown(shutdownCtx); err != nil {
		utils.LogAndReportSentryError(ctx, errors.Wrap(err, "Error while flushing traces"))
	}

	return nil
}

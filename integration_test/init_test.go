package integration

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/checkmarble/kyc-backend/api"
	"github.com/checkmarble/kyc-backend/infra"
	"github.com/checkmarble/kyc-backend/repositories"
	"github.com/checkmarble/kyc-backend/usecases"
	"github.com/checkmarble/kyc-backend/utils"
)

const (
	testDbLifetime = 120 // seconds
	testUser       = "postgres"
	testPassword   = "pwd"
	testDbName     = "kyc"
	adminEmail     = "admin@kyc.test"
	adminPassword  = "admin-password"
	sharedSecret   = "integration-secret"
)

var (
	testServer    *httptest.Server
	upstream      *fakeUpstream
	documentsRoot string
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15",
		Env: []string{
			fmt.Sprintf("POSTGRES_PASSWORD=%s", testPassword),
			fmt.Sprintf("POSTGRES_USER=%s", testUser),
			fmt.Sprintf("POSTGRES_DB=%s", testDbName),
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}

	err = resource.Expire(testDbLifetime) // Tell docker to hard kill the container in testDbLifetime seconds
	if err != nil {
		log.Fatalf("Could not set container lifetime: %s", err)
	}

	pool.MaxWait = testDbLifetime * time.Second

	hostAndPort := resource.GetHostPort("5432/tcp")
	connectionString := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", testUser, testPassword, hostAndPort, testDbName)
	testDbPool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	if err = pool.Retry(func() error {
		err = testDbPool.Ping(ctx)
		if err != nil {
			log.Printf("Could not ping database: %s", err)
			return err
		}
		return nil
	}); err != nil {
		log.Fatalf("Could not connect to db: %s", err)
	}
	testDbPool.Close()

	pgConfig := infra.PgConfig{ConnectionString: connectionString}
	logger := utils.NewLogger("text")
	ctx = utils.StoreLoggerInContext(ctx, logger)

	if err := repositories.NewMigrater(pgConfig).Run(ctx); err != nil {
		log.Fatalf("Could not run migrations: %s", err)
	}

	dbPool, err := infra.NewPostgresConnectionPool(ctx, pgConfig.GetConnectionString(), nil, pgConfig.MaxPoolConnections)
	if err != nil {
		log.Fatalf("Could not create connection pool: %s", err)
	}

	upstream = newFakeUpstream()
	defer upstream.Close()

	documentsRoot, err = os.MkdirTemp("", "kyc-documents")
	if err != nil {
		log.Fatalf("Could not create the document bucket: %s", err)
	}
	signingKeyPath := filepath.Join(documentsRoot, ".signing-key")
	if err := os.WriteFile(signingKeyPath, []byte("integration-signing-key"), 0o600); err != nil {
		log.Fatalf("Could not write the url signing key: %s", err)
	}
	bucketUrl := fmt.Sprintf("file://%s/bucket?create_dir=true&base_url=%s&secret_key_path=%s",
		documentsRoot, "http://documents.kyc.test/blob", signingKeyPath)
	extractionBucketUrl := fmt.Sprintf("file://%s/extractions?create_dir=true", documentsRoot)

	blobRepository, err := repositories.NewBlobRepository("")
	if err != nil {
		log.Fatalf("Could not create blob repository: %s", err)
	}
	reasoningConfig := infra.ReasoningConfig{
		ProviderType: infra.ReasoningProviderOpenAI,
		BaseUrl:      upstream.URL + "/v1",
		ApiKey:       "test-key",
		Model:        "risk-model-test",
	}
	reasoningClient, err := infra.NewReasoningClient(reasoningConfig)
	if err != nil {
		log.Fatalf("Could not create reasoning client: %s", err)
	}
	jwtRepository := repositories.NewJwtRepository(ctx, infra.AuthConfig{SharedSecret: sharedSecret})

	repos := repositories.NewRepositories(dbPool,
		repositories.WithBlobRepository(blobRepository),
		repositories.WithDocumentIntelligenceRepository(repositories.NewDocumentIntelligenceRepository(
			infra.DocumentIntelligenceConfig{
				Endpoint:     upstream.URL,
				ApiKey:       "di-key",
				ModelId:      "prebuilt-idDocument",
				PollAttempts: 10,
				PollInterval: 10 * time.Millisecond,
			})),
		repositories.WithReasoningRepository(repositories.NewReasoningRepository(reasoningClient, reasoningConfig.Model)),
		repositories.WithJwtRepository(jwtRepository),
	)
	testUsecases := usecases.NewUsecases(repos,
		usecases.WithApiVersion("integration"),
		usecases.WithDocumentBucketUrl(bucketUrl),
		usecases.WithExtractionBucketUrl(extractionBucketUrl),
	)

	// the admin api needs a first admin account
	accountUsecase := testUsecases.NewAccountUsecase()
	if err := accountUsecase.EnsureAdmin(ctx, adminEmail, adminPassword); err != nil {
		log.Fatalf("Could not seed the admin account: %s", err)
	}

	apiConfig := api.Configuration{
		Env:                 "development",
		AppName:             "kyc-backend",
		Host:                "localhost",
		RequestLoggingLevel: "info",
	}
	router := api.InitRouterMiddlewares(ctx, apiConfig, infra.NoopTelemetry())
	server := api.NewServer(router, apiConfig, testUsecases, utils.NewAuthentication(jwtRepository))

	testServer = httptest.NewServer(server.Handler)
	logger.InfoContext(ctx, "started server", slog.String("url", testServer.URL))

	code := m.Run()

	testServer.Close()
	dbPool.Close()
	_ = os.RemoveAll(documentsRoot)

	// You can't defer this because os.Exit doesn't care for defer
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}

	os.Exit(code)
}

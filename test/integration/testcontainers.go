package integration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/doodlesbykumbi/registrar/db"
	"github.com/doodlesbykumbi/registrar/pkg/config"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/server"
	"github.com/doodlesbykumbi/registrar/pkg/server/endpoints"
	"github.com/doodlesbykumbi/registrar/pkg/token"
)

const serverPort = "18080"

// tables lists every application table, children first.
var tables = []string{
	"student_grades", "grade_types", "time_indices", "section_students", "sections",
	"curriculum_courses", "students", "instructors", "courses", "programs", "departments", "admins",
}

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB            *gorm.DB
	Container     testcontainers.Container
	ServerURL     string
	DatabaseURL   string
	AppKey        []byte
	HTTPClient    *http.Client
	ServerProcess *exec.Cmd
	InlineServer  *server.Server

	// adminToken is the last administrator token issued in any scenario. It
	// outlives the truncation in Reset long enough to reload the cache.
	adminToken string
}

// NewTestContext creates a new test context with PostgreSQL testcontainer.
// Modes:
//   - Binary mode (default): Set REGISTRAR_BINARY to the path of the registrarctl binary
//   - Inline mode: Set REGISTRAR_INLINE=1 to run the server in-process
func NewTestContext(ctx context.Context) (*TestContext, error) {
	inlineMode := os.Getenv("REGISTRAR_INLINE") == "1"
	binaryPath := os.Getenv("REGISTRAR_BINARY")

	if !inlineMode && binaryPath == "" {
		return nil, fmt.Errorf("Either REGISTRAR_BINARY or REGISTRAR_INLINE=1 is required.\n\nBinary mode:\n  go build -o registrarctl ./cmd/registrarctl\n  INTEGRATION_TEST=1 REGISTRAR_BINARY=$(pwd)/registrarctl go test -v ./test/integration/...\n\nInline mode:\n  INTEGRATION_TEST=1 REGISTRAR_INLINE=1 go test -v ./test/integration/...")
	}
	if !inlineMode {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("REGISTRAR_BINARY path does not exist: %s", binaryPath)
		}
		log.Printf("Using binary: %s", binaryPath)
	} else {
		log.Println("Using inline server mode")
	}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("registrar_test"),
		tcpostgres.WithUsername("registrar"),
		tcpostgres.WithPassword("registrar"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := migrateUp(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	appKey := make([]byte, token.MinKeyLength)
	for i := range appKey {
		appKey[i] = byte(i)
	}

	tc := &TestContext{
		DB:          gdb,
		Container:   pgContainer,
		ServerURL:   fmt.Sprintf("http://127.0.0.1:%s", serverPort),
		DatabaseURL: connStr,
		AppKey:      appKey,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}

	if inlineMode {
		err = tc.startInlineServer()
	} else {
		err = tc.startBinary(binaryPath)
	}
	if err != nil {
		tc.Close(ctx)
		return nil, err
	}

	if err := waitForServer(tc.ServerURL, 30*time.Second); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}
	return tc, nil
}

// migrateUp applies the embedded migrations, as `registrarctl db migrate`
// does in an embed_migrations build.
func migrateUp(dbURL string) error {
	migrationsFS, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return err
	}
	src, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// startInlineServer starts the server in-process (no binary needed)
func (tc *TestContext) startInlineServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cache := identity.NewCache()
	tokens, err := token.NewService(tc.AppKey, cfg.TokenTTL(), cache)
	if err != nil {
		return err
	}

	s := server.NewServer(cfg, tc.DB, cache, tokens, zerolog.New(io.Discard), "127.0.0.1", serverPort)
	s.AccessLog = io.Discard
	if err := s.ReloadCache(context.Background(), server.TriggerStartup, ""); err != nil {
		return err
	}
	endpoints.RegisterAll(s)

	go func() {
		_ = s.Start()
	}()
	tc.InlineServer = s
	return nil
}

// startBinary starts the registrarctl server binary
func (tc *TestContext) startBinary(binaryPath string) error {
	// Use --no-migrate since we already ran migrations in the test setup
	cmd := exec.Command(binaryPath, "server", "--no-migrate", "-b", "127.0.0.1", "-p", serverPort)
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+tc.DatabaseURL,
		"REGISTRAR_APP_KEY="+base64.StdEncoding.EncodeToString(tc.AppKey),
		"REGISTRAR_CONFIG_PATH="+os.TempDir(),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start binary: %w", err)
	}
	tc.ServerProcess = cmd
	return nil
}

// Reset empties every table and brings the server's identity cache in line.
func (tc *TestContext) Reset(ctx context.Context) error {
	for _, table := range tables {
		if err := tc.DB.WithContext(ctx).Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE").Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	if tc.InlineServer != nil {
		return tc.InlineServer.ReloadCache(ctx, server.TriggerAPI, "")
	}
	if tc.adminToken == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.ServerURL+"/admin/cache/reload", nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Auth-Token", tc.adminToken)
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cache reload returned %d", resp.StatusCode)
	}
	return nil
}

// waitForServer polls the health endpoint until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.InlineServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = tc.InlineServer.Shutdown(shutdownCtx)
		cancel()
	}
	if tc.ServerProcess != nil && tc.ServerProcess.Process != nil {
		_ = tc.ServerProcess.Process.Kill()
		_ = tc.ServerProcess.Wait()
	}
	if sqlDB, err := tc.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

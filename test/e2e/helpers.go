//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/propertybot/internal/api/handlers"
	"github.com/cloo-solutions/propertybot/internal/catalog"
	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/repository"
	"github.com/cloo-solutions/propertybot/internal/server"
	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/cloo-solutions/propertybot/internal/storage"
	"github.com/cloo-solutions/propertybot/internal/telemetry"
	"github.com/cloo-solutions/propertybot/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	adminKey     = "pbk_e2e-admin-key"
	importBucket = "imports"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	Catalog      *fakeCatalog
	S3Client     *storage.S3Client
	BinaryDir    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx, importBucket); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	cat := newFakeCatalog()
	serverURL, serverCloser := startServer(t, pool, s3Client, cat.URL(), port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		Catalog:      cat,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Catalog != nil {
		e.Catalog.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinaries builds the propertybot client binary
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "propertybot-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "propertybot"), "./cmd/propertybot")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build propertybot: %v\n%s", err, out)
	}
}

// RunPropertybot runs the propertybot CLI against the test server
func (e *E2ETestEnv) RunPropertybot(input string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "propertybot"), args...)
	cmd.Dir = e.BinaryDir
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	cmd.Env = append(os.Environ(),
		"HOME="+e.BinaryDir,
		"XDG_CONFIG_HOME="+e.BinaryDir,
		fmt.Sprintf("PROPERTYBOT_API_KEY=%s", adminKey),
		fmt.Sprintf("PROPERTYBOT_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// UploadImport stores a semicolon-separated property file and returns its s3 URI.
func (e *E2ETestEnv) UploadImport(key, content string) string {
	if err := e.S3Client.PutObject(e.Ctx, importBucket, key, strings.NewReader(content), "text/csv"); err != nil {
		e.T.Fatalf("failed to upload %s: %v", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", importBucket, key)
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Post performs a POST request and decodes the standard envelope
func (e *E2ETestEnv) Post(path string, body interface{}, authToken string) (*APIResponse, error) {
	status, raw, err := e.PostRaw(path, body, authToken)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		if status >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", status, string(raw))
		}
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", status, apiResp.Error)
	}
	return &apiResp, nil
}

// PostRaw performs a POST request and returns the status and undecoded body
func (e *E2ETestEnv) PostRaw(path string, body interface{}, authToken string) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(http.MethodPost, e.ServerURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// startServer wires the daemon's services the way serve does, with a fake
// model provider in place of OpenAI.
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, catalogURL string, port int) (string, func()) {
	metrics := telemetry.NewMetrics()
	properties := repository.NewPropertyRepository(pool)
	embeddings := repository.NewEmbeddingRepository(pool)
	provider := &fakeProvider{}

	importer := service.NewImportService(
		provider,
		properties,
		repository.NewTxRunner(pool),
		storage.NewSourceOpener(s3Client, ""),
		metrics,
		service.ImportConfig{BatchSize: 2},
	)
	search := service.NewSearchService(provider, embeddings, properties, service.SearchConfig{})
	assistant := service.NewAssistant(
		provider,
		embeddings,
		provider,
		service.NewIdentifierExtractor(true),
		service.NewRecordResolver(catalog.NewClient(catalog.Config{URL: catalogURL, Timeout: 5 * time.Second}), metrics),
		metrics,
		service.AssistantConfig{},
	)

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:     handlers.NewChatHandler(assistant, service.NewSessionRegistry(metrics), nil),
		SearchHandler:   handlers.NewSearchHandler(search),
		PropertyHandler: handlers.NewPropertyHandler(importer),
		AuthValidator:   service.NewAdminAuth(adminKey),
		Metrics:         metrics.Handler(),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// topics maps a keyword to the embedding axis texts mentioning it land on.
var topics = []string{"harbour", "garden", "loft"}

var idPattern = regexp.MustCompile(`ID - ([0-9a-f-]{36})`)

// fakeProvider embeds texts by keyword and answers with a placeholder for
// every property passage in the prompt.
type fakeProvider struct{}

func (p *fakeProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	for i, topic := range topics {
		if strings.Contains(lower, topic) {
			return testutil.AxisVector(i), nil
		}
	}
	return testutil.AxisVector(len(topics)), nil
}

func (p *fakeProvider) Complete(ctx context.Context, systemPrompt string, history []domain.ChatMessage, userMessage string) (string, error) {
	matches := idPattern.FindAllStringSubmatch(userMessage, -1)
	if len(matches) == 0 {
		return "I could not find a matching property.", nil
	}

	var b strings.Builder
	b.WriteString("You might like")
	for _, m := range matches {
		b.WriteString(" ")
		b.WriteString(service.Placeholder(m[1]))
	}
	return b.String(), nil
}

// fakeCatalog answers the properties query for listings registered with Add.
type fakeCatalog struct {
	srv      *httptest.Server
	mu       sync.Mutex
	listings map[string]domain.ListedProperty
}

func newFakeCatalog() *fakeCatalog {
	c := &fakeCatalog{listings: make(map[string]domain.ListedProperty)}
	c.srv = httptest.NewServer(http.HandlerFunc(c.serve))
	return c
}

func (c *fakeCatalog) URL() string { return c.srv.URL }

func (c *fakeCatalog) Close() { c.srv.Close() }

func (c *fakeCatalog) Add(p domain.ListedProperty) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listings[p.ID] = p
}

func (c *fakeCatalog) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Variables struct {
			Filters struct {
				IDs []string `json:"ids"`
			} `json:"filters"`
		} `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c.mu.Lock()
	found := make([]domain.ListedProperty, 0, len(req.Variables.Filters.IDs))
	for _, id := range req.Variables.Filters.IDs {
		if p, ok := c.listings[id]; ok {
			found = append(found, p)
		}
	}
	c.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"properties": found}})
}

//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	httpserver "tripvote/internal/adapters/http_server"
	redisad "tripvote/internal/adapters/redis"
	"tripvote/internal/app"
	"tripvote/internal/domain"
	mysqlrepo "tripvote/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=tripvote",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/tripvote?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC", hostPort)

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

type env struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func call(t *testing.T, method, url string, body any) (int, env) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	var e env
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return res.StatusCode, e
}

type tally struct {
	Count      int `json:"count"`
	Selections []struct {
		Name      string `json:"name"`
		Occupancy int    `json:"occupancy"`
		Timestamp string `json:"timestamp"`
		Notes     string `json:"notes"`
	} `json:"selections"`
}

// ---------- the test ----------

func TestHTTP_EndToEnd(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// seed one city and two hotels straight through the repo
	if err := repo.UpsertConfig(ctx, domain.TripConfig{Title: "Rajasthan Trip", CTANote: "pick one", Currency: "₹"}); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	if err := repo.UpsertCity(ctx, domain.City{ID: "jaipur1", Name: "Jaipur", Dates: "Dec 14–16"}); err != nil {
		t.Fatalf("seed city: %v", err)
	}
	for _, h := range []domain.Hotel{
		{ID: "h1", CityID: "jaipur1", Name: "Pearl Palace"},
		{ID: "h2", CityID: "jaipur1", Name: "Alsisar Haveli"},
	} {
		if err := repo.UpsertHotel(ctx, h); err != nil {
			t.Fatalf("seed hotel %s: %v", h.ID, err)
		}
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		Catalog:    app.NewCatalogService(repo, cache, 5*time.Minute),
		Selections: app.NewSelectionService(repo, repo, cache, 5*time.Minute),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)

	votes := func() map[string]tally {
		code, e := call(t, http.MethodGet, ts.URL+"/votes", nil)
		if code != 200 || !e.Success {
			t.Fatalf("GET /votes: status=%d err=%s", code, e.Error)
		}
		var agg map[string]map[string]tally
		if err := json.Unmarshal(e.Data, &agg); err != nil {
			t.Fatalf("decode aggregate: %v", err)
		}
		return agg["jaipur1"]
	}

	// catalog is served through the cache
	code, e := call(t, http.MethodGet, ts.URL+"/hotels", nil)
	if code != 200 || !e.Success {
		t.Fatalf("GET /hotels: status=%d err=%s", code, e.Error)
	}
	if !mr.Exists("catalog:v1") {
		t.Fatal("catalog read should populate the cache")
	}

	// empty aggregate still lists both hotels with zero counts
	v := votes()
	if len(v) != 2 || v["h1"].Count != 0 || v["h2"].Count != 0 {
		t.Fatalf("zero-fill aggregate: %+v", v)
	}
	if v["h1"].Selections == nil {
		t.Fatal("selections must be an empty list, not null")
	}

	// Alice picks h1
	code, e = call(t, http.MethodPost, ts.URL+"/votes", map[string]any{
		"name": "Alice", "deviceId": "dev1",
		"cityId": "jaipur1", "hotelId": "h1", "occupancy": 2, "notes": "near the fort",
	})
	if code != 200 || !e.Success {
		t.Fatalf("POST /votes: status=%d err=%s", code, e.Error)
	}
	v = votes()
	if v["h1"].Count != 1 || v["h2"].Count != 0 {
		t.Fatalf("after first vote: %+v", v)
	}
	if got := v["h1"].Selections[0]; got.Name != "Alice" || got.Occupancy != 2 || got.Notes != "near the fort" {
		t.Fatalf("unexpected voter entry: %+v", got)
	}

	// re-picking flips the count instead of stacking
	code, e = call(t, http.MethodPost, ts.URL+"/votes", map[string]any{
		"name": "Alice", "deviceId": "dev1",
		"cityId": "jaipur1", "hotelId": "h2", "occupancy": 3,
	})
	if code != 200 || !e.Success {
		t.Fatalf("flip vote: status=%d err=%s", code, e.Error)
	}
	v = votes()
	if v["h1"].Count != 0 || v["h2"].Count != 1 {
		t.Fatalf("expected flip to h2: %+v", v)
	}

	// a second identity stacks independently
	code, _ = call(t, http.MethodPost, ts.URL+"/votes", map[string]any{
		"name": "Bob", "deviceId": "dev2",
		"cityId": "jaipur1", "hotelId": "h2", "occupancy": 2,
	})
	if code != 200 {
		t.Fatalf("bob vote: %d", code)
	}
	v = votes()
	if v["h2"].Count != 2 {
		t.Fatalf("two identities on h2: %+v", v)
	}
	if v["h2"].Selections[0].Name != "Bob" {
		t.Fatalf("newest voter must come first: %+v", v["h2"].Selections)
	}

	// deleting the hotel drops its selections from the aggregate
	code, e = call(t, http.MethodDelete, ts.URL+"/hotels?cityId=jaipur1&hotelId=h2", nil)
	if code != 200 || !e.Success {
		t.Fatalf("DELETE /hotels: status=%d err=%s", code, e.Error)
	}
	v = votes()
	if len(v) != 1 || v["h1"].Count != 0 {
		t.Fatalf("after hotel delete: %+v", v)
	}

	// reset clears whatever is left for an identity
	code, e = call(t, http.MethodPost, ts.URL+"/votes/reset", map[string]any{"name": "Alice", "deviceId": "dev1"})
	if code != 200 || !e.Success {
		t.Fatalf("reset: status=%d err=%s", code, e.Error)
	}
	var reset struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	if err := json.Unmarshal(e.Data, &reset); err != nil {
		t.Fatalf("decode reset: %v", err)
	}
	if reset.DeletedCount != 0 {
		t.Fatalf("alice's selection went down with the hotel, deletedCount = %d", reset.DeletedCount)
	}
}

//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "carikemah/internal/adapters/http_server"
	"carikemah/internal/app"
	"carikemah/internal/domain"
	"carikemah/internal/embedding"
	"carikemah/internal/storage/sqlrepo"
)

const corpus = "Nama_Tempat,Lokasi,Rating,Teks_Mentah\n" +
	"Bukit Hijau,Cangkringan Sleman,4.8,Udara sejuk dan pemandangan indah sekali\n" +
	"Bukit Hijau,Cangkringan Sleman,4.8,Toiletnya bersih dan air lancar\n" +
	"Lembah Kabut,Wonosobo,3.2,Toilet kotor dan bau tidak terawat\n"

const prices = "nama_tempat,item,harga\n" +
	"Bukit Hijau,Tiket Masuk,Rp 15.000\n" +
	"Bukit Hijau,Parkir Motor,Rp 5.000\n"

// ---------- helpers ----------

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=carikemah",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/carikemah?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		var e error
		db, e = sqlrepo.Open(context.Background(), sqlrepo.MySQL, dsn)
		return e
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func getJSON(t *testing.T, url string, dst any) int {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	if dst != nil && res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return res.StatusCode
}

// ---------- the test ----------

func TestHTTP_EndToEnd_IngestSearchBook(t *testing.T) {
	ctx := context.Background()
	db := startMySQL(t)
	if err := sqlrepo.Migrate(ctx, db, sqlrepo.MySQL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := sqlrepo.New(db, sqlrepo.MySQL)

	// ingest from CSV exactly as the ingestor does
	recs, st, err := app.ReadCorpus(strings.NewReader(corpus))
	if err != nil || st.Kept != 3 {
		t.Fatalf("read corpus: %v (%+v)", err, st)
	}
	ps, err := app.ReadPrices(strings.NewReader(prices))
	if err != nil {
		t.Fatalf("read prices: %v", err)
	}
	places := app.NewPlaceService(repo, nil, 0)
	ing := app.NewIngestionService(repo, places)
	for _, rec := range app.MergeRecords(recs, nil, ps, nil) {
		if _, err := ing.IngestPlace(ctx, rec); err != nil {
			t.Fatalf("ingest %s: %v", rec.Place.Name, err)
		}
	}

	model, err := embedding.NewModel(2, map[string][]float64{
		"sejuk": {1, 0}, "pemandangan": {1, 1}, "bersih": {0, 1}, "kotor": {0, -1},
	})
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	engines := app.NewEngineLoader(app.EngineOptions{Model: model}, repo)
	search := app.NewSearchService(engines, places, repo, nil, app.SearchOptions{})
	t.Cleanup(search.Drain)

	srv := server.New(server.Options{})
	srv.MountHandlers(&server.Handlers{
		Engines:    engines,
		Search:     search,
		Places:     places,
		Scorecards: app.NewScorecardService(engines, repo, nil, 0, 2),
		Bookings:   app.NewBookingService(repo, repo),
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	if code := getJSON(t, ts.URL+"/readyz", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before reindex: %d", code)
	}
	res, err := http.Post(ts.URL+"/v1/admin/reindex", "application/json", nil)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reindex status %d", res.StatusCode)
	}

	var sr app.SearchResponse
	if code := getJSON(t, ts.URL+"/v1/search?q=toilet+bersih", &sr); code != http.StatusOK {
		t.Fatalf("search status %d", code)
	}
	if len(sr.Results) == 0 || sr.Results[0].Place != "Bukit Hijau" {
		t.Fatalf("unexpected ranking: %+v", sr.Results)
	}
	if sr.Results[0].BasePrice != 20000 {
		t.Fatalf("base price: want 20000, got %d", sr.Results[0].BasePrice)
	}

	body := fmt.Sprintf(`{"customer":"Sari","place_name":"bukit","quantity":2,"checkin_date":"%s"}`,
		time.Now().AddDate(0, 0, 3).Format("2006-01-02"))
	res, err = http.Post(ts.URL+"/v1/bookings", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	var b domain.Booking
	if err := json.NewDecoder(res.Body).Decode(&b); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusCreated || b.Item != "Tiket Masuk" || b.Total != 30000 {
		t.Fatalf("unexpected booking (%d): %+v", res.StatusCode, b)
	}

	search.Drain()
	var logs []domain.SearchLog
	if code := getJSON(t, ts.URL+"/v1/admin/history", &logs); code != http.StatusOK || len(logs) != 1 {
		t.Fatalf("history (%d): %+v", code, logs)
	}
	if logs[0].Query != "toilet bersih" || len(logs[0].Tokens) != 2 {
		t.Fatalf("unexpected history row: %+v", logs[0])
	}
}

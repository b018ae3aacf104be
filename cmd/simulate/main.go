// simulate hammers the booking endpoint for a single staff member and date
// to demonstrate that the per-staff-day lock serializes concurrent requests:
// each half-hour slot must be won by exactly one booking, the rest rejected
// as conflicts or lock contention.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinic-scheduling/internal/db"
)

type simConfig struct {
	APIBaseURL string
	Workers    int
	Requests   int
	Date       string
}

type counters struct {
	total    int64
	created  int64
	conflict int64
	errored  int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := simConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		Workers:    getEnvInt("SIM_WORKERS", 16),
		Requests:   getEnvInt("SIM_REQUESTS", 200),
		Date:       getEnv("SIM_DATE", nextMonday().Format("2006-01-02")),
	}

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	staffID, err := pickOne(ctx, pool, `SELECT id FROM staff WHERE active LIMIT 1`)
	if err != nil {
		log.Fatalf("pick staff: %v", err)
	}
	patientIDs, err := pickMany(ctx, pool, `SELECT id FROM patients WHERE active LIMIT 100`)
	if err != nil {
		log.Fatalf("pick patients: %v", err)
	}
	if len(patientIDs) == 0 {
		log.Fatal("no patients found, run cmd/seed first")
	}

	log.Printf("simulating %d bookings with %d workers against staff=%s date=%s",
		cfg.Requests, cfg.Workers, staffID, cfg.Date)

	// Half-hour slots inside the seeded 09:00-13:00 morning window.
	slots := [][2]string{
		{"09:00", "09:30"}, {"09:30", "10:00"}, {"10:00", "10:30"},
		{"10:30", "11:00"}, {"11:00", "11:30"}, {"11:30", "12:00"},
		{"12:00", "12:30"}, {"12:30", "13:00"},
	}

	var (
		c    counters
		wg   sync.WaitGroup
		jobs = make(chan int)
	)

	client := &http.Client{Timeout: 10 * time.Second}

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				slot := slots[rand.Intn(len(slots))]
				patient := patientIDs[rand.Intn(len(patientIDs))]
				book(client, cfg.APIBaseURL, &c, map[string]string{
					"patient_id":       patient.String(),
					"staff_id":         staffID.String(),
					"appointment_date": cfg.Date,
					"start_time":       slot[0],
					"end_time":         slot[1],
				})
			}
		}()
	}

	start := time.Now()
	for i := 0; i < cfg.Requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	log.Printf("done in %s", time.Since(start))
	log.Printf("total=%d created=%d conflict=%d errored=%d",
		c.total, c.created, c.conflict, c.errored)

	if c.created > int64(len(slots)) {
		log.Printf("WARNING: more bookings created (%d) than slots available (%d), conflict check is broken", c.created, len(slots))
	}
}

func book(client *http.Client, baseURL string, c *counters, payload map[string]string) {
	atomic.AddInt64(&c.total, 1)

	body, _ := json.Marshal(payload)
	resp, err := client.Post(baseURL+"/appointments", "application/json", bytes.NewReader(body))
	if err != nil {
		atomic.AddInt64(&c.errored, 1)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		atomic.AddInt64(&c.created, 1)
	case http.StatusConflict:
		// Slot conflicts and lock contention both surface as 409.
		atomic.AddInt64(&c.conflict, 1)
	default:
		atomic.AddInt64(&c.errored, 1)
	}
}

func pickOne(ctx context.Context, pool *pgxpool.Pool, sql string) (uuid.UUID, error) {
	var id uuid.UUID
	err := pool.QueryRow(ctx, sql).Scan(&id)
	return id, err
}

func pickMany(ctx context.Context, pool *pgxpool.Pool, sql string) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

func nextMonday() time.Time {
	d := time.Now()
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

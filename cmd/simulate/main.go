// simulate drives concurrent booking traffic against a running API server
// and then checks the double-booking invariants directly in Postgres.
// Every worker fights over a deliberately small pool of practitioners and
// slots so slot contention actually happens.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/calendar"
	"github.com/careslot/careslot/internal/config"
	"github.com/careslot/careslot/internal/db"
	"github.com/careslot/careslot/internal/logging"
)

type SimConfig struct {
	APIBaseURL        string
	Duration          time.Duration
	Workers           int
	CancelRatio       float64 // fraction of loop iterations that cancel instead of book
	PatientLimit      int
	PractitionerLimit int
}

func loadSimConfig() SimConfig {
	return SimConfig{
		APIBaseURL:        envOr("SIM_API_BASE_URL", "http://127.0.0.1:8080"),
		Duration:          envDuration("SIM_DURATION", 30*time.Second),
		Workers:           envInt("SIM_WORKERS", 20),
		CancelRatio:       envFloat("SIM_CANCEL_RATIO", 0.2),
		PatientLimit:      envInt("SIM_PATIENT_LIMIT", 200),
		PractitionerLimit: envInt("SIM_PRACTITIONER_LIMIT", 5),
	}
}

type DataPool struct {
	Patients      []uuid.UUID
	Practitioners []uuid.UUID
	Slots         []calendar.Slot

	mu           sync.RWMutex
	appointments []appointmentRef
}

type appointmentRef struct {
	ID        uuid.UUID
	PatientID uuid.UUID
}

func (dp *DataPool) AddAppointment(ref appointmentRef) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, ref)
}

func (dp *DataPool) RandomAppointment() (appointmentRef, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return appointmentRef{}, false
	}
	return dp.appointments[rand.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&om.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Percentiles() (p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()
	if len(om.latencies) == 0 {
		return 0, 0
	}

	sorted := make([]time.Duration, len(om.latencies))
	copy(sorted, om.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := func(pct int) time.Duration {
		i := len(sorted) * pct / 100
		if i >= len(sorted) {
			i = len(sorted) - 1
		}
		return sorted[i]
	}
	return idx(50), idx(95)
}

func main() {
	log := logging.New(os.Getenv("APP_ENV"), "simulate")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	sim := loadSimConfig()

	ctx, cancel := context.WithTimeout(context.Background(), sim.Duration+2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	data, err := loadDataPool(ctx, pool, sim)
	if err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}
	log.Info().
		Int("patients", len(data.Patients)).
		Int("practitioners", len(data.Practitioners)).
		Int("slots", len(data.Slots)).
		Msg("data pool ready")

	authn := auth.NewJWTAuthenticator(cfg.JWTSecret)
	client := &http.Client{Timeout: 10 * time.Second}

	var bookMetrics, cancelMetrics OperationMetrics

	runCtx, stopWorkers := context.WithTimeout(ctx, sim.Duration)
	defer stopWorkers()

	var wg sync.WaitGroup
	for w := 0; w < sim.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			worker(runCtx, client, authn, sim, data, rng, &bookMetrics, &cancelMetrics)
		}(time.Now().UnixNano() + int64(w))
	}
	wg.Wait()

	p50, p95 := bookMetrics.Percentiles()
	log.Info().
		Int64("total", bookMetrics.Total).
		Int64("success", bookMetrics.Success).
		Int64("conflict", bookMetrics.Conflict).
		Int64("error", bookMetrics.Error).
		Dur("p50", p50).
		Dur("p95", p95).
		Msg("booking traffic done")

	p50, p95 = cancelMetrics.Percentiles()
	log.Info().
		Int64("total", cancelMetrics.Total).
		Int64("success", cancelMetrics.Success).
		Int64("conflict", cancelMetrics.Conflict).
		Int64("error", cancelMetrics.Error).
		Dur("p50", p50).
		Dur("p95", p95).
		Msg("cancel traffic done")

	if err := verifyInvariants(ctx, pool, log); err != nil {
		log.Fatal().Err(err).Msg("invariant verification failed")
	}
}

func worker(ctx context.Context, client *http.Client, authn auth.TokenAuthenticator, sim SimConfig, data *DataPool, rng *rand.Rand, bookM, cancelM *OperationMetrics) {
	for ctx.Err() == nil {
		patientID := data.Patients[rng.Intn(len(data.Patients))]
		token, err := authn.Issue(auth.Claims{Role: auth.RolePatient, SubjectID: patientID}, time.Hour)
		if err != nil {
			continue
		}

		if rng.Float64() < sim.CancelRatio {
			ref, ok := data.RandomAppointment()
			if !ok {
				continue
			}
			// Cancel with the owning patient so authorization passes.
			ownerToken, err := authn.Issue(auth.Claims{Role: auth.RolePatient, SubjectID: ref.PatientID}, time.Hour)
			if err != nil {
				continue
			}
			doCancel(ctx, client, sim.APIBaseURL, ownerToken, ref.ID, cancelM)
			continue
		}

		practitionerID := data.Practitioners[rng.Intn(len(data.Practitioners))]
		slot := data.Slots[rng.Intn(len(data.Slots))]
		doBook(ctx, client, sim.APIBaseURL, token, patientID, practitionerID, slot, data, bookM)
	}
}

func doBook(ctx context.Context, client *http.Client, baseURL, token string, patientID, practitionerID uuid.UUID, slot calendar.Slot, data *DataPool, m *OperationMetrics) {
	body, _ := json.Marshal(map[string]string{
		"practitioner_id": practitionerID.String(),
		"slot_date":       slot.DateKey,
		"slot_time":       slot.TimeKey,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		m.Record(time.Since(start), 0)
		return
	}
	defer resp.Body.Close()
	m.Record(time.Since(start), resp.StatusCode)

	if resp.StatusCode == http.StatusCreated {
		var created struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&created); err == nil {
			data.AddAppointment(appointmentRef{ID: created.ID, PatientID: patientID})
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
}

func doCancel(ctx context.Context, client *http.Client, baseURL, token string, appointmentID uuid.UUID, m *OperationMetrics) {
	url := fmt.Sprintf("%s/appointments/%s/cancel", baseURL, appointmentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		m.Record(time.Since(start), 0)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	m.Record(time.Since(start), resp.StatusCode)
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, sim SimConfig) (*DataPool, error) {
	data := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, sim.PatientLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		data.Patients = append(data.Patients, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	praRows, err := pool.Query(ctx, `SELECT id FROM practitioners WHERE available LIMIT $1`, sim.PractitionerLimit)
	if err != nil {
		return nil, err
	}
	defer praRows.Close()
	for praRows.Next() {
		var id uuid.UUID
		if err := praRows.Scan(&id); err != nil {
			return nil, err
		}
		data.Practitioners = append(data.Practitioners, id)
	}
	if err := praRows.Err(); err != nil {
		return nil, err
	}

	if len(data.Patients) == 0 || len(data.Practitioners) == 0 {
		return nil, fmt.Errorf("empty data pool, run cmd/seed first")
	}

	// Tomorrow's full window keeps the slot set stable for the whole run;
	// today's first slots could expire mid-simulation.
	for slot := range calendar.DefaultPolicy.Day(time.Now(), 1) {
		data.Slots = append(data.Slots, slot)
	}

	return data, nil
}

// verifyInvariants checks the two correctness properties directly in the
// database: no live slot is held by more than one appointment, and the
// reservations table matches the set of live appointments.
func verifyInvariants(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	var duplicates int
	err := pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT practitioner_id, slot_date, slot_time
			FROM appointments
			WHERE NOT cancelled
			GROUP BY practitioner_id, slot_date, slot_time
			HAVING count(*) > 1
		) d
	`).Scan(&duplicates)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}

	var orphaned int
	err = pool.QueryRow(ctx, `
		SELECT count(*)
		FROM slot_reservations sr
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.practitioner_id = sr.practitioner_id
			  AND a.slot_date = sr.slot_date
			  AND a.slot_time = sr.slot_time
			  AND NOT a.cancelled
		)
	`).Scan(&orphaned)
	if err != nil {
		return fmt.Errorf("orphan check: %w", err)
	}

	var missing int
	err = pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		WHERE NOT a.cancelled
		  AND NOT EXISTS (
			SELECT 1 FROM slot_reservations sr
			WHERE sr.practitioner_id = a.practitioner_id
			  AND sr.slot_date = a.slot_date
			  AND sr.slot_time = a.slot_time
		  )
	`).Scan(&missing)
	if err != nil {
		return fmt.Errorf("missing reservation check: %w", err)
	}

	log.Info().
		Int("duplicate_live_slots", duplicates).
		Int("orphaned_reservations", orphaned).
		Int("missing_reservations", missing).
		Msg("invariant verification")

	if duplicates > 0 {
		return fmt.Errorf("%d slots are double booked", duplicates)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

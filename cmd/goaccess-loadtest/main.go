// Command goaccess-loadtest measures route-check and profile-update latency
// of a console backed by Redis while a writer keeps mutating role grants.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goAccess "github.com/MrEthical07/goAccess"
	"github.com/MrEthical07/goAccess/guard"
	"github.com/MrEthical07/goAccess/seed"
	"github.com/MrEthical07/goAccess/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (check + profile)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		namespace   = flag.String("namespace", "goaccess-load", "record key namespace")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	sd, err := seed.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
	cfg := goAccess.DefaultConfig()
	cfg.Session.Namespace = *namespace
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	console, err := goAccess.New().
		WithConfig(cfg).
		WithRedis(client).
		WithSeed(sd).
		WithRoutes(sd.Routes()...).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build console: %v\n", err)
		os.Exit(1)
	}
	defer console.Close()

	user := session.User{ID: "load-1", Username: "load", Status: session.StatusActive, Roles: []string{"doctor", "nurse"}}
	if err := console.Login(ctx, user, "opaque-load-token"); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}

	routes := sd.Routes()
	stopWriter := startRoleWriter(ctx, console)
	checkStats := runCheckPhase(ctx, console, routes, *ops, *concurrency)
	profileStats := runProfilePhase(ctx, console, *ops/10+1, *concurrency)
	writes := stopWriter()

	fmt.Println("---- results ----")
	printStats("check", checkStats)
	printStats("profile", profileStats)
	fmt.Printf("role writes during run: %d\n", writes)
	snap := console.MetricsSnapshot()
	fmt.Printf("decisions: allow=%d redirect=%d deny=%d\n",
		snap.Counters[goAccess.MetricGuardAllow],
		snap.Counters[goAccess.MetricGuardRedirect],
		snap.Counters[goAccess.MetricGuardDeny],
	)
}

// startRoleWriter flips the nurse role between two grant sets until stopped.
func startRoleWriter(ctx context.Context, console *goAccess.Console) func() int64 {
	var nurseID string
	for _, r := range console.Roles() {
		if r.Code == "nurse" {
			nurseID = r.ID
		}
	}
	sets := [][]string{
		{"dashboard", "dashboard:view", "report", "template:list"},
		{"dashboard", "dashboard:view"},
	}

	var (
		writes int64
		done   = make(chan struct{})
		wg     sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if err := console.AssignPermissions(ctx, nurseID, sets[i%len(sets)]); err == nil {
				atomic.AddInt64(&writes, 1)
			}
			time.Sleep(time.Millisecond)
		}
	}()
	return func() int64 {
		close(done)
		wg.Wait()
		return atomic.LoadInt64(&writes)
	}
}

func runCheckPhase(ctx context.Context, console *goAccess.Console, routes []guard.Route, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, 7919, func(r *rand.Rand, _ int) error {
		route := routes[r.Intn(len(routes))]
		console.Check(ctx, route)
		_ = console.Can("template:list")
		return nil
	})
}

func runProfilePhase(ctx context.Context, console *goAccess.Console, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, 6151, func(_ *rand.Rand, i int) error {
		nick := fmt.Sprintf("load-%d", i)
		return console.UpdateProfile(ctx, session.Profile{Nickname: &nick})
	})
}

func runPhase(ops, concurrency int, salt int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*salt))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

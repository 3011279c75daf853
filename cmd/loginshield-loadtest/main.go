package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	loginshield "github.com/rasel530/loginshield"
)

func main() {
	var (
		identifiers = flag.Int("identifiers", 10000, "number of distinct identifiers to exercise")
		ips         = flag.Int("ips", 2000, "number of distinct source IPs to exercise")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (record + check)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "ls", "key prefix")
	)
	flag.Parse()

	if *identifiers <= 0 || *ips <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "identifiers, ips, concurrency, and ops must be > 0")
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
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	// High thresholds keep the run measuring store traffic rather than
	// piling every identifier into a lockout after five hits.
	cfg := loginshield.DefaultConfig()
	cfg.Attempts.MaxAttempts = 1 << 30
	cfg.Attempts.IPMaxAttempts = 1 << 30
	cfg.Store.KeyPrefix = *prefix

	svc, err := loginshield.New().
		WithConfig(cfg).
		WithRedis(client).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	pop := newPopulation(*identifiers, *ips)

	recordStats := runRecordPhase(ctx, svc, pop, *ops, *concurrency)
	checkStats := runCheckPhase(ctx, svc, pop, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("record", recordStats)
	printStats("check", checkStats)

	snap := svc.MetricsSnapshot()
	fmt.Printf("metrics: failures_recorded=%d store_failures=%d\n",
		snap.Counters[loginshield.MetricFailureRecorded], snap.Counters[loginshield.MetricStoreFailure])
}

type population struct {
	identifiers []string
	ips         []string
}

func newPopulation(nIDs, nIPs int) *population {
	p := &population{
		identifiers: make([]string, nIDs),
		ips:         make([]string, nIPs),
	}
	for i := range p.identifiers {
		p.identifiers[i] = fmt.Sprintf("user-%d@example.com", i)
	}
	for i := range p.ips {
		p.ips[i] = fmt.Sprintf("10.%d.%d.%d", (i>>16)&0xFF, (i>>8)&0xFF, i&0xFF)
	}
	return p
}

func runRecordPhase(ctx context.Context, svc *loginshield.Service, pop *population, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				id := pop.identifiers[r.Intn(len(pop.identifiers))]
				ip := pop.ips[r.Intn(len(pop.ips))]
				t0 := time.Now()
				svc.RecordFailedAttempt(ctx, id, ip, "loadtest/1.0")
				d := time.Since(t0)
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, 0)
}

func runCheckPhase(ctx context.Context, svc *loginshield.Service, pop *population, ops, concurrency int) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				id := pop.identifiers[r.Intn(len(pop.identifiers))]
				ip := pop.ips[r.Intn(len(pop.ips))]
				t0 := time.Now()
				sec := svc.SecurityContext(ctx, id, ip, "loadtest/1.0")
				d := time.Since(t0)
				if !sec.Allowed() {
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
	fmt.Printf("%s: ops=%d denied=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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

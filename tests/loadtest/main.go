package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL       = "http://127.0.0.1:18090"
	numWorkers    = 50
	testDuration  = 10 * time.Second
	numIdentities = 100
	numFollowers  = 2000
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

var (
	identities []string
	followers  []string
)

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== FBD Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Identities: %d | Follower pool: %d\n\n", numIdentities, numFollowers)

	identities = makePool(numIdentities, 0x10000)
	followers = makePool(numFollowers, 0x20000)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: first syncs, every identity gets a back-dated baseline
	fmt.Println("\n--- Phase 1: Seeding baselines (POST /sync) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doSync(rng)
	})

	// Phase 2: Mixed read/write load
	fmt.Println("\n--- Phase 2: Mixed load (60% POST, 40% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.60:
			return doSync(rng)
		case r < 0.75:
			return doGetBaseline(rng)
		case r < 0.90:
			return doGetCount(rng)
		default:
			return doGetContains(rng)
		}
	})

	// Phase 3: Read-heavy load
	fmt.Println("\n--- Phase 3: Read-heavy load (10% POST, 90% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doSync(rng)
		case r < 0.40:
			return doGetBaseline(rng)
		case r < 0.75:
			return doGetCount(rng)
		default:
			return doGetContains(rng)
		}
	})
}

// makePool builds n distinct 64-char hex identities.
func makePool(n, offset int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%064x", offset+i)
	}
	return out
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doSync(rng *rand.Rand) result {
	identity := identities[rng.Intn(len(identities))]
	n := rng.Intn(20) + 1
	observed := make([]string, n)
	for i := range observed {
		observed[i] = followers[rng.Intn(len(followers))]
	}

	body := map[string]interface{}{
		"identity":  identity,
		"followers": observed,
	}
	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/sync", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /sync", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /sync", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetBaseline(rng *rand.Rand) result {
	identity := identities[rng.Intn(len(identities))]
	start := time.Now()
	resp, err := httpClient.Get(fmt.Sprintf("%s/baseline?id=%s", baseURL, identity))
	lat := time.Since(start)
	if err != nil {
		return result{"GET /baseline", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	// 404 is expected while an identity has not been seeded yet
	ok := resp.StatusCode == 200 || resp.StatusCode == 404
	return result{"GET /baseline", resp.StatusCode, lat, !ok}
}

func doGetCount(rng *rand.Rand) result {
	identity := identities[rng.Intn(len(identities))]
	start := time.Now()
	resp, err := httpClient.Get(fmt.Sprintf("%s/count?id=%s", baseURL, identity))
	lat := time.Since(start)
	if err != nil {
		return result{"GET /count", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /count", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetContains(rng *rand.Rand) result {
	identity := identities[rng.Intn(len(identities))]
	follower := followers[rng.Intn(len(followers))]
	start := time.Now()
	resp, err := httpClient.Get(fmt.Sprintf("%s/contains?id=%s&f=%s", baseURL, identity, follower))
	lat := time.Since(start)
	if err != nil {
		return result{"GET /contains", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /contains", resp.StatusCode, lat, resp.StatusCode != 200}
}

func avgDuration(durs []time.Duration) time.Duration {
	if len(durs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range durs {
		sum += d
	}
	return sum / time.Duration(len(durs))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

// Command sessync-loadtest measures broadcast channel fan-out: one poster
// writes session messages while N subscriber channels count deliveries, then
// delivery latency percentiles and throughput are reported.
//
// With no -redis-addr (and no REDIS_ADDR env) an embedded miniredis is used,
// which answers the question "how fast is the client-side machinery" without
// network noise. Point it at a real Redis to measure the deployed medium.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sessync/sessync/broadcast"
)

func main() {
	var (
		subscribers = flag.Int("subscribers", 8, "number of subscriber channels")
		messages    = flag.Int("messages", 10000, "number of messages to post")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		key         = flag.String("key", broadcast.DefaultKey, "broadcast storage key")
		timeout     = flag.Duration("timeout", 30*time.Second, "max time to wait for deliveries")
	)
	flag.Parse()

	if *subscribers <= 0 || *messages <= 0 {
		fmt.Fprintln(os.Stderr, "subscribers and messages must be > 0")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
		fmt.Printf("using miniredis at %s\n", addr)
	}

	newClient := func() *redis.Client {
		return redis.NewClient(&redis.Options{Addr: addr})
	}

	ctx := context.Background()
	sendTimes := make([]atomic.Int64, *messages)

	var (
		delivered atomic.Int64
		latMu     sync.Mutex
		latencies []time.Duration
	)
	expected := int64(*subscribers) * int64(*messages)
	done := make(chan struct{})

	var unsubs []func()
	for i := 0; i < *subscribers; i++ {
		rdb := newClient()
		defer func() { _ = rdb.Close() }()

		ch := broadcast.New(rdb, *key)
		unsub := ch.Receive(func(msg broadcast.Message) {
			seq, ok := soakSeq(msg.Data.Trigger)
			if ok && seq < *messages {
				sent := sendTimes[seq].Load()
				if sent > 0 {
					lat := time.Duration(time.Now().UnixNano() - sent)
					latMu.Lock()
					latencies = append(latencies, lat)
					latMu.Unlock()
				}
			}
			if delivered.Add(1) == expected {
				close(done)
			}
		})
		unsubs = append(unsubs, unsub)
	}
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
		if cleanup != nil {
			cleanup()
		}
	}()

	poster := broadcast.New(newClient(), *key)
	start := time.Now()
	for i := 0; i < *messages; i++ {
		sendTimes[i].Store(time.Now().UnixNano())
		poster.Post(ctx, broadcast.Message{
			Event: broadcast.EventSession,
			Data:  broadcast.Payload{Trigger: "soak:" + strconv.Itoa(i)},
		})
	}

	select {
	case <-done:
	case <-time.After(*timeout):
		fmt.Printf("timeout: %d/%d deliveries\n", delivered.Load(), expected)
	}
	total := time.Since(start)

	latMu.Lock()
	sort.Slice(latencies, func(a, b int) bool { return latencies[a] < latencies[b] })
	p50, p95, p99 := percentile(latencies, 50), percentile(latencies, 95), percentile(latencies, 99)
	latMu.Unlock()

	perSecond := float64(delivered.Load()) / total.Seconds()
	fmt.Printf(
		"posted=%d subscribers=%d delivered=%d total=%s deliveries/s=%.0f p50=%s p95=%s p99=%s\n",
		*messages, *subscribers, delivered.Load(),
		total.Round(time.Millisecond), perSecond,
		p50.Round(time.Microsecond), p95.Round(time.Microsecond), p99.Round(time.Microsecond),
	)
}

func soakSeq(trigger string) (int, bool) {
	rest, ok := strings.CutPrefix(trigger, "soak:")
	if !ok {
		return 0, false
	}
	seq, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return seq, true
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

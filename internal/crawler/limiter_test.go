package crawler

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiterEnforcesDelayPerHost(t *testing.T) {
	limiter := NewDomainLimiter(50*time.Millisecond, RateLimiterSettings{})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(context.Background(), "example.com"); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("expected at least 100ms across 3 requests, waited %v", elapsed)
	}
}

func TestLimiterHostsAreIndependent(t *testing.T) {
	limiter := NewDomainLimiter(200*time.Millisecond, RateLimiterSettings{})

	if err := limiter.Wait(context.Background(), "a.example"); err != nil {
		t.Fatalf("wait: %v", err)
	}
	start := time.Now()
	if err := limiter.Wait(context.Background(), "b.example"); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("expected no cross-host throttling, waited %v", elapsed)
	}
}

func TestLimiterConcurrentCallersQueue(t *testing.T) {
	limiter := NewDomainLimiter(30*time.Millisecond, RateLimiterSettings{})

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = limiter.Wait(context.Background(), "example.com")
		}()
	}
	wg.Wait()
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Fatalf("expected concurrent callers to serialise, waited %v", elapsed)
	}
}

func TestLimiterContextCancel(t *testing.T) {
	limiter := NewDomainLimiter(time.Minute, RateLimiterSettings{})
	if err := limiter.Wait(context.Background(), "example.com"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, "example.com"); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestNilLimiterIsNoop(t *testing.T) {
	var limiter *DomainLimiter
	if err := limiter.Wait(context.Background(), "example.com"); err != nil {
		t.Fatalf("nil limiter: %v", err)
	}
}

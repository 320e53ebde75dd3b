package pathcache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/optionchain/simulator/internal/models"
)

func testSession(id string) *models.Session {
	return &models.Session{ID: id, TotalSteps: 10}
}

func TestCache_GetOrBuild_BuildsOnceAndCaches(t *testing.T) {
	c := New()
	var builds int32

	build := func(s *models.Session) ([]float64, error) {
		atomic.AddInt32(&builds, 1)
		return []float64{1, 2, 3}, nil
	}

	s := testSession("a")
	for i := 0; i < 5; i++ {
		path, err := c.GetOrBuild(s, build)
		if err != nil {
			t.Fatalf("GetOrBuild: %v", err)
		}
		if len(path) != 3 {
			t.Fatalf("unexpected path: %v", path)
		}
	}
	if builds != 1 {
		t.Errorf("expected exactly one build, got %d", builds)
	}
}

func TestCache_GetOrBuild_SingleFlightsConcurrentBuilds(t *testing.T) {
	c := New()
	var builds int32
	started := make(chan struct{})
	release := make(chan struct{})

	build := func(s *models.Session) ([]float64, error) {
		n := atomic.AddInt32(&builds, 1)
		if n == 1 {
			close(started)
			<-release
		}
		return []float64{42}, nil
	}

	s := testSession("a")
	var wg sync.WaitGroup
	results := make([][]float64, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path, err := c.GetOrBuild(s, build)
			if err != nil {
				t.Errorf("GetOrBuild: %v", err)
				return
			}
			results[i] = path
		}(i)
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("builder never started")
	}
	close(release)
	wg.Wait()

	if builds != 1 {
		t.Errorf("expected exactly one build across 20 concurrent callers, got %d", builds)
	}
	for i, r := range results {
		if len(r) != 1 || r[0] != 42 {
			t.Errorf("result %d: unexpected path %v", i, r)
		}
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New()
	build := func(s *models.Session) ([]float64, error) { return []float64{1}, nil }
	s := testSession("a")

	if _, err := c.GetOrBuild(s, build); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", c.Len())
	}

	c.Invalidate("a")
	if c.Len() != 0 {
		t.Fatalf("expected 0 cached entries after invalidate, got %d", c.Len())
	}
}

func TestCache_Reap(t *testing.T) {
	c := New()
	build := func(s *models.Session) ([]float64, error) { return []float64{1}, nil }

	for _, id := range []string{"a", "b", "c"} {
		if _, err := c.GetOrBuild(testSession(id), build); err != nil {
			t.Fatal(err)
		}
	}

	c.Reap([]string{"b"})
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry surviving reap, got %d", c.Len())
	}
	if _, ok := c.peek("b"); !ok {
		t.Error("expected b to survive reap")
	}
}

func TestCache_BuildError_NotCached(t *testing.T) {
	c := New()
	var calls int32
	build := func(s *models.Session) ([]float64, error) {
		atomic.AddInt32(&calls, 1)
		return nil, fmt.Errorf("boom")
	}
	s := testSession("a")

	if _, err := c.GetOrBuild(s, build); err == nil {
		t.Fatal("expected error")
	}
	if _, err := c.GetOrBuild(s, build); err == nil {
		t.Fatal("expected error on retry")
	}
	if calls != 2 {
		t.Errorf("expected build to be retried after failure, got %d calls", calls)
	}
}

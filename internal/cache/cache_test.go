package cache

import (
	"errors"
	"sync"
	"testing"
)

func TestGetOrLoadCachesAfterFirstLoad(t *testing.T) {
	c := New[string, int]()
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrLoad("a", load)
	if err != nil || v != 42 {
		t.Fatalf("GetOrLoad = (%d, %v)", v, err)
	}
	v, err = c.GetOrLoad("a", load)
	if err != nil || v != 42 {
		t.Fatalf("GetOrLoad second call = (%d, %v)", v, err)
	}
	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestGetOrLoadPropagatesError(t *testing.T) {
	c := New[string, int]()
	wantErr := errors.New("boom")
	_, err := c.GetOrLoad("x", func() (int, error) { return 0, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
	if c.Len() != 0 {
		t.Errorf("failed load must not populate the cache, Len() = %d", c.Len())
	}
}

func TestGetOrLoadConcurrentSameKey(t *testing.T) {
	c := New[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrLoad("k", func() (int, error) { return 7, nil })
		}()
	}
	wg.Wait()
	v, _ := c.GetOrLoad("k", func() (int, error) { return 7, nil })
	if v != 7 {
		t.Errorf("value = %d, want 7", v)
	}
}

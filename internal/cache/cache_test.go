package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/html-makers/surf/pkg/models"
)

func TestMemoryCache_SetGet(t *testing.T) {
	mc := NewMemoryCache(10 * 1024 * 1024)
	defer mc.Close()

	page := &models.Page{URL: "http://example.com/", Title: "Hello"}
	if err := mc.Set("k", page, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := mc.Get("k")
	if !ok || got.Title != "Hello" {
		t.Errorf("Expected cached page, got %v (%v)", got, ok)
	}

	if _, ok := mc.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache(10 * 1024 * 1024)
	defer mc.Close()

	mc.Set("k", &models.Page{URL: "u"}, 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := mc.Get("k"); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	// Each entry is ~1KB overhead plus content; cap fits roughly 3.
	mc := NewMemoryCache(3 * 1100)
	defer mc.Close()

	for i := 0; i < 4; i++ {
		mc.Set(fmt.Sprintf("k%d", i), &models.Page{URL: "u"}, time.Minute)
	}

	if _, ok := mc.Get("k0"); ok {
		t.Error("Oldest entry should have been evicted")
	}
	if _, ok := mc.Get("k3"); !ok {
		t.Error("Newest entry should survive")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	mc := NewMemoryCache(10 * 1024 * 1024)
	defer mc.Close()

	mc.Set("k", &models.Page{URL: "u"}, time.Minute)
	mc.Clear()

	if _, ok := mc.Get("k"); ok {
		t.Error("Expected empty cache after Clear")
	}
}

func TestKey(t *testing.T) {
	if Key("http://e.com/", "") != "http://e.com/" {
		t.Error("Empty selector should key on URL alone")
	}
	if Key("http://e.com/", "body") != "http://e.com/" {
		t.Error("body selector should key on URL alone")
	}
	if Key("http://e.com/", ".price") != "http://e.com/::.price" {
		t.Error("Selector should be part of the key")
	}
}

package cache_test

import (
	"slices"
	"testing"

	"cssinjs/cache"
)

func set(v any) func(*cache.Entry) *cache.Entry {
	return func(prev *cache.Entry) *cache.Entry {
		refs := 0
		if prev != nil {
			refs = prev.Refs
		}
		return &cache.Entry{Refs: refs, Value: v}
	}
}

func TestEntity_GetMissing(t *testing.T) {
	c := cache.New("")
	if _, ok := c.Get([]string{"style", "a"}); ok {
		t.Error("expected missing path")
	}
	if c.InstanceID() == "" {
		t.Error("expected generated instance id")
	}
}

func TestEntity_UpdateAndGet(t *testing.T) {
	c := cache.New("test")
	path := []string{"style", "button", "hash"}

	c.Update(path, set("v1"))
	e, ok := c.Get(path)
	if !ok || e.Value != "v1" {
		t.Fatalf("Get() = %v, %v; want v1", e, ok)
	}

	// prefix of a stored path holds no value
	if _, ok := c.Get(path[:2]); ok {
		t.Error("intermediate node must not be observable")
	}

	c.Update(path, func(prev *cache.Entry) *cache.Entry {
		if prev == nil {
			t.Fatal("expected previous entry")
		}
		return &cache.Entry{Refs: prev.Refs + 1, Value: prev.Value}
	})
	if e, _ := c.Get(path); e.Refs != 1 {
		t.Errorf("Refs = %d, want 1", e.Refs)
	}
}

func TestEntity_PrevIsCopy(t *testing.T) {
	c := cache.New("test")
	path := []string{"a"}
	c.Update(path, set(1))
	c.Update(path, func(prev *cache.Entry) *cache.Entry {
		prev.Refs = 42
		return &cache.Entry{Value: 2}
	})
	if e, _ := c.Get(path); e.Refs != 0 || e.Value != 2 {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestEntity_DeletePrunes(t *testing.T) {
	c := cache.New("test")
	c.Update([]string{"style", "a", "x"}, set(1))
	c.Update([]string{"style", "b"}, set(2))

	c.Update([]string{"style", "a", "x"}, func(*cache.Entry) *cache.Entry { return nil })
	if _, ok := c.Get([]string{"style", "a", "x"}); ok {
		t.Error("expected entry to be removed")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get([]string{"style", "b"}); !ok {
		t.Error("sibling must survive")
	}

	// deleting a missing path is a no-op and leaves nothing behind
	c.Update([]string{"nope", "deeper"}, func(*cache.Entry) *cache.Entry { return nil })
	if got := c.Keys(); len(got) != 1 {
		t.Errorf("Keys() = %v", got)
	}
}

func TestEntity_KeysInsertionOrder(t *testing.T) {
	c := cache.New("test")
	paths := [][]string{
		{"style", "z"},
		{"token", "a"},
		{"style", "a"},
		{"cssVar", "m", "n"},
	}
	for i, p := range paths {
		c.Update(p, set(i))
	}
	// updating an existing entry keeps its position
	c.Update([]string{"style", "z"}, set("again"))

	got := c.Keys()
	if len(got) != len(paths) {
		t.Fatalf("Keys() returned %d paths, want %d", len(got), len(paths))
	}
	for i := range paths {
		if !slices.Equal(got[i], paths[i]) {
			t.Errorf("Keys()[%d] = %v, want %v", i, got[i], paths[i])
		}
	}

	// re-created entry moves to the end
	c.Update([]string{"style", "z"}, func(*cache.Entry) *cache.Entry { return nil })
	c.Update([]string{"style", "z"}, set("new"))
	got = c.Keys()
	if !slices.Equal(got[len(got)-1], []string{"style", "z"}) {
		t.Errorf("expected re-created entry last, got %v", got)
	}
}

func TestEntity_IndependentInstances(t *testing.T) {
	a, b := cache.New(""), cache.New("")
	if a.InstanceID() == b.InstanceID() {
		t.Error("instances must have distinct ids")
	}
	a.Update([]string{"k"}, set(1))
	if _, ok := b.Get([]string{"k"}); ok {
		t.Error("instances must not share entries")
	}
}

func TestEntity_Extracted(t *testing.T) {
	c := cache.New("test")
	p := []string{"style", "a"}
	c.Update(p, set(1))
	c.MarkExtracted(p)
	if !c.Extracted(p) {
		t.Error("expected path to be marked")
	}
	c.Update(p, func(*cache.Entry) *cache.Entry { return nil })
	if c.Extracted(p) {
		t.Error("removal must clear extracted mark")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"a", "a"},
		{3, "3"},
		{int64(-7), "-7"},
		{1.5, "1.5"},
		{float64(93), "93"},
		{true, "true"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := cache.Key(tt.in); got != tt.want {
			t.Errorf("Key(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := cache.PathKey([]string{"style", "a", "b"}); got != "style%a%b" {
		t.Errorf("PathKey() = %q", got)
	}
}

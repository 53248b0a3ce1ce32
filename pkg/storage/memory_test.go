package storage

import "testing"

func TestMemoryStoreGetSet(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.Get("missing"); err != ErrNotFound {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := s.Set("last_sync", []byte("2024-01-01T00:00:00Z")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get("last_sync")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "2024-01-01T00:00:00Z" {
		t.Fatalf("Get = %q, want timestamp", got)
	}
}

func TestMemoryStoreCompareAndSwap(t *testing.T) {
	s := NewMemoryStore()

	ok, err := s.CompareAndSwap("k", nil, []byte("v1"))
	if err != nil || !ok {
		t.Fatalf("CompareAndSwap(nil, v1) = %v, %v, want true, nil", ok, err)
	}

	ok, err = s.CompareAndSwap("k", nil, []byte("v2"))
	if err != nil || ok {
		t.Fatalf("CompareAndSwap(nil, v2) on existing key = %v, %v, want false, nil", ok, err)
	}

	ok, err = s.CompareAndSwap("k", []byte("wrong"), []byte("v2"))
	if err != nil || ok {
		t.Fatalf("CompareAndSwap(wrong, v2) = %v, %v, want false, nil", ok, err)
	}

	ok, err = s.CompareAndSwap("k", []byte("v1"), []byte("v2"))
	if err != nil || !ok {
		t.Fatalf("CompareAndSwap(v1, v2) = %v, %v, want true, nil", ok, err)
	}
	got, _ := s.Get("k")
	if string(got) != "v2" {
		t.Fatalf("Get after swap = %q, want v2", got)
	}
}

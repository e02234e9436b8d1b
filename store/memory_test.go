package store

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func TestMemoryStoreHashIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	// hash key 互为前缀（user ID 带 ':' 时会出现），字段不得互相渗漏
	if err := m.HSet(ctx, "interactions:user:a", "p1", []byte("like")); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := m.HSet(ctx, "interactions:user:a:b", "p2", []byte("view")); err != nil {
		t.Fatalf("HSet: %v", err)
	}

	short, err := m.HGetAll(ctx, "interactions:user:a")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if len(short) != 1 || string(short["p1"]) != "like" {
		t.Fatalf("HGetAll(short) = %v, want only p1", short)
	}
	long, err := m.HGetAll(ctx, "interactions:user:a:b")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if len(long) != 1 || string(long["p2"]) != "view" {
		t.Fatalf("HGetAll(long) = %v, want only p2", long)
	}

	// 删除一个 hash 的字段不影响另一个
	if err := m.HDel(ctx, "interactions:user:a", "p1"); err != nil {
		t.Fatalf("HDel: %v", err)
	}
	if _, err := m.HGet(ctx, "interactions:user:a", "p1"); !core.IsStoreNotFound(err) {
		t.Fatalf("HGet after HDel: err = %v, want not found", err)
	}
	if _, err := m.HGet(ctx, "interactions:user:a:b", "p2"); err != nil {
		t.Fatalf("sibling hash affected by HDel: %v", err)
	}
}

func TestMemoryStoreHashFieldWithColon(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	if err := m.HSet(ctx, "h", "a:b", []byte("1")); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	got, err := m.HGet(ctx, "h", "a:b")
	if err != nil || string(got) != "1" {
		t.Fatalf("HGet = %q, %v", got, err)
	}
	if _, err := m.HGet(ctx, "h:a", "b"); !core.IsStoreNotFound(err) {
		t.Fatalf("field colon leaked into key space: err = %v", err)
	}
}

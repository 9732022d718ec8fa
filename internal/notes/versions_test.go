package notes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestSequentialUpdatesBuildGaplessVersionChain(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateRequest{Slug: mustSlug(t, "abc"), Content: "content-0"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const updateCount = 5
	for i := 1; i <= updateCount; i++ {
		if _, err := service.Update(ctx, mustSlug(t, "abc"), fmt.Sprintf("content-%d", i)); err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}

	versions, err := service.ListVersions(ctx, mustSlug(t, "abc"))
	if err != nil {
		t.Fatalf("list versions failed: %v", err)
	}
	if len(versions) != updateCount {
		t.Fatalf("expected %d versions, got %d", updateCount, len(versions))
	}
	for i, version := range versions {
		expectedNumber := i + 1
		if version.Version != expectedNumber {
			t.Fatalf("expected version %d at position %d, got %d", expectedNumber, i, version.Version)
		}
		// Version k snapshots the content as it was before update k.
		expectedContent := fmt.Sprintf("content-%d", i)
		if version.Content != expectedContent {
			t.Fatalf("expected version %d content %q, got %q", expectedNumber, expectedContent, version.Content)
		}
	}

	note, err := service.Get(ctx, mustSlug(t, "abc"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if note.Content != fmt.Sprintf("content-%d", updateCount) {
		t.Fatalf("expected final content, got %q", note.Content)
	}
}

func TestConcurrentUpdatesKeepVersionsGapless(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateRequest{Slug: mustSlug(t, "abc"), Content: "original"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const writerCount = 4
	var wg sync.WaitGroup
	errs := make([]error, writerCount)
	for i := 0; i < writerCount; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_, errs[index] = service.Update(ctx, mustSlug(t, "abc"), fmt.Sprintf("writer-%d", index))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}

	versions, err := service.ListVersions(ctx, mustSlug(t, "abc"))
	if err != nil {
		t.Fatalf("list versions failed: %v", err)
	}
	if len(versions) != writerCount {
		t.Fatalf("expected %d versions, got %d", writerCount, len(versions))
	}
	for i, version := range versions {
		if version.Version != i+1 {
			t.Fatalf("expected gapless sequence, position %d holds version %d", i, version.Version)
		}
	}
	if versions[0].Content != "original" {
		t.Fatalf("expected first snapshot to hold the pre-update content, got %q", versions[0].Content)
	}
}

func TestListVersionsMissingNote(t *testing.T) {
	service, _ := newTestService(t, nil)

	_, err := service.ListVersions(context.Background(), mustSlug(t, "missing"))
	if !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestListVersionsEmptyForFreshNote(t *testing.T) {
	service, _ := newTestService(t, nil)
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateRequest{Slug: mustSlug(t, "abc"), Content: "hello"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	versions, err := service.ListVersions(ctx, mustSlug(t, "abc"))
	if err != nil {
		t.Fatalf("list versions failed: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected no versions before the first update, got %d", len(versions))
	}
}

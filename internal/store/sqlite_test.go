package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestArtifactSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &ArtifactRecord{
		ID:              "art-001",
		Kind:            KindCoverLetter,
		JobTitle:        "Développeur Frontend",
		CompanyName:     "TechCorp",
		JobDescription:  "Construire des interfaces web.",
		UserID:          "user-1",
		Content:         "Madame, Monsieur, ...",
		Provider:        "openai",
		Model:           "gpt-4o-mini",
		Personalization: `{"companyDegraded":false}`,
		CreatedAt:       time.Now().Round(time.Second),
	}
	if err := s.SaveArtifact(ctx, rec); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}

	got, err := s.GetArtifact(ctx, "art-001")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if got.Content != rec.Content || got.Provider != "openai" || got.Kind != KindCoverLetter {
		t.Errorf("got %+v", got)
	}
}

func TestArtifactsAreImmutable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &ArtifactRecord{ID: "art-001", Content: "v1", CreatedAt: time.Now()}
	if err := s.SaveArtifact(ctx, rec); err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	// A second insert with the same id must fail, not overwrite.
	rec.Content = "v2"
	if err := s.SaveArtifact(ctx, rec); err == nil {
		t.Fatal("duplicate artifact id must be rejected")
	}
	got, err := s.GetArtifact(ctx, "art-001")
	if err != nil {
		t.Fatalf("GetArtifact: %v", err)
	}
	if got.Content != "v1" {
		t.Errorf("artifact mutated: %q", got.Content)
	}
}

func TestGetArtifactNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetArtifact(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListArtifactsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Round(time.Second)
	for i := 0; i < 5; i++ {
		rec := &ArtifactRecord{
			ID:        fmt.Sprintf("art-%d", i),
			UserID:    "user-1",
			Content:   "lettre",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveArtifact(ctx, rec); err != nil {
			t.Fatalf("SaveArtifact %d: %v", i, err)
		}
	}

	list, err := s.ListArtifacts(ctx, "user-1", 3, 0)
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 results, got %d", len(list))
	}
	if list[0].ID != "art-4" {
		t.Errorf("expected newest first, got %s", list[0].ID)
	}

	other, err := s.ListArtifacts(ctx, "user-2", 10, 0)
	if err != nil {
		t.Fatalf("ListArtifacts other user: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no artifacts for other user, got %d", len(other))
	}
}

func TestProfileUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetProfile(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec := &ProfileRecord{UserID: "user-1", Profile: `{"name":"Jean"}`, UpdatedAt: time.Now().Round(time.Second)}
	if err := s.SaveProfile(ctx, rec); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	rec.Profile = `{"name":"Jeanne"}`
	rec.UpdatedAt = time.Now().Round(time.Second)
	if err := s.SaveProfile(ctx, rec); err != nil {
		t.Fatalf("SaveProfile update: %v", err)
	}

	got, err := s.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Profile != `{"name":"Jeanne"}` {
		t.Errorf("got %q", got.Profile)
	}
}

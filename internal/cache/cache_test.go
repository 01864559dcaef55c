package cache

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/chapterquiz/backend/internal/models"
)

func TestKeyFormat(t *testing.T) {
	chapterID := uuid.MustParse("7f9c24e5-2f31-4a3b-9d8e-1a2b3c4d5e6f")

	key := Key(chapterID, models.DifficultyMedium, 5, 3, 2)
	want := "quiz:7f9c24e5-2f31-4a3b-9d8e-1a2b3c4d5e6f:medium:5:3:2"
	if key != want {
		t.Errorf("Key = %q, want %q", key, want)
	}
}

func TestVariantHashDeterministic(t *testing.T) {
	chapterID := uuid.New()

	first := VariantHash(chapterID, models.DifficultyEasy, 5, 3, 2)
	second := VariantHash(chapterID, models.DifficultyEasy, 5, 3, 2)
	if first != second {
		t.Error("same parameters should hash identically")
	}
	if len(first) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(first))
	}

	different := VariantHash(chapterID, models.DifficultyHard, 5, 3, 2)
	if different == first {
		t.Error("different difficulty should change the hash")
	}
	otherChapter := VariantHash(uuid.New(), models.DifficultyEasy, 5, 3, 2)
	if otherChapter == first {
		t.Error("different chapter should change the hash")
	}
}

func TestDisabledCacheIsNoOp(t *testing.T) {
	c := &Cache{ttl: defaultTTL}

	key := Key(uuid.New(), models.DifficultyEasy, 1, 1, 1)
	if got := c.GetQuiz(t.Context(), key); got != nil {
		t.Errorf("disabled cache returned %+v", got)
	}

	// Set, ClearChapter, and Close must not panic without a client.
	c.SetQuiz(t.Context(), key, &models.Quiz{})
	c.ClearChapter(t.Context(), uuid.New())
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestKeyAndHashShareParameters(t *testing.T) {
	chapterID := uuid.New()
	key := Key(chapterID, models.DifficultyHard, 4, 2, 1)
	if !strings.HasPrefix(key, "quiz:"+chapterID.String()) {
		t.Errorf("key %q missing chapter prefix", key)
	}
}

package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("en"); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "QuizDeck" {
		t.Errorf("T(AppTitle) = %q, want 'QuizDeck'", got)
	}

	got = T(ctx, "SessionNotFound")
	if got != "Quiz session not found or expired." {
		t.Errorf("T(SessionNotFound) = %q, want 'Quiz session not found or expired.'", got)
	}
}

func TestTranslateHindi(t *testing.T) {
	ctx := initLang(t, "hi")

	got := T(ctx, "AppTitle")
	if got != "क्विज़डेक" {
		t.Errorf("T(AppTitle) = %q, want 'क्विज़डेक'", got)
	}

	got = T(ctx, "SessionNotFound")
	if got != "क्विज़ सत्र नहीं मिला या समाप्त हो चुका है।" {
		t.Errorf("T(SessionNotFound) = %q, want the Hindi translation", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "QuestionsAvailable", 1)
	if got1 != "1 question available." {
		t.Errorf("Tp(QuestionsAvailable, 1) = %q, want '1 question available.'", got1)
	}

	got5 := Tp(ctx, "QuestionsAvailable", 5)
	if got5 != "5 questions available." {
		t.Errorf("Tp(QuestionsAvailable, 5) = %q, want '5 questions available.'", got5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "InsufficientQuestions", map[string]any{"Available": 3, "Requested": 10})
	want := "Only 3 questions match the chosen filters, but 10 were requested. Pick different filters or a smaller count."
	if got != want {
		t.Errorf("Td(InsufficientQuestions) = %q, want %q", got, want)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackWithoutLocalizer(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	got := T(context.Background(), "EmptyLeaderboard")
	if got != "No quiz results yet. Finish a quiz to appear here." {
		t.Errorf("T without localizer = %q, want the English text", got)
	}
}

func TestMiddlewareLangOverride(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NoteNotFound")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/notes/missing.pdf?lang=hi", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "अध्ययन नोट नहीं मिला।" {
		t.Errorf("translated with lang=hi override = %q, want the Hindi translation", got)
	}
}

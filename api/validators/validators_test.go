package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
)

type textBody struct {
	Text string `json:"text" validate:"notblank"`
}

func TestDecodeJSONBodyRejectsBlankText(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"   "}`))
	var body textBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["text"] != "is required" {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"hi","extra":1}`))
	var body textBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	var body textBody
	err := DecodeJSONBody(req, &body)
	if typed := pkgerrors.As(err); typed == nil || typed.Message() != "request body is required" {
		t.Fatalf("expected empty body error, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10", nil)
	v, err := ParseQueryInt(req, "limit", 20, 1, 100)
	if err != nil || v != 10 {
		t.Fatalf("expected 10, got %d (%v)", v, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if v, _ := ParseQueryInt(req, "limit", 20, 1, 100); v != 20 {
		t.Fatalf("expected default 20, got %d", v)
	}

	req = httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 100); err == nil {
		t.Fatal("expected range error")
	}
}

func TestParseQueryEnum(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?range=WEEK", nil)
	v, err := ParseQueryEnum(req, "range", "all", "all", "today", "week", "month")
	if err != nil || v != "week" {
		t.Fatalf("expected week, got %q (%v)", v, err)
	}
	req = httptest.NewRequest(http.MethodGet, "/?range=year", nil)
	if _, err := ParseQueryEnum(req, "range", "all", "all", "today"); err == nil {
		t.Fatal("expected unsupported value error")
	}
}

func TestBearerToken(t *testing.T) {
	if tok, err := BearerToken("Bearer abc.def.ghi"); err != nil || tok != "abc.def.ghi" {
		t.Fatalf("unexpected %q %v", tok, err)
	}
	if tok, err := BearerToken("  bearer   abc.def.ghi "); err != nil || tok != "abc.def.ghi" {
		t.Fatalf("unexpected %q %v", tok, err)
	}
	for _, header := range []string{
		"",
		"Bearer ",
		"Bearer",
		"abc.def.ghi",
		"Basic dXNlcjpwYXNz",
		"Bearer abc def",
		"Bearer abc\tdef",
	} {
		if tok, err := BearerToken(header); err == nil {
			t.Fatalf("expected error for %q, got token %q", header, tok)
		}
	}
}

func TestSanitizeStringCapsRunes(t *testing.T) {
	if got := SanitizeString("  héllo wörld  ", 5); got != "héllo" {
		t.Fatalf("unexpected %q", got)
	}
}

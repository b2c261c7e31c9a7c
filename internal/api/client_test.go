package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anzway/learnterm/internal/catalog"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, "fatima", "42")
}

func TestCatalogOptions_BareStringArray(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classes" {
			t.Errorf("path = %s, want /classes", r.URL.Path)
		}
		_, _ = w.Write([]byte(`["Class 7","Class 8"]`))
	})

	opts, err := c.CatalogOptions(context.Background(), "classes", nil)
	if err != nil {
		t.Fatalf("CatalogOptions: %v", err)
	}
	if len(opts) != 2 || opts[0].Value != "Class 7" || opts[1].Value != "Class 8" {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestCatalogOptions_WrappedObject(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"subjects":["Math","Science"]}`))
	})

	opts, err := c.CatalogOptions(context.Background(), "subjects", []catalog.Param{{Name: "class", Value: "Class 7"}})
	if err != nil {
		t.Fatalf("CatalogOptions: %v", err)
	}
	if len(opts) != 2 || opts[0].Value != "Math" {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestCatalogOptions_LabelValuePairs(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"Chapter One","value":"ch1.pdf"},{"value":"notes/ch2.pdf"}]`))
	})

	opts, err := c.CatalogOptions(context.Background(), "chapters", nil)
	if err != nil {
		t.Fatalf("CatalogOptions: %v", err)
	}
	if opts[0].Label != "Chapter One" || opts[0].Value != "ch1.pdf" {
		t.Errorf("explicit label not honored: %+v", opts[0])
	}
	// Missing label falls back to the shortened file name.
	if opts[1].Label != "ch2" {
		t.Errorf("derived label = %q, want %q", opts[1].Label, "ch2")
	}
}

func TestCatalogOptions_ParentValuesForwarded(t *testing.T) {
	var gotClass, gotSubject string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotClass = r.URL.Query().Get("class")
		gotSubject = r.URL.Query().Get("subject")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.CatalogOptions(context.Background(), "chapters", []catalog.Param{
		{Name: "class", Value: "Class 7"},
		{Name: "subject", Value: "Math"},
	})
	if err != nil {
		t.Fatalf("CatalogOptions: %v", err)
	}
	if gotClass != "Class 7" || gotSubject != "Math" {
		t.Errorf("query = class:%q subject:%q", gotClass, gotSubject)
	}
}

func TestStartSession_DetailSurfacedVerbatim(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"no session"}`))
	})

	_, err := c.StartSession(context.Background(), nil)
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if be.Error() != "no session" {
		t.Errorf("error text = %q, want server detail verbatim", be.Error())
	}
	if be.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", be.Status)
	}
}

func TestStartSession_ValidResponse(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"session_id":"abc123","text_reply":"Let's begin.","questions":["Q7","Q8"]}`))
	})

	res, err := c.StartSession(context.Background(), []catalog.Param{
		{Name: "subject", Value: "history"},
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if res.SessionID != "abc123" {
		t.Errorf("SessionID = %q", res.SessionID)
	}
	if res.Reply != "Let's begin." {
		t.Errorf("Reply = %q", res.Reply)
	}
	if len(res.Questions) != 2 {
		t.Errorf("Questions = %v", res.Questions)
	}
}

func TestStartSession_QuestionTravelsAsQuestionText(t *testing.T) {
	var body map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"session_id":"abc123","reply":"ok"}`))
	})

	_, err := c.StartSession(context.Background(), []catalog.Param{
		{Name: "subject", Value: "sociology"},
		{Name: "marks", Value: "5"},
		{Name: "question", Value: "Explain social stratification."},
	})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if body["question_text"] != "Explain social stratification." {
		t.Errorf("question_text = %v", body["question_text"])
	}
	if _, leaked := body["question"]; leaked {
		t.Error("selector-level name must not leak onto the wire")
	}
	if body["subject"] != "sociology" || body["marks"] != "5" {
		t.Errorf("body = %v", body)
	}
}

func TestStartSession_MissingSessionIDRejected(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":"hello"}`))
	})

	_, err := c.StartSession(context.Background(), nil)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError for schema violation, got %v", err)
	}
}

func TestSendTurn_PassedVerdict(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":"Well done","passed":true,"question_text":"Q7","evaluation":"full marks"}`))
	})

	res, err := c.SendTurn(context.Background(), "abc123", "my answer", false)
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if !res.Passed || res.PassedItem != "Q7" {
		t.Errorf("verdict not decoded: %+v", res)
	}
}

func TestCheckAccess(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("username"); got != "fatima" {
			t.Errorf("username = %q", got)
		}
		_, _ = w.Write([]byte(`{"access_allowed":true}`))
	})

	allowed, err := c.CheckAccess(context.Background())
	if err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if !allowed {
		t.Error("expected access allowed")
	}
}

func TestNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond, "fatima", "")

	_, err := c.CheckAccess(context.Background())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestPreparedChapters_ObjectRows(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"pdf_name":"Algebra"},{"chapter":"Geometry"}]`))
	})

	names, err := c.PreparedChapters(context.Background(), "Math")
	if err != nil {
		t.Fatalf("PreparedChapters: %v", err)
	}
	if len(names) != 2 || names[0] != "Algebra" || names[1] != "Geometry" {
		t.Errorf("names = %v", names)
	}
}

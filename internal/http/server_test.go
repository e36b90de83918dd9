package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"insights/internal/category"
	"insights/internal/core"
	"insights/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	srv := NewServer(":0", st, nil, time.Hour, "demo@example.com", nil)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return srv, st
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func register(t *testing.T, srv *Server, email string) (string, core.User) {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "correct horse",
		"name":     "Test User",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	resp := decodeBody[sessionResponse](t, rec)
	return resp.Token, resp.User
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing email", map[string]string{"password": "long enough"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "nope", "password": "long enough"}, http.StatusBadRequest},
		{"short password", map[string]string{"email": "a@b.com", "password": "short"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, rec.Code)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "a@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@example.com", "password": "correct horse",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	register(t, srv, "a@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	resp := decodeBody[sessionResponse](t, rec)
	if resp.Token == "" {
		t.Fatalf("expected session token")
	}
	if strings.Contains(rec.Body.String(), "passwordHash") || strings.Contains(rec.Body.String(), "correct horse") {
		t.Fatalf("credentials must never appear in responses")
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "missing@example.com", "password": "whatever",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", rec.Code)
	}
}

func TestMeAndLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	token, user := register(t, srv, "a@example.com")

	rec := doJSON(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	me := decodeBody[core.User](t, rec)
	if me.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, me.ID)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}
	foundClear := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.MaxAge < 0 {
			foundClear = true
		}
	}
	if !foundClear {
		t.Fatalf("logout must clear the session cookie")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", rec.Code)
	}
}

func TestSessionCookieAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := register(t, srv, "a@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie auth: expected 200, got %d", rec.Code)
	}

	// A bearer header wins over the cookie.
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bearer must win over cookie: expected 401, got %d", rec.Code)
	}
}

func TestAuthedRoutesRequireSession(t *testing.T) {
	srv, _ := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/transactions"},
		{http.MethodGet, "/api/dashboard/summary"},
		{http.MethodGet, "/api/settings/profile"},
		{http.MethodGet, "/api/insights"},
	}
	for _, p := range paths {
		rec := doJSON(t, srv, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func uploadCSV(t *testing.T, srv *Server, token, accountName, csv string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "statement.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(csv)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if accountName != "" {
		if err := mw.WriteField("accountName", accountName); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/transactions/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadStatement(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := register(t, srv, "a@example.com")

	csv := "Date,Description,Amount\n" +
		"2024-01-05,Netflix,-16.49\n" +
		"2024-01-06,Pending hold,0\n" +
		"2024-01-10,Employer Inc,3985.50\n" +
		"2024-01-12,TFSA Transfer,-500.00\n"
	rec := uploadCSV(t, srv, token, "Chequing", csv)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	result := decodeBody[core.UploadResult](t, rec)
	if len(result.Imported) != 3 {
		t.Fatalf("expected 3 imported, got %d", len(result.Imported))
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Reason == "" {
		t.Fatalf("expected 1 skipped row with a reason, got %+v", result.Skipped)
	}
	if result.Stats.TotalRows != 4 || result.Stats.ImportedRows != 3 || result.Stats.DetectedTransfers != 1 {
		t.Fatalf("unexpected stats: %+v", result.Stats)
	}

	// Heuristic categorization happened before the write.
	for _, tx := range result.Imported {
		switch tx.Description {
		case "Netflix":
			if tx.CategoryID == nil || *tx.CategoryID != category.Subscriptions {
				t.Fatalf("netflix should be a subscription, got %v", tx.CategoryID)
			}
		case "Employer Inc":
			if tx.CategoryID == nil || *tx.CategoryID != category.Salary {
				t.Fatalf("payroll should be salary, got %v", tx.CategoryID)
			}
		}
	}

	// The named account was upserted.
	recAccounts := doJSON(t, srv, http.MethodGet, "/api/settings/accounts", token, nil)
	accounts := decodeBody[[]core.Account](t, recAccounts)
	if len(accounts) != 1 || accounts[0].Name != "Chequing" {
		t.Fatalf("expected upserted account, got %+v", accounts)
	}
}

func TestUploadStatementErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := register(t, srv, "a@example.com")

	// No account identification at all.
	rec := uploadCSV(t, srv, token, "", "Date,Description,Amount\n2024-01-05,Netflix,-16.49\n")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing account: expected 400, got %d", rec.Code)
	}

	// Malformed CSV fails the whole upload.
	rec = uploadCSV(t, srv, token, "Chequing", "Date,Description,Amount\n2024-01-05,\"Netflix,-16.49\n")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed csv: expected 400, got %d", rec.Code)
	}

	// Not multipart at all.
	rec = doJSON(t, srv, http.MethodPost, "/api/transactions/upload", token, map[string]string{"x": "y"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-multipart: expected 400, got %d", rec.Code)
	}
}

func TestCreateAndListTransactions(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := register(t, srv, "a@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"accountId":   "a1",
		"description": "Tim Hortons",
		"amount":      -6.50,
		"date":        "2024-03-04",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	created := decodeBody[core.Transaction](t, rec)
	if created.Amount.Cents != -650 || created.Type != core.Expense {
		t.Fatalf("unexpected transaction: %+v", created)
	}
	if created.CategoryID == nil || *created.CategoryID != category.Coffee {
		t.Fatalf("heuristic should categorize coffee, got %v", created.CategoryID)
	}

	// Explicit category beats the heuristic.
	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"accountId":   "a1",
		"description": "Tim Hortons catering",
		"amount":      -120.00,
		"date":        "2024-03-05",
		"categoryId":  category.Groceries,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	created = decodeBody[core.Transaction](t, rec)
	if created.CategoryID == nil || *created.CategoryID != category.Groceries {
		t.Fatalf("explicit category must win, got %v", created.CategoryID)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?search=catering", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	list := decodeBody[listTransactionsResponse](t, rec)
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("unexpected search result: %+v", list)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := register(t, srv, "a@example.com")

	cases := []struct {
		name string
		body map[string]any
	}{
		{"zero amount", map[string]any{"accountId": "a1", "description": "x", "amount": 0, "date": "2024-01-01"}},
		{"no description", map[string]any{"accountId": "a1", "amount": -5, "date": "2024-01-01"}},
		{"bad date", map[string]any{"accountId": "a1", "description": "x", "amount": -5, "date": "01/01/2024"}},
		{"no account", map[string]any{"description": "x", "amount": -5, "date": "2024-01-01"}},
		{"unknown category", map[string]any{"accountId": "a1", "description": "x", "amount": -5, "date": "2024-01-01", "categoryId": 999}},
	}
	for _, tc := range cases {
		rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestRecategorize(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := register(t, srv, "a@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"accountId":   "a1",
		"description": "Mystery charge",
		"amount":      -42.00,
		"date":        "2024-03-01",
	})
	created := decodeBody[core.Transaction](t, rec)

	path := fmt.Sprintf("/api/transactions/%s/category", created.ID)
	rec = doJSON(t, srv, http.MethodPatch, path, token, map[string]any{"categoryId": category.Groceries})
	if rec.Code != http.StatusOK {
		t.Fatalf("recategorize: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	updated := decodeBody[core.Transaction](t, rec)
	if updated.CategoryID == nil || *updated.CategoryID != category.Groceries {
		t.Fatalf("unexpected category: %v", updated.CategoryID)
	}

	rec = doJSON(t, srv, http.MethodPatch, path, token, map[string]any{"categoryId": 999})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown category: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPatch, "/api/transactions/nope/category", token, map[string]any{"categoryId": category.Groceries})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing transaction: expected 404, got %d", rec.Code)
	}
}

func TestDashboardSummary(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := register(t, srv, "a@example.com")

	now := time.Now().UTC()
	date := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"accountId": "a1", "description": "Employer Inc", "amount": 3985.50, "date": date,
	})
	doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"accountId": "a1", "description": "Metro Grocery", "amount": -120.30, "date": date,
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard/summary?timeframe=month", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", rec.Code)
	}
	summary := decodeBody[core.DashboardSummary](t, rec)
	if len(summary.Cashflow) != 3 {
		t.Fatalf("expected 3 cashflow buckets, got %d", len(summary.Cashflow))
	}
	if summary.Totals.Income.Cents != 398550 || summary.Totals.Expenses.Cents != 12030 {
		t.Fatalf("unexpected totals: %+v", summary.Totals)
	}
	if len(summary.CategoryBreakdown) == 0 {
		t.Fatalf("expected a category breakdown")
	}

	// Unknown timeframe falls back instead of erroring.
	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard/summary?timeframe=fortnight", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fallback timeframe: expected 200, got %d", rec.Code)
	}
}

func TestSettings(t *testing.T) {
	srv, _ := newTestServer(t)
	token, _ := register(t, srv, "a@example.com")

	rec := doJSON(t, srv, http.MethodPatch, "/api/settings/profile", token, map[string]any{
		"name": "New Name", "province": "QC",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	user := decodeBody[core.User](t, rec)
	if user.Name != "New Name" || user.Province != "QC" {
		t.Fatalf("unexpected profile: %+v", user)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/settings/categories", token, nil)
	categories := decodeBody[[]category.Category](t, rec)
	if len(categories) != len(category.All()) {
		t.Fatalf("expected full category set, got %d", len(categories))
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/settings/feedback-options", token, nil)
	options := decodeBody[[]feedbackOption](t, rec)
	if len(options) == 0 {
		t.Fatalf("expected feedback options")
	}
}

func TestInsights(t *testing.T) {
	srv, st := newTestServer(t)
	token, user := register(t, srv, "a@example.com")

	rec := doJSON(t, srv, http.MethodGet, "/api/insights", token, nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %d %q", rec.Code, rec.Body.String())
	}

	modules := []core.InsightModule{{ID: "m1", Title: "Spending", Insights: []core.Insight{{ID: "i1", Title: "Coffee"}}}}
	if err := st.PutInsightModules(context.Background(), user.ID, modules); err != nil {
		t.Fatalf("put modules: %v", err)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/insights", token, nil)
	got := decodeBody[[]core.InsightModule](t, rec)
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("unexpected modules: %+v", got)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/insights/feedback", token, map[string]string{
		"insightId": "i1", "value": "useful",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("feedback: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/insights/feedback", token, map[string]string{
		"insightId": "i1", "value": "meh",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad value: expected 400, got %d", rec.Code)
	}
}

func TestDemoLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	// Demo user not seeded yet.
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/demo", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unseeded demo: expected 404, got %d", rec.Code)
	}

	register(t, srv, "demo@example.com")

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/demo", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("demo login: expected 200, got %d", rec.Code)
	}
	resp := decodeBody[sessionResponse](t, rec)
	if resp.Token == "" || resp.User.Email != "demo@example.com" {
		t.Fatalf("unexpected demo session: %+v", resp.User)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing frame options header")
	}
}

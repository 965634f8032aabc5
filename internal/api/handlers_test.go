package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bentonah/fitlog/internal/auth"
	"github.com/bentonah/fitlog/internal/domain"
	"github.com/bentonah/fitlog/internal/persistence/memory"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type testApp struct {
	t       *testing.T
	handler http.Handler
	repo    *memory.Repository
	clock   *testClock
}

func newTestApp(t *testing.T, records domain.RecordRepository) *testApp {
	t.Helper()

	repo := memory.NewRepository()
	if records == nil {
		records = repo
	}
	clock := &testClock{now: time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)}

	manager, err := auth.NewManager(auth.Config{Secret: "test-secret", Issuer: "fitlog-test"}, repo, repo, clock.Now)
	require.NoError(t, err)

	handler := NewHandler(
		domain.NewCredentialService(repo, bcrypt.MinCost, clock.Now),
		domain.NewRecordService(records, clock.Now),
		domain.NewQueryService(records, clock.Now),
		manager,
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	gate := auth.NewMiddleware(manager, LoginPath, auth.PublicPaths(PublicRoutes...))

	return &testApp{t: t, handler: gate.Wrap(mux), repo: repo, clock: clock}
}

// browser keeps cookies between requests the way a user agent would.
type browser struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) browser() *browser {
	return &browser{app: a, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.app.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) register(username, password string) {
	rec := b.post("/register", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.app.t, http.StatusSeeOther, rec.Code)
	require.Equal(b.app.t, "/", rec.Header().Get("Location"))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func exerciseForm(name, reps, sets, weight string) url.Values {
	return url.Values{"name": {name}, "reps": {reps}, "sets": {sets}, "weight": {weight}}
}

func measurementForm(overrides map[string]string) url.Values {
	form := url.Values{
		"weight": {"80"}, "bmi": {"24.5"}, "upper_arms": {"35"}, "forearms": {"30"},
		"shoulders": {"120"}, "chest": {"100"}, "stomach": {"85"}, "thighs": {"60"}, "calves": {"40"},
	}
	for k, v := range overrides {
		form.Set(k, v)
	}
	return form
}

func TestAnonymousDashboardRedirectsToLogin(t *testing.T) {
	app := newTestApp(t, nil)
	b := app.browser()

	rec := b.get("/")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login?next=%2F", rec.Header().Get("Location"))

	page := decode[LoginResponse](t, b.get("/login?next=%2F"))
	require.Equal(t, "/", page.Next)
	require.Equal(t, []Flash{{Category: categoryInfo, Message: msgLoginRequired}}, page.Messages)
}

func TestAnonymousFormPostIsNotAccepted(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.browser().post("/add_exercise", exerciseForm("Squat", "5", "5", "100"))
	require.Equal(t, http.StatusFound, rec.Code)
	exercises, _ := app.repo.Counts()
	require.Zero(t, exercises)
}

func TestAddExerciseFlashesAndLists(t *testing.T) {
	app := newTestApp(t, nil)
	b := app.browser()
	b.register("alice", "s3cret")

	rec := b.post("/add_exercise", exerciseForm("Squat", "5", "3", "100.5"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	dash := decode[DashboardResponse](t, b.get("/"))
	require.Equal(t, "alice", dash.User.Username)
	require.Len(t, dash.Exercises, 1)
	require.Equal(t, "Squat", dash.Exercises[0].Name)
	require.Equal(t, 100.5, dash.Exercises[0].Weight)
	require.Empty(t, dash.HealthMeasurements)
	require.Equal(t, []Flash{{Category: categorySuccess, Message: msgExerciseAdded}}, dash.Messages)

	again := decode[DashboardResponse](t, b.get("/"))
	require.Empty(t, again.Messages, "flash messages render once")
}

func TestAddExerciseRejectsInvalidForms(t *testing.T) {
	cases := map[string]url.Values{
		"unparseable reps": exerciseForm("Squat", "five", "3", "100"),
		"zero sets":        exerciseForm("Squat", "5", "0", "100"),
		"negative weight":  exerciseForm("Squat", "5", "3", "-1"),
		"blank name":       exerciseForm("   ", "5", "3", "100"),
		"nan weight":       exerciseForm("Squat", "5", "3", "NaN"),
	}

	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			app := newTestApp(t, nil)
			b := app.browser()
			b.register("alice", "s3cret")

			rec := b.post("/add_exercise", form)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			require.Equal(t, "/", rec.Header().Get("Location"))

			exercises, _ := app.repo.Counts()
			require.Zero(t, exercises)

			dash := decode[DashboardResponse](t, b.get("/"))
			require.Equal(t, []Flash{{Category: categoryError, Message: msgInvalidInput}}, dash.Messages)
		})
	}
}

func TestAddHealthMeasurement(t *testing.T) {
	app := newTestApp(t, nil)
	b := app.browser()
	b.register("alice", "s3cret")

	rec := b.post("/add_health_measurement", measurementForm(map[string]string{"calves": "0"}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, measurements := app.repo.Counts()
	require.Zero(t, measurements)
	dash := decode[DashboardResponse](t, b.get("/"))
	require.Equal(t, msgInvalidInput, dash.Messages[0].Message)

	rec = b.post("/add_health_measurement", measurementForm(nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	dash = decode[DashboardResponse](t, b.get("/"))
	require.Len(t, dash.HealthMeasurements, 1)
	require.Equal(t, 24.5, dash.HealthMeasurements[0].BMI)
	require.Equal(t, []Flash{{Category: categorySuccess, Message: msgMeasurementAdded}}, dash.Messages)
}

func TestDashboardDateRange(t *testing.T) {
	app := newTestApp(t, nil)
	b := app.browser()
	b.register("alice", "s3cret")

	app.clock.now = time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	b.post("/add_exercise", exerciseForm("Old", "5", "3", "50"))
	app.clock.now = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	b.post("/add_exercise", exerciseForm("Recent", "5", "3", "50"))

	dash := decode[DashboardResponse](t, b.get("/"))
	require.Len(t, dash.Exercises, 1)
	require.Equal(t, "Recent", dash.Exercises[0].Name)
	require.True(t, dash.Range.Start.Equal(app.clock.now.Add(-domain.DefaultWindow)))

	dash = decode[DashboardResponse](t, b.get("/?start_date=2024-01-01&end_date=2024-02-01"))
	require.Len(t, dash.Exercises, 1)
	require.Equal(t, "Old", dash.Exercises[0].Name)
	require.True(t, dash.Range.End.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))

	rec := b.get("/?start_date=01/02/2024")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]string](t, rec)
	require.Equal(t, "validation_failed", body["type"])
}

func TestExerciseHealthSummary(t *testing.T) {
	app := newTestApp(t, nil)
	b := app.browser()
	b.register("alice", "s3cret")

	empty := decode[SummaryResponse](t, b.get("/exercise_health_summary"))
	require.Empty(t, empty.Rows)
	require.Zero(t, empty.Totals.TotalReps)
	require.Nil(t, empty.Totals.AverageWeight)
	require.Nil(t, empty.Totals.MaxBMI)

	// Same instant for both submissions, so they pair up.
	b.post("/add_exercise", exerciseForm("Squat", "5", "3", "100"))
	b.post("/add_health_measurement", measurementForm(nil))
	app.clock.now = app.clock.now.Add(time.Minute)
	b.post("/add_exercise", exerciseForm("Bench", "10", "3", "60"))

	summary := decode[SummaryResponse](t, b.get("/exercise_health_summary"))
	require.Equal(t, []JoinedRowView{{Name: "Squat", Reps: 5, Sets: 3, Weight: 100, HealthWeight: 80, BMI: 24.5}}, summary.Rows)
	require.Equal(t, 15, summary.Totals.TotalReps)
	require.NotNil(t, summary.Totals.AverageWeight)
	require.InDelta(t, 80.0, *summary.Totals.AverageWeight, 0.0001)
	require.NotNil(t, summary.Totals.MaxBMI)
	require.InDelta(t, 24.5, *summary.Totals.MaxBMI, 0.0001)
}

func TestRecordsAreIsolatedPerUser(t *testing.T) {
	app := newTestApp(t, nil)
	alice := app.browser()
	alice.register("alice", "s3cret")
	bob := app.browser()
	bob.register("bob", "hunter2")

	alice.post("/add_exercise", exerciseForm("Squat", "5", "3", "100"))

	dash := decode[DashboardResponse](t, bob.get("/"))
	require.Empty(t, dash.Exercises)
	summary := decode[SummaryResponse](t, bob.get("/exercise_health_summary"))
	require.Zero(t, summary.Totals.TotalReps)
}

func TestLoginFlow(t *testing.T) {
	app := newTestApp(t, nil)
	app.browser().register("alice", "s3cret")

	b := app.browser()
	rec := b.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}, "next": {"/exercise_health_summary"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login?next=%2Fexercise_health_summary", rec.Header().Get("Location"))
	page := decode[LoginResponse](t, b.get("/login"))
	require.Equal(t, []Flash{{Category: categoryError, Message: msgInvalidCredentials}}, page.Messages)

	rec = b.post("/login", url.Values{"username": {"nobody"}, "password": {"s3cret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, LoginPath, rec.Header().Get("Location"))

	rec = b.post("/login", url.Values{"username": {"alice"}, "password": {"s3cret"}, "next": {"/exercise_health_summary"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/exercise_health_summary", rec.Header().Get("Location"))
	require.Equal(t, http.StatusOK, b.get("/exercise_health_summary").Code)
}

func TestLoginIgnoresOffsiteNext(t *testing.T) {
	app := newTestApp(t, nil)
	app.browser().register("alice", "s3cret")

	rec := app.browser().post("/login", url.Values{"username": {"alice"}, "password": {"s3cret"}, "next": {"//evil.example"}})
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRegisterRejectsDuplicateAndInvalid(t *testing.T) {
	app := newTestApp(t, nil)
	app.browser().register("alice", "s3cret")

	b := app.browser()
	rec := b.post("/register", url.Values{"username": {"alice"}, "password": {"other"}})
	require.Equal(t, LoginPath, rec.Header().Get("Location"))
	page := decode[LoginResponse](t, b.get("/login"))
	require.Equal(t, msgUsernameTaken, page.Messages[0].Message)

	rec = b.post("/register", url.Values{"username": {""}, "password": {"x"}})
	require.Equal(t, LoginPath, rec.Header().Get("Location"))
	page = decode[LoginResponse](t, b.get("/login"))
	require.Equal(t, msgInvalidInput, page.Messages[0].Message)
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t, nil)
	b := app.browser()
	b.register("alice", "s3cret")
	require.Equal(t, http.StatusOK, b.get("/").Code)

	rec := b.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, LoginPath, rec.Header().Get("Location"))

	require.Equal(t, http.StatusFound, b.get("/").Code)
}

type brokenRecords struct {
	domain.RecordRepository
}

func (brokenRecords) CreateExercise(context.Context, domain.Exercise) error {
	return errors.New("connection refused: 10.0.0.5:5432")
}

func (brokenRecords) ListExercises(context.Context, string, domain.TimeRange, int) ([]domain.Exercise, error) {
	return nil, errors.New("connection refused: 10.0.0.5:5432")
}

func TestStorageFailuresAreGeneric500s(t *testing.T) {
	app := newTestApp(t, brokenRecords{})
	b := app.browser()
	b.register("alice", "s3cret")

	rec := b.post("/add_exercise", exerciseForm("Squat", "5", "3", "100"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[map[string]string](t, rec)
	require.Equal(t, "server_error", body["type"])
	require.NotContains(t, body["detail"], "10.0.0.5")

	rec = b.get("/")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t, nil)
	rec := app.browser().get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestSafeNext(t *testing.T) {
	require.Equal(t, "/", safeNext(""))
	require.Equal(t, "/", safeNext("https://evil.example"))
	require.Equal(t, "/", safeNext("//evil.example"))
	require.Equal(t, "/exercise_health_summary", safeNext("/exercise_health_summary"))
}

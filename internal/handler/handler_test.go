package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/middleware"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/repository"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/service"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "admin-token"

type stubBatch struct {
	period string
	err    error
}

func (s *stubBatch) RunPeriodBatch(_ context.Context, period string) (*service.BatchResult, error) {
	s.period = period
	if s.err != nil {
		return nil, s.err
	}
	return &service.BatchResult{Success: true, Period: period, Message: "ok"}, nil
}

type stubReports struct{}

func (stubReports) MasterReport(context.Context) ([]model.ReportRow, error) {
	return []model.ReportRow{{Email: "root@hfc.com", Total: decimal.NewFromInt(75)}}, nil
}

func (stubReports) Stats(context.Context) (*model.PlatformStats, error) {
	return &model.PlatformStats{Users: 3, Packages: map[string]int{"Gold": 1}}, nil
}

type stubReset struct {
	res *service.ResetResult
	err error
}

func (s *stubReset) ResetSystem(context.Context) (*service.ResetResult, error) {
	return s.res, s.err
}

func (s *stubReset) Preview(context.Context) ([]model.TableCount, error) {
	return []model.TableCount{{Table: "orders", Rows: 4}}, s.err
}

type stubParticipants struct {
	signupErr error
}

func (s *stubParticipants) Signup(_ context.Context, in service.SignupInput) (*model.Participant, *model.Placement, error) {
	if s.signupErr != nil {
		return nil, nil, s.signupErr
	}
	p := &model.Participant{ID: uuid.New(), Email: in.Email}
	placement := network.NewRootPlacement(p.ID)
	return p, &placement, nil
}

func (s *stubParticipants) UserData(_ context.Context, id uuid.UUID) (*service.UserData, error) {
	return nil, fmt.Errorf("lookup %s: %w", id, repository.ErrParticipantNotFound)
}

type stubPackages struct{}

func (stubPackages) List(context.Context) ([]model.Package, error) { return []model.Package{}, nil }

func (stubPackages) Create(_ context.Context, in service.PackageInput) (*model.Package, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", service.ErrInvalidPackage)
	}
	return &model.Package{ID: uuid.New(), Name: in.Name, Price: in.Price}, nil
}

func (stubPackages) Update(_ context.Context, id uuid.UUID, _ service.PackagePatch) (*model.Package, error) {
	return nil, repository.ErrPackageNotFound
}

func (stubPackages) Activate(_ context.Context, _, _ uuid.UUID) (*model.Order, error) {
	return nil, service.ErrPackageInactive
}

type stubPayouts struct{}

func (stubPayouts) Request(_ context.Context, id uuid.UUID) (*model.Payout, error) {
	return nil, repository.ErrNothingToPayout
}

func (stubPayouts) MarkPaid(_ context.Context, id uuid.UUID) (*model.Payout, error) {
	return &model.Payout{ID: id, Status: model.PayoutStatusCompleted}, nil
}

func (stubPayouts) Cancel(_ context.Context, id uuid.UUID) (*model.Payout, error) {
	return nil, model.ErrInvalidTransition
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error {
	return s.err
}

type fixture struct {
	app   *fiber.App
	batch *stubBatch
	reset *stubReset
	db    *stubPinger
}

func newFixture() *fixture {
	f := &fixture{
		batch: &stubBatch{},
		db:    &stubPinger{},
		reset: &stubReset{res: &service.ResetResult{Success: true, Message: "System fully reset. Root identity preserved."}},
	}
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC))
	h := New(&stubParticipants{}, stubPackages{}, stubPayouts{})
	h.SetPinger(f.db)
	admin := NewAdminHandler(f.batch, stubReports{}, f.reset, stubPackages{}, stubPayouts{}, clock)
	f.app = fiber.New()
	Register(f.app, h, admin, testToken)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, admin bool) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set(middleware.AdminTokenHeader, testToken)
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	t.Parallel()
	status, body := newFixture().do(t, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.db.err = fmt.Errorf("dial tcp: connection refused")

	status, body := f.do(t, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", body["status"])
}

func TestRunMonthly(t *testing.T) {
	t.Parallel()
	f := newFixture()

	status, body := f.do(t, http.MethodPost, "/api/admin/run-monthly", `{"period":"2026-02"}`, true)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2026-02", f.batch.period)
	assert.Equal(t, true, body["success"])

	status, _ = f.do(t, http.MethodPost, "/api/admin/run-monthly", "", true)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "2025-12", f.batch.period)

	f.batch.err = fmt.Errorf("%w: %q", service.ErrInvalidPeriod, "bad")
	status, body = f.do(t, http.MethodPost, "/api/admin/run-monthly", `{"period":"bad"}`, true)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "YYYY-MM")

	f.batch.err = service.ErrBatchInProgress
	status, _ = f.do(t, http.MethodPost, "/api/admin/run-monthly", `{"period":"2026-02"}`, true)
	assert.Equal(t, http.StatusConflict, status)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	t.Parallel()
	f := newFixture()
	status, _ := f.do(t, http.MethodGet, "/api/admin/master-report", "", false)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = f.do(t, http.MethodPost, "/api/admin/reset-system", "", false)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMasterReportAndStats(t *testing.T) {
	t.Parallel()
	f := newFixture()

	status, body := f.do(t, http.MethodGet, "/api/admin/master-report", "", true)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	rows, ok := body["report"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "root@hfc.com", rows[0].(map[string]any)["email"])

	status, body = f.do(t, http.MethodGet, "/api/admin/stats", "", true)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["users"])
}

func TestResetSystem(t *testing.T) {
	t.Parallel()
	f := newFixture()

	status, body := f.do(t, http.MethodPost, "/api/admin/reset-system", "", true)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	f.reset.res = &service.ResetResult{Success: false, Message: "Root identity not found."}
	f.reset.err = service.ErrRootIdentityNotFound
	status, body = f.do(t, http.MethodPost, "/api/admin/reset-system", "", true)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Root identity not found.", body["message"])
}

func TestSignup(t *testing.T) {
	t.Parallel()
	f := newFixture()

	status, body := f.do(t, http.MethodPost, "/api/signup", `{"email":"a@hfc.com"}`, false)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["userId"])

	status, _ = f.do(t, http.MethodPost, "/api/signup", `{`, false)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()
	f := newFixture()
	id := uuid.NewString()

	cases := []struct {
		method, path, body string
		admin              bool
		status             int
	}{
		{http.MethodGet, "/api/user-data/" + id, "", false, http.StatusNotFound},
		{http.MethodGet, "/api/user-data/not-a-uuid", "", false, http.StatusBadRequest},
		{http.MethodPost, "/api/activate-package", fmt.Sprintf(`{"userId":%q,"packageId":%q}`, id, id), false, http.StatusConflict},
		{http.MethodPost, "/api/activate-package", `{}`, false, http.StatusBadRequest},
		{http.MethodPost, "/api/payouts/request", fmt.Sprintf(`{"userId":%q}`, id), false, http.StatusConflict},
		{http.MethodPost, "/api/admin/packages", `{"name":""}`, true, http.StatusBadRequest},
		{http.MethodPost, "/api/admin/packages", `{"name":"Gold","price":"99.5"}`, true, http.StatusCreated},
		{http.MethodPut, "/api/admin/packages/" + id, `{"price":"10"}`, true, http.StatusNotFound},
		{http.MethodPost, "/api/admin/payouts/" + id + "/paid", "", true, http.StatusOK},
		{http.MethodPost, "/api/admin/payouts/" + id + "/cancel", "", true, http.StatusConflict},
		{http.MethodGet, "/api/packages", "", false, http.StatusOK},
	}
	for _, tc := range cases {
		status, _ := f.do(t, tc.method, tc.path, tc.body, tc.admin)
		assert.Equal(t, tc.status, status, "%s %s", tc.method, tc.path)
	}
}

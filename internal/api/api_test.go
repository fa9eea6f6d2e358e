package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/xrkiosk/internal/api"
	"github.com/mcoot/xrkiosk/internal/api/apierr"
	"github.com/mcoot/xrkiosk/internal/api/request"
	"github.com/mcoot/xrkiosk/internal/api/response"
	"github.com/mcoot/xrkiosk/internal/factory"
	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/testutil"
)

const (
	image    = "data:image/png;base64,iVBORw0KGgo="
	staffPIN = "2468"
)

var allConsent = model.ConsentFlags{AgreeTerms: true, AgreeEsign: true, AgreeEmail: true}

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, opts ...factory.TestOption) *testServer {
	t.Helper()

	app := factory.NewTestApp(opts...)
	router := api.NewRouter(api.RouterConfig{
		Logger:        testutil.NopLogger(),
		AuthService:   app.AuthService,
		Kiosks:        app.Kiosks,
		Storage:       app.Storage,
		Blobs:         app.Blobs,
		SSEPingPeriod: time.Hour,
	})

	return &testServer{handler: router, app: app}
}

func newAuthedTestServer(t *testing.T) *testServer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(staffPIN), bcrypt.MinCost)
	require.NoError(t, err)
	return newTestServer(t, factory.WithStaffPINHash(string(hash)))
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func details(name string) request.DetailsRequest {
	return request.DetailsRequest{
		Name:        name,
		Email:       strings.ToLower(name) + "@example.com",
		Phone:       "(555) 010-0000",
		DateOfBirth: "1992-07-30",
		Gender:      model.GenderPreferNotToSay,
	}
}

// registerTeam drives a registration kiosk through to completion over HTTP
func (ts *testServer) registerTeam(t *testing.T, teamName string, names ...string) response.Registration {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/registrations", nil, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	base := "/api/v1/registrations/" + decode[response.Registration](t, rr).ID

	steps := []struct {
		path string
		body any
	}{
		{"/start", nil},
		{"/game", request.SelectGameRequest{Game: model.DefaultGame}},
		{"/continue", nil},
	}
	for i, name := range names {
		if i > 0 {
			steps = append(steps, struct {
				path string
				body any
			}{"/members", nil})
		}
		steps = append(steps,
			struct {
				path string
				body any
			}{"/details", details(name)},
			struct {
				path string
				body any
			}{"/confirm", nil},
			struct {
				path string
				body any
			}{"/terms", request.TermsRequest{Signature: image, Consent: allConsent}},
		)
	}
	for _, step := range steps {
		rr = ts.request(http.MethodPost, base+step.path, step.body, "")
		require.Equal(t, http.StatusOK, rr.Code, "%s: %s", step.path, rr.Body.String())
	}

	rr = ts.request(http.MethodPost, base+"/complete", request.TeamNameRequest{TeamName: teamName}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[response.Registration](t, rr)
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/staff/login", request.StaffLoginRequest{PIN: staffPIN}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[response.StaffLogin](t, rr).SessionToken
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	ts.request(http.MethodPost, "/api/v1/registrations", nil, "")

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	health := decode[response.Health](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Registrations)
}

func TestRegistrationFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueIntn(48213 - 10000)

	done := ts.registerTeam(t, "Night Owls", "Ana", "Ben")

	assert.Equal(t, model.StepCompletion, done.Step)
	assert.False(t, done.SaveFailed)
	require.NotNil(t, done.Team)
	assert.Equal(t, model.SessionCode("nk1-48213"), done.Team.SessionCode)
	assert.Len(t, done.Team.Players, 2)

	stored, err := ts.app.Storage.GetTeam(context.Background(), "nk1-48213")
	require.NoError(t, err)
	assert.Equal(t, "Night Owls", stored.TeamName)
	assert.Equal(t, "10.0.0.7", stored.Players[0].SignatureMeta.Origin)
	assert.Equal(t, factory.TestBaseURL+"/api/v1/blobs/signatures/nk1-48213/player-2.png", stored.Players[1].Signature)
}

func TestRegistrationKioskVenue(t *testing.T) {
	ts := newTestServer(t)

	codes := map[string]model.SessionCode{}
	for _, storeID := range []string{"sb2", ""} {
		rr := ts.request(http.MethodPost, "/api/v1/registrations", request.CreateRegistrationRequest{StoreID: storeID}, "")
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		created := decode[response.Registration](t, rr)
		base := "/api/v1/registrations/" + created.ID

		ts.request(http.MethodPost, base+"/start", nil, "")
		rr = ts.request(http.MethodPost, base+"/game", request.SelectGameRequest{Game: model.DefaultGame}, "")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		codes[created.StoreID] = decode[response.Registration](t, rr).Team.SessionCode
	}

	assert.True(t, strings.HasPrefix(string(codes["sb2"]), "sb2-"), codes["sb2"])
	assert.True(t, strings.HasPrefix(string(codes["nk1"]), "nk1-"), codes["nk1"])

	rr := ts.request(http.MethodPost, "/api/v1/registrations", request.CreateRegistrationRequest{StoreID: "sb 2"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidStoreID, errorCode(t, rr))
}

func TestRegistrationValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/registrations", nil, "")
	base := "/api/v1/registrations/" + decode[response.Registration](t, rr).ID
	ts.request(http.MethodPost, base+"/start", nil, "")
	ts.request(http.MethodPost, base+"/game", request.SelectGameRequest{Game: model.DefaultGame}, "")
	ts.request(http.MethodPost, base+"/continue", nil, "")

	bad := details("Ana")
	bad.Email = "not-an-email"
	bad.Phone = "call me"
	rr = ts.request(http.MethodPost, base+"/details", bad, "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	body := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeValidationFailed, body.Error.Code)
	assert.Contains(t, body.Error.Fields, "email")
	assert.Contains(t, body.Error.Fields, "phone")

	rr = ts.request(http.MethodGet, base, nil, "")
	assert.Equal(t, model.StepUserDetails, decode[response.Registration](t, rr).Step)
}

func TestRegistrationRejectsOutOfOrderActions(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/registrations", nil, "")
	base := "/api/v1/registrations/" + decode[response.Registration](t, rr).ID

	rr = ts.request(http.MethodPost, base+"/confirm", nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInvalidTransition, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/registrations/nope/start", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeSessionNotFound, errorCode(t, rr))
}

func TestRegistrationTermsRequireConsent(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/registrations", nil, "")
	base := "/api/v1/registrations/" + decode[response.Registration](t, rr).ID
	ts.request(http.MethodPost, base+"/start", nil, "")
	ts.request(http.MethodPost, base+"/game", request.SelectGameRequest{Game: model.DefaultGame}, "")
	ts.request(http.MethodPost, base+"/continue", nil, "")
	ts.request(http.MethodPost, base+"/details", details("Ana"), "")
	ts.request(http.MethodPost, base+"/confirm", nil, "")

	rr = ts.request(http.MethodPost, base+"/terms", request.TermsRequest{Signature: image}, "")
	assert.Equal(t, apierr.CodeConsentRequired, errorCode(t, rr))

	rr = ts.request(http.MethodPost, base+"/terms", request.TermsRequest{Consent: allConsent}, "")
	assert.Equal(t, apierr.CodeSignatureRequired, errorCode(t, rr))
}

func TestInvalidJSONBody(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.request(http.MethodPost, "/api/v1/registrations", nil, "")
	id := decode[response.Registration](t, rr).ID

	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations/"+id+"/game", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rec))
}

func TestStaffRoutesRequireToken(t *testing.T) {
	ts := newAuthedTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/staff/sessions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/stores/nk1/history", nil, "staff_forged")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/staff/login", request.StaffLoginRequest{PIN: "0000"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
}

func TestStaffFlow(t *testing.T) {
	ts := newAuthedTestServer(t)
	ts.app.MockRandom.QueueIntn(48213 - 10000)
	ts.app.MockRandom.QueueString("token")
	ts.registerTeam(t, "Night Owls", "Ana", "Ben")
	token := ts.login(t)
	require.Equal(t, "staff_token", token)

	rr := ts.request(http.MethodPost, "/api/v1/staff/sessions", nil, token)
	require.Equal(t, http.StatusCreated, rr.Code)
	station := decode[response.Staff](t, rr)
	assert.Equal(t, model.StaffStepSessionInput, station.Step)
	assert.Len(t, station.Inventory, len(model.WeaponTypes))
	base := "/api/v1/staff/sessions/" + station.ID

	// Lookup miss keeps the station at session input
	rr = ts.request(http.MethodPost, base+"/team", request.LoadTeamRequest{SessionCode: "nk1-99999"}, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeTeamNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodPost, base+"/team", request.LoadTeamRequest{SessionCode: " nk1-48213 "}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, model.StaffStepPlayerSelection, decode[response.Staff](t, rr).Step)

	rr = ts.request(http.MethodPost, base+"/complete", nil, token)
	assert.Equal(t, apierr.CodeTeamNotReady, errorCode(t, rr))

	for _, p := range []struct {
		id     model.PlayerID
		weapon model.WeaponType
	}{{"player-1", model.WeaponSniperRifle}, {"player-2", model.WeaponSniperRifle}} {
		rr = ts.request(http.MethodPost, base+"/players/"+string(p.id)+"/photo", nil, token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, model.StaffStepPhotoCapture, decode[response.Staff](t, rr).Step)

		rr = ts.request(http.MethodPut, base+"/photo", request.PhotoRequest{Image: image}, token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		rr = ts.request(http.MethodPost, base+"/players/"+string(p.id)+"/weapon", nil, token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		rr = ts.request(http.MethodPut, base+"/weapon", request.WeaponRequest{Weapon: p.weapon}, token)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr = ts.request(http.MethodGet, base+"/weapons", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, w := range decode[response.Weapons](t, rr).Weapons {
		if w.Type == model.WeaponSniperRifle {
			assert.Zero(t, w.CurrentCount)
		}
	}

	rr = ts.request(http.MethodPost, base+"/complete", nil, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	done := decode[response.Staff](t, rr)
	assert.Equal(t, model.StaffStepCompletion, done.Step)
	assert.True(t, done.AllReady)

	rr = ts.request(http.MethodPost, base+"/next", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.StaffStepSessionInput, decode[response.Staff](t, rr).Step)

	stored, err := ts.app.Storage.GetTeam(context.Background(), "nk1-48213")
	require.NoError(t, err)
	assert.Equal(t, model.TeamStatusReadyForGameplay, stored.Status)
	assert.Equal(t, factory.TestBaseURL+"/api/v1/blobs/photos/nk1-48213/player-1.png", stored.Players[0].PhotoURL)
}

func TestStaffWeaponUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueIntn(2345)
	ts.registerTeam(t, "Trio", "Ana", "Ben", "Cat")

	rr := ts.request(http.MethodPost, "/api/v1/staff/sessions", nil, "")
	base := "/api/v1/staff/sessions/" + decode[response.Staff](t, rr).ID
	ts.request(http.MethodPost, base+"/team", request.LoadTeamRequest{SessionCode: "nk1-12345"}, "")

	for _, id := range []string{"player-1", "player-2"} {
		ts.request(http.MethodPost, base+"/players/"+id+"/weapon", nil, "")
		ts.request(http.MethodPut, base+"/weapon", request.WeaponRequest{Weapon: model.WeaponShotgun}, "")
	}

	ts.request(http.MethodPost, base+"/players/player-3/weapon", nil, "")
	rr = ts.request(http.MethodPut, base+"/weapon", request.WeaponRequest{Weapon: model.WeaponShotgun}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeWeaponUnavailable, errorCode(t, rr))

	rr = ts.request(http.MethodPut, base+"/weapon", request.WeaponRequest{Weapon: "laser"}, "")
	assert.Equal(t, apierr.CodeUnknownWeapon, errorCode(t, rr))

	rr = ts.request(http.MethodDelete, base+"/players/player-3/weapon", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.StaffStepPlayerSelection, decode[response.Staff](t, rr).Step)
}

func TestHistoryListFiltersByStore(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	for _, log := range []model.RegistrationLog{
		{ID: "a", SessionCode: "nk1-11111", StoreID: "nk1", CompletedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{ID: "b", SessionCode: "sb2-22222", StoreID: "sb2", CompletedAt: time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)},
		{ID: "c", SessionCode: "nk1-33333", StoreID: "nk1", CompletedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
	} {
		require.NoError(t, ts.app.Storage.AppendLog(ctx, log))
	}

	rr := ts.request(http.MethodGet, "/api/v1/stores/nk1/history", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	history := decode[response.History](t, rr)
	require.Len(t, history.Logs, 2)
	assert.Equal(t, "c", history.Logs[0].ID)
	assert.Equal(t, "a", history.Logs[1].ID)

	rr = ts.request(http.MethodGet, "/api/v1/stores/DEFAULT/history?limit=1", nil, "")
	history = decode[response.History](t, rr)
	require.Len(t, history.Logs, 1)
	assert.Equal(t, "c", history.Logs[0].ID)

	rr = ts.request(http.MethodGet, "/api/v1/stores/nk1/history?limit=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryStream(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/stores/nk1/history/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line, ok := strings.CutPrefix(scanner.Text(), "data: "); ok {
				events <- line
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case e, ok := <-events:
			require.True(t, ok, "stream closed")
			return e
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	assert.Equal(t, `{"status":"connected"}`, next())
	assert.Equal(t, "[]", next())

	require.NoError(t, ts.app.Storage.AppendLog(context.Background(), model.RegistrationLog{
		ID: "log-1", SessionCode: "nk1-12345", StoreID: "nk1", CompletedAt: time.Now().UTC(),
	}))
	assert.Contains(t, next(), `"session_code":"nk1-12345"`)
}

func TestBlobServing(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.app.Blobs.Upload(context.Background(), "photos/nk1-12345/player-1.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/blobs/photos/nk1-12345/player-1.png", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", rr.Body.String())

	rr = ts.request(http.MethodGet, "/api/v1/blobs/photos/nk1-12345/player-9.png", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBlobsRequireToken(t *testing.T) {
	ts := newAuthedTestServer(t)
	ts.app.MockRandom.QueueString("token")
	_, err := ts.app.Blobs.Upload(context.Background(), "photos/nk1-48213/player-1.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	path := "/api/v1/blobs/photos/nk1-48213/player-1.png"

	rr := ts.request(http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, path, nil, "staff_forged")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token := ts.login(t)
	rr = ts.request(http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "png-bytes", rr.Body.String())

	rr = ts.request(http.MethodGet, path+"?token="+token, nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestStaffCancelRejectsOtherPlayer(t *testing.T) {
	ts := newTestServer(t)
	ts.app.MockRandom.QueueIntn(2345)
	ts.registerTeam(t, "Duo", "Ana", "Ben")

	rr := ts.request(http.MethodPost, "/api/v1/staff/sessions", nil, "")
	base := "/api/v1/staff/sessions/" + decode[response.Staff](t, rr).ID
	ts.request(http.MethodPost, base+"/team", request.LoadTeamRequest{SessionCode: "nk1-12345"}, "")

	rr = ts.request(http.MethodPost, base+"/players/player-1/photo", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = ts.request(http.MethodDelete, base+"/players/player-2/photo", nil, "")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.request(http.MethodGet, base, nil, "")
	station := decode[response.Staff](t, rr)
	assert.Equal(t, model.StaffStepPhotoCapture, station.Step)
	assert.Equal(t, model.PlayerID("player-1"), station.SelectedPlayer)

	rr = ts.request(http.MethodDelete, base+"/players/player-1/photo", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.StaffStepPlayerSelection, decode[response.Staff](t, rr).Step)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.request(http.MethodGet, "/api/v1/unknown", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

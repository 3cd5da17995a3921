package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
	"github.com/vanshika/circuitcycle/backend/internal/events"
	"github.com/vanshika/circuitcycle/backend/internal/graph"
	"github.com/vanshika/circuitcycle/backend/internal/kiosk"
	"github.com/vanshika/circuitcycle/backend/internal/logging"
	"github.com/vanshika/circuitcycle/backend/internal/repository"
	"github.com/vanshika/circuitcycle/backend/internal/routing"
	"github.com/vanshika/circuitcycle/backend/internal/scanner"
	"github.com/vanshika/circuitcycle/backend/internal/seed"
	"github.com/vanshika/circuitcycle/backend/internal/service"
	"github.com/vanshika/circuitcycle/backend/internal/store"
	"github.com/vanshika/circuitcycle/backend/internal/tuning"
)

type testAPI struct {
	srv   *httptest.Server
	store *store.Store
	graph *graph.MemoryClient
}

func newTestAPI(t *testing.T, graphClient *graph.MemoryClient) *testAPI {
	t.Helper()
	logger := logging.Discard()

	fx, err := seed.Default()
	require.NoError(t, err)

	rules := tuning.Defaults()
	bus := events.NewBus()
	st := store.New(fx.User, fx.Bins, fx.Leaderboard, store.Options{CarbonPerKg: rules.CarbonPerKg, Publisher: bus})

	runner := kiosk.NewRunner(kiosk.RunnerConfig{
		Timing: kiosk.Timing{
			Tick:         5 * time.Millisecond,
			VoiceDelay:   10 * time.Millisecond,
			SuccessDwell: 50 * time.Millisecond,
		},
		Sink:      service.NewDepositRecorder(st),
		Publisher: bus,
		Logger:    logger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = runner.Run(ctx)
	}()

	sc := scanner.New(scanner.Config{
		Catalog: fx.Catalog,
		Picker:  func(int) int { return 0 },
		Logger:  logger,
	})

	deps := service.Dependencies{
		Store:     st,
		Kiosk:     runner,
		Scanner:   sc,
		Threshold: rules.PriorityThreshold,
		Logger:    logger,
	}
	var health HealthService = GraphHealthService{}
	if graphClient != nil {
		deps.Routes = repository.New(graphClient)
		health = GraphHealthService{Client: graphClient}
	}
	svc := service.NewRewardsService(deps)

	stream := NewEventStream(bus, svc.Snapshot, logger, nil)
	srv := httptest.NewServer(NewRouter(logger, RouterDependencies{
		Health: health,
		API:    NewAPIHandlers(logger, svc),
		Events: stream,
	}))
	t.Cleanup(func() {
		stream.Close()
		srv.Close()
		cancel()
		<-done
	})

	return &testAPI{srv: srv, store: st, graph: graphClient}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, nil)
	status, body := api.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", decode[map[string]any](t, body)["status"])

	degraded := newTestAPI(t, graph.NewMemoryClient().WithConnectivityError(errors.New("no route to host")))
	status, body = degraded.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", decode[map[string]any](t, body)["status"])
}

func TestHandleListBins(t *testing.T) {
	api := newTestAPI(t, nil)

	status, body := api.do(t, http.MethodGet, "/user/bins?filter=Battery", nil)
	require.Equal(t, http.StatusOK, status)
	payload := decode[struct {
		Filter string       `json:"filter"`
		Items  []domain.Bin `json:"items"`
	}](t, body)
	assert.Equal(t, "Battery", payload.Filter)
	require.Len(t, payload.Items, 3)
	for _, b := range payload.Items {
		assert.Contains(t, []domain.BinCategory{domain.BinBattery, domain.BinGeneral}, b.Category)
	}

	status, _ = api.do(t, http.MethodGet, "/user/bins?filter=plasma", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleActiveBin(t *testing.T) {
	api := newTestAPI(t, nil)

	status, body := api.do(t, http.MethodGet, "/user/active-bin", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decode[activeBinResponse](t, body).Bin)

	status, body = api.do(t, http.MethodPut, "/user/active-bin", map[string]any{"binId": "b_103"})
	require.Equal(t, http.StatusOK, status)
	selected := decode[activeBinResponse](t, body).Bin
	require.NotNil(t, selected)
	assert.Equal(t, "Wall St. Terminal", selected.Address)

	status, body = api.do(t, http.MethodPut, "/user/active-bin", map[string]any{"binId": nil})
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decode[activeBinResponse](t, body).Bin)
	assert.Nil(t, api.store.ActiveBinID())

	status, _ = api.do(t, http.MethodPut, "/user/active-bin", map[string]any{"bin": "b_103"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleCreditsAndCarbon(t *testing.T) {
	api := newTestAPI(t, nil)

	status, body := api.do(t, http.MethodPost, "/user/credits", map[string]any{"delta": 50})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1300, decode[domain.User](t, body).Credits)

	status, body = api.do(t, http.MethodPost, "/user/carbon", map[string]any{"delta": 0.8})
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 46.0, decode[domain.User](t, body).CarbonSaved, 1e-9)

	status, body = api.do(t, http.MethodGet, "/user/profile", nil)
	require.Equal(t, http.StatusOK, status)
	profile := decode[service.Profile](t, body)
	assert.Equal(t, 1300, profile.User.Credits)
	assert.Len(t, profile.Leaderboard, 4)
}

func TestHandleAdminRouteAndCollect(t *testing.T) {
	api := newTestAPI(t, nil)

	status, body := api.do(t, http.MethodGet, "/admin/route", nil)
	require.Equal(t, http.StatusOK, status)
	route := decode[struct {
		Stops []routing.Stop `json:"stops"`
	}](t, body)
	require.Len(t, route.Stops, 2)
	assert.Equal(t, "b_102", route.Stops[0].Bin.ID)

	status, body = api.do(t, http.MethodPost, "/admin/bins/b_102/collect", nil)
	require.Equal(t, http.StatusOK, status)
	bin := decode[domain.Bin](t, body)
	assert.Equal(t, 0, bin.FillLevel)
	assert.Equal(t, domain.BinActive, bin.Status)

	status, _ = api.do(t, http.MethodPost, "/admin/bins/b_999/collect", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = api.do(t, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	dash := decode[service.Dashboard](t, body)
	require.Len(t, dash.Route, 1)
	assert.Equal(t, "b_104", dash.Route[0].Bin.ID)
	assert.Equal(t, 5, dash.Fleet.Total)
}

func TestHandleDispatch(t *testing.T) {
	disabled := newTestAPI(t, nil)
	status, _ := disabled.do(t, http.MethodPost, "/admin/route/dispatch", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	mem := graph.NewMemoryClient()
	api := newTestAPI(t, mem)
	status, body := api.do(t, http.MethodPost, "/admin/route/dispatch", nil)
	require.Equal(t, http.StatusCreated, status)
	res := decode[service.DispatchResult](t, body)
	assert.NotEmpty(t, res.RouteID)
	assert.Len(t, res.Stops, 2)
	assert.Len(t, mem.Writes(), 2)
}

func TestHandleScan(t *testing.T) {
	api := newTestAPI(t, nil)

	status, body := api.do(t, http.MethodGet, "/user/scan", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, scanner.StepCamera, decode[scanner.View](t, body).Step)

	status, body = api.do(t, http.MethodPost, "/user/scan", nil)
	require.Equal(t, http.StatusOK, status)
	view := decode[scanner.View](t, body)
	assert.Equal(t, scanner.StepResult, view.Step)
	require.NotNil(t, view.Result)
	assert.Equal(t, "iPhone 11", view.Result.Name)

	status, body = api.do(t, http.MethodPost, "/user/scan/reset", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, scanner.StepCamera, decode[scanner.View](t, body).Step)
}

func TestHandleKioskDepositFlow(t *testing.T) {
	api := newTestAPI(t, nil)

	send := func(ev string) kiosk.Machine {
		status, body := api.do(t, http.MethodPost, "/kiosk/events", map[string]any{"event": ev})
		require.Equal(t, http.StatusOK, status, string(body))
		return decode[kiosk.Machine](t, body)
	}

	assert.Equal(t, kiosk.StateScanQR, send("start").State)
	assert.Equal(t, kiosk.StateDeposit, send("scan").State)

	require.Eventually(t, func() bool {
		_, body := api.do(t, http.MethodGet, "/kiosk", nil)
		m := decode[kiosk.Machine](t, body)
		return !m.Weighing && m.Weight >= 0.45
	}, 2*time.Second, 10*time.Millisecond)

	m := send("finish")
	assert.Equal(t, kiosk.StateSuccess, m.State)
	require.NotNil(t, m.LastDeposit)
	assert.Equal(t, 45, m.LastDeposit.Credits)

	assert.Equal(t, 1295, api.store.User().Credits)
	assert.InDelta(t, 45.425, api.store.User().CarbonSaved, 1e-9)

	status, body := api.do(t, http.MethodGet, "/user/transactions", nil)
	require.Equal(t, http.StatusOK, status)
	txs := decode[struct {
		Items []domain.Transaction `json:"items"`
	}](t, body)
	require.Len(t, txs.Items, 1)
	assert.Equal(t, 45, txs.Items[0].Credits)

	require.Eventually(t, func() bool {
		_, body := api.do(t, http.MethodGet, "/kiosk", nil)
		return decode[kiosk.Machine](t, body).State == kiosk.StateIdle
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleKioskRejectsInternalEvents(t *testing.T) {
	api := newTestAPI(t, nil)
	for _, ev := range []string{"tick", "dwell_elapsed", "dance"} {
		status, _ := api.do(t, http.MethodPost, "/kiosk/events", map[string]any{"event": ev})
		assert.Equal(t, http.StatusBadRequest, status, ev)
	}
}

func TestRouterNotFoundAndMethod(t *testing.T) {
	api := newTestAPI(t, nil)

	status, _ := api.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(t, http.MethodDelete, "/state", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestEventStream(t *testing.T) {
	api := newTestAPI(t, nil)

	wsURL := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	type frame struct {
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	read := func() frame {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		return decode[frame](t, msg)
	}

	first := read()
	require.Equal(t, "snapshot", first.Kind)
	snap := decode[domain.Snapshot](t, first.Payload)
	assert.Equal(t, 1250, snap.User.Credits)

	status, _ := api.do(t, http.MethodPost, "/user/credits", map[string]any{"delta": 10})
	require.Equal(t, http.StatusOK, status)

	next := read()
	assert.Equal(t, events.KindUserUpdated, next.Kind)
	assert.Equal(t, 1260, decode[domain.User](t, next.Payload).Credits)
}

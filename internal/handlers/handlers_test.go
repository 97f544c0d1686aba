package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mingunC/renovationPlatform-sub000/internal/auth"
	"github.com/mingunC/renovationPlatform-sub000/internal/handlers"
	"github.com/mingunC/renovationPlatform-sub000/internal/handlers/testutils"
	"github.com/mingunC/renovationPlatform-sub000/internal/marketplace"
	"github.com/mingunC/renovationPlatform-sub000/internal/memstore"
	"github.com/mingunC/renovationPlatform-sub000/models"
)

var (
	customer      = auth.Actor{ID: 100, Role: auth.RoleCustomer}
	otherCustomer = auth.Actor{ID: 101, Role: auth.RoleCustomer}
	contractor    = auth.Actor{ID: 201, Role: auth.RoleContractor}
	rival         = auth.Actor{ID: 202, Role: auth.RoleContractor}
	admin         = auth.Actor{ID: 1, Role: auth.RoleAdmin}

	testSecret = []byte("handlers-test-secret")
	clock      = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
)

const requestBody = `{
    "category": "kitchen",
    "propertyType": "detached",
    "budgetRange": "25k_50k",
    "timeline": "1_3_months",
    "postalCode": "M5V 2T6",
    "address": "1 King St W",
    "description": "Replace cabinets and counters",
    "photos": ["kitchen-1.jpg"]
}`

const bidBody = `{
    "laborCost": 1000,
    "materialCost": 500,
    "permitCost": 100,
    "disposalCost": 50,
    "totalAmount": 1,
    "timelineWeeks": 4,
    "startDate": "2026-03-20T00:00:00Z",
    "includedItems": ["cabinets", "counters"]
}`

func newHandler(t *testing.T) (*handlers.Handler, *marketplace.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := marketplace.NewService(store, nil, marketplace.Config{
		RevertOnZeroInterest:      true,
		RequireInspectionInterest: true,
	})
	svc.SetClock(func() time.Time { return clock })
	return handlers.NewHandler(svc, store), svc, store
}

func newRequest(method, target, body string, actor *auth.Actor, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if params != nil {
		req = testutils.WithChiURLParams(req, params)
	}
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	return req
}

func serve(fn http.HandlerFunc, req *http.Request) (*http.Response, string) {
	w := httptest.NewRecorder()
	fn(w, req)
	res := w.Result()
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	return res, string(body)
}

// seedBidding drives a request to BIDDING_OPEN with contractor and rival as
// participants.
func seedBidding(t *testing.T, svc *marketplace.Service) *models.RenovationRequest {
	t.Helper()
	ctx := context.Background()
	req, err := svc.CreateRequest(ctx, customer.ID, marketplace.NewRequest{
		Category:     models.CategoryKitchen,
		PropertyType: models.PropertyDetached,
		BudgetRange:  models.Budget25To50K,
		Timeline:     models.TimelineOneToThree,
		PostalCode:   "M5V 2T6",
		Address:      "1 King St W",
		Description:  "Replace cabinets",
	})
	require.NoError(t, err)
	_, err = svc.SetInterest(ctx, req.ID, contractor.ID, true)
	require.NoError(t, err)
	_, err = svc.SetInterest(ctx, req.ID, rival.ID, true)
	require.NoError(t, err)
	_, err = svc.ScheduleInspection(ctx, req.ID, clock.Add(24*time.Hour), "")
	require.NoError(t, err)
	req, err = svc.OpenBidding(ctx, req.ID, clock.Add(72*time.Hour))
	require.NoError(t, err)
	return req
}

func TestPingHandler(t *testing.T) {
	handler, _, _ := newHandler(t)

	res, body := serve(handler.PingHandler, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", body)
}

func TestStatusesHandler(t *testing.T) {
	handler, _, _ := newHandler(t)

	res, body := serve(handler.StatusesHandler, httptest.NewRequest(http.MethodGet, "/api/statuses", nil))

	require.Equal(t, http.StatusOK, res.StatusCode)
	var statuses []map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &statuses))
	require.Len(t, statuses, len(models.RequestStatuses))
	require.Equal(t, "OPEN", statuses[0]["status"])
	require.Equal(t, "Open for interest", statuses[0]["label"])
}

func TestCreateRequestHandler(t *testing.T) {
	handler, _, _ := newHandler(t)

	res, body := serve(handler.CreateRequestHandler, newRequest(http.MethodPost, "/api/requests", requestBody, &customer, nil))

	require.Equal(t, http.StatusCreated, res.StatusCode)
	var got models.RenovationRequest
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Equal(t, models.StatusOpen, got.Status)
	require.Equal(t, customer.ID, got.CustomerID)
	require.Equal(t, []string{"kitchen-1.jpg"}, []string(got.Photos))
}

func TestCreateRequestHandlerRejections(t *testing.T) {
	handler, _, _ := newHandler(t)

	tests := []struct {
		name   string
		actor  *auth.Actor
		body   string
		status int
	}{
		{"contractor cannot create", &contractor, requestBody, http.StatusForbidden},
		{"no actor", nil, requestBody, http.StatusUnauthorized},
		{"missing body", &customer, "", http.StatusBadRequest},
		{"malformed json", &customer, `{"category":`, http.StatusBadRequest},
		{"missing address", &customer, strings.Replace(requestBody, `"1 King St W"`, `""`, 1), http.StatusBadRequest},
		{"unknown category", &customer, strings.Replace(requestBody, `"kitchen"`, `"garage"`, 1), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := serve(handler.CreateRequestHandler, newRequest(http.MethodPost, "/api/requests", tt.body, tt.actor, nil))
			require.Equal(t, tt.status, res.StatusCode)
		})
	}
}

func TestListRequestsHandler(t *testing.T) {
	handler, svc, _ := newHandler(t)
	seedBidding(t, svc)
	_, err := svc.CreateRequest(context.Background(), otherCustomer.ID, marketplace.NewRequest{
		Category: models.CategoryRoofing, PropertyType: models.PropertyCondo, BudgetRange: models.BudgetUnder10K,
		Timeline: models.TimelineASAP, PostalCode: "H2X", Address: "2 Rue", Description: "Leak",
	})
	require.NoError(t, err)

	res, body := serve(handler.ListRequestsHandler, newRequest(http.MethodGet, "/api/requests?mine=true", "", &customer, nil))
	require.Equal(t, http.StatusOK, res.StatusCode)
	var mine []models.RenovationRequest
	require.NoError(t, json.Unmarshal([]byte(body), &mine))
	require.Len(t, mine, 1)
	require.Equal(t, customer.ID, mine[0].CustomerID)

	res, body = serve(handler.ListRequestsHandler, newRequest(http.MethodGet, "/api/requests?status=OPEN", "", &contractor, nil))
	require.Equal(t, http.StatusOK, res.StatusCode)
	var open []models.RenovationRequest
	require.NoError(t, json.Unmarshal([]byte(body), &open))
	require.Len(t, open, 1)
	require.Equal(t, otherCustomer.ID, open[0].CustomerID)

	res, _ = serve(handler.ListRequestsHandler, newRequest(http.MethodGet, "/api/requests?status=ARCHIVED", "", &contractor, nil))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = serve(handler.ListRequestsHandler, newRequest(http.MethodGet, "/api/requests?mine=true", "", &contractor, nil))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetRequestHandler(t *testing.T) {
	handler, svc, _ := newHandler(t)
	req := seedBidding(t, svc)

	res, body := serve(handler.GetRequestHandler, newRequest(http.MethodGet, "/api/requests/1", "", &contractor, map[string]string{"requestId": "1"}))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"BIDDING_OPEN"`)
	require.Equal(t, int64(1), req.ID)

	res, _ = serve(handler.GetRequestHandler, newRequest(http.MethodGet, "/api/requests/99", "", &contractor, map[string]string{"requestId": "99"}))
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = serve(handler.GetRequestHandler, newRequest(http.MethodGet, "/api/requests/abc", "", &contractor, map[string]string{"requestId": "abc"}))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSetInterestHandler(t *testing.T) {
	handler, svc, _ := newHandler(t)
	req, err := svc.CreateRequest(context.Background(), customer.ID, marketplace.NewRequest{
		Category: models.CategoryBathroom, PropertyType: models.PropertyTownhouse, BudgetRange: models.Budget10To25K,
		Timeline: models.TimelineFlexible, PostalCode: "V6B", Address: "3 Main", Description: "Tub",
	})
	require.NoError(t, err)
	params := map[string]string{"requestId": "1"}

	res, body := serve(handler.SetInterestHandler, newRequest(http.MethodPut, "/api/requests/1/interest", `{"willParticipate": true}`, &contractor, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"willParticipate":true`)

	got, err := svc.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusInspectionPending, got.Status)

	res, _ = serve(handler.SetInterestHandler, newRequest(http.MethodPut, "/api/requests/1/interest", `{}`, &contractor, params))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = serve(handler.SetInterestHandler, newRequest(http.MethodPut, "/api/requests/1/interest", `{"willParticipate": true}`, &customer, params))
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body = serve(handler.ListParticipantsHandler, newRequest(http.MethodGet, "/api/requests/1/participants", "", &customer, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"count":1`)
}

func TestSubmitBidHandlerIgnoresClientTotal(t *testing.T) {
	handler, svc, _ := newHandler(t)
	seedBidding(t, svc)

	res, body := serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", bidBody, &contractor, map[string]string{"requestId": "1"}))

	require.Equal(t, http.StatusOK, res.StatusCode)
	var bid models.Bid
	require.NoError(t, json.Unmarshal([]byte(body), &bid))
	require.InDelta(t, 1650, bid.TotalAmount, 0.0001)
	require.Equal(t, models.BidPending, bid.Status)
	require.Equal(t, contractor.ID, bid.ContractorID)
}

func TestSubmitBidHandlerRejections(t *testing.T) {
	handler, svc, _ := newHandler(t)
	seedBidding(t, svc)
	params := map[string]string{"requestId": "1"}
	outsider := auth.Actor{ID: 299, Role: auth.RoleContractor}

	tests := []struct {
		name   string
		actor  *auth.Actor
		body   string
		status int
	}{
		{"customer cannot bid", &customer, bidBody, http.StatusForbidden},
		{"not a participant", &outsider, bidBody, http.StatusForbidden},
		{"negative cost", &contractor, strings.Replace(bidBody, `"laborCost": 1000`, `"laborCost": -5`, 1), http.StatusBadRequest},
		{"cost too large", &contractor, strings.Replace(bidBody, `"laborCost": 1000`, `"laborCost": 1000000000000`, 1), http.StatusBadRequest},
		{"sub-cent cost", &contractor, strings.Replace(bidBody, `"laborCost": 1000`, `"laborCost": 1000.004`, 1), http.StatusBadRequest},
		{"missing cost", &contractor, strings.Replace(bidBody, `"permitCost": 100,`, ``, 1), http.StatusBadRequest},
		{"no included items", &contractor, strings.Replace(bidBody, `["cabinets", "counters"]`, `[]`, 1), http.StatusBadRequest},
		{"zero weeks", &contractor, strings.Replace(bidBody, `"timelineWeeks": 4`, `"timelineWeeks": 0`, 1), http.StatusBadRequest},
		{"start in the past", &contractor, strings.Replace(bidBody, `2026-03-20`, `2026-02-01`, 1), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", tt.body, tt.actor, params))
			require.Equal(t, tt.status, res.StatusCode)
		})
	}

	_, err := svc.CloseBidding(context.Background(), 1)
	require.NoError(t, err)
	res, _ := serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", bidBody, &contractor, params))
	require.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestListBidsHandlerSortByTotal(t *testing.T) {
	handler, svc, _ := newHandler(t)
	seedBidding(t, svc)
	params := map[string]string{"requestId": "1"}

	res, _ := serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", bidBody, &contractor, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	cheaper := strings.Replace(bidBody, `"laborCost": 1000`, `"laborCost": 200`, 1)
	res, _ = serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", cheaper, &rival, params))
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body := serve(handler.ListBidsHandler, newRequest(http.MethodGet, "/api/requests/1/bids?sort=total", "", &customer, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	var bids []models.Bid
	require.NoError(t, json.Unmarshal([]byte(body), &bids))
	require.Len(t, bids, 2)
	require.Equal(t, rival.ID, bids[0].ContractorID)
	require.InDelta(t, 850, bids[0].TotalAmount, 0.0001)

	res, _ = serve(handler.ListBidsHandler, newRequest(http.MethodGet, "/api/requests/1/bids?sort=price", "", &customer, params))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestListBidsHandlerVisibility(t *testing.T) {
	handler, svc, _ := newHandler(t)
	seedBidding(t, svc)
	params := map[string]string{"requestId": "1"}

	res, _ := serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", bidBody, &contractor, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", bidBody, &rival, params))
	require.Equal(t, http.StatusOK, res.StatusCode)

	list := func(actor *auth.Actor) (int, []models.Bid) {
		res, body := serve(handler.ListBidsHandler, newRequest(http.MethodGet, "/api/requests/1/bids", "", actor, params))
		var bids []models.Bid
		if res.StatusCode == http.StatusOK {
			require.NoError(t, json.Unmarshal([]byte(body), &bids))
		}
		return res.StatusCode, bids
	}

	status, bids := list(&customer)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, bids, 2)

	status, bids = list(&admin)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, bids, 2)

	status, bids = list(&rival)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, bids, 1)
	require.Equal(t, rival.ID, bids[0].ContractorID)

	outsider := auth.Actor{ID: 299, Role: auth.RoleContractor}
	status, bids = list(&outsider)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, bids)

	status, _ = list(&otherCustomer)
	require.Equal(t, http.StatusForbidden, status)
}

func TestWithdrawBidHandler(t *testing.T) {
	handler, svc, _ := newHandler(t)
	seedBidding(t, svc)

	res, _ := serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", bidBody, &contractor, map[string]string{"requestId": "1"}))
	require.Equal(t, http.StatusOK, res.StatusCode)
	params := map[string]string{"bidId": "1"}

	res, _ = serve(handler.WithdrawBidHandler, newRequest(http.MethodDelete, "/api/bids/1", "", &rival, params))
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := serve(handler.WithdrawBidHandler, newRequest(http.MethodDelete, "/api/bids/1", "", &contractor, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"WITHDRAWN"`)

	res, _ = serve(handler.WithdrawBidHandler, newRequest(http.MethodDelete, "/api/bids/1", "", &contractor, params))
	require.Equal(t, http.StatusConflict, res.StatusCode)

	res, body = serve(handler.GetUserBidsHandler, newRequest(http.MethodGet, "/api/bids/my", "", &contractor, nil))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"WITHDRAWN"`)
}

func TestAcceptBidHandler(t *testing.T) {
	handler, svc, _ := newHandler(t)
	seedBidding(t, svc)
	params := map[string]string{"requestId": "1"}

	res, _ := serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", bidBody, &contractor, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = serve(handler.SubmitBidHandler, newRequest(http.MethodPost, "/api/requests/1/bids", bidBody, &rival, params))
	require.Equal(t, http.StatusOK, res.StatusCode)

	bidParams := map[string]string{"bidId": "2"}
	res, _ = serve(handler.AcceptBidHandler, newRequest(http.MethodPut, "/api/bids/2/accept", "", &customer, bidParams))
	require.Equal(t, http.StatusConflict, res.StatusCode, "bidding still open")

	_, err := svc.CloseBidding(context.Background(), 1)
	require.NoError(t, err)

	res, _ = serve(handler.AcceptBidHandler, newRequest(http.MethodPut, "/api/bids/2/accept", "", &otherCustomer, bidParams))
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := serve(handler.AcceptBidHandler, newRequest(http.MethodPut, "/api/bids/2/accept", "", &customer, bidParams))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"CONTRACTOR_SELECTED"`)
	require.Contains(t, body, `"status":"ACCEPTED"`)

	bids, err := svc.ListBids(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.BidRejected, bids[0].Status)
}

func TestCancelHandlerOwnership(t *testing.T) {
	handler, svc, _ := newHandler(t)
	seedBidding(t, svc)
	params := map[string]string{"requestId": "1"}

	res, _ := serve(handler.CancelHandler, newRequest(http.MethodPut, "/api/requests/1/cancel", `{"reason":"moved"}`, &otherCustomer, params))
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = serve(handler.CancelHandler, newRequest(http.MethodPut, "/api/requests/1/cancel", `{"reason":"moved"}`, &contractor, params))
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := serve(handler.CancelHandler, newRequest(http.MethodPut, "/api/requests/1/cancel", `{"reason":"moved"}`, &customer, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"CLOSED"`)
	require.Contains(t, body, `"closeReason":"moved"`)

	res, _ = serve(handler.CancelHandler, newRequest(http.MethodPut, "/api/requests/1/cancel", "", &admin, params))
	require.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestAdminLifecycleHandlers(t *testing.T) {
	handler, svc, _ := newHandler(t)
	_, err := svc.CreateRequest(context.Background(), customer.ID, marketplace.NewRequest{
		Category: models.CategoryFlooring, PropertyType: models.PropertySemiDetached, BudgetRange: models.Budget10To25K,
		Timeline: models.TimelineWithinMonth, PostalCode: "K1A", Address: "4 Elm", Description: "Hardwood",
	})
	require.NoError(t, err)
	params := map[string]string{"requestId": "1"}

	res, _ := serve(handler.AdvanceHandler, newRequest(http.MethodPut, "/api/requests/1/advance", "", &customer, params))
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := serve(handler.AdvanceHandler, newRequest(http.MethodPut, "/api/requests/1/advance", "", &admin, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"INSPECTION_PENDING"`)

	res, _ = serve(handler.ScheduleInspectionHandler, newRequest(http.MethodPut, "/api/requests/1/inspection", `{"inspectionDate":"2026-03-01T09:00:00Z"}`, &admin, params))
	require.Equal(t, http.StatusBadRequest, res.StatusCode, "date in the past")

	res, body = serve(handler.ScheduleInspectionHandler, newRequest(http.MethodPut, "/api/requests/1/inspection", `{"inspectionDate":"2026-03-05T09:00:00Z","notes":"buzz 12"}`, &admin, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"INSPECTION_SCHEDULED"`)

	res, body = serve(handler.OpenBiddingHandler, newRequest(http.MethodPut, "/api/requests/1/bidding/open", "", &admin, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	var opened models.RenovationRequest
	require.NoError(t, json.Unmarshal([]byte(body), &opened))
	require.Equal(t, models.StatusBiddingOpen, opened.Status)
	require.True(t, opened.BiddingEndDate.Equal(clock.Add(7*24*time.Hour)))

	res, body = serve(handler.CloseBiddingHandler, newRequest(http.MethodPut, "/api/requests/1/bidding/close", "", &admin, params))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"BIDDING_CLOSED"`)

	res, _ = serve(handler.CompleteHandler, newRequest(http.MethodPut, "/api/requests/1/complete", "", &customer, params))
	require.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestAccountHandlers(t *testing.T) {
	handler, _, store := newHandler(t)

	res, _ := serve(handler.GetMyAccountHandler, newRequest(http.MethodGet, "/api/accounts/me", "", &contractor, nil))
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = serve(handler.SaveMyAccountHandler, newRequest(http.MethodPut, "/api/accounts/me", `{"email":"not-an-email"}`, &contractor, nil))
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body := serve(handler.SaveMyAccountHandler, newRequest(http.MethodPut, "/api/accounts/me", `{"email":"build@example.com","displayName":"Build Co"}`, &contractor, nil))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"role":"contractor"`)

	email, err := store.ContactEmail(context.Background(), contractor.ID)
	require.NoError(t, err)
	require.Equal(t, "build@example.com", email)
}

func TestRouterEndToEnd(t *testing.T) {
	handler, _, _ := newHandler(t)
	srv := httptest.NewServer(handlers.NewRouter(handler, testSecret))
	defer srv.Close()

	token := func(a auth.Actor) string {
		tok, err := auth.IssueToken(testSecret, a, time.Hour)
		require.NoError(t, err)
		return tok
	}
	call := func(method, path, body string, actor *auth.Actor) (*http.Response, string) {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, srv.URL+path, reader)
		require.NoError(t, err)
		if actor != nil {
			req.Header.Set("Authorization", "Bearer "+token(*actor))
		}
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		data, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		res.Body.Close()
		return res, string(data)
	}

	res, body := call(http.MethodGet, "/api/ping", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "ok", body)
	require.NotEmpty(t, res.Header.Get("X-Request-ID"))

	res, _ = call(http.MethodGet, "/api/requests", "", nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = call(http.MethodPost, "/api/requests", requestBody, &customer)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, _ = call(http.MethodPut, "/api/requests/1/interest", `{"willParticipate":true}`, &contractor)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = call(http.MethodPut, "/api/requests/1/inspection", `{"inspectionDate":"2026-03-04T09:00:00Z"}`, &admin)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = call(http.MethodPut, "/api/requests/1/bidding/open", `{"biddingEndDate":"2026-03-09T17:00:00Z"}`, &admin)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = call(http.MethodPost, "/api/requests/1/bids", bidBody, &contractor)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"totalAmount":1650`)

	res, _ = call(http.MethodPut, "/api/requests/1/bidding/close", "", &admin)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = call(http.MethodPut, "/api/bids/1/accept", "", &customer)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, body = call(http.MethodPut, "/api/requests/1/complete", "", &customer)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"COMPLETED"`)

	res, body = call(http.MethodGet, "/api/requests/1/bids", "", &contractor)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, `"status":"ACCEPTED"`)
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	app "github.com/taskchain/backend/internal/app"
	"github.com/taskchain/backend/internal/chain"
)

const testOwner = "0x7c5280557c44e10d0d63a1f241293d3f85a80e35"

type fakeGateway struct {
	status      chain.Status
	completions []string
	claimErr    error
}

func (f *fakeGateway) ReadStatus(context.Context, string) (chain.Status, error) {
	return f.status, nil
}

func (f *fakeGateway) RecordCompletion(_ context.Context, owner string) (chain.TxResult, error) {
	f.completions = append(f.completions, owner)
	return chain.TxResult{TxHash: "0xfeed", VMState: "HALT"}, nil
}

func (f *fakeGateway) ClaimMilestone(context.Context, string) (chain.TxResult, error) {
	if f.claimErr != nil {
		return chain.TxResult{}, f.claimErr
	}
	return chain.TxResult{TxHash: "0xc1a1", VMState: "HALT"}, nil
}

func (f *fakeGateway) MintBadge(context.Context, string, string) (chain.TxResult, error) {
	return chain.TxResult{TxHash: "0x817", VMState: "HALT"}, nil
}

type fakePayments struct {
	url string
	err error
}

func (f fakePayments) CreateSession(context.Context) (string, error) {
	return f.url, f.err
}

func newTestServer(t *testing.T, deps app.Dependencies) (*httptest.Server, *app.Application) {
	t.Helper()
	application, err := app.New(app.Stores{}, deps, nil)
	if err != nil {
		t.Fatalf("build application: %v", err)
	}
	srv := httptest.NewServer(NewRouter(application))
	t.Cleanup(srv.Close)
	return srv, application
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]json.RawMessage
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			decoded = nil
		}
	}
	return resp, decoded
}

func TestTodoCRUD(t *testing.T) {
	gw := &fakeGateway{}
	srv, _ := newTestServer(t, app.Dependencies{Gateway: gw})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/todos",
		`{"text":"write the readme","owner":"`+testOwner+`"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var id string
	if err := json.Unmarshal(body["id"], &id); err != nil || id == "" {
		t.Fatalf("create: expected generated id, got %v", body)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/todos/"+id, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/todos/"+id, `{"completed":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", resp.StatusCode)
	}
	var completed bool
	if err := json.Unmarshal(body["completed"], &completed); err != nil || !completed {
		t.Fatalf("patch: expected completed task, got %v", body)
	}
	if len(gw.completions) != 1 || gw.completions[0] != testOwner {
		t.Fatalf("expected one chain completion for owner, got %v", gw.completions)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/todos/"+id, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/todos/"+id, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestCreateTodoHonorsClientID(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{Gateway: &fakeGateway{}})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/todos",
		`{"id":"client-chosen-1","text":"keep my id","owner":"`+testOwner+`"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var id string
	if err := json.Unmarshal(body["id"], &id); err != nil || id != "client-chosen-1" {
		t.Fatalf("expected the supplied id echoed back, got %v", body)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/todos",
		`{"id":"client-chosen-1","text":"same id again","owner":"`+testOwner+`"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate id: expected 409, got %d", resp.StatusCode)
	}
}

func TestUpdateTodoOwnerNotPatchable(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{Gateway: &fakeGateway{}})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/todos",
		`{"text":"mine","owner":"`+testOwner+`"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var id string
	if err := json.Unmarshal(body["id"], &id); err != nil {
		t.Fatalf("decode id: %v", err)
	}

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/todos/"+id, `{"owner":"0x0000000000000000000000000000000000000000"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("owner patch: expected 400, got %d", resp.StatusCode)
	}
}

func TestListTodosFilters(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{Gateway: &fakeGateway{}})

	for _, body := range []string{
		`{"text":"open","owner":"` + testOwner + `"}`,
		`{"text":"done","completed":true,"owner":"` + testOwner + `"}`,
	} {
		if resp, _ := doJSON(t, http.MethodPost, srv.URL+"/todos", body); resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed create failed with %d", resp.StatusCode)
		}
	}

	resp, err := http.Get(srv.URL + "/todos?completed=true")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var todos []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&todos); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(todos) != 1 || todos[0]["text"] != "done" {
		t.Fatalf("expected only the completed task, got %v", todos)
	}

	resp2, _ := doJSON(t, http.MethodGet, srv.URL+"/todos?completed=banana", "")
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("bad filter: expected 400, got %d", resp2.StatusCode)
	}
}

func TestCreateTodoRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{Gateway: &fakeGateway{}})

	cases := []struct {
		name string
		body string
	}{
		{"blank text", `{"text":"   ","owner":"` + testOwner + `"}`},
		{"missing owner", `{"text":"no owner"}`},
		{"invalid owner", `{"text":"bad owner","owner":"not-an-address"}`},
		{"unknown field", `{"text":"x","owner":"` + testOwner + `","bogus":1}`},
	}
	for _, tc := range cases {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/todos", tc.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, resp.StatusCode)
		}
	}
}

func TestNFTStatus(t *testing.T) {
	gw := &fakeGateway{status: chain.Status{
		Address:           testOwner,
		CompletedTasks:    12,
		ClaimedMilestone:  5,
		TasksPerMilestone: 5,
		ClaimableCount:    1,
		IsClaimable:       true,
	}}
	srv, _ := newTestServer(t, app.Dependencies{Gateway: gw})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/nft-status/"+testOwner, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, key := range []string{
		"user_address",
		"completed_tasks_on_chain",
		"claimed_tasks_milestone_on_chain",
		"tasks_per_nft",
		"claimable_nfts",
		"is_claim_available",
	} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing key %q: %v", key, body)
		}
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/nft-status/junk", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad address: expected 400, got %d", resp.StatusCode)
	}
}

func TestClaimNFT(t *testing.T) {
	gw := &fakeGateway{}
	srv, _ := newTestServer(t, app.Dependencies{Gateway: gw})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/claim-nft/"+testOwner, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var txHash string
	if err := json.Unmarshal(body["transaction_hash"], &txHash); err != nil || txHash != "0xc1a1" {
		t.Errorf("expected transaction_hash 0xc1a1, got %v", body)
	}
	if _, ok := body["message"]; !ok {
		t.Errorf("expected message field, got %v", body)
	}
}

func TestClaimNFTNothingToClaim(t *testing.T) {
	gw := &fakeGateway{claimErr: chain.ErrNothingToClaim}
	srv, _ := newTestServer(t, app.Dependencies{Gateway: gw})

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/claim-nft/"+testOwner, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestClaimNFTChainFailure(t *testing.T) {
	gw := &fakeGateway{claimErr: errors.New("node down")}
	srv, _ := newTestServer(t, app.Dependencies{Gateway: gw})

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/claim-nft/"+testOwner, "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestMintNFTDisabled(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{Gateway: &fakeGateway{}})

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/mint-nft",
		`{"recipient_address":"`+testOwner+`","token_uri":"ipfs://badge"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestMintNFTEnabled(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{
		Gateway:         &fakeGateway{},
		AllowDirectMint: true,
	})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/mint-nft",
		`{"recipient_address":"`+testOwner+`","token_uri":"ipfs://badge"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var txHash string
	if err := json.Unmarshal(body["transaction_hash"], &txHash); err != nil || txHash != "0x817" {
		t.Errorf("expected transaction_hash, got %v", body)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{
		Gateway:  &fakeGateway{},
		Payments: fakePayments{url: "https://checkout.example/session"},
	})

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/create-checkout-session", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var url string
	if err := json.Unmarshal(body["url"], &url); err != nil || url != "https://checkout.example/session" {
		t.Errorf("expected session url, got %v", body)
	}
}

func TestCreateCheckoutSessionFailure(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{
		Gateway:  &fakeGateway{},
		Payments: fakePayments{err: errors.New("stripe unreachable")},
	})

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/create-checkout-session", "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{Gateway: &fakeGateway{}})

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/todos", `{}`)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, app.Dependencies{Gateway: &fakeGateway{}})

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status string
	if err := json.Unmarshal(body["status"], &status); err != nil || status != "ok" {
		t.Errorf("expected status ok, got %v", body)
	}
}

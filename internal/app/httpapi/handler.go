// Package httpapi exposes the application services over REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/taskchain/backend/internal/app"
	core "github.com/taskchain/backend/internal/app/core/service"
	"github.com/taskchain/backend/internal/app/domain/task"
	"github.com/taskchain/backend/internal/app/metrics"
	"github.com/taskchain/backend/internal/chain"
)

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewRouter returns a mux exposing the REST API. Additional middleware is
// attached through mux.Router.Use by the caller.
func NewRouter(application *app.Application) *mux.Router {
	h := &handler{app: application}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/todos", h.listTodos).Methods(http.MethodGet)
	r.HandleFunc("/todos", h.createTodo).Methods(http.MethodPost)
	r.HandleFunc("/todos/{id}", h.getTodo).Methods(http.MethodGet)
	r.HandleFunc("/todos/{id}", h.updateTodo).Methods(http.MethodPatch, http.MethodPut)
	r.HandleFunc("/todos/{id}", h.deleteTodo).Methods(http.MethodDelete)

	r.HandleFunc("/create-checkout-session", h.createCheckoutSession).Methods(http.MethodPost)

	r.HandleFunc("/nft-status/{address}", h.nftStatus).Methods(http.MethodGet)
	r.HandleFunc("/claim-nft/{address}", h.claimNFT).Methods(http.MethodPost)
	r.HandleFunc("/mint-nft", h.mintNFT).Methods(http.MethodPost)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listTodos(w http.ResponseWriter, r *http.Request) {
	filter := task.Filter{Owner: strings.TrimSpace(r.URL.Query().Get("owner"))}
	if raw := r.URL.Query().Get("completed"); raw != "" {
		switch strings.ToLower(raw) {
		case "true":
			v := true
			filter.Completed = &v
		case "false":
			v := false
			filter.Completed = &v
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("completed must be true or false"))
			return
		}
	}

	todos, err := h.app.Tasks.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if todos == nil {
		todos = []task.Task{}
	}
	writeJSON(w, http.StatusOK, todos)
}

func (h *handler) createTodo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Completed bool   `json:"completed"`
		Owner     string `json:"owner"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Tasks.Create(r.Context(), task.Task{
		ID:        payload.ID,
		Text:      payload.Text,
		Completed: payload.Completed,
		Owner:     payload.Owner,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) getTodo(w http.ResponseWriter, r *http.Request) {
	todo, err := h.app.Tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

func (h *handler) updateTodo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text      *string `json:"text"`
		Completed *bool   `json:"completed"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Tasks.Update(r.Context(), mux.Vars(r)["id"], task.Patch{
		Text:      payload.Text,
		Completed: payload.Completed,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Tasks.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	if h.app.Payments == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("payment provider not configured"))
		return
	}

	url, err := h.app.Payments.CreateSession(r.Context())
	metrics.RecordCheckoutSession(err == nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *handler) nftStatus(w http.ResponseWriter, r *http.Request) {
	if h.app.Achievements == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("chain gateway not configured"))
		return
	}

	status, err := h.app.Achievements.Status(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handler) claimNFT(w http.ResponseWriter, r *http.Request) {
	if h.app.Achievements == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("chain gateway not configured"))
		return
	}

	result, err := h.app.Achievements.Claim(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		if errors.Is(err, chain.ErrNothingToClaim) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":          "Achievement NFT claimed successfully",
		"transaction_hash": result.TxHash,
	})
}

func (h *handler) mintNFT(w http.ResponseWriter, r *http.Request) {
	if h.app.Achievements == nil {
		writeError(w, http.StatusNotImplemented, fmt.Errorf("chain gateway not configured"))
		return
	}

	var payload struct {
		RecipientAddress string `json:"recipient_address"`
		TokenURI         string `json:"token_uri"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.app.Achievements.Mint(r.Context(), payload.RecipientAddress, payload.TokenURI)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":          "NFT minted successfully",
		"transaction_hash": result.TxHash,
	})
}

// writeServiceError maps the service error taxonomy to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err)
	case core.IsNotFound(err):
		writeError(w, http.StatusNotFound, err)
	case core.IsForbidden(err):
		writeError(w, http.StatusForbidden, err)
	case core.IsConflict(err):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

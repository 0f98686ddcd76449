// Package api pkg/api/server.go exposes the REST surface of the fleet
// monitoring backend.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/R0eii/Tucan/pkg/auth"
	"github.com/R0eii/Tucan/pkg/db"
	"github.com/R0eii/Tucan/pkg/devices"
	"github.com/R0eii/Tucan/pkg/models"
)

// APIServer is the stateless HTTP layer over the device and auth services.
type APIServer struct {
	router      *mux.Router
	devices     DeviceService
	auth        AuthService
	authLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewAPIServer wires the routes. The auth endpoints share a small token
// bucket so password guessing can't hammer bcrypt.
func NewAPIServer(deviceSvc DeviceService, authSvc AuthService, logger *zap.Logger) *APIServer {
	s := &APIServer{
		router:      mux.NewRouter(),
		devices:     deviceSvc,
		auth:        authSvc,
		authLimiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:      logger,
	}
	s.setupRoutes()

	return s
}

// Router returns the configured handler, for tests and embedding.
func (s *APIServer) Router() http.Handler {
	return s.router
}

func (s *APIServer) setupRoutes() {
	s.router.Use(commonMiddleware)
	s.router.Use(requestLogger(s.logger))

	// Health check
	s.router.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Tucan API is running..."))
	}).Methods("GET")

	d := s.router.PathPrefix("/api/devices").Subrouter()

	// Fixed paths before {id} so mux doesn't swallow them.
	d.HandleFunc("/refresh-simulation", s.refreshSimulation).Methods("POST")
	d.HandleFunc("/stats/companies", s.getCompanyStats).Methods("GET")
	d.HandleFunc("/companies/{oldName}", s.renameCompany).Methods("PUT")
	d.HandleFunc("/companies/{name}", s.deleteCompany).Methods("DELETE")

	d.HandleFunc("", s.getDevices).Methods("GET")
	d.HandleFunc("", s.createDevice).Methods("POST")
	d.HandleFunc("/{id}", s.updateDevice).Methods("PUT")
	d.HandleFunc("/{id}", s.deleteDevice).Methods("DELETE")
	d.HandleFunc("/{id}/restart", s.restartDevice).Methods("POST")
	d.HandleFunc("/{id}/retry", s.retryDevice).Methods("POST")

	a := s.router.PathPrefix("/api/auth").Subrouter()
	a.HandleFunc("/register", s.rateLimited(s.register)).Methods("POST")
	a.HandleFunc("/login", s.rateLimited(s.login)).Methods("POST")
	a.HandleFunc("/me", s.requireAuth(s.getMe)).Methods("GET")
	a.HandleFunc("/updatedetails", s.requireAuth(s.updateDetails)).Methods("PUT")
}

func (s *APIServer) Start(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

// --- device handlers ---

func (s *APIServer) getDevices(w http.ResponseWriter, r *http.Request) {
	filter := models.DeviceFilter{
		Company: r.URL.Query().Get("company"),
		Search:  r.URL.Query().Get("search"),
	}

	list, err := s.devices.List(filter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if list == nil {
		list = []models.Device{}
	}

	s.writeJSON(w, http.StatusOK, list)
}

func (s *APIServer) createDevice(w http.ResponseWriter, r *http.Request) {
	var input devices.CreateDeviceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if input.Name == "" || input.IP == "" || input.Company == "" {
		s.writeMessage(w, http.StatusBadRequest, "name, ip and company are required")
		return
	}

	device, err := s.devices.Create(input)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, device)
}

func (s *APIServer) updateDevice(w http.ResponseWriter, r *http.Request) {
	var patch models.DevicePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	device, err := s.devices.Update(mux.Vars(r)["id"], patch)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, device)
}

func (s *APIServer) deleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.devices.Delete(mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeMessage(w, http.StatusOK, "Device deleted")
}

func (s *APIServer) restartDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.devices.Restart(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, device)
}

func (s *APIServer) retryDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.devices.Retry(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, device)
}

func (s *APIServer) refreshSimulation(w http.ResponseWriter, _ *http.Request) {
	count, err := s.devices.RunSimulation()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, simulationResponse{
		Message: "Simulation complete",
		Count:   count,
	})
}

func (s *APIServer) getCompanyStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.devices.CompanyStats()
	if err != nil {
		s.writeError(w, err)
		return
	}

	if stats == nil {
		stats = []models.CompanyStats{}
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *APIServer) renameCompany(w http.ResponseWriter, r *http.Request) {
	var req renameCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewName == "" {
		s.writeMessage(w, http.StatusBadRequest, "newName is required")
		return
	}

	if err := s.devices.RenameCompany(mux.Vars(r)["oldName"], req.NewName); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeMessage(w, http.StatusOK, "Company renamed successfully")
}

func (s *APIServer) deleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.devices.DeleteCompany(mux.Vars(r)["name"]); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeMessage(w, http.StatusOK, "Company and all associated devices deleted")
}

// --- auth handlers ---

func (s *APIServer) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authLimiter.Allow() {
			s.writeMessage(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next(w, r)
	}
}

func (s *APIServer) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.auth.Register(req.Name, req.Email, req.Password); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeMessage(w, http.StatusCreated, "User created successfully")
}

func (s *APIServer) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (s *APIServer) getMe(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(claimsKey).(*auth.Claims)

	user, err := s.auth.Me(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *APIServer) updateDetails(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(claimsKey).(*auth.Claims)

	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.auth.UpdateProfile(claims.UserID, req.Name, req.Email)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

// --- response helpers ---

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *APIServer) writeMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps service failures to HTTP statuses per the error taxonomy:
// NotFound 404, Conflict 409, BadRequest 400, Unauthorized 401, rest 500.
func (s *APIServer) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrDeviceNotFound):
		s.writeMessage(w, http.StatusNotFound, "Device not found")
	case errors.Is(err, db.ErrUserNotFound):
		s.writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, auth.ErrEmailTaken):
		s.writeMessage(w, http.StatusConflict, "Email already in use")
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken):
		s.writeMessage(w, http.StatusUnauthorized, "Not authorized")
	case errors.Is(err, auth.ErrMissingFields):
		s.writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.writeMessage(w, http.StatusInternalServerError, "Server Error")
	}
}

// Package server exposes the stored, scored listings over a small read-only
// JSON API for ad hoc filtering and visualization. It owns no decision
// logic; every record it serves was produced by the analysis pipeline.
package server

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"propfinder/models"
	"propfinder/storage"
	"propfinder/utils"
)

// Server serves the presentation API.
type Server struct {
	addr             string
	store            storage.ListingStore
	defaultThreshold int
	logger           *utils.Logger
}

// New creates a Server backed by the given store. defaultThreshold is the
// minimum score for /api/opportunities when the caller does not pass one.
func New(addr string, store storage.ListingStore, defaultThreshold int, logger *utils.Logger) *Server {
	return &Server{
		addr:             addr,
		store:            store,
		defaultThreshold: defaultThreshold,
		logger:           logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/listings", s.handleListings).Methods(http.MethodGet)
	r.HandleFunc("/api/opportunities", s.handleOpportunities).Methods(http.MethodGet)
	return r
}

// Run blocks serving the API.
func (s *Server) Run() error {
	s.logger.Info("[server] Listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListings returns the full scored sequence, unfiltered.
func (s *Server) handleListings(w http.ResponseWriter, _ *http.Request) {
	listings, err := s.store.FetchAll()
	if err != nil {
		s.logger.Error("[server] Fetch listings: %v", err)
		http.Error(w, "failed to fetch listings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

// handleOpportunities returns active listings at or above min_score, sorted
// descending by score.
func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	minScore := s.defaultThreshold
	if v := r.URL.Query().Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "min_score must be an integer", http.StatusBadRequest)
			return
		}
		minScore = n
	}

	listings, err := s.store.FetchAll()
	if err != nil {
		s.logger.Error("[server] Fetch listings: %v", err)
		http.Error(w, "failed to fetch listings", http.StatusInternalServerError)
		return
	}

	var out []models.Listing
	for _, l := range listings {
		if l.Status == models.StatusActive && l.OpportunityScore >= minScore {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OpportunityScore > out[j].OpportunityScore
	})

	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

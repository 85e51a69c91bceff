package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/mfachrulrazy/smartgotrack-app/internal/auth"
	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
)

type sessionResponse struct {
	Profile   auth.Profile    `json:"profile"`
	Purchases []core.Purchase `json:"purchases"`
	Items     []core.Item     `json:"items"`
	Stores    []core.Store    `json:"stores"`
}

// handleSession returns everything the client needs to boot: the signed-in
// profile, the purchase history and both catalogs, fetched concurrently.
// ?refresh=1 discards the cached session so the history is reloaded from
// the store.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	profile, ok := auth.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Sign-in required.")
		return
	}

	if r.URL.Query().Get("refresh") == "1" {
		s.sessions.Drop(profile.ID)
	}

	var resp sessionResponse
	resp.Profile = profile

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		sess := s.sessions.Get(ctx, profile.ID)
		resp.Purchases = sess.Snapshot()
		return nil
	})
	g.Go(func() error {
		items, stores, err := s.store.Catalog(ctx)
		if err != nil {
			return err
		}
		resp.Items = items
		resp.Stores = stores
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("session load failed", log.FieldUserID, profile.ID, log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "Failed to load session data")
		return
	}

	if resp.Purchases == nil {
		resp.Purchases = []core.Purchase{}
	}
	respondJSON(w, http.StatusOK, resp)
}

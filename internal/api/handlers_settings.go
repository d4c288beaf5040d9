package api

import (
	"net/http"

	"github.com/dgallion1/contextcat/internal/settings"
	"github.com/dgallion1/contextcat/internal/vault"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Get()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handlePutSettings replaces the stored settings. Omitted fields take their
// default values.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	st := settings.Default()
	if err := decodeBody(w, r, &st); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	st.SelectedFolder = vault.Clean(st.SelectedFolder)
	if err := s.settings.Put(st); err != nil {
		s.log.Error("save settings failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleFolders lists the folders a folder-tree selection can point at.
func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := vault.Folders(r.Context(), s.vault)
	if err != nil {
		writeError(w, err)
		return
	}
	if folders == nil {
		folders = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

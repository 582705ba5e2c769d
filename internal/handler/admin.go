package handler

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"

	"github.com/sanketk/quizdeck/internal/bank"
	"github.com/sanketk/quizdeck/internal/i18n"
)

const adminPasswordHeader = "X-Admin-Password"

// requireAdmin guards the admin surface. The configured value is a bcrypt
// hash; the request presents the plain password in a header. An empty
// configuration disables the surface entirely.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.config.AdminPassword == "" {
			respondError(w, http.StatusForbidden, "admin surface disabled")
			return
		}
		password := r.Header.Get(adminPasswordHeader)
		if err := bcrypt.CompareHashAndPassword([]byte(h.config.AdminPassword), []byte(password)); err != nil {
			slog.Warn("admin auth failed", "path", r.URL.Path)
			respondError(w, http.StatusUnauthorized, i18n.T(r.Context(), "Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleUploadBank replaces the question bank with an uploaded workbook. The
// upload is validated by loading it before it replaces the old file; live
// sessions keep the questions they already sampled.
func (h *Handler) handleUploadBank(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "file too large")
		return
	}

	file, _, err := r.FormFile("bank_file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	tmp := h.config.BankPath + ".upload"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		slog.Error("writing uploaded bank", "path", tmp, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	b, err := bank.Load(tmp)
	if err != nil {
		os.Remove(tmp)
		respondError(w, http.StatusBadRequest, "invalid bank workbook: "+err.Error())
		return
	}
	if err := os.Rename(tmp, h.config.BankPath); err != nil {
		os.Remove(tmp)
		slog.Error("replacing bank file", "path", h.config.BankPath, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	h.setBank(b)
	slog.Info("question bank replaced", "path", h.config.BankPath, "questions", b.Len())
	respondJSON(w, http.StatusOK, UploadResponse{
		Message:   i18n.Td(r.Context(), "BankReplaced", map[string]any{"Count": b.Len()}),
		Questions: b.Len(),
	})
}

// handleDownloadResults serves the raw results file (workbook or database)
// as a download.
func (h *Handler) handleDownloadResults(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.config.ResultsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			respondError(w, http.StatusNotFound, "no results recorded yet")
			return
		}
		slog.Error("opening results file", "path", h.config.ResultsPath, "error", err)
		respondError(w, http.StatusInternalServerError, "opening results failed")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Error("stat results file", "path", h.config.ResultsPath, "error", err)
		respondError(w, http.StatusInternalServerError, "opening results failed")
		return
	}

	name := filepath.Base(h.config.ResultsPath)
	if filepath.Ext(name) == ".xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	http.ServeContent(w, r, name, info.ModTime(), f)
}

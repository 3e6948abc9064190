package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// downloadHandler handles GET and POST /file/{filename}.
//
// The request walks a small state machine: resolve the filename to a
// record (404 when absent), then the password gate. An unprotected file
// streams immediately. A protected file prompts on GET or when no
// password was submitted, re-prompts with an error flag on a mismatch
// (HTTP 200 either way), and streams on a match. The gate runs on every
// request; there is no session shortcut.
func (s *Server) downloadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Take the escaped path and decode exactly once. r.URL.Path is
		// already decoded, so trimming that would decode a second time
		// and break names containing a literal percent sign.
		raw := strings.TrimPrefix(r.URL.EscapedPath(), "/file/")
		if raw == "" || strings.Contains(raw, "/") {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		filename, err := url.PathUnescape(raw)
		if err != nil {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}

		rec, err := s.store.FindByName(r.Context(), filename)
		if err != nil {
			if !errors.Is(err, ErrFileNotFound) {
				// Fail closed: a store error during lookup reads as absent.
				rid := RequestIDFromContext(r.Context())
				log.Printf("rid=%s msg=lookup_failed name=%q err=%v", rid, filename, err)
			}
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}

		if rec.Protected() {
			password := ""
			if r.Method == http.MethodPost {
				password = r.FormValue("password")
			}
			if password == "" {
				GetMetrics().RecordPasswordPrompt()
				renderPasswordPage(w, rec.OriginalName, false)
				return
			}
			if !verifyPassword(password, *rec.PasswordHash) {
				GetMetrics().RecordPasswordRejection()
				renderPasswordPage(w, rec.OriginalName, true)
				return
			}
		}

		s.serveBlob(w, r, rec)
	})
}

// serveBlob increments the download counter and streams the stored bytes.
// The increment is fire-and-forget on purpose: it runs detached from the
// request context so a client disconnect cannot cancel it, and a failure
// is logged but never affects the response. The accepted race is that a
// cancelled download may still count.
func (s *Server) serveBlob(w http.ResponseWriter, r *http.Request, rec *FileRecord) {
	go func(name string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.IncrementDownloadCount(ctx, name); err != nil {
			log.Printf("msg=download_count_increment_failed name=%q err=%v", name, err)
		}
	}(rec.OriginalName)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	obj, info, err := s.blobs.Get(ctx, rec.StoragePath)
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=blob_get_failed key=%s err=%v", rid, rec.StoragePath, err)
		GetMetrics().RecordDownloadError()
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = obj.Close() }()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}

	// Encourage save-as with the original filename.
	escaped := strings.ReplaceAll(rec.OriginalName, `"`, `\"`)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, escaped))

	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, obj)

	GetMetrics().RecordDownload()
}

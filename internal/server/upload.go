package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxPasswordBytes bounds the password form field so a hostile client
// cannot feed bcrypt arbitrarily large input.
const maxPasswordBytes = 1024

// uploadHandler handles POST /upload: a multipart form with a "file" part
// and an optional "password" field.
//
// Ordering matters: the blob is written to object storage first, and the
// metadata record is only inserted once the bytes are durable. A link is
// never returned for a record that was not created. On failure the client
// gets a 500 (or 413 when the size limit trips) and no link.
func (s *Server) uploadHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if s.cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
		}

		mr, err := r.MultipartReader()
		if err != nil {
			http.Error(w, "bad multipart", http.StatusBadRequest)
			return
		}

		// The body limit can trip anywhere a part is read, not just
		// while streaming the file. Surface 413 from every read path.
		badBody := func(err error) {
			if isBodyTooLarge(err) {
				http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "bad multipart", http.StatusBadRequest)
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		// Walk the parts in order. The file part is streamed straight to
		// object storage when it appears; the password field may come
		// before or after it, so keep reading to the end.
		var (
			password   string
			origName   string
			storedPath string
		)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				badBody(err)
				return
			}

			switch part.FormName() {
			case "password":
				v, err := io.ReadAll(io.LimitReader(part, maxPasswordBytes))
				_ = part.Close()
				if err != nil {
					badBody(err)
					return
				}
				password = strings.TrimSpace(string(v))

			case "file":
				if storedPath != "" {
					_ = part.Close()
					continue // only the first file part counts
				}
				origName = part.FileName()
				if origName == "" {
					_ = part.Close()
					http.Error(w, "missing filename", http.StatusBadRequest)
					return
				}

				key := "uploads/" + uuid.New().String()
				contentType := part.Header.Get("Content-Type")
				err := s.blobs.Put(ctx, key, part, contentType)
				_ = part.Close()
				if err != nil {
					rid := RequestIDFromContext(r.Context())
					log.Printf("rid=%s msg=blob_put_failed err=%v", rid, err)
					GetMetrics().RecordUploadError()

					if isBodyTooLarge(err) {
						http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
						return
					}
					http.Error(w, "server error", http.StatusInternalServerError)
					return
				}
				storedPath = key

			default:
				_ = part.Close()
			}
		}

		if storedPath == "" {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}

		passwordHash, err := hashPassword(password)
		if err != nil {
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=password_hash_failed err=%v", rid, err)
			GetMetrics().RecordUploadError()
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		id, err := s.store.Create(ctx, storedPath, origName, passwordHash)
		if err != nil {
			// The blob is orphaned at this point; accepted, since nothing
			// references it and no link is handed out.
			rid := RequestIDFromContext(r.Context())
			log.Printf("rid=%s msg=record_insert_failed name=%q err=%v", rid, origName, err)
			GetMetrics().RecordUploadError()
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		GetMetrics().RecordUpload()
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=file_uploaded id=%s name=%q protected=%v", rid, id, origName, passwordHash != nil)

		renderIndexPage(w, shareLink(r, s.cfg.BaseURL, origName))
	})
}

// isBodyTooLarge reports whether err came from the MaxBytesReader limit.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

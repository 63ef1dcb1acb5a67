/*
Package handler provides the media upload and fetch endpoints.

Uploads land in the S3 bucket and get a media row; clients then reference
the returned media id over the WebSocket to attach it to a message. Fetches
redirect to a servable URL, presigning one when the object is private.
*/
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"shambachat/internal/app/chat"
	"shambachat/internal/app/store"
	"shambachat/internal/app/user"
	"shambachat/internal/pkg/errs"
	"shambachat/internal/pkg/logx"
	"shambachat/internal/pkg/randx"
	"shambachat/internal/pkg/resp"
)

// formFieldFile is the multipart field carrying the upload.
const formFieldFile = "file"

// bearerPrincipal authenticates an API request from its Authorization
// header. The second return is the error response already rendered, so
// callers just return on false.
func bearerPrincipal(w http.ResponseWriter, r *http.Request, deps *AppDeps) (user.Principal, bool) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	principal, authErr := deps.Sessions.Verifier.Verify(r.Context(), raw)
	if authErr != nil {
		resp.RespondError(w, r, errs.New(errs.CodeAuthFailed, authErr.ClientMessage()))
		return user.Principal{}, false
	}

	return principal, true
}

// HandleUploadMedia creates an HTTP HandlerFunc that accepts a multipart
// image upload for a thread, stores the object, and persists its media row.
func HandleUploadMedia(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := bearerPrincipal(w, r, deps)
		if !ok {
			return
		}

		// Slack for the multipart framing around the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, chat.MaxUploadSize+64*1024)

		if err := r.ParseMultipartForm(chat.MaxUploadSize); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				resp.RespondError(w, r, errs.New(errs.CodeEntityTooLarge, chat.MaxUploadSizeMB))
				return
			}
			resp.RespondError(w, r, errs.New(errs.CodeFormParseFailed))
			return
		}

		threadID, err := strconv.ParseInt(r.FormValue("thread_id"), 10, 64)
		if err != nil || threadID <= 0 {
			resp.RespondError(w, r, errs.New(errs.CodeInvalidParams))
			return
		}

		if !deps.Sessions.Authorizer.Authorize(r.Context(), principal, threadID) {
			resp.RespondError(w, r, errs.New(errs.CodeForbidden))
			return
		}

		file, header, err := r.FormFile(formFieldFile)
		if err != nil {
			resp.RespondError(w, r, errs.New(errs.CodeInvalidParams))
			return
		}
		defer file.Close()

		if customErr := chat.ValidateFileSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if customErr := chat.ValidateFileType(header.Filename, mimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		objectKey := randx.ObjectKey(threadID, header.Filename)

		location, err := deps.Storage.Upload(r.Context(), objectKey, mimeType, file)
		if err != nil {
			logx.Error(err, "Media upload to storage failed", "object_key", objectKey)
			resp.RespondError(w, r, errs.New(errs.CodeStorageFailed))
			return
		}

		media, err := deps.Store.CreateMedia(r.Context(), store.CreateMediaParams{
			UploaderID: principal.ID,
			ObjectKey:  objectKey,
			FileName:   header.Filename,
			MimeType:   mimeType,
			Size:       header.Size,
		})
		if err != nil {
			logx.Error(err, "Failed to persist media row", "object_key", objectKey)
			resp.RespondError(w, r, errs.New(errs.CodePersistFailed))
			return
		}

		logx.Info("Media uploaded",
			"media_id", media.ID,
			"thread_id", threadID,
			"uploader_id", principal.ID,
			"size", media.Size,
		)

		data := map[string]any{
			"media_id":  media.ID,
			"file_name": media.FileName,
			"mime_type": media.MimeType,
			"size":      media.Size,
			"url":       location,
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleGetMedia redirects an authenticated client to a servable URL for
// the media object, presigning a time-limited download when the stored row
// has no public address.
func HandleGetMedia(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := bearerPrincipal(w, r, deps); !ok {
			return
		}

		mediaID := chi.URLParam(r, "mediaID")
		if mediaID == "" {
			resp.RespondError(w, r, errs.New(errs.CodeInvalidParams))
			return
		}

		media, err := deps.Store.FindMediaByID(r.Context(), mediaID)
		if err != nil {
			logx.Error(err, "Media lookup failed", "media_id", mediaID)
			resp.RespondError(w, r, errs.New(errs.CodePersistFailed))
			return
		}
		if media == nil {
			resp.RespondError(w, r, errs.New(errs.CodeMediaNotFound))
			return
		}

		if media.URL != "" {
			http.Redirect(w, r, media.URL, http.StatusFound)
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), media.ObjectKey, chat.MediaURLDuration)
		if err != nil {
			logx.Error(err, "Failed to presign media download", "media_id", mediaID)
			resp.RespondError(w, r, errs.New(errs.CodeStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}

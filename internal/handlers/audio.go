package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"voicechat-service/internal/storage"
)

// AudioHandler manages reference audio uploads and serves stored blobs.
type AudioHandler struct {
	svc   ReferenceAudioService
	blobs storage.BlobStore
}

func NewAudioHandler(svc ReferenceAudioService, blobs storage.BlobStore) *AudioHandler {
	return &AudioHandler{svc: svc, blobs: blobs}
}

// UploadReference stores the caller's voice sample from the audio_file field.
func (h *AudioHandler) UploadReference(c *gin.Context) {
	header, err := c.FormFile("audio_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio_file is required"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read audio_file"})
		return
	}
	defer f.Close()

	user, err := h.svc.Upload(c.Request.Context(), c.GetInt("userID"), uploadFromHeader(header, f))
	if err != nil {
		respondError(c, err, "could not store reference audio")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reference audio uploaded", "audio_url": user.ReferenceAudio()})
}

func (h *AudioHandler) DeleteReference(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.GetInt("userID")); err != nil {
		respondError(c, err, "could not delete reference audio")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reference audio deleted"})
}

// Serve streams a blob addressed by its public URL path.
func (h *AudioHandler) Serve(c *gin.Context) {
	loc, err := storage.ParseURL(c.Param("path"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audio not found"})
		return
	}

	data, err := h.blobs.Read(c.Request.Context(), loc)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "audio not found"})
		return
	}
	if err != nil {
		respondError(c, err, "failed to read audio")
		return
	}

	contentType := mime.TypeByExtension(path.Ext(loc.Name))
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	c.Data(http.StatusOK, contentType, data)
}

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleUploadDocument(c *gin.Context) {
	filename, contentType, data, ok := s.readUpload(c, s.cfg.Upload.MaxDocumentBytes)
	if !ok {
		return
	}
	doc, err := s.files.UploadDocument(c.Request.Context(), currentUser(c).ID, filename, contentType, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleUploadImage(c *gin.Context) {
	filename, contentType, data, ok := s.readUpload(c, s.cfg.Upload.MaxImageBytes)
	if !ok {
		return
	}
	img, err := s.files.UploadImage(c.Request.Context(), currentUser(c).ID, filename, contentType, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

// readUpload pulls the multipart "file" part, bounded at maxBytes plus one
// so oversized uploads are detected without buffering them whole.
func (s *Server) readUpload(c *gin.Context, maxBytes int64) (filename, contentType string, data []byte, ok bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return "", "", nil, false
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return "", "", nil, false
	}
	defer f.Close()

	data, err = io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return "", "", nil, false
	}
	if int64(len(data)) > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file exceeds the %d MiB limit", maxBytes>>20)})
		return "", "", nil, false
	}
	return fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, true
}

func (s *Server) handleListDocuments(c *gin.Context) {
	var courseID *int64
	if raw := c.Query("course_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course_id"})
			return
		}
		courseID = &id
	}
	docs, err := s.files.ListDocuments(c.Request.Context(), currentUser(c).ID, courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) handleListImages(c *gin.Context) {
	images, err := s.files.ListImages(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (s *Server) handleDownloadDocument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := s.files.GetDocument(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	s.serveFile(c, doc.Filename, doc.ContentType, doc.Data)
}

func (s *Server) handleDownloadImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	img, err := s.files.GetImage(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	s.serveFile(c, img.Filename, img.ContentType, img.Data)
}

// serveFile writes the payload with single-range support: 206 with
// Content-Range on a valid partial request, 416 on an unsatisfiable one,
// plain 200 otherwise.
func (s *Server) serveFile(c *gin.Context, filename, contentType string, data []byte) {
	size := int64(len(data))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))

	rangeHeader := c.GetHeader("Range")
	if rangeHeader != "" {
		r, err := parseRange(rangeHeader, size)
		if errors.Is(err, errUnsatisfiableRange) {
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
			c.Status(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		if err == nil {
			c.Header("Content-Range", r.contentRange(size))
			c.Header("Content-Length", strconv.FormatInt(r.length(), 10))
			c.Data(http.StatusPartialContent, contentType, data[r.start:r.end+1])
			return
		}
		// Malformed header: fall through to a full response.
	}
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.files.DeleteDocument(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (s *Server) handleDeleteImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.files.DeleteImage(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

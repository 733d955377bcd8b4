package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qrstudio/qrstudio/internal/generator"
	"github.com/qrstudio/qrstudio/internal/preview"
	"github.com/qrstudio/qrstudio/internal/session"
)

// Index renders the form page.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Levels":        generator.Labels(),
		"DefaultLevel":  h.Cfg.DefaultLevel,
		"DefaultSize":   h.Cfg.DefaultModuleSize,
		"MinModuleSize": generator.MinModuleSize,
		"MaxModuleSize": generator.MaxModuleSize,
		"Status":        h.Session.Status(),
	})
}

// Generate reads the form fields, encodes a QR code, stores it as the
// session's current image and answers with the fixed-size preview PNG.
// A failed generate leaves any previously generated image in place.
func (h *Handler) Generate(c *gin.Context) {
	req := generator.Request{
		Text:       c.PostForm("text"),
		Level:      generator.ParseLevel(c.DefaultPostForm("level", h.Cfg.DefaultLevel)),
		Foreground: c.PostForm("fg"),
		Background: c.PostForm("bg"),
	}
	if v := c.PostForm("moduleSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "module size must be a number"})
			return
		}
		req.ModuleSize = n
	} else {
		req.ModuleSize = h.Cfg.DefaultModuleSize
	}

	img, err := h.Service.Generate(req)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, generator.ErrEmptyInput) || errors.Is(err, generator.ErrInvalidParameter) {
			// Bad input is only reported back; it changes no state,
			// status line included.
			status = http.StatusBadRequest
		} else {
			h.Session.SetStatus("Error generating QR code")
		}
		h.Log.Warn("generate failed", "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.Session.SetGenerated(img)
	h.Log.Info("generated QR code", "dimension", img.Dimension, "level", img.Level.String(), "module_size", img.ModuleSize)

	data, err := preview.PNG(img)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// Image streams the current QR code. size=preview (default) yields the
// 250x250 nearest-neighbor rescale; size=original streams the canonical
// full-resolution bytes. format=jpeg re-encodes the original as JPEG.
func (h *Handler) Image(c *gin.Context) {
	img := h.Session.Current()
	if img == nil {
		c.JSON(http.StatusConflict, gin.H{"error": session.ErrNothingGenerated.Error()})
		return
	}

	size := c.DefaultQuery("size", "preview")
	if size == "preview" {
		data, err := preview.PNG(img)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "image/png", data)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "png"))
	if format == "jpg" || format == "jpeg" {
		data, err := session.EncodeJPEG(img.Bitmap)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="qrcode.jpg"`)
		c.Data(http.StatusOK, "image/jpeg", data)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="qrcode.png"`)
	c.Data(http.StatusOK, "image/png", img.PNG)
}

// Save writes the current image into the configured output directory.
// The filename field names the destination file; its extension picks the
// format unless an explicit format field is given.
func (h *Handler) Save(c *gin.Context) {
	name := filepath.Base(strings.TrimSpace(c.DefaultPostForm("filename", "qrcode.png")))
	if name == "." || name == string(filepath.Separator) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
		return
	}

	// Precondition first: a save with nothing generated performs no I/O,
	// not even creating the output directory.
	if h.Session.State() == session.StateIdle {
		c.JSON(http.StatusConflict, gin.H{"error": session.ErrNothingGenerated.Error()})
		return
	}

	if err := h.Cfg.EnsureOutputDir(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	path, err := h.Session.SaveTo(filepath.Join(h.Cfg.OutputDir, name), c.PostForm("format"))
	if err != nil {
		if errors.Is(err, session.ErrNothingGenerated) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.Log.Warn("save failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	h.Log.Info("saved QR code", "path", path)
	c.JSON(http.StatusOK, gin.H{"path": path, "status": h.Session.Status()})
}

// Status reports the session state and status line.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":  h.Session.State().String(),
		"status": h.Session.Status(),
	})
}

package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"welcomepdf/internal/metrics"
	"welcomepdf/internal/pipeline"
	"welcomepdf/web"
)

// Response texts. Pipeline failures never leak detail to the client.
const (
	MsgRequired = "All fields are required!"
	MsgFailed   = "An error occurred while generating the PDF."
	MsgTooLarge = "Request body too large."

	attachment = `attachment; filename="form.pdf"`
)

// Generator produces the document for a submission.
type Generator interface {
	Generate(sub pipeline.Submission) (pipeline.Result, error)
}

type Handler struct {
	gen     Generator
	metrics *metrics.Pipeline
}

func New(gen Generator, m *metrics.Pipeline) *Handler {
	return &Handler{gen: gen, metrics: m}
}

// Register mounts the form, generation and health routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/", h.Form)
	r.GET("/healthz", h.Healthz)
	r.POST("/generate-pdf", h.GeneratePDF)
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ---------- Form ----------

func (h *Handler) Form(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.FormHTML)
}

// ---------- Generate PDF ----------

type submitRequest struct {
	Name     string `form:"name" json:"name" binding:"required"`
	Age      string `form:"age" json:"age" binding:"required"`
	Semester string `form:"sem" json:"sem"`
	Roll     string `form:"roll" json:"roll"`
	Email    string `form:"email" json:"email"`
}

// GeneratePDF handles a form submission and answers with the PDF as a download.
// Accepts multipart, urlencoded or JSON bodies with fields: name, age, sem,
// roll, email. Only multipart bodies can carry the optional photo file.
func (h *Handler) GeneratePDF(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		if tooLarge(err) {
			c.String(http.StatusRequestEntityTooLarge, MsgTooLarge)
			return
		}
		log.Printf("validation error: %v", err)
		h.metrics.ObserveRejection()
		c.String(http.StatusBadRequest, MsgRequired)
		return
	}

	photo, err := readPhoto(c)
	if err != nil {
		if tooLarge(err) {
			c.String(http.StatusRequestEntityTooLarge, MsgTooLarge)
			return
		}
		log.Printf("read photo failed: %v", err)
		c.String(http.StatusInternalServerError, MsgFailed)
		return
	}

	res, err := h.gen.Generate(pipeline.Submission{
		Name:     req.Name,
		Age:      req.Age,
		Semester: req.Semester,
		Roll:     req.Roll,
		Email:    req.Email,
		Photo:    photo,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrValidation) {
			c.String(http.StatusBadRequest, MsgRequired)
			return
		}
		stage := "unknown"
		var se *pipeline.StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		log.Printf("generate pdf failed stage=%s: %v", stage, err)
		c.String(http.StatusInternalServerError, MsgFailed)
		return
	}

	log.Printf("generated document id=%s photo=%t bytes=%d", res.ID, len(photo) > 0, len(res.PDF))
	c.Header("Content-Disposition", attachment)
	c.Data(http.StatusOK, "application/pdf", res.PDF)
}

// readPhoto returns the uploaded photo bytes, or nil when no photo was sent.
func readPhoto(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

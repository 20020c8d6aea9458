package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"welcomepdf/internal/document"
	"welcomepdf/internal/identifier"
	"welcomepdf/internal/metrics"
)

// ErrValidation is returned when a required submission field is missing.
var ErrValidation = errors.New("required field missing")

// Stage names used in errors, logs and metrics.
const (
	StageGenerate = "generate"
	StageEncode   = "encode"
	StageAssemble = "assemble"
)

// Submission is the decoded form input for one request.
type Submission struct {
	Name     string
	Age      string
	Semester string
	Roll     string
	Email    string
	// Photo holds JPEG bytes; nil or empty means no photo was attached.
	Photo []byte
}

// Validate checks the presence of the required fields.
func (s Submission) Validate() error {
	var missing []string
	if s.Name == "" {
		missing = append(missing, "name")
	}
	if s.Age == "" {
		missing = append(missing, "age")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Fields returns the printable part of the submission.
func (s Submission) Fields() document.Fields {
	return document.Fields{
		Name:     s.Name,
		Age:      s.Age,
		Semester: s.Semester,
		Roll:     s.Roll,
		Email:    s.Email,
	}
}

// HasPhoto reports whether a photo was attached.
func (s Submission) HasPhoto() bool { return len(s.Photo) > 0 }

// Result is everything produced for one submission. All of it lives in memory.
type Result struct {
	ID        string
	CodeImage []byte
	PDF       []byte
}

// StageError records which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// CodeEncoder turns a payload into a scannable raster image.
type CodeEncoder interface {
	Encode(payload string) ([]byte, error)
}

// DocumentAssembler lays out and serializes the final document.
type DocumentAssembler interface {
	Assemble(fields document.Fields, codeImage, photo []byte) ([]byte, error)
}

// Service runs identifier generation, code encoding and document assembly in order.
type Service struct {
	newID     identifier.Generator
	encoder   CodeEncoder
	assembler DocumentAssembler
	metrics   *metrics.Pipeline
}

// NewService wires the pipeline stages. A nil generator falls back to identifier.New.
func NewService(newID identifier.Generator, encoder CodeEncoder, assembler DocumentAssembler, m *metrics.Pipeline) *Service {
	if newID == nil {
		newID = identifier.New
	}
	return &Service{newID: newID, encoder: encoder, assembler: assembler, metrics: m}
}

// Generate validates sub and produces its document. The first failing stage
// aborts the run; no partial result is returned.
func (s *Service) Generate(sub Submission) (Result, error) {
	if err := sub.Validate(); err != nil {
		s.metrics.ObserveRejection()
		return Result{}, err
	}
	start := time.Now()

	id := s.newID()
	if id == "" {
		return Result{}, s.fail(StageGenerate, errors.New("empty identifier"))
	}

	code, err := s.encoder.Encode(id)
	if err != nil {
		return Result{}, s.fail(StageEncode, err)
	}

	pdf, err := s.assembler.Assemble(sub.Fields(), code, sub.Photo)
	if err != nil {
		return Result{}, s.fail(StageAssemble, err)
	}

	s.metrics.ObserveSuccess(time.Since(start), sub.HasPhoto())
	return Result{ID: id, CodeImage: code, PDF: pdf}, nil
}

func (s *Service) fail(stage string, err error) error {
	s.metrics.ObserveFailure(stage)
	return &StageError{Stage: stage, Err: err}
}

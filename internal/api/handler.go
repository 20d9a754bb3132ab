package api

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aukolov/bank-statement-parser/internal/batch"
	"github.com/aukolov/bank-statement-parser/internal/continuity"
	"github.com/aukolov/bank-statement-parser/internal/logger"
	"github.com/aukolov/bank-statement-parser/internal/metrics"
	"github.com/aukolov/bank-statement-parser/internal/models"
	"github.com/aukolov/bank-statement-parser/internal/parser"
	"github.com/aukolov/bank-statement-parser/internal/writer"
)

const requestIDKey = "requestId"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success    bool               `json:"success"`
	RequestID  string             `json:"requestId,omitempty"`
	Error      string             `json:"error,omitempty"`
	Kind       string             `json:"kind,omitempty"`
	Bank       string             `json:"bank,omitempty"`
	Statements []models.Statement `json:"statements,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
	CSV        string             `json:"csv,omitempty"`
	Count      int                `json:"count"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	// Processor converts uploads. Its Bank and Logger are overridden per
	// request.
	Processor *batch.Processor
	Metrics   *metrics.Metrics
	Version   string
}

// NewApp builds the fiber application with all routes registered.
func NewApp(h *Handler, log zerolog.Logger, maxUploadMB int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bank-statement-parser",
		BodyLimit:             maxUploadMB << 20,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestLogger(log))

	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.Metrics.Handler()))
	}
	return app
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": h.Version,
	})
}

// HandleConvert converts one uploaded PDF. Form fields: file (required), bank
// (optional, auto-detected when empty) and format (csv or xlsx).
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	log := logger.FromContext(c.UserContext())

	fh, err := c.FormFile("file")
	if err != nil {
		return h.reject(c, fiber.StatusBadRequest, "bad_request", "No file uploaded. Use form field 'file'.")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return h.reject(c, fiber.StatusBadRequest, "bad_request", "Only PDF files are supported.")
	}

	var bank models.BankType
	if b := c.FormValue("bank"); b != "" {
		if bank, err = parser.ParseBankType(b); err != nil {
			return h.reject(c, fiber.StatusBadRequest, parser.Kind(err), err.Error())
		}
	}
	format := strings.ToLower(c.FormValue("format", "csv"))
	if format != "csv" && format != "xlsx" {
		return h.reject(c, fiber.StatusBadRequest, "bad_request", "Unknown output format "+format+". Use csv or xlsx.")
	}

	dir, err := os.MkdirTemp("", "statement-*")
	if err != nil {
		return h.fail(c, fiber.StatusInternalServerError, "internal", "Failed to create temp dir.")
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "upload.pdf")
	if err := c.SaveFile(fh, path); err != nil {
		return h.fail(c, fiber.StatusInternalServerError, "internal", "Failed to save uploaded file.")
	}

	var p batch.Processor
	if h.Processor != nil {
		p = *h.Processor
	}
	p.Bank = bank
	p.Logger = logger.WithFields(log, map[string]interface{}{
		"upload": fh.Filename,
		"size":   fh.Size,
	})
	statements, err := p.ProcessFile(c.UserContext(), path)
	if err != nil {
		kind := batch.Kind(err)
		var fe *batch.FileError
		if errors.As(err, &fe) {
			err = fe.Err
		}
		log.Warn().Err(err).Str("kind", kind).Msg("Conversion failed")
		return h.fail(c, statusFor(kind), kind, err.Error())
	}

	var txns []models.Transaction
	for _, s := range statements {
		txns = append(txns, s.Transactions...)
	}

	if format == "xlsx" {
		var buf bytes.Buffer
		if err := (&writer.XLSXWriter{}).Write(&buf, txns); err != nil {
			return h.fail(c, fiber.StatusInternalServerError, "internal", "XLSX generation failed: "+err.Error())
		}
		c.Attachment(strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename)) + ".xlsx")
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		return c.Send(buf.Bytes())
	}

	var csvBuf bytes.Buffer
	if err := (&writer.CSVWriter{}).Write(&csvBuf, txns); err != nil {
		return h.fail(c, fiber.StatusInternalServerError, "internal", "CSV generation failed: "+err.Error())
	}

	var warnings []string
	for _, w := range continuity.Validate(statements) {
		warnings = append(warnings, w.String())
	}

	resp := ConvertResponse{
		Success:    true,
		RequestID:  requestID(c),
		Bank:       string(bank),
		Statements: statements,
		Warnings:   warnings,
		CSV:        csvBuf.String(),
		Count:      len(txns),
	}
	if len(statements) > 0 {
		resp.Bank = string(statements[0].Bank)
	}
	return c.JSON(resp)
}

// reject answers a request refused before conversion started. Those never
// reach the processor, so they are counted here.
func (h *Handler) reject(c *fiber.Ctx, status int, kind, msg string) error {
	h.Metrics.ObserveFailure(kind)
	return h.fail(c, status, kind, msg)
}

func (h *Handler) fail(c *fiber.Ctx, status int, kind, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success:   false,
		RequestID: requestID(c),
		Error:     msg,
		Kind:      kind,
	})
}

func statusFor(kind string) int {
	switch kind {
	case "bad_request", "unsupported_bank", "no_files_found":
		return fiber.StatusBadRequest
	case "format_mismatch", "malformed_value", "unexpected_amount_position",
		"balance_mismatch", "unknown_bank", "extraction_failed":
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// requestLogger tags every request with an id and puts a request-scoped
// logger into the user context.
func requestLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		id := uuid.NewString()
		c.Locals(requestIDKey, id)
		c.Set("X-Request-ID", id)

		l := base.With().Str("requestId", id).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext(), l))

		err := c.Next()
		l.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			AnErr("error", err).
			Msg("Request")
		return err
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	kind := "internal"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			kind = "bad_request"
		}
	}
	return c.Status(code).JSON(ConvertResponse{
		Success:   false,
		RequestID: requestID(c),
		Error:     err.Error(),
		Kind:      kind,
	})
}

package controllers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chatico/mapper/internal/pkg/audit"
	"github.com/chatico/mapper/internal/pkg/webhook"
)

// RoutingResponse is the structured reply for a POSTed webhook delivery.
type RoutingResponse struct {
	Status           string  `json:"status"`
	Message          string  `json:"message"`
	RoutedTo         *string `json:"routed_to"`
	ProcessingTimeMS *int64  `json:"processing_time_ms"`
	ErrorDetails     *string `json:"error_details"`
	WebhookID        string  `json:"webhook_id"`
}

// WebhookController serves the Instagram webhook endpoint: the GET
// subscription handshake and the POST delivery pipeline.
type WebhookController struct {
	verifyToken string
	processor   *webhook.Processor
}

func NewWebhookController(verifyToken string, processor *webhook.Processor) *WebhookController {
	return &WebhookController{verifyToken: verifyToken, processor: processor}
}

// HandleVerify implements the hub.challenge subscription handshake.
func (wc *WebhookController) HandleVerify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	challenge := c.Query("hub.challenge")
	token := c.Query("hub.verify_token")

	if mode == "" || challenge == "" || token == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "unprocessable_entity",
			"message": "hub.mode, hub.challenge and hub.verify_token are required",
		})
	}

	if mode != "subscribe" || token != wc.verifyToken {
		log.Print("Invalid webhook verify token")
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "Invalid verify token",
		})
	}

	log.Print("Webhook verification successful")
	return c.Status(fiber.StatusOK).SendString(challenge)
}

// HandleReceive processes one webhook delivery. The signature middleware
// already authenticated the raw body by the time this runs.
func (wc *WebhookController) HandleReceive(c *fiber.Ctx) error {
	start := time.Now()

	traceID := strings.TrimSpace(c.Get("X-Trace-ID"))
	if traceID == "" {
		traceID = audit.NewCorrelationID()
	}

	// Copy the body: fiber reuses its buffers after the handler returns,
	// and these exact bytes flow into every forwarded request.
	rawBody := append([]byte(nil), c.Body()...)

	var payload webhook.Payload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "unprocessable_entity",
			"message": "Malformed webhook payload",
		})
	}

	log.Printf("Received webhook | trace_id=%s | entries=%d", traceID, len(payload.Entry))

	result := wc.processor.Process(c.UserContext(), &payload, rawBody, requestHeaders(c))

	elapsed := time.Since(start).Milliseconds()
	if result.Success {
		log.Printf("Webhook processed successfully | processed=%d | skipped=%d",
			result.CommentsProcessed, result.CommentsSkipped)
		response := RoutingResponse{
			Status:           "success",
			Message:          successMessage(result.CommentsProcessed),
			ProcessingTimeMS: &elapsed,
			WebhookID:        traceID,
		}
		if result.RoutedTo != "" {
			routedTo := result.RoutedTo
			response.RoutedTo = &routedTo
		}
		return c.Status(fiber.StatusOK).JSON(response)
	}

	errorDetails := strings.Join(result.Errors, "; ")
	if errorDetails == "" {
		errorDetails = "Unknown error"
	}
	log.Printf("Webhook processing failed | errors=%s", errorDetails)
	return c.Status(fiber.StatusOK).JSON(RoutingResponse{
		Status:       "failed",
		Message:      "Webhook processing failed",
		ErrorDetails: &errorDetails,
		WebhookID:    traceID,
	})
}

// HandleHealth is a quick liveness check for the webhook endpoint.
func (wc *WebhookController) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "endpoint": "webhook"})
}

func successMessage(processed int) string {
	if processed == 1 {
		return "Processed 1 comment"
	}
	return fmt.Sprintf("Processed %d comments", processed)
}

func requestHeaders(c *fiber.Ctx) http.Header {
	headers := http.Header{}
	for name, values := range c.GetReqHeaders() {
		for _, value := range values {
			headers.Add(name, value)
		}
	}
	return headers
}

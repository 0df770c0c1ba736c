package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/chatico/mapper/app/models"
	"github.com/chatico/mapper/app/repository"
	"github.com/chatico/mapper/internal/pkg/audit"
	"github.com/chatico/mapper/internal/pkg/directory"
	"github.com/chatico/mapper/internal/pkg/forwarder"
	"github.com/chatico/mapper/internal/pkg/mediaowner"
)

// OwnerResolver maps a media ID to its owning account.
type OwnerResolver interface {
	Resolve(ctx context.Context, mediaID string) (*mediaowner.Owner, error)
}

// SubscriberDirectory looks up the worker app registered for an account.
type SubscriberDirectory interface {
	Lookup(ctx context.Context, accountID string) (*models.WorkerApp, error)
}

// Result aggregates the outcome of one webhook delivery. A delivery
// succeeds when at least one comment processed, or when the payload
// carried no comments at all.
type Result struct {
	Success           bool
	CommentsProcessed int
	CommentsSkipped   int
	Errors            []string
	// RoutedTo is the worker app name of the last successful forward.
	RoutedTo string
}

// Processor runs the resolution-and-forwarding pipeline for one inbound
// delivery. Comments are processed sequentially: one comment's failure is
// recorded and never aborts its siblings.
type Processor struct {
	comments  repository.CommentRepository
	resolver  OwnerResolver
	directory SubscriberDirectory
	forwarder forwarder.Forwarder
	auditLog  *audit.Logger
}

func NewProcessor(
	comments repository.CommentRepository,
	resolver OwnerResolver,
	dir SubscriberDirectory,
	fwd forwarder.Forwarder,
	auditLog *audit.Logger,
) *Processor {
	return &Processor{
		comments:  comments,
		resolver:  resolver,
		directory: dir,
		forwarder: fwd,
		auditLog:  auditLog,
	}
}

// Process handles one verified webhook delivery. rawBody and headers are
// the original request bytes and headers; they pass through to the
// forwarder untouched so downstream signature checks still hold.
func (p *Processor) Process(ctx context.Context, payload *Payload, rawBody []byte, headers http.Header) Result {
	candidates := ExtractComments(payload)
	log.Printf("Extracted %d comment(s) from webhook", len(candidates))

	result := Result{}
	for _, candidate := range candidates {
		outcome := p.processComment(ctx, candidate, rawBody, headers)
		switch {
		case outcome.processed:
			result.CommentsProcessed++
			result.RoutedTo = outcome.routedTo
		default:
			result.CommentsSkipped++
			if outcome.err != "" {
				result.Errors = append(result.Errors, outcome.err)
			}
		}
	}

	// Duplicates are already-processed work, not failures: a delivery
	// succeeds when something processed or when nothing genuinely failed.
	result.Success = result.CommentsProcessed > 0 || len(result.Errors) == 0
	return result
}

type commentOutcome struct {
	processed bool
	routedTo  string
	// err is empty for duplicates: a replayed comment is a no-op skip,
	// not a failure.
	err string
}

func (p *Processor) processComment(ctx context.Context, candidate Candidate, rawBody []byte, headers http.Header) commentOutcome {
	start := time.Now()

	// Dedup guard: a comment ID that already exists was processed by an
	// earlier delivery.
	exists, err := p.comments.ExistsByCommentID(ctx, candidate.CommentID)
	if err != nil {
		log.Printf("dedup check failed for comment_id=%s: %v", candidate.CommentID, err)
	}
	if exists {
		log.Printf("Comment already exists: comment_id=%s", candidate.CommentID)
		return commentOutcome{}
	}

	webhookID := audit.NewCorrelationID()

	// Resolve the owning account for the media.
	owner, err := p.resolver.Resolve(ctx, candidate.MediaID)
	if err != nil {
		msg := fmt.Sprintf("Failed to get media owner for media_id=%s", candidate.MediaID)
		log.Print(msg)
		p.auditLog.Record(ctx, audit.Entry{
			WebhookID:    webhookID,
			AccountID:    candidate.AccountID,
			ErrorMessage: msg,
			Duration:     time.Since(start),
		})
		return commentOutcome{err: msg}
	}

	// Find the worker app registered for that account.
	app, err := p.directory.Lookup(ctx, owner.AccountID)
	if err != nil {
		msg := fmt.Sprintf("No active worker app found for account_id=%s", owner.AccountID)
		if !errors.Is(err, directory.ErrNotFound) {
			msg = fmt.Sprintf("Worker app lookup failed for account_id=%s: %v", owner.AccountID, err)
		}
		log.Print(msg)
		p.auditLog.Record(ctx, audit.Entry{
			WebhookID:    webhookID,
			AccountID:    owner.AccountID,
			ErrorMessage: msg,
			Duration:     time.Since(start),
		})
		return commentOutcome{err: msg}
	}

	// Persist the comment before forwarding. A duplicate-key conflict
	// means a concurrent delivery won the race: already processed.
	if duplicate := p.storeComment(ctx, candidate, owner.AccountID); duplicate {
		log.Printf("Comment already exists: comment_id=%s", candidate.CommentID)
		return commentOutcome{}
	}

	// One correlation ID for both the X-Webhook-ID header and the audit
	// row, so a delivered webhook can be matched to its log entry.
	fwdResult := p.forwarder.Forward(ctx, app.WebhookURL, webhookID, rawBody, headers)

	p.auditLog.Record(ctx, audit.Entry{
		WebhookID:    webhookID,
		AccountID:    owner.AccountID,
		WorkerApp:    app,
		Success:      fwdResult.Success,
		ErrorMessage: fwdResult.Error,
		Duration:     time.Since(start),
	})

	if !fwdResult.Success {
		msg := fmt.Sprintf("Failed to forward webhook to %s: %s", app.Username, fwdResult.Error)
		log.Print(msg)
		return commentOutcome{err: msg}
	}

	log.Printf("Successfully processed and forwarded comment to %s (owner source: %s)", app.Username, owner.Source)
	return commentOutcome{processed: true, routedTo: app.Username}
}

// storeComment persists the comment row. Returns true when another
// delivery already inserted the same comment ID. Other storage failures
// are logged and do not fail the comment: forwarding still matters more
// than our own copy.
func (p *Processor) storeComment(ctx context.Context, candidate Candidate, accountID string) bool {
	comment := &models.Comment{
		CommentID: candidate.CommentID,
		MediaID:   candidate.MediaID,
		AccountID: accountID,
		UserID:    candidate.UserID,
		Username:  candidate.Username,
		Text:      candidate.Text,
		Timestamp: candidate.Timestamp,
		RawData:   string(candidate.Raw),
	}
	if candidate.ParentID != "" {
		parentID := candidate.ParentID
		comment.ParentID = &parentID
	}

	err := p.comments.Create(ctx, comment)
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	log.Printf("Failed to store comment comment_id=%s: %v", candidate.CommentID, err)
	return false
}

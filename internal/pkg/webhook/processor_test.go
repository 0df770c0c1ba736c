package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chatico/mapper/app/models"
	"github.com/chatico/mapper/internal/pkg/audit"
	"github.com/chatico/mapper/internal/pkg/directory"
	"github.com/chatico/mapper/internal/pkg/forwarder"
	"github.com/chatico/mapper/internal/pkg/mediaowner"
)

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[string]*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[string]*models.Comment{}}
}

func (r *fakeCommentRepo) Create(_ context.Context, c *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[c.CommentID]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.comments[c.CommentID] = c
	return nil
}

func (r *fakeCommentRepo) ExistsByCommentID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.comments[id]
	return ok, nil
}

func (r *fakeCommentRepo) GetByCommentID(_ context.Context, id string) (*models.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.comments[id], nil
}

func (r *fakeCommentRepo) CountByAccountID(_ context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.comments {
		if c.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

type fakeResolver struct {
	owners map[string]*mediaowner.Owner
	calls  int
}

func (f *fakeResolver) Resolve(_ context.Context, mediaID string) (*mediaowner.Owner, error) {
	f.calls++
	owner, ok := f.owners[mediaID]
	if !ok {
		return nil, errors.New("upstream error")
	}
	return owner, nil
}

type fakeDirectory struct {
	apps map[string]*models.WorkerApp
}

func (f *fakeDirectory) Lookup(_ context.Context, accountID string) (*models.WorkerApp, error) {
	app, ok := f.apps[accountID]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return app, nil
}

type forwardCall struct {
	URL       string
	WebhookID string
	Body      []byte
	Headers   http.Header
}

type fakeForwarder struct {
	calls []forwardCall
	fail  bool
}

func (f *fakeForwarder) Forward(_ context.Context, targetURL, webhookID string, body []byte, headers http.Header) forwarder.Result {
	f.calls = append(f.calls, forwardCall{URL: targetURL, WebhookID: webhookID, Body: body, Headers: headers})
	if f.fail {
		return forwarder.Result{StatusCode: 500, Error: "Worker app returned 500", WebhookID: webhookID, Duration: time.Millisecond}
	}
	return forwarder.Result{Success: true, StatusCode: 200, WebhookID: webhookID, Duration: time.Millisecond}
}

type fakeLogRepo struct {
	entries []*models.WebhookLog
}

func (r *fakeLogRepo) Create(_ context.Context, entry *models.WebhookLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLogRepo) ListByAccountID(_ context.Context, _ string, _, _ int) ([]models.WebhookLog, error) {
	return nil, nil
}

type fixture struct {
	processor *Processor
	comments  *fakeCommentRepo
	resolver  *fakeResolver
	directory *fakeDirectory
	forwarder *fakeForwarder
	logRepo   *fakeLogRepo
}

func newFixture() *fixture {
	f := &fixture{
		comments:  newFakeCommentRepo(),
		resolver:  &fakeResolver{owners: map[string]*mediaowner.Owner{}},
		directory: &fakeDirectory{apps: map[string]*models.WorkerApp{}},
		forwarder: &fakeForwarder{},
		logRepo:   &fakeLogRepo{},
	}
	f.processor = NewProcessor(f.comments, f.resolver, f.directory, f.forwarder, audit.NewLogger(f.logRepo))
	return f
}

func (f *fixture) registerApp(accountID, name, url string) *models.WorkerApp {
	app := &models.WorkerApp{ID: uuid.New(), AccountID: accountID, Username: name, WebhookURL: url, IsActive: true}
	f.directory.apps[accountID] = app
	return app
}

func singleCommentPayload(t *testing.T) (*Payload, []byte) {
	t.Helper()
	raw := []byte(`{"object":"instagram","entry":[{"id":"acct-1","time":1700000000,"changes":[{"field":"comments","value":{"id":"c-1","media":{"id":"m-1"},"from":{"id":"u-1","username":"tester"},"text":"hi"}}]}]}`)
	var payload Payload
	require.NoError(t, json.Unmarshal(raw, &payload))
	return &payload, raw
}

func TestProcessSingleCommentSuccess(t *testing.T) {
	f := newFixture()
	f.resolver.owners["m-1"] = &mediaowner.Owner{AccountID: "acct-1", Source: mediaowner.SourceCache}
	f.registerApp("acct-1", "support-bot", "https://sub.example/hook")

	payload, raw := singleCommentPayload(t)
	result := f.processor.Process(context.Background(), payload, raw, http.Header{})

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.CommentsProcessed)
	assert.Equal(t, 0, result.CommentsSkipped)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "support-bot", result.RoutedTo)

	// Forwarder saw the original bytes, unmodified.
	require.Len(t, f.forwarder.calls, 1)
	assert.Equal(t, raw, f.forwarder.calls[0].Body)
	assert.Equal(t, "https://sub.example/hook", f.forwarder.calls[0].URL)

	// Comment stored once with the resolved account.
	stored, _ := f.comments.GetByCommentID(context.Background(), "c-1")
	require.NotNil(t, stored)
	assert.Equal(t, "acct-1", stored.AccountID)

	// Audit entry written with the worker app attached.
	require.Len(t, f.logRepo.entries, 1)
	assert.Equal(t, models.WebhookStatusSuccess, f.logRepo.entries[0].Status)
	require.NotNil(t, f.logRepo.entries[0].WorkerAppID)
}

func TestProcessAuditRowMatchesDeliveredWebhookID(t *testing.T) {
	f := newFixture()
	f.resolver.owners["m-1"] = &mediaowner.Owner{AccountID: "acct-1", Source: mediaowner.SourceCache}
	f.registerApp("acct-1", "support-bot", "https://sub.example/hook")

	payload, raw := singleCommentPayload(t)
	f.processor.Process(context.Background(), payload, raw, http.Header{})

	// The ID the worker app received and the audit row key are the same
	// value: that is what makes a log row traceable to a delivery.
	require.Len(t, f.forwarder.calls, 1)
	require.Len(t, f.logRepo.entries, 1)
	assert.NotEmpty(t, f.forwarder.calls[0].WebhookID)
	assert.Equal(t, f.forwarder.calls[0].WebhookID, f.logRepo.entries[0].WebhookID)
}

func TestProcessDuplicateIsSkipNotError(t *testing.T) {
	f := newFixture()
	f.resolver.owners["m-1"] = &mediaowner.Owner{AccountID: "acct-1", Source: mediaowner.SourceDatabase}
	f.registerApp("acct-1", "support-bot", "https://sub.example/hook")

	payload, raw := singleCommentPayload(t)

	first := f.processor.Process(context.Background(), payload, raw, http.Header{})
	assert.True(t, first.Success)
	assert.Equal(t, 1, first.CommentsProcessed)

	second := f.processor.Process(context.Background(), payload, raw, http.Header{})

	// The second delivery is a success-by-idempotence: no error, no
	// second forward, still exactly one row.
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.CommentsProcessed)
	assert.Equal(t, 1, second.CommentsSkipped)
	assert.Empty(t, second.Errors)
	assert.Len(t, f.forwarder.calls, 1)

	count, _ := f.comments.CountByAccountID(context.Background(), "acct-1")
	assert.EqualValues(t, 1, count)
}

func TestProcessInsertRaceTreatedAsDuplicate(t *testing.T) {
	f := newFixture()
	f.resolver.owners["m-1"] = &mediaowner.Owner{AccountID: "acct-1", Source: mediaowner.SourceCache}
	f.registerApp("acct-1", "support-bot", "https://sub.example/hook")

	// Simulate a concurrent delivery inserting after our existence check:
	// the pre-check misses but the insert hits the unique constraint.
	racing := &racingCommentRepo{fakeCommentRepo: f.comments}
	f.processor = NewProcessor(racing, f.resolver, f.directory, f.forwarder, audit.NewLogger(f.logRepo))
	f.comments.comments["c-1"] = &models.Comment{CommentID: "c-1", AccountID: "acct-1"}

	payload, raw := singleCommentPayload(t)
	result := f.processor.Process(context.Background(), payload, raw, http.Header{})

	// The conflict is treated as already processed: a skip, not an error,
	// and nothing is forwarded twice.
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.CommentsProcessed)
	assert.Equal(t, 1, result.CommentsSkipped)
	assert.Empty(t, result.Errors)
	assert.Empty(t, f.forwarder.calls)
}

// racingCommentRepo reports every comment as new on the existence check
// while the underlying store still enforces uniqueness on insert.
type racingCommentRepo struct {
	*fakeCommentRepo
}

func (r *racingCommentRepo) ExistsByCommentID(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func TestProcessNoWorkerAppIsFailure(t *testing.T) {
	f := newFixture()
	f.resolver.owners["m-1"] = &mediaowner.Owner{AccountID: "acct-1", Source: mediaowner.SourceCache}
	// No worker app registered.

	payload, raw := singleCommentPayload(t)
	result := f.processor.Process(context.Background(), payload, raw, http.Header{})

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.CommentsSkipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "No active worker app found")
	assert.Empty(t, f.forwarder.calls)

	// Audit entry with no worker app reference.
	require.Len(t, f.logRepo.entries, 1)
	assert.Equal(t, models.WebhookStatusFailed, f.logRepo.entries[0].Status)
	assert.Nil(t, f.logRepo.entries[0].WorkerAppID)
}

func TestProcessResolutionFailureIsFailure(t *testing.T) {
	f := newFixture()
	// Resolver has no mapping for m-1: all tiers exhausted.

	payload, raw := singleCommentPayload(t)
	result := f.processor.Process(context.Background(), payload, raw, http.Header{})

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Failed to get media owner")
	assert.Empty(t, f.forwarder.calls)
	require.Len(t, f.logRepo.entries, 1)
	assert.Equal(t, models.WebhookStatusFailed, f.logRepo.entries[0].Status)
}

func TestProcessForwardFailureRecorded(t *testing.T) {
	f := newFixture()
	f.resolver.owners["m-1"] = &mediaowner.Owner{AccountID: "acct-1", Source: mediaowner.SourceAPI}
	f.registerApp("acct-1", "support-bot", "https://sub.example/hook")
	f.forwarder.fail = true

	payload, raw := singleCommentPayload(t)
	result := f.processor.Process(context.Background(), payload, raw, http.Header{})

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Failed to forward webhook to support-bot")

	// The comment row still exists: persistence is independent of the
	// forward outcome.
	stored, _ := f.comments.GetByCommentID(context.Background(), "c-1")
	assert.NotNil(t, stored)

	require.Len(t, f.logRepo.entries, 1)
	assert.Equal(t, models.WebhookStatusFailed, f.logRepo.entries[0].Status)
	require.NotNil(t, f.logRepo.entries[0].WorkerAppID)
}

func TestProcessPartialFailureIsolation(t *testing.T) {
	f := newFixture()
	f.resolver.owners["m-1"] = &mediaowner.Owner{AccountID: "acct-1", Source: mediaowner.SourceCache}
	f.resolver.owners["m-2"] = &mediaowner.Owner{AccountID: "acct-2", Source: mediaowner.SourceCache}
	f.registerApp("acct-1", "support-bot", "https://sub.example/hook")
	// acct-2 has no worker app.

	raw := []byte(`{"entry":[
		{"id":"acct-1","time":1,"changes":[{"field":"comments","value":{"id":"c-1","media":{"id":"m-1"},"from":{"id":"u-1","username":"a"},"text":"1"}}]},
		{"id":"acct-2","time":2,"changes":[{"field":"comments","value":{"id":"c-2","media":{"id":"m-2"},"from":{"id":"u-2","username":"b"},"text":"2"}}]}
	]}`)
	var payload Payload
	require.NoError(t, json.Unmarshal(raw, &payload))

	result := f.processor.Process(context.Background(), &payload, raw, http.Header{})

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.CommentsProcessed)
	assert.Equal(t, 1, result.CommentsSkipped)
	require.Len(t, result.Errors, 1)

	// The successful comment made it to durable storage.
	stored, _ := f.comments.GetByCommentID(context.Background(), "c-1")
	assert.NotNil(t, stored)
	missing, _ := f.comments.GetByCommentID(context.Background(), "c-2")
	assert.Nil(t, missing)
}

func TestProcessEmptyPayloadSucceeds(t *testing.T) {
	f := newFixture()

	result := f.processor.Process(context.Background(), &Payload{}, []byte("{}"), http.Header{})

	assert.True(t, result.Success)
	assert.Zero(t, result.CommentsProcessed)
	assert.Zero(t, result.CommentsSkipped)
	assert.Empty(t, f.logRepo.entries)
}

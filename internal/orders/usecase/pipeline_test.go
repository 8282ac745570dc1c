package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"

	artifactService "github.com/allisson/charms/internal/artifact/service"
	"github.com/allisson/charms/internal/orders/domain"
	"github.com/allisson/charms/internal/orders/repository"
	renderService "github.com/allisson/charms/internal/render/service"
)

const fakeSignature = "t=1,v1=valid"

// fakeGateway mimics the payment provider: sessions live in memory and events
// are JSON encoded domain.PaymentEvent values accepted only with fakeSignature.
type fakeGateway struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	handles  []string
}

func newFakeGateway(handles ...string) *fakeGateway {
	return &fakeGateway{sessions: make(map[string]*domain.Session), handles: handles}
}

func (g *fakeGateway) CreateSession(_ context.Context, req domain.SessionRequest) (*domain.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	handle := fmt.Sprintf("cs_%d", len(g.sessions)+1)
	if len(g.handles) > 0 {
		handle, g.handles = g.handles[0], g.handles[1:]
	}
	session := &domain.Session{
		Handle:        handle,
		URL:           "https://pay.example.com/" + handle,
		PaymentStatus: "unpaid",
		AmountCents:   req.LineItem.AmountCents,
		Currency:      req.LineItem.Currency,
		Metadata:      req.Metadata,
	}
	g.sessions[handle] = session
	clone := *session
	return &clone, nil
}

func (g *fakeGateway) VerifyEvent(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if signature != fakeSignature {
		return nil, domain.ErrInvalidSignature
	}
	var event domain.PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidSignature
	}
	return &event, nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, handle string) (*domain.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.sessions[handle]
	if !ok {
		return nil, fmt.Errorf("no such session %s", handle)
	}
	clone := *session
	return &clone, nil
}

func (g *fakeGateway) IsSessionHandle(raw string) bool {
	return strings.HasPrefix(raw, "cs_")
}

// pay marks the session paid and returns the completion event the provider would send.
func (g *fakeGateway) pay(t *testing.T, handle string) []byte {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()

	session, ok := g.sessions[handle]
	require.True(t, ok)
	session.PaymentStatus = domain.PaymentStatusPaid

	clone := *session
	payload, err := json.Marshal(domain.PaymentEvent{
		ID:      "evt_" + handle,
		Type:    domain.EventCheckoutCompleted,
		Session: &clone,
	})
	require.NoError(t, err)
	return payload
}

type pipeline struct {
	repo        *repository.MemoryOrderRepository
	gateway     *fakeGateway
	bucket      *blob.Bucket
	checkout    CheckoutUseCase
	events      PaymentEventUseCase
	fulfillment FulfillmentUseCase
}

func newPipeline(t *testing.T, handles ...string) *pipeline {
	t.Helper()
	ctx := context.Background()

	signer, err := artifactService.NewURLSigner("http://localhost:8080", "pipeline-secret")
	require.NoError(t, err)
	bucket, err := artifactService.OpenBucket(ctx, "file://"+filepath.ToSlash(t.TempDir()), signer)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = bucket.Close()
	})

	repo := repository.NewMemoryOrderRepository()
	gateway := newFakeGateway(handles...)
	logger := newTestLogger()

	return &pipeline{
		repo:    repo,
		gateway: gateway,
		bucket:  bucket,
		checkout: NewCheckoutUseCase(repo, gateway, CheckoutConfig{
			PublicBaseURL:  "http://localhost:8080",
			ProductName:    "Luck Charm",
			PriceCents:     100,
			MaxPriceCents:  10000,
			Currency:       "usd",
			GatewayTimeout: time.Second,
			StoreTimeout:   time.Second,
		}, logger),
		events: NewPaymentEventUseCase(repo, gateway, time.Second, logger),
		fulfillment: NewFulfillmentUseCase(
			repo,
			gateway,
			renderService.NewRenderer(renderService.NewTemplateGenerator()),
			artifactService.NewBlobStore(bucket),
			FulfillmentConfig{
				URLTTL:         time.Hour,
				GatewayTimeout: time.Second,
				RenderTimeout:  time.Second,
				StoreTimeout:   time.Second,
			},
			logger,
		),
	}
}

func (p *pipeline) blobKeys(t *testing.T) []string {
	t.Helper()
	var keys []string
	iter := p.bucket.List(nil)
	for {
		obj, err := iter.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		keys = append(keys, obj.Key)
	}
	return keys
}

var anaCheckout = CheckoutInput{
	Name:      "Ana",
	Birthdate: "1990-01-01",
	Goal:      "job",
	Email:     "a@x.com",
}

func TestPipeline_AnaScenario(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h1")

	checkout, err := p.checkout.Initiate(ctx, anaCheckout)
	require.NoError(t, err)
	assert.Equal(t, "cs_h1", checkout.SessionHandle)

	pending, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, pending.Status)

	outcome, err := p.events.Process(ctx, p.gateway.pay(t, "cs_h1"), fakeSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	paid, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	assert.True(t, paid.InputsAuthoritative)
	assert.Equal(t, domain.CustomerInputs{
		Name:      "Ana",
		Birthdate: "1990-01-01",
		Goal:      "job",
		Email:     "a@x.com",
	}, paid.Inputs)

	result, err := p.fulfillment.Fulfill(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Contains(t, result.DownloadURL, "h1")
	assert.NotEmpty(t, result.ArtifactText)

	fulfilled, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFulfilled, fulfilled.Status)
	assert.Contains(t, fulfilled.ArtifactRef, "h1")
}

func TestPipeline_LegacyTokenResolvesToHandle(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h2")

	checkout, err := p.checkout.Initiate(ctx, anaCheckout)
	require.NoError(t, err)
	_, err = p.events.Process(ctx, p.gateway.pay(t, "cs_h2"), fakeSignature)
	require.NoError(t, err)

	result, err := p.fulfillment.Fulfill(ctx, checkout.CorrelationToken)

	require.NoError(t, err)
	assert.Equal(t, "cs_h2", result.SessionHandle)
}

func TestPipeline_DuplicateEventIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h1")

	_, err := p.checkout.Initiate(ctx, anaCheckout)
	require.NoError(t, err)
	event := p.gateway.pay(t, "cs_h1")

	_, err = p.events.Process(ctx, event, fakeSignature)
	require.NoError(t, err)
	once, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)

	_, err = p.events.Process(ctx, event, fakeSignature)
	require.NoError(t, err)
	twice, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestPipeline_ConcurrentDuplicateEvents(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h1")

	_, err := p.checkout.Initiate(ctx, anaCheckout)
	require.NoError(t, err)
	event := p.gateway.pay(t, "cs_h1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := p.events.Process(ctx, event, fakeSignature)
			assert.NoError(t, err)
			assert.Equal(t, OutcomeProcessed, outcome)
		}()
	}
	wg.Wait()

	order, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, order.Status)
}

func TestPipeline_DuplicateFulfillmentWritesOneBlob(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h1")

	_, err := p.checkout.Initiate(ctx, anaCheckout)
	require.NoError(t, err)
	_, err = p.events.Process(ctx, p.gateway.pay(t, "cs_h1"), fakeSignature)
	require.NoError(t, err)

	first, err := p.fulfillment.Fulfill(ctx, "cs_h1")
	require.NoError(t, err)
	second, err := p.fulfillment.Fulfill(ctx, "cs_h1")
	require.NoError(t, err)

	firstURL, err := url.Parse(first.DownloadURL)
	require.NoError(t, err)
	secondURL, err := url.Parse(second.DownloadURL)
	require.NoError(t, err)
	assert.Equal(t, firstURL.Query().Get("obj"), secondURL.Query().Get("obj"))
	assert.Equal(t, first.ArtifactRef, second.ArtifactRef)
	assert.Equal(t, []string{"cs_h1.png"}, p.blobKeys(t))
}

func TestPipeline_RetriedCheckoutReusesToken(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h1", "cs_h2")

	input := anaCheckout
	input.CorrelationToken = "tok-ana-retry"

	first, err := p.checkout.Initiate(ctx, input)
	require.NoError(t, err)
	second, err := p.checkout.Initiate(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "cs_h1", first.SessionHandle)
	assert.Equal(t, "cs_h2", second.SessionHandle)

	outcome, err := p.events.Process(ctx, p.gateway.pay(t, "cs_h2"), fakeSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	paid, err := p.repo.Get(ctx, "cs_h2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)

	abandoned, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, abandoned.Status)

	result, err := p.fulfillment.Fulfill(ctx, "tok-ana-retry")
	require.NoError(t, err)
	assert.Equal(t, "cs_h2", result.SessionHandle)
}

func TestPipeline_ProviderPaidBeforeWebhookSkipsPaid(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h1")

	_, err := p.checkout.Initiate(ctx, anaCheckout)
	require.NoError(t, err)
	// The customer returns before the completion event is delivered.
	_ = p.gateway.pay(t, "cs_h1")

	_, err = p.fulfillment.Fulfill(ctx, "cs_h1")
	require.NoError(t, err)

	order, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFulfilled, order.Status)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.False(t, order.InputsAuthoritative)

	_, err = p.events.Process(ctx, p.gateway.pay(t, "cs_h1"), fakeSignature)
	require.NoError(t, err)

	late, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFulfilled, late.Status)
	assert.True(t, late.InputsAuthoritative)
}

func TestPipeline_FulfillmentBeforeAnyRecord(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)
	p.gateway.sessions["cs_early"] = &domain.Session{
		Handle:        "cs_early",
		PaymentStatus: domain.PaymentStatusPaid,
	}

	_, err := p.fulfillment.Fulfill(ctx, "cs_early")

	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, err = p.repo.Get(ctx, "cs_early")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Empty(t, p.blobKeys(t))
}

func TestPipeline_UnpaidSessionIsNotFulfilled(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h1")

	_, err := p.checkout.Initiate(ctx, anaCheckout)
	require.NoError(t, err)

	_, err = p.fulfillment.Fulfill(ctx, "cs_h1")

	assert.ErrorIs(t, err, domain.ErrPaymentNotCompleted)
	order, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, order.Status)
	assert.Empty(t, p.blobKeys(t))

	// A late payment supersedes the failure mark.
	_, err = p.events.Process(ctx, p.gateway.pay(t, "cs_h1"), fakeSignature)
	require.NoError(t, err)
	_, err = p.fulfillment.Fulfill(ctx, "cs_h1")
	require.NoError(t, err)
}

func TestPipeline_InvalidSignatureDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h1")

	_, err := p.checkout.Initiate(ctx, anaCheckout)
	require.NoError(t, err)
	event := p.gateway.pay(t, "cs_h1")

	for _, signature := range []string{"", "t=1,v1=forged"} {
		outcome, err := p.events.Process(ctx, event, signature)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		assert.Equal(t, OutcomeRejected, outcome)
	}

	order, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
}

func TestPipeline_StatusNeverMovesBackward(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_h1")

	_, err := p.checkout.Initiate(ctx, anaCheckout)
	require.NoError(t, err)
	event := p.gateway.pay(t, "cs_h1")
	_, err = p.events.Process(ctx, event, fakeSignature)
	require.NoError(t, err)
	_, err = p.fulfillment.Fulfill(ctx, "cs_h1")
	require.NoError(t, err)

	// Replays after fulfillment: webhook redelivery and a second checkout precapture.
	_, err = p.events.Process(ctx, event, fakeSignature)
	require.NoError(t, err)
	_, err = p.repo.Upsert(ctx, "cs_h1", domain.OrderUpdate{Status: domain.StatusPtr(domain.StatusPending)})
	require.NoError(t, err)

	order, err := p.repo.Get(ctx, "cs_h1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFulfilled, order.Status)
}

func TestPipeline_FulfillPending(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, "cs_a", "cs_b", "cs_c")

	for _, handle := range []string{"cs_a", "cs_b", "cs_c"} {
		_, err := p.checkout.Initiate(ctx, anaCheckout)
		require.NoError(t, err)
		if handle != "cs_c" {
			_, err = p.events.Process(ctx, p.gateway.pay(t, handle), fakeSignature)
			require.NoError(t, err)
		}
	}

	result, err := p.fulfillment.FulfillPending(ctx, 10, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempted)
	assert.ElementsMatch(t, []string{"cs_a", "cs_b"}, result.Fulfilled)
	assert.Empty(t, result.Failed)
	assert.ElementsMatch(t, []string{"cs_a.png", "cs_b.png"}, p.blobKeys(t))
}

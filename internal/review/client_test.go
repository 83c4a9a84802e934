package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewgate/reviewgate/internal/models"
	"github.com/reviewgate/reviewgate/internal/provider"
)

// fakeProvider scripts one Invoke outcome.
type fakeProvider struct {
	resp  provider.Response
	err   error
	delay time.Duration
}

func (f *fakeProvider) Invoke(ctx context.Context, req provider.Request) (provider.Response, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return provider.Response{}, ctx.Err()
		}
	}
	if f.err != nil {
		return provider.Response{}, f.err
	}
	return f.resp, nil
}

func fixedFactory(p provider.Provider, err error) provider.Factory {
	return func(spec models.ReviewerSpec) (provider.Provider, error) {
		return p, err
	}
}

var testSpec = models.ReviewerSpec{
	Name:     "Test Model",
	Provider: models.ProviderOpenRouter,
	Model:    "test/model",
	Timeout:  time.Second,
}

func TestClientReview_Success(t *testing.T) {
	p := &fakeProvider{resp: provider.Response{
		Text:   "VERDICT: PASS\n\nISSUES:\n\nNOTES:\n- clean change\n",
		Tokens: models.TokenUsage{Input: 500, Output: 40},
	}}

	v := NewClient(fixedFactory(p, nil)).Review(context.Background(), "diff", testSpec)

	assert.Equal(t, "Test Model", v.Model)
	assert.Equal(t, models.VerdictPass, v.Verdict)
	assert.Empty(t, v.Error)
	assert.Equal(t, 500, v.Tokens.Input)
	require.Len(t, v.Notes, 1)
}

func TestClientReview_ProviderError(t *testing.T) {
	p := &fakeProvider{err: errors.New("connection refused")}

	v := NewClient(fixedFactory(p, nil)).Review(context.Background(), "diff", testSpec)

	assert.Equal(t, models.VerdictError, v.Verdict)
	assert.Contains(t, v.Error, "model call failed")
	assert.Zero(t, v.Tokens.Input)
	// Error verdicts still carry empty (not nil) lists for stable JSON.
	assert.NotNil(t, v.Issues)
	assert.NotNil(t, v.Notes)
}

func TestClientReview_Timeout(t *testing.T) {
	p := &fakeProvider{
		delay: 500 * time.Millisecond,
		resp:  provider.Response{Text: "VERDICT: PASS"},
	}
	spec := testSpec
	spec.Timeout = 20 * time.Millisecond

	start := time.Now()
	v := NewClient(fixedFactory(p, nil)).Review(context.Background(), "diff", spec)

	assert.Equal(t, models.VerdictError, v.Verdict)
	assert.Contains(t, v.Error, "model call failed")
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestClientReview_UnparseableResponse(t *testing.T) {
	p := &fakeProvider{resp: provider.Response{
		Text:   "Looks good, probably fine to merge!",
		Tokens: models.TokenUsage{Input: 500, Output: 40},
	}}

	v := NewClient(fixedFactory(p, nil)).Review(context.Background(), "diff", testSpec)

	// An ambiguous response is an ERROR, never a guessed PASS or FAIL.
	assert.Equal(t, models.VerdictError, v.Verdict)
	assert.Contains(t, v.Error, "no VERDICT line")
	assert.Zero(t, v.Tokens.Input)
}

func TestClientReview_FactoryError(t *testing.T) {
	v := NewClient(fixedFactory(nil, errors.New("no API key"))).Review(context.Background(), "diff", testSpec)

	assert.Equal(t, models.VerdictError, v.Verdict)
	assert.Contains(t, v.Error, "provider setup failed")
}

func TestClientReview_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProvider{delay: time.Second, resp: provider.Response{Text: "VERDICT: PASS"}}
	v := NewClient(fixedFactory(p, nil)).Review(ctx, "diff", testSpec)

	assert.Equal(t, models.VerdictError, v.Verdict)
}

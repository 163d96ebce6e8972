package sidecar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agent-backplane/abp/sidecar"
)

func TestDefaultRetryPolicyValues(t *testing.T) {
	p := sidecar.DefaultRetryPolicy()
	assert.Equal(t, uint32(3), p.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 5*time.Second, p.MaxBackoff)
	assert.InDelta(t, 2.0, p.BackoffMultiplier, 0.0001)
}

func TestRetryPolicyBuilder(t *testing.T) {
	p := sidecar.NewRetryPolicyBuilder().
		MaxRetries(5).
		InitialBackoff(200 * time.Millisecond).
		MaxBackoff(10 * time.Second).
		BackoffMultiplier(3.0).
		Build()

	assert.Equal(t, uint32(5), p.MaxRetries)
	assert.Equal(t, 200*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 10*time.Second, p.MaxBackoff)
	assert.InDelta(t, 3.0, p.BackoffMultiplier, 0.0001)
}

func TestComputeDelayFirstAttemptWithinJitterBounds(t *testing.T) {
	p := sidecar.NewRetryPolicyBuilder().
		InitialBackoff(100 * time.Millisecond).
		BackoffMultiplier(2.0).
		MaxBackoff(60 * time.Second).
		Build()

	delay := p.ComputeDelay(0)
	assert.GreaterOrEqual(t, delay, 75*time.Millisecond)
	assert.LessOrEqual(t, delay, 125*time.Millisecond)
}

func TestComputeDelaySecondAttemptWithinJitterBounds(t *testing.T) {
	p := sidecar.NewRetryPolicyBuilder().
		InitialBackoff(100 * time.Millisecond).
		BackoffMultiplier(2.0).
		MaxBackoff(60 * time.Second).
		Build()

	delay := p.ComputeDelay(1)
	assert.GreaterOrEqual(t, delay, 150*time.Millisecond)
	assert.LessOrEqual(t, delay, 250*time.Millisecond)
}

func TestComputeDelayCappedAtMax(t *testing.T) {
	p := sidecar.NewRetryPolicyBuilder().
		InitialBackoff(1 * time.Second).
		BackoffMultiplier(10.0).
		MaxBackoff(5 * time.Second).
		Build()

	delay := p.ComputeDelay(3)
	assert.LessOrEqual(t, delay, 5*time.Second)
	assert.GreaterOrEqual(t, delay, 3750*time.Millisecond)
}

func TestJitterNeverExceedsMaxAcrossManyAttempts(t *testing.T) {
	p := sidecar.DefaultRetryPolicy()
	for attempt := uint32(0); attempt < 50; attempt++ {
		delay := p.ComputeDelay(attempt)
		assert.LessOrEqual(t, delay, p.MaxBackoff, "attempt %d", attempt)
	}
}

func TestZeroRetriesMeansNoRetry(t *testing.T) {
	p := sidecar.NewRetryPolicyBuilder().MaxRetries(0).Build()
	assert.False(t, p.ShouldRetry(0))
	assert.False(t, p.ShouldRetry(1))
}

func TestShouldRetryRespectsMax(t *testing.T) {
	p := sidecar.NewRetryPolicyBuilder().MaxRetries(3).Build()
	assert.True(t, p.ShouldRetry(0))
	assert.True(t, p.ShouldRetry(2))
	assert.False(t, p.ShouldRetry(3))
}

func TestDefaultTimeoutConfigHasNoTimeouts(t *testing.T) {
	tc := sidecar.DefaultTimeoutConfig()
	assert.Nil(t, tc.RunTimeout)
	assert.Nil(t, tc.EventTimeout)
}

package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	err := TemporalViolationf("cannot materialize %s before today", "2020-01-01")
	if !errors.Is(err, ErrTemporalViolation) {
		t.Error("expected temporal violation classification")
	}
	if errors.Is(err, ErrDomainViolation) {
		t.Error("temporal violation must not classify as domain violation")
	}

	err = DomainViolationf("plan %s is closed", "dp-1")
	if !errors.Is(err, ErrDomainViolation) {
		t.Error("expected domain violation classification")
	}

	err = NotFoundf("task %s", "t-404")
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected not-found classification")
	}
}

func TestErrorClassificationSurvivesWrapping(t *testing.T) {
	inner := TransientStoref("store timeout after %dms", 500)
	outer := fmt.Errorf("close day: %w", inner)
	if !errors.Is(outer, ErrTransientStore) {
		t.Error("classification should survive wrapping")
	}
	if !IsRetryable(outer) {
		t.Error("transient store failures are retryable")
	}
	if IsRetryable(ErrDomainViolation) {
		t.Error("domain violations are never retryable")
	}
}

// Package errors_test covers the AppError type, factory functions, and
// error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// TestNew
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"unknown reference", errors.ErrCodeUnknownReference, "KE 17 missing"},
		{"invalid param", errors.CodeInvalidParam, "chunk size must be positive"},
		{"mapping unavailable", errors.ErrCodeMappingUnavailable, "bridgedb down"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// TestWrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	wrapped := errors.Wrap(root, errors.ErrCodeMappingUnavailable, "xrefsBatch failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeMappingUnavailable, wrapped.Code)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.UnknownReference("KE", "ke-9")
	outer := errors.Wrap(inner, errors.CodeUnknown, "parsing AOP 3")

	require.NotNil(t, outer)
	assert.Equal(t, errors.ErrCodeUnknownReference, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.UnknownReference("KE", "ke-9")
	outer := errors.Wrap(inner, errors.ErrCodeRunFailed, "run aborted")

	assert.Equal(t, errors.ErrCodeRunFailed, outer.Code)
	assert.True(t, errors.IsCode(outer, errors.ErrCodeUnknownReference))
}

// ─────────────────────────────────────────────────────────────────────────────
// TestError_Method
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeMalformedDocument, "missing vendor-specific section")
	assert.Equal(t, "[AOP_002] missing vendor-specific section", ae.Error())

	withDetail := ae.WithDetail("file=aop.xml")
	assert.Equal(t, "[AOP_002] missing vendor-specific section: file=aop.xml", withDetail.Error())

	withCause := withDetail.WithCause(stderrors.New("EOF"))
	assert.Equal(t, "[AOP_002] missing vendor-specific section: file=aop.xml - EOF", withCause.Error())
}

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	original := errors.New(errors.CodeNotFound, "resource missing")
	detailed := original.WithDetail("id=42")

	assert.Empty(t, original.Detail)
	assert.Equal(t, "id=42", detailed.Detail)
}

func TestBuilders_NilSafe(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain helpers
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_ThroughFmtWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("assembly: %w", errors.EmptyRequiredField("AOP", "a1", "title"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyRequiredField))
	assert.False(t, errors.IsCode(err, errors.ErrCodeUnknownReference))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeResolutionSoftFailure,
		errors.GetCode(errors.ResolutionSoftFailure("chemical", "50-00-0", nil)))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("object missing")))
	assert.False(t, errors.IsNotFound(errors.Internal("boom")))
	assert.False(t, errors.IsNotFound(nil))
}

// ─────────────────────────────────────────────────────────────────────────────
// Domain factories
// ─────────────────────────────────────────────────────────────────────────────

func TestUnknownReference_Detail(t *testing.T) {
	t.Parallel()

	ae := errors.UnknownReference("KER", "ker-1")
	assert.Equal(t, errors.ErrCodeUnknownReference, ae.Code)
	assert.Contains(t, ae.Error(), `entity=KER local_id="ker-1"`)
}

func TestEmptyRequiredField_Detail(t *testing.T) {
	t.Parallel()

	ae := errors.EmptyRequiredField("Stressor", "s-4", "name")
	assert.Contains(t, ae.Detail, "field=name")
	assert.Contains(t, ae.Detail, `local_id="s-4"`)
}

func TestResolutionSoftFailure_WrapsCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("timeout")
	ae := errors.ResolutionSoftFailure("gene", "BRCA1", cause)
	assert.True(t, stderrors.Is(ae, cause))
	assert.Contains(t, ae.Detail, `key="BRCA1"`)
}

func TestMalformedLexiconRow_Detail(t *testing.T) {
	t.Parallel()

	ae := errors.MalformedLexiconRow(12, 2)
	assert.Equal(t, "line=12 columns=2", ae.Detail)
}

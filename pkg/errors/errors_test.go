package errors

import (
	"fmt"
	"io"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      New(KindNoData, "no supplier produced data"),
			expected: "no supplier produced data",
		},
		{
			name:     "supplier and path",
			err:      New(KindSourceLoad, "invalid JSON").AddSupplier("coffee_shrub").AddPath("results/coffee_shrub_1.json"),
			expected: "supplier 'coffee_shrub' -> file 'results/coffee_shrub_1.json': invalid JSON",
		},
		{
			name:     "record",
			err:      Newf(KindEnrichmentAnomaly, "unknown unit %q", "bag").AddRecord("Huila"),
			expected: "record 'Huila': unknown unit \"bag\"",
		},
		{
			name:     "wrapped cause",
			err:      Wrap(KindSourceLoad, io.ErrUnexpectedEOF, "failed to read source"),
			expected: "failed to read source: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(KindSourceLoad, nil, "ignored"))
}

func TestKindOf(t *testing.T) {
	base := New(KindSourceUnavailable, "no file").AddSupplier("sweet_marias")
	wrapped := fmt.Errorf("selecting: %w", base)

	assert.Equal(t, KindSourceUnavailable, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindSourceUnavailable))
	assert.False(t, Is(wrapped, KindNoData))
	assert.Equal(t, Kind(""), KindOf(io.EOF))
	assert.False(t, Is(nil, KindNoData))
	assert.True(t, IsNoData(New(KindNoData, "empty")))
}

func TestCause(t *testing.T) {
	err := Wrap(KindSourceLoad, io.ErrUnexpectedEOF, "failed to read source")

	assert.Equal(t, io.ErrUnexpectedEOF, err.Cause())
	assert.Equal(t, io.ErrUnexpectedEOF, pkgerrors.Cause(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Nil(t, New(KindNoData, "x").Cause())
}
